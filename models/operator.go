package models

import "time"

// Operator 可以调用 API 的操作员
type Operator struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         int       `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// 角色常量
const (
	RoleOperator = 0 // 普通操作员
	RoleAdmin    = 1 // 管理员
)

// IsAdmin 检查是否为管理员
func (o *Operator) IsAdmin() bool {
	return o.Role == RoleAdmin
}
