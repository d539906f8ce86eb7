package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go-soilwater/models"
)

// OperatorStore 操作员账号
type OperatorStore struct {
	DB *sql.DB
}

// NewOperatorStore 创建一个新的OperatorStore实例
func NewOperatorStore(db *sql.DB) *OperatorStore {
	return &OperatorStore{DB: db}
}

// Create 新建操作员，用户名重复返回 ErrDuplicate
func (s *OperatorStore) Create(ctx context.Context, username, passwordHash string) (models.Operator, error) {
	op := models.Operator{Username: username, PasswordHash: passwordHash, Role: models.RoleOperator, CreatedAt: time.Now()}
	result, err := s.DB.ExecContext(ctx,
		"INSERT INTO operators (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)",
		op.Username, op.PasswordHash, op.Role, op.CreatedAt,
	)
	if err != nil {
		return models.Operator{}, fmt.Errorf("insert operator: %w", translate(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return models.Operator{}, fmt.Errorf("insert operator: %w", err)
	}
	op.ID = int(id)
	return op, nil
}

// FindByUsername 按用户名查找，不存在返回 ErrNotFound
func (s *OperatorStore) FindByUsername(ctx context.Context, username string) (models.Operator, error) {
	var op models.Operator
	err := s.DB.QueryRowContext(ctx,
		"SELECT id, username, password_hash, role, created_at FROM operators WHERE username = ?",
		username,
	).Scan(&op.ID, &op.Username, &op.PasswordHash, &op.Role, &op.CreatedAt)
	if err != nil {
		return models.Operator{}, fmt.Errorf("find operator %q: %w", username, translate(err))
	}
	return op, nil
}
