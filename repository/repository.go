// Package repository 把任务记录、标定结果和操作员账号保存到 MySQL。
// 估算流程本身不依赖这里，只有 HTTP 接口会写入历史。
package repository

import (
	"database/sql"
	"errors"
	"math"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// mysqlDuplicateEntry ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return ErrDuplicate
	}
	return err
}

// nullable 非有限值存为 NULL
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// fromNullable NULL 读回 -Inf，和 JSON 的约定一致
func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.Inf(-1)
	}
	return v.Float64
}

// Page 分页参数，从 1 开始
type Page struct {
	Number int
	Size   int
}

// Normalize 补齐默认值并限制每页最多 100 条
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = 10
	}
	if p.Size > 100 {
		p.Size = 100
	}
	return p
}

func (p Page) offset() int {
	return (p.Number - 1) * p.Size
}
