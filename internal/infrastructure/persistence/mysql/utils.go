package mysql

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// txKey 事务DB在context中的键
type txKey struct{}

// dbFrom 从context获取事务DB，没有事务时使用默认DB
// 事务内的每一次仓储调用都必须经由这里，否则会脱离当前事务
func dbFrom(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

// isDuplicateError 判断是否为唯一索引冲突
// MySQL: Error 1062 Duplicate entry 'xxx' for key 'yyy'
// SQLite: UNIQUE constraint failed: table.column
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}

// normalizePage 页码与每页数量的默认值和上限
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
