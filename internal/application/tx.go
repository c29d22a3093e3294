// Package application 用例层公共定义
package application

import "context"

// Transactor 事务边界
// fn内的仓储调用经由ctx共享同一事务，fn返回error时整体回滚
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
