// Package mysqltest 为仓储与用例测试提供gorm连接
// 默认使用SQLite，设置LIBRARY_TEST_MYSQL_DSN后可以连接真实MySQL
package mysqltest

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
)

// New 创建独立的内存数据库并完成迁移
// 1. 每个测试使用唯一的库名，互不干扰
// 2. 只保留一个连接，适合不涉及并发的用例
func New(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	return open(t, sqlite.Open(dsn), 1)
}

// NewShared 创建文件数据库，连接池里有conns个连接
// 1. WAL模式下读不阻塞写
// 2. _txlock=immediate让事务在BEGIN时争抢写锁，并发事务来自不同连接
// 3. SQLite会忽略FOR UPDATE，行锁语义需要用OpenMySQL验证
func NewShared(t testing.TB, conns int) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "library.db")
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=10000&_txlock=immediate", path)
	return open(t, sqlite.Open(dsn), conns)
}

func open(t testing.TB, dialector gorm.Dialector, conns int) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取SQL DB失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := mysql.AutoMigrate(db); err != nil {
		t.Fatalf("迁移测试数据库失败: %v", err)
	}
	return db
}
