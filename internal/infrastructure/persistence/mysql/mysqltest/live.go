package mysqltest

import (
	"os"
	"testing"

	driver "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// DSNEnv 真实MySQL的连接串，例如
// root:root@tcp(127.0.0.1:3306)/library_test?charset=utf8mb4&parseTime=True&loc=UTC
const DSNEnv = "LIBRARY_TEST_MYSQL_DSN"

// OpenMySQL 连接真实MySQL，未配置时跳过测试
// 数据不做清理，请使用专门的测试库，用例自己保证用户名、ISBN不重复
func OpenMySQL(t testing.TB, conns int) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		t.Skipf("未设置%s，跳过MySQL测试", DSNEnv)
	}
	return open(t, driver.Open(dsn), conns)
}
