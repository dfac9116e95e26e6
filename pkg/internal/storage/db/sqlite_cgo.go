//go:build !no_sqlite && cgo

package db

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/assetvault/pkg/configs"
)

// mattn/go-sqlite3 的连接参数写法.
func init() {
	RegisterDialectorFactory(configs.SQLite, func(dsn string) gorm.Dialector {
		return sqlite.Open(withQuery(dsn, "_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"))
	})
}
