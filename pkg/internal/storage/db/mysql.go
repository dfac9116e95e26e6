//go:build !no_mysql

package db

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/yeisme/assetvault/pkg/configs"
)

func init() {
	RegisterDialectorFactory(configs.MySQL, func(dsn string) gorm.Dialector {
		return mysql.New(mysql.Config{
			DSN: dsn,
			// 资产 ID 与扩展名都很短，191 留给 utf8mb4 索引
			DefaultStringSize: 191,
		})
	})
}
