package configs

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DBType 数据库驱动名.
type DBType string

// 驱动族，别名通过 DBConfig.Driver 归一.
const (
	PostgreSQL DBType = "postgresql"
	MySQL      DBType = "mysql"
	SQLite     DBType = "sqlite"
)

var dbAliases = map[DBType]DBType{
	"postgres": PostgreSQL,
	"pg":       PostgreSQL,
	"mariadb":  MySQL,
}

// DBConfig 资产清单与备份索引所在的数据库.
//
// SQLite 下 Database 是文件路径，不带 .db 后缀时自动补上，":memory:" 表示内存库.
type DBConfig struct {
	Type            DBType        `mapstructure:"type"              rule:"oneof=postgresql postgres pg mysql mariadb sqlite"`
	Host            string        `mapstructure:"host"              rule:"omitempty,hostname|ip"`
	Port            int           `mapstructure:"port"              rule:"min=0,max=65535"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"          rule:"required"`
	SSLMode         string        `mapstructure:"sslmode"           rule:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    rule:"min=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    rule:"min=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// SlowThreshold 超过该耗时的查询以 warn 级别记录，0 关闭
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`
}

// Driver 返回归一后的驱动族.
func (c *DBConfig) Driver() DBType {
	t := DBType(strings.ToLower(string(c.Type)))
	if canonical, ok := dbAliases[t]; ok {
		return canonical
	}

	return t
}

// DSN 按驱动族拼接连接串，未知驱动返回空串.
func (c *DBConfig) DSN() string {
	switch c.Driver() {
	case PostgreSQL:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.User, c.Password),
			Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.portOr(5432))),
			Path:   "/" + c.Database,
		}
		if c.SSLMode != "" {
			u.RawQuery = "sslmode=" + c.SSLMode
		}

		return u.String()
	case MySQL:
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.User, c.Password, net.JoinHostPort(c.Host, strconv.Itoa(c.portOr(3306))), c.Database)
	case SQLite:
		if c.Database == ":memory:" || strings.HasSuffix(c.Database, ".db") {
			return "file:" + c.Database
		}

		return "file:" + c.Database + ".db"
	default:
		return ""
	}
}

func (c *DBConfig) portOr(def int) int {
	if c.Port > 0 {
		return c.Port
	}

	return def
}

func (c *DBConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("db.type", SQLite)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 0)
	v.SetDefault("db.database", "data/assetvault")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.slow_threshold", "500ms")
}
