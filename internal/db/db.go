package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	pqUniqueViolation = "23505"
)

// Config 描述数据库连接参数。
type Config struct {
	Driver string
	// Path is the sqlite file path; empty falls back to landingkit.db.
	Path string
	// URL is the postgres DSN.
	URL    string
	Logger gormlogger.Interface
}

// Open 打开数据库连接并执行自动迁移。
func Open(cfg Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{TranslateError: true}
	if cfg.Logger != nil {
		gormCfg.Logger = cfg.Logger
	}

	var (
		gdb *gorm.DB
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverSQLite:
		path := strings.TrimSpace(cfg.Path)
		if path == "" {
			path = "landingkit.db"
		}
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
		gdb, err = gorm.Open(sqlite.Open(path), gormCfg)
	case DriverPostgres:
		var sqlDB *sql.DB
		sqlDB, err = sql.Open("postgres", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		gdb, err = gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return gdb, nil
}

// Migrate creates or updates the tables for all models.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(&User{}, &LandingPage{})
}

// Close releases the underlying connection pool.
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsUniqueViolation reports whether err came from a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func ensureParentDir(path string) error {
	if strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
