package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dushixiang/tdi/internal/config"
	"github.com/dushixiang/tdi/internal/models"
)

// ErrUnsupportedDBURL 无法识别的存储地址，启动期直接失败
var ErrUnsupportedDBURL = errors.New("unsupported database url")

const defaultDBFile = "tdi_bot.db"

const sqliteScheme = "sqlite:///"

// Resolve 把配置里的存储地址解析为本地 sqlite 文件路径，
// 只认默认地址和 sqlite:/// 前缀两种形式
func Resolve(dbURL string) (string, error) {
	if dbURL == config.DefaultDBURL {
		return defaultDBFile, nil
	}
	if strings.HasPrefix(dbURL, sqliteScheme) {
		return strings.TrimPrefix(dbURL, sqliteScheme), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedDBURL, dbURL)
}

// Open 打开 sqlite 数据库，父目录不存在时自动创建
func Open(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	return db, nil
}

// Migrate 应用表结构，幂等，可对同一库重复执行
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		models.Trade{}, models.EquityPoint{}, models.DailyMetrics{},
	)
}

// OpenFromURL 解析地址、打开数据库并应用表结构
func OpenFromURL(dbURL string) (*gorm.DB, error) {
	path, err := Resolve(dbURL)
	if err != nil {
		return nil, err
	}
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}
