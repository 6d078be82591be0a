package db

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// StorageEntry 是键值条目在 sqlite 中的行结构
// 值统一存 JSON 文本，引擎不关心具体内容
type StorageEntry struct {
	Key   string `gorm:"primaryKey;size:255"`
	Value string
}

// TableName 固定键值表名
func (StorageEntry) TableName() string {
	return "storage_entries"
}

// SQLiteStore 通过 gorm 将键值存储落盘到 sqlite 文件
type SQLiteStore struct {
	db *gorm.DB
}

// Open 打开（必要时创建）sqlite 存储并执行自动迁移。
// path 为空时将回退到默认值 habitflow.db。
func Open(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "habitflow.db"
	}

	if err := ensureParentDir(path); err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	if err := gdb.AutoMigrate(&StorageEntry{}); err != nil {
		return nil, fmt.Errorf("migrate storage: %w", err)
	}

	slog.Info("storage opened", "path", path)

	return &SQLiteStore{db: gdb}, nil
}

// NewSQLiteStore 基于已有连接构造存储，便于测试复用内存 sqlite
func NewSQLiteStore(gdb *gorm.DB) *SQLiteStore {
	return &SQLiteStore{db: gdb}
}

// Get 读取键对应的值，未写入过的键返回 ErrKeyNotFound
func (s *SQLiteStore) Get(key string) (string, error) {
	var entry StorageEntry
	if err := s.db.First(&entry, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("get storage entry: %w", err)
	}
	return entry.Value, nil
}

// Set 写入键值，键已存在时覆盖旧值
func (s *SQLiteStore) Set(key, value string) error {
	entry := StorageEntry{Key: key, Value: value}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&entry).Error; err != nil {
		return fmt.Errorf("set storage entry: %w", err)
	}
	return nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("storage path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
