package db

import "errors"

// ErrKeyNotFound 在存储中不存在指定键时返回
var ErrKeyNotFound = errors.New("storage key not found")

// Store 抽象引擎依赖的字符串键值存储
// 引擎是单线程同步模型，实现无需考虑并发写入
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// MemoryStore 是 map 实现的非持久化存储
// 测试场景注入它代替 sqlite，也可供调用方做临时会话使用
type MemoryStore struct {
	entries map[string]string
}

// NewMemoryStore 构造空的内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

// Get 读取键对应的值
func (s *MemoryStore) Get(key string) (string, error) {
	value, ok := s.entries[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// Set 写入键值
func (s *MemoryStore) Set(key, value string) error {
	s.entries[key] = value
	return nil
}
