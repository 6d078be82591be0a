package config

import (
	"os"
	"strings"
)

// AppConfig 汇总引擎运行所需的基础配置。
type AppConfig struct {
	DatabasePath string
}

// Load 从环境变量读取配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	databasePath := strings.TrimSpace(os.Getenv("HABITFLOW_DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "habitflow.db"
	}

	return AppConfig{
		DatabasePath: databasePath,
	}
}
