package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config 存储引擎配置
type Config struct {
	Table   TableConfig   `json:"table"`
	Backend BackendConfig `json:"backend"`
	MVCC    MVCCConfig    `json:"mvcc"`
	Log     LogConfig     `json:"log"`
}

// TableConfig 表配置
type TableConfig struct {
	TuplesPerRowGroup uint32 `json:"tuples_per_row_group"` // 每个row group的槽位数
}

// BackendConfig 存储后端配置
type BackendConfig struct {
	Type string `json:"type"` // memory 或 badger
	Path string `json:"path,omitempty"`
}

// MVCCConfig MVCC配置
type MVCCConfig struct {
	MaxActiveTxns int `json:"max_active_txns"` // 最大活跃事务数
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `json:"level"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Table: TableConfig{
			TuplesPerRowGroup: 1024,
		},
		Backend: BackendConfig{
			Type: "memory",
		},
		MVCC: MVCCConfig{
			MaxActiveTxns: 10000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig 从文件加载配置
func LoadConfig(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Table.TuplesPerRowGroup == 0 {
		return fmt.Errorf("table.tuples_per_row_group must be positive")
	}
	switch c.Backend.Type {
	case "memory":
	case "badger":
		if c.Backend.Path == "" {
			return fmt.Errorf("backend.path is required for badger backend")
		}
	default:
		return fmt.Errorf("unknown backend type: %s", c.Backend.Type)
	}
	if c.MVCC.MaxActiveTxns <= 0 {
		return fmt.Errorf("mvcc.max_active_txns must be positive")
	}
	return nil
}
