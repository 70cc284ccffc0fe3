package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port           int              `json:"port"`
	Database       DatabaseConfig   `json:"database"`
	LogConfig      logger.LogConfig `json:"log_config"`
	AI             AIConfig         `json:"ai"`
	Themes         ThemesConfig     `json:"themes"`
	Jobs           JobsConfig       `json:"jobs"`
	CORSAllowlist  []string         `json:"cors_allowlist"`
	InternalSecret string           `json:"internal_secret"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type AIConfig struct {
	Provider       string      `json:"provider"`
	Model          string      `json:"model"`
	EmbedModel     string      `json:"embed_model"`
	Timeout        int         `json:"timeout"`
	EmbedCacheSize int         `json:"embed_cache_size"`
	EmbedCacheTTL  int         `json:"embed_cache_ttl"`
	Data           interface{} `json:"data"`
}

type ThemesConfig struct {
	DefaultWindowHours int `json:"default_window_hours"`
	DefaultThemeCount  int `json:"default_theme_count"`
}

type JobsConfig struct {
	BackfillSpec          string `json:"backfill_spec"`
	BackfillBatchSize     int    `json:"backfill_batch_size"`
	BackfillMaxBatches    int    `json:"backfill_max_batches"`
	BackfillSinceHours    int    `json:"backfill_since_hours"`
	ThemeWarmSpec         string `json:"theme_warm_spec"`
	CacheCleanupSpec      string `json:"cache_cleanup_spec"`
	CacheCleanupMaxAgeDay int    `json:"cache_cleanup_max_age_day"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.Model == "" {
		return nil, fmt.Errorf("ai.model is required")
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 30
	}
	if cfg.AI.EmbedCacheSize == 0 {
		cfg.AI.EmbedCacheSize = 10000
	}
	if cfg.AI.EmbedCacheTTL == 0 {
		cfg.AI.EmbedCacheTTL = 7200
	}
	if cfg.Themes.DefaultWindowHours == 0 {
		cfg.Themes.DefaultWindowHours = 24
	}
	if cfg.Themes.DefaultThemeCount == 0 {
		cfg.Themes.DefaultThemeCount = 6
	}
	if cfg.Jobs.BackfillBatchSize == 0 {
		cfg.Jobs.BackfillBatchSize = 96
	}
	if cfg.Jobs.BackfillMaxBatches == 0 {
		cfg.Jobs.BackfillMaxBatches = 4
	}
	if cfg.Jobs.BackfillSinceHours == 0 {
		cfg.Jobs.BackfillSinceHours = 48
	}
	if cfg.Jobs.CacheCleanupMaxAgeDay == 0 {
		cfg.Jobs.CacheCleanupMaxAgeDay = 30
	}
	return &cfg, nil
}
