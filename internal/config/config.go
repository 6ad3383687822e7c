// Package config loads YAML configuration with environment overrides.
package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "FEEDLIGHT_CONFIG"
	listenAddrEnv  = "FEEDLIGHT_ADDR"
	databaseDSNEnv = "DATABASE_DSN"
	sqlitePathEnv  = "FEEDLIGHT_SQLITE_PATH"
	redisAddrEnv   = "REDIS_ADDR"
	logLevelEnv    = "FEEDLIGHT_LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Feed     FeedConfig     `yaml:"feed"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig selects the backing store. A non-empty Postgres DSN wins;
// otherwise the embedded SQLite file is used.
type DatabaseConfig struct {
	DSN        string `yaml:"dsn"`
	SQLitePath string `yaml:"sqlitePath"`
}

// RedisConfig enables the shared fast-phase cache. An empty Addr means the
// process-local LRU cache is used instead.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// FeedConfig tunes the progressive loader.
type FeedConfig struct {
	PageSize          int           `yaml:"pageSize"`
	CategoryBatchSize int           `yaml:"categoryBatchSize"`
	MinLoadDuration   time.Duration `yaml:"minLoadDuration"`
	SearchPoolLimit   int           `yaml:"searchPoolLimit"`
	CacheSize         int           `yaml:"cacheSize"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(listenAddrEnv); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(sqlitePathEnv); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Log.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.SQLitePath != "" {
		base.Database.SQLitePath = override.Database.SQLitePath
	}

	if override.Redis.Addr != "" {
		base.Redis.Addr = override.Redis.Addr
	}
	if override.Redis.Password != "" {
		base.Redis.Password = override.Redis.Password
	}
	if override.Redis.DB != 0 {
		base.Redis.DB = override.Redis.DB
	}
	if override.Redis.TTL != 0 {
		base.Redis.TTL = override.Redis.TTL
	}

	if override.Feed.PageSize != 0 {
		base.Feed.PageSize = override.Feed.PageSize
	}
	if override.Feed.CategoryBatchSize != 0 {
		base.Feed.CategoryBatchSize = override.Feed.CategoryBatchSize
	}
	if override.Feed.MinLoadDuration != 0 {
		base.Feed.MinLoadDuration = override.Feed.MinLoadDuration
	}
	if override.Feed.SearchPoolLimit != 0 {
		base.Feed.SearchPoolLimit = override.Feed.SearchPoolLimit
	}
	if override.Feed.CacheSize != 0 {
		base.Feed.CacheSize = override.Feed.CacheSize
	}

	if override.Log.Level != "" {
		base.Log.Level = override.Log.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{SQLitePath: "feedlight.db"},
		Redis:    RedisConfig{TTL: 5 * time.Minute},
		Feed: FeedConfig{
			PageSize:          12,
			CategoryBatchSize: 3,
			MinLoadDuration:   350 * time.Millisecond,
			SearchPoolLimit:   200,
			CacheSize:         256,
		},
		Log: LogConfig{Level: "info"},
	}
}
