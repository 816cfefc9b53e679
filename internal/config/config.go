package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	NewsAPI   NewsAPIConfig   `yaml:"newsapi"`
	Storage   StorageConfig   `yaml:"storage"`
	Selection SelectionConfig `yaml:"selection"`
	Cache     CacheConfig     `yaml:"cache"`
	Redis     RedisConfig     `yaml:"redis"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	// RefreshInterval is the minimum time between forced refreshes from
	// one client.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// NewsAPIConfig holds upstream settings
type NewsAPIConfig struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	// MinInterval spaces consecutive upstream requests. Zero sends the
	// fan-out at once.
	MinInterval time.Duration `yaml:"min_interval"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// SelectionConfig picks the key-value backend for the source selection:
// "sqlite", "memory", "redis" or "postgres".
type SelectionConfig struct {
	Backend string `yaml:"backend"`
}

// CacheConfig holds response cache configuration
type CacheConfig struct {
	Backend string        `yaml:"backend"` // "memory", "redis" or "none"
	TTL     time.Duration `yaml:"ttl"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
}

var (
	validSelectionBackends = map[string]bool{"sqlite": true, "memory": true, "redis": true, "postgres": true}
	validCacheBackends     = map[string]bool{"memory": true, "redis": true, "none": true}
)

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        ":8080",
			RefreshInterval: 10 * time.Second,
		},
		NewsAPI: NewsAPIConfig{
			Timeout:   30 * time.Second,
			UserAgent: "newsdesk/1.0",
		},
		Storage: StorageConfig{
			DataDir: DefaultDataDir(),
		},
		Selection: SelectionConfig{
			Backend: "sqlite",
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "newsdesk:",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Database: "newsdesk",
			SSLMode:  "disable",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "newsdesk", "config.yaml")
}

func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, "newsdesk")
}

// Load builds the configuration from defaults, the YAML file at path, a
// .env file in the working directory and finally the environment. An
// empty path reads DefaultConfigPath, which may be absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	loadDotEnv(".env")
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// loadDotEnv never overrides variables already set in the environment.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

func (c *Config) Validate() error {
	if !validSelectionBackends[c.Selection.Backend] {
		return fmt.Errorf("selection backend %q is not supported (valid: sqlite, memory, redis, postgres)", c.Selection.Backend)
	}
	if !validCacheBackends[c.Cache.Backend] {
		return fmt.Errorf("cache backend %q is not supported (valid: memory, redis, none)", c.Cache.Backend)
	}
	if c.NewsAPI.Timeout <= 0 {
		return fmt.Errorf("newsapi timeout must be positive, got %s", c.NewsAPI.Timeout)
	}
	if c.Cache.Backend != "none" && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.NewsAPI.MinInterval < 0 {
		return fmt.Errorf("newsapi min interval must not be negative, got %s", c.NewsAPI.MinInterval)
	}
	if c.Server.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval must not be negative, got %s", c.Server.RefreshInterval)
	}
	if c.Storage.DataDir == "" {
		return errors.New("data dir is required")
	}
	return nil
}

// SavedArticlesDir is where the saved collection file lives.
func (c *Config) SavedArticlesDir() string {
	return c.Storage.DataDir
}

// SelectionDBPath is the SQLite file used by the sqlite selection backend.
func (c *Config) SelectionDBPath() string {
	return filepath.Join(c.Storage.DataDir, "newsdesk.db")
}

// APIKeyProvider supplies the NewsAPI key.
type APIKeyProvider interface {
	NewsAPIKey() string
}

// EnvAPIKeyProvider reads NEWS_API_KEY on every call and falls back to
// the configured key.
type EnvAPIKeyProvider struct {
	Fallback string
}

func (p EnvAPIKeyProvider) NewsAPIKey() string {
	if v := strings.TrimSpace(os.Getenv("NEWS_API_KEY")); v != "" {
		return v
	}
	return p.Fallback
}

func (c *Config) KeyProvider() APIKeyProvider {
	return EnvAPIKeyProvider{Fallback: c.NewsAPI.APIKey}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.HTTPAddr = v
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.RefreshInterval = d
		}
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		cfg.NewsAPI.APIKey = v
	}
	if v := os.Getenv("NEWSAPI_BASE_URL"); v != "" {
		cfg.NewsAPI.BaseURL = v
	}
	if v := os.Getenv("NEWSAPI_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.NewsAPI.Timeout = d
		}
	}
	if v := os.Getenv("NEWSAPI_MIN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.NewsAPI.MinInterval = d
		}
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SELECTION_BACKEND"); v != "" {
		cfg.Selection.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = p
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
}
