package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"`
}

type BoardConfig struct {
	Interval   time.Duration `yaml:"interval"`
	PageSize   int           `yaml:"pageSize"`
	MaskPlates bool          `yaml:"maskPlates"`
}

type MonitorConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Console  bool          `yaml:"console"`
}

type SeedConfig struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file"`
}

type DisplayConfig struct {
	SendQueue    int           `yaml:"sendQueue"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

type Config struct {
	BoardID  string        `yaml:"boardId"`
	HTTPPort int           `yaml:"httpPort"`
	Log      LogConfig     `yaml:"log"`
	Store    StoreConfig   `yaml:"store"`
	Board    BoardConfig   `yaml:"board"`
	Monitor  MonitorConfig `yaml:"monitor"`
	Seed     SeedConfig    `yaml:"seed"`
	Display  DisplayConfig `yaml:"display"`
}

func Default() *Config {
	return &Config{
		BoardID:  "board-default",
		HTTPPort: 8080,
		Log:      LogConfig{Level: "info", Format: "console"},
		Store:    StoreConfig{Backend: BackendMemory},
		Board:    BoardConfig{Interval: 4 * time.Second, PageSize: 4, MaskPlates: true},
		Monitor:  MonitorConfig{Enabled: true, Interval: 2 * time.Second},
		Display:  DisplayConfig{SendQueue: 8, WriteTimeout: 5 * time.Second},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.BoardID = getEnv("BOARD_ID", c.BoardID)
	c.HTTPPort = getEnvInt("HTTP_PORT", c.HTTPPort)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Store.Backend = getEnv("STORE_BACKEND", c.Store.Backend)
	c.Board.Interval = getEnvDuration("BOARD_INTERVAL", c.Board.Interval)
	c.Board.PageSize = getEnvInt("BOARD_PAGE_SIZE", c.Board.PageSize)
	c.Board.MaskPlates = getEnvBool("BOARD_MASK_PLATES", c.Board.MaskPlates)
	c.Monitor.Enabled = getEnvBool("MONITOR_ENABLED", c.Monitor.Enabled)
	c.Monitor.Interval = getEnvDuration("MONITOR_INTERVAL", c.Monitor.Interval)
	c.Monitor.Console = getEnvBool("MONITOR_CONSOLE", c.Monitor.Console)
	c.Seed.Enabled = getEnvBool("SEED_ENABLED", c.Seed.Enabled)
	c.Seed.File = getEnv("SEED_FILE", c.Seed.File)
}

func (c *Config) Validate() error {
	var errs []error
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("httpPort %d out of range", c.HTTPPort))
	}
	if c.Board.Interval <= 0 {
		errs = append(errs, fmt.Errorf("board.interval must be positive, got %s", c.Board.Interval))
	}
	if c.Board.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("board.pageSize must be positive, got %d", c.Board.PageSize))
	}
	if c.Monitor.Enabled && c.Monitor.Interval <= 0 {
		errs = append(errs, fmt.Errorf("monitor.interval must be positive, got %s", c.Monitor.Interval))
	}
	switch c.Store.Backend {
	case BackendMemory, BackendBadger:
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}
	if c.Display.SendQueue <= 0 {
		errs = append(errs, fmt.Errorf("display.sendQueue must be positive, got %d", c.Display.SendQueue))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return fallback
}

// getEnvDuration accepts Go durations ("4s") or a plain number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if i, err := strconv.Atoi(v); err == nil {
		return time.Duration(i) * time.Second
	}
	return fallback
}
