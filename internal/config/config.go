// Package config loads visitlog settings from an optional YAML file, an
// optional .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/evcraddock/visitlog/internal/db"
)

// Config is the full runtime configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Admin   AdminConfig   `yaml:"admin"`
	Report  ReportConfig  `yaml:"report"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	BaseURL        string   `yaml:"base_url"`
	DevMode        bool     `yaml:"dev_mode"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig controls where and how records are stored.
type StorageConfig struct {
	DataDir       string        `yaml:"data_dir"`
	DBPath        string        `yaml:"db_path"`
	BusyTimeout   time.Duration `yaml:"busy_timeout"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
}

// AdminConfig holds the admin console credentials.
type AdminConfig struct {
	Password string `yaml:"password"`
}

// ReportConfig controls report computation.
type ReportConfig struct {
	ExcludedWeekday string `yaml:"excluded_weekday"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    8080,
			BaseURL: "http://localhost:8080",
		},
		Storage: StorageConfig{
			DataDir:       "/var/data",
			BusyTimeout:   30 * time.Second,
			RetryAttempts: 3,
			RetryBackoff:  400 * time.Millisecond,
		},
		Admin:  AdminConfig{Password: "1234"},
		Report: ReportConfig{ExcludedWeekday: "Sunday"},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadFromEnv loads the YAML file at path, then applies a .env file in the
// working directory if present, then environment overrides.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("VL_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("VL_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("VL_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("VL_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("VL_BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("VL_DEV_MODE"); v != "" {
		cfg.Server.DevMode = v == "true" || v == "1"
	}
	if v := os.Getenv("VL_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		cfg.Admin.Password = v
	}
	if v := os.Getenv("VL_EXCLUDED_WEEKDAY"); v != "" {
		cfg.Report.ExcludedWeekday = v
	}

	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	if _, err := ParseWeekday(c.Report.ExcludedWeekday); err != nil {
		errs = append(errs, err)
	}
	if c.Storage.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("storage.retry_attempts must be at least 1, got %d", c.Storage.RetryAttempts))
	}
	if c.Storage.RetryBackoff < 0 {
		errs = append(errs, fmt.Errorf("storage.retry_backoff must not be negative"))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Admin.Password == "" {
		errs = append(errs, errors.New("admin.password must not be empty"))
	}
	return errors.Join(errs...)
}

// DatabasePath resolves the SQLite file location. An explicit db_path wins;
// otherwise the file lives in the data dir.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath, nil
	}
	return db.DefaultPath(c.Storage.DataDir)
}

// Weekday returns the excluded weekday. Call Validate first.
func (c *Config) Weekday() time.Weekday {
	wd, _ := ParseWeekday(c.Report.ExcludedWeekday)
	return wd
}

// ParseWeekday accepts a full or three-letter English weekday name in any
// case. Empty means Sunday.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return time.Sunday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
