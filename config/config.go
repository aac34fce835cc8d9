// Package config resolves the client's settings from, in increasing order of
// precedence: built-in defaults, the YAML config file, a .env file in the
// working directory, and CINEMA_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"cinema-ticket-cli/booking"
)

const (
	AppName = "cinema-ticket-cli"

	defaultAPIURL        = "http://localhost:3000"
	defaultTimeout       = 12 * time.Second
	defaultRetryAttempts = 1
	defaultLogLevel      = "info"
)

type Config struct {
	APIURL        string        `yaml:"api_url"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxSeats      int           `yaml:"max_seats"`
	RetryAttempts int           `yaml:"retry_attempts"`
	LogLevel      string        `yaml:"log_level"`
	LogFile       string        `yaml:"log_file"`
}

func Default() Config {
	return Config{
		APIURL:        defaultAPIURL,
		Timeout:       defaultTimeout,
		MaxSeats:      booking.DefaultMaxSeats,
		RetryAttempts: defaultRetryAttempts,
		LogLevel:      defaultLogLevel,
	}
}

// Load builds the effective configuration. A missing config file is not an
// error; a malformed one is.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	path, explicit := filePath()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			if !explicit && errors.Is(err, os.ErrNotExist) {
				err = nil
			}
			if err != nil {
				return Config{}, err
			}
		}
	}

	applyEnv(&cfg)
	cfg.normalize()
	return cfg, nil
}

// BaseURL is the API root every endpoint path is appended to.
func (c Config) BaseURL() string {
	raw := strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if raw == "" {
		raw = defaultAPIURL
	}
	if strings.HasSuffix(raw, "/api") {
		return raw
	}
	return raw + "/api"
}

// MediaURL resolves a poster or avatar path returned by the API against the
// API host.
func (c Config) MediaURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	host := strings.TrimSuffix(c.BaseURL(), "/api")
	return host + "/" + strings.TrimLeft(path, "/")
}

func (c *Config) normalize() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxSeats < 1 {
		c.MaxSeats = booking.DefaultMaxSeats
	}
	if c.RetryAttempts < 1 {
		c.RetryAttempts = defaultRetryAttempts
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = defaultLogLevel
	}
}

func filePath() (string, bool) {
	if explicit := strings.TrimSpace(os.Getenv("CINEMA_CONFIG")); explicit != "" {
		return explicit, true
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(dir, AppName, "config.yaml"), false
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "parse config %s", path)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("CINEMA_API_URL")); v != "" {
		cfg.APIURL = v
	}
	if v, err := time.ParseDuration(os.Getenv("CINEMA_TIMEOUT")); err == nil {
		cfg.Timeout = v
	}
	if v, err := strconv.Atoi(os.Getenv("CINEMA_MAX_SEATS")); err == nil {
		cfg.MaxSeats = v
	}
	if v, err := strconv.Atoi(os.Getenv("CINEMA_RETRY_ATTEMPTS")); err == nil {
		cfg.RetryAttempts = v
	}
	if v := strings.TrimSpace(os.Getenv("CINEMA_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("CINEMA_LOG_FILE")); v != "" {
		cfg.LogFile = v
	}
}
