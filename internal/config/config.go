package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const appName = "alfred-weather"

var validate = validator.New()

type AppConfig struct {
	// Directories provided by the launcher.
	DataDir  string `validate:"required"`
	CacheDir string `validate:"required"`
	BundleID string

	// WorkflowDir contains the icons directory.
	WorkflowDir string `validate:"required"`

	GoogleAPIKey string

	HTTPTimeout time.Duration `validate:"gt=0"`
	HTTPRetries int           `validate:"min=0,max=10"`

	OutputFormat string `validate:"oneof=xml json"`

	// Serve mode.
	Port            string
	RefreshInterval time.Duration `validate:"gt=0"`

	Debug bool
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	// Alfred sets these for every workflow invocation.
	cfg.DataDir = os.Getenv("alfred_workflow_data")
	if cfg.DataDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		cfg.DataDir = filepath.Join(dir, appName)
	}
	cfg.CacheDir = os.Getenv("alfred_workflow_cache")
	if cfg.CacheDir == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
		cfg.CacheDir = filepath.Join(dir, appName)
	}
	cfg.BundleID = getenvDefault("alfred_workflow_bundleid", "com.github.i474232898."+appName)

	cfg.WorkflowDir = getenvDefault("WEATHER_ICONS_DIR", ".")
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout
	cfg.HTTPRetries = getenvInt("HTTP_RETRIES", 0)

	cfg.OutputFormat = getenvDefault("OUTPUT_FORMAT", "xml")

	cfg.Port = getenvDefault("PORT", "8080")
	interval, err := time.ParseDuration(getenvDefault("REFRESH_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	cfg.RefreshInterval = interval

	cfg.Debug = getenvBool("WEATHER_DEBUG", false)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SettingsPath is the location of the user settings file.
func (c *AppConfig) SettingsPath() string {
	return filepath.Join(c.DataDir, "settings.json")
}

// CachePath is the location of the response cache file.
func (c *AppConfig) CachePath() string {
	return filepath.Join(c.CacheDir, "cache.json")
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
