// Package config loads the lifetest configuration file and environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/lifetest/internal/catalog"
)

// Store backends.
const (
	StoreSQLite    = "sqlite"
	StoreFirestore = "firestore"
)

// LogConfig controls logging output.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error
	Level string `yaml:"level"`

	// File, when set, receives rotated JSON logs
	File string `yaml:"file"`

	// Console also writes human-readable logs to stderr
	Console bool `yaml:"console"`
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Addr string `yaml:"addr"`

	// RatePerMinute is the per-client request budget (0 disables limiting)
	RatePerMinute int `yaml:"rate_per_minute"`

	// ExportDir is where CSV exports are written by the CLI
	ExportDir string `yaml:"export_dir"`
}

// TelegramConfig configures the chat bot.
type TelegramConfig struct {
	Token string `yaml:"token"`
}

// FirebaseConfig selects the Firestore project.
type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// Config is the whole configuration.
type Config struct {
	// DataDir holds the SQLite database and default exports
	DataDir string `yaml:"data_dir"`

	// CatalogPath overrides the bundled questionnaire
	CatalogPath string `yaml:"catalog_path"`

	// DefaultLang is used when a front end does not ask
	DefaultLang string `yaml:"default_lang"`

	// Store is sqlite or firestore
	Store string `yaml:"store"`

	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Telegram TelegramConfig `yaml:"telegram"`
	Firebase FirebaseConfig `yaml:"firebase"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir:     filepath.Join(home, ".lifetest"),
		DefaultLang: string(catalog.LangEN),
		Store:       StoreSQLite,
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
		HTTP: HTTPConfig{
			Addr:          ":8080",
			RatePerMinute: 120,
		},
	}
}

// DefaultPath is ~/.lifetest/config.yaml.
func DefaultPath() string {
	return filepath.Join(DefaultConfig().DataDir, "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() error {
	set := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	set("LIFETEST_DATA_DIR", &c.DataDir)
	set("LIFETEST_CATALOG", &c.CatalogPath)
	set("LIFETEST_LANG", &c.DefaultLang)
	set("LIFETEST_STORE", &c.Store)
	set("LIFETEST_LOG_LEVEL", &c.Log.Level)
	set("LIFETEST_LOG_FILE", &c.Log.File)
	set("LIFETEST_HTTP_ADDR", &c.HTTP.Addr)
	set("TELEGRAM_BOT_TOKEN", &c.Telegram.Token)
	set("FIREBASE_PROJECT_ID", &c.Firebase.ProjectID)
	set("FIREBASE_CREDENTIALS_FILE", &c.Firebase.CredentialsFile)

	if v := os.Getenv("LIFETEST_RATE_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LIFETEST_RATE_PER_MINUTE: %w", err)
		}
		c.HTTP.RatePerMinute = n
	}
	return nil
}

var validLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks enumerated and required fields.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir must be set")
	}
	switch c.Store {
	case StoreSQLite:
	case StoreFirestore:
		if c.Firebase.ProjectID == "" {
			return errors.New("firebase.project_id is required for the firestore store")
		}
	default:
		return fmt.Errorf("invalid store %q: must be sqlite or firestore", c.Store)
	}
	if !catalog.ValidLang(c.DefaultLang) {
		return fmt.Errorf("invalid default_lang %q: must be en or ar", c.DefaultLang)
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	if c.HTTP.RatePerMinute < 0 {
		return fmt.Errorf("http.rate_per_minute must not be negative, got %d", c.HTTP.RatePerMinute)
	}
	return nil
}

// ExportDir returns the configured export directory or DataDir/exports.
func (c *Config) ExportDir() string {
	if c.HTTP.ExportDir != "" {
		return c.HTTP.ExportDir
	}
	return filepath.Join(c.DataDir, "exports")
}
