package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Cache backend selectors.
const (
	CacheBackendFile  = "file"
	CacheBackendMongo = "mongo"
)

// Add-failure policies for the reconciler.
const (
	AddPolicyLenient = "lenient"
	AddPolicyStrict  = "strict"
)

// Config represents the full application configuration surface.
type Config struct {
	Server ServerConfig
	Remote RemoteConfig
	Cache  CacheConfig
	Sync   SyncConfig
	Sheets SheetsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// RemoteConfig contains credentials and options for the hosted object store
// (a LeanCloud-compatible REST API).
type RemoteConfig struct {
	BaseURL      string
	AppID        string
	AppKey       string
	PackageClass string
	ProductClass string
	Timeout      time.Duration
	ListLimit    int
}

// CacheConfig selects and parametrizes the local mirror backend.
type CacheConfig struct {
	Backend  string
	DataDir  string
	MongoURI string
	MongoDB  string
}

// SyncConfig holds reconciler and background-refresh settings.
type SyncConfig struct {
	AddPolicy   string
	RefreshCron string
	NoticeTTL   time.Duration
}

// SheetsConfig contains the optional Google Sheets export target.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	ExportRange     string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Remote: RemoteConfig{
			BaseURL:      getenvWithDefault("REMOTE_BASE_URL", "https://avoscloud.com"),
			AppID:        os.Getenv("REMOTE_APP_ID"),
			AppKey:       os.Getenv("REMOTE_APP_KEY"),
			PackageClass: getenvWithDefault("REMOTE_PACKAGE_CLASS", "Package"),
			ProductClass: getenvWithDefault("REMOTE_PRODUCT_CLASS", "Product"),
			Timeout:      getenvDuration("REMOTE_TIMEOUT", 15*time.Second),
			ListLimit:    getenvInt("REMOTE_LIST_LIMIT", 100),
		},
		Cache: CacheConfig{
			Backend:  getenvWithDefault("CACHE_BACKEND", CacheBackendFile),
			DataDir:  getenvWithDefault("CACHE_DATA_DIR", "./data"),
			MongoURI: os.Getenv("CACHE_MONGODB_URI"),
			MongoDB:  getenvWithDefault("CACHE_MONGODB_DB_NAME", "parceldesk"),
		},
		Sync: SyncConfig{
			AddPolicy:   getenvWithDefault("SYNC_ADD_POLICY", AddPolicyLenient),
			RefreshCron: getenvWithDefault("SYNC_REFRESH_CRON", "*/15 * * * *"),
			NoticeTTL:   getenvDuration("SYNC_NOTICE_TTL", 5*time.Second),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"),
			ExportRange:     getenvWithDefault("GOOGLE_SHEETS_EXPORT_RANGE", "Packages!A:H"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated and that
// enum-like fields carry known values.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.Remote.BaseURL == "":
		return errors.New("REMOTE_BASE_URL must not be empty")
	case c.Remote.AppID == "":
		return errors.New("REMOTE_APP_ID must be provided")
	case c.Remote.AppKey == "":
		return errors.New("REMOTE_APP_KEY must be provided")
	}

	if c.Remote.ListLimit <= 0 {
		return errors.New("REMOTE_LIST_LIMIT must be positive")
	}

	switch c.Cache.Backend {
	case CacheBackendFile:
		if c.Cache.DataDir == "" {
			return errors.New("CACHE_DATA_DIR must be provided for the file backend")
		}
	case CacheBackendMongo:
		if c.Cache.MongoURI == "" {
			return errors.New("CACHE_MONGODB_URI must be provided for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}

	switch c.Sync.AddPolicy {
	case AddPolicyLenient, AddPolicyStrict:
	default:
		return fmt.Errorf("unknown SYNC_ADD_POLICY %q", c.Sync.AddPolicy)
	}

	if c.Sync.RefreshCron == "" {
		return errors.New("SYNC_REFRESH_CRON must be provided")
	}

	if c.Sheets.SpreadsheetID != "" && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when a spreadsheet is configured")
	}

	return nil
}

// SheetsEnabled reports whether the optional spreadsheet export is configured.
func (c *Config) SheetsEnabled() bool {
	return c.Sheets.SpreadsheetID != "" && c.Sheets.CredentialsPath != ""
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
