package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Remote: RemoteConfig{
			BaseURL:      "https://example.test",
			AppID:        "app",
			AppKey:       "key",
			PackageClass: "Package",
			ProductClass: "Product",
			Timeout:      15 * time.Second,
			ListLimit:    100,
		},
		Cache: CacheConfig{Backend: CacheBackendFile, DataDir: "./data"},
		Sync:  SyncConfig{AddPolicy: AddPolicyLenient, RefreshCron: "*/15 * * * *", NoticeTTL: 5 * time.Second},
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REMOTE_APP_ID", "app")
	t.Setenv("REMOTE_APP_KEY", "key")

	cfg, err := Load("testdata-nonexistent.env")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("default port: %q", cfg.Server.Port)
	}
	if cfg.Remote.PackageClass != "Package" || cfg.Remote.ListLimit != 100 {
		t.Fatalf("remote defaults: %+v", cfg.Remote)
	}
	if cfg.Cache.Backend != CacheBackendFile {
		t.Fatalf("default cache backend: %q", cfg.Cache.Backend)
	}
	if cfg.Sync.AddPolicy != AddPolicyLenient {
		t.Fatalf("default add policy: %q", cfg.Sync.AddPolicy)
	}
	if cfg.SheetsEnabled() {
		t.Fatal("sheets must be disabled without credentials")
	}
}

func TestValidateRejectsMissingCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Remote.AppID = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "REMOTE_APP_ID") {
		t.Fatalf("expected app id error, got %v", err)
	}

	cfg = validConfig()
	cfg.Remote.AppKey = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "REMOTE_APP_KEY") {
		t.Fatalf("expected app key error, got %v", err)
	}
}

func TestValidateRejectsUnknownEnums(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Backend = "redis"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "CACHE_BACKEND") {
		t.Fatalf("expected cache backend error, got %v", err)
	}

	cfg = validConfig()
	cfg.Sync.AddPolicy = "retry"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "SYNC_ADD_POLICY") {
		t.Fatalf("expected add policy error, got %v", err)
	}
}

func TestValidateMongoBackendNeedsURI(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Backend = CacheBackendMongo
	cfg.Cache.MongoURI = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "CACHE_MONGODB_URI") {
		t.Fatalf("expected mongo uri error, got %v", err)
	}
}

func TestValidateSheetsNeedsCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Sheets.SpreadsheetID = "sheet-1"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "GOOGLE_SHEETS_CREDENTIALS_PATH") {
		t.Fatalf("expected sheets credentials error, got %v", err)
	}

	cfg.Sheets.CredentialsPath = "/tmp/creds.json"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	if !cfg.SheetsEnabled() {
		t.Fatal("sheets should be enabled with id and credentials")
	}
}
