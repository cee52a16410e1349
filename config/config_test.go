package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestProcessConfigDefaults(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		viper.Reset()
		cfg := Config{}
		processConfigDefaults(&cfg)

		if cfg.AppID != 255710 {
			t.Errorf("Expected AppID to be 255710, got %d", cfg.AppID)
		}
		if cfg.Timeout != 10 {
			t.Errorf("Expected Timeout to be 10, got %d", cfg.Timeout)
		}
		if cfg.LongTimeout != 300 {
			t.Errorf("Expected LongTimeout to be 300, got %d", cfg.LongTimeout)
		}
		if cfg.PerPage != 30 {
			t.Errorf("Expected PerPage to be 30, got %d", cfg.PerPage)
		}
		if cfg.Workers != 4 {
			t.Errorf("Expected Workers to be 4, got %d", cfg.Workers)
		}
		if cfg.UserAgent == "" {
			t.Error("Expected UserAgent to have a default value")
		}
		if cfg.WorkshopURL == "" {
			t.Error("Expected WorkshopURL to be derived from the app id")
		}
	})

	t.Run("respects existing values", func(t *testing.T) {
		viper.Reset()
		cfg := Config{
			AppID:     4000,
			Timeout:   2,
			UserAgent: "custom-agent",
		}
		processConfigDefaults(&cfg)

		if cfg.AppID != 4000 {
			t.Errorf("Expected AppID to stay 4000, got %d", cfg.AppID)
		}
		if cfg.Timeout != 2 {
			t.Errorf("Expected Timeout to stay 2, got %d", cfg.Timeout)
		}
		if cfg.UserAgent != "custom-agent" {
			t.Errorf("Expected UserAgent to stay custom-agent, got %s", cfg.UserAgent)
		}
	})
}

func TestTimeoutDurations(t *testing.T) {
	cfg := Config{Timeout: 10, LongTimeout: 300}
	if cfg.RequestTimeout() != 10*time.Second {
		t.Errorf("Expected request timeout of 10s, got %v", cfg.RequestTimeout())
	}
	if cfg.DownloadTimeout() != 300*time.Second {
		t.Errorf("Expected download timeout of 300s, got %v", cfg.DownloadTimeout())
	}
}

func TestValidateAndEnsureDirectories(t *testing.T) {
	t.Run("missing common path", func(t *testing.T) {
		cfg := Config{CommonPath: ""}
		err := validateAndEnsureDirectories(&cfg)
		if err == nil {
			t.Error("Expected error for missing CommonPath")
		}
	})

	t.Run("creates directories and derives paths", func(t *testing.T) {
		tmpDir := t.TempDir()
		cfg := Config{CommonPath: tmpDir}
		if err := validateAndEnsureDirectories(&cfg); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if cfg.AssetsPath != filepath.Join(tmpDir, "Maps") {
			t.Errorf("Unexpected assets path: %s", cfg.AssetsPath)
		}
		if cfg.ModsPath != filepath.Join(tmpDir, "Mods") {
			t.Errorf("Unexpected mods path: %s", cfg.ModsPath)
		}
		if cfg.DatabasePath != filepath.Join(tmpDir, "workshop.db") {
			t.Errorf("Unexpected database path: %s", cfg.DatabasePath)
		}

		for _, dir := range []string{cfg.AssetsPath, cfg.ModsPath, cfg.PreviewsPath} {
			if _, err := os.Stat(dir); err != nil {
				t.Errorf("Expected directory %s to exist: %v", dir, err)
			}
		}
	})

	t.Run("keeps explicit previews path", func(t *testing.T) {
		tmpDir := t.TempDir()
		previews := filepath.Join(tmpDir, "cache")
		cfg := Config{CommonPath: tmpDir, PreviewsPath: previews}
		if err := validateAndEnsureDirectories(&cfg); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.PreviewsPath != previews {
			t.Errorf("Expected previews path to stay %s, got %s", previews, cfg.PreviewsPath)
		}
	})
}
