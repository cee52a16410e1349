package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultAppID       = 255710
	defaultSteamAPIURL = "https://api.steampowered.com/ISteamRemoteStorage/GetPublishedFileDetails/v1/"
	defaultProfilesURL = "https://steamcommunity.com/profiles/"
	defaultPerPage     = 30
	defaultWorkers     = 4
)

// Config holds all configuration for the application.
// Values are loaded by Viper from a .env file and/or environment variables.
type Config struct {
	AppID        int    `mapstructure:"APP_ID"`        // Steam app the workshop belongs to
	CommonPath   string `mapstructure:"COMMON_PATH"`   // Root under which Maps/ and Mods/ live
	PreviewsPath string `mapstructure:"PREVIEWS_PATH"` // Directory for cached preview images
	SteamAPIURL  string `mapstructure:"STEAM_API_URL"` // GetPublishedFileDetails endpoint
	FavoritesURL string `mapstructure:"FAVORITES_URL"` // User's favorites listing page
	WorkshopURL  string `mapstructure:"WORKSHOP_URL"`  // Workshop page carrying the tag labels
	ProfilesURL  string `mapstructure:"PROFILES_URL"`  // Author profile base URL
	UserAgent    string `mapstructure:"USERAGENT"`
	Timeout      int    `mapstructure:"TIMEOUT"`      // Seconds, metadata and listing calls
	LongTimeout  int    `mapstructure:"LONG_TIMEOUT"` // Seconds, payload downloads
	PerPage      int    `mapstructure:"PER_PAGE"`     // Favorites page size
	Workers      int    `mapstructure:"WORKERS"`      // Reconcile worker pool size

	// Derived, not read from the environment.
	AssetsPath   string `mapstructure:"-"`
	ModsPath     string `mapstructure:"-"`
	DatabasePath string `mapstructure:"-"`
}

// RequestTimeout is the timeout for metadata and listing calls.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// DownloadTimeout is the timeout for bulk payload downloads.
func (c Config) DownloadTimeout() time.Duration {
	return time.Duration(c.LongTimeout) * time.Second
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	vipErr := viper.ReadInConfig()
	if _, ok := vipErr.(viper.ConfigFileNotFoundError); ok {
		slog.Info("Config file (.env) not found, relying on environment variables.")
	} else if vipErr != nil {
		return Config{}, fmt.Errorf("fatal error config file: %w", vipErr)
	}

	viper.AutomaticEnv()

	for _, key := range []string{
		"APP_ID", "COMMON_PATH", "PREVIEWS_PATH", "STEAM_API_URL",
		"FAVORITES_URL", "WORKSHOP_URL", "PROFILES_URL", "USERAGENT",
		"TIMEOUT", "LONG_TIMEOUT", "PER_PAGE", "WORKERS",
	} {
		if bindErr := viper.BindEnv(key); bindErr != nil {
			slog.Warn("Unable to bind env var", "key", key, "error", bindErr)
		}
	}

	if vipErr = viper.Unmarshal(&config); vipErr != nil {
		return Config{}, fmt.Errorf("unable to decode into struct, %w", vipErr)
	}

	processConfigDefaults(&config)

	if err := validateAndEnsureDirectories(&config); err != nil {
		return Config{}, err
	}

	return config, nil
}

// processConfigDefaults fills in defaults for everything that may be omitted
// from the environment.
func processConfigDefaults(cfg *Config) {
	if cfg.AppID == 0 {
		cfg.AppID = defaultAppID
	}
	if cfg.SteamAPIURL == "" {
		cfg.SteamAPIURL = defaultSteamAPIURL
	}
	if cfg.ProfilesURL == "" {
		cfg.ProfilesURL = defaultProfilesURL
	}
	if cfg.WorkshopURL == "" {
		cfg.WorkshopURL = fmt.Sprintf("https://steamcommunity.com/app/%d/workshop/", cfg.AppID)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "workshop-sync/dev"
		slog.Warn("USERAGENT not set in config or environment, using default.")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10
	}
	if cfg.LongTimeout <= 0 {
		cfg.LongTimeout = 300
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = defaultPerPage
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
}

// validateAndEnsureDirectories derives the content roots from COMMON_PATH and
// creates them when missing.
func validateAndEnsureDirectories(cfg *Config) error {
	if cfg.CommonPath == "" {
		slog.Error("COMMON_PATH is not set")
		return fmt.Errorf("COMMON_PATH is required")
	}

	cfg.AssetsPath = filepath.Join(cfg.CommonPath, "Maps")
	cfg.ModsPath = filepath.Join(cfg.CommonPath, "Mods")
	if cfg.PreviewsPath == "" {
		cfg.PreviewsPath = filepath.Join(cfg.CommonPath, "previews")
	}

	for _, dir := range []string{cfg.CommonPath, cfg.AssetsPath, cfg.ModsPath, cfg.PreviewsPath} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			slog.Info("Directory does not exist, creating it", "path", dir)
			if err := os.MkdirAll(dir, 0755); err != nil {
				slog.Error("Failed to create directory", "path", dir, "error", err)
				return err
			}
		} else if err != nil {
			slog.Error("Failed to check directory", "path", dir, "error", err)
			return err
		}
	}

	// Keep the catalog next to the content for portability.
	cfg.DatabasePath = filepath.Join(cfg.CommonPath, "workshop.db")

	return nil
}
