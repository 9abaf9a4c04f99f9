// Package config reads the server configuration from the environment.
//
// Values come from, in order of precedence:
//  1. real environment variables
//  2. a .env file in the working directory, if present
//  3. the defaults below
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	BlobDisk = "disk"
	BlobS3   = "s3"
)

// Config is flat: every field maps to one upper-case environment variable,
// e.g. DatabaseURL ← DATABASE_URL.
type Config struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	DatabaseDriver string `mapstructure:"database_driver"`
	DBPath         string `mapstructure:"db_path"`
	DatabaseURL    string `mapstructure:"database_url"`

	BlobBackend   string `mapstructure:"blob_backend"`
	BlobDir       string `mapstructure:"blob_dir"`
	BlobPublicURL string `mapstructure:"blob_public_url"`

	StoreURL       string `mapstructure:"store_url"`
	StoreAPIKey    string `mapstructure:"store_api_key"`
	StoreAPISecret string `mapstructure:"store_api_secret"`
	StoreRegion    string `mapstructure:"store_region"`
	StorePublicURL string `mapstructure:"store_public_url"`

	// PublicSiteURL is the origin used in referral links. When empty the
	// origin of each dashboard request is used.
	PublicSiteURL string `mapstructure:"public_site_url"`
	SignupSecret  string `mapstructure:"signup_secret"`
	SessionSecret string `mapstructure:"session_secret"`
	// DisplayTimezone is the IANA zone dashboard dates are shown in.
	DisplayTimezone string `mapstructure:"display_timezone"`

	RedisAddr         string        `mapstructure:"redis_addr"`
	RedisPassword     string        `mapstructure:"redis_password"`
	RedisDB           int           `mapstructure:"redis_db"`
	DirectoryCacheTTL time.Duration `mapstructure:"directory_cache_ttl"`
}

var defaults = map[string]any{
	"port":                8080,
	"log_level":           "info",
	"database_driver":     DriverSQLite,
	"db_path":             "data/kudos.db",
	"database_url":        "",
	"blob_backend":        BlobDisk,
	"blob_dir":            "data/blobs",
	"blob_public_url":     "",
	"store_url":           "",
	"store_api_key":       "",
	"store_api_secret":    "",
	"store_region":        "us-east-1",
	"store_public_url":    "",
	"public_site_url":     "",
	"signup_secret":       "",
	"session_secret":      "",
	"display_timezone":    "Local",
	"redis_addr":          "",
	"redis_password":      "",
	"redis_db":            0,
	"directory_cache_ttl": "60s",
}

// Load reads .env (when it exists) and the environment.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit .env path. A missing file is not an
// error; a malformed one is.
func LoadFrom(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("config: reading %s: %w", envFile, err)
			}
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.DatabaseDriver = strings.ToLower(strings.TrimSpace(c.DatabaseDriver))
	c.BlobBackend = strings.ToLower(strings.TrimSpace(c.BlobBackend))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.PublicSiteURL = strings.TrimRight(c.PublicSiteURL, "/")

	if c.BlobPublicURL == "" {
		if c.PublicSiteURL != "" {
			c.BlobPublicURL = c.PublicSiteURL + "/storage"
		} else {
			c.BlobPublicURL = fmt.Sprintf("http://localhost:%d/storage", c.Port)
		}
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q must be debug, info, warn or error", c.LogLevel))
	}

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER %q must be sqlite or postgres", c.DatabaseDriver))
	}

	switch c.BlobBackend {
	case BlobDisk:
		if c.BlobDir == "" {
			errs = append(errs, errors.New("BLOB_DIR is required for the disk backend"))
		}
	case BlobS3:
	default:
		errs = append(errs, fmt.Errorf("BLOB_BACKEND %q must be disk or s3", c.BlobBackend))
	}

	if len(c.SessionSecret) < 16 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 16 characters"))
	}

	if c.DirectoryCacheTTL < 0 {
		errs = append(errs, errors.New("DIRECTORY_CACHE_TTL must not be negative"))
	}

	if _, err := time.LoadLocation(c.DisplayTimezone); err != nil {
		errs = append(errs, fmt.Errorf("DISPLAY_TIMEZONE: %w", err))
	}

	return errors.Join(errs...)
}

// Location returns the zone dashboard dates are rendered in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// SecureCookies is true when the site is served over HTTPS.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.PublicSiteURL, "https://")
}

// SignupEnabled is false when no SIGNUP_SECRET is set; every signup URL then
// answers 404.
func (c *Config) SignupEnabled() bool {
	return c.SignupSecret != ""
}
