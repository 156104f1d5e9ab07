package lunatech

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SiteConfig holds all configuration for the site.
type SiteConfig struct {
	Name        string `mapstructure:"site_name"`        // Site name (default "Lunatech")
	URL         string `mapstructure:"site_url"`         // Canonical URL (default "http://localhost:3000")
	Description string `mapstructure:"site_description"` // Site description for RSS and meta tags
	Author      string `mapstructure:"site_author"`      // Author name for JSON-LD

	Addr         string `mapstructure:"addr"`          // Listen address (default ":3000")
	DatabasePath string `mapstructure:"database_path"` // SQLite path (default "data/blog.db")
	StaticDir    string `mapstructure:"static_dir"`    // User-owned static assets (default "public")

	AdminEmail    string        `mapstructure:"admin_email"`    // Seeds the first admin when the users table is empty
	AdminPassword string        `mapstructure:"admin_password"` // Password for the seeded admin
	SessionSecret string        `mapstructure:"session_secret"` // Required: cookie signing secret
	CookieSecure  bool          `mapstructure:"cookie_secure"`  // Set true for HTTPS
	SessionTTL    time.Duration `mapstructure:"session_ttl"`    // Session lifetime (default 12h)

	PostCacheTTL time.Duration `mapstructure:"post_cache_ttl"` // Post cache TTL (default 5min)

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // "json" or "pretty"

	StorageConfig `mapstructure:",squash"`
}

// StorageConfig selects and configures the object store for uploaded images.
type StorageConfig struct {
	Driver    string `mapstructure:"storage_driver"` // "local" or "s3"
	UploadDir string `mapstructure:"upload_dir"`     // local driver directory
	PublicURL string `mapstructure:"storage_public_url"`

	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Lunatech"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/blog.db"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 12 * time.Hour
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.StorageConfig.Driver == "" {
		c.StorageConfig.Driver = "local"
	}
	if c.StorageConfig.UploadDir == "" {
		c.StorageConfig.UploadDir = "data/uploads"
	}
	if c.StorageConfig.PublicURL == "" && c.StorageConfig.Driver == "local" {
		c.StorageConfig.PublicURL = "/uploads"
	}
}

// Validate reports configuration that would stop the server from working.
func (c *SiteConfig) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if len(c.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 bytes")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	switch c.StorageConfig.Driver {
	case "local":
	case "s3":
		if c.StorageConfig.S3Bucket == "" {
			return errors.New("S3_BUCKET is required for the s3 storage driver")
		}
		if c.StorageConfig.PublicURL == "" {
			return errors.New("STORAGE_PUBLIC_URL is required for the s3 storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageConfig.Driver)
	}
	return nil
}

// configKeys lists every key viper should pick up from the environment.
var configKeys = []string{
	"site_name", "site_url", "site_description", "site_author",
	"addr", "database_path", "static_dir",
	"admin_email", "admin_password", "session_secret", "cookie_secure", "session_ttl",
	"post_cache_ttl", "log_level", "log_format",
	"storage_driver", "upload_dir", "storage_public_url",
	"s3_bucket", "s3_region", "s3_endpoint", "s3_access_key", "s3_secret_key",
}

// LoadConfig reads configuration from an optional file and the environment.
// Environment variables use the upper-cased key names (SITE_NAME, SESSION_SECRET, ...).
func LoadConfig(v *viper.Viper, file string) (SiteConfig, error) {
	if v == nil {
		v = viper.New()
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return SiteConfig{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return SiteConfig{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg SiteConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStorage overrides the object store built from the configuration.
func WithStorage(s ObjectStore) Option {
	return func(a *App) {
		a.objects = s
	}
}
