// Package config loads fxgate configuration from a YAML file, environment
// variables (FXGATE_ prefix), and defaults, in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rxxuzi/fxgate/internal/errs"
)

const envPrefix = "FXGATE"

// Config is the root configuration for the gateway.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Content ContentConfig `mapstructure:"content"`
}

// ServerConfig controls the HTTP listener and logging.
type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// StoreConfig holds the R2 / S3-compatible store settings.
type StoreConfig struct {
	// AccountID is the Cloudflare account id. When Endpoint is empty the
	// endpoint is derived as https://<AccountID>.r2.cloudflarestorage.com.
	AccountID string `mapstructure:"account_id"`

	// Endpoint overrides the derived endpoint. Used for other
	// S3-compatible stores and in tests.
	Endpoint string `mapstructure:"endpoint"`

	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`

	// PublicURL is the public download base, e.g. https://fx.example.com.
	PublicURL string `mapstructure:"public_url"`

	// Region for request signing. R2 uses "auto".
	Region string `mapstructure:"region"`
}

// AuthConfig holds the session-token settings and the single admin
// credential pair.
type AuthConfig struct {
	Secret     string        `mapstructure:"secret"`
	AdminEmail string        `mapstructure:"admin_email"`
	AdminPass  string        `mapstructure:"admin_pass"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// ContentConfig points at the project-content directory.
type ContentConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load reads configuration from the optional file at path plus environment
// variables and defaults.
func Load(path string) (*Config, error) {
	vp := viper.New()
	vp.SetEnvPrefix(envPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	setDefaults(vp)

	if path != "" {
		vp.SetConfigFile(path)
		if err := vp.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := vp.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(vp *viper.Viper) {
	vp.SetDefault("server.addr", ":8080")
	vp.SetDefault("server.log_level", "info")
	vp.SetDefault("server.log_format", "json")

	// Credential keys default to empty so AutomaticEnv can bind them.
	vp.SetDefault("store.account_id", "")
	vp.SetDefault("store.endpoint", "")
	vp.SetDefault("store.access_key", "")
	vp.SetDefault("store.secret_key", "")
	vp.SetDefault("store.bucket", "rxxuzi-r2")
	vp.SetDefault("store.public_url", "https://fx.rxxuzi.com")
	vp.SetDefault("store.region", "auto")

	vp.SetDefault("auth.secret", "")
	vp.SetDefault("auth.admin_email", "")
	vp.SetDefault("auth.admin_pass", "")
	vp.SetDefault("auth.token_ttl", 24*time.Hour)

	vp.SetDefault("content.dir", "content")
}

// Validate checks the fields every subsystem depends on. Store credentials
// are deliberately not validated here: the drive layer fails closed on its
// own so that read paths degrade to empty results instead of refusing to
// start the whole site.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errs.New(errs.ErrKindConfigMissing, "server.addr is required")
	}
	if c.Auth.Secret == "" {
		return errs.New(errs.ErrKindConfigMissing, "auth.secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errs.New(errs.ErrKindConfigMissing, "auth.token_ttl must be positive")
	}
	return nil
}

// StoreEndpoint returns the effective store endpoint, deriving the R2
// endpoint from the account id when no explicit endpoint is set.
func (c *StoreConfig) StoreEndpoint() string {
	if c.Endpoint != "" {
		return strings.TrimRight(c.Endpoint, "/")
	}
	if c.AccountID == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
}
