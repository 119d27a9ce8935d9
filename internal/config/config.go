// Package config loads the server configuration from defaults, an optional
// config file, .env files and BLOG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalid is wrapped by Validate
var ErrInvalid = errors.New("invalid configuration")

// Content modes
const (
	ModeEmbed = "embed"
	ModeHTTP  = "http"
)

// Config is the full application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Content ContentConfig `mapstructure:"content"`
	Log     LogConfig     `mapstructure:"log"`
	Site    SiteConfig    `mapstructure:"site"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// ContentConfig controls where posts are fetched from
type ContentConfig struct {
	// Mode is "embed" to read the bundled posts or "http" to GET them
	Mode    string        `mapstructure:"mode"`
	BaseURL string        `mapstructure:"baseURL"`
	Timeout time.Duration `mapstructure:"timeout"`

	// WatchDir is the directory watched for live reload
	WatchDir string `mapstructure:"watchDir"`
}

// LogConfig controls logging
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SiteConfig points at a replacement site manifest
type SiteConfig struct {
	Manifest string `mapstructure:"manifest"`
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// LogLevel parses Log.Level
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level)
	}
	return level, nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalid, c.Server.Port)
	}
	switch c.Content.Mode {
	case ModeEmbed:
	case ModeHTTP:
		if c.Content.BaseURL == "" {
			return fmt.Errorf("%w: content.baseURL is required in http mode", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: content mode %q", ErrInvalid, c.Content.Mode)
	}
	if c.Content.Timeout < 0 {
		return fmt.Errorf("%w: negative content timeout", ErrInvalid)
	}
	_, err := c.LogLevel()
	return err
}

// New returns a viper instance with defaults and environment binding set up.
// Callers bind their flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 3000)
	v.SetDefault("content.mode", ModeEmbed)
	v.SetDefault("content.baseURL", "")
	v.SetDefault("content.timeout", time.Duration(0))
	v.SetDefault("content.watchDir", "internal/content/assets")
	v.SetDefault("log.level", "info")
	v.SetDefault("site.manifest", "")

	v.SetEnvPrefix("BLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the config file, if any, and decodes v into a Config.
// An explicit file must exist; otherwise blog.yaml in the working
// directory is used when present.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("blog")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEnv loads .env style files into the process environment. Missing
// files are skipped and variables already set are kept.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}
