package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conduit-lang/schemagen/internal/document"
	"github.com/conduit-lang/schemagen/internal/logging"
	"github.com/conduit-lang/schemagen/internal/store"
)

// FileName is the base name of the configuration file
const FileName = "schemagen"

// EnvPrefix prefixes every environment override, e.g. SCHEMAGEN_SERVER_PORT
const EnvPrefix = "SCHEMAGEN"

// Config represents the schemagen configuration
type Config struct {
	Declarations string       `mapstructure:"declarations"`
	Output       OutputConfig `mapstructure:"output"`
	Build        BuildConfig  `mapstructure:"build"`
	Store        StoreConfig  `mapstructure:"store"`
	Redis        RedisConfig  `mapstructure:"redis"`
	Server       ServerConfig `mapstructure:"server"`
	Log          LogConfig    `mapstructure:"log"`
}

// OutputConfig controls where build writes documents
type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"`
}

// BuildConfig controls the build command
type BuildConfig struct {
	Workers int `mapstructure:"workers"`
}

// StoreConfig selects the document store
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Table  string `mapstructure:"table"`
}

// RedisConfig configures the redis store driver
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig represents logger configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads schemagen.yml or schemagen.yaml from the working directory, or
// configFile when it is not empty. A missing default file is not an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("declarations", "schemas")
	v.SetDefault("output.dir", "build/schemas")
	v.SetDefault("output.format", "json")
	v.SetDefault("build.workers", 4)
	v.SetDefault("store.driver", "")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.table", store.DefaultTable)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "schemagen:")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// FindProjectRoot walks up from the working directory to the first
// directory holding a schemagen configuration file
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, ext := range []string{".yml", ".yaml"} {
			if _, err := os.Stat(filepath.Join(dir, FileName+ext)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s.yml found in any parent directory", FileName)
		}
		dir = parent
	}
}

// StoreConfig converts the store settings for store.Open
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Driver: c.Store.Driver,
		DSN:    c.Store.DSN,
		Table:  c.Store.Table,
		Redis: store.RedisConfig{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Prefix:   c.Redis.Prefix,
		},
	}
}

// LoggingConfig converts the log settings for logging.New
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:       c.Log.Level,
		Development: c.Log.Development,
	}
}

// OutputFormat returns the parsed output format
func (c *Config) OutputFormat() document.Format {
	format, _ := document.ParseFormat(c.Output.Format)
	return format
}

// ServerAddr returns host:port of the API server
func (c *Config) ServerAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// HasStore reports whether a persistent or in-memory store is configured
func (c *Config) HasStore() bool {
	return c.Store.Driver != ""
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if _, err := document.ParseFormat(cfg.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	if cfg.Build.Workers < 1 {
		return fmt.Errorf("build.workers must be at least 1, got: %d", cfg.Build.Workers)
	}

	switch cfg.Store.Driver {
	case "", "memory", "redis":
	case "sqlite3", "pgx":
		if cfg.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for driver %s", cfg.Store.Driver)
		}
	default:
		return fmt.Errorf("store.driver must be one of memory, sqlite3, pgx, redis, got: %s", cfg.Store.Driver)
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
