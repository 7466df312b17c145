// Package config holds the tunable parameters of the clicker server.
// Values start from a profile (DefaultConfig / LowResourceConfig) and are
// overridden from the environment (CLICKER_*) or an optional clicker.env file.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Store drivers understood by the server.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Config holds every knob the server reads at startup.
type Config struct {
	HTTPAddr string `mapstructure:"HTTP_ADDR"`

	// Persistence
	StoreDriver   string        `mapstructure:"STORE_DRIVER"`
	SQLitePath    string        `mapstructure:"SQLITE_PATH"`
	PostgresDSN   string        `mapstructure:"POSTGRES_DSN"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	SaveTimeout   time.Duration `mapstructure:"SAVE_TIMEOUT"`

	// Drivers
	TickInterval        time.Duration `mapstructure:"TICK_INTERVAL"`
	LeaderboardInterval time.Duration `mapstructure:"LEADERBOARD_INTERVAL"`

	// Connection pools
	DBMaxOpenConns int `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns int `mapstructure:"DB_MAX_IDLE_CONNS"`
	RedisPoolSize  int `mapstructure:"REDIS_POOL_SIZE"`

	// WebSocket
	ClientSendBuffer     int `mapstructure:"CLIENT_SEND_BUFFER"`
	MaxMessagesPerSecond int `mapstructure:"MAX_MESSAGES_PER_SECOND"`
	MaxClients           int `mapstructure:"MAX_CLIENTS"`
}

// DefaultConfig returns sensible defaults for a desktop install.
func DefaultConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		HTTPAddr: ":8080",

		StoreDriver: DriverSQLite,
		SQLitePath:  "data/clicker.db",
		RedisAddr:   "localhost:6379",
		SaveTimeout: 2 * time.Second,

		TickInterval:        1 * time.Second,
		LeaderboardInterval: 2 * time.Second,

		DBMaxOpenConns: numCPU * 2,
		DBMaxIdleConns: numCPU,
		RedisPoolSize:  numCPU * 2,

		ClientSendBuffer:     64,
		MaxMessagesPerSecond: 50, // Auto-clickers tap fast
		MaxClients:           16,
	}
}

// LowResourceConfig returns minimal settings for development and tests.
func LowResourceConfig() *Config {
	cfg := DefaultConfig()
	cfg.StoreDriver = DriverMemory
	cfg.DBMaxOpenConns = 2
	cfg.DBMaxIdleConns = 1
	cfg.RedisPoolSize = 2
	cfg.ClientSendBuffer = 8
	cfg.MaxClients = 4
	return cfg
}

// Load reads configuration from path/clicker.env (if present) and the environment.
// A missing file is fine; everything has a default.
func Load(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	base := DefaultConfig()

	v.AddConfigPath(path)
	v.SetConfigName("clicker")
	v.SetConfigType("env")
	v.SetEnvPrefix("CLICKER")
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	v.SetDefault("HTTP_ADDR", base.HTTPAddr)
	v.SetDefault("STORE_DRIVER", base.StoreDriver)
	v.SetDefault("SQLITE_PATH", base.SQLitePath)
	v.SetDefault("POSTGRES_DSN", base.PostgresDSN)
	v.SetDefault("REDIS_ADDR", base.RedisAddr)
	v.SetDefault("REDIS_PASSWORD", base.RedisPassword)
	v.SetDefault("REDIS_DB", base.RedisDB)
	v.SetDefault("SAVE_TIMEOUT", base.SaveTimeout)
	v.SetDefault("TICK_INTERVAL", base.TickInterval)
	v.SetDefault("LEADERBOARD_INTERVAL", base.LeaderboardInterval)
	v.SetDefault("DB_MAX_OPEN_CONNS", base.DBMaxOpenConns)
	v.SetDefault("DB_MAX_IDLE_CONNS", base.DBMaxIdleConns)
	v.SetDefault("REDIS_POOL_SIZE", base.RedisPoolSize)
	v.SetDefault("CLIENT_SEND_BUFFER", base.ClientSendBuffer)
	v.SetDefault("MAX_MESSAGES_PER_SECOND", base.MaxMessagesPerSecond)
	v.SetDefault("MAX_CLIENTS", base.MaxClients)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("config: SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return errors.New("config: POSTGRES_DSN is required for the postgres driver")
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			return errors.New("config: REDIS_ADDR is required for the redis driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.TickInterval <= 0 || c.LeaderboardInterval <= 0 {
		return errors.New("config: tick intervals must be positive")
	}
	if c.ClientSendBuffer <= 0 {
		c.ClientSendBuffer = 1
	}
	return nil
}
