package models

import (
	"errors"
	"fmt"
	"time"
)

// Config は設定ファイル・環境変数・フラグから読み込まれる設定情報を保持します。
type Config struct {
	Bind    string `mapstructure:"bind"`
	Port    int    `mapstructure:"port"`
	Verbose bool   `mapstructure:"verbose"`

	StoreDriver string `mapstructure:"store-driver"` // redis, postgres, http, memory

	RedisAddr     string        `mapstructure:"redis-addr"`
	RedisPassword string        `mapstructure:"redis-password"`
	RedisDB       int           `mapstructure:"redis-db"`
	RedisKey      string        `mapstructure:"redis-key"`
	RedisTTL      time.Duration `mapstructure:"redis-ttl"`

	DBHost     string `mapstructure:"db-host"`
	DBUser     string `mapstructure:"db-user"`
	DBPassword string `mapstructure:"db-password"`
	DBName     string `mapstructure:"db-name"`
	DBSSLMode  string `mapstructure:"db-sslmode"`
	DBKey      string `mapstructure:"db-key"`

	BucketURL string `mapstructure:"bucket-url"`

	PollInterval time.Duration `mapstructure:"poll-interval"`

	SpotifyClientID     string `mapstructure:"spotify-client-id"`
	SpotifyClientSecret string `mapstructure:"spotify-client-secret"`
	SpotifyTokenURL     string `mapstructure:"spotify-token-url"`
	SpotifyAPIURL       string `mapstructure:"spotify-api-url"`

	JWTSecret         string        `mapstructure:"jwt-secret"`
	TokenTTL          time.Duration `mapstructure:"token-ttl"`
	CORSOrigins       []string      `mapstructure:"cors-origins"`
	ClientIdleTimeout time.Duration `mapstructure:"client-idle-timeout"`
}

// Validate checks the combinations that cannot be caught by flag parsing.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	switch c.StoreDriver {
	case "redis", "postgres", "memory":
	case "http":
		if c.BucketURL == "" {
			return errors.New("--bucket-url is required with the http store driver")
		}
	default:
		return fmt.Errorf("unknown store driver: %q", c.StoreDriver)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive: %s", c.PollInterval)
	}
	if c.JWTSecret == "" {
		return errors.New("--jwt-secret must be set")
	}
	if (c.SpotifyClientID == "") != (c.SpotifyClientSecret == "") {
		return errors.New("both --spotify-client-id and --spotify-client-secret must be provided together")
	}
	return nil
}

// SpotifyEnabled reports whether playlist URLs can be resolved.
func (c *Config) SpotifyEnabled() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}
