package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"musicbingo/database"
	"musicbingo/models"
	"musicbingo/spotify"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ReleaseVersion = "0.4.0"
	envPrefix      = "MUSICBINGO"
)

// NewCommand builds the root command. Settings come from flags, then
// MUSICBINGO_* environment variables (optionally read from a .env file),
// then an optional JSON config file, then the flag defaults.
func NewCommand(cfg *models.Config, run func(ctx context.Context, cfg *models.Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var configFile, envFile string

	cmd := &cobra.Command{
		Use:     "musicbingo",
		Short:   "Music bingo gateway: hosts the game clients and shares sessions through a session store.",
		Args:    cobra.ExactArgs(0),
		Version: ReleaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFile(envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			if configFile != "" {
				v.SetConfigFile(configFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
				}
			}
			if err := v.Unmarshal(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&configFile, "config", "", "path to a JSON config file")
	fs.StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	fs.StringP("bind", "b", "0.0.0.0", "address to bind to (env: MUSICBINGO_BIND)")
	fs.IntP("port", "p", 8080, "port to listen on (env: MUSICBINGO_PORT)")
	fs.BoolP("verbose", "v", false, "development logging (env: MUSICBINGO_VERBOSE)")

	fs.String("store-driver", "redis", "session store: redis, postgres, http or memory (env: MUSICBINGO_STORE_DRIVER)")
	fs.String("redis-addr", "localhost:6379", "redis address (env: MUSICBINGO_REDIS_ADDR)")
	fs.String("redis-password", "", "redis password (env: MUSICBINGO_REDIS_PASSWORD)")
	fs.Int("redis-db", 0, "redis database (env: MUSICBINGO_REDIS_DB)")
	fs.String("redis-key", database.DefaultRedisKey, "redis key of the session table (env: MUSICBINGO_REDIS_KEY)")
	fs.Duration("redis-ttl", 24*time.Hour, "expiry refreshed on every save, 0 to keep forever (env: MUSICBINGO_REDIS_TTL)")

	fs.String("db-host", "localhost", "postgres host (env: MUSICBINGO_DB_HOST)")
	fs.String("db-user", "postgres", "postgres user (env: MUSICBINGO_DB_USER)")
	fs.String("db-password", "", "postgres password (env: MUSICBINGO_DB_PASSWORD)")
	fs.String("db-name", "musicbingo", "postgres database (env: MUSICBINGO_DB_NAME)")
	fs.String("db-sslmode", "disable", "postgres sslmode (env: MUSICBINGO_DB_SSLMODE)")
	fs.String("db-key", database.DefaultDocumentKey, "row key of the session table (env: MUSICBINGO_DB_KEY)")

	fs.String("bucket-url", "", "URL of the JSON bucket for the http store (env: MUSICBINGO_BUCKET_URL)")

	fs.Duration("poll-interval", 2*time.Second, "DJ dashboard refresh interval (env: MUSICBINGO_POLL_INTERVAL)")

	fs.String("spotify-client-id", "", "spotify app client id (env: MUSICBINGO_SPOTIFY_CLIENT_ID)")
	fs.String("spotify-client-secret", "", "spotify app client secret (env: MUSICBINGO_SPOTIFY_CLIENT_SECRET)")
	fs.String("spotify-token-url", spotify.DefaultTokenURL, "spotify token endpoint (env: MUSICBINGO_SPOTIFY_TOKEN_URL)")
	fs.String("spotify-api-url", spotify.DefaultAPIURL, "spotify web api base url (env: MUSICBINGO_SPOTIFY_API_URL)")

	fs.String("jwt-secret", "", "secret for identity tokens (env: MUSICBINGO_JWT_SECRET)")
	fs.Duration("token-ttl", 72*time.Hour, "identity token lifetime (env: MUSICBINGO_TOKEN_TTL)")
	fs.StringSlice("cors-origins", nil, "allowed CORS origins (env: MUSICBINGO_CORS_ORIGINS)")
	fs.Duration("client-idle-timeout", 30*time.Minute, "time before idle clients are dropped (env: MUSICBINGO_CLIENT_IDLE_TIMEOUT)")

	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "env-file" {
			return
		}
		_ = v.BindPFlag(f.Name, f)
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("musicbingo v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

// loadEnvFile loads path into the environment. A missing default file is fine.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil || (!explicit && errors.Is(err, os.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}
