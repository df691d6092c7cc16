package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds the settings of the serve command.
type Config struct {
	Port            string
	Host            string
	Timeout         time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string
	Metrics         bool
	TraceID         bool
	MaxBodySize     int64
	RateLimit       int
	Tokens          []string
}

func addServeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("port", "8080", "Port to listen on (0 picks a free port)")
	flags.String("host", "", "Host to bind to (all interfaces when empty)")
	flags.Duration("timeout", 30*time.Second, "Deadline for each request (0 disables it)")
	flags.Duration("shutdown-timeout", 15*time.Second, "Time allowed for in-flight requests on shutdown")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.Bool("metrics", false, "Collect Prometheus metrics and serve them on /metrics")
	flags.Bool("trace-id", true, "Assign a trace ID to every request")
	flags.Int64("max-body-size", 1<<20, "Maximum request body size in bytes (0 disables the limit)")
	flags.Int("rate-limit", 0, "Requests per second allowed per client (0 disables throttling)")
	flags.StringSlice("tokens", nil, "Bearer tokens accepted by the API (open when empty)")
}

// loadConfig resolves the configuration. Precedence: flag > SERVD_* env > PORT env > .env file > default.
func loadConfig(cmd *cobra.Command) (Config, error) {
	// .env never overrides variables that are already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("SERVD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("port", "SERVD_PORT", "PORT"); err != nil {
		return Config{}, err
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:            v.GetString("port"),
		Host:            v.GetString("host"),
		Timeout:         v.GetDuration("timeout"),
		ShutdownTimeout: v.GetDuration("shutdown-timeout"),
		LogLevel:        v.GetString("log-level"),
		Metrics:         v.GetBool("metrics"),
		TraceID:         v.GetBool("trace-id"),
		MaxBodySize:     v.GetInt64("max-body-size"),
		RateLimit:       v.GetInt("rate-limit"),
		Tokens:          v.GetStringSlice("tokens"),
	}
	return cfg, nil
}

// newLogger builds a production logger at the configured level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = lvl
	return zc.Build()
}
