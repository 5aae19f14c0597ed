package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pandoracore/keyring/internal/driver"
)

// config is the daemon's viper-loaded configuration: which storage
// driver to open and which address to serve the RPC transport on.
type config struct {
	ListenAddr string
	LogLevel   string

	DriverKind string // "file" or "redis"

	FileLocation string
	FileFormat   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string

	MetricsAddr string

	RateLimitAttempts int
	RateLimitWindow   time.Duration

	AuditLogPath string // empty disables audit logging
}

func loadConfig(cfgFile string) (config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("KEYRINGD")
	v.AutomaticEnv()

	v.SetDefault("listen_addr", "127.0.0.1:8787")
	v.SetDefault("log_level", "info")
	v.SetDefault("driver.kind", "file")
	v.SetDefault("driver.file.location", "keyring.state")
	v.SetDefault("driver.file.format", "strict-binary")
	v.SetDefault("driver.redis.addr", "127.0.0.1:6379")
	v.SetDefault("driver.redis.db", 0)
	v.SetDefault("driver.redis.key", "keyringd:vault")
	v.SetDefault("metrics_addr", "127.0.0.1:9090")
	v.SetDefault("rate_limit.attempts", 5)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("audit_log_path", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
	}

	return config{
		ListenAddr:    v.GetString("listen_addr"),
		LogLevel:      v.GetString("log_level"),
		DriverKind:    v.GetString("driver.kind"),
		FileLocation:  v.GetString("driver.file.location"),
		FileFormat:    v.GetString("driver.file.format"),
		RedisAddr:     v.GetString("driver.redis.addr"),
		RedisPassword: v.GetString("driver.redis.password"),
		RedisDB:       v.GetInt("driver.redis.db"),
		RedisKey:      v.GetString("driver.redis.key"),
		MetricsAddr:   v.GetString("metrics_addr"),

		RateLimitAttempts: v.GetInt("rate_limit.attempts"),
		RateLimitWindow:   v.GetDuration("rate_limit.window"),
		AuditLogPath:      v.GetString("audit_log_path"),
	}, nil
}

func parseFormat(s string) (driver.Format, error) {
	switch strings.ToLower(s) {
	case "strict-binary", "binary":
		return driver.StrictBinary, nil
	case "yaml":
		return driver.Yaml, nil
	case "toml":
		return driver.Toml, nil
	case "json":
		return driver.Json, nil
	default:
		return 0, fmt.Errorf("unknown file format %q", s)
	}
}
