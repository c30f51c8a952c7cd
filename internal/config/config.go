package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Env         string
	DatabaseDSN string

	AuthDomain          string
	AuthAudience        string
	JWKSURL             string
	JWKSRefreshInterval time.Duration
	JWKSFetchTimeout    time.Duration

	CORSAllowedOrigins []string
	LogLevel           slog.Level
	LogFormat          string
	MigrateOnStart     bool
}

func Load() Config {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseDSN: getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/coffeeshop?parseTime=true"),

		AuthDomain:          strings.TrimSuffix(getEnv("AUTH0_DOMAIN", ""), "/"),
		AuthAudience:        getEnv("API_AUDIENCE", "drinks"),
		JWKSRefreshInterval: getDuration("JWKS_REFRESH_INTERVAL", time.Minute),
		JWKSFetchTimeout:    getDuration("JWKS_FETCH_TIMEOUT", 5*time.Second),

		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:           getLevel("LOG_LEVEL", slog.LevelInfo),
		MigrateOnStart:     getBool("MIGRATE_ON_START", true),
	}

	cfg.JWKSURL = getEnv("JWKS_URL", cfg.defaultJWKSURL())

	defaultFormat := "json"
	if cfg.Env == "development" {
		defaultFormat = "text"
	}
	cfg.LogFormat = getEnv("LOG_FORMAT", defaultFormat)

	if cfg.Env == "production" && (cfg.AuthDomain == "" || os.Getenv("API_AUDIENCE") == "") {
		slog.Error("AUTH0_DOMAIN and API_AUDIENCE must be set in production environment")
		os.Exit(1)
	}

	return cfg
}

// Issuer is the expected iss claim of access tokens.
func (c Config) Issuer() string {
	if c.AuthDomain == "" {
		return ""
	}
	return "https://" + c.AuthDomain + "/"
}

func (c Config) defaultJWKSURL() string {
	if c.AuthDomain == "" {
		return ""
	}
	return "https://" + c.AuthDomain + "/.well-known/jwks.json"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getLevel(key string, fallback slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		slog.Warn("invalid log level, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return level
}
