// Package config reads the API configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

type Config struct {
	HTTPAddr       string
	AllowedOrigins []string
	Storage        string
	RunMigrations  bool
	DB             DBConfig
	JWT            JWTConfig
	Log            LogConfig
	SMTP           SMTPConfig

	DefaultRadiusKm float64
	SweepInterval   time.Duration
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether an SMTP relay has been configured.
func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

// Load reads the configuration using os.Getenv.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads the configuration through getenv so tests can supply their own.
func LoadFrom(getenv func(string) string) (Config, error) {
	r := reader{getenv: getenv}

	cfg := Config{
		HTTPAddr:       r.str("HTTP_ADDR", ":8080"),
		AllowedOrigins: r.list("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		Storage:        r.str("STORAGE_DRIVER", StorageMySQL),
		RunMigrations:  r.boolean("RUN_MIGRATIONS", true),
		DB: DBConfig{
			DSN:             r.str("DB_DSN_PRIMARY", ""),
			MaxOpenConns:    r.integer("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    r.integer("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: time.Duration(r.integer("DB_CONN_MAX_LIFETIME_MIN", 5)) * time.Minute,
		},
		JWT: JWTConfig{
			Secret: r.str("JWT_SECRET", ""),
			TTL:    time.Duration(r.integer("JWT_TTL_HOURS", 72)) * time.Hour,
		},
		Log: LogConfig{
			Level:  r.str("LOG_LEVEL", "info"),
			Format: r.str("LOG_FORMAT", "json"),
		},
		SMTP: SMTPConfig{
			Host:     r.str("SMTP_HOST", ""),
			Port:     r.integer("SMTP_PORT", 587),
			Username: r.str("SMTP_USER", ""),
			Password: r.str("SMTP_PASS", ""),
			From:     r.str("EMAIL_FROM", "no-reply@tradelink.local"),
		},
		DefaultRadiusKm: r.float("DEFAULT_RADIUS_KM", 40),
		SweepInterval:   time.Duration(r.integer("SUBSCRIPTION_SWEEP_INTERVAL_MIN", 60)) * time.Minute,
	}
	if r.err != nil {
		return Config{}, r.err
	}

	if cfg.Storage != StorageMySQL && cfg.Storage != StorageMemory {
		return Config{}, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageMySQL, StorageMemory, cfg.Storage)
	}
	if cfg.Storage == StorageMySQL && cfg.DB.DSN == "" {
		return Config{}, fmt.Errorf("DB_DSN_PRIMARY environment variable is not set")
	}
	if cfg.JWT.Secret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	if cfg.DefaultRadiusKm <= 0 {
		return Config{}, fmt.Errorf("DEFAULT_RADIUS_KM must be positive")
	}
	if cfg.SweepInterval <= 0 {
		return Config{}, fmt.Errorf("SUBSCRIPTION_SWEEP_INTERVAL_MIN must be positive")
	}
	return cfg, nil
}

// reader collects the first conversion error so Load reports it once.
type reader struct {
	getenv func(string) string
	err    error
}

func (r *reader) str(key, fallback string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (r *reader) list(key, fallback string) []string {
	var out []string
	for _, part := range strings.Split(r.str(key, fallback), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (r *reader) integer(key string, fallback int) int {
	v := r.str(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v)
		return fallback
	}
	return n
}

func (r *reader) float(key string, fallback float64) float64 {
	v := r.str(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v)
		return fallback
	}
	return f
}

func (r *reader) boolean(key string, fallback bool) bool {
	v := r.str(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v)
		return fallback
	}
	return b
}

func (r *reader) fail(key, value string) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid value %q for %s", value, key)
	}
}
