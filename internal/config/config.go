package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is built once at startup and passed by value to the components that need it.
type Config struct {
	Env   string
	Port  int
	DBURL string
	Store string

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTLPEndpoint   string
	CORSOrigins    []string
	DBTimeout      time.Duration
	LoginRateLimit int
	WriteRateLimit int
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

func Load() (Config, error) {
	var errs []error

	port, err := getEnvInt("PORT", 8080)
	errs = append(errs, err)
	ttlMinutes, err := getEnvInt("JWT_TTL_MINUTES", 60)
	errs = append(errs, err)
	cost, err := getEnvInt("BCRYPT_COST", 10)
	errs = append(errs, err)
	redisDB, err := getEnvInt("REDIS_DB", 0)
	errs = append(errs, err)
	timeoutMS, err := getEnvInt("DB_TIMEOUT_MS", 3000)
	errs = append(errs, err)
	loginLimit, err := getEnvInt("LOGIN_RATE_LIMIT", 10)
	errs = append(errs, err)
	writeLimit, err := getEnvInt("WRITE_RATE_LIMIT", 30)
	errs = append(errs, err)

	cfg := Config{
		Env:            getEnv("APP_ENV", "dev"),
		Port:           port,
		DBURL:          getEnv("DATABASE_URL", buildDBURL()),
		Store:          getEnv("STORE", StorePostgres),
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTTTL:         time.Duration(ttlMinutes) * time.Minute,
		BcryptCost:     cost,
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        redisDB,
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		CORSOrigins:    parseCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		DBTimeout:      time.Duration(timeoutMS) * time.Millisecond,
		LoginRateLimit: loginLimit,
		WriteRateLimit: writeLimit,
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports settings the process cannot start without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL_MINUTES must be positive")
	}
	if c.Store != StorePostgres && c.Store != StoreMemory {
		return fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store)
	}
	if c.DBTimeout <= 0 {
		return errors.New("DB_TIMEOUT_MS must be positive")
	}
	if c.LoginRateLimit <= 0 {
		return errors.New("LOGIN_RATE_LIMIT must be positive")
	}
	if c.WriteRateLimit <= 0 {
		return errors.New("WRITE_RATE_LIMIT must be positive")
	}

	return nil
}

func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.Port)
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "devnet")
	pass := getEnv("DB_PASSWORD", "devnet")
	name := getEnv("DB_NAME", "devnet")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout bounds a data-store call; the parent is normally the request context.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}

	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}

	num, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return num, nil
}

func parseCSV(input string) []string {
	var out []string

	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}
