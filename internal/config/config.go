// Package config reads service settings from the environment, after loading
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const minSecretLength = 32

type Config struct {
	ServiceName     string
	Port            string
	LogLevel        string
	Database        Database
	JWT             JWT
	Telemetry       Telemetry
	CallTimeout     time.Duration
	ShutdownTimeout time.Duration
	// PasswordCost is the bcrypt cost used by the identity service.
	PasswordCost int
}

type Database struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	MaxConns int32
	MinConns int32
}

// DSN is the pgx connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", d.User, d.Password, d.Host, d.Port, d.Name)
}

type JWT struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type Telemetry struct {
	Enabled  bool
	Endpoint string
}

// Load reads the configuration of service. defaultDatabase names the
// database used when DATABASE_NAME is unset.
func Load(service, defaultDatabase string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var errs []error
	cfg := Config{
		ServiceName: getEnv("SERVICE_NAME", service),
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Database: Database{
			User:     getEnv("DATABASE_USER", "root"),
			Password: getEnv("DATABASE_PASSWORD", "pass"),
			Host:     getEnv("DATABASE_HOST", "localhost"),
			Port:     getEnv("DATABASE_PORT", "5432"),
			Name:     getEnv("DATABASE_NAME", defaultDatabase),
			MaxConns: int32(getInt("DATABASE_MAX_CONNS", 25, &errs)),
			MinConns: int32(getInt("DATABASE_MIN_CONNS", 5, &errs)),
		},
		JWT: JWT{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getEnv("JWT_ISSUER", "orders-inventory"),
			TTL:    getDuration("JWT_TTL", time.Hour, &errs),
		},
		Telemetry: Telemetry{
			Enabled:  getBool("OTEL_ENABLED", true, &errs),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		CallTimeout:     getDuration("DATABASE_CALL_TIMEOUT", 5*time.Second, &errs),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second, &errs),
		PasswordCost:    getInt("PASSWORD_COST", 10, &errs),
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func (c Config) validate() []error {
	var errs []error
	if len(c.JWT.Secret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.CallTimeout <= 0 {
		errs = append(errs, errors.New("DATABASE_CALL_TIMEOUT must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if c.PasswordCost < 4 || c.PasswordCost > 31 {
		errs = append(errs, errors.New("PASSWORD_COST must be between 4 and 31"))
	}
	if c.Database.MaxConns <= 0 || c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, errors.New("DATABASE_MIN_CONNS and DATABASE_MAX_CONNS are out of range"))
	}
	return errs
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool, errs *[]error) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return b
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}
