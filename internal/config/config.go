// Package config loads application configuration from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config holds all runtime configuration values.  It is assembled once in
// main and handed to the components that need it.
type Config struct {
	Env  string `env:"APP_ENV" envDefault:"dev"`
	Port string `env:"APP_PORT" envDefault:"8000"`

	StoreDriver   string `env:"STORE_DRIVER" envDefault:"mysql"`
	DBUser        string `env:"DB_USER" envDefault:"root"`
	DBPass        string `env:"DB_PASS"`
	DBHost        string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort        string `env:"DB_PORT" envDefault:"3306"`
	DBName        string `env:"DB_NAME" envDefault:"stadium_ops"`
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`

	JWTSecret         string        `env:"JWT_SECRET,required,notEmpty"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"sessionid"`
	CookieSecure      bool          `env:"COOKIE_SECURE" envDefault:"false"`
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"12"`
	RequireAuth       bool          `env:"REQUIRE_AUTH" envDefault:"false"`

	FrontendURL        string   `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	RabbitMQURL   string `env:"RABBITMQ_URL"`
	ActivityQueue string `env:"ACTIVITY_QUEUE" envDefault:"venue.activity"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	SystemHealthMin int `env:"SYSTEM_HEALTH_MIN" envDefault:"95"`
	SystemHealthMax int `env:"SYSTEM_HEALTH_MAX" envDefault:"100"`

	Redis RedisConfig
}

// Load reads .env (if any) and parses the environment into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case StoreMySQL, StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMySQL, StoreMemory, c.StoreDriver)
	}
	if c.SystemHealthMin > c.SystemHealthMax {
		return fmt.Errorf("SYSTEM_HEALTH_MIN (%d) exceeds SYSTEM_HEALTH_MAX (%d)", c.SystemHealthMin, c.SystemHealthMax)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}

// AllowedOrigins returns the CORS allowlist: FRONTEND_URL, the Vite dev
// server and anything listed in CORS_ALLOWED_ORIGINS, without duplicates.
func (c Config) AllowedOrigins() []string {
	seen := map[string]bool{}
	var out []string
	add := func(o string) {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || seen[o] {
			return
		}
		seen[o] = true
		out = append(out, o)
	}
	add(c.FrontendURL)
	add("http://localhost:5173")
	for _, o := range c.CORSAllowedOrigins {
		add(o)
	}
	return out
}
