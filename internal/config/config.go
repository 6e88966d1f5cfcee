package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Captcha store backends
const (
	CaptchaBackendRedis  = "redis"
	CaptchaBackendMemory = "memory"
)

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Port        string   `yaml:"port" env:"SERVER_PORT"`
	Mode        string   `yaml:"mode" env:"SERVER_MODE"`
	CorsOrigins []string `yaml:"cors_origins" env:"SERVER_CORS_ORIGINS"`
}

// DatabaseConfig describes the Postgres connection and its pool
type DatabaseConfig struct {
	Host            string   `yaml:"host" env:"DB_HOST"`
	Port            string   `yaml:"port" env:"DB_PORT"`
	User            string   `yaml:"user" env:"DB_USER"`
	Password        string   `yaml:"password" env:"DB_PASSWORD"`
	DBName          string   `yaml:"dbname" env:"DB_NAME"`
	SSLMode         string   `yaml:"sslmode" env:"DB_SSLMODE"`
	MaxIdleConns    int      `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	MaxOpenConns    int      `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	MigrationsDir   string   `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
}

// JWTConfig holds token signing settings
type JWTConfig struct {
	Secret                string   `yaml:"secret" env:"JWT_SECRET"`
	AccessTokenExpiration Duration `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
	Issuer                string   `yaml:"issuer" env:"JWT_ISSUER"`
}

// LoggingConfig selects the log level and json or text output
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// RedisConfig is used by the redis captcha backend
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// CaptchaConfig controls the register/login challenge
type CaptchaConfig struct {
	Enabled bool     `yaml:"enabled" env:"CAPTCHA_ENABLED"`
	Backend string   `yaml:"backend" env:"CAPTCHA_BACKEND"`
	TTL     Duration `yaml:"ttl" env:"CAPTCHA_TTL"`
	Length  int      `yaml:"length" env:"CAPTCHA_LENGTH"`
}

// ExamConfig holds exam timing rules
type ExamConfig struct {
	// SubmitGrace is how long after the end answers are still accepted
	SubmitGrace Duration `yaml:"submit_grace" env:"EXAM_SUBMIT_GRACE"`
}

// SeedConfig describes the bootstrap administrator
type SeedConfig struct {
	AdminEmail    string `yaml:"admin_email" env:"SEED_ADMIN_EMAIL"`
	AdminPassword string `yaml:"admin_password" env:"SEED_ADMIN_PASSWORD"`
}

// Config structure represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Logging  LoggingConfig  `yaml:"logging"`
	Redis    RedisConfig    `yaml:"redis"`
	Captcha  CaptchaConfig  `yaml:"captcha"`
	Exam     ExamConfig     `yaml:"exam"`
	Seed     SeedConfig     `yaml:"seed"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			Mode:        "development",
			CorsOrigins: []string{"http://localhost:4200"},
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Password:        "postgres",
			DBName:          "examhub",
			SSLMode:         "disable",
			MaxIdleConns:    5,
			MaxOpenConns:    20,
			ConnMaxLifetime: Duration(time.Hour),
			MigrationsDir:   "migrations",
		},
		JWT: JWTConfig{
			AccessTokenExpiration: Duration(24 * time.Hour),
			Issuer:                "examhub",
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Redis:   RedisConfig{Addr: "localhost:6379"},
		Captcha: CaptchaConfig{
			Enabled: true,
			Backend: CaptchaBackendMemory,
			TTL:     Duration(5 * time.Minute),
			Length:  6,
		},
		Exam: ExamConfig{SubmitGrace: Duration(2 * time.Minute)},
		Seed: SeedConfig{AdminEmail: "admin@examhub.local"},
	}
}

// LoadConfig builds the configuration from defaults, the YAML file at
// configPath (optional) and environment variables, in that order. A .env
// file in the working directory is loaded into the environment first.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()

	raw, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate reports the first setting the server cannot start with
func (c *Config) Validate() error {
	switch {
	case c.Database.Host == "":
		return errors.New("database host is required")
	case c.JWT.Secret == "":
		return errors.New("JWT secret is required")
	case c.JWT.AccessTokenExpiration <= 0:
		return errors.New("JWT access token expiration must be positive")
	case c.Database.ConnMaxLifetime <= 0:
		return errors.New("database connection max lifetime must be positive")
	case c.Captcha.TTL <= 0:
		return errors.New("captcha ttl must be positive")
	case c.Captcha.Length <= 0:
		return errors.New("captcha length must be positive")
	case c.Exam.SubmitGrace < 0:
		return errors.New("exam submit grace cannot be negative")
	}

	switch c.Captcha.Backend {
	case CaptchaBackendRedis, CaptchaBackendMemory:
	default:
		return fmt.Errorf("unknown captcha backend %q", c.Captcha.Backend)
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     c.Database.Host + ":" + c.Database.Port,
		Path:     "/" + c.Database.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return dsn.String()
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Mode, "production")
}
