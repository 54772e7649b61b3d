package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/romanzh1/practice-srs/internal/repository"
	"github.com/romanzh1/practice-srs/pkg/utils"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxIdle  int    `mapstructure:"max_idle"`
	MaxOpen  int    `mapstructure:"max_open"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type TelegramConfig struct {
	Token string  `mapstructure:"token"`
	Rate  float64 `mapstructure:"rate"`
}

type ReminderConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	At       string `mapstructure:"at"`
	Timezone string `mapstructure:"timezone"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads .env when present, then the environment. DATABASE_HOST or the
// legacy POSTGRES_HOST both set database.host, and so on for the other keys.
func Load() (*Config, error) {
	// a missing .env is fine; real deployments use the environment
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	aliases := map[string]string{
		"database.host":     "POSTGRES_HOST",
		"database.port":     "POSTGRES_PORT",
		"database.user":     "POSTGRES_USER",
		"database.password": "POSTGRES_PASSWORD",
		"database.name":     "POSTGRES_DB",
		"telegram.token":    "TELEGRAM_BOT_TOKEN",
	}
	for key, legacy := range aliases {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, fmt.Errorf("bind env (key: %s): %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "practice")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle", 10)
	v.SetDefault("database.max_open", 20)

	v.SetDefault("http.addr", ":8080")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "720h")

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.rate", 25)

	v.SetDefault("reminder.enabled", true)
	v.SetDefault("reminder.at", "09:00")
	v.SetDefault("reminder.timezone", "UTC")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.DriverName(); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be positive (got: %s)", c.Auth.TokenTTL))
	}
	if _, _, err := utils.ParseClock(c.Reminder.At); err != nil {
		errs = append(errs, fmt.Errorf("reminder.at must be HH:MM (got: %q)", c.Reminder.At))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// DriverName maps the configured driver to a database/sql driver name.
func (c *Config) DriverName() (string, error) {
	switch strings.ToLower(c.Database.Driver) {
	case "postgres", "postgresql", "pgx":
		return repository.DriverPostgres, nil
	case "sqlite", "sqlite3":
		return repository.DriverSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database.driver: %q", c.Database.Driver)
	}
}

func (c *Config) DatabaseURL() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}

	if driver, _ := c.DriverName(); driver == repository.DriverSQLite {
		return "file:practice.db?_busy_timeout=5000"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Reminder.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load reminder.timezone (name: %s): %w", c.Reminder.Timezone, err)
	}
	return loc, nil
}
