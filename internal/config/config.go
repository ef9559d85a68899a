package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port            string        `mapstructure:"app_port"`
	StoreDriver     string        `mapstructure:"store_driver"`
	DataDir         string        `mapstructure:"data_dir"`
	DatabaseURL     string        `mapstructure:"database_url"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	ReportCacheTTL  time.Duration `mapstructure:"report_cache_ttl"`
	AMQPURL         string        `mapstructure:"amqp_url"`
	LowStock        int           `mapstructure:"low_stock_threshold"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	OperatorEmail   string        `mapstructure:"operator_email"`
	OperatorHash    string        `mapstructure:"operator_password_hash"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AuthEnabled reports whether mutating routes require a bearer token.
func (c *Config) AuthEnabled() bool { return c.JWTSecret != "" }

var defaults = map[string]interface{}{
	"app_port":               "5000",
	"store_driver":           DriverFile,
	"data_dir":               "./data",
	"database_url":           "",
	"redis_addr":             "",
	"report_cache_ttl":       2 * time.Minute,
	"amqp_url":               "",
	"low_stock_threshold":    5,
	"jwt_secret":             "",
	"operator_email":         "",
	"operator_password_hash": "",
	"token_ttl":              24 * time.Hour,
	"shutdown_timeout":       10 * time.Second,
}

// Load reads .env (when present) into the environment and resolves every
// setting from the environment over the defaults.
func Load() (*Config, error) {
	LoadEnvFile()
	return FromViper(NewViper())
}

// LoadEnvFile copies .env into the process environment when the file exists.
// Variables already set win.
func LoadEnvFile() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Println("error loading .env file:", err)
		}
	}
}

// NewViper returns a viper instance with every default registered and
// environment lookup enabled.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// FromViper decodes and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverFile:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the file store")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want %s, %s or %s)", c.StoreDriver, DriverFile, DriverPostgres, DriverMemory)
	}
	if c.LowStock < 0 {
		return fmt.Errorf("LOW_STOCK_THRESHOLD cannot be negative")
	}
	if c.AuthEnabled() && (c.OperatorEmail == "" || c.OperatorHash == "") {
		return fmt.Errorf("OPERATOR_EMAIL and OPERATOR_PASSWORD_HASH are required when JWT_SECRET is set")
	}
	return nil
}
