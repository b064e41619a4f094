// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Supported account store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config stores all configuration of the application.
//
// The values are read by viper from a config file or environment variables.
type Config struct {
	DBDriver       string        `mapstructure:"DB_DRIVER"`
	DBSource       string        `mapstructure:"DB_SOURCE"`
	MigrationURL   string        `mapstructure:"MIGRATION_URL"`
	Store          string        `mapstructure:"STORE"`
	ServerAddress  string        `mapstructure:"SERVER_ADDRESS"`
	AuditLogPath   string        `mapstructure:"AUDIT_LOG_PATH"`
	RedisURL       string        `mapstructure:"REDIS_URL"`
	RedisAuditKey  string        `mapstructure:"REDIS_AUDIT_KEY"`
	WorkerPoolSize int           `mapstructure:"WORKER_POOL_SIZE"`
	StoreTimeout   time.Duration `mapstructure:"STORE_TIMEOUT"`
	Environment    string        `mapstructure:"GO_ENV"`
}

// Load reads configuration from file or environment variables.
//
// A missing app.env is not an error: defaults and the environment are used instead.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()

	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_SOURCE", "")
	v.SetDefault("MIGRATION_URL", "file://db/migration")
	v.SetDefault("STORE", StoreMemory)
	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("AUDIT_LOG_PATH", "transactions.log")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_AUDIT_KEY", "ledger:audit")
	v.SetDefault("WORKER_POOL_SIZE", 10)
	v.SetDefault("STORE_TIMEOUT", 3*time.Second)
	v.SetDefault("GO_ENV", "production")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	if c.WorkerPoolSize < 1 {
		c.WorkerPoolSize = 1
	}

	return c, nil
}
