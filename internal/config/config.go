package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Provisioning ProvisioningConfig
	CORS         CORSConfig
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Backend selects the device store: "postgres" or "memory".
	// The memory backend keeps everything in-process and is meant for
	// development and tests.
	Backend string         `mapstructure:"backend"`
	AppDB   PostgresConfig `mapstructure:"postgres_app"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// PresenceTTL is how long a device counts as online after its last
	// telemetry report.
	PresenceTTL time.Duration `mapstructure:"presence_ttl"`
}

type ProvisioningConfig struct {
	// ScanTimeout bounds peripheral discovery.
	ScanTimeout time.Duration `mapstructure:"scan_timeout"`
	// OpTimeout bounds a single characteristic read/write. The observed
	// exchange has no timeout at all; this is a deliberate deviation.
	OpTimeout time.Duration `mapstructure:"op_timeout"`
	// SettleDelay is waited between a properties write and the
	// acknowledgement read-back, and before the first info read after
	// connect. Immediate reads fail non-deterministically on the ESP32 side.
	SettleDelay time.Duration `mapstructure:"settle_delay"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("AQUAHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Load config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 5071)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.backend", "postgres")
	viper.SetDefault("database.postgres_app.sslmode", "disable")

	// Redis defaults
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.presence_ttl", "5m")

	// Provisioning defaults
	viper.SetDefault("provisioning.scan_timeout", "30s")
	viper.SetDefault("provisioning.op_timeout", "10s")
	viper.SetDefault("provisioning.settle_delay", "500ms")

	// CORS defaults
	viper.SetDefault("cors.allowed_origins", []string{"*"})
}

func validateConfig(config *Config) error {
	switch config.Database.Backend {
	case "postgres":
		if config.Database.AppDB.Host == "" {
			return fmt.Errorf("postgres app host is required")
		}
	case "memory":
		// nothing to validate
	default:
		return fmt.Errorf("unknown database backend %q", config.Database.Backend)
	}
	if config.Redis.Enabled && config.Redis.Host == "" {
		return fmt.Errorf("redis host is required when redis is enabled")
	}
	return nil
}
