// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"APP_ENV"`

	JWTSecret   string `mapstructure:"JWT_SECRET"`
	JWTIssuer   string `mapstructure:"JWT_ISSUER"`
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	JWTTTLHours int    `mapstructure:"JWT_TTL_HOURS"`

	DBDriver                      string `mapstructure:"DB_DRIVER"`
	DBHost                        string `mapstructure:"DB_HOST"`
	DBPort                        string `mapstructure:"DB_PORT"`
	DBUser                        string `mapstructure:"DB_USER"`
	DBPassword                    string `mapstructure:"DB_PASSWORD"`
	DBName                        string `mapstructure:"DB_NAME"`
	DBSSLMode                     string `mapstructure:"DB_SSLMODE"`
	DBSQLitePath                  string `mapstructure:"DB_SQLITE_PATH"`
	DBReadHost                    string `mapstructure:"DB_READ_HOST"`
	DBReadPort                    string `mapstructure:"DB_READ_PORT"`
	DBSchemaMode                  string `mapstructure:"DB_SCHEMA_MODE"`
	DBAutoMigrateAllowDestructive bool   `mapstructure:"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"`
	DBMaxOpenConns                int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns                int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes      int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	DefaultUserImage    string `mapstructure:"DEFAULT_USER_IMAGE"`
	TagsCacheTTLSeconds int    `mapstructure:"TAGS_CACHE_TTL_SECONDS"`
	RealtimeEnabled     bool   `mapstructure:"REALTIME_ENABLED"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
// Variables from a .env file in the working directory fill in, but never
// override, the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_ISSUER", "conduit-api")
	viper.SetDefault("JWT_AUDIENCE", "conduit-client")
	viper.SetDefault("JWT_TTL_HOURS", 24*7)
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "conduit")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_SQLITE_PATH", "conduit.db")
	viper.SetDefault("DB_READ_HOST", "")
	viper.SetDefault("DB_READ_PORT", "5432")
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")
	viper.SetDefault("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE", false)
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:4100,http://127.0.0.1:3000")
	viper.SetDefault("DEFAULT_USER_IMAGE", "https://api.realworld.io/images/smiley-cyrus.jpeg")
	viper.SetDefault("TAGS_CACHE_TTL_SECONDS", 60)
	viper.SetDefault("REALTIME_ENABLED", true)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.DBSchemaMode = strings.ToLower(strings.TrimSpace(c.DBSchemaMode))
}

// IsProduction reports whether the config targets a production environment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// TokenTTL is the lifetime of issued access tokens.
func (c *Config) TokenTTL() time.Duration {
	if c.JWTTTLHours <= 0 {
		return 24 * 7 * time.Hour
	}
	return time.Duration(c.JWTTTLHours) * time.Hour
}

// TagsCacheTTL is how long the tag list stays cached in Redis.
func (c *Config) TagsCacheTTL() time.Duration {
	if c.TagsCacheTTLSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.TagsCacheTTLSeconds) * time.Second
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBMaxOpenConns < 0 || c.DBMaxIdleConns < 0 {
		return errors.New("DB pool sizes must not be negative")
	}
	if c.DBConnMaxLifetimeMinutes <= 0 {
		return errors.New("DB_CONN_MAX_LIFETIME_MINUTES must be positive")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver == "postgres" {
			if c.DBPassword == "password" || c.DBPassword == "" {
				return errors.New("a strong DB_PASSWORD is required in production")
			}
			if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
				return errors.New("DB_SSLMODE must not be 'disable' in production")
			}
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
