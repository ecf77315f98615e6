/**
 * @description
 * Configuration management for the billing API. Settings come from the
 * environment, optionally seeded from a .env file in the given path.
 *
 * @dependencies
 * - github.com/spf13/viper: environment binding, defaults and .env parsing.
 */
package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the API service.
type Config struct {
	ServerPort                    string `mapstructure:"SERVER_PORT"`
	DatabaseURL                   string `mapstructure:"DATABASE_URL"`
	RedisURL                      string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix          string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL                   string `mapstructure:"RABBITMQ_URL"`
	EventsExchange                string `mapstructure:"EVENTS_EXCHANGE"`
	MovementImportQueue           string `mapstructure:"MOVEMENT_IMPORT_QUEUE"`
	AuthJWKSURL                   string `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience                  string `mapstructure:"AUTH_AUDIENCE"`
	AuthIssuer                    string `mapstructure:"AUTH_ISSUER"`
	InternalAPIKey                string `mapstructure:"INTERNAL_API_KEY"`
	BillingRateLimitMax           int    `mapstructure:"BILLING_RATE_LIMIT_MAX"`
	BillingRateLimitWindowSeconds int    `mapstructure:"BILLING_RATE_LIMIT_WINDOW_SECONDS"`
	BillingMaxMovements           int    `mapstructure:"BILLING_MAX_MOVEMENTS"`
	RotationMaxGapHours           int    `mapstructure:"ROTATION_MAX_GAP_HOURS"`
}

// RateLimitWindow returns the configured window as a duration.
func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.BillingRateLimitWindowSeconds) * time.Second
}

// RotationMaxGap returns the pairing gap. Zero disables the bound.
func (c Config) RotationMaxGap() time.Duration {
	return time.Duration(c.RotationMaxGapHours) * time.Hour
}

// LoadConfig reads configuration from environment variables and an optional .env file in path.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "aero:rate_limit")
	viper.SetDefault("EVENTS_EXCHANGE", "aero.events")
	viper.SetDefault("MOVEMENT_IMPORT_QUEUE", "billing_service.movements_imported")
	viper.SetDefault("BILLING_RATE_LIMIT_MAX", 20)
	viper.SetDefault("BILLING_RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("BILLING_MAX_MOVEMENTS", 500)
	viper.SetDefault("ROTATION_MAX_GAP_HOURS", 24)

	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("EVENTS_EXCHANGE")
	_ = viper.BindEnv("MOVEMENT_IMPORT_QUEUE")
	_ = viper.BindEnv("AUTH_JWKS_URL", "AUTH_JWKS_URL", "CLERK_JWKS_URL")
	_ = viper.BindEnv("AUTH_AUDIENCE")
	_ = viper.BindEnv("AUTH_ISSUER")
	_ = viper.BindEnv("INTERNAL_API_KEY")
	_ = viper.BindEnv("BILLING_RATE_LIMIT_MAX")
	_ = viper.BindEnv("BILLING_RATE_LIMIT_WINDOW_SECONDS")
	_ = viper.BindEnv("BILLING_MAX_MOVEMENTS")
	_ = viper.BindEnv("ROTATION_MAX_GAP_HOURS")

	// The .env file is optional.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.DatabaseURL = strings.TrimSpace(config.DatabaseURL)
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RabbitMQURL = strings.TrimSpace(config.RabbitMQURL)
	config.InternalAPIKey = strings.TrimSpace(config.InternalAPIKey)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "aero:rate_limit"
	}

	if config.BillingRateLimitMax <= 0 {
		log.Printf("level=warn component=config msg=\"invalid BILLING_RATE_LIMIT_MAX; using default\" value=%d", config.BillingRateLimitMax)
		config.BillingRateLimitMax = 20
	}
	if config.BillingRateLimitWindowSeconds <= 0 {
		log.Printf("level=warn component=config msg=\"invalid BILLING_RATE_LIMIT_WINDOW_SECONDS; using default\" value=%d", config.BillingRateLimitWindowSeconds)
		config.BillingRateLimitWindowSeconds = 60
	}
	if config.BillingMaxMovements <= 0 {
		log.Printf("level=warn component=config msg=\"invalid BILLING_MAX_MOVEMENTS; using default\" value=%d", config.BillingMaxMovements)
		config.BillingMaxMovements = 500
	}
	if config.RotationMaxGapHours < 0 {
		log.Printf("level=warn component=config msg=\"negative ROTATION_MAX_GAP_HOURS; using default\" value=%d", config.RotationMaxGapHours)
		config.RotationMaxGapHours = 24
	}

	if config.DatabaseURL == "" {
		return config, errors.New("DATABASE_URL is required")
	}
	if config.InternalAPIKey == "" {
		return config, errors.New("INTERNAL_API_KEY is required")
	}
	return config, nil
}
