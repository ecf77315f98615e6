package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// SchedulerConfig holds all configuration for the scheduler process.
type SchedulerConfig struct {
	BillingServiceURL   string `mapstructure:"BILLING_SERVICE_URL"`
	InternalAPIKey      string `mapstructure:"INTERNAL_API_KEY"`
	RotationJobSchedule string `mapstructure:"ROTATION_JOB_SCHEDULE"`
}

// LoadSchedulerConfig reads configuration from environment variables.
func LoadSchedulerConfig() (*SchedulerConfig, error) {
	viper.SetDefault("ROTATION_JOB_SCHEDULE", "*/30 * * * *") // Every 30 minutes.
	viper.AutomaticEnv()

	_ = viper.BindEnv("BILLING_SERVICE_URL")
	_ = viper.BindEnv("INTERNAL_API_KEY")
	_ = viper.BindEnv("ROTATION_JOB_SCHEDULE")

	var config SchedulerConfig
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.BillingServiceURL = strings.TrimRight(strings.TrimSpace(config.BillingServiceURL), "/")
	config.InternalAPIKey = strings.TrimSpace(config.InternalAPIKey)
	if config.BillingServiceURL == "" {
		return nil, errors.New("BILLING_SERVICE_URL is required")
	}
	if config.InternalAPIKey == "" {
		return nil, errors.New("INTERNAL_API_KEY is required")
	}
	return &config, nil
}
