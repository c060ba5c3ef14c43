package main

import "github.com/kelseyhightower/envconfig"

// Config holds CLI configuration loaded from environment variables. Storage
// and blob backend selection is handled separately by the respective
// factories (POKEROSTER_STORAGE_DRIVER, POKEROSTER_BLOB_DRIVER).
type Config struct {
	LogLevel      string `envconfig:"POKEROSTER_LOG_LEVEL" default:"info"`
	ExportTimeout int    `envconfig:"POKEROSTER_EXPORT_TIMEOUT_SECONDS" default:"30"`
}

// loadConfig reads configuration from environment variables.
func loadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
