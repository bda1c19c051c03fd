package config

import (
	"fmt"
	"os"
	"time"
)

// Environment variables read by parseEnv.
const (
	EnvDatabaseDSN      = "DATABASE_DSN"
	EnvJWTSecret        = "JWT_SECRET"
	EnvEncryptionSecret = "ENCRYPTION_SECRET"
	EnvAppEnv           = "APP_ENV"
	EnvCheckInterval    = "CHECK_INTERVAL"
)

// parseEnv overlays the deployment variables that are usually injected by
// the runtime rather than written to a file.
func parseEnv(config *Config) error {
	if v, ok := os.LookupEnv(EnvDatabaseDSN); ok && v != "" {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv(EnvJWTSecret); ok && v != "" {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv(EnvEncryptionSecret); ok && v != "" {
		config.EncryptionSecret = v
	}
	if v, ok := os.LookupEnv(EnvAppEnv); ok && v != "" {
		config.Environment = v
	}
	if v, ok := os.LookupEnv(EnvCheckInterval); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCheckInterval, err)
		}
		config.CheckInterval = d
	}
	return nil
}
