package config

import (
	"encoding/json"
	"fmt"
	"os"

	"chatdesk/internal/constants"
	"chatdesk/internal/models"
	"chatdesk/internal/security"
)

var (
	ErrMissingDBPath   = models.ConfigError{Message: "missing database path"}
	ErrMissingMediaDir = models.ConfigError{Message: "missing media directory"}
)

func LoadConfig(path string) (*models.Config, error) {
	// Validate config file path to prevent directory traversal
	if err := security.ValidateFilePath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	file, err := os.ReadFile(path) // #nosec G304 - Path validated by security.ValidateFilePath above
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(&config)

	if err := validateSecurity(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	if c.Database.Path == "" {
		return ErrMissingDBPath
	}
	if c.Media.Dir == "" {
		return ErrMissingMediaDir
	}

	if c.Server.Port <= 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Server.CleanupIntervalHours <= 0 {
		c.Server.CleanupIntervalHours = constants.DefaultCleanupIntervalHours
	}
	if c.Media.MaxSizeMB <= 0 {
		c.Media.MaxSizeMB = constants.DefaultMaxMediaSizeMB
	}
	if c.WhatsApp.RetryCount <= 0 {
		c.WhatsApp.RetryCount = constants.DefaultMaxAttempts
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = constants.DefaultRetentionDays
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return nil
}

func applyEnvironmentOverrides(c *models.Config) {
	if url := os.Getenv("WHATSAPP_API_URL"); url != "" {
		c.WhatsApp.APIBaseURL = url
	}
	if key := os.Getenv("WHATSAPP_API_KEY"); key != "" {
		c.WhatsApp.APIKey = key
	}

	// SECURITY: Webhook secrets should be set via environment variables
	if secret := os.Getenv("CHATDESK_WEBHOOK_SECRET"); secret != "" {
		c.Server.WebhookSecret = secret
	}

	if path := os.Getenv("DB_PATH"); path != "" {
		c.Database.Path = path
	}
	if dir := os.Getenv("MEDIA_DIR"); dir != "" {
		c.Media.Dir = dir
	}
}

// validateSecurity performs security-specific validation
func validateSecurity(c *models.Config) error {
	isProduction := os.Getenv("CHATDESK_ENV") == "production"

	if isProduction {
		// In production, webhook secrets are mandatory
		if c.Server.WebhookSecret == "" {
			return models.ConfigError{Message: "webhook secret is required in production (set CHATDESK_WEBHOOK_SECRET environment variable)"}
		}
		if len(c.Server.WebhookSecret) < 32 {
			return models.ConfigError{Message: "webhook secret must be at least 32 characters long"}
		}
		if c.LogLevel == "debug" {
			return models.ConfigError{Message: "debug logging should not be used in production (security risk)"}
		}
	} else if c.Server.WebhookSecret == "" {
		fmt.Fprintf(os.Stderr, "WARNING: webhook secret not set. Set CHATDESK_WEBHOOK_SECRET environment variable for security.\n")
	}

	return nil
}
