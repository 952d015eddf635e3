package models

import "time"

// Config holds the application configuration
type Config struct {
	Server        ServerConfig   `json:"server"`
	WhatsApp      WhatsAppConfig `json:"whatsapp"`
	Database      DatabaseConfig `json:"database"`
	Media         MediaConfig    `json:"media"`
	Retry         RetryConfig    `json:"retry"`
	Tracing       TracingConfig  `json:"tracing"`
	LogLevel      string         `json:"log_level"`
	RetentionDays int            `json:"retentionDays"`
}

// ServerConfig holds HTTP server related configurations
type ServerConfig struct {
	Port                 int    `json:"port"`
	WebhookSecret        string `json:"webhook_secret"`
	CleanupIntervalHours int    `json:"cleanupIntervalHours"`
}

// WhatsAppConfig holds upstream WhatsApp API related configurations
type WhatsAppConfig struct {
	APIBaseURL string        `json:"api_base_url"`
	APIKey     string        `json:"api_key"`
	Timeout    time.Duration `json:"timeout_ms"`
	RetryCount int           `json:"retry_count"`
}

// DatabaseConfig holds database related configurations
type DatabaseConfig struct {
	Path string `json:"path"`
}

// MediaConfig holds media storage related configurations
type MediaConfig struct {
	Dir       string `json:"dir"`
	MaxSizeMB int    `json:"maxSizeMB"`
}

// RetryConfig holds retry related configurations
type RetryConfig struct {
	InitialBackoffMs int `json:"initialBackoffMs"`
	MaxBackoffMs     int `json:"maxBackoffMs"`
	MaxAttempts      int `json:"maxAttempts"`
}

// TracingConfig holds OpenTelemetry tracing configurations
type TracingConfig struct {
	Enabled        bool    `json:"enabled"`
	ServiceName    string  `json:"serviceName"`
	ServiceVersion string  `json:"serviceVersion"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlpEndpoint"`
	SampleRate     float64 `json:"sampleRate"`
	UseStdout      bool    `json:"useStdout"`
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
