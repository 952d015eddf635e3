package constants

// Default server configuration values
const (
	DefaultServerPort            = 8090
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 30
	ServerErrorChannelSize       = 1
)

// Default retry configuration values
const (
	DefaultRetryBackoffMs        = 1000
	DefaultMaxBackoffMs          = 60000
	DefaultMaxAttempts           = 5
	DefaultDatabaseRetryAttempts = 3
)

// Default pipeline configuration values
const (
	DefaultRetentionDays        = 30
	DefaultCleanupIntervalHours = 24
	DefaultChatListLimit        = 50
	DefaultMessageListLimit     = 50
	DefaultHTTPTimeoutSec       = 30
	DefaultMaxMediaSizeMB       = 100
)

// Privacy settings
const (
	DefaultPhoneMaskLength = 4
)
