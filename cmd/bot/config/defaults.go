package config

// Default values for the bot configuration.
const (
	DefaultPollingIntervalSeconds = 2
	DefaultExcelThreshold         = 15
	DefaultHTTPTimeoutSeconds     = 30
	DefaultMaxFileSizeMB          = 10
	DefaultTaskTimeoutSeconds     = 300
	DefaultHealthCheckSeconds     = 30

	// Column widths for text rendering.
	DefaultRankColumnWidth     = 4
	DefaultAuthorColumnWidth   = 18
	DefaultMessagesColumnWidth = 6
	DefaultStatusColumnWidth   = 8

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
