package config

import "time"

const (
	// MaxConfigSize Define constant for max config file size (1MB)
	MaxConfigSize = 1 << 20 // 1MB

	// ShutdownTimeout is the timeout for graceful shutdown
	ShutdownTimeout = 10 * time.Second

	// MaxReadHeaderTimeout bounds the configurable header read timeout
	MaxReadHeaderTimeout = 5 * time.Minute

	// DefaultConfigName is the file searched for when no path is given
	DefaultConfigName = ".redirectscheme.yaml"

	// ForwardedHeaderNone disables forwarded-header trust when used as
	// the forwardedHeader value
	ForwardedHeaderNone = "none"
)
