// Package config loads hshchk settings from a YAML file, HSHCHK_ environment
// variables and command-line flags bound to the same viper instance.
package config

import "time"

// Defaults.
const (
	DefaultAlgorithm         = "SHA1"
	DefaultFormat            = "sum"
	DefaultBufferSize        = "1MiB"
	DefaultProgressBlockSize = "2MiB"
	DefaultRefreshInterval   = 233 * time.Millisecond
	DefaultReportFormat      = "plain"
	DefaultLogLevel          = "info"
	DefaultLogMaxSize        = "10MB"
	DefaultLogMaxAge         = 30
	DefaultLogMaxBackups     = 5

	// EnvPrefix prefixes environment overrides, e.g. HSHCHK_ALGORITHM.
	EnvPrefix = "HSHCHK"
)

// DefaultComponents are the per-component log levels.
var DefaultComponents = map[string]string{
	"engine": "info",
	"cache":  "warn",
	"cli":    "info",
}
