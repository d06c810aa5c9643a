// Package config loads vueconv settings from .vueconv.yaml, VUECONV_*
// environment variables and defaults.
package config

// Conversion defaults.
const (
	DefaultRewriteThis  = true
	DefaultStrict       = false
	DefaultContext      = "ctx"
	DefaultImportSource = "@vue/composition-api"
	DefaultScriptSetup  = false
	DefaultMaxFileSize  = "1MiB"
	DefaultCacheSize    = 256

	DefaultFormatCommand = ""
	DefaultFormatTimeout = "10s"
)

// Refinement defaults.
const (
	DefaultRefineEnabled = false
	DefaultRefineRules   = ""
)

// Batch defaults. Zero workers means one per CPU.
const (
	DefaultBatchWorkers = 0
)

// DefaultBatchExtensions lists the file extensions a directory walk converts.
var DefaultBatchExtensions = []string{".vue", ".ts", ".tsx", ".js"}

// DefaultBatchExclude lists directory names a directory walk skips.
var DefaultBatchExclude = []string{"node_modules", "dist", ".git"}

// Server defaults.
const (
	DefaultServerHost         = "127.0.0.1"
	DefaultServerPort         = 8080
	DefaultServerReadTimeout  = "30s"
	DefaultServerWriteTimeout = "30s"
	DefaultServerIdleTimeout  = "60s"
	DefaultServerMaxBody      = "4MiB"
)

// Logging defaults.
const (
	DefaultLoggingLevel = "info"
	DefaultLoggingJSON  = false
)
