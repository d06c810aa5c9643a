package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/vueconv/pkg/convert"
	"github.com/Sumatoshi-tech/vueconv/pkg/observability"
	"github.com/Sumatoshi-tech/vueconv/pkg/refine"
	"github.com/Sumatoshi-tech/vueconv/pkg/textutil"
)

const (
	configName      = ".vueconv"
	configType      = "yaml"
	envPrefix       = "VUECONV"
	envKeySeparator = "_"
	maxPort         = 65535
)

// Sentinel validation errors.
var (
	ErrInvalidPort          = errors.New("server.port must be between 1 and 65535")
	ErrInvalidWorkers       = errors.New("batch.workers must be non-negative")
	ErrInvalidCacheSize     = errors.New("convert.cache_size must be non-negative")
	ErrInvalidSize          = errors.New("invalid size")
	ErrInvalidContext       = errors.New("convert.context must be an identifier")
	ErrInvalidLogLevel      = errors.New("invalid logging.level")
	ErrInvalidImportSource  = errors.New("convert.import_source must not be empty")
	ErrInvalidFormatTimeout = errors.New("convert.format_timeout must not be negative")
)

// Config is the top-level vueconv configuration.
type Config struct {
	Convert ConvertConfig `mapstructure:"convert"`
	Refine  RefineConfig  `mapstructure:"refine"`
	Batch   BatchConfig   `mapstructure:"batch"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ConvertConfig selects the output form.
type ConvertConfig struct {
	RewriteThis  bool   `mapstructure:"rewrite_this"`
	Strict       bool   `mapstructure:"strict"`
	Context      string `mapstructure:"context"`
	ImportSource string `mapstructure:"import_source"`
	ScriptSetup  bool   `mapstructure:"script_setup"`
	MaxFileSize  string `mapstructure:"max_file_size"`
	CacheSize    int    `mapstructure:"cache_size"`

	// FormatCommand, when set, receives converted code on stdin and prints
	// the formatted code, e.g. "prettier --stdin-filepath {file}".
	FormatCommand string        `mapstructure:"format_command"`
	FormatTimeout time.Duration `mapstructure:"format_timeout"`
}

// RefineConfig enables project rewrites. An empty Rules path selects the
// built-in table.
type RefineConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Rules   string `mapstructure:"rules"`
}

// BatchConfig controls directory conversion.
type BatchConfig struct {
	Workers    int      `mapstructure:"workers"`
	Extensions []string `mapstructure:"extensions"`
	Exclude    []string `mapstructure:"exclude"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBody      string        `mapstructure:"max_body"`
}

// Address returns host:port.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise .vueconv.yaml is searched in CWD and $HOME.
// A missing config file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("convert.rewrite_this", DefaultRewriteThis)
	viperCfg.SetDefault("convert.strict", DefaultStrict)
	viperCfg.SetDefault("convert.context", DefaultContext)
	viperCfg.SetDefault("convert.import_source", DefaultImportSource)
	viperCfg.SetDefault("convert.script_setup", DefaultScriptSetup)
	viperCfg.SetDefault("convert.max_file_size", DefaultMaxFileSize)
	viperCfg.SetDefault("convert.cache_size", DefaultCacheSize)
	viperCfg.SetDefault("convert.format_command", DefaultFormatCommand)
	viperCfg.SetDefault("convert.format_timeout", DefaultFormatTimeout)

	viperCfg.SetDefault("refine.enabled", DefaultRefineEnabled)
	viperCfg.SetDefault("refine.rules", DefaultRefineRules)

	viperCfg.SetDefault("batch.workers", DefaultBatchWorkers)
	viperCfg.SetDefault("batch.extensions", DefaultBatchExtensions)
	viperCfg.SetDefault("batch.exclude", DefaultBatchExclude)

	viperCfg.SetDefault("server.host", DefaultServerHost)
	viperCfg.SetDefault("server.port", DefaultServerPort)
	viperCfg.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	viperCfg.SetDefault("server.write_timeout", DefaultServerWriteTimeout)
	viperCfg.SetDefault("server.idle_timeout", DefaultServerIdleTimeout)
	viperCfg.SetDefault("server.max_body", DefaultServerMaxBody)

	viperCfg.SetDefault("logging.level", DefaultLoggingLevel)
	viperCfg.SetDefault("logging.json", DefaultLoggingJSON)
}

// Validate checks value ranges and formats.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	if c.Batch.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Batch.Workers)
	}

	if c.Convert.CacheSize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheSize, c.Convert.CacheSize)
	}

	if !textutil.IsIdentifier(c.Convert.Context) {
		return fmt.Errorf("%w: %q", ErrInvalidContext, c.Convert.Context)
	}

	if strings.TrimSpace(c.Convert.ImportSource) == "" {
		return ErrInvalidImportSource
	}

	if c.Convert.FormatTimeout < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidFormatTimeout, c.Convert.FormatTimeout)
	}

	if _, err := ParseSize(c.Convert.MaxFileSize); err != nil {
		return fmt.Errorf("convert.max_file_size: %w", err)
	}

	if _, err := ParseSize(c.Server.MaxBody); err != nil {
		return fmt.Errorf("server.max_body: %w", err)
	}

	if _, err := observability.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLogLevel, err)
	}

	return nil
}

// ParseSize parses a human-readable size such as "1MiB" or "512kB".
// An empty string means no limit.
func ParseSize(raw string) (int64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, raw)
	}

	return int64(size), nil //nolint:gosec // sizes beyond MaxInt64 are not meaningful
}

// ConvertOptions builds converter options, loading the rule file when
// refinement is enabled.
func (c *Config) ConvertOptions() (convert.Options, error) {
	maxSize, err := ParseSize(c.Convert.MaxFileSize)
	if err != nil {
		return convert.Options{}, err
	}

	opts := convert.Options{
		RewriteThis:  c.Convert.RewriteThis,
		Strict:       c.Convert.Strict,
		Context:      c.Convert.Context,
		ImportSource: c.Convert.ImportSource,
		ScriptSetup:  c.Convert.ScriptSetup,
		Refine:       c.Refine.Enabled,
		MaxFileSize:  maxSize,

		FormatCommand: c.Convert.FormatCommand,
		FormatTimeout: c.Convert.FormatTimeout,
	}

	if c.Refine.Enabled && c.Refine.Rules != "" {
		rules, loadErr := refine.LoadRulesFile(c.Refine.Rules)
		if loadErr != nil {
			return convert.Options{}, fmt.Errorf("refine.rules: %w", loadErr)
		}

		opts.Rules = rules
	}

	return opts, nil
}

// ObservabilityConfig merges the logging settings into cfg.
func (c *Config) ObservabilityConfig(cfg observability.Config) observability.Config {
	if level, err := observability.ParseLevel(c.Logging.Level); err == nil {
		cfg.LogLevel = level
	}

	cfg.LogJSON = c.Logging.JSON

	return cfg
}
