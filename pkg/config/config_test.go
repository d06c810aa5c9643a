package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/vueconv/pkg/config"
	"github.com/Sumatoshi-tech/vueconv/pkg/observability"
	"github.com/Sumatoshi-tech/vueconv/pkg/refine"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".vueconv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultRewriteThis, cfg.Convert.RewriteThis)
	assert.Equal(t, config.DefaultContext, cfg.Convert.Context)
	assert.Equal(t, config.DefaultImportSource, cfg.Convert.ImportSource)
	assert.Equal(t, config.DefaultCacheSize, cfg.Convert.CacheSize)
	assert.Equal(t, config.DefaultBatchExtensions, cfg.Batch.Extensions)
	assert.Equal(t, config.DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Address())
	assert.False(t, cfg.Refine.Enabled)
	assert.Empty(t, cfg.Convert.FormatCommand)
	assert.Equal(t, 10*time.Second, cfg.Convert.FormatTimeout)
}

func TestLoadConfig_FromFile(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, `
convert:
  context: context
  import_source: vue
  script_setup: true
  max_file_size: 512kB
  format_command: prettier --stdin-filepath {file}
  format_timeout: 5s
batch:
  workers: 3
server:
  port: 9000
logging:
  level: debug
  json: true
`))
	require.NoError(t, err)

	assert.Equal(t, "context", cfg.Convert.Context)
	assert.True(t, cfg.Convert.ScriptSetup)
	assert.Equal(t, 3, cfg.Batch.Workers)
	assert.Equal(t, 9000, cfg.Server.Port)

	opts, err := cfg.ConvertOptions()
	require.NoError(t, err)
	assert.Equal(t, int64(512000), opts.MaxFileSize)
	assert.Equal(t, "vue", opts.ImportSource)
	assert.True(t, opts.ScriptSetup)
	assert.Equal(t, "prettier --stdin-filepath {file}", opts.FormatCommand)
	assert.Equal(t, 5*time.Second, opts.FormatTimeout)

	obs := cfg.ObservabilityConfig(observability.DefaultConfig())
	assert.Equal(t, slog.LevelDebug, obs.LogLevel)
	assert.True(t, obs.LogJSON)
}

//nolint:paralleltest // t.Setenv is incompatible with t.Parallel.
func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("VUECONV_CONVERT_CONTEXT", "setupContext")
	t.Setenv("VUECONV_SERVER_PORT", "9100")

	cfg, err := config.LoadConfig(writeConfig(t, "convert:\n  context: ctx\n"))
	require.NoError(t, err)

	assert.Equal(t, "setupContext", cfg.Convert.Context)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{name: "port", content: "server:\n  port: 70000\n", want: config.ErrInvalidPort},
		{name: "workers", content: "batch:\n  workers: -1\n", want: config.ErrInvalidWorkers},
		{name: "cache", content: "convert:\n  cache_size: -5\n", want: config.ErrInvalidCacheSize},
		{name: "context", content: "convert:\n  context: \"my ctx\"\n", want: config.ErrInvalidContext},
		{name: "size", content: "convert:\n  max_file_size: lots\n", want: config.ErrInvalidSize},
		{name: "level", content: "logging:\n  level: loud\n", want: config.ErrInvalidLogLevel},
		{name: "format timeout", content: "convert:\n  format_timeout: -1s\n", want: config.ErrInvalidFormatTimeout},
		{name: "import source", content: "convert:\n  import_source: \" \"\n", want: config.ErrInvalidImportSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestConvertOptions_RulesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte("rules:\n  - name: store\n    pattern: 'x'\n"), 0o600))

	cfg, err := config.LoadConfig(writeConfig(t, "refine:\n  enabled: true\n  rules: "+rulesPath+"\n"))
	require.NoError(t, err)

	opts, err := cfg.ConvertOptions()
	require.NoError(t, err)
	require.NotNil(t, opts.Rules)
	assert.Equal(t, []string{"store"}, opts.Rules.Names())

	require.NoError(t, os.WriteFile(rulesPath, []byte("rules:\n  - name: broken\n"), 0o600))

	_, err = cfg.ConvertOptions()
	require.ErrorIs(t, err, refine.ErrInvalidRules)
}

func TestParseSize(t *testing.T) {
	t.Parallel()

	size, err := config.ParseSize("1MiB")
	require.NoError(t, err)
	assert.Equal(t, int64(1<<20), size)

	size, err = config.ParseSize("")
	require.NoError(t, err)
	assert.Zero(t, size)

	_, err = config.ParseSize("many")
	require.ErrorIs(t, err, config.ErrInvalidSize)
}
