package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/typetrail/pkg/config"
	"github.com/Sumatoshi-tech/typetrail/pkg/observability"
	"github.com/Sumatoshi-tech/typetrail/pkg/view"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "typetrail.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"out*.out"}, cfg.Dump.Paths)
	assert.Zero(t, cfg.Dump.ReloadInterval)
	assert.Equal(t, "Declarations", cfg.View.Type)
	assert.False(t, cfg.View.IgnoreLargeCommits)
	assert.Equal(t, view.DefaultLargeCommitThreshold, cfg.View.LargeCommitThreshold)
	assert.Equal(t, ".java", cfg.View.SourceSuffix)
	assert.Equal(t, 256, cfg.View.CacheSize)
	assert.True(t, cfg.Snapshot.Compress)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Telemetry.Prometheus)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
server:
  port: 9000
  host: "0.0.0.0"

dump:
  paths: ["dumps/", "extra/*.out.lz4"]
  max_size: "64MB"
  reload_interval: "5m"
  s3:
    endpoint: "minio:9000"
    bucket: "history"
    prefix: "nightly/"
    use_ssl: false

view:
  type: "Types"
  ignore_large_commits: true
  large_commit_threshold: 20
  language: "Java"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr())
	assert.Equal(t, []string{"dumps/", "extra/*.out.lz4"}, cfg.Dump.Paths)
	assert.Equal(t, uint64(64_000_000), cfg.MaxDumpSize())
	assert.Equal(t, 5*time.Minute, cfg.Dump.ReloadInterval)

	s3 := cfg.S3()
	assert.True(t, s3.Enabled())
	assert.Equal(t, "minio:9000", s3.Endpoint)
	assert.Equal(t, "nightly/", s3.Prefix)
	assert.Equal(t, "us-east-1", s3.Region)
	assert.False(t, s3.UseSSL)

	viewCfg := cfg.ViewConfig()
	assert.Equal(t, view.ModeTypes, viewCfg.Mode)
	assert.True(t, viewCfg.IgnoreLargeCommits)
	assert.Equal(t, 20, viewCfg.LargeCommitThreshold)
	assert.Equal(t, "language:Java", view.FilterKey(viewCfg.Sources))
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("TYPETRAIL_SERVER_PORT", "7070")
	t.Setenv("TYPETRAIL_VIEW_TYPE", "Invocations")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, view.ModeInvocations, cfg.ViewConfig().Mode)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfigValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "port", content: "server:\n  port: 70000\n", wantErr: config.ErrInvalidPort},
		{name: "threshold", content: "view:\n  large_commit_threshold: 0\n", wantErr: config.ErrInvalidThreshold},
		{name: "cache", content: "view:\n  cache_size: -1\n", wantErr: config.ErrInvalidCacheSize},
		{name: "log_format", content: "logging:\n  format: xml\n", wantErr: config.ErrInvalidLogFormat},
		{name: "sample_ratio", content: "telemetry:\n  sample_ratio: 2\n", wantErr: config.ErrInvalidSampleRatio},
		{name: "reload", content: "dump:\n  reload_interval: -1s\n", wantErr: config.ErrInvalidReload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestLoadConfigInvalidSizeAndLevel(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "dump:\n  max_size: plenty\n"))
	require.Error(t, err)

	_, err = config.LoadConfig(writeConfig(t, "logging:\n  level: chatty\n"))
	require.Error(t, err)
}

func TestViewConfigModeIsExact(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, "view:\n  type: declarations\n"))
	require.NoError(t, err)

	assert.False(t, cfg.ViewConfig().Mode.Known())
}

func TestConfigObservability(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, `
logging:
  level: warn
  format: json
telemetry:
  otlp_endpoint: "collector:4317"
  otlp_headers: "api-key=secret"
  sample_ratio: 0.5
`))
	require.NoError(t, err)

	serve := cfg.Observability(observability.ModeServe, "1.2.3")
	assert.Equal(t, "1.2.3", serve.ServiceVersion)
	assert.Equal(t, observability.ModeServe, serve.Mode)
	assert.Equal(t, "collector:4317", serve.OTLPEndpoint)
	assert.Equal(t, map[string]string{"api-key": "secret"}, serve.OTLPHeaders)
	assert.InDelta(t, 0.5, serve.SampleRatio, 1e-9)
	assert.Equal(t, slog.LevelWarn, serve.LogLevel)
	assert.True(t, serve.LogJSON)
	assert.True(t, serve.Prometheus)

	cli := cfg.Observability(observability.ModeCLI, "1.2.3")
	assert.False(t, cli.Prometheus, "prometheus is only exposed by the server")
}
