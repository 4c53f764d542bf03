// Package config loads typetrail configuration from a YAML file, a .env file
// and TYPETRAIL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/typetrail/pkg/dump"
	"github.com/Sumatoshi-tech/typetrail/pkg/observability"
	"github.com/Sumatoshi-tech/typetrail/pkg/view"
)

// Sentinel validation errors.
var (
	ErrInvalidPort        = errors.New("invalid server port")
	ErrInvalidThreshold   = errors.New("large commit threshold must be positive")
	ErrInvalidCacheSize   = errors.New("view cache size must be positive")
	ErrInvalidLogFormat   = errors.New("log format must be text or json")
	ErrInvalidSampleRatio = errors.New("trace sample ratio must be within [0, 1]")
	ErrInvalidReload      = errors.New("dump reload interval must not be negative")
)

// Default configuration values.
const (
	defaultPort          = 5000
	defaultHost          = "127.0.0.1"
	defaultViewType      = string(view.ModeDeclarations)
	defaultCacheSize     = 256
	defaultSnapshotDir   = ".typetrail"
	defaultDumpPattern   = "out*.out"
	defaultS3Region      = "us-east-1"
	envPrefix            = "TYPETRAIL"
	logFormatText        = "text"
	logFormatJSON        = "json"
	maxPort              = 65535
	maxSampleRatio       = 1.0
	defaultShutdownDelay = 10 * time.Second
)

// Config holds all typetrail configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Dump      DumpConfig      `mapstructure:"dump"`
	View      ViewConfig      `mapstructure:"view"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Port            int           `mapstructure:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DumpConfig locates the dump files to parse.
type DumpConfig struct {
	// Paths are glob patterns or directories of *.out / *.out.lz4 files.
	Paths []string `mapstructure:"paths"`
	// MaxSize is a human-readable per-file limit such as "512MB"; empty disables it.
	MaxSize string `mapstructure:"max_size"`
	// ReloadInterval re-parses the dumps periodically in server mode; zero disables it.
	ReloadInterval time.Duration `mapstructure:"reload_interval"`
	S3             S3Config      `mapstructure:"s3"`
}

// S3Config selects dumps stored in an S3-compatible bucket.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// ViewConfig holds aggregation defaults.
type ViewConfig struct {
	Type                 string `mapstructure:"type"`
	SourceSuffix         string `mapstructure:"source_suffix"`
	Language             string `mapstructure:"language"`
	LargeCommitThreshold int    `mapstructure:"large_commit_threshold"`
	CacheSize            int    `mapstructure:"cache_size"`
	IgnoreLargeCommits   bool   `mapstructure:"ignore_large_commits"`
}

// SnapshotConfig holds persisted-forest configuration.
type SnapshotConfig struct {
	Directory string `mapstructure:"directory"`
	Compress  bool   `mapstructure:"compress"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry configuration.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	Prometheus   bool    `mapstructure:"prometheus"`
}

// LoadConfig loads configuration from file and environment variables. An
// empty configPath searches ./typetrail.yaml, ./config/ and /etc/typetrail.
// A .env file in the working directory is applied to the environment first.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("typetrail")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/typetrail")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("server.port", defaultPort)
	viperCfg.SetDefault("server.host", defaultHost)
	viperCfg.SetDefault("server.read_timeout", "30s")
	viperCfg.SetDefault("server.write_timeout", "30s")
	viperCfg.SetDefault("server.idle_timeout", "60s")
	viperCfg.SetDefault("server.shutdown_timeout", defaultShutdownDelay)

	viperCfg.SetDefault("dump.paths", []string{defaultDumpPattern})
	viperCfg.SetDefault("dump.max_size", "")
	viperCfg.SetDefault("dump.reload_interval", "0s")
	viperCfg.SetDefault("dump.s3.region", defaultS3Region)
	viperCfg.SetDefault("dump.s3.use_ssl", true)
	viperCfg.SetDefault("dump.s3.bucket", "")
	viperCfg.SetDefault("dump.s3.endpoint", "")
	viperCfg.SetDefault("dump.s3.prefix", "")
	viperCfg.SetDefault("dump.s3.access_key_id", "")
	viperCfg.SetDefault("dump.s3.secret_access_key", "")

	viperCfg.SetDefault("view.type", defaultViewType)
	viperCfg.SetDefault("view.ignore_large_commits", false)
	viperCfg.SetDefault("view.large_commit_threshold", view.DefaultLargeCommitThreshold)
	viperCfg.SetDefault("view.source_suffix", view.DefaultSourceSuffix)
	viperCfg.SetDefault("view.language", "")
	viperCfg.SetDefault("view.cache_size", defaultCacheSize)

	viperCfg.SetDefault("snapshot.directory", defaultSnapshotDir)
	viperCfg.SetDefault("snapshot.compress", true)

	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", logFormatText)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.sample_ratio", 0.0)
	viperCfg.SetDefault("telemetry.prometheus", true)
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, config.Server.Port)
	}

	if config.View.LargeCommitThreshold <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, config.View.LargeCommitThreshold)
	}

	if config.View.CacheSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheSize, config.View.CacheSize)
	}

	if config.Dump.ReloadInterval < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidReload, config.Dump.ReloadInterval)
	}

	if config.Telemetry.SampleRatio < 0 || config.Telemetry.SampleRatio > maxSampleRatio {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, config.Telemetry.SampleRatio)
	}

	switch strings.ToLower(config.Logging.Format) {
	case logFormatText, logFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	_, levelErr := observability.ParseLogLevel(config.Logging.Level)
	if levelErr != nil {
		return levelErr
	}

	_, sizeErr := dump.ParseMaxSize(config.Dump.MaxSize)
	if sizeErr != nil {
		return sizeErr
	}

	return nil
}

// ViewConfig returns the aggregation settings for the configured defaults.
func (c *Config) ViewConfig() view.Config {
	return view.Config{
		Mode:                 view.ParseMode(c.View.Type),
		IgnoreLargeCommits:   c.View.IgnoreLargeCommits,
		LargeCommitThreshold: c.View.LargeCommitThreshold,
		Sources:              view.NewSourceFilter(c.View.SourceSuffix, c.View.Language),
	}
}

// MaxDumpSize returns Dump.MaxSize in bytes. LoadConfig has validated it.
func (c *Config) MaxDumpSize() uint64 {
	size, err := dump.ParseMaxSize(c.Dump.MaxSize)
	if err != nil {
		return 0
	}

	return size
}

// S3 returns the dump S3 settings.
func (c *Config) S3() dump.S3Config {
	return dump.S3Config{
		Endpoint:  c.Dump.S3.Endpoint,
		Region:    c.Dump.S3.Region,
		AccessKey: c.Dump.S3.AccessKeyID,
		SecretKey: c.Dump.S3.SecretAccessKey,
		Bucket:    c.Dump.S3.Bucket,
		Prefix:    c.Dump.S3.Prefix,
		UseSSL:    c.Dump.S3.UseSSL,
	}
}

// Observability builds the telemetry settings for mode.
func (c *Config) Observability(mode observability.AppMode, version string) observability.Config {
	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version
	cfg.Mode = mode
	cfg.Environment = c.Telemetry.Environment
	cfg.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	cfg.OTLPInsecure = c.Telemetry.OTLPInsecure
	cfg.SampleRatio = c.Telemetry.SampleRatio
	cfg.Prometheus = c.Telemetry.Prometheus && mode == observability.ModeServe
	cfg.LogJSON = strings.EqualFold(c.Logging.Format, logFormatJSON)

	if level, err := observability.ParseLogLevel(c.Logging.Level); err == nil {
		cfg.LogLevel = level
	}

	return cfg
}
