package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	zerrors "github.com/zzenonn/zingest/internal/errors"
)

const envPrefix = "ZINGEST"

// ShardingConfig controls partition provisioning of the GridFS collections
type ShardingConfig struct {
	Enabled         bool
	PresplitEnabled bool
	FilesChunks     int
	ChunksChunks    int
}

// Config holds the application configuration
type Config struct {
	LogLevel  string
	LogFormat string

	// MongoURI may be an ssm:// parameter reference, resolved at connect time.
	MongoURI string
	Files    []string

	InfiniteMode      bool
	Threads           int
	Database          string
	Bucket            string
	ChunkSizeBytes    int32
	BufferSizeBytes   int
	StatusInterval    time.Duration
	MaxBytesPerSecond int64 // 0 means unbounded
	MetadataType      string
	Sharding          ShardingConfig

	ProgressBar    bool
	MetricsAddress string
	ManifestTable  string
}

// flagKeys maps command-line flag names onto configuration keys.
var flagKeys = map[string]string{
	"log-level":              "log_level",
	"log-format":             "log_format",
	"infinite":               "infinite_mode",
	"threads":                "threads",
	"database":               "database",
	"bucket":                 "bucket",
	"chunk-size-bytes":       "chunk_size_bytes",
	"buffer-size-bytes":      "buffer_size_bytes",
	"status-interval-ms":     "status_interval_ms",
	"max-bytes-per-second":   "max_bytes_per_second",
	"metadata-type":          "metadata_type",
	"sharding":               "sharding.enabled",
	"presplit":               "sharding.presplit.enabled",
	"presplit-files-chunks":  "sharding.presplit.files_chunks",
	"presplit-chunks-chunks": "sharding.presplit.chunks_chunks",
	"progress-bar":           "progress_bar",
	"metrics-address":        "metrics_address",
	"manifest-table":         "manifest_table",
}

// RegisterFlags adds every configuration flag to flags. Flag defaults are
// zero values; real defaults live in setDefaults so that unset flags do not
// shadow the config file or environment.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.String("log-format", "", "Log format (text, json)")
	flags.Bool("infinite", false, "Repeat passes over the file list until interrupted")
	flags.Int("threads", 0, "Number of concurrent uploads")
	flags.String("database", "", "Target database")
	flags.String("bucket", "", "Target GridFS bucket")
	flags.Int32("chunk-size-bytes", 0, "GridFS chunk size in bytes")
	flags.Int("buffer-size-bytes", 0, "Read buffer placed over each source")
	flags.Int64("status-interval-ms", 0, "Status report interval in milliseconds")
	flags.Int64("max-bytes-per-second", 0, "Aggregate read cap in bytes per second (0 = unbounded)")
	flags.String("metadata-type", "", "Value of the metadata type tag on stored files")
	flags.Bool("sharding", false, "Enable sharding for the GridFS collections")
	flags.Bool("presplit", false, "Pre-split the sharded GridFS collections")
	flags.Int("presplit-files-chunks", 0, "Number of ranges for the files collection")
	flags.Int("presplit-chunks-chunks", 0, "Number of ranges for the chunks collection")
	flags.Bool("progress-bar", false, "Show a byte progress bar per pass")
	flags.String("metrics-address", "", "Serve Prometheus metrics on this address")
	flags.String("manifest-table", "", "DynamoDB table receiving one record per finished transfer")
}

// LoadConfig loads configuration from config.yaml, environment variables, or CLI flags
// Priority: CLI flags > Environment variables > config.yaml > defaults
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v, err := setupViper(configPath, flags)
	if err != nil {
		return nil, err
	}

	return &Config{
		LogLevel:          v.GetString("log_level"),
		LogFormat:         v.GetString("log_format"),
		InfiniteMode:      v.GetBool("infinite_mode"),
		Threads:           v.GetInt("threads"),
		Database:          v.GetString("database"),
		Bucket:            v.GetString("bucket"),
		ChunkSizeBytes:    v.GetInt32("chunk_size_bytes"),
		BufferSizeBytes:   v.GetInt("buffer_size_bytes"),
		StatusInterval:    time.Duration(v.GetInt64("status_interval_ms")) * time.Millisecond,
		MaxBytesPerSecond: v.GetInt64("max_bytes_per_second"),
		MetadataType:      v.GetString("metadata_type"),
		Sharding: ShardingConfig{
			Enabled:         v.GetBool("sharding.enabled"),
			PresplitEnabled: v.GetBool("sharding.presplit.enabled"),
			FilesChunks:     v.GetInt("sharding.presplit.files_chunks"),
			ChunksChunks:    v.GetInt("sharding.presplit.chunks_chunks"),
		},
		ProgressBar:    v.GetBool("progress_bar"),
		MetricsAddress: v.GetString("metrics_address"),
		ManifestTable:  v.GetString("manifest_table"),
	}, nil
}

// SetArgs applies the positional arguments: the connection URI followed by
// the input files.
func (c *Config) SetArgs(args []string) {
	if len(args) > 0 {
		c.MongoURI = args[0]
		c.Files = append([]string(nil), args[1:]...)
	}
}

// Validate checks the settings an ingest run depends on.
func (c *Config) Validate() error {
	if c.MongoURI == "" || len(c.Files) == 0 {
		return fmt.Errorf("%w: a connection URI and at least one file are required", zerrors.ErrMissingRequiredFields)
	}
	return c.ValidateSettings()
}

// ValidateSettings checks every setting except the positional arguments.
func (c *Config) ValidateSettings() error {
	switch {
	case c.Threads < 1:
		return zerrors.InvalidSettingError("threads", c.Threads)
	case c.ChunkSizeBytes < 1:
		return zerrors.InvalidSettingError("chunk_size_bytes", c.ChunkSizeBytes)
	case c.StatusInterval < time.Millisecond:
		return zerrors.InvalidSettingError("status_interval_ms", c.StatusInterval.Milliseconds())
	case c.MaxBytesPerSecond < 0:
		return zerrors.InvalidSettingError("max_bytes_per_second", c.MaxBytesPerSecond)
	case c.Database == "":
		return zerrors.ConfigNotSetError("database")
	case c.Bucket == "":
		return zerrors.ConfigNotSetError("bucket")
	}

	if c.Sharding.PresplitEnabled {
		if c.Sharding.FilesChunks < 1 || c.Sharding.FilesChunks > maxPresplitChunks {
			return zerrors.InvalidSettingError("sharding.presplit.files_chunks", c.Sharding.FilesChunks)
		}
		if c.Sharding.ChunksChunks < 1 || c.Sharding.ChunksChunks > maxPresplitChunks {
			return zerrors.InvalidSettingError("sharding.presplit.chunks_chunks", c.Sharding.ChunksChunks)
		}
	}
	return nil
}

// maxPresplitChunks keeps boundaries distinct within the 32-bit prefix space.
const maxPresplitChunks = 1 << 16

// setupViper configures Viper with defaults, paths, and bindings
func setupViper(configPath string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return v, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("infinite_mode", false)
	v.SetDefault("threads", 8)
	v.SetDefault("database", "gridfs")
	v.SetDefault("bucket", "bucket")
	v.SetDefault("chunk_size_bytes", 358400)
	v.SetDefault("buffer_size_bytes", 1<<16)
	v.SetDefault("status_interval_ms", 10000)
	v.SetDefault("max_bytes_per_second", 0)
	v.SetDefault("metadata_type", "iso")
	v.SetDefault("sharding.enabled", false)
	v.SetDefault("sharding.presplit.enabled", false)
	v.SetDefault("sharding.presplit.files_chunks", 32)
	v.SetDefault("sharding.presplit.chunks_chunks", 32)
	v.SetDefault("progress_bar", false)
	v.SetDefault("metrics_address", "")
	v.SetDefault("manifest_table", "")
}
