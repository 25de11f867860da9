package types

import (
	"errors"
	"time"
)

// Store drivers accepted by StoreConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

// Export sinks accepted by ExportConfig.Sink.
const (
	SinkFS = "fs"
	SinkS3 = "s3"
)

// DefaultLatency is the simulated round-trip applied to every repository call.
const DefaultLatency = 300 * time.Millisecond

// Config validation errors.
var (
	ErrDriverEmpty    = errors.New("store driver must not be empty")
	ErrDriverUnknown  = errors.New("unknown store driver")
	ErrDSNRequired    = errors.New("postgres driver requires a DSN")
	ErrLatencyInvalid = errors.New("latency must not be negative")
	ErrQuotaInvalid   = errors.New("quota must not be negative")
	ErrSinkUnknown    = errors.New("unknown export sink")
	ErrBucketRequired = errors.New("s3 export sink requires a bucket")
)

// StoreConfig selects and parameterizes the durable store.
type StoreConfig struct {
	Driver     string `json:"driver" yaml:"driver" mapstructure:"driver"`
	DataDir    string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	DSN        string `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"`
	QuotaBytes int    `json:"quota_bytes,omitempty" yaml:"quota_bytes,omitempty" mapstructure:"quota_bytes"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level string `json:"level" yaml:"level" mapstructure:"level"`
	JSON  bool   `json:"json" yaml:"json" mapstructure:"json"`
}

// ExportConfig configures where exported plan documents are written.
type ExportConfig struct {
	Sink     string `json:"sink" yaml:"sink" mapstructure:"sink"`
	Dir      string `json:"dir,omitempty" yaml:"dir,omitempty" mapstructure:"dir"`
	Bucket   string `json:"bucket,omitempty" yaml:"bucket,omitempty" mapstructure:"bucket"`
	Region   string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	Format   string `json:"format,omitempty" yaml:"format,omitempty" mapstructure:"format"`
}

// Config holds everything needed to open the data layer.
type Config struct {
	Store   StoreConfig   `json:"store" yaml:"store" mapstructure:"store"`
	Latency time.Duration `json:"latency" yaml:"latency" mapstructure:"latency"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
	Export  ExportConfig  `json:"export" yaml:"export" mapstructure:"export"`
}

var knownDrivers = map[string]bool{
	DriverMemory:   true,
	DriverFile:     true,
	DriverSQLite:   true,
	DriverBolt:     true,
	DriverPostgres: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Store.Driver == "" {
		return ErrDriverEmpty
	}
	if !knownDrivers[c.Store.Driver] {
		return ErrDriverUnknown
	}
	if c.Store.Driver == DriverPostgres && c.Store.DSN == "" {
		return ErrDSNRequired
	}
	if c.Store.QuotaBytes < 0 {
		return ErrQuotaInvalid
	}
	if c.Latency < 0 {
		return ErrLatencyInvalid
	}
	switch c.Export.Sink {
	case "", SinkFS:
	case SinkS3:
		if c.Export.Bucket == "" {
			return ErrBucketRequired
		}
	default:
		return ErrSinkUnknown
	}
	return nil
}
