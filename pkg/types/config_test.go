package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty driver returns ErrDriverEmpty",
			config:  Config{Store: StoreConfig{Driver: "", DataDir: "/tmp/data"}},
			wantErr: ErrDriverEmpty,
		},
		{
			name:    "unknown driver returns ErrDriverUnknown",
			config:  Config{Store: StoreConfig{Driver: "localstorage"}},
			wantErr: ErrDriverUnknown,
		},
		{
			name:   "valid sqlite config",
			config: Config{Store: StoreConfig{Driver: DriverSQLite, DataDir: "/tmp/data"}},
		},
		{
			name:   "memory with empty DataDir is valid",
			config: Config{Store: StoreConfig{Driver: DriverMemory}},
		},
		{
			name:    "postgres without DSN",
			config:  Config{Store: StoreConfig{Driver: DriverPostgres}},
			wantErr: ErrDSNRequired,
		},
		{
			name:   "postgres with DSN",
			config: Config{Store: StoreConfig{Driver: DriverPostgres, DSN: "postgres://localhost/ogsm"}},
		},
		{
			name:    "negative latency",
			config:  Config{Store: StoreConfig{Driver: DriverMemory}, Latency: -1},
			wantErr: ErrLatencyInvalid,
		},
		{
			name:    "negative quota",
			config:  Config{Store: StoreConfig{Driver: DriverMemory, QuotaBytes: -5}},
			wantErr: ErrQuotaInvalid,
		},
		{
			name:    "s3 sink without bucket",
			config:  Config{Store: StoreConfig{Driver: DriverMemory}, Export: ExportConfig{Sink: SinkS3}},
			wantErr: ErrBucketRequired,
		},
		{
			name:    "unknown sink",
			config:  Config{Store: StoreConfig{Driver: DriverMemory}, Export: ExportConfig{Sink: "ftp"}},
			wantErr: ErrSinkUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
