package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/ogsm/pkg/types"
)

// envPostgresDSN enables the postgres round-trip when set.
const envPostgresDSN = "OGSM_TEST_POSTGRES_DSN"

func driverConfigs(t *testing.T) []types.StoreConfig {
	t.Helper()
	cfgs := []types.StoreConfig{
		{Driver: types.DriverMemory},
		{Driver: types.DriverFile, DataDir: t.TempDir()},
		{Driver: types.DriverSQLite, DataDir: t.TempDir()},
		{Driver: types.DriverBolt, DataDir: t.TempDir()},
	}
	if dsn := os.Getenv(envPostgresDSN); dsn != "" {
		cfgs = append(cfgs, types.StoreConfig{Driver: types.DriverPostgres, DSN: dsn})
	}
	return cfgs
}

func TestDriversRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, cfg := range driverConfigs(t) {
		t.Run(cfg.Driver, func(t *testing.T) {
			b, err := OpenBackend(ctx, cfg)
			require.NoError(t, err)
			defer b.Close()
			assert.Equal(t, cfg.Driver, b.Name())

			key := "ogsm.test.v1"
			t.Cleanup(func() { _ = b.Remove(ctx, key) })

			_, ok, err := b.Get(ctx, key)
			require.NoError(t, err)
			assert.False(t, ok, "missing key")

			require.NoError(t, b.Put(ctx, key, []byte(`[{"id":"a"}]`)))
			require.NoError(t, b.Put(ctx, key, []byte(`[{"id":"b"}]`)))

			data, ok, err := b.Get(ctx, key)
			require.NoError(t, err)
			require.True(t, ok)
			assert.JSONEq(t, `[{"id":"b"}]`, string(data))

			require.NoError(t, b.Remove(ctx, key))
			_, ok, err = b.Get(ctx, key)
			require.NoError(t, err)
			assert.False(t, ok)

			assert.NoError(t, b.Remove(ctx, key), "removing a missing key is not an error")
		})
	}
}

func TestDriversKeepEscapedNUL(t *testing.T) {
	ctx := context.Background()
	want := []item{{ID: "nul\x00inside", Score: 1}}
	for _, cfg := range driverConfigs(t) {
		t.Run(cfg.Driver, func(t *testing.T) {
			d, err := Open(ctx, cfg)
			require.NoError(t, err)
			t.Cleanup(func() { _ = d.Close() })
			t.Cleanup(func() { _ = d.Clear(ctx) })

			require.NoError(t, Write(ctx, d, goalsKey, want))
			got, err := Read[item](ctx, d, goalsKey)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestDurableSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	for _, driver := range []string{types.DriverFile, types.DriverSQLite, types.DriverBolt} {
		t.Run(driver, func(t *testing.T) {
			cfg := types.StoreConfig{Driver: driver, DataDir: t.TempDir()}

			d, err := Open(ctx, cfg)
			require.NoError(t, err)
			require.NoError(t, Write(ctx, d, goalsKey, []item{{ID: "g1", Score: 3}}))
			require.NoError(t, d.Close())

			d, err = Open(ctx, cfg)
			require.NoError(t, err)
			defer d.Close()
			got, err := Read[item](ctx, d, goalsKey)
			require.NoError(t, err)
			assert.Equal(t, []item{{ID: "g1", Score: 3}}, got)
		})
	}
}

func TestFileWriteLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)

	require.NoError(t, f.Put(ctx, goalsKey, []byte("[]")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, goalsKey+".json", entries[0].Name())
	_, err = os.Stat(filepath.Join(dir, goalsKey+".json"))
	assert.NoError(t, err)
}

func TestOpenBackendRejectsBadDriver(t *testing.T) {
	ctx := context.Background()

	_, err := OpenBackend(ctx, types.StoreConfig{})
	assert.ErrorIs(t, err, types.ErrDriverEmpty)

	_, err = OpenBackend(ctx, types.StoreConfig{Driver: "redis"})
	assert.ErrorIs(t, err, types.ErrDriverUnknown)
}

func TestOpenAppliesQuota(t *testing.T) {
	d, err := Open(context.Background(), types.StoreConfig{Driver: types.DriverMemory, QuotaBytes: 4})
	require.NoError(t, err)

	err = Write(context.Background(), d, goalsKey, []item{{ID: "too big"}})
	assert.ErrorIs(t, err, types.ErrQuotaExceeded)
}
