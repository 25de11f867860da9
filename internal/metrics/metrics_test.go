package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.StoreOp("memory", "put", errors.New("boom"))
		m.ObserveRepo("goal", "fetch", time.Now())
		m.CacheLookup("hit")
		m.CacheFetch("success")
		m.Mutation("error")
		m.Phase("rolled_back")
	})
}

func TestStoreOpCountsErrors(t *testing.T) {
	m := New(nil)

	m.StoreOp("sqlite", "put", nil)
	m.StoreOp("sqlite", "put", errors.New("disk full"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StoreOps.WithLabelValues("sqlite", "put")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("sqlite", "put")))
}

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.CacheLookup("hit")
	m.Mutation("success")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["ogsm_cache_lookups_total"])
	assert.True(t, names["ogsm_mutations_total"])
}
