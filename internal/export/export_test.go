package export

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/ogsm/internal/planner"
	"github.com/mesh-intelligence/ogsm/internal/query"
	"github.com/mesh-intelligence/ogsm/internal/repo"
	"github.com/mesh-intelligence/ogsm/internal/seed"
	"github.com/mesh-intelligence/ogsm/internal/store"
	"github.com/mesh-intelligence/ogsm/pkg/types"
)

func seededPlanner(t *testing.T) (*planner.Client, string) {
	t.Helper()
	repos := repo.NewSet(store.New(store.NewMemory()), repo.Options{})
	res, err := seed.Load(context.Background(), repos, seed.Sample())
	require.NoError(t, err)
	return planner.New(repos, query.NewClient(query.Options{}), planner.Options{}), res.PlanIDs[0]
}

func TestRenderFormats(t *testing.T) {
	doc := NewDocument(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), types.PlanDetail{
		Plan: types.Plan{Stamp: types.Stamp{ID: "p1"}, Name: "FY26", GoalIDs: []string{}, StrategyIDs: []string{}},
	})

	js, err := Render(doc, FormatJSON)
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, json.Unmarshal(js, &back))
	assert.EqualValues(t, 1, back["schemaVersion"])
	assert.Contains(t, string(js), `"goalIds": []`)

	ym, err := Render(doc, FormatYAML)
	require.NoError(t, err)
	var parsed struct {
		SchemaVersion int `yaml:"schemaVersion"`
		Plans         []struct {
			ID   string `yaml:"id"`
			Name string `yaml:"name"`
		} `yaml:"plans"`
	}
	require.NoError(t, yaml.Unmarshal(ym, &parsed))
	assert.Equal(t, 1, parsed.SchemaVersion)
	require.Len(t, parsed.Plans, 1)
	assert.Equal(t, "p1", parsed.Plans[0].ID)
	assert.Equal(t, "FY26", parsed.Plans[0].Name)

	_, err = Render(doc, "toml")
	assert.ErrorIs(t, err, ErrFormatUnknown)
}

func TestExportPlanToMemory(t *testing.T) {
	ctx := context.Background()
	p, planID := seededPlanner(t)
	sink := NewMemorySink()

	e, err := NewExporter(p, sink, FormatJSON)
	require.NoError(t, err)
	name, err := e.Plan(ctx, planID)
	require.NoError(t, err)
	assert.Equal(t, "plan-"+planID+".json", name)

	data, ok := sink.Get(name)
	require.True(t, ok)
	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Plans, 1)
	assert.Equal(t, "FY26 Growth Plan", doc.Plans[0].Name)
	assert.Len(t, doc.Plans[0].Goals, 2)

	_, err = e.Plan(ctx, "nope")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestExportAllToFilesystem(t *testing.T) {
	ctx := context.Background()
	p, _ := seededPlanner(t)
	dir := filepath.Join(t.TempDir(), "exports")
	sink, err := NewFSSink(dir)
	require.NoError(t, err)

	e, err := NewExporter(p, sink, FormatYAML)
	require.NoError(t, err)
	name, err := e.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ogsm-export.yaml", name)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Grow revenue")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestNewExporterRejectsFormat(t *testing.T) {
	_, err := NewExporter(nil, NewMemorySink(), "xml")
	assert.ErrorIs(t, err, ErrFormatUnknown)
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	p, planID := seededPlanner(t)

	diff, err := Verify(ctx, planID, p.PlanDetail, p.Export)
	require.NoError(t, err)
	assert.Empty(t, diff)

	tampered := func(ctx context.Context, id string) (*types.PlanDetail, error) {
		d, err := p.Export(ctx, id)
		if err != nil {
			return nil, err
		}
		d.Name = "Tampered"
		return d, nil
	}
	diff, err = Verify(ctx, planID, p.PlanDetail, tampered)
	assert.ErrorIs(t, err, ErrMismatch)
	assert.Contains(t, diff, "--- chained/"+planID)
	assert.Contains(t, diff, "+++ bulk/"+planID)
	assert.Contains(t, diff, `+  "name": "Tampered",`)
}

func TestOpenSink(t *testing.T) {
	ctx := context.Background()

	s, err := OpenSink(ctx, types.ExportConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, types.SinkFS, s.Name())

	_, err = OpenSink(ctx, types.ExportConfig{Sink: types.SinkS3})
	assert.ErrorIs(t, err, types.ErrBucketRequired)

	_, err = OpenSink(ctx, types.ExportConfig{Sink: "ftp"})
	assert.ErrorIs(t, err, types.ErrSinkUnknown)
}

// recordingTransport answers S3 PUTs and remembers them.
type recordingTransport struct {
	mu   sync.Mutex
	puts map[string][]byte
}

func (rt *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodPut {
		return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	}
	body, _ := io.ReadAll(req.Body)
	rt.mu.Lock()
	rt.puts[strings.TrimPrefix(req.URL.Path, "/")] = body
	rt.mu.Unlock()
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"ETag": {`"etag"`}}}, nil
}

func TestS3SinkPutsObject(t *testing.T) {
	ctx := context.Background()
	rt := &recordingTransport{puts: make(map[string][]byte)}
	sink, err := NewS3Sink(ctx, S3Config{
		Bucket:     "plans",
		Endpoint:   "http://mock.s3.local",
		HTTPClient: &http.Client{Transport: rt},
		ConfigOptions: []func(*config.LoadOptions) error{
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, types.SinkS3, sink.Name())

	p, planID := seededPlanner(t)
	e, err := NewExporter(p, sink, FormatJSON)
	require.NoError(t, err)
	name, err := e.Plan(ctx, planID)
	require.NoError(t, err)

	rt.mu.Lock()
	defer rt.mu.Unlock()
	body, ok := rt.puts["plans/"+name]
	require.True(t, ok, "path-style key under the bucket")
	assert.Contains(t, string(body), "FY26 Growth Plan")
}
