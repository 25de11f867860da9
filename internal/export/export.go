package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/ogsm/internal/logging"
	"github.com/mesh-intelligence/ogsm/pkg/types"
)

var (
	// ErrPlanNotFound is returned when the exported plan does not exist.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrMismatch is returned by Verify when the two read paths disagree.
	ErrMismatch = errors.New("bulk and chained compositions differ")
)

// Reader is the read side export needs.
type Reader interface {
	Export(ctx context.Context, planID string) (*types.PlanDetail, error)
	ExportAll(ctx context.Context) ([]types.PlanDetail, error)
}

// Exporter renders plans and writes them to a sink.
type Exporter struct {
	reader Reader
	sink   Sink
	format string
	now    func() time.Time
	log    zerolog.Logger
}

// NewExporter builds an Exporter. An empty format means JSON.
func NewExporter(reader Reader, sink Sink, format string) (*Exporter, error) {
	switch format {
	case "", FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormatUnknown, format)
	}
	return &Exporter{
		reader: reader,
		sink:   sink,
		format: format,
		now:    time.Now,
		log:    logging.WithComponent("export"),
	}, nil
}

// Plan exports one plan as plan-<id>.<ext> and returns the document name.
func (e *Exporter) Plan(ctx context.Context, planID string) (string, error) {
	d, err := e.reader.Export(ctx, planID)
	if err != nil {
		return "", err
	}
	if d == nil {
		return "", fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}
	return e.write(ctx, "plan-"+planID, NewDocument(e.now(), *d))
}

// All exports every plan into one ogsm-export.<ext> document.
func (e *Exporter) All(ctx context.Context) (string, error) {
	plans, err := e.reader.ExportAll(ctx)
	if err != nil {
		return "", err
	}
	return e.write(ctx, "ogsm-export", NewDocument(e.now(), plans...))
}

func (e *Exporter) write(ctx context.Context, base string, doc Document) (string, error) {
	data, err := Render(doc, e.format)
	if err != nil {
		return "", err
	}
	name := base + Extension(e.format)
	if err := e.sink.Put(ctx, name, data, ContentType(e.format)); err != nil {
		return "", fmt.Errorf("write %s to %s sink: %w", name, e.sink.Name(), err)
	}
	e.log.Info().Str("name", name).Str("sink", e.sink.Name()).Int("plans", len(doc.Plans)).
		Int("bytes", len(data)).Msg("exported")
	return name, nil
}

// ComposeFunc produces a plan tree.
type ComposeFunc func(ctx context.Context, planID string) (*types.PlanDetail, error)

// Verify builds planID's tree through both read paths and compares the
// JSON renderings. On mismatch it returns a unified diff and ErrMismatch.
func Verify(ctx context.Context, planID string, chained, bulk ComposeFunc) (string, error) {
	a, err := chained(ctx, planID)
	if err != nil {
		return "", fmt.Errorf("chained composition: %w", err)
	}
	b, err := bulk(ctx, planID)
	if err != nil {
		return "", fmt.Errorf("bulk composition: %w", err)
	}
	left, err := Render(a, FormatJSON)
	if err != nil {
		return "", err
	}
	right, err := Render(b, FormatJSON)
	if err != nil {
		return "", err
	}
	if string(left) == string(right) {
		return "", nil
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(left)),
		B:        difflib.SplitLines(string(right)),
		FromFile: "chained/" + planID,
		ToFile:   "bulk/" + planID,
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", planID, err)
	}
	return diff, ErrMismatch
}
