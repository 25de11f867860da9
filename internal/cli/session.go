package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/mesh-intelligence/ogsm/internal/export"
	"github.com/mesh-intelligence/ogsm/internal/logging"
	"github.com/mesh-intelligence/ogsm/internal/metrics"
	"github.com/mesh-intelligence/ogsm/internal/planner"
	"github.com/mesh-intelligence/ogsm/internal/query"
	"github.com/mesh-intelligence/ogsm/internal/repo"
	"github.com/mesh-intelligence/ogsm/internal/seed"
	"github.com/mesh-intelligence/ogsm/internal/store"
	"github.com/mesh-intelligence/ogsm/pkg/types"
)

// session is one command's view of the data layer.
type session struct {
	cfg     types.Config
	reg     *prometheus.Registry
	store   *store.Durable
	repos   *repo.Set
	planner *planner.Client
}

// openSession loads configuration and wires store, repositories, cache and
// planner for a single command invocation.
func openSession(ctx context.Context, f *rootFlags, stderr io.Writer) (*session, error) {
	cfg, err := loadConfig(f)
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, JSON: cfg.Log.JSON, Output: stderr})

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	d, err := store.Open(ctx, cfg.Store,
		store.WithLogger(logging.WithComponent("store")),
		store.WithMetrics(m),
	)
	if err != nil {
		if errors.Is(err, types.ErrDriverEmpty) || errors.Is(err, types.ErrDriverUnknown) {
			return nil, userErr(err)
		}
		return nil, sysErr(fmt.Errorf("open store: %w", err))
	}

	repoLog := logging.WithComponent("repo")
	cacheLog := logging.WithComponent("query")
	repos := repo.NewSet(d, repo.Options{Latency: cfg.Latency, Metrics: m, Logger: &repoLog})
	cache := query.NewClient(query.Options{Metrics: m, Logger: &cacheLog})

	return &session{
		cfg:     cfg,
		reg:     reg,
		store:   d,
		repos:   repos,
		planner: planner.New(repos, cache, planner.Options{Metrics: m}),
	}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// seed loads the fixture into an empty store.
func (s *session) seed(ctx context.Context, f *seed.Fixture) (seed.Result, error) {
	res, err := seed.Load(ctx, s.repos, f)
	if err != nil {
		return res, classify(err)
	}
	return res, nil
}

// dumpMetrics writes every gathered family in the Prometheus text format.
func (s *session) dumpMetrics(w io.Writer) error {
	families, err := s.reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// userErrors are the sentinels caused by bad input rather than a failing
// system.
var userErrors = []error{
	types.ErrInvalidName,
	types.ErrInvalidStatus,
	types.ErrInvalidID,
	types.ErrUnknownKind,
	planner.ErrUnknownRelation,
	seed.ErrUnknownKPIRef,
	export.ErrPlanNotFound,
	export.ErrFormatUnknown,
}

// classify tags err with the exit code it maps to.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var tagged *exitErr
	if errors.As(err, &tagged) {
		return err
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return userErr(err)
		}
	}
	return sysErr(err)
}

// withSession opens a session, runs fn, and closes the session. Metrics are
// dumped when --metrics is set, even if fn fails.
func withSession(ctx context.Context, f *rootFlags, stderr io.Writer, fn func(*session) error) (err error) {
	s, err := openSession(ctx, f, stderr)
	if err != nil {
		return err
	}
	defer func() {
		if f.metrics {
			if mErr := s.dumpMetrics(stderr); mErr != nil && err == nil {
				err = sysErr(mErr)
			}
		}
		if cErr := s.Close(); cErr != nil && err == nil {
			err = sysErr(fmt.Errorf("close store: %w", cErr))
		}
	}()
	return classify(fn(s))
}
