package optimistic

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/ogsm/internal/query"
	"github.com/mesh-intelligence/ogsm/internal/repo"
	"github.com/mesh-intelligence/ogsm/internal/store"
	"github.com/mesh-intelligence/ogsm/pkg/types"
)

type fixture struct {
	set    *repo.Set
	client *query.Client
	phases []Phase
	mu     sync.Mutex
}

func newFixture() *fixture {
	return &fixture{
		set:    repo.NewSet(store.New(store.NewMemory()), repo.Options{}),
		client: query.NewClient(query.Options{}),
	}
}

func (f *fixture) observe(_ string, p Phase) {
	f.mu.Lock()
	f.phases = append(f.phases, p)
	f.mu.Unlock()
}

func planKey(id string) query.Key { return query.DetailKey(types.KindPlan, id) }

// planUpdater wraps the plan repository; before, when set, runs ahead of
// the write and fail makes the write fail.
func (f *fixture) planUpdater(before func(), fail error) *Updater[types.Plan, types.PlanUpdate] {
	return New(Config[types.Plan, types.PlanUpdate]{
		Client:    f.client,
		DetailKey: planKey,
		Lists:     query.Lists(types.KindPlan),
		Merge:     types.Plan.Apply,
		Write: func(ctx context.Context, id string, patch types.PlanUpdate) (*types.Plan, error) {
			if before != nil {
				before()
			}
			if fail != nil {
				return nil, fail
			}
			return f.set.Plans.Update(ctx, id, patch)
		},
		Observer: f.observe,
	})
}

func (f *fixture) cachePlan(t *testing.T, id string) *types.Plan {
	t.Helper()
	p, err := query.FetchAs(context.Background(), f.client, planKey(id), func(ctx context.Context) (*types.Plan, error) {
		return f.set.Plans.Get(ctx, id)
	})
	require.NoError(t, err)
	return p
}

func TestOptimisticValueVisibleBeforeWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p, err := f.set.Plans.Create(ctx, types.PlanInput{Name: "FY26"})
	require.NoError(t, err)
	f.cachePlan(t, p.ID)

	var seen *types.Plan
	u := f.planUpdater(func() {
		seen, _ = query.DataAs[*types.Plan](f.client, planKey(p.ID))
	}, nil)

	got, err := u.Update(ctx, p.ID, types.PlanUpdate{Name: types.Ptr("FY27")})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, "FY27", seen.Name)
	assert.Equal(t, "FY27", got.Name)

	// Reconciled with storage after settling.
	cached := f.cachePlan(t, p.ID)
	assert.Equal(t, got.UpdatedAt, cached.UpdatedAt)
	assert.Equal(t, []Phase{PhaseOptimistic, PhaseReconciling, PhaseCommitted}, f.phases)
	assert.Equal(t, PhaseCommitted, u.Phase())
}

func TestReconcilingWhileWritePending(t *testing.T) {
	tests := []struct {
		name  string
		fail  error
		final Phase
	}{
		{"write succeeds", nil, PhaseCommitted},
		{"write fails", errors.New("disk full"), PhaseRolledBack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture()
			p, err := f.set.Plans.Create(ctx, types.PlanInput{Name: "FY26"})
			require.NoError(t, err)
			f.cachePlan(t, p.ID)

			var pending Phase
			var seen []Phase
			var u *Updater[types.Plan, types.PlanUpdate]
			u = f.planUpdater(func() {
				pending = u.Phase()
				f.mu.Lock()
				seen = append([]Phase(nil), f.phases...)
				f.mu.Unlock()
			}, tt.fail)
			assert.Equal(t, PhaseIdle, u.Phase())

			_, _ = u.Update(ctx, p.ID, types.PlanUpdate{Name: types.Ptr("FY27")})
			assert.Equal(t, PhaseReconciling, pending)
			assert.Equal(t, []Phase{PhaseOptimistic, PhaseReconciling}, seen)
			assert.Equal(t, []Phase{PhaseOptimistic, PhaseReconciling, tt.final}, f.phases)
			assert.Equal(t, tt.final, u.Phase())
		})
	}
}

func TestRollbackRestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p, err := f.set.Plans.Create(ctx, types.PlanInput{Name: "FY26", GoalIDs: []string{"a", "b", "c"}})
	require.NoError(t, err)
	prior := f.cachePlan(t, p.ID)

	var during []string
	boom := &types.OpError{Op: types.OpUpdate, Kind: types.KindPlan, Err: types.ErrStorageFailure}
	u := f.planUpdater(func() {
		v, _ := query.DataAs[*types.Plan](f.client, planKey(p.ID))
		during = v.GoalIDs
	}, boom)

	_, err = u.Update(ctx, p.ID, types.PlanUpdate{GoalIDs: types.Ptr([]string{"c", "a", "b"})})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStorageFailure)
	assert.Equal(t, "failed to update plan: storage failure", err.Error())

	assert.Equal(t, []string{"c", "a", "b"}, during)
	restored, ok := query.DataAs[*types.Plan](f.client, planKey(p.ID))
	require.True(t, ok)
	assert.Same(t, prior, restored, "snapshot restored verbatim")
	assert.Equal(t, []string{"a", "b", "c"}, restored.GoalIDs)
	assert.True(t, f.client.State(planKey(p.ID)).IsStale, "invalidated even after failure")

	assert.Equal(t, []Phase{PhaseOptimistic, PhaseReconciling, PhaseRolledBack}, f.phases)
	assert.Equal(t, PhaseRolledBack, u.Phase())
	assert.ErrorIs(t, u.State().Err, types.ErrStorageFailure)
}

func TestNoCachedValueWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p, err := f.set.Plans.Create(ctx, types.PlanInput{Name: "FY26"})
	require.NoError(t, err)

	var cachedDuring bool
	u := f.planUpdater(func() {
		_, cachedDuring = f.client.Data(planKey(p.ID))
	}, errors.New("offline"))

	_, err = u.Update(ctx, p.ID, types.PlanUpdate{Name: types.Ptr("FY27")})
	require.Error(t, err)
	assert.False(t, cachedDuring, "no partial entity fabricated")
	_, ok := f.client.Data(planKey(p.ID))
	assert.False(t, ok)
}

func TestCachedMissIsNotMerged(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	missing := f.cachePlan(t, "nope")
	require.Nil(t, missing)

	u := f.planUpdater(nil, nil)
	got, err := u.Update(ctx, "nope", types.PlanUpdate{Name: types.Ptr("x")})
	require.NoError(t, err)
	assert.Nil(t, got)

	v, ok := query.DataAs[*types.Plan](f.client, planKey("nope"))
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestSettleRefetchesObservedList(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p, err := f.set.Plans.Create(ctx, types.PlanInput{Name: "FY26"})
	require.NoError(t, err)

	listKey := query.ListKey(types.KindPlan)
	ch, unsubscribe := f.client.Subscribe(listKey, func(ctx context.Context) (any, error) {
		return f.set.Plans.List(ctx)
	})
	defer unsubscribe()
	<-ch
	_, err = query.FetchAs(ctx, f.client, listKey, f.set.Plans.List)
	require.NoError(t, err)

	u := f.planUpdater(nil, nil)
	_, err = u.Update(ctx, p.ID, types.PlanUpdate{Name: types.Ptr("FY27")})
	require.NoError(t, err)

	list, ok := query.DataAs[[]types.Plan](f.client, listKey)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "FY27", list[0].Name, "await mode refetched before returning")
}

func TestBackgroundSettleMarksStale(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p, err := f.set.Plans.Create(ctx, types.PlanInput{Name: "FY26"})
	require.NoError(t, err)
	f.cachePlan(t, p.ID)

	u := New(Config[types.Plan, types.PlanUpdate]{
		Client:    f.client,
		DetailKey: planKey,
		Lists:     query.Lists(types.KindPlan),
		Merge:     types.Plan.Apply,
		Write:     f.set.Plans.Update,
		Settle:    BackgroundRefetch,
	})
	_, err = u.Update(ctx, p.ID, types.PlanUpdate{Objective: types.Ptr("win")})
	require.NoError(t, err)

	assert.True(t, f.client.State(planKey(p.ID)).IsStale)
	v := f.cachePlan(t, p.ID)
	assert.Equal(t, "win", v.Objective)
}
