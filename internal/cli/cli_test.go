package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/ogsm/internal/paths"
	"github.com/mesh-intelligence/ogsm/pkg/types"
)

// testEnv is an isolated config and data directory pair.
type testEnv struct {
	t         *testing.T
	configDir string
	dataDir   string
	driver    string
}

func newTestEnv(t *testing.T, driver string) *testEnv {
	t.Helper()
	for _, k := range []string{paths.EnvConfigDir, paths.EnvDataDir, "OGSM_STORE_DRIVER", "OGSM_LATENCY", "OGSM_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	root := t.TempDir()
	return &testEnv{
		t:         t,
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
		driver:    driver,
	}
}

func (e *testEnv) run(args ...string) (stdout, stderr string, code int) {
	e.t.Helper()
	full := []string{"--config-dir", e.configDir, "--data-dir", e.dataDir, "--latency", "0", "--log-level", "error"}
	if e.driver != "" {
		full = append(full, "--driver", e.driver)
	}
	var out, errb bytes.Buffer
	code = run(append(full, args...), &out, &errb)
	return out.String(), errb.String(), code
}

// mustRun fails the test unless the command exits cleanly.
func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, errOut, code := e.run(args...)
	require.Equal(e.t, exitSuccess, code, "args %v\nstderr: %s", args, errOut)
	return out
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), "output: %s", s)
	return v
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	code := run([]string{"version"}, &out, &bytes.Buffer{})
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out.String(), "ogsm v"+Version)
	assert.Contains(t, out.String(), modulePath)
}

func TestInitWritesConfigOnce(t *testing.T) {
	env := newTestEnv(t, "bolt")
	out := env.mustRun("init", "--json")
	got := decode[map[string]string](t, out)
	assert.Equal(t, "bolt", got["driver"])
	assert.Equal(t, env.dataDir, got["dataDir"])

	path := paths.ConfigFile(env.configDir)
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(first), "driver: bolt")

	env.driver = "file"
	env.mustRun("init")
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.FileExists(t, filepath.Join(env.dataDir, "ogsm.bolt"))
}

func TestConfigComesFromFileAndEnv(t *testing.T) {
	env := newTestEnv(t, "")
	require.NoError(t, writeConfigIfMissing(env.configDir, types.Config{
		Store:  types.StoreConfig{Driver: types.DriverFile},
		Log:    types.LogConfig{Level: "error"},
		Export: types.ExportConfig{Sink: types.SinkFS},
	}))

	got := decode[map[string]string](t, env.mustRun("init", "--json"))
	assert.Equal(t, "file", got["driver"])

	t.Setenv("OGSM_STORE_DRIVER", "sqlite")
	got = decode[map[string]string](t, env.mustRun("init", "--json"))
	assert.Equal(t, "sqlite", got["driver"])
}

func TestInvalidConfigIsUserError(t *testing.T) {
	env := newTestEnv(t, "postgres")
	_, stderr, code := env.run("list", "plans")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, types.ErrDSNRequired.Error())
}

func TestSeedListShow(t *testing.T) {
	for _, driver := range []string{types.DriverFile, types.DriverSQLite, types.DriverBolt} {
		t.Run(driver, func(t *testing.T) {
			env := newTestEnv(t, driver)

			res := decode[map[string]any](t, env.mustRun("seed", "--json"))
			assert.Equal(t, true, res["seeded"])

			plans := decode[[]types.Plan](t, env.mustRun("list", "plans", "--json"))
			require.Len(t, plans, 1)
			assert.Equal(t, "FY26 Growth Plan", plans[0].Name)

			tree := decode[types.PlanDetail](t, env.mustRun("show", "plan", plans[0].ID, "--tree"))
			require.Len(t, tree.Goals, 2)
			assert.Equal(t, "Grow revenue", tree.Goals[0].Name)
			assert.Len(t, tree.Goals[0].KPIs, 2)

			again := decode[map[string]any](t, env.mustRun("seed", "--json"))
			assert.Equal(t, false, again["seeded"])

			env.mustRun("seed", "--force")
			plans = decode[[]types.Plan](t, env.mustRun("list", "plans", "--json"))
			assert.Len(t, plans, 1)
		})
	}
}

func TestListTable(t *testing.T) {
	env := newTestEnv(t, types.DriverFile)
	env.mustRun("seed")

	out := env.mustRun("list", "kpis")
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "ARR")
	assert.Contains(t, out, "840/1200 k$ (70%)")

	pending := decode[[]types.Task](t, env.mustRun("list", "tasks", "--status", "pending", "--json"))
	for _, task := range pending {
		assert.Equal(t, types.TaskPending, task.Status)
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	env := newTestEnv(t, types.DriverFile)

	goal := decode[types.Goal](t, env.mustRun("create", "goal", `{"name":"Grow revenue"}`))
	assert.NotEmpty(t, goal.ID)
	assert.Equal(t, []string{}, goal.KPIIDs)

	updated := decode[types.Goal](t, env.mustRun("update", "goal", goal.ID, `{"description":"recurring"}`))
	assert.Equal(t, "Grow revenue", updated.Name)
	assert.Equal(t, "recurring", updated.Description)
	assert.True(t, updated.UpdatedAt.After(goal.UpdatedAt))

	shown := decode[types.Goal](t, env.mustRun("show", "goals", goal.ID))
	assert.Equal(t, updated, shown)

	env.mustRun("delete", "goal", goal.ID)
	_, _, code := env.run("delete", "goal", goal.ID)
	assert.Equal(t, exitUserError, code)
	_, _, code = env.run("show", "goal", goal.ID)
	assert.Equal(t, exitUserError, code)
}

func TestCreateFromStdin(t *testing.T) {
	env := newTestEnv(t, types.DriverFile)
	full := []string{"--config-dir", env.configDir, "--data-dir", env.dataDir, "--driver", env.driver, "--latency", "0"}

	root := NewRootCmd()
	root.SetArgs(append(full, "create", "task", "-"))
	root.SetIn(bytes.NewBufferString(`{"name":"Write brief"}`))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	require.NoError(t, root.Execute())

	task := decode[types.Task](t, out.String())
	assert.Equal(t, types.TaskPending, task.Status)
}

func TestUserErrors(t *testing.T) {
	env := newTestEnv(t, types.DriverFile)
	tests := []struct {
		name string
		args []string
	}{
		{"unknown kind", []string{"list", "widgets"}},
		{"bad json", []string{"create", "goal", `{"name":`}},
		{"unknown field", []string{"create", "goal", `{"title":"x"}`}},
		{"empty name", []string{"create", "plan", `{"name":""}`}},
		{"bad status", []string{"create", "task", `{"name":"x","status":"done"}`}},
		{"status filter on plans", []string{"list", "plans", "--status", "pending"}},
		{"tree of a leaf", []string{"show", "kpi", "any", "--tree"}},
		{"update unknown id", []string{"update", "plan", "missing", `{"name":"x"}`}},
		{"unknown relation", []string{"attach", "plan.kpis", "p", "k"}},
		{"missing args", []string{"show", "plan"}},
		{"verify without plan", []string{"export", "--verify"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := env.run(tt.args...)
			assert.Equal(t, exitUserError, code, stderr)
			assert.Contains(t, stderr, "ogsm:")
		})
	}
}

func TestAttachDetachReorder(t *testing.T) {
	env := newTestEnv(t, types.DriverFile)
	plan := decode[types.Plan](t, env.mustRun("create", "plan", `{"name":"P"}`))
	g1 := decode[types.Goal](t, env.mustRun("create", "goal", `{"name":"G1"}`))
	g2 := decode[types.Goal](t, env.mustRun("create", "goal", `{"name":"G2"}`))

	env.mustRun("attach", "plan.goals", plan.ID, g1.ID)
	env.mustRun("attach", "plan.goals", plan.ID, g2.ID)
	env.mustRun("attach", "plan.goals", plan.ID, g1.ID)
	got := decode[types.Plan](t, env.mustRun("show", "plan", plan.ID))
	assert.Equal(t, []string{g1.ID, g2.ID}, got.GoalIDs)

	env.mustRun("reorder", "plan.goals", plan.ID, g2.ID, g1.ID)
	tree := decode[types.PlanDetail](t, env.mustRun("show", "plan", plan.ID, "--tree"))
	require.Len(t, tree.Goals, 2)
	assert.Equal(t, "G2", tree.Goals[0].Name)

	env.mustRun("detach", "plan.goals", plan.ID, g2.ID)
	got = decode[types.Plan](t, env.mustRun("show", "plan", plan.ID))
	assert.Equal(t, []string{g1.ID}, got.GoalIDs)

	_, _, code := env.run("attach", "plan.goals", "missing", g1.ID)
	assert.Equal(t, exitUserError, code)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, types.DriverFile)
	env.mustRun("seed")
	plans := decode[[]types.Plan](t, env.mustRun("list", "plans", "--json"))
	require.Len(t, plans, 1)
	id := plans[0].ID

	t.Run("single plan verified", func(t *testing.T) {
		res := decode[map[string]any](t, env.mustRun("export", "--plan", id, "--verify", "--json"))
		assert.Equal(t, "plan-"+id+".json", res["name"])
		assert.Equal(t, true, res["verified"])

		data, err := os.ReadFile(filepath.Join(env.dataDir, "exports", "plan-"+id+".json"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "FY26 Growth Plan")
	})

	t.Run("all plans as yaml", func(t *testing.T) {
		dir := t.TempDir()
		env.mustRun("export", "--format", "yaml", "--dir", dir)
		data, err := os.ReadFile(filepath.Join(dir, "ogsm-export.yaml"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "name: FY26 Growth Plan")
	})

	t.Run("unknown plan", func(t *testing.T) {
		_, _, code := env.run("export", "--plan", "missing")
		assert.Equal(t, exitUserError, code)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, code := env.run("export", "--format", "xml")
		assert.Equal(t, exitUserError, code)
	})
}

func TestMetricsDump(t *testing.T) {
	env := newTestEnv(t, types.DriverFile)
	_, stderr, code := env.run("list", "plans", "--metrics")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, stderr, "ogsm_store_operations_total")
}

func TestClear(t *testing.T) {
	env := newTestEnv(t, types.DriverBolt)
	env.mustRun("seed")
	env.mustRun("clear")
	plans := decode[[]types.Plan](t, env.mustRun("list", "plans", "--json"))
	assert.Empty(t, plans)
}
