package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ogsm/pkg/types"
)

func newListCmd(f *rootFlags) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List every entity of a kind",
		Long: `List prints all entities of one kind in storage order.

Valid kinds: plan, goal, kpi, strategy, action, task (singular or plural).

Example:
  ogsm list plans
  ogsm list tasks --status pending --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ops, err := lookupKind(args[0])
			if err != nil {
				return err
			}
			if status != "" && kind != types.KindTask {
				return userErr(errors.New("--status only applies to tasks"))
			}
			ctx := cmd.Context()
			return withSession(ctx, f, cmd.ErrOrStderr(), func(s *session) error {
				var v any
				if status != "" {
					st := types.TaskStatus(status)
					if !st.Valid() {
						return fmt.Errorf("%w: %q", types.ErrInvalidStatus, status)
					}
					// Status filtering is a direct repository read.
					v, err = s.repos.Tasks.ListByStatus(ctx, st)
				} else {
					v, err = ops.list(ctx, s.planner)
				}
				if err != nil {
					return err
				}
				if f.jsonMode {
					return printJSON(cmd.OutOrStdout(), v)
				}
				return printRows(cmd.OutOrStdout(), rowsOf(v))
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter tasks by status: pending, in-progress, completed")
	return cmd
}

func rowsOf(v any) []row {
	var rows []row
	switch list := v.(type) {
	case []types.Plan:
		for _, p := range list {
			rows = append(rows, row{p.ID, p.Name, fmt.Sprintf("%d goals, %d strategies", len(p.GoalIDs), len(p.StrategyIDs))})
		}
	case []types.Goal:
		for _, g := range list {
			rows = append(rows, row{g.ID, g.Name, fmt.Sprintf("%d kpis", len(g.KPIIDs))})
		}
	case []types.KPI:
		for _, k := range list {
			rows = append(rows, row{k.ID, k.Name, fmt.Sprintf("%g/%g %s (%.0f%%)", k.Current, k.Target, k.Unit, k.Progress()*100)})
		}
	case []types.Strategy:
		for _, st := range list {
			rows = append(rows, row{st.ID, st.Name, fmt.Sprintf("%d kpis, %d actions", len(st.KPIIDs), len(st.ActionIDs))})
		}
	case []types.Action:
		for _, a := range list {
			rows = append(rows, row{a.ID, a.Name, fmt.Sprintf("%d tasks", len(a.TaskIDs))})
		}
	case []types.Task:
		for _, t := range list {
			rows = append(rows, row{t.ID, t.Name, string(t.Status)})
		}
	}
	return rows
}
