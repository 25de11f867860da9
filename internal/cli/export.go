package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ogsm/internal/export"
)

func newExportCmd(f *rootFlags) *cobra.Command {
	var (
		planID string
		format string
		dir    string
		verify bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export plans to the configured sink",
		Long: `Export renders plan trees as JSON or YAML and writes them to the
configured sink (a directory or an S3 bucket). With --plan only that plan is
written; otherwise every plan goes into a single document.

--verify composes the plan through both the cached chained reads and the bulk
path and fails with a diff if they disagree. It requires --plan.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verify && planID == "" {
				return userErr(errors.New("--verify requires --plan"))
			}
			ctx := cmd.Context()
			return withSession(ctx, f, cmd.ErrOrStderr(), func(s *session) error {
				if verify {
					diff, err := export.Verify(ctx, planID, s.planner.PlanDetail, s.planner.Export)
					if diff != "" {
						fmt.Fprint(cmd.ErrOrStderr(), diff)
					}
					if err != nil {
						return err
					}
				}

				cfg := s.cfg.Export
				if format != "" {
					cfg.Format = format
				}
				if dir != "" {
					cfg.Dir = dir
				}
				sink, err := export.OpenSink(ctx, cfg)
				if err != nil {
					return err
				}
				ex, err := export.NewExporter(s.planner, sink, cfg.Format)
				if err != nil {
					return err
				}

				var name string
				if planID != "" {
					name, err = ex.Plan(ctx, planID)
				} else {
					name, err = ex.All(ctx)
				}
				if err != nil {
					return err
				}
				return report(cmd.OutOrStdout(), f,
					map[string]any{"name": name, "sink": sink.Name(), "verified": verify},
					fmt.Sprintf("exported %s to %s sink", name, sink.Name()))
			})
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "export only this plan id")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default from config)")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory for the fs sink")
	cmd.Flags().BoolVar(&verify, "verify", false, "check bulk and chained compositions agree first")
	return cmd
}
