package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ogsm/internal/seed"
	"github.com/mesh-intelligence/ogsm/pkg/types"
)

func newSeedCmd(f *rootFlags) *cobra.Command {
	var (
		file  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load sample or fixture data into an empty store",
		Long: `Seed loads the built-in sample plan, or the YAML fixture given with --file.
A store that already holds entities is left alone unless --force is set, in
which case every entity is cleared first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture := seed.Sample()
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return userErr(fmt.Errorf("read fixture: %w", err))
				}
				if fixture, err = seed.Parse(data); err != nil {
					return userErr(err)
				}
			}

			ctx := cmd.Context()
			return withSession(ctx, f, cmd.ErrOrStderr(), func(s *session) error {
				if force {
					if err := s.repos.Clear(ctx); err != nil {
						return err
					}
				}
				res, err := s.seed(ctx, fixture)
				if err != nil {
					return err
				}
				msg := "store already holds data; nothing seeded (use --force to replace it)"
				if res.Seeded {
					msg = fmt.Sprintf("seeded %d plans, %d goals, %d kpis, %d strategies, %d actions, %d tasks",
						res.Created[types.KindPlan], res.Created[types.KindGoal], res.Created[types.KindKPI],
						res.Created[types.KindStrategy], res.Created[types.KindAction], res.Created[types.KindTask])
				}
				return report(cmd.OutOrStdout(), f, res, msg)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML fixture to load instead of the built-in sample")
	cmd.Flags().BoolVar(&force, "force", false, "clear the store before seeding")
	return cmd
}

func newClearCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every entity from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withSession(ctx, f, cmd.ErrOrStderr(), func(s *session) error {
				if err := s.repos.Clear(ctx); err != nil {
					return err
				}
				return report(cmd.OutOrStdout(), f, map[string]bool{"cleared": true}, "store cleared")
			})
		},
	}
}
