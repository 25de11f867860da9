package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ogsm/internal/planner"
)

func relationHelp() string {
	names := make([]string, len(planner.Relations))
	for i, r := range planner.Relations {
		names[i] = string(r)
	}
	return "Valid relations: " + strings.Join(names, ", ")
}

// linkCmd builds attach, detach and reorder, which share argument handling.
func linkCmd(f *rootFlags, use, short string, args cobra.PositionalArgs,
	apply func(ctx context.Context, p *planner.Client, rel planner.Relation, parent string, ids []string) (bool, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long:  short + ".\n\n" + relationHelp(),
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			rel, parent, ids := planner.Relation(argv[0]), argv[1], argv[2:]
			ctx := cmd.Context()
			return withSession(ctx, f, cmd.ErrOrStderr(), func(s *session) error {
				ok, err := apply(ctx, s.planner, rel, parent, ids)
				if err != nil {
					return err
				}
				if !ok {
					return userErr(fmt.Errorf("parent %q not found for %s", parent, rel))
				}
				return report(cmd.OutOrStdout(), f,
					map[string]any{"relation": rel, "parent": parent, "ids": ids},
					fmt.Sprintf("%s %s: %s", cmd.Name(), rel, strings.Join(ids, ", ")))
			})
		},
	}
}

func newAttachCmd(f *rootFlags) *cobra.Command {
	return linkCmd(f, "attach <relation> <parent-id> <child-id>",
		"Append a child reference to its parent", cobra.ExactArgs(3),
		func(ctx context.Context, p *planner.Client, rel planner.Relation, parent string, ids []string) (bool, error) {
			return p.Attach(ctx, rel, parent, ids[0])
		})
}

func newDetachCmd(f *rootFlags) *cobra.Command {
	return linkCmd(f, "detach <relation> <parent-id> <child-id>",
		"Remove a child reference from its parent", cobra.ExactArgs(3),
		func(ctx context.Context, p *planner.Client, rel planner.Relation, parent string, ids []string) (bool, error) {
			return p.Detach(ctx, rel, parent, ids[0])
		})
}

func newReorderCmd(f *rootFlags) *cobra.Command {
	return linkCmd(f, "reorder <relation> <parent-id> <child-id>...",
		"Replace a parent's child references with the given order", cobra.MinimumNArgs(2),
		func(ctx context.Context, p *planner.Client, rel planner.Relation, parent string, ids []string) (bool, error) {
			return p.Reorder(ctx, rel, parent, ids)
		})
}
