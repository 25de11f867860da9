package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newShowCmd(f *rootFlags) *cobra.Command {
	var tree bool
	cmd := &cobra.Command{
		Use:   "show <kind> <id>",
		Short: "Show one entity, or its resolved tree with --tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ops, err := lookupKind(args[0])
			if err != nil {
				return err
			}
			if tree && ops.tree == nil {
				return userErr(fmt.Errorf("%s has no children to resolve", kind))
			}
			ctx := cmd.Context()
			return withSession(ctx, f, cmd.ErrOrStderr(), func(s *session) error {
				read := ops.get
				if tree {
					read = ops.tree
				}
				v, err := read(ctx, s.planner, args[1])
				if err != nil {
					return err
				}
				if v == nil {
					return userErr(fmt.Errorf("%s %q not found", kind, args[1]))
				}
				return printJSON(cmd.OutOrStdout(), v)
			})
		},
	}
	cmd.Flags().BoolVar(&tree, "tree", false, "resolve referenced children")
	return cmd
}

func newCreateCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "create <kind> <json|->",
		Short: "Create an entity from a JSON payload",
		Long: `Create validates and stores a new entity. The repository assigns its id
and timestamps. Pass - to read the payload from stdin.

Example:
  ogsm create goal '{"name":"Grow revenue","kpiIds":[]}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ops, err := lookupKind(args[0])
			if err != nil {
				return err
			}
			payload, err := readPayload(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withSession(ctx, f, cmd.ErrOrStderr(), func(s *session) error {
				v, err := ops.create(ctx, s.planner, payload)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), v)
			})
		},
	}
}

func newUpdateCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "update <kind> <id> <json|->",
		Short: "Merge a partial JSON payload into an entity",
		Long: `Update merges the provided fields into the stored entity and bumps its
updatedAt. Fields absent from the payload are left alone.

Example:
  ogsm update task 0190... '{"status":"completed"}'`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ops, err := lookupKind(args[0])
			if err != nil {
				return err
			}
			payload, err := readPayload(cmd.InOrStdin(), args[2])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withSession(ctx, f, cmd.ErrOrStderr(), func(s *session) error {
				// Seed the cache so the optimistic path has a prior to merge into.
				if _, err := ops.get(ctx, s.planner, args[1]); err != nil {
					return err
				}
				v, err := ops.update(ctx, s.planner, args[1], payload)
				if err != nil {
					return err
				}
				if v == nil {
					return userErr(fmt.Errorf("%s %q not found", kind, args[1]))
				}
				return printJSON(cmd.OutOrStdout(), v)
			})
		},
	}
}

func newDeleteCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "Delete an entity",
		Long: `Delete removes one entity. References to it held by other entities are
not touched; use detach to drop them.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ops, err := lookupKind(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withSession(ctx, f, cmd.ErrOrStderr(), func(s *session) error {
				ok, err := ops.remove(ctx, s.planner, args[1])
				if err != nil {
					return err
				}
				if !ok {
					return userErr(fmt.Errorf("%s %q not found", kind, args[1]))
				}
				return report(cmd.OutOrStdout(), f,
					map[string]any{"kind": kind, "id": args[1], "deleted": true},
					fmt.Sprintf("deleted %s %s", kind, args[1]))
			})
		},
	}
}

// readPayload returns arg itself, or stdin when arg is "-".
func readPayload(stdin io.Reader, arg string) ([]byte, error) {
	if arg != "-" {
		return []byte(arg), nil
	}
	if stdin == nil {
		stdin = os.Stdin
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, sysErr(fmt.Errorf("read stdin: %w", err))
	}
	if len(data) == 0 {
		return nil, userErr(errors.New("empty payload on stdin"))
	}
	return data, nil
}
