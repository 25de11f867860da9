package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ogsm/internal/paths"
)

func newInitCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long: `Init writes config.yaml to the config directory if it is missing, recording
any --driver and --data-dir given, then opens the store once so its files
exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, err := paths.ResolveConfigDir(f.configDir)
			if err != nil {
				return sysErr(fmt.Errorf("resolve config dir: %w", err))
			}
			initial := defaultConfig()
			f.applyFlags(&initial)
			initial.Store.DataDir = f.dataDir
			if err := writeConfigIfMissing(configDir, initial); err != nil {
				return sysErr(err)
			}

			return withSession(cmd.Context(), f, cmd.ErrOrStderr(), func(s *session) error {
				return report(cmd.OutOrStdout(), f,
					map[string]any{
						"configDir": configDir,
						"dataDir":   s.cfg.Store.DataDir,
						"driver":    s.cfg.Store.Driver,
					},
					fmt.Sprintf("ogsm initialized (%s store in %s)", s.cfg.Store.Driver, s.cfg.Store.DataDir))
			})
		},
	}
}
