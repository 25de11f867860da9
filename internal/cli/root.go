// Package cli implements the ogsm administrative command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values for one command tree.
type rootFlags struct {
	configDir string
	dataDir   string
	driver    string
	logLevel  string
	latency   time.Duration
	jsonMode  bool
	metrics   bool
}

// exitErr carries the exit code a failed command should produce.
type exitErr struct {
	code int
	err  error
}

func (e *exitErr) Error() string { return e.err.Error() }
func (e *exitErr) Unwrap() error { return e.err }

func userErr(err error) error { return &exitErr{code: exitUserError, err: err} }
func sysErr(err error) error  { return &exitErr{code: exitSysError, err: err} }

// NewRootCmd creates the top-level "ogsm" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:   "ogsm",
		Short: "Manage OGSM plans in a durable store",
		Long: "ogsm seeds, inspects, edits and exports Objectives, Goals, Strategies and\n" +
			"Measures kept in a durable key-value store.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&f.dataDir, "data-dir", "", "data directory (default: ./.ogsm-db)")
	pf.StringVar(&f.driver, "driver", "", "store driver: memory, file, sqlite, bolt, postgres")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.DurationVar(&f.latency, "latency", -1, "simulated round-trip per repository call")
	pf.BoolVar(&f.jsonMode, "json", false, "output in JSON format")
	pf.BoolVar(&f.metrics, "metrics", false, "print collected metrics to stderr on exit")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(f),
		newSeedCmd(f),
		newClearCmd(f),
		newListCmd(f),
		newShowCmd(f),
		newCreateCmd(f),
		newUpdateCmd(f),
		newDeleteCmd(f),
		newAttachCmd(f),
		newDetachCmd(f),
		newReorderCmd(f),
		newExportCmd(f),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "ogsm:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// exitCode treats anything not tagged by a command, such as cobra's own
// argument and flag errors, as a user error.
func exitCode(err error) int {
	var e *exitErr
	if errors.As(err, &e) {
		return e.code
	}
	return exitUserError
}
