package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shiftload/pkg/config"
	"shiftload/pkg/observability"
)

// app carries what every subcommand needs once the root command has run.
type app struct {
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger

	in  io.Reader
	out io.Writer
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "shiftload",
		Short: "Turn a supervisor shift roster into a payroll import file",
		Long: `shiftload reads a roster workbook (shift grid, employee directory and shift
codification sheets) and fills the columns of a payroll import template with one
row per employee.

Names in the grid are matched to the directory by their words in any order, then
by spelling similarity. Use --interactive to decide ambiguous names yourself.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			if a.verbose {
				cfg.Log.Level = "debug"
			}
			logger, err := observability.NewLogger(cfg.Log)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.SetIn(a.in)
	root.SetOut(a.out)
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default ./"+config.DefaultFile+" when present)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log every matching decision")

	root.AddCommand(newConvertCmd(a), newInspectCmd(a))
	return root
}

func main() {
	a := &app{in: os.Stdin, out: os.Stdout}
	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}
