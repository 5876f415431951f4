package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/mediaclue/internal/reporter"
	"github.com/Nomadcxx/mediaclue/internal/ui"
)

func newViewCommand(ctx *commandContext) *cobra.Command {
	var textOut bool

	cmd := &cobra.Command{
		Use:   "view [report-file]",
		Short: "View a scan report (default: the latest one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				path, err = reporter.Latest(cfg.Paths.ReportDir)
				if errors.Is(err, reporter.ErrNoReports) {
					return fmt.Errorf("%w in %s, run 'mediaclue scan' first", err, cfg.Paths.ReportDir)
				}
				if err != nil {
					return err
				}
			}

			report, err := reporter.Load(path)
			if err != nil {
				return err
			}

			if textOut || !isTerminal(cmd.OutOrStdout()) {
				fmt.Fprintln(cmd.OutOrStdout(), reporter.Summary(report))
				return nil
			}
			return ui.View(report)
		},
	}

	cmd.Flags().BoolVar(&textOut, "text", false, "Print the plain-text summary instead of opening the viewer")
	return cmd
}
