package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/mediaclue/internal/daemon"
	"github.com/Nomadcxx/mediaclue/internal/reporter"
	"github.com/Nomadcxx/mediaclue/internal/scanner"
	"github.com/Nomadcxx/mediaclue/internal/ui"
)

type scanFlags struct {
	mode      string
	recursive bool
	videoOnly bool
	out       string
	quiet     bool
	noStore   bool
	tui       bool
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var flags scanFlags

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Parse every entry of a directory and write a report",
		Long: `Scan lists a directory, parses every entry, groups the results by
title, records the groups in the database and collects unknown words.

Without a directory argument every configured scan directory is scanned.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.service()
			if err != nil {
				return err
			}
			cfg := svc.Config()
			if flags.out != "" {
				cfg.Paths.ReportDir = flags.out
			}

			var dirs []string
			if len(args) == 1 {
				dir, err := filepath.Abs(args[0])
				if err != nil {
					return err
				}
				dirs = []string{dir}
			} else {
				if err := cfg.ValidateDirs(); err != nil {
					return err
				}
				dirs = cfg.Scan.Dirs
			}

			requests := make([]daemon.ScanRequest, 0, len(dirs))
			for _, dir := range dirs {
				req, err := buildRequest(cmd, svc, dir, flags)
				if err != nil {
					return err
				}
				requests = append(requests, req)
			}

			if flags.tui {
				if len(requests) != 1 {
					return errors.New("--tui scans a single directory")
				}
				req := requests[0]
				return ui.RunScan(cmd.Context(), func(ctx context.Context, progressCh chan<- scanner.ScanProgress) (reporter.Report, error) {
					outcome, err := svc.ScanDir(ctx, req, progressCh)
					if err != nil {
						return reporter.Report{}, err
					}
					return outcome.Report, nil
				})
			}

			return runPlainScan(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), svc, requests, flags.quiet)
		},
	}

	cmd.Flags().StringVarP(&flags.mode, "mode", "m", "", "What to parse: dirs or files (default from config)")
	cmd.Flags().BoolVarP(&flags.recursive, "recursive", "r", false, "Walk subdirectories")
	cmd.Flags().BoolVar(&flags.videoOnly, "video-only", false, "In files mode, only parse video files")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "Report directory (default from config)")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Only print report paths")
	cmd.Flags().BoolVar(&flags.noStore, "no-store", false, "Do not record groups in the database")
	cmd.Flags().BoolVar(&flags.tui, "tui", false, "Show live progress and open the report viewer when done")
	return cmd
}

// buildRequest starts from the configured scan settings and applies the
// flags the user actually set.
func buildRequest(cmd *cobra.Command, svc *daemon.Service, dir string, flags scanFlags) (daemon.ScanRequest, error) {
	req := svc.RequestFor(dir)
	if cmd.Flags().Changed("mode") {
		mode, err := scanner.ParseMode(flags.mode)
		if err != nil {
			return req, err
		}
		req.Mode = mode
	}
	if cmd.Flags().Changed("recursive") {
		req.Recursive = flags.recursive
	}
	if cmd.Flags().Changed("video-only") {
		req.VideoOnly = flags.videoOnly
	}
	req.NoStore = flags.noStore
	return req, nil
}

func runPlainScan(ctx context.Context, stdout, stderr io.Writer, svc *daemon.Service, requests []daemon.ScanRequest, quiet bool) error {
	progressCh := make(chan scanner.ScanProgress, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for p := range progressCh {
			if !quiet && p.Stage == "complete" {
				fmt.Fprintln(stderr, ui.FormatStatusOK(p.Message))
			}
		}
	}()

	var outcomes []*daemon.ScanOutcome
	var scanErr error
	for _, req := range requests {
		if !quiet {
			fmt.Fprintln(stderr, ui.FormatStatusInfo("Scanning "+req.Dir))
		}
		outcome, err := svc.ScanDir(ctx, req, progressCh)
		if err != nil {
			scanErr = fmt.Errorf("scan %s: %w", req.Dir, err)
			break
		}
		outcomes = append(outcomes, outcome)
	}
	close(progressCh)
	wg.Wait()

	for _, o := range outcomes {
		if quiet {
			fmt.Fprintln(stdout, o.ReportPath)
			continue
		}
		fmt.Fprintln(stdout, reporter.Summary(o.Report))
		if o.Saved.GroupsAdded > 0 || o.Saved.PathsAdded > 0 {
			fmt.Fprintln(stdout, ui.FormatStatusOK(fmt.Sprintf("Recorded %d new groups and %d new paths", o.Saved.GroupsAdded, o.Saved.PathsAdded)))
		}
		fmt.Fprintf(stdout, "Report saved to:\n  %s\n\n", o.ReportPath)
		fmt.Fprintf(stdout, "View report with: mediaclue view %s\n", o.ReportPath)
	}
	return scanErr
}
