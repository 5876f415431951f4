package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/mediaclue/internal/config"
	"github.com/Nomadcxx/mediaclue/internal/daemon"
	"github.com/Nomadcxx/mediaclue/internal/logging"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string
	var printTimer bool
	var once bool

	cmd := &cobra.Command{
		Use:           "mediaclued",
		Short:         "Scan configured directories on a schedule",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := strings.TrimSpace(configFlag)
			if configPath == "" {
				p, err := config.ConfigPath()
				if err != nil {
					return err
				}
				configPath = p
			}
			cfg, err := config.LoadFrom(configPath)
			if err != nil {
				return err
			}
			if logLevelFlag != "" {
				cfg.Log.Level = logLevelFlag
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if printTimer {
				unit, err := daemon.GenerateSystemdTimer(cfg.Daemon.ScanFrequency)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), unit)
				return nil
			}

			logPath := filepath.Join(filepath.Dir(cfg.Paths.Database), "mediaclued.log")
			logger, err := logging.New(logging.Options{
				Level:       cfg.Log.Level,
				Format:      cfg.Log.Format,
				OutputPaths: []string{"stderr", logPath},
			})
			if err != nil {
				return err
			}
			logger.Info("mediaclued starting", "version", version, "config", configPath)

			if once {
				paths, err := daemon.NewService(cfg, logger, false).RunScan(cmd.Context(), nil)
				for _, p := range paths {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
				return err
			}
			return daemon.New(cfg, configPath, logger).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&logLevelFlag, "log-level", "", "Override the configured log level")
	cmd.Flags().BoolVar(&printTimer, "print-timer", false, "Print a systemd timer unit for the configured frequency and exit")
	cmd.Flags().BoolVar(&once, "once", false, "Scan every configured directory once and exit")
	return cmd
}
