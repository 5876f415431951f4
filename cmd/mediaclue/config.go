package main

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/Nomadcxx/mediaclue/internal/config"
	"github.com/Nomadcxx/mediaclue/internal/ui"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show configuration file location and contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration file: %s\n\n", ctx.configPath)
			if err := toml.NewEncoder(out).Encode(cfg); err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				fmt.Fprintln(out, "\n"+ui.FormatStatusWarn(err.Error()))
			}
			return nil
		},
	}
	cmd.AddCommand(newConfigDirCommand(ctx, "add-dir", "Add a scan directory", (*config.Config).AddDir))
	cmd.AddCommand(newConfigDirCommand(ctx, "remove-dir", "Remove a scan directory", (*config.Config).RemoveDir))
	return cmd
}

// newConfigDirCommand edits the scan directory list. The file is re-read
// without environment overrides so they are never written back.
func newConfigDirCommand(ctx *commandContext, use, short string, edit func(*config.Config, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <dir>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			dir, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			cfg, err := config.ReadFile(ctx.configPath)
			if err != nil {
				return err
			}
			if err := edit(cfg, dir); err != nil {
				return err
			}
			if err := config.SaveTo(cfg, ctx.configPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatStatusOK(fmt.Sprintf("Scan directories: %d configured", len(cfg.Scan.Dirs))))
			return nil
		},
	}
}
