package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/mediaclue/internal/clues"
	"github.com/Nomadcxx/mediaclue/internal/collector"
	"github.com/Nomadcxx/mediaclue/internal/ui"
)

func openUnknowns(ctx *commandContext) (*collector.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return collector.Open(cfg.Paths.UnknownFile, ctx.loggerValue()), nil
}

func newUnknownsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unknowns",
		Short: "Review words the clue table does not know",
	}
	cmd.AddCommand(newUnknownsListCommand(ctx))
	cmd.AddCommand(newUnknownsClassifyCommand(ctx))
	cmd.AddCommand(newUnknownsClearCommand(ctx))
	return cmd
}

func newUnknownsListCommand(ctx *commandContext) *cobra.Command {
	var minCount int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List collected unknown words, most frequent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			unknowns, err := openUnknowns(ctx)
			if err != nil {
				return err
			}
			words, err := unknowns.List(cmd.Context(), minCount)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, words)
			}
			if len(words) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No unknown words collected.")
				return nil
			}
			rows := make([][]string, 0, len(words))
			for _, w := range words {
				rows = append(rows, []string{w.Word, strconv.Itoa(w.Count)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Word", "Seen"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().IntVar(&minCount, "min", 1, "Only list words seen at least this many times")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print words as JSON")
	return cmd
}

func newUnknownsClassifyCommand(ctx *commandContext) *cobra.Command {
	names := make([]string, 0, len(clues.Categories))
	for _, c := range clues.Categories {
		names = append(names, c.String())
	}

	return &cobra.Command{
		Use:   "classify <category> <word>...",
		Short: "Promote unknown words into the clue file",
		Long: "Add words to a category of the clue file and drop them from the unknown list.\n\n" +
			"Categories: " + strings.Join(names, ", "),
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			unknowns, err := openUnknowns(ctx)
			if err != nil {
				return err
			}

			added, err := collector.Classify(cmd.Context(), cfg.Paths.CluesFile, args[0], args[1:], unknowns)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(added) == 0 {
				fmt.Fprintln(out, ui.FormatStatusInfo("Every word was already known"))
				return nil
			}
			fmt.Fprintln(out, ui.FormatStatusOK(fmt.Sprintf("Added %s to %s", strings.Join(added, ", "), args[0])))
			return nil
		},
	}
}

func newUnknownsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget every collected unknown word",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			unknowns, err := openUnknowns(ctx)
			if err != nil {
				return err
			}
			if err := unknowns.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatStatusOK("Unknown words cleared"))
			return nil
		},
	}
}

func newCluesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clues",
		Short: "Inspect or export the clue table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			svc, err := ctx.service()
			if err != nil {
				return err
			}
			table, err := svc.LoadClues()
			if err != nil {
				return err
			}

			doc := table.Document()
			rows := make([][]string, 0, len(clues.Categories))
			for _, c := range clues.Categories {
				rows = append(rows, []string{c.String(), strconv.Itoa(len(*doc.List(c)))})
			}
			rows = append(rows,
				[]string{"tv_titles", strconv.Itoa(len(doc.TVTitles))},
				[]string{"anime_titles", strconv.Itoa(len(doc.AnimeTitles))},
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Clue file: %s\n", cfg.Paths.CluesFile)
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"List", "Words"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
	cmd.AddCommand(newCluesExportCommand(ctx))
	return cmd
}

func newCluesExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Write the active clue table to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.service()
			if err != nil {
				return err
			}
			table, err := svc.LoadClues()
			if err != nil {
				return err
			}
			if err := collector.Export(args[0], table); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatStatusOK(fmt.Sprintf("Exported %d words to %s", table.Len(), args[0])))
			return nil
		},
	}
}
