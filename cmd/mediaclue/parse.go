package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/mediaclue/internal/parser"
)

func newParseCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "parse [name...]",
		Short: "Parse release names",
		Long: `Parse one or more release names and print what was recovered.

With no arguments, names are read from stdin, one per line. Output is a
table on a terminal and JSON otherwise (or with --json).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				in := cmd.InOrStdin()
				if isTerminal(in) {
					return fmt.Errorf("no names given")
				}
				var err error
				names, err = readNames(in)
				if err != nil {
					return err
				}
			}

			svc, err := ctx.service()
			if err != nil {
				return err
			}
			table, err := svc.LoadClues()
			if err != nil {
				return fmt.Errorf("failed to load clue file: %w", err)
			}
			p := parser.New(table)

			results := make([]parser.Result, len(names))
			for i, name := range names {
				results[i] = p.Parse(name)
			}

			if jsonOut || !isTerminal(cmd.OutOrStdout()) {
				if len(results) == 1 {
					return writeJSON(cmd, results[0])
				}
				return writeJSON(cmd, results)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderResults(results))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print results as JSON")
	return cmd
}

// readNames reads one name per line, skipping blanks.
func readNames(r io.Reader) ([]string, error) {
	var names []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			names = append(names, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read names: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no names given")
	}
	return names, nil
}

func renderResults(results []parser.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		title := r.CleanTitle
		if title == "" {
			title = "-"
		}
		rows = append(rows, []string{
			r.Original,
			title,
			string(r.MediaType),
			orDash(r.Year()),
			orDash(strings.Join(append(append([]string{}, r.TVClues...), r.AnimeClues...), " ")),
			orDash(strings.Join(r.Extras, " ")),
			orDash(strings.Join(r.UnmatchedWords, " ")),
		})
	}
	return renderTable(
		[]string{"Name", "Title", "Type", "Year", "Episode", "Extras", "Unmatched"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
	)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
