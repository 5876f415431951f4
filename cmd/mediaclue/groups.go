package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/mediaclue/internal/store"
)

func openStore(ctx *commandContext) (*store.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.Paths.Database, ctx.loggerValue())
}

func newGroupsCommand(ctx *commandContext) *cobra.Command {
	var mediaType string
	var title string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List title groups recorded by previous scans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			groups, err := st.ListGroups(cmd.Context(), store.Filter{MediaType: mediaType, Title: title})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, groups)
			}
			if len(groups) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No groups recorded.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderGroups(groups))
			return nil
		},
	}

	cmd.Flags().StringVarP(&mediaType, "type", "t", "", "Only show groups of this media type (movie, tv, anime, unknown)")
	cmd.Flags().StringVar(&title, "title", "", "Only show groups whose title contains this text")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print groups as JSON")

	cmd.AddCommand(newGroupPathsCommand(ctx))
	cmd.AddCommand(newGroupDeleteCommand(ctx))
	cmd.AddCommand(newGroupStatsCommand(ctx))
	return cmd
}

func renderGroups(groups []store.GroupRecord) string {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{
			strconv.FormatInt(g.ID, 10),
			g.CleanTitle,
			g.MediaType,
			orDash(g.Year),
			strconv.Itoa(g.PathCount),
			g.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Type", "Year", "Paths", "First Seen"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func parseGroupID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid group id %q", s)
	}
	return id, nil
}

func newGroupPathsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "paths <id>",
		Short: "List the paths recorded for a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGroupID(args[0])
			if err != nil {
				return err
			}
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			paths, err := st.Paths(cmd.Context(), id)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

func newGroupDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Forget a group and its paths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGroupID(args[0])
			if err != nil {
				return err
			}
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			deleted, err := st.DeleteGroup(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("no group with id %d", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted group %d\n", id)
			return nil
		},
	}
}

func newGroupStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := st.Stats(cmd.Context())
			if err != nil {
				return err
			}

			types := make([]string, 0, len(stats.ByType))
			for t := range stats.ByType {
				types = append(types, t)
			}
			sort.Strings(types)

			rows := [][]string{
				{"groups", strconv.Itoa(stats.Groups)},
				{"paths", strconv.Itoa(stats.Paths)},
			}
			for _, t := range types {
				rows = append(rows, []string{"groups: " + t, strconv.Itoa(stats.ByType[t])})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Metric", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n", st.Path())
			return nil
		},
	}
}
