package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/mellowboard/internal/app"
	"github.com/noah-isme/mellowboard/internal/dto"
	"github.com/noah-isme/mellowboard/internal/models"
	"github.com/noah-isme/mellowboard/pkg/database"
	"github.com/noah-isme/mellowboard/pkg/storage"
)

func newMigrateCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := database.NewPostgres(cmd.Context(), env.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}

func newIngestCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Run one ingestion from the spreadsheet",
		Long: `Fetch the task, identity and meeting sheets, append new activity logs and
refresh participant totals, streaks and freeze cards. Exits non-zero when the run fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.withApp(cmd.Context(), func(a *app.App) error {
				ingestion, err := a.Ingestion(cmd.Context())
				if err != nil {
					return err
				}
				result := ingestion.Run(cmd.Context(), models.TriggerCLI)
				if result.Err != nil {
					return fmt.Errorf("ingestion run %s: %w", result.RunID, result.Err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "run %s inserted %d logs\n", result.RunID, result.InsertedCount)
				return nil
			})
		},
	}
}

func newLeaderboardCmd(env *cliEnv) *cobra.Command {
	var active bool
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query := dto.LeaderboardQuery{}
			if cmd.Flags().Changed("active") {
				query.Active = &active
			}
			return env.withApp(cmd.Context(), func(a *app.App) error {
				board, err := a.Leaderboard.List(cmd.Context(), query)
				if err != nil {
					return err
				}
				return printLeaderboard(cmd.OutOrStdout(), board.Entries)
			})
		},
	}
	cmd.Flags().BoolVar(&active, "active", false, "only active (true) or inactive (false) participants")
	return cmd
}

func newExportCmd(env *cliEnv) *cobra.Command {
	var (
		format string
		dir    string
		active bool
		maxAge time.Duration
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the leaderboard as CSV or PDF into a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query := dto.LeaderboardExportQuery{Format: models.ExportFormat(format)}
			if cmd.Flags().Changed("active") {
				query.Active = &active
			}
			out, err := storage.NewExportDir(dir)
			if err != nil {
				return err
			}
			if maxAge > 0 {
				removed, err := out.PruneOlderThan(maxAge, time.Now())
				if err != nil {
					return err
				}
				for _, name := range removed {
					fmt.Fprintf(cmd.OutOrStdout(), "pruned %s\n", name)
				}
			}
			return env.withApp(cmd.Context(), func(a *app.App) error {
				file, err := a.Leaderboard.Export(cmd.Context(), query)
				if err != nil {
					return err
				}
				path, err := out.Save(file.Filename, file.Body)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", string(models.ExportFormatCSV), "csv or pdf")
	cmd.Flags().StringVar(&dir, "dir", "./exports", "output directory")
	cmd.Flags().BoolVar(&active, "active", false, "only active (true) or inactive (false) participants")
	cmd.Flags().DurationVar(&maxAge, "prune", 0, "remove earlier exports older than this before writing")
	return cmd
}

func newRunsCmd(env *cliEnv) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent ingestion runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 || limit > 100 {
				return fmt.Errorf("--limit must be between 1 and 100, got %d", limit)
			}
			return env.withApp(cmd.Context(), func(a *app.App) error {
				runs, err := a.Runs.ListRecent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return printRuns(cmd.OutOrStdout(), runs)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}

func printLeaderboard(w io.Writer, entries []dto.LeaderboardEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tHANDLE\tACTIVE\tPOINTS\tSTREAK\tFREEZE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\n",
			e.Rank, e.Name, dash(e.Handle), strconv.FormatBool(e.Active), e.TotalPoints, e.Streak, e.FreezeCardCount)
	}
	return tw.Flush()
}

func printRuns(w io.Writer, runs []models.IngestionRun) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTRIGGER\tSTATUS\tINSERTED\tSTARTED\tDURATION\tERROR")
	for _, r := range runs {
		errMsg := "-"
		if r.ErrorMessage != nil {
			errMsg = *r.ErrorMessage
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.ID, r.Trigger, r.Status, r.InsertedCount,
			r.StartedAt.Format(time.RFC3339),
			(time.Duration(r.DurationMs) * time.Millisecond).String(),
			errMsg)
	}
	return tw.Flush()
}

func dash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
