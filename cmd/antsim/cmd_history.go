package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nvandessel/antsim/internal/backup"
	"github.com/nvandessel/antsim/internal/config"
	"github.com/nvandessel/antsim/internal/history"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded simulation runs",
		Long: `List, inspect and export runs recorded with --history.

The database defaults to history.path from the config, then
~/.antsim/history.db.

Examples:
  antsim history list
  antsim history show 3
  antsim history export 3 -o run3.arrow
  antsim history backup --keep 5
  antsim history verify ~/.antsim/backups/antsim-history-20260101-120000.000000.db`,
	}
	cmd.PersistentFlags().String("db", "", "History database (overrides config)")

	cmd.AddCommand(
		newHistoryListCmd(),
		newHistoryShowCmd(),
		newHistoryExportCmd(),
		newHistoryBackupCmd(),
		newHistoryVerifyCmd(),
	)
	return cmd
}

// openHistoryDB opens the database named by --db, the config, or the
// default location. A missing database is an error; reading never creates
// one.
func openHistoryDB(cmd *cobra.Command) (*history.SQLiteRecorder, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return nil, err
		}
		path = cfg.History.Path
	}
	if path == "" {
		p, err := defaultHistoryPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	path = config.ExpandHome(path)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no history database at %s (record one with 'antsim run --history %s')", path, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return history.OpenSQLite(cmd.Context(), path)
}

func parseRunID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run ID %q", arg)
	}
	return id, nil
}

func newHistoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			db, err := openHistoryDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.ListRuns(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			if limit > 0 && len(runs) > limit {
				runs = runs[:limit]
			}

			if jsonOut {
				return writeJSON(cmd, map[string]any{
					"runs":  runs,
					"count": len(runs),
				})
			}

			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSEED\tANTS\tGRID\tTICKS\tSTARTED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%dx%d\t%d\t%s\n",
					r.ID, r.Seed, r.NumAnts, r.Width, r.Height, r.Ticks, r.StartedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Int("limit", 0, "Show at most N runs (0 for all)")
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN",
		Short: "Show per-tick statistics of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}

			db, err := openHistoryDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			run, err := db.GetRun(cmd.Context(), id)
			if errors.Is(err, history.ErrRunNotFound) {
				return fmt.Errorf("run %d not found", id)
			}
			if err != nil {
				return fmt.Errorf("failed to load run: %w", err)
			}
			ticks, err := db.Ticks(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to load ticks: %w", err)
			}

			if jsonOut {
				return writeJSON(cmd, map[string]any{
					"run":   run,
					"ticks": ticks,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %d: seed %d, %d ants on %dx%d, %d ticks\n\n",
				run.ID, run.Seed, run.NumAnts, run.Width, run.Height, run.Ticks)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "TICK\tMOVED\tCLAIMED\tSTAYED\tIDLE\tTRAIL\tPHEROMONE\tFOUND\t")
			for _, t := range ticks {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
					t.Tick, t.Moved, t.Claimed, t.Stayed, t.Idle, t.Trail, t.Pheromone, t.Found)
			}
			return tw.Flush()
		},
	}
}

func newHistoryExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export RUN",
		Short: "Export a run's tick statistics as an Arrow IPC stream",
		Long: `Write the per-tick statistics of a run as an Apache Arrow IPC stream,
readable by pyarrow, polars, DuckDB and other Arrow tools.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				return fmt.Errorf("--output is required")
			}

			db, err := openHistoryDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := db.GetRun(cmd.Context(), id); err != nil {
				if errors.Is(err, history.ErrRunNotFound) {
					return fmt.Errorf("run %d not found", id)
				}
				return fmt.Errorf("failed to load run: %w", err)
			}
			ticks, err := db.Ticks(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to load ticks: %w", err)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := history.WriteArrow(f, ticks); err != nil {
				f.Close()
				return fmt.Errorf("failed to write Arrow stream: %w", err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close %s: %w", output, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d ticks of run %d to %s\n", len(ticks), id, output)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file (.arrow)")
	return cmd
}

func newHistoryBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the history database and prune old snapshots",
		Long: `Copy the history database to a timestamped file in the backup directory
(default ~/.antsim/backups), then delete old snapshots. A snapshot is kept
if it is among the --keep newest or younger than --max-age.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			dir, _ := cmd.Flags().GetString("dir")
			keep, _ := cmd.Flags().GetInt("keep")
			maxAge, _ := cmd.Flags().GetString("max-age")

			if keep < 1 {
				return fmt.Errorf("--keep must be at least 1, got %d", keep)
			}
			policy := backup.RetentionPolicy(&backup.CountPolicy{MaxCount: keep})
			if maxAge != "" {
				age, err := backup.ParseDuration(maxAge)
				if err != nil {
					return err
				}
				policy = &backup.CompositePolicy{Policies: []backup.RetentionPolicy{policy, &backup.AgePolicy{MaxAge: age}}}
			}

			if dir == "" {
				d, err := backup.DefaultBackupDir()
				if err != nil {
					return err
				}
				dir = d
			}
			dir = config.ExpandHome(dir)

			db, err := openHistoryDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			info, err := backup.Backup(cmd.Context(), db, backup.GenerateBackupPath(dir), nil)
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}
			deleted, err := backup.ApplyRetention(dir, policy)
			if err != nil {
				return fmt.Errorf("retention failed: %w", err)
			}

			if jsonOut {
				return writeJSON(cmd, map[string]any{
					"backup":  info,
					"deleted": deleted,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backed up %s to %s (%d bytes)\n", db.Path(), info.Path, info.Size)
			if len(deleted) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d old backup(s)\n", len(deleted))
			}
			return nil
		},
	}
	cmd.Flags().String("dir", "", "Backup directory (default ~/.antsim/backups)")
	cmd.Flags().Int("keep", 10, "Keep at least the N newest backups")
	cmd.Flags().String("max-age", "", "Also keep backups younger than this (e.g. 30d, 2w, 72h)")
	return cmd
}

func newHistoryVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify FILE",
		Short: "Check that a backup is a readable history database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			res, err := backup.Verify(cmd.Context(), config.ExpandHome(args[0]))
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d run(s), %d tick(s)\n", res.Path, res.Runs, res.Ticks)
			return nil
		},
	}
}
