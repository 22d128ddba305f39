package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/veyronhq/reqforge/internal/db/repository"
)

var historyLimit int64

var historyCmd = &cobra.Command{
	Use:   "history [job-name]",
	Short: "Show recent job executions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queries, closeDB, err := openQueries(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		var executions []repository.JobExecution
		if len(args) == 1 {
			executions, err = queries.ListJobExecutionsByName(cmd.Context(), repository.ListJobExecutionsByNameParams{
				JobName: args[0],
				Limit:   historyLimit,
				Offset:  0,
			})
		} else {
			executions, err = queries.ListJobExecutions(cmd.Context(), repository.ListJobExecutionsParams{
				Limit:  historyLimit,
				Offset: 0,
			})
		}
		if err != nil {
			return fmt.Errorf("failed to list executions: %w", err)
		}

		if len(executions) == 0 {
			fmt.Println("no executions recorded")
			return nil
		}

		for _, execution := range executions {
			duration := "-"
			if execution.DurationSeconds.Valid {
				duration = fmt.Sprintf("%.1fs", execution.DurationSeconds.Float64)
			}
			detail := ""
			if execution.ErrorMessage.Valid {
				detail = " error=" + execution.ErrorMessage.String
			}
			fmt.Printf("%-6d %-28s %-8s %-9s %-8s %s%s\n",
				execution.ID,
				execution.JobName,
				execution.Status,
				execution.TriggeredBy,
				duration,
				execution.StartedAt.Format(time.RFC3339),
				detail,
			)
		}
		return nil
	},
}

var pruneKeepDays int

var pruneHistoryCmd = &cobra.Command{
	Use:   "prune-history",
	Short: "Delete job executions older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		queries, closeDB, err := openQueries(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		cutoff := time.Now().UTC().AddDate(0, 0, -pruneKeepDays)
		deleted, err := queries.DeleteJobExecutionsBefore(cmd.Context(), cutoff)
		if err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
		fmt.Printf("deleted %d execution rows older than %d days\n", deleted, pruneKeepDays)
		return nil
	},
}

var schedulesCmd = &cobra.Command{
	Use:   "schedules",
	Short: "Show persisted job schedules",
	RunE: func(cmd *cobra.Command, args []string) error {
		queries, closeDB, err := openQueries(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		schedules, err := queries.GetJobSchedules(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list schedules: %w", err)
		}

		for _, schedule := range schedules {
			lastRun := "never"
			if schedule.LastRun.Valid {
				lastRun = schedule.LastRun.Time.Format(time.RFC3339)
			}
			state := "disabled"
			if schedule.Enabled {
				state = "enabled"
			}
			fmt.Printf("%-28s %-9s every %-8s last run %s\n",
				schedule.JobName,
				state,
				(time.Duration(schedule.IntervalSeconds) * time.Second).String(),
				lastRun,
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int64Var(&historyLimit, "limit", 50, "maximum executions to show")
	pruneHistoryCmd.Flags().IntVar(&pruneKeepDays, "keep-days", 90, "days of history to keep")
}
