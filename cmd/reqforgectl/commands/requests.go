package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	permsvc "github.com/veyronhq/reqforge/internal/services/permissions"
)

var syncCountsCmd = &cobra.Command{
	Use:   "sync-counts",
	Short: "Recompute per-user pending request counts from the requests table",
	RunE: func(cmd *cobra.Command, args []string) error {
		queries, closeDB, err := openQueries(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		engine := permsvc.NewEngine(queries, nil)
		if err := engine.SyncRequestCounts(cmd.Context()); err != nil {
			return fmt.Errorf("failed to sync request counts: %w", err)
		}

		fmt.Println("request counts synced")
		return nil
	},
}

var requestStatsCmd = &cobra.Command{
	Use:   "request-stats",
	Short: "Show request counts by lifecycle state",
	RunE: func(cmd *cobra.Command, args []string) error {
		queries, closeDB, err := openQueries(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		stats, err := queries.GetRequestStatistics(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load statistics: %w", err)
		}

		fmt.Printf("total:      %d\n", stats.TotalRequests)
		fmt.Printf("pending:    %d\n", stats.PendingRequests)
		fmt.Printf("in flight:  %d\n", stats.ApprovedRequests)
		fmt.Printf("available:  %d\n", stats.FulfilledRequests)
		fmt.Printf("rejected:   %d\n", stats.DeniedRequests)

		if usage, err := queries.GetAPIUsageToday(cmd.Context()); err == nil {
			fmt.Printf("tmdb calls today: %d\n", usage)
		}
		return nil
	},
}
