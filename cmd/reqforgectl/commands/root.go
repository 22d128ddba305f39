package commands

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veyronhq/reqforge/internal/db"
	"github.com/veyronhq/reqforge/internal/db/repository"
	_ "github.com/mattn/go-sqlite3"
)

var databasePath string

var rootCmd = &cobra.Command{
	Use:   "reqforgectl",
	Short: "Administrative CLI for the reqforge request orchestrator",
	Long: `reqforgectl operates directly on the reqforge database: inspect job
history, repair request counters, and review schedules without going
through the HTTP API.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databasePath, "db", "./reqforge.db", "path to the reqforge SQLite database")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(syncCountsCmd)
	rootCmd.AddCommand(pruneHistoryCmd)
	rootCmd.AddCommand(schedulesCmd)
	rootCmd.AddCommand(requestStatsCmd)
}

// openQueries opens the database read-write and runs pending migrations so
// the CLI never operates on a stale schema.
func openQueries(cmd *cobra.Command) (*repository.Queries, func(), error) {
	conn, err := sql.Open("sqlite3", databasePath+"?_fk=1&_journal_mode=WAL")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.PingContext(cmd.Context()); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := db.Migrate(cmd.Context(), conn); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return repository.New(conn), func() { conn.Close() }, nil
}
