// heartlinectl is the operator CLI for inspecting a heartline database and
// exercising the risk assessor from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/heartlinehq/heartline/internal/store"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:   "heartlinectl",
	Short: "Operator tooling for the heartline service",
	Long: `heartlinectl inspects a running heartline installation.

It reads the same SQLite database the server writes, so it can be pointed at
a live instance (the database runs in WAL mode) or at a copy.

Commands:
  assess    score a message with the risk assessor
  events    list recent crisis events
  checkins  list recent proactive check-ins
  history   show recent messages for one user`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath(), "Path to the heartline SQLite database")
}

func defaultDBPath() string {
	if v := os.Getenv("DB_PATH"); v != "" {
		return v
	}
	return "./data/heartline.db"
}

// openStore opens the database named by --db.
func openStore() (store.Repository, error) {
	repo, err := store.NewSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}
	return repo, nil
}
