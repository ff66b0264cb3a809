package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <phone>",
	Short: "Show recent messages for one user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openStore()
		if err != nil {
			return err
		}
		defer repo.Close()

		rows, err := repo.RecentConversations(context.Background(), args[0], historyLimit)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		if len(rows) == 0 {
			fmt.Println("No messages recorded for that number.")
			return nil
		}

		// The store returns newest first; flip so the transcript reads top down.
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tDIRECTION\tRISK\tBODY")
		for _, rec := range rows {
			risk := string(rec.RiskLevel)
			if len(rec.RiskCategories) > 0 {
				risk += " (" + strings.Join(rec.RiskCategories, ",") + ")"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				rec.CreatedAt.Format("2006-01-02 15:04"),
				rec.Direction,
				risk,
				oneLine(rec.Body),
			)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 30, "Maximum number of messages to show")
}
