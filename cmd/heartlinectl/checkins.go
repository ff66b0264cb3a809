package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var checkinsLimit int

var checkinsCmd = &cobra.Command{
	Use:   "checkins",
	Short: "List recent proactive check-ins",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openStore()
		if err != nil {
			return err
		}
		defer repo.Close()

		rows, err := repo.ListCheckIns(context.Background(), checkinsLimit)
		if err != nil {
			return fmt.Errorf("list check-ins: %w", err)
		}
		if len(rows) == 0 {
			fmt.Println("No check-ins recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPHONE\tSENT\tRESPONDED\tRESPONSE")
		for _, ci := range rows {
			response := "-"
			if ci.Responded {
				response = oneLine(ci.ResponseText)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				ci.ID,
				ci.PhoneNumber,
				ci.SentAt.Format("2006-01-02 15:04"),
				yesNo(ci.Responded),
				response,
			)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(checkinsCmd)
	checkinsCmd.Flags().IntVar(&checkinsLimit, "limit", 20, "Maximum number of check-ins to show")
}
