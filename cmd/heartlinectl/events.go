package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var eventsLimit int

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recent crisis events",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openStore()
		if err != nil {
			return err
		}
		defer repo.Close()

		events, err := repo.ListCrisisEvents(context.Background(), eventsLimit)
		if err != nil {
			return fmt.Errorf("list crisis events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No crisis events recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPHONE\tLEVEL\tESCALATED\tRESOLVED\tCREATED\tPREVIEW")
		for _, ev := range events {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				ev.ID,
				ev.PhoneNumber,
				ev.RiskLevel,
				yesNo(ev.Escalated),
				yesNo(ev.Resolved),
				ev.CreatedAt.Format("2006-01-02 15:04"),
				oneLine(ev.MessagePreview),
			)
		}
		return w.Flush()
	},
}

// oneLine flattens newlines so a preview never breaks the table.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 20, "Maximum number of events to show")
}
