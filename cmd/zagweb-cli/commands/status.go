package commands

import (
	"context"
	"fmt"
	"os"
	"time"
	"zagweb-backend/lib/scrapers/zagweb"
	"zagweb-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var budgetUntil *string

func init() {
	budgetUntil = statusCmd.Flags().String(
		"until", "",
		"Last day of the semester (YYYY-MM-DD), prints a per-week budget.",
	)
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status [--until <YYYY-MM-DD>]",
	Short: "Fetches the card balance, swipe count, freeze state and ledger.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := createClient(cfg)

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute*2)
		defer cancel()

		status, err := client.FetchStatus(ctx, cfg.StudentId, cfg.Pin)
		if err != nil {
			serviceutil.Fatal("failed to fetch status", err)
		}

		fmt.Printf("Balance:     %s\n", status.Balance.Pretty())
		fmt.Printf("Swipes left: %s\n", status.SwipesRemaining)
		fmt.Printf("Card state:  %s\n", status.CardState)
		if status.CardState.Frozen() {
			fmt.Println("Your card is frozen, run `zagweb-cli unfreeze` to re-enable it.")
		}

		if *budgetUntil != "" {
			until, err := time.Parse("2006-01-02", *budgetUntil)
			if err != nil {
				serviceutil.Fatal("failed to parse --until", err)
			}
			perWeek, ok := zagweb.PerWeek(status.Balance, time.Now(), until)
			if ok {
				fmt.Printf("Budget:      $%.2f per week until %s\n", perWeek, *budgetUntil)
			}
		}

		if len(status.Transactions) == 0 {
			fmt.Println("\nNo recent transactions.")
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Date", "Venue", "Amount"})
		for _, section := range zagweb.GroupByDay(status.Transactions) {
			for _, txn := range section.Transactions {
				t.AppendRow(table.Row{
					txn.Date.Format("01/02 03:04 PM"),
					txn.Venue,
					txn.PrettyAmount(),
				})
			}
			t.AppendSeparator()
		}
		t.Render()
	},
}
