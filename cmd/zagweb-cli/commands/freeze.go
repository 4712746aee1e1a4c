package commands

import (
	"context"
	"fmt"
	"time"
	"zagweb-backend/lib/scrapers/zagweb"
	"zagweb-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(freezeCmd)
	rootCmd.AddCommand(unfreezeCmd)
}

func setCardState(ctx context.Context, desired zagweb.CardState) {
	cfg := loadConfig()
	client := createClient(cfg)

	ctx, cancel := context.WithTimeout(ctx, time.Minute*2)
	defer cancel()

	err := client.SetCardState(ctx, cfg.StudentId, cfg.Pin, desired)
	if err != nil {
		serviceutil.Fatal("failed to set card state", err)
	}
	// the portal gives no confirmation beyond accepting the request
	fmt.Printf("Requested card state: %s\n", desired)
}

var freezeCmd = &cobra.Command{
	Use:   "freeze",
	Short: "Disables the card for purchases.",
	Run: func(cmd *cobra.Command, args []string) {
		setCardState(cmd.Context(), zagweb.CardStateFrozen)
	},
}

var unfreezeCmd = &cobra.Command{
	Use:   "unfreeze",
	Short: "Re-enables a frozen card.",
	Run: func(cmd *cobra.Command, args []string) {
		setCardState(cmd.Context(), zagweb.CardStateActive)
	},
}
