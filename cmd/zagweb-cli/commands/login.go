package commands

import (
	"context"
	"fmt"
	"time"
	"zagweb-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Validates the configured credentials against the portal.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := createClient(cfg)

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute*2)
		defer cancel()

		err := client.Authenticate(ctx, cfg.StudentId, cfg.Pin)
		if err != nil {
			serviceutil.Fatal("login failed", err)
		}
		fmt.Println("Credentials are valid.")
	},
}
