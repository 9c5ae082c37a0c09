package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ringstreak/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ringstreak",
	Short: "Match phone calls to Streak CRM contacts and boxes",
	Long:  "Normalizes phone numbers, searches Streak for the matching contact and its boxes, enriches them with stage and last-email context, and streams the result to call popups.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
