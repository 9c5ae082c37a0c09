package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var lookupOutput string

var lookupCmd = &cobra.Command{
	Use:   "lookup <phone>",
	Short: "Resolve a phone number against Streak and print the matches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(cfg, "lookup")
		if err != nil {
			return err
		}

		resp, err := env.Engine.Resolve(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "lookup failed")
		}
		zap.L().Debug("lookup complete",
			zap.String("query", resp.Query),
			zap.Int("matches", len(resp.Matches)),
			zap.Int("cached_pipelines", env.Stages.Len()),
		)
		return writeOutput(cmd.OutOrStdout(), lookupOutput, resp)
	},
}

func init() {
	lookupCmd.Flags().StringVarP(&lookupOutput, "output", "o", "json", "output format: json or yaml")
	rootCmd.AddCommand(lookupCmd)
}
