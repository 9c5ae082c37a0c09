package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/ringstreak/pkg/phone"
)

var phoneOutput string

type phoneReport struct {
	Input      string   `json:"input"`
	Normalized *string  `json:"normalized"`
	Variants   []string `json:"variants"`
}

var phoneCmd = &cobra.Command{
	Use:   "phone <raw>",
	Short: "Normalize a phone number and list its search variants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("phone"); err != nil {
			return err
		}

		report := phoneReport{Input: args[0], Variants: []string{}}
		if norm, ok := phone.Normalize(args[0]); ok {
			report.Normalized = &norm
			report.Variants = phone.Variants(norm)
		}
		return writeOutput(cmd.OutOrStdout(), phoneOutput, report)
	},
}

func init() {
	phoneCmd.Flags().StringVarP(&phoneOutput, "output", "o", "json", "output format: json or yaml")
	rootCmd.AddCommand(phoneCmd)
}
