package main

import (
	"os"

	"github.com/spf13/cobra"
)

var budgetsCmd = &cobra.Command{
	Use:   "budgets",
	Short: "List the precomputed budgets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := validFormat(format); err != nil {
			return err
		}
		if err := cfg.Validate("catalog"); err != nil {
			return err
		}
		client, err := newScoringClient(cfg.Scoring)
		if err != nil {
			return err
		}
		budgets, err := client.Budgets(cmd.Context())
		if err != nil {
			return err
		}
		return writeBudgets(os.Stdout, budgets, format)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List the accessibility metrics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := validFormat(format); err != nil {
			return err
		}
		if err := cfg.Validate("catalog"); err != nil {
			return err
		}
		client, err := newScoringClient(cfg.Scoring)
		if err != nil {
			return err
		}
		metrics, err := client.Metrics(cmd.Context())
		if err != nil {
			return err
		}
		return writeMetrics(os.Stdout, metrics, format)
	},
}

func init() {
	budgetsCmd.Flags().String("format", formatTable, "output format: table, json or yaml")
	metricsCmd.Flags().String("format", formatTable, "output format: table, json or yaml")
	rootCmd.AddCommand(budgetsCmd, metricsCmd)
}
