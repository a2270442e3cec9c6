package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mbonsma/cyclelinx/internal/model"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage saved plans",
	Long:  "Commands for listing, deleting, and importing saved plans in the configured history store.",
}

// -- history list --

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved plans",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		format, _ := cmd.Flags().GetString("format")
		if err := validFormat(format); err != nil {
			return err
		}
		if err := cfg.Validate("history"); err != nil {
			return err
		}

		st, hist, err := initHistory(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		items := hist.List()
		if len(items) == 0 {
			fmt.Fprintln(os.Stderr, "No saved plans.")
			return nil
		}
		return writeHistory(os.Stdout, items, format)
	},
}

// -- history delete --

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("history"); err != nil {
			return err
		}

		st, hist, err := initHistory(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		if err := hist.Remove(ctx, args[0]); err != nil {
			return eris.Wrap(err, "history delete")
		}
		fmt.Fprintf(os.Stderr, "Deleted %q.\n", args[0])
		return nil
	},
}

// -- history import --

var historyImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Bulk-load saved plans from a JSON array",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("history"); err != nil {
			return err
		}

		items, err := readHistoryFile(args[0])
		if err != nil {
			return err
		}

		st, _, err := initHistory(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("history import: history.driver must be sqlite or postgres")
		}
		defer st.Close() //nolint:errcheck

		n, err := st.Import(ctx, items)
		if err != nil {
			return eris.Wrap(err, "history import")
		}
		zap.L().Info("history imported", zap.Int64("rows", n), zap.String("file", args[0]))
		fmt.Fprintf(os.Stderr, "Imported %d plans.\n", n)
		return nil
	},
}

// readHistoryFile decodes a JSON array of saved plans and rejects unnamed
// or duplicated entries before anything is written.
func readHistoryFile(path string) ([]model.HistoryItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	var items []model.HistoryItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, eris.Wrapf(err, "parse %s", path)
	}
	seen := make(map[string]bool, len(items))
	for i, it := range items {
		if it.Name == "" {
			return nil, eris.Errorf("parse %s: item %d has no name", path, i)
		}
		if seen[it.Name] {
			return nil, eris.Errorf("parse %s: duplicate name %q", path, it.Name)
		}
		seen[it.Name] = true
	}
	return items, nil
}

func init() {
	historyListCmd.Flags().String("format", formatTable, "output format: table, json or yaml")
	historyCmd.AddCommand(historyListCmd, historyDeleteCmd, historyImportCmd)
	rootCmd.AddCommand(historyCmd)
}
