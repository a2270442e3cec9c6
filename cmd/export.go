package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mbonsma/cyclelinx/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Write a saved plan's segments as GeoJSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dir, _ := cmd.Flags().GetString("out")

		env, err := initEnv(ctx, "export", true)
		if err != nil {
			return err
		}
		defer env.Close()

		item, err := env.History.Restore(args[0])
		if err != nil {
			return err
		}

		path, err := export.New(env.Catalog.Segments).WriteFile(dir, item)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, path)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", ".", "directory to write the .geojson file to")
	rootCmd.AddCommand(exportCmd)
}
