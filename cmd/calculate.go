package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mbonsma/cyclelinx/internal/model"
)

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Score a plan and print its summary",
	Long: "Starts from a precomputed budget (--budget) or an empty plan, toggles the given projects " +
		"(--projects), scores the result and prints per-metric averages against the baseline.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		budget, _ := cmd.Flags().GetInt("budget")
		projectsFlag, _ := cmd.Flags().GetString("projects")
		baseline, _ := cmd.Flags().GetString("baseline")
		save, _ := cmd.Flags().GetString("save")
		format, _ := cmd.Flags().GetString("format")

		if err := validFormat(format); err != nil {
			return err
		}
		projects, err := parseProjectIDs(projectsFlag)
		if err != nil {
			return err
		}
		if budget == 0 && projects.Len() == 0 {
			return eris.New("calculate: give --budget, --projects or both")
		}

		env, err := initEnv(ctx, "calculate", false)
		if err != nil {
			return err
		}
		defer env.Close()

		ctl := env.Controller()
		if budget != 0 {
			if err := ctl.SelectBudget(ctx, budget); err != nil {
				return err
			}
		}
		if projects.Len() > 0 {
			for _, id := range projects.Sorted() {
				ctl.ToggleProjects(model.NewProjectSet(id))
			}
			if err := ctl.Calculate(ctx); err != nil {
				return err
			}
		}

		if baseline != "" {
			if err := ctl.SetBaseline(baseline); err != nil {
				return eris.Wrapf(err, "calculate: baseline %q", baseline)
			}
		}
		if save != "" {
			if _, err := ctl.SaveHistory(ctx, save); err != nil {
				return eris.Wrapf(err, "calculate: save %q", save)
			}
			zap.L().Info("plan saved", zap.String("name", save))
		}

		snap := ctl.Snapshot()
		zap.L().Info("plan scored",
			zap.Int("projects", len(snap.Confirmed)),
			zap.Int("areas", snap.ScoredAreas),
		)
		return writeSummary(os.Stdout, snap.Summary, model.MetricNames(env.Catalog.Metrics), format)
	},
}

func init() {
	calculateCmd.Flags().Int("budget", 0, "start from this precomputed budget id")
	calculateCmd.Flags().String("projects", "", "comma-separated project ids to toggle")
	calculateCmd.Flags().String("baseline", "", "compare against this saved plan instead of the default scores")
	calculateCmd.Flags().String("save", "", "save the scored plan to history under this name")
	calculateCmd.Flags().String("format", formatTable, "output format: table, json or yaml")
	rootCmd.AddCommand(calculateCmd)
}
