package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabloom/internal/analysis"
	"github.com/KaramelBytes/tabloom/internal/dataset"
	"github.com/KaramelBytes/tabloom/internal/planner"
	"github.com/KaramelBytes/tabloom/internal/utils"
)

var (
	anaLoad       loadFlags
	anaPlan       planFlags
	anaOutputPath string
	anaFormat     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a CSV/TSV/XLSX/JSON dataset and report findings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opt, err := anaLoad.options()
		if err != nil {
			return err
		}
		depth, err := anaPlan.analysisDepth()
		if err != nil {
			return err
		}
		if _, err := formatExt(anaFormat); err != nil {
			return err
		}
		p, err := anaPlan.newPlanner()
		if err != nil {
			return err
		}

		ds, err := dataset.LoadFile(path, opt)
		if err != nil {
			return err
		}
		log.Debug().Str("file", ds.Name).Int("rows", ds.Len()).Int("columns", len(ds.Columns)).Msg("dataset loaded")

		var plan analysis.Plan
		if !ds.Empty() {
			plan = planner.Resolve(cmd.Context(), p, planner.Request{
				FocusAreas: anaPlan.focus,
				Prompt:     anaPlan.prompt,
				Fields:     planner.Describe(ds),
			}, cfg.PlannerTimeout(), log)
		}
		findings, err := newEngine().Analyze(ds, plan, anaPlan.targets, depth)
		if err != nil {
			return err
		}
		out, err := render(findings, anaFormat)
		if err != nil {
			return err
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaLoad.register(analyzeCmd)
	anaPlan.register(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().StringVarP(&anaFormat, "format", "f", "markdown", "report format: markdown|json|html")
}
