package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/tabloom/internal/analysis"
	"github.com/KaramelBytes/tabloom/internal/dataset"
	"github.com/KaramelBytes/tabloom/internal/planner"
	"github.com/KaramelBytes/tabloom/internal/utils"
)

var (
	abLoad   loadFlags
	abPlan   planFlags
	abOutDir string
	abFormat string
	abJobs   int
	abQuiet  bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple datasets concurrently and write one report per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		opt, err := abLoad.options()
		if err != nil {
			return err
		}
		depth, err := abPlan.analysisDepth()
		if err != nil {
			return err
		}
		ext, err := formatExt(abFormat)
		if err != nil {
			return err
		}
		p, err := abPlan.newPlanner()
		if err != nil {
			return err
		}
		engine := newEngine()

		var (
			mu   sync.Mutex
			done int
		)
		total := len(files)
		g, ctx := errgroup.WithContext(cmd.Context())
		if abJobs > 0 {
			g.SetLimit(abJobs)
		}
		dests := utils.UniqueOutputPaths(files, abOutDir, ext)
		for i, path := range files {
			path := path
			dest := dests[i]
			g.Go(func() error {
				ds, err := dataset.LoadFile(path, opt)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				var plan analysis.Plan
				if !ds.Empty() {
					plan = planner.Resolve(ctx, p, planner.Request{
						FocusAreas: abPlan.focus,
						Prompt:     abPlan.prompt,
						Fields:     planner.Describe(ds),
					}, cfg.PlannerTimeout(), log.With().Str("file", ds.Name).Logger())
				}
				findings, err := engine.Analyze(ds, plan, abPlan.targets, depth)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				out, err := render(findings, abFormat)
				if err != nil {
					return err
				}
				if err := utils.SafeWriteFile(dest, out); err != nil {
					return fmt.Errorf("write %s: %w", dest, err)
				}

				mu.Lock()
				defer mu.Unlock()
				done++
				if !abQuiet {
					fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] ✓ %s → %s\n", done, total, filepath.Base(path), dest)
				}
				return nil
			})
		}
		return g.Wait()
	},
}

// expandInputs resolves globs, keeps literal paths that exist, and
// de-duplicates the result in sorted order.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	abLoad.register(analyzeBatchCmd)
	abPlan.register(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "directory for reports (default: next to each input)")
	analyzeBatchCmd.Flags().StringVarP(&abFormat, "format", "f", "markdown", "report format: markdown|json|html")
	analyzeBatchCmd.Flags().IntVarP(&abJobs, "jobs", "j", 4, "files analyzed concurrently (0 = unlimited)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress output")
}
