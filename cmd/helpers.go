package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabloom/internal/ai"
	"github.com/KaramelBytes/tabloom/internal/analysis"
	"github.com/KaramelBytes/tabloom/internal/dataset"
	"github.com/KaramelBytes/tabloom/internal/planner"
	"github.com/KaramelBytes/tabloom/internal/utils"
)

// loadFlags are the dataset reader flags shared by commands that read files.
type loadFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	maxRows    int
	sheetName  string
	sheetIndex int
	dataPath   string
	keepUnits  bool
}

func (l *loadFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&l.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	c.Flags().StringVar(&l.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	c.Flags().StringVar(&l.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	c.Flags().IntVar(&l.maxRows, "max-rows", 100000, "maximum rows to process (0 = unlimited)")
	c.Flags().StringVar(&l.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	c.Flags().IntVar(&l.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	c.Flags().StringVar(&l.dataPath, "data-path", "", "JSON: path to the record array (e.g. result.rows)")
	c.Flags().BoolVar(&l.keepUnits, "keep-units", false, "keep unit suffixes like '[mg/L]' in column names")
}

func (l *loadFlags) options() (dataset.Options, error) {
	opt := dataset.DefaultOptions()
	opt.MaxRows = l.maxRows
	opt.SheetName = l.sheetName
	opt.SheetIndex = l.sheetIndex
	opt.DataPath = l.dataPath
	opt.SplitUnits = !l.keepUnits
	if l.delimiter != "" {
		switch l.delimiter {
		case ",":
			opt.Delimiter = ','
		case "\t", "tab":
			opt.Delimiter = '\t'
		case ";":
			opt.Delimiter = ';'
		default:
			return opt, fmt.Errorf("unsupported --delimiter: %s", l.delimiter)
		}
	}
	// Locale separators
	switch strings.ToLower(strings.TrimSpace(l.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", l.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(l.thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", l.thousands)
	}
	return opt, nil
}

// planFlags select where the metric plan comes from.
type planFlags struct {
	planFile string
	focus    []string
	prompt   string
	targets  []string
	depth    string
	noLLM    bool
}

func (p *planFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&p.planFile, "plan", "", "YAML/JSON plan file (skips the LLM planner)")
	c.Flags().StringSliceVar(&p.focus, "focus", nil, "focus areas for the plan (comma-separated, repeatable)")
	c.Flags().StringVar(&p.prompt, "prompt", "", "free-text request passed to the planner")
	c.Flags().StringSliceVar(&p.targets, "targets", nil, "target fields for metrics (default: all numeric fields)")
	c.Flags().StringVar(&p.depth, "depth", "", "analysis depth: basic|detailed (default from config)")
	c.Flags().BoolVar(&p.noLLM, "no-llm", false, "never call the LLM planner")
}

func (p *planFlags) analysisDepth() (analysis.Depth, error) {
	d := p.depth
	if d == "" {
		d = cfg.DefaultDepth
	}
	return analysis.ParseDepth(d)
}

// newPlanner picks the plan source: a plan file wins, then the configured
// LLM provider. It returns nil when neither is available.
func (p *planFlags) newPlanner() (planner.Planner, error) {
	if p.planFile != "" {
		return planner.FilePlanner{Path: p.planFile}, nil
	}
	if p.noLLM || cfg.PlannerProvider == "" {
		return nil, nil
	}
	rt, ok := ai.GetRuntime(cfg.PlannerProvider, cfg.RuntimeConfig())
	if !ok {
		return nil, fmt.Errorf("unknown planner provider %q (available: %s)", cfg.PlannerProvider, strings.Join(ai.Providers(), ", "))
	}
	return planner.NewLLMPlanner(rt, cfg.PlannerProvider, cfg.PlannerModel, log), nil
}

func newEngine() *analysis.Engine {
	return analysis.NewEngine(analysis.Options{Parallelism: cfg.Parallelism})
}

// formatExt validates a report format and returns its file extension.
func formatExt(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "markdown", "md":
		return ".md", nil
	case "json":
		return ".json", nil
	case "html":
		return ".html", nil
	}
	return "", fmt.Errorf("unsupported --format: %s (use markdown|json|html)", format)
}

// render encodes findings in the requested output format.
func render(f *analysis.Findings, format string) ([]byte, error) {
	ext, err := formatExt(format)
	if err != nil {
		return nil, err
	}
	switch ext {
	case ".json":
		return utils.PrettyJSON(f)
	case ".html":
		return f.HTML(), nil
	}
	return []byte(f.Markdown()), nil
}
