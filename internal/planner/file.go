package planner

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tabloom/internal/analysis"
)

// FilePlanner reads a plan from a YAML or JSON file.
type FilePlanner struct {
	Path string
}

// Plan implements Planner. When the request names focus areas, only those
// entries of the file are returned.
func (p FilePlanner) Plan(ctx context.Context, req Request) (analysis.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	var all analysis.Plan
	if err := yaml.Unmarshal(b, &all); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", p.Path, err)
	}
	plan := analysis.Plan{}
	for area, fp := range all {
		if len(req.FocusAreas) == 0 || containsFold(req.FocusAreas, area) {
			plan[area] = fp
		}
	}
	if !plan.Valid() {
		return nil, ErrEmptyPlan
	}
	return plan, nil
}

func containsFold(xs []string, s string) bool {
	for _, x := range xs {
		if strings.EqualFold(strings.TrimSpace(x), s) {
			return true
		}
	}
	return false
}
