package planner

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/KaramelBytes/tabloom/internal/analysis"
)

// ParsePlan extracts a plan from model output. Code fences and surrounding
// prose are ignored; the object may be wrapped as {"plan": {...}}. Each focus
// area accepts "metrics" as an array or a comma-separated string and the date
// field as "dateField" or "date_field".
func ParsePlan(text string) (analysis.Plan, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrEmptyPlan)
	}
	raw := text[start : end+1]
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: response is not valid JSON", ErrEmptyPlan)
	}
	root := gjson.Parse(raw)
	if inner := root.Get("plan"); inner.IsObject() {
		root = inner
	}

	plan := analysis.Plan{}
	root.ForEach(func(key, val gjson.Result) bool {
		if !val.IsObject() {
			return true
		}
		metrics := parseMetrics(val.Get("metrics"))
		if len(metrics) == 0 {
			return true
		}
		date := val.Get("dateField").String()
		if date == "" {
			date = val.Get("date_field").String()
		}
		plan[key.String()] = analysis.FocusPlan{Metrics: metrics, DateField: date}
		return true
	})
	if len(plan) == 0 {
		return nil, ErrEmptyPlan
	}
	return plan, nil
}

func parseMetrics(v gjson.Result) []string {
	var parts []string
	switch {
	case v.IsArray():
		for _, m := range v.Array() {
			parts = append(parts, m.String())
		}
	case v.Type == gjson.String:
		parts = strings.Split(v.String(), ",")
	}
	var out []string
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
