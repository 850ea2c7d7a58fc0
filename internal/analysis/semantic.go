package analysis

import (
	"math"
	"strings"
	"unicode"

	"github.com/KaramelBytes/tabloom/internal/dataset"
)

// Inferred purposes.
const (
	PurposeIdentifier          = "identifier"
	PurposeErrorMetric         = "error_metric"
	PurposeIncidentMetric      = "incident_metric"
	PurposePercentage          = "percentage"
	PurposePerformanceMetric   = "performance_metric"
	PurposePriorityLevel       = "priority_level"
	PurposeTemporal            = "temporal"
	PurposeSequentialTemporal  = "sequential_temporal"
	PurposeCategoricalGrouping = "categorical_grouping"
	PurposeMeasurementMetric   = "measurement_metric"
)

// SemanticMeaning is the business interpretation of a field.
type SemanticMeaning struct {
	InferredPurpose    string   `json:"inferredPurpose"`
	BusinessRole       string   `json:"businessRole"`
	VisualizationRoles []string `json:"visualizationRoles"`
	// Source is "keyword" for name matches and "value_shape" for fallbacks.
	Source string `json:"source"`
}

type semanticRule struct {
	purpose string
	match   func(name string) bool
}

// semanticRules is evaluated in order; the first match wins.
var semanticRules = []semanticRule{
	{PurposeIdentifier, isIdentifierName},
	{PurposeErrorMetric, containsAny("error", "fail", "bug", "defect", "exception", "crash")},
	{PurposeIncidentMetric, containsAny("incident", "ticket", "issue", "outage", "alert", "escalation")},
	{PurposePercentage, containsAny("percent", "pct", "rate", "proportion", "share")},
	{PurposePerformanceMetric, containsAny("duration", "latency", "throughput", "response", "speed", "performance", "sla", "mttr")},
	{PurposePriorityLevel, containsAny("priority", "severity", "urgency", "criticality")},
	{PurposeTemporal, containsAny("date", "time", "timestamp", "created", "updated", "month", "year", "week", "day", "period")},
}

type purposeProfile struct {
	role string
	vis  []string
}

var purposeProfiles = map[string]purposeProfile{
	PurposeIdentifier:          {"reference", []string{"label", "tooltip"}},
	PurposeErrorMetric:         {"quality_indicator", []string{"bar", "trend_line", "alert_badge"}},
	PurposeIncidentMetric:      {"operational_kpi", []string{"kpi_card", "trend_line", "bar"}},
	PurposePercentage:          {"efficiency_indicator", []string{"gauge", "progress_bar", "kpi_card"}},
	PurposePerformanceMetric:   {"performance_kpi", []string{"line", "histogram", "kpi_card"}},
	PurposePriorityLevel:       {"triage_dimension", []string{"stacked_bar", "pie", "filter"}},
	PurposeTemporal:            {"time_axis", []string{"x_axis", "timeline", "filter"}},
	PurposeSequentialTemporal:  {"time_axis", []string{"x_axis", "timeline"}},
	PurposeCategoricalGrouping: {"dimension", []string{"group_by", "pie", "bar", "filter"}},
	PurposeMeasurementMetric:   {"measure", []string{"y_axis", "histogram", "kpi_card"}},
}

// InferFieldMeanings maps each named field to its business meaning.
func InferFieldMeanings(names []string, ds *dataset.Dataset) (map[string]SemanticMeaning, error) {
	if len(names) == 0 {
		return nil, &InputError{Message: "No fields provided"}
	}
	out := make(map[string]SemanticMeaning, len(names))
	for _, n := range names {
		out[n] = inferMeaning(n, ds)
	}
	return out, nil
}

func inferMeaning(name string, ds *dataset.Dataset) SemanticMeaning {
	for _, r := range semanticRules {
		if r.match(name) {
			return meaning(r.purpose, "keyword")
		}
	}
	var values []any
	if ds != nil {
		values = ds.Values(name)
	}
	switch {
	case isSequential(values):
		return meaning(PurposeSequentialTemporal, "value_shape")
	case len(values) > 0 && float64(distinctCount(values)) < 0.5*float64(len(values)):
		return meaning(PurposeCategoricalGrouping, "value_shape")
	default:
		return meaning(PurposeMeasurementMetric, "value_shape")
	}
}

func meaning(purpose, source string) SemanticMeaning {
	p := purposeProfiles[purpose]
	return SemanticMeaning{
		InferredPurpose:    purpose,
		BusinessRole:       p.role,
		VisualizationRoles: append([]string(nil), p.vis...),
		Source:             source,
	}
}

func containsAny(keywords ...string) func(string) bool {
	return func(name string) bool {
		s := strings.ToLower(name)
		for _, k := range keywords {
			if strings.Contains(s, k) {
				return true
			}
		}
		return false
	}
}

var identifierTokens = map[string]bool{
	"id": true, "uuid": true, "guid": true, "identifier": true, "key": true, "number": true,
}

// isIdentifierName matches on whole name tokens so that words which merely
// contain "id" (incidentCount, paid) are not identifiers.
func isIdentifierName(name string) bool {
	for _, t := range nameTokens(name) {
		if identifierTokens[t] {
			return true
		}
	}
	return false
}

// nameTokens splits camelCase, snake_case, kebab-case and spaced names.
func nameTokens(name string) []string {
	var (
		out []string
		cur []rune
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	rs := []rune(name)
	for i, r := range rs {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && i > 0 && (unicode.IsLower(rs[i-1]) || (i+1 < len(rs) && unicode.IsLower(rs[i+1]))):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return out
}

// isSequential reports an arithmetic-like run: at least three coercible
// values whose consecutive differences all sit within 10% of their mean.
func isSequential(values []any) bool {
	if len(values) < 3 {
		return false
	}
	nums := make([]float64, len(values))
	for i, v := range values {
		x, ok := dataset.Coerce(v)
		if !ok {
			return false
		}
		nums[i] = x
	}
	diffs := make([]float64, len(nums)-1)
	mean := 0.0
	for i := 1; i < len(nums); i++ {
		diffs[i-1] = nums[i] - nums[i-1]
		mean += diffs[i-1]
	}
	mean /= float64(len(diffs))
	if mean == 0 {
		return false
	}
	tol := 0.1 * math.Abs(mean)
	for _, d := range diffs {
		if math.Abs(d-mean) > tol {
			return false
		}
	}
	return true
}

func distinctCount(values []any) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[dataset.Key(v)] = struct{}{}
	}
	return len(seen)
}
