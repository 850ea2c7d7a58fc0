package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/tabloom/internal/dataset"
)

// Depth selects how much work the metric executor does.
type Depth string

const (
	DepthBasic    Depth = "basic"
	DepthDetailed Depth = "detailed"
)

// ParseDepth validates a depth name. Empty means detailed.
func ParseDepth(s string) (Depth, error) {
	switch Depth(strings.ToLower(strings.TrimSpace(s))) {
	case "", DepthDetailed:
		return DepthDetailed, nil
	case DepthBasic:
		return DepthBasic, nil
	}
	return "", fmt.Errorf("unknown depth %q (want basic or detailed)", s)
}

// FocusPlan lists the metrics to compute for one focus area.
type FocusPlan struct {
	Metrics   []string `json:"metrics" yaml:"metrics"`
	DateField string   `json:"dateField,omitempty" yaml:"dateField,omitempty"`
}

// Plan maps focus area names to the metrics requested for them.
type Plan map[string]FocusPlan

// Valid reports whether at least one focus area requests a metric.
func (p Plan) Valid() bool {
	for _, fp := range p {
		if len(fp.Metrics) > 0 {
			return true
		}
	}
	return false
}

// FocusAreas returns the plan's focus areas in sorted order.
func (p Plan) FocusAreas() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SeriesPoint is one date-ordered value of a time series.
type SeriesPoint struct {
	Date  any `json:"date"`
	Value any `json:"value"`
}

// MetricValue holds the metrics one focus area computed for one field.
type MetricValue struct {
	Sum    *float64      `json:"sum,omitempty"`
	Avg    *float64      `json:"avg,omitempty"`
	Series []SeriesPoint `json:"time_series,omitempty"`
}

// FieldMetrics is the per-field result of executing a plan. Error is set when
// the field could not be analyzed at all; Errors holds per-metric failures.
type FieldMetrics struct {
	Error  string                 `json:"error,omitempty"`
	Focus  map[string]MetricValue `json:"focus,omitempty"`
	Errors map[string]string      `json:"errors,omitempty"`
}

// MetricResults is the output of executing a plan. Values are keyed by field
// and then by focus area, so the series for field "resolved" under focus area
// "trend" is Fields["resolved"].Focus["trend"].Series, which encodes as
// metrics.fields.resolved.focus.trend.time_series.
type MetricResults struct {
	Fields map[string]*FieldMetrics `json:"fields"`
	// PerformanceRatio is shared across focus areas: sum(fields[0]) / sum(fields[1]).
	PerformanceRatio *float64 `json:"performance_ratio,omitempty"`
}

const (
	errFieldNotNumeric    = "field not found or not numeric"
	errUnsupportedFocus   = "unsupported focus areas"
	errUnsupportedMetric  = "unsupported metric"
	errSeriesNeedsDateKey = "time_series requires dateField"
)

type metricInput struct {
	ds    *dataset.Dataset
	field string
	stats *NumericStats
	focus FocusPlan
	depth Depth
}

// metricHandler fills its part of out, or returns a message recorded under
// the metric name in FieldMetrics.Errors.
type metricHandler func(in metricInput, out *MetricValue) string

var metricHandlers = map[string]metricHandler{
	"sum": func(in metricInput, out *MetricValue) string {
		v := in.stats.Sum
		out.Sum = &v
		return ""
	},
	"avg": func(in metricInput, out *MetricValue) string {
		v := in.stats.Avg
		out.Avg = &v
		return ""
	},
	"time_series": func(in metricInput, out *MetricValue) string {
		if in.depth == DepthBasic {
			return ""
		}
		if in.focus.DateField == "" {
			return errSeriesNeedsDateKey
		}
		out.Series = timeSeries(in.ds, in.field, in.focus.DateField)
		return ""
	},
	// ratio is computed once per plan across the first two fields.
	"ratio": func(metricInput, *MetricValue) string { return "" },
}

// ExecutePlan computes the plan's metrics for fields. When fields is empty,
// every numeric field with stats is used, in column order.
func ExecutePlan(ds *dataset.Dataset, fs map[string]FieldStats, plan Plan, fields []string, depth Depth) MetricResults {
	if len(fields) == 0 {
		for _, c := range ds.Columns {
			if fs[c].Numeric != nil {
				fields = append(fields, c)
			}
		}
	}
	res := MetricResults{Fields: make(map[string]*FieldMetrics, len(fields))}
	if !plan.Valid() {
		for _, f := range fields {
			res.Fields[f] = &FieldMetrics{Error: errUnsupportedFocus}
		}
		return res
	}

	wantRatio := false
	areas := plan.FocusAreas()
	for _, f := range fields {
		ns := fs[f].Numeric
		if ns == nil || !ds.HasColumn(f) {
			res.Fields[f] = &FieldMetrics{Error: errFieldNotNumeric}
			continue
		}
		fm := &FieldMetrics{Focus: map[string]MetricValue{}}
		for _, area := range areas {
			fp := plan[area]
			if len(fp.Metrics) == 0 {
				continue
			}
			var mv MetricValue
			for _, m := range fp.Metrics {
				h, ok := metricHandlers[m]
				if !ok {
					fm.setError(m, errUnsupportedMetric)
					continue
				}
				if m == "ratio" {
					wantRatio = true
				}
				if msg := h(metricInput{ds: ds, field: f, stats: ns, focus: fp, depth: depth}, &mv); msg != "" {
					fm.setError(m, msg)
				}
			}
			fm.Focus[area] = mv
		}
		res.Fields[f] = fm
	}

	if wantRatio && len(fields) >= 2 {
		r := 0.0
		a, b := fs[fields[0]].Numeric, fs[fields[1]].Numeric
		if a != nil && b != nil && a.Sum != 0 && b.Sum != 0 {
			r = a.Sum / b.Sum
		}
		res.PerformanceRatio = &r
	}
	return res
}

func (fm *FieldMetrics) setError(metric, msg string) {
	if fm.Errors == nil {
		fm.Errors = map[string]string{}
	}
	fm.Errors[metric] = msg
}

// timeSeries sorts a copy of the records by dateField (unparseable dates
// count as epoch 0) and projects each record to {date, value}.
func timeSeries(ds *dataset.Dataset, field, dateField string) []SeriesPoint {
	type keyed struct {
		ms  int64
		rec dataset.Record
	}
	rows := make([]keyed, len(ds.Records))
	for i, r := range ds.Records {
		var ms int64
		if ts, ok := dataset.ParseTime(r[dateField]); ok {
			ms = ts.UnixMilli()
		}
		rows[i] = keyed{ms: ms, rec: r}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ms < rows[j].ms })
	out := make([]SeriesPoint, len(rows))
	for i, k := range rows {
		out[i] = SeriesPoint{Date: k.rec[dateField], Value: k.rec[field]}
	}
	return out
}
