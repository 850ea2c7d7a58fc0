package analysis

import (
	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/tabloom/internal/dataset"
)

// NumericStats summarises the non-null values of a numeric field.
// Variance is the population variance.
type NumericStats struct {
	Count    int     `json:"count"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Avg      float64 `json:"avg"`
	Sum      float64 `json:"sum"`
	Variance float64 `json:"variance"`
}

// CategoricalStats is the value distribution of a non-numeric field.
type CategoricalStats struct {
	Distribution map[string]int `json:"distribution"`
	MostCommon   string         `json:"mostCommon"`
}

// FieldStats holds exactly one of Numeric or Categorical.
type FieldStats struct {
	Numeric     *NumericStats     `json:"numeric,omitempty"`
	Categorical *CategoricalStats `json:"categorical,omitempty"`
}

// TimeSeriesEntry pairs a temporal field's value with the full record it came from.
type TimeSeriesEntry struct {
	Date   any            `json:"date"`
	Values dataset.Record `json:"values"`
}

// FieldStatsResult is the output of ComputeFieldStats.
type FieldStatsResult struct {
	Stats      map[string]FieldStats        `json:"stats"`
	TimeSeries map[string][]TimeSeriesEntry `json:"timeSeries"`
}

const noMode = "none"

// ComputeFieldStats computes per-field statistics. When targets is non-empty,
// only the numeric fields it names get numeric summaries.
func ComputeFieldStats(ds *dataset.Dataset, types map[string]FieldType, targets []string) FieldStatsResult {
	return defaultEngine.ComputeFieldStats(ds, types, targets)
}

// ComputeFieldStats computes per-field statistics. When targets is non-empty,
// only the numeric fields it names get numeric summaries.
func (e *Engine) ComputeFieldStats(ds *dataset.Dataset, types map[string]FieldType, targets []string) FieldStatsResult {
	res := FieldStatsResult{
		Stats:      map[string]FieldStats{},
		TimeSeries: map[string][]TimeSeriesEntry{},
	}
	if ds == nil {
		return res
	}
	selected := make(map[string]bool, len(targets))
	for _, t := range targets {
		selected[t] = true
	}

	type slot struct {
		stats  *FieldStats
		series []TimeSeriesEntry
	}
	slots := make([]slot, len(ds.Columns))
	e.eachField(ds.Columns, func(i int, name string) {
		ft := types[name]
		switch {
		case ft.Kind == KindNumeric:
			if len(selected) > 0 && !selected[name] {
				return
			}
			slots[i].stats = &FieldStats{Numeric: numericStats(ds.Floats(name))}
		case ft.IsTemporal:
			slots[i].series = timeSeriesView(ds, name)
		default:
			slots[i].stats = &FieldStats{Categorical: categoricalStats(ds.Values(name))}
		}
	})
	for i, name := range ds.Columns {
		if slots[i].stats != nil {
			res.Stats[name] = *slots[i].stats
		}
		if slots[i].series != nil {
			res.TimeSeries[name] = slots[i].series
		}
	}
	return res
}

func numericStats(values []float64) *NumericStats {
	if len(values) == 0 {
		return &NumericStats{}
	}
	data := stats.Float64Data(values)
	ns := &NumericStats{Count: len(values)}
	ns.Min, _ = stats.Min(data)
	ns.Max, _ = stats.Max(data)
	ns.Avg, _ = stats.Mean(data)
	ns.Sum, _ = stats.Sum(data)
	ns.Variance, _ = stats.PopulationVariance(data)
	return ns
}

// categoricalStats breaks mode ties in favour of the value seen first.
func categoricalStats(values []any) *CategoricalStats {
	cs := &CategoricalStats{Distribution: map[string]int{}, MostCommon: noMode}
	var order []string
	for _, v := range values {
		k := dataset.Display(v)
		if _, seen := cs.Distribution[k]; !seen {
			order = append(order, k)
		}
		cs.Distribution[k]++
	}
	best := 0
	for _, k := range order {
		if c := cs.Distribution[k]; c > best {
			best = c
			cs.MostCommon = k
		}
	}
	return cs
}

func timeSeriesView(ds *dataset.Dataset, name string) []TimeSeriesEntry {
	out := make([]TimeSeriesEntry, 0, ds.Len())
	for _, r := range ds.Records {
		out = append(out, TimeSeriesEntry{Date: r[name], Values: cloneRecord(r)})
	}
	return out
}

func cloneRecord(r dataset.Record) dataset.Record {
	out := make(dataset.Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
