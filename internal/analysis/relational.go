package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tabloom/internal/dataset"
)

const (
	relationshipThreshold = 0.5
	trendThreshold        = 0.3
	outlierSigmas         = 2.0
)

// Relationship is a strong pairwise correlation between two numeric fields.
type Relationship struct {
	Field1    string  `json:"field1"`
	Field2    string  `json:"field2"`
	Type      string  `json:"type"`
	Strength  float64 `json:"strength"`
	Direction string  `json:"direction"`
}

// Pattern is a monotonic trend of a field over record order.
type Pattern struct {
	Type      string  `json:"type"`
	Field     string  `json:"field"`
	Direction string  `json:"direction"`
	Strength  float64 `json:"strength"`
}

// Anomaly is one value above avg + 2·stddev for its field.
type Anomaly struct {
	Field       string  `json:"field"`
	RecordIndex int     `json:"recordIndex"`
	Value       float64 `json:"value"`
	Type        string  `json:"type"`
	Severity    float64 `json:"severity"`
}

// Correlation returns the Pearson correlation of x and y, or 0 when it is
// undefined (fewer than two points, unequal lengths, or zero variance).
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

// Trend correlates values against their index sequence 0..n-1.
func Trend(values []float64) float64 {
	idx := make([]float64, len(values))
	for i := range idx {
		idx[i] = float64(i)
	}
	return Correlation(idx, values)
}

// FindRelationships correlates every pair of fields (i < j) over the records
// where both are numeric.
func FindRelationships(ds *dataset.Dataset, fields []string) []Relationship {
	out := []Relationship{}
	for i := 0; i < len(fields); i++ {
		for j := i + 1; j < len(fields); j++ {
			x, y := pairwise(ds, fields[i], fields[j])
			r := Correlation(x, y)
			if math.Abs(r) <= relationshipThreshold {
				continue
			}
			out = append(out, Relationship{
				Field1:    fields[i],
				Field2:    fields[j],
				Type:      "correlation",
				Strength:  r,
				Direction: sign(r, "positive", "negative"),
			})
		}
	}
	return out
}

// FindPatterns reports fields whose values trend over record order.
func FindPatterns(ds *dataset.Dataset, fields []string) []Pattern {
	out := []Pattern{}
	for _, f := range fields {
		t := Trend(ds.Floats(f))
		if math.Abs(t) <= trendThreshold {
			continue
		}
		out = append(out, Pattern{
			Type:      "trend",
			Field:     f,
			Direction: sign(t, "increasing", "decreasing"),
			Strength:  t,
		})
	}
	return out
}

// FindAnomalies scans records in order and flags values strictly above
// avg + 2·sqrt(variance) for each field that has numeric stats.
func FindAnomalies(ds *dataset.Dataset, fields []string, fs map[string]FieldStats) []Anomaly {
	out := []Anomaly{}
	for _, f := range fields {
		ns := fs[f].Numeric
		if ns == nil {
			continue
		}
		threshold := ns.Avg + outlierSigmas*math.Sqrt(ns.Variance)
		for i, r := range ds.Records {
			v, ok := dataset.Float(r[f])
			if !ok || v <= threshold {
				continue
			}
			severity := 0.0
			if threshold > 0 {
				severity = (v - threshold) / threshold
			}
			out = append(out, Anomaly{
				Field:       f,
				RecordIndex: i,
				Value:       v,
				Type:        "outlier_high",
				Severity:    severity,
			})
		}
	}
	return out
}

func pairwise(ds *dataset.Dataset, a, b string) (x, y []float64) {
	for _, r := range ds.Records {
		va, ok := dataset.Float(r[a])
		if !ok {
			continue
		}
		vb, ok := dataset.Float(r[b])
		if !ok {
			continue
		}
		x = append(x, va)
		y = append(y, vb)
	}
	return x, y
}

func sign(v float64, pos, neg string) string {
	if v > 0 {
		return pos
	}
	return neg
}
