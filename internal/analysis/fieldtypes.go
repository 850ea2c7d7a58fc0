package analysis

import (
	"strings"

	"github.com/KaramelBytes/tabloom/internal/dataset"
)

// FieldKind is the inferred shape of a column.
type FieldKind string

const (
	KindNumeric     FieldKind = "numeric"
	KindCategorical FieldKind = "categorical"
	KindTemporal    FieldKind = "temporal"
	KindText        FieldKind = "text"
)

// FieldType captures the inferred type of one field.
type FieldType struct {
	Kind         FieldKind `json:"type"`
	IsIdentifier bool      `json:"isIdentifier"`
	IsBoolean    bool      `json:"isBoolean"`
	IsTemporal   bool      `json:"isTemporal"`
	UniqueCount  int       `json:"uniqueCount"`
	TotalCount   int       `json:"totalCount"`
	Sparsity     float64   `json:"sparsity"`
}

// InferFieldTypes classifies every column of ds.
func InferFieldTypes(ds *dataset.Dataset) map[string]FieldType {
	return defaultEngine.InferFieldTypes(ds)
}

// InferFieldTypes classifies every column of ds.
func (e *Engine) InferFieldTypes(ds *dataset.Dataset) map[string]FieldType {
	if ds == nil {
		return map[string]FieldType{}
	}
	out := make([]FieldType, len(ds.Columns))
	e.eachField(ds.Columns, func(i int, name string) {
		out[i] = inferFieldType(ds, name)
	})
	types := make(map[string]FieldType, len(ds.Columns))
	for i, name := range ds.Columns {
		types[name] = out[i]
	}
	return types
}

func inferFieldType(ds *dataset.Dataset, name string) FieldType {
	values := ds.Values(name)
	distinct := make(map[string]struct{}, len(values))
	numeric := true
	binary := true
	for _, v := range values {
		distinct[dataset.Key(v)] = struct{}{}
		x, ok := dataset.Float(v)
		if !ok {
			numeric = false
			binary = false
			continue
		}
		if x != 0 && x != 1 {
			binary = false
		}
	}

	lower := strings.ToLower(name)
	ft := FieldType{
		IsIdentifier: strings.Contains(lower, "id") || strings.Contains(lower, "number"),
		IsTemporal:   strings.Contains(lower, "date") || strings.Contains(lower, "time"),
		UniqueCount:  len(distinct),
		TotalCount:   len(values),
		Sparsity:     1,
	}
	if n := ds.Len(); n > 0 {
		ft.Sparsity = float64(n-len(values)) / float64(n)
	}
	ft.IsBoolean = numeric && len(values) > 0 && binary && len(distinct) <= 2

	switch {
	case numeric:
		ft.Kind = KindNumeric
	case float64(len(distinct)) < 0.5*float64(len(values)):
		ft.Kind = KindCategorical
	case ft.IsTemporal:
		ft.Kind = KindTemporal
	default:
		ft.Kind = KindText
	}
	return ft
}

// numericFields returns the numeric columns of ds in column order.
func numericFields(ds *dataset.Dataset, types map[string]FieldType) []string {
	var out []string
	for _, c := range ds.Columns {
		if types[c].Kind == KindNumeric {
			out = append(out, c)
		}
	}
	return out
}
