package dataset

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Record is one flat row: field name to scalar value (float64, string, or nil).
type Record map[string]any

// Dataset is an ordered, read-only sequence of records.
// Columns holds the field universe taken from the first record, in input order.
type Dataset struct {
	Name    string
	Columns []string
	// Units maps a column to the unit stripped from its header, if any.
	Units   map[string]string
	Records []Record
}

// New builds a dataset from records. Numeric values of any Go kind are
// normalised to float64 and records are copied, so later changes to the input
// do not leak into an analysis. When columns are omitted, the first record's
// keys are used in lexical order.
func New(records []Record, columns ...string) *Dataset {
	ds := &Dataset{Records: make([]Record, 0, len(records))}
	for _, r := range records {
		ds.Records = append(ds.Records, normaliseRecord(r))
	}
	if len(columns) > 0 {
		ds.Columns = append([]string(nil), columns...)
		return ds
	}
	if len(records) > 0 {
		for k := range records[0] {
			ds.Columns = append(ds.Columns, k)
		}
		sort.Strings(ds.Columns)
	}
	return ds
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Empty reports whether the dataset is absent or has no records.
func (d *Dataset) Empty() bool { return d.Len() == 0 }

// HasColumn reports whether name is part of the field universe.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Values returns the non-null values of field in record order.
func (d *Dataset) Values(field string) []any {
	out := make([]any, 0, d.Len())
	for _, r := range d.Records {
		if v, ok := r[field]; ok && v != nil {
			out = append(out, v)
		}
	}
	return out
}

// Floats returns the numeric values of field in record order, skipping
// nulls and non-numeric values.
func (d *Dataset) Floats(field string) []float64 {
	out := make([]float64, 0, d.Len())
	for _, r := range d.Records {
		if x, ok := Float(r[field]); ok {
			out = append(out, x)
		}
	}
	return out
}

// Float reports v as a finite float64 when v is a number.
// Strings are never numbers here; loaders decide what parses.
func Float(v any) (float64, bool) {
	var x float64
	switch n := v.(type) {
	case float64:
		x = n
	case float32:
		x = float64(n)
	case int:
		x = float64(n)
	case int8:
		x = float64(n)
	case int16:
		x = float64(n)
	case int32:
		x = float64(n)
	case int64:
		x = float64(n)
	case uint:
		x = float64(n)
	case uint8:
		x = float64(n)
	case uint16:
		x = float64(n)
	case uint32:
		x = float64(n)
	case uint64:
		x = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		x = f
	default:
		return 0, false
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

// Coerce converts v to a number the way a loose numeric cast would:
// numbers pass through, numeric strings parse, everything else fails.
func Coerce(v any) (float64, bool) {
	if x, ok := Float(v); ok {
		return x, true
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Display renders a scalar for distribution keys and reports.
func Display(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	}
	if x, ok := Float(v); ok {
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Key distinguishes values of different kinds that display the same,
// so 1 and "1" count as two distinct values.
func Key(v any) string {
	if _, ok := Float(v); ok {
		return "n:" + Display(v)
	}
	return "s:" + Display(v)
}

// Slashed dates are read month first; day-first only matches when the
// first part cannot be a month.
var timeLayouts = []string{
	time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04:05.000", "2006-01-02T15:04",
	"2006-01-02", "2006/01/02", "01/02/2006", "1/2/2006", "02/01/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	"2006-01", "Jan 2, 2006", "2 Jan 2006",
}

// ParseTime interprets v as a point in time. Strings are tried against a
// fixed layout list; numbers are epoch milliseconds.
func ParseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		for _, l := range timeLayouts {
			if ts, err := time.Parse(l, s); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	}
	if ms, ok := Float(v); ok {
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}

func normaliseRecord(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		if x, ok := Float(v); ok {
			out[k] = x
			continue
		}
		out[k] = v
	}
	return out
}
