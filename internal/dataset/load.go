package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"
)

// Options controls how files are turned into datasets.
type Options struct {
	// MaxRows limits rows loaded; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, picked from the file extension.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// SplitUnits strips unit suffixes such as "Mass [mg/L]" from headers.
	SplitUnits bool
	// XLSX sheet selection; SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
	// DataPath is a gjson path to the record array inside a JSON document.
	DataPath string
}

// DefaultOptions returns reasonable defaults for loading datasets.
func DefaultOptions() Options {
	return Options{
		MaxRows:    100000,
		SplitUnits: true,
		SheetIndex: 1,
	}
}

// ErrNoRows is returned when a source has a header but no records.
var ErrNoRows = errors.New("no data rows")

// LoadFile loads a dataset, choosing the reader by extension.
func LoadFile(path string, opt Options) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path, opt)
	case ".json":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read json: %w", err)
		}
		ds, err := ReadJSON(b, opt)
		if err != nil {
			return nil, err
		}
		ds.Name = filepath.Base(path)
		return ds, nil
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open csv: %w", err)
		}
		defer f.Close()
		if opt.Delimiter == 0 {
			opt.Delimiter = sniffDelimiter(path)
		}
		ds, err := ReadCSV(f, opt)
		if err != nil {
			return nil, err
		}
		ds.Name = filepath.Base(path)
		return ds, nil
	}
}

// ReadCSV reads delimited text with a header row.
func ReadCSV(r io.Reader, opt Options) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: %w", ErrNoRows)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			break
		}
		rows = append(rows, rec)
	}
	return fromRows(header, rows, opt)
}

// ReadXLSX reads the selected sheet of a workbook; the first row is the header.
func ReadXLSX(path string, opt Options) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	sheet := ""
	if opt.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.SheetName) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				opt.SheetName, filepath.Base(path), strings.Join(sheets, ", "))
		}
	} else {
		idx := opt.SheetIndex
		if idx <= 0 {
			idx = 1
		}
		if idx > len(sheets) {
			return nil, fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", idx, len(sheets))
		}
		sheet = sheets[idx-1]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s: %w", sheet, ErrNoRows)
	}
	body := rows[1:]
	if opt.MaxRows > 0 && len(body) > opt.MaxRows {
		body = body[:opt.MaxRows]
	}
	ds, err := fromRows(rows[0], body, opt)
	if err != nil {
		return nil, err
	}
	ds.Name = filepath.Base(path)
	return ds, nil
}

// ReadJSON reads an array of flat objects. Column order follows the keys of
// the first object as written in the document.
func ReadJSON(data []byte, opt Options) (*Dataset, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid json")
	}
	arr := gjson.ParseBytes(data)
	if opt.DataPath != "" {
		arr = arr.Get(opt.DataPath)
	}
	if !arr.IsArray() {
		return nil, errors.New("json data must be an array of objects")
	}
	ds := &Dataset{}
	var rowErr error
	arr.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			rowErr = fmt.Errorf("record %d is not an object", len(ds.Records))
			return false
		}
		if opt.MaxRows > 0 && len(ds.Records) >= opt.MaxRows {
			return false
		}
		rec := Record{}
		first := len(ds.Records) == 0
		item.ForEach(func(k, v gjson.Result) bool {
			rec[k.String()] = scalar(v)
			if first {
				ds.Columns = append(ds.Columns, k.String())
			}
			return true
		})
		ds.Records = append(ds.Records, rec)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return ds, nil
}

func scalar(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.Number:
		return v.Float()
	case gjson.String:
		return v.String()
	case gjson.True, gjson.False:
		return strconv.FormatBool(v.Bool())
	default:
		return v.Raw
	}
}

// fromRows converts raw string rows into records. Empty cells are left out so
// that the field counts as absent for that record.
func fromRows(header []string, rows [][]string, opt Options) (*Dataset, error) {
	if len(header) == 0 {
		return nil, errors.New("no columns")
	}
	ds := &Dataset{Columns: make([]string, len(header))}
	units := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if opt.SplitUnits {
			name, units[i] = splitUnits(name)
		}
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		ds.Columns[i] = name
		if units[i] != "" {
			if ds.Units == nil {
				ds.Units = map[string]string{}
			}
			ds.Units[name] = units[i]
		}
	}
	for _, row := range rows {
		rec := make(Record, len(header))
		for j, cell := range row {
			if j >= len(header) {
				break
			}
			v := strings.TrimSpace(cell)
			if v == "" {
				continue
			}
			if x, ok := parseNumeric(v, opt); ok {
				rec[ds.Columns[j]] = x
				continue
			}
			rec[ds.Columns[j]] = v
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

func sniffDelimiter(path string) rune {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".tsv") {
		return '\t'
	}
	return ','
}

// parseNumeric accepts plain, percent, and locale-formatted numbers.
func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "\u00a0", " "))
	if raw == "" || !looksNumeric(raw) {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0 && cpos > dpos:
			dec, thou = ',', '.'
		case cpos >= 0 && dpos >= 0:
			dec, thou = '.', ','
		case cpos >= 0 && strings.Count(raw, ",") > 1:
			dec, thou = '.', ','
		case cpos >= 0 && len(raw)-cpos-1 == 3 && strings.TrimLeft(raw[:cpos], "+-") != "0":
			// "12,500" groups thousands; "0,125" stays a decimal
			dec, thou = '.', ','
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// looksNumeric rejects dates and codes that strip down to digits,
// e.g. "2024-01-01" or "A-12".
var numericShape = regexp.MustCompile(`^[+-]?[0-9][0-9 ,.]*([eE][+-]?[0-9]+)?$|^[+-]?[.,][0-9]+$`)

func looksNumeric(s string) bool { return numericShape.MatchString(s) }

var unitPatterns = []struct {
	re   *regexp.Regexp
	pick int
}{
	{regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`), 2},  // e.g., Alpha (%)
	{regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), 2}, // e.g., Mass [mg/L]
}

func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, p := range unitPatterns {
		if m := p.re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[p.pick])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}
