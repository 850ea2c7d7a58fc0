package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// HTML renders the Markdown report as a standalone HTML page.
func (f *Findings) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)
	r := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "tabloom: " + f.Name,
	})
	return markdown.ToHTML([]byte(f.Markdown()), p, r)
}

// Markdown renders a compact report suitable for prompts or standalone docs.
func (f *Findings) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if f.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", f.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", f.RecordCount))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(f.Columns)))
	b.WriteString(fmt.Sprintf("Domain: %s\n\n", f.BusinessContext.Domain))

	b.WriteString("[SCHEMA]\n")
	for _, c := range f.Columns {
		ft := f.FieldTypes[c]
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c), ft.Kind, ft.TotalCount, ft.Sparsity*100))
		var flags []string
		if ft.IsIdentifier {
			flags = append(flags, "identifier")
		}
		if ft.IsBoolean {
			flags = append(flags, "boolean")
		}
		if m, ok := f.FieldMeanings[c]; ok {
			flags = append(flags, m.InferredPurpose)
		}
		if len(flags) > 0 {
			b.WriteString(" [" + strings.Join(flags, ", ") + "]")
		}
		st := f.FieldStats[c]
		switch {
		case st.Numeric != nil:
			n := st.Numeric
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, avg %.4g, sum %.4g, var %.4g", n.Min, n.Max, n.Avg, n.Sum, n.Variance))
		case st.Categorical != nil && len(st.Categorical.Distribution) > 0:
			b.WriteString(" — top: ")
			for i, kv := range topValues(st.Categorical.Distribution, 5) {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.value), kv.count))
			}
			if len(st.Categorical.Distribution) > 5 {
				b.WriteString(fmt.Sprintf("; unique=%d", len(st.Categorical.Distribution)))
			}
		}
		b.WriteString("\n")
	}

	if len(f.Metrics.Fields) > 0 || f.Metrics.PerformanceRatio != nil {
		b.WriteString("\n[METRICS]\n")
		names := make([]string, 0, len(f.Metrics.Fields))
		for k := range f.Metrics.Fields {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, name := range names {
			fm := f.Metrics.Fields[name]
			if fm.Error != "" {
				b.WriteString(fmt.Sprintf("- %s: %s\n", name, fm.Error))
				continue
			}
			b.WriteString(fmt.Sprintf("- %s:\n", name))
			areas := make([]string, 0, len(fm.Focus))
			for a := range fm.Focus {
				areas = append(areas, a)
			}
			sort.Strings(areas)
			for _, a := range areas {
				mv := fm.Focus[a]
				var parts []string
				if mv.Sum != nil {
					parts = append(parts, fmt.Sprintf("sum %.4g", *mv.Sum))
				}
				if mv.Avg != nil {
					parts = append(parts, fmt.Sprintf("avg %.4g", *mv.Avg))
				}
				if len(mv.Series) > 0 {
					parts = append(parts, fmt.Sprintf("series of %d points", len(mv.Series)))
				}
				if len(parts) == 0 {
					parts = append(parts, "no values")
				}
				b.WriteString(fmt.Sprintf("  • %s: %s\n", a, strings.Join(parts, ", ")))
			}
			errs := make([]string, 0, len(fm.Errors))
			for m := range fm.Errors {
				errs = append(errs, m)
			}
			sort.Strings(errs)
			for _, m := range errs {
				b.WriteString(fmt.Sprintf("  • %s: %s\n", m, fm.Errors[m]))
			}
		}
		if f.Metrics.PerformanceRatio != nil {
			b.WriteString(fmt.Sprintf("- performance_ratio: %.4g\n", *f.Metrics.PerformanceRatio))
		}
	}

	if len(f.Relationships) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, r := range f.Relationships {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f (%s)\n", r.Field1, r.Field2, r.Strength, r.Direction))
		}
	}
	if len(f.Patterns) > 0 {
		b.WriteString("\n[TRENDS]\n")
		for _, p := range f.Patterns {
			b.WriteString(fmt.Sprintf("- %s: %s (r=%.3f)\n", p.Field, p.Direction, p.Strength))
		}
	}
	if len(f.Anomalies) > 0 {
		b.WriteString("\n[ANOMALIES]\n")
		lim := 20
		if len(f.Anomalies) < lim {
			lim = len(f.Anomalies)
		}
		for _, a := range f.Anomalies[:lim] {
			b.WriteString(fmt.Sprintf("- %s row %d: %.4g (severity %.2f)\n", a.Field, a.RecordIndex, a.Value, a.Severity))
		}
		if len(f.Anomalies) > lim {
			b.WriteString(fmt.Sprintf("- … %d more\n", len(f.Anomalies)-lim))
		}
	}

	bc := f.BusinessContext
	b.WriteString("\n[BUSINESS CONTEXT]\n")
	b.WriteString(fmt.Sprintf("- identifiers: %s\n", listOrNone(bc.Identifiers)))
	b.WriteString(fmt.Sprintf("- metrics: %s\n", listOrNone(bc.PrimaryMetrics)))
	b.WriteString(fmt.Sprintf("- categories: %s\n", listOrNone(bc.Categories)))

	b.WriteString("\n[DATA QUALITY]\n")
	b.WriteString(fmt.Sprintf("Overall: %s\n", f.DataQuality.Overall))
	for _, c := range f.Columns {
		if v := f.DataQuality.Completeness[c]; v < 1 {
			b.WriteString(fmt.Sprintf("- %s: %.1f%% complete\n", safeName(c), v*100))
		}
	}
	return b.String()
}

type valueCount struct {
	value string
	count int
}

func topValues(dist map[string]int, n int) []valueCount {
	out := make([]valueCount, 0, len(dist))
	for k, v := range dist {
		out = append(out, valueCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count == out[j].count {
			return out[i].value < out[j].value
		}
		return out[i].count > out[j].count
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func listOrNone(xs []string) string {
	if len(xs) == 0 {
		return "none"
	}
	return strings.Join(xs, ", ")
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
