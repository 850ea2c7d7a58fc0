package analysis

import "strings"

// BusinessContext is the coarse domain of a dataset plus a partition of its fields.
type BusinessContext struct {
	Domain         string   `json:"domain"`
	PrimaryMetrics []string `json:"primaryMetrics"`
	Identifiers    []string `json:"identifiers"`
	Categories     []string `json:"categories"`
}

const DomainUnknown = "unknown"

// domainRules is evaluated in order; the first match wins.
var domainRules = []struct {
	domain   string
	keywords []string
}{
	{"incident_management", []string{"ticket", "incident", "resolved"}},
	{"sales", []string{"sales", "revenue", "order", "price", "deal"}},
	{"customer", []string{"customer", "client", "churn", "subscriber"}},
}

// ClassifyBusinessContext derives the domain from field names and buckets
// each field as identifier, metric or category, in that priority.
func ClassifyBusinessContext(columns []string, types map[string]FieldType) BusinessContext {
	bc := BusinessContext{
		Domain:         classifyDomain(columns),
		PrimaryMetrics: []string{},
		Identifiers:    []string{},
		Categories:     []string{},
	}
	for _, c := range columns {
		ft := types[c]
		switch {
		case ft.IsIdentifier:
			bc.Identifiers = append(bc.Identifiers, c)
		case ft.Kind == KindNumeric:
			bc.PrimaryMetrics = append(bc.PrimaryMetrics, c)
		case ft.Kind == KindCategorical:
			bc.Categories = append(bc.Categories, c)
		}
	}
	return bc
}

func classifyDomain(columns []string) string {
	all := strings.ToLower(strings.Join(columns, " "))
	for _, r := range domainRules {
		for _, k := range r.keywords {
			if strings.Contains(all, k) {
				return r.domain
			}
		}
	}
	return DomainUnknown
}
