package analysis

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabloom/internal/dataset"
)

func resolvedDataset() *dataset.Dataset {
	return dataset.New([]dataset.Record{
		{"resolved": 10, "date": "2024-01-01"},
		{"resolved": 20, "date": "2024-02-01"},
		{"resolved": 30, "date": "2024-03-01"},
	})
}

func TestAnalyzeResolvedTrendScenario(t *testing.T) {
	plan := Plan{"trend": {Metrics: []string{"time_series"}, DateField: "date"}}
	f, err := Analyze(resolvedDataset(), plan, []string{"resolved"}, DepthDetailed)
	require.NoError(t, err)

	series := f.Metrics.Fields["resolved"].Focus["trend"].Series
	require.Len(t, series, 3)
	for i, want := range []float64{10, 20, 30} {
		assert.Equal(t, want, series[i].Value)
	}
	assert.Equal(t, "2024-01-01", series[0].Date)

	require.Len(t, f.Patterns, 1)
	assert.Equal(t, "resolved", f.Patterns[0].Field)
	assert.Equal(t, "increasing", f.Patterns[0].Direction)

	assert.Equal(t, "incident_management", f.BusinessContext.Domain)
	assert.Equal(t, []string{"resolved"}, f.BusinessContext.PrimaryMetrics)
	assert.Len(t, f.TimeSeries["date"], 3)
}

func TestAnalyzeCorrelationScenario(t *testing.T) {
	ds := dataset.New([]dataset.Record{
		{"x": 1, "y": 2}, {"x": 2, "y": 4}, {"x": 3, "y": 6}, {"x": 4, "y": 8},
	})
	f, err := Analyze(ds, nil, nil, DepthDetailed)
	require.NoError(t, err)
	require.Len(t, f.Relationships, 1)
	assert.Equal(t, "positive", f.Relationships[0].Direction)
	assert.InDelta(t, 1.0, f.Relationships[0].Strength, 1e-12)

	for name, fm := range f.Metrics.Fields {
		assert.Equal(t, "unsupported focus areas", fm.Error, name)
	}
}

func TestAnalyzeEmptyDataset(t *testing.T) {
	for _, ds := range []*dataset.Dataset{nil, dataset.New(nil)} {
		f, err := Analyze(ds, nil, nil, DepthDetailed)
		assert.Nil(t, f)
		var ie *InputError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, "Invalid or empty data source", ie.Message)
	}
}

func TestAnalyzeNoColumns(t *testing.T) {
	ds := &dataset.Dataset{Records: []dataset.Record{{}}}
	_, err := Analyze(ds, nil, nil, DepthDetailed)
	var ie *InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "No fields found in data source", ie.Message)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	ds := ticketDataset()
	plan := Plan{
		"trend": {Metrics: []string{"time_series", "sum"}, DateField: "date"},
		"total": {Metrics: []string{"avg", "ratio"}},
	}
	first, err := Analyze(ds, plan, nil, DepthDetailed)
	require.NoError(t, err)
	second, err := Analyze(ds, plan, nil, DepthDetailed)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, ticketDataset(), ds)
}

func TestAnalyzeConcurrentCalls(t *testing.T) {
	ds := ticketDataset()
	want, err := Analyze(ds, nil, nil, DepthBasic)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Findings, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Analyze(ds, nil, nil, DepthBasic)
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestAnalyzeDataQuality(t *testing.T) {
	f, err := Analyze(ticketDataset(), nil, nil, DepthDetailed)
	require.NoError(t, err)
	assert.Equal(t, "good", f.DataQuality.Overall)
	assert.Equal(t, 1.0, f.DataQuality.Completeness["ticketId"])
	assert.InDelta(t, 0.8, f.DataQuality.Completeness["notes"], 1e-12)
}

func TestClassifyBusinessContext(t *testing.T) {
	ds := ticketDataset()
	bc := ClassifyBusinessContext(ds.Columns, InferFieldTypes(ds))
	assert.Equal(t, "incident_management", bc.Domain)
	assert.Equal(t, []string{"ticketId"}, bc.Identifiers)
	assert.Equal(t, []string{"resolved", "escalated"}, bc.PrimaryMetrics)
	assert.Equal(t, []string{"status"}, bc.Categories)

	assert.Equal(t, "sales", classifyDomain([]string{"Revenue", "region"}))
	assert.Equal(t, "customer", classifyDomain([]string{"churnScore"}))
	assert.Equal(t, "unknown", classifyDomain([]string{"a", "b"}))
	assert.Equal(t, "incident_management", classifyDomain([]string{"orderCount", "ticketCount"}))
}

func TestFindingsMarkdown(t *testing.T) {
	plan := Plan{"trend": {Metrics: []string{"time_series", "sum"}, DateField: "date"}}
	f, err := Analyze(ticketDataset(), plan, []string{"resolved"}, DepthDetailed)
	require.NoError(t, err)
	md := f.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"[SCHEMA]",
		"- resolved: numeric",
		"[METRICS]",
		"series of 5 points",
		"[TRENDS]",
		"[BUSINESS CONTEXT]",
		"Domain: incident_management",
		"- notes: 80.0% complete",
	} {
		assert.Contains(t, md, want)
	}
}

func TestFindingsHTML(t *testing.T) {
	f, err := Analyze(ticketDataset(), nil, nil, DepthBasic)
	require.NoError(t, err)
	out := string(f.HTML())
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "DATASET SUMMARY")
	assert.Contains(t, out, "resolved: numeric")
}
