package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabloom/internal/dataset"
)

func salesDataset() *dataset.Dataset {
	return dataset.New([]dataset.Record{
		{"revenue": 100, "cost": 50, "day": "2024-01-03", "region": "eu"},
		{"revenue": 300, "cost": 100, "day": "2024-01-01", "region": "us"},
		{"revenue": 200, "cost": 50, "region": "eu"},
	}, "revenue", "cost", "day", "region")
}

func execute(t *testing.T, ds *dataset.Dataset, plan Plan, fields []string, depth Depth) MetricResults {
	t.Helper()
	fs := ComputeFieldStats(ds, InferFieldTypes(ds), fields).Stats
	return ExecutePlan(ds, fs, plan, fields, depth)
}

func TestExecutePlanSumAvg(t *testing.T) {
	res := execute(t, salesDataset(), Plan{"total": {Metrics: []string{"sum", "avg"}}}, []string{"revenue"}, DepthDetailed)
	fm := res.Fields["revenue"]
	require.NotNil(t, fm)
	mv := fm.Focus["total"]
	require.NotNil(t, mv.Sum)
	require.NotNil(t, mv.Avg)
	assert.Equal(t, 600.0, *mv.Sum)
	assert.Equal(t, 200.0, *mv.Avg)
	assert.Nil(t, res.PerformanceRatio)
}

func TestExecutePlanDefaultsToNumericFields(t *testing.T) {
	res := execute(t, salesDataset(), Plan{"total": {Metrics: []string{"sum"}}}, nil, DepthDetailed)
	assert.Len(t, res.Fields, 2)
	assert.Contains(t, res.Fields, "revenue")
	assert.Contains(t, res.Fields, "cost")
}

func TestExecutePlanTimeSeries(t *testing.T) {
	plan := Plan{"trend": {Metrics: []string{"time_series"}, DateField: "day"}}
	res := execute(t, salesDataset(), plan, []string{"revenue"}, DepthDetailed)
	series := res.Fields["revenue"].Focus["trend"].Series
	require.Len(t, series, 3)
	// missing date sorts as epoch 0
	assert.Nil(t, series[0].Date)
	assert.Equal(t, 200.0, series[0].Value)
	assert.Equal(t, "2024-01-01", series[1].Date)
	assert.Equal(t, 300.0, series[1].Value)
	assert.Equal(t, "2024-01-03", series[2].Date)
}

func TestExecutePlanTimeSeriesOrdersByDate(t *testing.T) {
	tests := []struct {
		name  string
		dates []string
		want  []string
	}{
		{
			name:  "zone-less datetimes mixed with dates",
			dates: []string{"2024-03-01T09:00:00", "2024-01-01T09:00:00", "2024-02-01"},
			want:  []string{"2024-01-01T09:00:00", "2024-02-01", "2024-03-01T09:00:00"},
		},
		{
			name:  "slashed dates are month first",
			dates: []string{"01/02/2024", "01/15/2024", "02/01/2024"},
			want:  []string{"01/02/2024", "01/15/2024", "02/01/2024"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := make([]dataset.Record, 0, len(tt.dates))
			for i, d := range tt.dates {
				recs = append(recs, dataset.Record{"d": d, "v": i + 1})
			}
			plan := Plan{"trend": {Metrics: []string{"time_series"}, DateField: "d"}}
			res := execute(t, dataset.New(recs, "d", "v"), plan, []string{"v"}, DepthDetailed)
			series := res.Fields["v"].Focus["trend"].Series
			require.Len(t, series, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, want, series[i].Date)
			}
		})
	}
}

func TestExecutePlanTimeSeriesBasicDepth(t *testing.T) {
	plan := Plan{"trend": {Metrics: []string{"time_series"}, DateField: "day"}}
	res := execute(t, salesDataset(), plan, []string{"revenue"}, DepthBasic)
	fm := res.Fields["revenue"]
	assert.Empty(t, fm.Focus["trend"].Series)
	assert.Empty(t, fm.Errors)
}

func TestExecutePlanTimeSeriesNeedsDateField(t *testing.T) {
	plan := Plan{"trend": {Metrics: []string{"time_series"}}}
	res := execute(t, salesDataset(), plan, []string{"revenue"}, DepthDetailed)
	assert.Equal(t, "time_series requires dateField", res.Fields["revenue"].Errors["time_series"])
}

func TestExecutePlanRatio(t *testing.T) {
	plan := Plan{"efficiency": {Metrics: []string{"ratio"}}}
	res := execute(t, salesDataset(), plan, []string{"revenue", "cost"}, DepthDetailed)
	require.NotNil(t, res.PerformanceRatio)
	assert.Equal(t, 3.0, *res.PerformanceRatio)

	res = execute(t, salesDataset(), plan, []string{"revenue"}, DepthDetailed)
	assert.Nil(t, res.PerformanceRatio)
}

func TestExecutePlanRatioZeroDenominator(t *testing.T) {
	ds := dataset.New([]dataset.Record{{"a": 5, "b": 0}, {"a": 1, "b": 0}}, "a", "b")
	res := execute(t, ds, Plan{"x": {Metrics: []string{"ratio"}}}, []string{"a", "b"}, DepthDetailed)
	require.NotNil(t, res.PerformanceRatio)
	assert.Equal(t, 0.0, *res.PerformanceRatio)
}

func TestExecutePlanFieldErrors(t *testing.T) {
	plan := Plan{"total": {Metrics: []string{"sum", "median"}}}
	res := execute(t, salesDataset(), plan, []string{"revenue", "region", "missing"}, DepthDetailed)
	assert.Equal(t, "field not found or not numeric", res.Fields["region"].Error)
	assert.Equal(t, "field not found or not numeric", res.Fields["missing"].Error)
	assert.Equal(t, "unsupported metric", res.Fields["revenue"].Errors["median"])
	assert.NotNil(t, res.Fields["revenue"].Focus["total"].Sum)
}

func TestExecutePlanInvalidPlan(t *testing.T) {
	for _, plan := range []Plan{nil, {}, {"trend": {}}} {
		res := execute(t, salesDataset(), plan, nil, DepthDetailed)
		require.Len(t, res.Fields, 2)
		for name, fm := range res.Fields {
			assert.Equal(t, "unsupported focus areas", fm.Error, name)
		}
	}
}

func TestParseDepth(t *testing.T) {
	d, err := ParseDepth("")
	require.NoError(t, err)
	assert.Equal(t, DepthDetailed, d)
	d, err = ParseDepth("BASIC")
	require.NoError(t, err)
	assert.Equal(t, DepthBasic, d)
	_, err = ParseDepth("deep")
	assert.Error(t, err)
}

func TestPlanFocusAreasSorted(t *testing.T) {
	p := Plan{"z": {}, "a": {}, "m": {}}
	assert.Equal(t, []string{"a", "m", "z"}, p.FocusAreas())
}
