package analysis

import "github.com/KaramelBytes/tabloom/internal/dataset"

// InputError reports a dataset that cannot be analyzed at all.
type InputError struct {
	Message string `json:"error"`
}

func (e *InputError) Error() string { return e.Message }

// DataQuality reports the non-null fraction of each field.
type DataQuality struct {
	Completeness map[string]float64 `json:"completeness"`
	Overall      string             `json:"overall"`
}

// Findings is the full result of one analysis pass. A new value is built for
// every call and nothing inside it aliases the input dataset.
type Findings struct {
	Name            string                       `json:"name,omitempty"`
	Columns         []string                     `json:"columns"`
	RecordCount     int                          `json:"recordCount"`
	FieldTypes      map[string]FieldType         `json:"fieldTypes"`
	FieldStats      map[string]FieldStats        `json:"fieldStats"`
	FieldMeanings   map[string]SemanticMeaning   `json:"fieldMeanings"`
	Metrics         MetricResults                `json:"metrics"`
	TimeSeries      map[string][]TimeSeriesEntry `json:"timeSeries"`
	Relationships   []Relationship               `json:"relationships"`
	Patterns        []Pattern                    `json:"patterns"`
	Anomalies       []Anomaly                    `json:"anomalies"`
	DataQuality     DataQuality                  `json:"dataQuality"`
	BusinessContext BusinessContext              `json:"businessContext"`
}

// Analyze runs every component over ds with the default engine.
func Analyze(ds *dataset.Dataset, plan Plan, targets []string, depth Depth) (*Findings, error) {
	return defaultEngine.Analyze(ds, plan, targets, depth)
}

// Analyze runs every component over ds. Input-shape problems are returned as
// *InputError; field and plan problems are recorded inside Findings.Metrics.
func (e *Engine) Analyze(ds *dataset.Dataset, plan Plan, targets []string, depth Depth) (*Findings, error) {
	if ds.Empty() {
		return nil, &InputError{Message: "Invalid or empty data source"}
	}
	if len(ds.Columns) == 0 {
		return nil, &InputError{Message: "No fields found in data source"}
	}
	if depth != DepthBasic {
		depth = DepthDetailed
	}

	types := e.InferFieldTypes(ds)
	fs := e.ComputeFieldStats(ds, types, targets)
	meanings, err := InferFieldMeanings(ds.Columns, ds)
	if err != nil {
		return nil, err
	}
	numeric := numericFields(ds, types)

	return &Findings{
		Name:            ds.Name,
		Columns:         append([]string(nil), ds.Columns...),
		RecordCount:     ds.Len(),
		FieldTypes:      types,
		FieldStats:      fs.Stats,
		FieldMeanings:   meanings,
		Metrics:         ExecutePlan(ds, fs.Stats, plan, append([]string(nil), targets...), depth),
		TimeSeries:      fs.TimeSeries,
		Relationships:   FindRelationships(ds, numeric),
		Patterns:        FindPatterns(ds, numeric),
		Anomalies:       FindAnomalies(ds, numeric, fs.Stats),
		DataQuality:     dataQuality(ds),
		BusinessContext: ClassifyBusinessContext(ds.Columns, types),
	}, nil
}

func dataQuality(ds *dataset.Dataset) DataQuality {
	dq := DataQuality{Completeness: make(map[string]float64, len(ds.Columns)), Overall: "good"}
	n := float64(ds.Len())
	for _, c := range ds.Columns {
		dq.Completeness[c] = float64(len(ds.Values(c))) / n
	}
	return dq
}
