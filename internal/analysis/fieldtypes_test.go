package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KaramelBytes/tabloom/internal/dataset"
)

func ticketDataset() *dataset.Dataset {
	return dataset.New([]dataset.Record{
		{"ticketId": "T-1", "status": "open", "resolved": 10, "date": "2024-01-01", "escalated": 0, "notes": "slow vpn"},
		{"ticketId": "T-2", "status": "open", "resolved": 20, "date": "2024-02-01", "escalated": 1, "notes": "printer"},
		{"ticketId": "T-3", "status": "closed", "resolved": 30, "date": "2024-03-01", "escalated": 1},
		{"ticketId": "T-4", "status": "open", "resolved": 40, "date": "2024-04-01", "escalated": 0, "notes": "disk full"},
		{"ticketId": "T-5", "status": "closed", "resolved": 50, "date": "2024-05-01", "escalated": 0, "notes": "login"},
	}, "ticketId", "status", "resolved", "date", "escalated", "notes")
}

func TestInferFieldTypes(t *testing.T) {
	types := InferFieldTypes(ticketDataset())

	assert.Equal(t, KindText, types["ticketId"].Kind)
	assert.True(t, types["ticketId"].IsIdentifier)

	assert.Equal(t, KindCategorical, types["status"].Kind)
	assert.Equal(t, 2, types["status"].UniqueCount)

	assert.Equal(t, KindNumeric, types["resolved"].Kind)
	assert.False(t, types["resolved"].IsBoolean)

	assert.Equal(t, KindTemporal, types["date"].Kind)
	assert.True(t, types["date"].IsTemporal)

	assert.True(t, types["escalated"].IsBoolean)

	notes := types["notes"]
	assert.Equal(t, KindText, notes.Kind)
	assert.Equal(t, 4, notes.TotalCount)
	assert.InDelta(t, 0.2, notes.Sparsity, 1e-12)
}

func TestInferFieldTypesSparsityInvariant(t *testing.T) {
	ds := ticketDataset()
	for name, ft := range InferFieldTypes(ds) {
		assert.InDelta(t, 1-float64(ft.TotalCount)/float64(ds.Len()), ft.Sparsity, 1e-12, name)
		assert.GreaterOrEqual(t, ft.Sparsity, 0.0)
		assert.LessOrEqual(t, ft.Sparsity, 1.0)
	}
}

func TestInferFieldTypesEmptyField(t *testing.T) {
	ds := dataset.New([]dataset.Record{{"a": nil}, {"a": nil}}, "a")
	ft := InferFieldTypes(ds)["a"]
	assert.Equal(t, 0, ft.UniqueCount)
	assert.Equal(t, 1.0, ft.Sparsity)
	assert.False(t, ft.IsBoolean)
}

func TestInferFieldTypesMixedIsNotNumeric(t *testing.T) {
	ds := dataset.New([]dataset.Record{{"v": 1}, {"v": "two"}, {"v": 3}}, "v")
	assert.NotEqual(t, KindNumeric, InferFieldTypes(ds)["v"].Kind)
}

func TestEngineParallelismIsDeterministic(t *testing.T) {
	ds := ticketDataset()
	serial := NewEngine(Options{Parallelism: 1}).InferFieldTypes(ds)
	wide := NewEngine(Options{Parallelism: 8}).InferFieldTypes(ds)
	assert.Equal(t, serial, wide)
}
