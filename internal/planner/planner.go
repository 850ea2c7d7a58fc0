// Package planner turns analyst focus areas into an analysis.Plan.
//
// Planning is best effort: Resolve bounds every call with a timeout and
// degrades any failure to an empty plan, which the engine reports as
// unsupported focus areas.
package planner

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/KaramelBytes/tabloom/internal/analysis"
	"github.com/KaramelBytes/tabloom/internal/dataset"
)

// ErrEmptyPlan is returned when a planner produced no usable focus area.
var ErrEmptyPlan = errors.New("empty or invalid plan")

// FieldMetadata describes one dataset field to the planner.
type FieldMetadata struct {
	Name    string             `json:"name"`
	Kind    analysis.FieldKind `json:"kind"`
	Purpose string             `json:"purpose,omitempty"`
}

// Request is the input to one planning call.
type Request struct {
	FocusAreas []string
	Prompt     string
	Fields     []FieldMetadata
}

// Planner produces a metric plan for a request.
type Planner interface {
	Plan(ctx context.Context, req Request) (analysis.Plan, error)
}

// Metadata lists columns in order with their inferred kind and purpose.
func Metadata(columns []string, types map[string]analysis.FieldType, meanings map[string]analysis.SemanticMeaning) []FieldMetadata {
	out := make([]FieldMetadata, 0, len(columns))
	for _, c := range columns {
		out = append(out, FieldMetadata{Name: c, Kind: types[c].Kind, Purpose: meanings[c].InferredPurpose})
	}
	return out
}

// Describe infers field metadata for ds.
func Describe(ds *dataset.Dataset) []FieldMetadata {
	if ds == nil {
		return nil
	}
	types := analysis.InferFieldTypes(ds)
	meanings, _ := analysis.InferFieldMeanings(ds.Columns, ds)
	return Metadata(ds.Columns, types, meanings)
}

// Resolve asks p for a plan. It never fails: a nil planner, an error, a
// timeout or an empty plan all yield nil.
func Resolve(ctx context.Context, p Planner, req Request, timeout time.Duration, log zerolog.Logger) analysis.Plan {
	if p == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		plan analysis.Plan
		err  error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		plan, err := p.Plan(ctx, req)
		done <- result{plan, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}
	elapsed := time.Since(start)
	if res.err != nil {
		log.Warn().Err(res.err).Dur("elapsed", elapsed).Msg("planner failed, continuing without a plan")
		return nil
	}
	if !res.plan.Valid() {
		log.Warn().Dur("elapsed", elapsed).Msg("planner returned no metrics, continuing without a plan")
		return nil
	}
	log.Debug().Strs("focus_areas", res.plan.FocusAreas()).Dur("elapsed", elapsed).Msg("plan resolved")
	return res.plan
}
