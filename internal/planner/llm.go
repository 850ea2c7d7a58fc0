package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/KaramelBytes/tabloom/internal/ai"
	"github.com/KaramelBytes/tabloom/internal/analysis"
	"github.com/KaramelBytes/tabloom/internal/utils"
)

const systemPrompt = `You plan metrics for a tabular dataset analysis.
Reply with one JSON object and nothing else. Keys are focus areas; each value is
{"metrics": [...], "dateField": "<column>"}. Allowed metrics: sum, avg, time_series, ratio.
Include dateField only when time_series is requested, and only name columns from the field list.`

// LLMPlanner asks a language model runtime for a plan.
type LLMPlanner struct {
	Runtime   ai.Runtime
	Model     string
	MaxTokens int
	Log       zerolog.Logger
}

// NewLLMPlanner returns a planner for rt, using the provider's default model
// when model is empty.
func NewLLMPlanner(rt ai.Runtime, provider, model string, log zerolog.Logger) *LLMPlanner {
	if model == "" {
		model = ai.DefaultModel(provider)
	}
	return &LLMPlanner{Runtime: rt, Model: model, MaxTokens: 512, Log: log}
}

// Plan implements Planner.
func (p *LLMPlanner) Plan(ctx context.Context, req Request) (analysis.Plan, error) {
	if p.Runtime == nil {
		return nil, fmt.Errorf("planner runtime is not configured")
	}
	user := userPrompt(req)
	budget := ai.ContextTokens(p.Model) - p.MaxTokens - utils.CountTokens(systemPrompt)
	if utils.CountTokens(user) > budget {
		user = utils.TruncateToTokenLimit(user, budget)
		p.Log.Debug().Int("budget", budget).Msg("planner prompt truncated")
	}
	p.Log.Debug().
		Str("model", p.Model).
		Interface("tokens", utils.TokenBreakdown(map[string]string{"system": systemPrompt, "user": user})).
		Msg("requesting plan")

	resp, err := p.Runtime.Generate(ctx, ai.GenerateRequest{
		Model: p.Model,
		Messages: []ai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: user},
		},
		MaxTokens: p.MaxTokens,
		JSONMode:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate plan: %w", err)
	}
	p.Log.Debug().Str("request_id", resp.RequestID).Int("total_tokens", resp.Usage.TotalTokens).Msg("plan received")
	return ParsePlan(resp.Text())
}

func userPrompt(req Request) string {
	var b strings.Builder
	if len(req.FocusAreas) > 0 {
		fmt.Fprintf(&b, "Focus areas: %s\n", strings.Join(req.FocusAreas, ", "))
	} else {
		b.WriteString("Focus areas: choose up to three that fit the data\n")
	}
	if p := strings.TrimSpace(req.Prompt); p != "" {
		fmt.Fprintf(&b, "Analyst request: %s\n", p)
	}
	b.WriteString("\nFields:\n")
	for _, f := range req.Fields {
		if f.Purpose != "" {
			fmt.Fprintf(&b, "- %s (%s, %s)\n", f.Name, f.Kind, f.Purpose)
		} else {
			fmt.Fprintf(&b, "- %s (%s)\n", f.Name, f.Kind)
		}
	}
	return b.String()
}
