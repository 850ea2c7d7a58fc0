package ai

// ModelInfo is what the planner needs to know about a model.
type ModelInfo struct {
	Name          string
	ContextTokens int // approximate context window
}

var models = map[string]ModelInfo{
	"openai/gpt-4o-mini":               {Name: "openai/gpt-4o-mini", ContextTokens: 128000},
	"openai/gpt-4.1-mini":              {Name: "openai/gpt-4.1-mini", ContextTokens: 128000},
	"anthropic/claude-3-haiku":         {Name: "anthropic/claude-3-haiku", ContextTokens: 200000},
	"google/gemini-1.5-flash":          {Name: "google/gemini-1.5-flash", ContextTokens: 1000000},
	"meta-llama/llama-3.1-8b-instruct": {Name: "meta-llama/llama-3.1-8b-instruct", ContextTokens: 131072},
	"deepseek/deepseek-r1:free":        {Name: "deepseek/deepseek-r1:free", ContextTokens: 128000},
	// Common local (Ollama) tags
	"llama3:latest":         {Name: "llama3:latest", ContextTokens: 8192},
	"llama3.1:8b-instruct":  {Name: "llama3.1:8b-instruct", ContextTokens: 8192},
	"mistral:7b-instruct":   {Name: "mistral:7b-instruct", ContextTokens: 8192},
	"phi3:mini-4k-instruct": {Name: "phi3:mini-4k-instruct", ContextTokens: 4096},
}

// fallbackContextTokens is assumed for models missing from the catalog.
const fallbackContextTokens = 8192

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// ContextTokens returns the model's context window, or a conservative default.
func ContextTokens(model string) int {
	if mi, ok := models[model]; ok && mi.ContextTokens > 0 {
		return mi.ContextTokens
	}
	return fallbackContextTokens
}

// DefaultModel returns the model used when none is configured for provider.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOllama:
		return "llama3.1:8b-instruct"
	default:
		return "openai/gpt-4o-mini"
	}
}
