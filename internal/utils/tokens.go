package utils

import "strings"

// Token estimation for prompt budgeting: 1 token ~= 4 characters.

// CountTokens estimates the number of tokens in the given text.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TruncateToTokenLimit cuts text to roughly fit within limit tokens,
// preferring to end on a line boundary so field listings stay whole.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	charLimit := limit * 4
	if charLimit >= len(runes) {
		return text
	}
	cut := string(runes[:charLimit])
	if i := strings.LastIndexByte(cut, '\n'); i > len(cut)/2 {
		return cut[:i+1]
	}
	return cut
}

// TokenBreakdown returns a map of labeled sections to token counts.
func TokenBreakdown(sections map[string]string) map[string]int {
	out := make(map[string]int, len(sections))
	for k, v := range sections {
		out[k] = CountTokens(v)
	}
	return out
}
