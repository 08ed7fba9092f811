// Package tokenizer estimates token counts for work requests.
//
// Routing only needs a rough input-size signal, so the default path is
// a deliberately coarse character heuristic; an exact tiktoken-backed
// counter is available for models whose encoding is known.
package tokenizer

import (
	"unicode/utf8"

	"github.com/llama-farm/atmosphere-sub001/types"
)

// Tokenizer is the token counting interface.
type Tokenizer interface {
	// CountTokens returns the token count for a piece of text.
	CountTokens(text string) (int, error)

	// CountMessages returns the total token count for a conversation,
	// including per-message overhead.
	CountMessages(messages []types.Message) (int, error)

	// Name identifies the counting strategy.
	Name() string
}

// EstimateMessages is the coarse routing heuristic: all textual content
// concatenated, divided by four characters per token. It is not a
// tokenizer and makes no CJK adjustment — the cost model only cares
// about order of magnitude, and every node must estimate identically.
func EstimateMessages(messages []types.Message) int {
	chars := 0
	for _, m := range messages {
		chars += utf8.RuneCountInString(m.Content)
	}
	return chars / 4
}

// ForModel returns the exact counter when the model's encoding is
// known, the estimator otherwise.
func ForModel(model string) Tokenizer {
	if t, err := NewTiktoken(model); err == nil {
		return t
	}
	return NewEstimator()
}
