package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/llama-farm/atmosphere-sub001/types"
)

// Tiktoken adapts tiktoken for OpenAI-family models.
type Tiktoken struct {
	model    string
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// modelEncodings maps model-name prefixes to their tiktoken encoding.
// Longer prefixes come first so gpt-4o does not match the gpt-4 entry.
var modelEncodings = []struct {
	prefix   string
	encoding string
}{
	{"text-embedding-3", "cl100k_base"},
	{"gpt-3.5-turbo", "cl100k_base"},
	{"gpt-4o", "o200k_base"},
	{"gpt-4", "cl100k_base"},
}

// NewTiktoken creates a tiktoken-backed counter for model, or an error
// when the model's encoding is unknown.
func NewTiktoken(model string) (*Tiktoken, error) {
	for _, m := range modelEncodings {
		if strings.HasPrefix(model, m.prefix) {
			return &Tiktoken{model: model, encoding: m.encoding}, nil
		}
	}
	return nil, fmt.Errorf("tokenizer: no known encoding for model %q", model)
}

// init lazily loads the tiktoken encoding (may download data on first use).
func (t *Tiktoken) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("tokenizer: init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

func (t *Tiktoken) CountTokens(text string) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	return len(t.enc.Encode(text, nil, nil)), nil
}

func (t *Tiktoken) CountMessages(messages []types.Message) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	total := 0
	for _, msg := range messages {
		// Per-message overhead: <|start|>role\n content<|end|>\n
		total += 4
		total += len(t.enc.Encode(msg.Content, nil, nil))
		total += len(t.enc.Encode(string(msg.Role), nil, nil))
	}
	total += 3 // conversation-end overhead
	return total, nil
}

func (t *Tiktoken) Name() string {
	return fmt.Sprintf("tiktoken[%s]", t.encoding)
}
