package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llama-farm/atmosphere-sub001/types"
)

func TestEstimateMessages(t *testing.T) {
	tests := []struct {
		name     string
		messages []types.Message
		want     int
	}{
		{
			name: "empty conversation",
			want: 0,
		},
		{
			name: "short message rounds down",
			messages: []types.Message{
				{Role: types.RoleUser, Content: "hey"},
			},
			want: 0,
		},
		{
			name: "four chars is one token",
			messages: []types.Message{
				{Role: types.RoleUser, Content: "abcd"},
			},
			want: 1,
		},
		{
			name: "content sums across messages",
			messages: []types.Message{
				{Role: types.RoleSystem, Content: strings.Repeat("a", 100)},
				{Role: types.RoleUser, Content: strings.Repeat("b", 60)},
			},
			want: 40,
		},
		{
			name: "multibyte runes count as one character",
			messages: []types.Message{
				{Role: types.RoleUser, Content: strings.Repeat("世", 8)},
			},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateMessages(tt.messages))
		})
	}
}

func TestEstimatorCountTokens(t *testing.T) {
	e := NewEstimator()

	t.Run("empty text", func(t *testing.T) {
		n, err := e.CountTokens("")
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("ascii text", func(t *testing.T) {
		n, err := e.CountTokens(strings.Repeat("x", 40))
		require.NoError(t, err)
		assert.Equal(t, 10, n)
	})

	t.Run("cjk text is denser", func(t *testing.T) {
		ascii, err := e.CountTokens(strings.Repeat("x", 12))
		require.NoError(t, err)
		cjk, err := e.CountTokens(strings.Repeat("语", 12))
		require.NoError(t, err)
		assert.Greater(t, cjk, ascii)
	})

	t.Run("non-empty text counts at least one token", func(t *testing.T) {
		n, err := e.CountTokens("a")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestEstimatorCountMessages(t *testing.T) {
	e := NewEstimator()

	n, err := e.CountMessages([]types.Message{
		{Role: types.RoleUser, Content: strings.Repeat("a", 40)},
		{Role: types.RoleAssistant, Content: strings.Repeat("b", 8)},
	})
	require.NoError(t, err)
	// 10 and 2 content tokens, 4 per-message overhead each, 3 trailing.
	assert.Equal(t, 10+4+2+4+3, n)
}

func TestForModel(t *testing.T) {
	// Unknown models fall back to the estimator so routing never fails
	// on a model name it has not seen.
	tok := ForModel("some-custom-model")
	assert.Equal(t, "estimator", tok.Name())
}
