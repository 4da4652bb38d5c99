package jsonrepair

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no fences",
			input:    `{"a":1}`,
			expected: `{"a":1}`,
		},
		{
			name:     "json fence",
			input:    "```json\n{\"a\":1}\n```",
			expected: `{"a":1}`,
		},
		{
			name:     "bare fence with surrounding prose spacing",
			input:    "\n```\n{\"a\": 1}\n```\n",
			expected: `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripFences(tt.input))
		})
	}
}

func TestRepair(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "trailing comma in object",
			input:    `{"a": 1,}`,
			expected: `{"a": 1}`,
		},
		{
			name:     "trailing comma in array",
			input:    `{"a": [1, 2,],}`,
			expected: `{"a": [1, 2]}`,
		},
		{
			name:     "missing closing brace",
			input:    `{"a": {"b": 1}`,
			expected: `{"a": {"b": 1}}`,
		},
		{
			name:     "stray closing bracket",
			input:    `{"a": 1}]`,
			expected: `{"a": 1}`,
		},
		{
			name:     "single quoted strings",
			input:    `{'title': 'Dal Fry'}`,
			expected: `{"title": "Dal Fry"}`,
		},
		{
			name:     "smart quotes",
			input:    `{“title”: “Tacos”}`,
			expected: `{"title": "Tacos"}`,
		},
		{
			name:     "leading prose",
			input:    `Here is your recipe: {"title": "Soup"}`,
			expected: `{"title": "Soup"}`,
		},
		{
			name:     "unterminated string",
			input:    `{"title": "Soup`,
			expected: `{"title": "Soup"}`,
		},
		{
			name:     "comma inside string preserved",
			input:    `{"a": "1, 2,"}`,
			expected: `{"a": "1, 2,"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Repair(tt.input))
		})
	}
}

func TestParse(t *testing.T) {
	type payload struct {
		Title       string   `json:"title"`
		Ingredients []string `json:"ingredients"`
	}

	t.Run("strict parse succeeds without repair", func(t *testing.T) {
		var p payload
		err := Parse(`{"title":"Rice Bowl","ingredients":["rice"]}`, &p)
		require.NoError(t, err)
		assert.Equal(t, "Rice Bowl", p.Title)
	})

	t.Run("fenced output with trailing comma parses after repair", func(t *testing.T) {
		var p payload
		raw := "```json\n{\"title\": \"Rice Bowl\", \"ingredients\": [\"rice\",],}\n```"
		err := Parse(raw, &p)
		require.NoError(t, err)
		assert.Equal(t, "Rice Bowl", p.Title)
		assert.Equal(t, []string{"rice"}, p.Ingredients)
	})

	t.Run("unrepairable input reports RepairError with raw text", func(t *testing.T) {
		var p payload
		raw := "I could not produce a recipe today, sorry."
		err := Parse(raw, &p)
		require.Error(t, err)

		var repairErr *RepairError
		require.True(t, errors.As(err, &repairErr))
		assert.Equal(t, raw, repairErr.Raw)
	})
}
