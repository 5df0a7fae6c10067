package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{
			name:     "pure object",
			input:    `{"a":1}`,
			expected: `{"a":1}`,
			ok:       true,
		},
		{
			name:     "fenced block with language tag and trailing comma",
			input:    "```json\n[{\"a\":1},]\n```",
			expected: `[{"a":1}]`,
			ok:       true,
		},
		{
			name:     "fenced block without language tag",
			input:    "```\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
			ok:       true,
		},
		{
			name:     "prose around object",
			input:    `prefix text {"a":1} suffix`,
			expected: `{"a":1}`,
			ok:       true,
		},
		{
			name:     "array before object picks earliest start",
			input:    `noise [1,2,3] tail`,
			expected: `[1,2,3]`,
			ok:       true,
		},
		{
			name:     "trailing comma inside nested structures",
			input:    `{"a":[1,2,],"b":{"c":3,},}`,
			expected: `{"a":[1,2],"b":{"c":3}}`,
			ok:       true,
		},
		{
			name:  "no json at all",
			input: "no json here",
			ok:    false,
		},
		{
			name:  "empty input",
			input: "   ",
			ok:    false,
		},
		{
			name:  "open brace without close",
			input: `blah {"a": 1`,
			ok:    false,
		},
		{
			name:  "unparseable slice fails whole extraction",
			input: `{"a": 1, "b": }`,
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestExtractJSON_EquivalentAcrossWrappings(t *testing.T) {
	// The same value must be recovered whether the payload is fenced,
	// surrounded by prose, or bare.
	inputs := []string{
		"```json\n{\"a\":1}\n```",
		`prefix text {"a":1} suffix`,
		`{"a":1}`,
	}

	for _, input := range inputs {
		var decoded map[string]int
		require.True(t, DecodeJSON(input, &decoded), "input: %q", input)
		assert.Equal(t, map[string]int{"a": 1}, decoded)
	}
}

func TestDecodeJSON_Failure(t *testing.T) {
	var decoded map[string]int
	assert.False(t, DecodeJSON("nothing structured", &decoded))
}

func TestDecodeJSON_ArrayTarget(t *testing.T) {
	var decoded []map[string]int
	require.True(t, DecodeJSON("```json\n[{\"a\":1},]\n```", &decoded))
	assert.Equal(t, []map[string]int{{"a": 1}}, decoded)
}
