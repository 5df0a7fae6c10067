package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int    { return &i }
func boolPtr(b bool) *bool { return &b }

func TestBlockType_IsQuestion(t *testing.T) {
	tests := []struct {
		blockType  BlockType
		isQuestion bool
	}{
		{BlockExplanation, false},
		{BlockMathFormula, false},
		{BlockMultipleChoice, true},
		{BlockTrueFalse, true},
		{BlockFillInTheBlank, true},
		{BlockOpenEnded, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.blockType), func(t *testing.T) {
			assert.Equal(t, tt.isQuestion, tt.blockType.IsQuestion())
		})
	}
}

func TestInteractiveBlock_PromptText(t *testing.T) {
	tests := []struct {
		name     string
		block    InteractiveBlock
		expected string
	}{
		{
			name:     "multiple choice uses question text",
			block:    InteractiveBlock{Type: BlockMultipleChoice, Question: "What is 2+2?"},
			expected: "What is 2+2?",
		},
		{
			name:     "true false uses question text",
			block:    InteractiveBlock{Type: BlockTrueFalse, Question: "The sky is green."},
			expected: "The sky is green.",
		},
		{
			name:     "fill in the blank joins parts with inline blank",
			block:    InteractiveBlock{Type: BlockFillInTheBlank, QuestionParts: []string{"Water boils at", "degrees."}},
			expected: "Water boils at ___ degrees.",
		},
		{
			name:     "explanation has no prompt",
			block:    InteractiveBlock{Type: BlockExplanation, Text: "Some text"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.block.PromptText())
		})
	}
}

func TestInteractiveContent_AppendBlocks(t *testing.T) {
	original := InteractiveContent{
		ID:    "content-1",
		Title: "Lesson",
		Content: []InteractiveBlock{
			{Type: BlockExplanation, ID: "b1", Text: "intro"},
			{Type: BlockOpenEnded, ID: "b2", Question: "why?"},
		},
	}

	appended := original.AppendBlocks([]InteractiveBlock{
		{Type: BlockTrueFalse, ID: "b3", Question: "really?", CorrectAnswer: boolPtr(true)},
	})

	// Original untouched, new value carries old blocks in order plus the new one.
	require.Len(t, original.Content, 2)
	require.Len(t, appended.Content, 3)
	assert.Equal(t, "b1", appended.Content[0].ID)
	assert.Equal(t, "b2", appended.Content[1].ID)
	assert.Equal(t, "b3", appended.Content[2].ID)
	assert.Equal(t, original.ID, appended.ID)
}

func TestInteractiveContent_QuestionBlocks(t *testing.T) {
	content := InteractiveContent{
		Content: []InteractiveBlock{
			{Type: BlockExplanation, ID: "e1"},
			{Type: BlockMultipleChoice, ID: "q1"},
			{Type: BlockMathFormula, ID: "m1"},
			{Type: BlockFillInTheBlank, ID: "q2"},
		},
	}

	questions := content.QuestionBlocks()
	require.Len(t, questions, 2)
	assert.Equal(t, "q1", questions[0].ID)
	assert.Equal(t, "q2", questions[1].ID)
}

func TestAnswerValue_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, v AnswerValue)
	}{
		{
			name:  "number becomes index",
			input: `{"questionId":"q1","answer":2}`,
			check: func(t *testing.T, v AnswerValue) {
				require.NotNil(t, v.Index)
				assert.Equal(t, 2, *v.Index)
			},
		},
		{
			name:  "boolean",
			input: `{"questionId":"q1","answer":false}`,
			check: func(t *testing.T, v AnswerValue) {
				require.NotNil(t, v.Bool)
				assert.False(t, *v.Bool)
			},
		},
		{
			name:  "string",
			input: `{"questionId":"q1","answer":"free text"}`,
			check: func(t *testing.T, v AnswerValue) {
				require.NotNil(t, v.Text)
				assert.Equal(t, "free text", *v.Text)
			},
		},
		{
			name:  "array of blanks",
			input: `{"questionId":"q1","answer":["a","","c"]}`,
			check: func(t *testing.T, v AnswerValue) {
				assert.Equal(t, []string{"a", "", "c"}, v.Blanks)
			},
		},
		{
			name:  "null stays empty",
			input: `{"questionId":"q1","answer":null}`,
			check: func(t *testing.T, v AnswerValue) {
				assert.Nil(t, v.Index)
				assert.Nil(t, v.Bool)
				assert.Nil(t, v.Text)
				assert.Nil(t, v.Blanks)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ua UserAnswer
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ua))
			assert.Equal(t, "q1", ua.QuestionID)
			tt.check(t, ua.Answer)
		})
	}
}

func TestAnswerValue_MarshalRoundTrip(t *testing.T) {
	answers := []UserAnswer{
		{QuestionID: "q1", Answer: AnswerValue{Index: intPtr(1)}},
		{QuestionID: "q2", Answer: AnswerValue{Bool: boolPtr(true)}},
		{QuestionID: "q3", Answer: AnswerValue{Blanks: []string{"x", "y"}}},
	}

	data, err := json.Marshal(answers)
	require.NoError(t, err)

	var decoded []UserAnswer
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, answers, decoded)
}

func TestInteractiveBlock_JSONMatchesGeneratorSchema(t *testing.T) {
	// Field names on the wire must match what the generator is instructed to
	// produce, so its output unmarshals directly into the block type.
	raw := `{"type":"multiple_choice_question","question":"Pick one","options":["A","B"],"correctAnswerIndex":1}`

	var block InteractiveBlock
	require.NoError(t, json.Unmarshal([]byte(raw), &block))

	assert.Equal(t, BlockMultipleChoice, block.Type)
	assert.Equal(t, "Pick one", block.Question)
	assert.Equal(t, []string{"A", "B"}, block.Options)
	require.NotNil(t, block.CorrectAnswerIndex)
	assert.Equal(t, 1, *block.CorrectAnswerIndex)
	assert.Empty(t, block.ID, "generator output carries no id; ids are assigned locally")
}
