package services

import (
	"context"
	"testing"

	"studyapp/internal/models"
	contextutils "studyapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGradingEngine(t *testing.T, client AIClient) *GradingEngine {
	t.Helper()
	prompts, err := NewPromptManager()
	require.NoError(t, err)
	return NewGradingEngine(client, prompts, nopLogger())
}

func intp(v int) *int       { return &v }
func boolp(v bool) *bool    { return &v }
func strp(v string) *string { return &v }

func gradingQuestions() []models.InteractiveBlock {
	return []models.InteractiveBlock{
		{Type: models.BlockExplanation, ID: "e1", Text: "context"},
		{Type: models.BlockMultipleChoice, ID: "mc1", Question: "Pick one", Options: []string{"red", "green", "blue"}, CorrectAnswerIndex: intp(2)},
		{Type: models.BlockTrueFalse, ID: "tf1", Question: "Water is wet", CorrectAnswer: boolp(true)},
		{Type: models.BlockFillInTheBlank, ID: "fib1", QuestionParts: []string{"Roses are", "and violets are", "."}, CorrectAnswers: []string{"red", "blue"}},
		{Type: models.BlockOpenEnded, ID: "oe1", Question: "Why is the sky blue?"},
	}
}

func TestBuildDisplayPairs_RendersPerVariant(t *testing.T) {
	answers := []models.UserAnswer{
		{QuestionID: "mc1", Answer: models.AnswerValue{Index: intp(1)}},
		{QuestionID: "tf1", Answer: models.AnswerValue{Bool: boolp(false)}},
		{QuestionID: "fib1", Answer: models.AnswerValue{Blanks: []string{"red", ""}}},
		{QuestionID: "oe1", Answer: models.AnswerValue{Text: strp("Rayleigh scattering")}},
	}

	pairs := buildDisplayPairs(answers, gradingQuestions())

	require.Len(t, pairs, 4)

	assert.Equal(t, "green", pairs[0].UserAnswer, "multiple choice renders the option text, not the index")
	assert.Equal(t, "blue", pairs[0].CorrectAnswer)

	assert.Equal(t, "false", pairs[1].UserAnswer)
	assert.Equal(t, "true", pairs[1].CorrectAnswer)

	assert.Equal(t, "Roses are [blank] and violets are [blank] .", pairs[2].Question)
	assert.Equal(t, "red, empty", pairs[2].UserAnswer, "empty blanks get a placeholder")
	assert.Equal(t, "red, blue", pairs[2].CorrectAnswer)

	assert.Equal(t, "Rayleigh scattering", pairs[3].UserAnswer)
	assert.Equal(t, openEndedGradingNote, pairs[3].CorrectAnswer)
}

func TestBuildDisplayPairs_DiscardsUnresolvableAnswers(t *testing.T) {
	answers := []models.UserAnswer{
		{QuestionID: "missing", Answer: models.AnswerValue{Index: intp(0)}},
		{QuestionID: "e1", Answer: models.AnswerValue{Index: intp(0)}}, // not a question block
		{QuestionID: "tf1", Answer: models.AnswerValue{Bool: boolp(true)}},
	}

	pairs := buildDisplayPairs(answers, gradingQuestions())

	require.Len(t, pairs, 1)
	assert.Equal(t, "tf1", pairs[0].QuestionID)
}

func TestBuildDisplayPairs_ShapeMismatchRendersPlaceholder(t *testing.T) {
	// A text answer submitted for a multiple-choice question cannot be
	// resolved to an option; the pair survives with a placeholder.
	answers := []models.UserAnswer{
		{QuestionID: "mc1", Answer: models.AnswerValue{Text: strp("green")}},
	}

	pairs := buildDisplayPairs(answers, gradingQuestions())

	require.Len(t, pairs, 1)
	assert.Equal(t, displayUnavailable, pairs[0].UserAnswer)
}

func TestBuildDisplayPairs_OutOfRangeCorrectIndexRendersPlaceholder(t *testing.T) {
	// Question blocks come straight from the caller, so the correct-answer
	// index is as untrusted as the user's. Out-of-range values on either
	// side must not abort the batch.
	questions := []models.InteractiveBlock{
		{Type: models.BlockMultipleChoice, ID: "mc-neg", Question: "Pick one", Options: []string{"a", "b"}, CorrectAnswerIndex: intp(-1)},
		{Type: models.BlockMultipleChoice, ID: "mc-big", Question: "Pick one", Options: []string{"a", "b"}, CorrectAnswerIndex: intp(5)},
	}
	answers := []models.UserAnswer{
		{QuestionID: "mc-neg", Answer: models.AnswerValue{Index: intp(0)}},
		{QuestionID: "mc-big", Answer: models.AnswerValue{Index: intp(-2)}},
	}

	pairs := buildDisplayPairs(answers, questions)

	require.Len(t, pairs, 2)
	assert.Equal(t, "a", pairs[0].UserAnswer)
	assert.Empty(t, pairs[0].CorrectAnswer)
	assert.Equal(t, displayUnavailable, pairs[1].UserAnswer)
	assert.Empty(t, pairs[1].CorrectAnswer)
}

func TestGrade_EmptyPairsSkipRemoteCall(t *testing.T) {
	client := newFakeAIClient()
	engine := newTestGradingEngine(t, client)

	feedback, err := engine.Grade(context.Background(), []models.UserAnswer{
		{QuestionID: "unknown", Answer: models.AnswerValue{Index: intp(0)}},
	}, gradingQuestions())

	require.NoError(t, err)
	require.NotNil(t, feedback)
	assert.Empty(t, feedback)
	assert.Equal(t, 0, client.callCount(), "no generator call when nothing resolves")
}

func TestGrade_ReconcilesFeedbackToQuestions(t *testing.T) {
	client := newFakeAIClient(respond(`[
		{"questionId": "mc1", "isCorrect": false, "explanation": "Not quite; the correct answer is blue."},
		{"questionId": "tf1", "isCorrect": true, "explanation": "Great answer!"}
	]`))
	engine := newTestGradingEngine(t, client)

	answers := []models.UserAnswer{
		{QuestionID: "mc1", Answer: models.AnswerValue{Index: intp(1)}},
		{QuestionID: "tf1", Answer: models.AnswerValue{Bool: boolp(true)}},
	}
	feedback, err := engine.Grade(context.Background(), answers, gradingQuestions())

	require.NoError(t, err)
	require.Len(t, feedback, 2)
	assert.Equal(t, "Pick one", feedback[0].Question)
	assert.Equal(t, "green", feedback[0].UserAnswer)
	assert.False(t, feedback[0].IsCorrect)
	assert.True(t, feedback[1].IsCorrect)
}

func TestGrade_MissingFeedbackEntriesAreAbsent(t *testing.T) {
	// The model only answers for one of the two submitted questions.
	client := newFakeAIClient(respond(`[
		{"questionId": "tf1", "isCorrect": true, "explanation": "Great answer!"}
	]`))
	engine := newTestGradingEngine(t, client)

	answers := []models.UserAnswer{
		{QuestionID: "mc1", Answer: models.AnswerValue{Index: intp(0)}},
		{QuestionID: "tf1", Answer: models.AnswerValue{Bool: boolp(true)}},
	}
	feedback, err := engine.Grade(context.Background(), answers, gradingQuestions())

	require.NoError(t, err)
	require.Len(t, feedback, 1, "ungraded questions are absent, never synthesized")
	assert.Equal(t, "tf1", feedback[0].QuestionID)
}

func TestGrade_FailureAfterRetries(t *testing.T) {
	client := newFakeAIClient(transientFailure(), transientFailure(), transientFailure())
	engine := newTestGradingEngine(t, client)

	answers := []models.UserAnswer{{QuestionID: "tf1", Answer: models.AnswerValue{Bool: boolp(true)}}}
	feedback, err := engine.Grade(context.Background(), answers, gradingQuestions())

	require.Error(t, err)
	assert.Nil(t, feedback)
	assert.Equal(t, contextutils.ErrorCodeGradingFailed, contextutils.GetErrorCode(err))
}

func TestGrade_UnparsableResponseIsAnError(t *testing.T) {
	client := newFakeAIClient(respond("I think they did well overall."))
	engine := newTestGradingEngine(t, client)

	answers := []models.UserAnswer{{QuestionID: "tf1", Answer: models.AnswerValue{Bool: boolp(true)}}}
	feedback, err := engine.Grade(context.Background(), answers, gradingQuestions())

	require.Error(t, err)
	assert.Nil(t, feedback)
}
