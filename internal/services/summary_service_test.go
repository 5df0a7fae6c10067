package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSummaryService(t *testing.T, client AIClient) *SummaryService {
	t.Helper()
	prompts, err := NewPromptManager()
	require.NoError(t, err)
	return NewSummaryService(client, prompts, nopLogger())
}

func TestSummarizeChapter_TargetsQuarterLength(t *testing.T) {
	client := newFakeAIClient(respond("A condensed retelling of the chapter."))
	svc := newTestSummaryService(t, client)
	chapterText := strings.Repeat("word ", 400)

	summary := svc.SummarizeChapter(context.Background(), chapterText, "")

	assert.Equal(t, "A condensed retelling of the chapter.", summary)
	prompt := client.lastPrompt()
	assert.Contains(t, prompt, "400", "original word count appears in the prompt")
	assert.Contains(t, prompt, "100", "quarter-length target appears in the prompt")
}

func TestSummarizeChapter_StyleDirective(t *testing.T) {
	client := newFakeAIClient(respond("Bullet points everywhere."))
	svc := newTestSummaryService(t, client)

	svc.SummarizeChapter(context.Background(), "some chapter text here", "bullet points")

	assert.Contains(t, client.lastPrompt(), "bullet points")
}

func TestSummarizeChapter_EmptyInput(t *testing.T) {
	client := newFakeAIClient()
	svc := newTestSummaryService(t, client)

	summary := svc.SummarizeChapter(context.Background(), "   \n\t ", "")

	assert.Equal(t, NoSummaryInput, summary)
	assert.Equal(t, 0, client.callCount())
}

func TestSummarizeChapter_FallbackOnFailure(t *testing.T) {
	client := newFakeAIClient(transientFailure(), transientFailure(), transientFailure())
	svc := newTestSummaryService(t, client)

	summary := svc.SummarizeChapter(context.Background(), "chapter text", "")

	assert.Equal(t, SummaryFallback, summary)
}

func TestProofreadPage(t *testing.T) {
	t.Run("returns corrected text", func(t *testing.T) {
		client := newFakeAIClient(respond("The corrected page."))
		svc := newTestSummaryService(t, client)

		got := svc.ProofreadPage(context.Background(), "Teh corected page.")

		assert.Equal(t, "The corrected page.", got)
	})

	t.Run("blank input is returned untouched without a call", func(t *testing.T) {
		client := newFakeAIClient()
		svc := newTestSummaryService(t, client)

		got := svc.ProofreadPage(context.Background(), "  ")

		assert.Equal(t, "  ", got)
		assert.Equal(t, 0, client.callCount())
	})

	t.Run("failure returns the original text", func(t *testing.T) {
		client := newFakeAIClient(transientFailure(), transientFailure(), transientFailure())
		svc := newTestSummaryService(t, client)

		got := svc.ProofreadPage(context.Background(), "original words")

		assert.Equal(t, "original words", got)
	})
}

func TestCategorizeBooks(t *testing.T) {
	t.Run("groups titles", func(t *testing.T) {
		client := newFakeAIClient(respond(`[
			{
				"category": "Computer Science",
				"subCategories": [
					{"subCategory": "Databases", "books": ["SQL Basics"]}
				]
			}
		]`))
		svc := newTestSummaryService(t, client)

		cats, err := svc.CategorizeBooks(context.Background(), []string{"SQL Basics"})

		require.NoError(t, err)
		require.Len(t, cats, 1)
		assert.Equal(t, "Computer Science", cats[0].Category)
		require.Len(t, cats[0].SubCategories, 1)
		assert.Equal(t, []string{"SQL Basics"}, cats[0].SubCategories[0].Books)
	})

	t.Run("empty library skips the remote call", func(t *testing.T) {
		client := newFakeAIClient()
		svc := newTestSummaryService(t, client)

		cats, err := svc.CategorizeBooks(context.Background(), nil)

		require.NoError(t, err)
		assert.Empty(t, cats)
		assert.Equal(t, 0, client.callCount())
	})

	t.Run("unparsable response is an error", func(t *testing.T) {
		client := newFakeAIClient(respond("these are great books"))
		svc := newTestSummaryService(t, client)

		cats, err := svc.CategorizeBooks(context.Background(), []string{"A"})

		require.Error(t, err)
		assert.Nil(t, cats)
	})
}
