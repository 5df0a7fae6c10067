package services

import (
	"context"
	"strings"
	"testing"

	"studyapp/internal/models"
	contextutils "studyapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStructureAnalyzer(t *testing.T, client AIClient) *StructureAnalyzer {
	t.Helper()
	prompts, err := NewPromptManager()
	require.NoError(t, err)
	return NewStructureAnalyzer(client, prompts, &seqIDGenerator{}, nopLogger())
}

func pagesOf(n int) []models.PageText {
	pages := make([]models.PageText, n)
	for i := range pages {
		pages[i] = models.PageText{PageNumber: i + 1, Text: "page body"}
	}
	return pages
}

func TestAnalyzeDocument_RepairsOverlappingRanges(t *testing.T) {
	// Chapter 1 claims pages 1-12 but chapter 2 starts at page 10, and the
	// model ends the last chapter short of the document.
	client := newFakeAIClient(respond(`[
		{"title": "Introduction", "startPage": 1, "endPage": 12},
		{"title": "Mechanics", "startPage": 10, "endPage": 18},
		{"title": "Waves", "startPage": 19, "endPage": 24}
	]`))
	analyzer := newTestStructureAnalyzer(t, client)

	chapters := analyzer.AnalyzeDocument(context.Background(), pagesOf(30))

	require.Len(t, chapters, 3)
	assert.Equal(t, 9, chapters[0].EndPage, "overlap should be clamped to the next chapter's start minus one")
	assert.Equal(t, 10, chapters[1].StartPage)
	assert.Equal(t, 30, chapters[2].EndPage, "final chapter must extend to the last page")
	for _, c := range chapters {
		assert.NotEmpty(t, c.ID)
		assert.LessOrEqual(t, c.StartPage, c.EndPage)
	}
}

func TestAnalyzeDocument_DropsInvalidChapters(t *testing.T) {
	client := newFakeAIClient(respond(`[
		{"title": "Ghost", "startPage": 0, "endPage": 5},
		{"title": "Real", "startPage": 6, "endPage": 10},
		{"title": "Beyond", "startPage": 99, "endPage": 120}
	]`))
	analyzer := newTestStructureAnalyzer(t, client)

	chapters := analyzer.AnalyzeDocument(context.Background(), pagesOf(10))

	require.Len(t, chapters, 1)
	assert.Equal(t, "Real", chapters[0].Title)
}

func TestAnalyzeDocument_UnparsableResponseFallsBackToWholeDocument(t *testing.T) {
	client := newFakeAIClient(respond("I could not find any chapters, sorry."))
	analyzer := newTestStructureAnalyzer(t, client)

	chapters := analyzer.AnalyzeDocument(context.Background(), pagesOf(42))

	require.Len(t, chapters, 1)
	assert.Equal(t, 1, chapters[0].StartPage)
	assert.Equal(t, 42, chapters[0].EndPage)
	assert.NotEmpty(t, chapters[0].ID)
	assert.Equal(t, 1, client.callCount(), "a parse failure must not be retried")
}

func TestAnalyzeDocument_ExhaustedRetriesFallBackToWholeDocument(t *testing.T) {
	client := newFakeAIClient(transientFailure(), transientFailure(), transientFailure())
	analyzer := newTestStructureAnalyzer(t, client)

	chapters := analyzer.AnalyzeDocument(context.Background(), pagesOf(7))

	require.Len(t, chapters, 1)
	assert.Equal(t, 7, chapters[0].EndPage)
	assert.Equal(t, 3, client.callCount())
}

func TestAnalyzeDocument_CapsAnalysisInput(t *testing.T) {
	client := newFakeAIClient(respond(`[{"title": "All", "startPage": 1, "endPage": 700}]`))
	analyzer := newTestStructureAnalyzer(t, client)

	chapters := analyzer.AnalyzeDocument(context.Background(), pagesOf(700))

	prompt := client.lastPrompt()
	assert.Contains(t, prompt, "--- PAGE 600 ---")
	assert.NotContains(t, prompt, "--- PAGE 601 ---", "analysis input is capped at 600 pages")
	assert.Contains(t, prompt, "700", "the real page total still appears in the prompt")
	require.Len(t, chapters, 1)
	assert.Equal(t, 700, chapters[0].EndPage)
}

func TestAnalyzeChapterForLessons_AssignsIDs(t *testing.T) {
	client := newFakeAIClient(respond(`[
		{"title": "Vectors", "startPage": 10, "endPage": 13},
		{"title": "Forces", "startPage": 14, "endPage": 18}
	]`))
	analyzer := newTestStructureAnalyzer(t, client)
	chapter := models.Chapter{Title: "Mechanics", StartPage: 10, EndPage: 18}

	lessons, err := analyzer.AnalyzeChapterForLessons(context.Background(), "chapter body", chapter)

	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, "Vectors", lessons[0].Title)
	assert.NotEmpty(t, lessons[0].ID)
	assert.NotEqual(t, lessons[0].ID, lessons[1].ID)
}

func TestAnalyzeChapterForLessons_EmptyVersusFailure(t *testing.T) {
	t.Run("unparsable response yields empty slice without error", func(t *testing.T) {
		client := newFakeAIClient(respond("no structure here"))
		analyzer := newTestStructureAnalyzer(t, client)

		lessons, err := analyzer.AnalyzeChapterForLessons(context.Background(), "text", models.Chapter{Title: "C"})

		require.NoError(t, err)
		require.NotNil(t, lessons)
		assert.Empty(t, lessons)
	})

	t.Run("exhausted retries yield nil and an error", func(t *testing.T) {
		client := newFakeAIClient(transientFailure(), transientFailure(), transientFailure())
		analyzer := newTestStructureAnalyzer(t, client)

		lessons, err := analyzer.AnalyzeChapterForLessons(context.Background(), "text", models.Chapter{Title: "C"})

		require.Error(t, err)
		assert.Nil(t, lessons)
		assert.Equal(t, contextutils.ErrorCodeAnalysisFailed, contextutils.GetErrorCode(err))
	})
}

func TestAnalyzeChapterForLessons_TruncatesLongChapters(t *testing.T) {
	client := newFakeAIClient(respond(`[]`))
	analyzer := newTestStructureAnalyzer(t, client)
	longText := strings.Repeat("x", 60000)

	_, err := analyzer.AnalyzeChapterForLessons(context.Background(), longText, models.Chapter{Title: "Long"})

	require.NoError(t, err)
	assert.Less(t, len(client.lastPrompt()), 55000, "chapter excerpt should be capped before prompting")
}
