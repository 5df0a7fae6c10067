package services

import (
	"context"
	"math"
	"strings"

	"studyapp/internal/config"
	"studyapp/internal/models"
	"studyapp/internal/observability"
	contextutils "studyapp/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// Fixed display strings for summary outcomes.
const (
	NoSummaryInput  = "There is no text to summarize."
	SummaryFallback = "Sorry, something went wrong while creating the summary."
)

// SummaryService produces chapter summaries, proofreads page text, and
// categorizes a book library.
type SummaryService struct {
	client  AIClient
	prompts *PromptManager
	logger  *observability.Logger
}

// NewSummaryService creates a summary service.
func NewSummaryService(client AIClient, prompts *PromptManager, logger *observability.Logger) *SummaryService {
	return &SummaryService{
		client:  client,
		prompts: prompts,
		logger:  logger,
	}
}

// SummarizeChapter produces a detailed summary targeting a quarter of the
// chapter's word count. An optional style directive is passed through to
// the prompt. On failure the result is a fixed apology string; summary
// consumers always get displayable text.
func (s *SummaryService) SummarizeChapter(ctx context.Context, chapterText, style string) string {
	ctx, span := observability.TraceAIFunction(ctx, "summarize_chapter",
		attribute.Int("chapter.text_length", len(chapterText)),
	)
	var spanErr error
	defer observability.FinishSpan(span, &spanErr)

	if strings.TrimSpace(chapterText) == "" {
		return NoSummaryInput
	}

	wordCount := len(strings.Fields(chapterText))
	targetWordCount := int(math.Round(float64(wordCount) * 0.25))

	prompt, err := s.prompts.Render(ChapterSummaryTemplate, PromptData{
		ChapterText:     chapterText,
		WordCount:       wordCount,
		TargetWordCount: targetWordCount,
		SummaryStyle:    style,
	})
	if err != nil {
		spanErr = err
		return SummaryFallback
	}

	summary, err := invokeGeneration(ctx, s.logger, func(ctx context.Context) (string, error) {
		return s.client.Generate(ctx, prompt)
	})
	if err != nil {
		spanErr = err
		s.logger.Error(ctx, "Chapter summarization failed after retries", err, map[string]interface{}{
			"word_count": wordCount,
		})
		return SummaryFallback
	}

	span.SetAttributes(attribute.Int("summary.length", len(summary)))
	return strings.TrimSpace(summary)
}

// ProofreadPage corrects spelling and grammar in one page of extracted
// text. Whatever goes wrong, the caller gets text back; the original is
// returned unchanged when the input is blank or the request fails.
func (s *SummaryService) ProofreadPage(ctx context.Context, text string) string {
	ctx, span := observability.TraceAIFunction(ctx, "proofread_page",
		attribute.Int("page.text_length", len(text)),
	)
	var spanErr error
	defer observability.FinishSpan(span, &spanErr)

	if strings.TrimSpace(text) == "" {
		return text
	}

	prompt, err := s.prompts.Render(ProofreadPageTemplate, PromptData{PageText: text})
	if err != nil {
		spanErr = err
		return text
	}

	corrected, err := invokeGeneration(ctx, s.logger, func(ctx context.Context) (string, error) {
		return s.client.Generate(ctx, prompt)
	})
	if err != nil {
		spanErr = err
		s.logger.Warn(ctx, "Proofreading failed, keeping original text", map[string]interface{}{
			"error": err.Error(),
		})
		return text
	}

	corrected = strings.TrimSpace(corrected)
	if corrected == "" {
		return text
	}
	return corrected
}

// CategorizeBooks groups book titles into categories and sub-categories.
// An empty library yields an empty result without a remote call.
func (s *SummaryService) CategorizeBooks(ctx context.Context, bookTitles []string) (result0 []models.BookCategory, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "categorize_books",
		attribute.Int("books.count", len(bookTitles)),
	)
	defer observability.FinishSpan(span, &err)

	if len(bookTitles) == 0 {
		return []models.BookCategory{}, nil
	}

	prompt, err := s.prompts.Render(CategorizeBooksTemplate, PromptData{BookTitles: bookTitles})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render categorization prompt")
	}

	categories, err := callWithRetry(ctx, s.logger, config.MaxAIAttempts, config.AIRetryBaseDelay, func(ctx context.Context) ([]models.BookCategory, error) {
		raw, err := s.client.GenerateJSON(ctx, prompt)
		if err != nil {
			return nil, err
		}

		var cats []models.BookCategory
		if !DecodeJSON(raw, &cats) {
			s.logger.Warn(ctx, "Categorization response was not parseable", map[string]interface{}{
				"response_length": len(raw),
			})
			return nil, nil
		}
		return cats, nil
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrGenerationFailed, "book categorization failed: %v", err)
	}
	if categories == nil {
		return nil, contextutils.WrapError(contextutils.ErrAIResponseInvalid, "categorization response could not be parsed")
	}

	span.SetAttributes(attribute.Int("categories.count", len(categories)))
	return categories, nil
}
