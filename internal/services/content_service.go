package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"studyapp/internal/config"
	"studyapp/internal/models"
	"studyapp/internal/observability"
	contextutils "studyapp/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// ContentGenerator produces interactive lesson content and question batches.
type ContentGenerator struct {
	client  AIClient
	prompts *PromptManager
	idGen   IDGenerator
	logger  *observability.Logger

	// replaced in tests to avoid real sleeps
	sleep func(ctx context.Context, d time.Duration) error
}

// NewContentGenerator creates a content generator.
func NewContentGenerator(client AIClient, prompts *PromptManager, idGen IDGenerator, logger *observability.Logger) *ContentGenerator {
	return &ContentGenerator{
		client:  client,
		prompts: prompts,
		idGen:   idGen,
		logger:  logger,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// rawContent is the wire shape of a generated lesson before IDs are assigned.
type rawContent struct {
	Title   string                    `json:"title"`
	Content []models.InteractiveBlock `json:"content"`
}

// assignBlockIDs gives every block a locally generated ID. Generation
// services never assign IDs; the ID is the stable join key for grading and
// retry, so it must be minted exactly once, here.
func (g *ContentGenerator) assignBlockIDs(blocks []models.InteractiveBlock) []models.InteractiveBlock {
	out := make([]models.InteractiveBlock, len(blocks))
	for i, b := range blocks {
		b.ID = g.idGen.NewID()
		out[i] = b
	}
	return out
}

// GenerateLesson turns the text of a lesson's pages into an interactive
// teaching unit. Returns nil without error when the response is unusable.
func (g *ContentGenerator) GenerateLesson(ctx context.Context, lessonPages []models.PageText) (result0 *models.InteractiveContent, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "generate_interactive_lesson",
		attribute.Int("lesson.pages", len(lessonPages)),
	)
	defer observability.FinishSpan(span, &err)

	parts := make([]string, 0, len(lessonPages))
	for _, p := range lessonPages {
		parts = append(parts, fmt.Sprintf("--- PAGE %d ---\n%s", p.PageNumber, p.Text))
	}
	sourceText := strings.Join(parts, "\n\n")
	if len(sourceText) > config.LessonCharLimit {
		sourceText = sourceText[:config.LessonCharLimit] + "..."
	}

	prompt, err := g.prompts.Render(InteractiveLessonTemplate, PromptData{SourceText: sourceText})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render lesson content prompt")
	}

	content, err := callWithRetry(ctx, g.logger, config.MaxAIAttempts, config.AIRetryBaseDelay, func(ctx context.Context) (*models.InteractiveContent, error) {
		raw, err := g.client.GenerateJSON(ctx, prompt)
		if err != nil {
			return nil, err
		}

		var rc rawContent
		if !DecodeJSON(raw, &rc) || rc.Content == nil {
			g.logger.Warn(ctx, "Lesson content response was not usable", map[string]interface{}{
				"response_length": len(raw),
			})
			return nil, nil
		}

		return &models.InteractiveContent{
			ID:      g.idGen.NewID(),
			Title:   rc.Title,
			Content: g.assignBlockIDs(rc.Content),
		}, nil
	})
	if err != nil {
		g.logger.Error(ctx, "Lesson content generation failed after retries", err, map[string]interface{}{})
		return nil, contextutils.WrapErrorf(contextutils.ErrGenerationFailed, "lesson content generation failed: %v", err)
	}
	return content, nil
}

// GenerateInitialQuestions builds the first question batch for a lesson.
// Extraction failures get their own inner retry loop with a short linear
// delay, separate from transport retries. After all attempts fail the
// result is nil without an error; callers surface that as "no quiz".
func (g *ContentGenerator) GenerateInitialQuestions(ctx context.Context, lessonText string) (result0 []models.InteractiveBlock, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "generate_initial_questions",
		attribute.Int("lesson.text_length", len(lessonText)),
	)
	defer observability.FinishSpan(span, &err)

	source := lessonText
	if len(source) > config.QuestionSourceChars {
		source = source[:config.QuestionSourceChars]
	}

	prompt, err := g.prompts.Render(InitialQuestionsTemplate, PromptData{
		SourceText:    source,
		QuestionCount: config.InitialQuestionTarget,
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render initial questions prompt")
	}

	for attempt := 0; attempt < config.MaxAIAttempts; attempt++ {
		raw, callErr := g.client.GenerateJSON(ctx, prompt)
		switch {
		case callErr != nil:
			g.logger.Error(ctx, "Question generation call failed", callErr, map[string]interface{}{
				"attempt": attempt + 1,
			})
		default:
			var blocks []models.InteractiveBlock
			if !DecodeJSON(raw, &blocks) {
				g.logger.Warn(ctx, "Question batch was not parseable", map[string]interface{}{
					"attempt": attempt + 1,
				})
				break
			}
			if _, verr := ValidateAgainstSchema(QuestionBatchSchema, blocks); verr != nil {
				g.logger.Warn(ctx, "Question batch failed schema validation", map[string]interface{}{
					"attempt": attempt + 1,
					"error":   verr.Error(),
				})
				break
			}
			span.SetAttributes(attribute.Int("questions.count", len(blocks)))
			return g.assignBlockIDs(blocks), nil
		}

		if attempt < config.MaxAIAttempts-1 {
			if serr := g.sleep(ctx, time.Duration(attempt+1)*config.ExtractionRetryBaseDelay); serr != nil {
				return nil, serr
			}
		}
	}

	span.SetAttributes(attribute.String("questions.result", "exhausted"))
	return nil, nil
}

// GenerateMoreQuestions builds a follow-up batch, telling the model which
// question prompts already exist so it can avoid repeating them. New blocks
// always get fresh IDs; an existing block never changes identity.
func (g *ContentGenerator) GenerateMoreQuestions(ctx context.Context, lessonText string, existing []models.InteractiveBlock) (result0 []models.InteractiveBlock, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "generate_more_questions",
		attribute.Int("existing.count", len(existing)),
	)
	defer observability.FinishSpan(span, &err)

	source := lessonText
	if len(source) > config.QuestionSourceChars {
		source = source[:config.QuestionSourceChars]
	}

	existingPrompts := make([]string, 0, len(existing))
	for i := range existing {
		if p := existing[i].PromptText(); p != "" {
			existingPrompts = append(existingPrompts, p)
		}
	}

	prompt, err := g.prompts.Render(MoreQuestionsTemplate, PromptData{
		SourceText:      source,
		QuestionCount:   config.MoreQuestionsBatch,
		ExistingPrompts: existingPrompts,
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render follow-up questions prompt")
	}

	blocks, err := callWithRetry(ctx, g.logger, config.MaxAIAttempts, config.AIRetryBaseDelay, func(ctx context.Context) ([]models.InteractiveBlock, error) {
		raw, err := g.client.GenerateJSON(ctx, prompt)
		if err != nil {
			return nil, err
		}

		var blocks []models.InteractiveBlock
		if !DecodeJSON(raw, &blocks) {
			g.logger.Warn(ctx, "Follow-up question batch was not parseable", map[string]interface{}{})
			return nil, nil
		}
		if _, verr := ValidateAgainstSchema(QuestionBatchSchema, blocks); verr != nil {
			g.logger.Warn(ctx, "Follow-up question batch failed schema validation", map[string]interface{}{
				"error": verr.Error(),
			})
			return nil, nil
		}
		return g.assignBlockIDs(blocks), nil
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrGenerationFailed, "follow-up question generation failed: %v", err)
	}

	span.SetAttributes(attribute.Int("questions.count", len(blocks)))
	return blocks, nil
}

// GetDeeperExplanation re-explains a concept in simpler terms. On failure
// it returns a fixed apology string rather than an error, so study flows
// always have something to display.
func (g *ContentGenerator) GetDeeperExplanation(ctx context.Context, text string) string {
	ctx, span := observability.TraceAIFunction(ctx, "deeper_explanation",
		attribute.Int("text.length", len(text)),
	)
	var spanErr error
	defer observability.FinishSpan(span, &spanErr)

	prompt, err := g.prompts.Render(DeeperExplanationTemplate, PromptData{Question: text})
	if err != nil {
		spanErr = err
		return DeeperExplanationFallback
	}

	explanation, err := invokeGeneration(ctx, g.logger, func(ctx context.Context) (string, error) {
		return g.client.Generate(ctx, prompt)
	})
	if err != nil {
		spanErr = err
		g.logger.Error(ctx, "Deeper explanation failed after retries", err, map[string]interface{}{})
		return DeeperExplanationFallback
	}
	return explanation
}

// DeeperExplanationFallback is shown when a deeper explanation cannot be
// produced.
const DeeperExplanationFallback = "Sorry, something went wrong while preparing a deeper explanation."
