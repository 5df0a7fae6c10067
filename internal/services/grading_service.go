package services

import (
	"context"
	"encoding/json"
	"strings"

	"studyapp/internal/config"
	"studyapp/internal/models"
	"studyapp/internal/observability"
	contextutils "studyapp/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// Display rendering tokens for grading. Answers are rendered as text the
// model can compare; raw indexes and booleans never reach the prompt.
const (
	displayTrue        = "true"
	displayFalse       = "false"
	displayUnavailable = "N/A"
	displayEmptyBlank  = "empty"
	blankMarker        = "[blank]"

	openEndedGradingNote = "This is an open-ended question; judge whether the answer is reasonable and relevant to the question."
)

// GradingEngine evaluates submitted answers against question blocks.
type GradingEngine struct {
	client  AIClient
	prompts *PromptManager
	logger  *observability.Logger
}

// NewGradingEngine creates a grading engine.
func NewGradingEngine(client AIClient, prompts *PromptManager, logger *observability.Logger) *GradingEngine {
	return &GradingEngine{
		client:  client,
		prompts: prompts,
		logger:  logger,
	}
}

// buildDisplayPairs resolves each submitted answer against its question
// block and renders both the submitted and expected answers as display text.
// Answers whose question cannot be found, or whose block is not a question
// variant, are dropped rather than failing the batch.
func buildDisplayPairs(answers []models.UserAnswer, questions []models.InteractiveBlock) []GradingDisplayPair {
	byID := make(map[string]*models.InteractiveBlock, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	pairs := make([]GradingDisplayPair, 0, len(answers))
	for _, ua := range answers {
		block, ok := byID[ua.QuestionID]
		if !ok || !block.IsQuestion() {
			continue
		}

		pair := GradingDisplayPair{QuestionID: ua.QuestionID}
		switch block.Type {
		case models.BlockMultipleChoice:
			pair.Question = block.Question
			pair.UserAnswer = displayUnavailable
			if ua.Answer.Index != nil && *ua.Answer.Index >= 0 && *ua.Answer.Index < len(block.Options) {
				pair.UserAnswer = block.Options[*ua.Answer.Index]
			}
			if block.CorrectAnswerIndex != nil && *block.CorrectAnswerIndex >= 0 && *block.CorrectAnswerIndex < len(block.Options) {
				pair.CorrectAnswer = block.Options[*block.CorrectAnswerIndex]
			}

		case models.BlockTrueFalse:
			pair.Question = block.Question
			pair.UserAnswer = displayUnavailable
			if ua.Answer.Bool != nil {
				pair.UserAnswer = boolDisplay(*ua.Answer.Bool)
			}
			if block.CorrectAnswer != nil {
				pair.CorrectAnswer = boolDisplay(*block.CorrectAnswer)
			}

		case models.BlockFillInTheBlank:
			pair.Question = strings.Join(block.QuestionParts, " "+blankMarker+" ")
			pair.UserAnswer = displayUnavailable
			if ua.Answer.Blanks != nil {
				rendered := make([]string, len(ua.Answer.Blanks))
				for i, b := range ua.Answer.Blanks {
					if b == "" {
						b = displayEmptyBlank
					}
					rendered[i] = b
				}
				pair.UserAnswer = strings.Join(rendered, ", ")
			}
			pair.CorrectAnswer = strings.Join(block.CorrectAnswers, ", ")

		case models.BlockOpenEnded:
			pair.Question = block.Question
			pair.UserAnswer = ua.Answer.Display()
			pair.CorrectAnswer = openEndedGradingNote
		}

		pairs = append(pairs, pair)
	}
	return pairs
}

func boolDisplay(v bool) string {
	if v {
		return displayTrue
	}
	return displayFalse
}

// Grade evaluates the submitted answers in one batched request and returns
// feedback reconciled to the original questions. Returns an empty slice
// without a remote call when no answer resolves, and nil with an error when
// the generation service fails after retries. A question the service did
// not return feedback for is simply absent from the result.
func (e *GradingEngine) Grade(ctx context.Context, answers []models.UserAnswer, questions []models.InteractiveBlock) (result0 []models.FeedbackItem, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "grade_answers",
		attribute.Int("answers.count", len(answers)),
		attribute.Int("questions.count", len(questions)),
	)
	defer observability.FinishSpan(span, &err)

	pairs := buildDisplayPairs(answers, questions)
	if len(pairs) == 0 {
		span.SetAttributes(attribute.String("grading.result", "no_resolvable_answers"))
		return []models.FeedbackItem{}, nil
	}

	pairsJSON, err := json.MarshalIndent(pairs, "", "  ")
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to marshal display pairs")
	}

	prompt, err := e.prompts.Render(GradeAnswersTemplate, PromptData{AnswerPairsJSON: string(pairsJSON)})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render grading prompt")
	}

	feedback, err := callWithRetry(ctx, e.logger, config.MaxAIAttempts, config.AIRetryBaseDelay, func(ctx context.Context) ([]models.FeedbackItem, error) {
		raw, err := e.client.GenerateJSON(ctx, prompt)
		if err != nil {
			return nil, err
		}

		var items []models.FeedbackItem
		if !DecodeJSON(raw, &items) {
			e.logger.Warn(ctx, "Grading response was not parseable", map[string]interface{}{
				"response_length": len(raw),
			})
			return nil, nil
		}
		if _, verr := ValidateAgainstSchema(FeedbackBatchSchema, items); verr != nil {
			e.logger.Warn(ctx, "Grading response failed schema validation", map[string]interface{}{
				"error": verr.Error(),
			})
			return nil, nil
		}
		return items, nil
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrGradingFailed, "grading failed: %v", err)
	}
	if feedback == nil {
		span.SetAttributes(attribute.String("grading.result", "unparsable"))
		return nil, contextutils.WrapError(contextutils.ErrGradingFailed, "grading response could not be parsed")
	}

	// Reconcile the model's verdicts back onto the display pairs so the
	// caller can show question text and the answer as submitted.
	pairByID := make(map[string]GradingDisplayPair, len(pairs))
	for _, p := range pairs {
		pairByID[p.QuestionID] = p
	}
	for i := range feedback {
		if p, ok := pairByID[feedback[i].QuestionID]; ok {
			feedback[i].Question = p.Question
			feedback[i].UserAnswer = p.UserAnswer
		}
	}

	span.SetAttributes(attribute.Int("feedback.count", len(feedback)))
	return feedback, nil
}
