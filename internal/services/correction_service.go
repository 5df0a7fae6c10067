package services

import (
	"context"
	"encoding/json"

	"studyapp/internal/config"
	"studyapp/internal/models"
	"studyapp/internal/observability"
	contextutils "studyapp/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// CorrectionEngine requests deeper per-question corrections for answers
// that were graded incorrect.
type CorrectionEngine struct {
	client  AIClient
	prompts *PromptManager
	logger  *observability.Logger
}

// NewCorrectionEngine creates a correction engine.
func NewCorrectionEngine(client AIClient, prompts *PromptManager, logger *observability.Logger) *CorrectionEngine {
	return &CorrectionEngine{
		client:  client,
		prompts: prompts,
		logger:  logger,
	}
}

// Correct requests an explanation of why each incorrect answer was wrong
// plus the correct answer with reasoning, in one batched call. Entries with
// empty question text are dropped before sending; reconciliation upstream
// may have left them incomplete. An empty input returns an empty result
// without a remote call. Returns nil and an error if the call fails after
// retries; the caller must leave existing feedback unmodified in that case.
func (e *CorrectionEngine) Correct(ctx context.Context, incorrect []models.IncorrectAnswer) (result0 []models.AiCorrection, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "correct_answers",
		attribute.Int("incorrect.count", len(incorrect)),
	)
	defer observability.FinishSpan(span, &err)

	payload := make([]models.IncorrectAnswer, 0, len(incorrect))
	for _, ia := range incorrect {
		if ia.Question == "" {
			continue
		}
		payload = append(payload, ia)
	}
	if len(payload) == 0 {
		span.SetAttributes(attribute.String("correction.result", "nothing_to_correct"))
		return []models.AiCorrection{}, nil
	}

	payloadJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to marshal incorrect answers")
	}

	prompt, err := e.prompts.Render(CorrectionsTemplate, PromptData{IncorrectAnswersJSON: string(payloadJSON)})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render corrections prompt")
	}

	corrections, err := callWithRetry(ctx, e.logger, config.MaxAIAttempts, config.AIRetryBaseDelay, func(ctx context.Context) ([]models.AiCorrection, error) {
		raw, err := e.client.GenerateJSON(ctx, prompt)
		if err != nil {
			return nil, err
		}

		var items []models.AiCorrection
		if !DecodeJSON(raw, &items) {
			e.logger.Warn(ctx, "Correction response was not parseable", map[string]interface{}{
				"response_length": len(raw),
			})
			return nil, nil
		}
		if _, verr := ValidateAgainstSchema(CorrectionBatchSchema, items); verr != nil {
			e.logger.Warn(ctx, "Correction response failed schema validation", map[string]interface{}{
				"error": verr.Error(),
			})
			return nil, nil
		}
		return items, nil
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrGradingFailed, "correction request failed: %v", err)
	}
	if corrections == nil {
		return nil, contextutils.WrapError(contextutils.ErrGradingFailed, "correction response could not be parsed")
	}

	span.SetAttributes(attribute.Int("corrections.count", len(corrections)))
	return corrections, nil
}

// MergeCorrections patches correction text into feedback. Correct items are
// left untouched; incorrect items get their explanation replaced when a
// correction with a matching question ID exists, and keep their original
// explanation otherwise. A new slice is returned; the input is not mutated.
func MergeCorrections(feedback []models.FeedbackItem, corrections []models.AiCorrection) []models.FeedbackItem {
	byID := make(map[string]string, len(corrections))
	for _, c := range corrections {
		byID[c.QuestionID] = c.Correction
	}

	merged := make([]models.FeedbackItem, len(feedback))
	for i, fb := range feedback {
		if !fb.IsCorrect {
			if correction, ok := byID[fb.QuestionID]; ok {
				fb.Explanation = correction
			}
		}
		merged[i] = fb
	}
	return merged
}
