package services

import (
	"studyapp/internal/models"
	contextutils "studyapp/internal/utils"
)

// RetryWorkflow lets a student re-attempt only the questions they got
// wrong. The full pre-retry state is held aside untouched so restoring is
// a swap, never a recomputation.
type RetryWorkflow struct{}

// NewRetryWorkflow creates a retry workflow.
func NewRetryWorkflow() *RetryWorkflow {
	return &RetryWorkflow{}
}

// DeriveIncorrectSubset returns the question IDs of all incorrect feedback
// entries, in feedback order.
func (w *RetryWorkflow) DeriveIncorrectSubset(feedback []models.FeedbackItem) []string {
	ids := make([]string, 0, len(feedback))
	for _, fb := range feedback {
		if !fb.IsCorrect {
			ids = append(ids, fb.QuestionID)
		}
	}
	return ids
}

// BuildRetryContent projects content down to the question blocks whose IDs
// are in incorrectIDs, preserving relative order. The original content is
// not modified; the projection shares its ID and title.
func (w *RetryWorkflow) BuildRetryContent(original models.InteractiveContent, incorrectIDs []string) models.InteractiveContent {
	wanted := make(map[string]struct{}, len(incorrectIDs))
	for _, id := range incorrectIDs {
		wanted[id] = struct{}{}
	}

	subset := make([]models.InteractiveBlock, 0, len(incorrectIDs))
	for _, b := range original.Content {
		if !b.IsQuestion() {
			continue
		}
		if _, ok := wanted[b.ID]; ok {
			subset = append(subset, b)
		}
	}

	return models.InteractiveContent{
		ID:      original.ID,
		Title:   original.Title,
		Content: subset,
	}
}

// RetrySession holds the pre-retry state while the student works through
// the reduced question set.
type RetrySession struct {
	originalContent  models.InteractiveContent
	originalFeedback []models.FeedbackItem
	active           bool
}

// Begin derives the incorrect subset from feedback, stows the full content
// and feedback for later restore, and returns the reduced working content.
// Answers and feedback for the retry round start cleared. Beginning with no
// incorrect answers is an error; there is nothing to retry.
func (s *RetrySession) Begin(w *RetryWorkflow, content models.InteractiveContent, feedback []models.FeedbackItem) (models.InteractiveContent, error) {
	if s.active {
		return models.InteractiveContent{}, contextutils.WrapError(contextutils.ErrOperationInFlight, "a retry round is already in progress")
	}

	incorrectIDs := w.DeriveIncorrectSubset(feedback)
	if len(incorrectIDs) == 0 {
		return models.InteractiveContent{}, contextutils.WrapError(contextutils.ErrInvalidInput, "no incorrect answers to retry")
	}

	s.originalContent = content
	s.originalFeedback = feedback
	s.active = true
	return w.BuildRetryContent(content, incorrectIDs), nil
}

// Active reports whether a retry round is in progress.
func (s *RetrySession) Active() bool {
	return s.active
}

// Restore returns the stowed pre-retry content and feedback and ends the
// retry round. Pure state swap; nothing is recomputed or re-requested.
func (s *RetrySession) Restore() (models.InteractiveContent, []models.FeedbackItem, error) {
	if !s.active {
		return models.InteractiveContent{}, nil, contextutils.WrapError(contextutils.ErrInvalidInput, "no retry round to restore from")
	}

	content, feedback := s.originalContent, s.originalFeedback
	s.originalContent = models.InteractiveContent{}
	s.originalFeedback = nil
	s.active = false
	return content, feedback, nil
}
