package handlers

import (
	"net/http"
	"sync"

	"studyapp/internal/models"
	"studyapp/internal/observability"
	"studyapp/internal/services"

	"github.com/gin-gonic/gin"
)

// GradingHandler handles answer grading, retry rounds, and corrections.
type GradingHandler struct {
	grading   *services.GradingEngine
	corrector *services.CorrectionEngine
	workflow  *services.RetryWorkflow
	generator *services.ContentGenerator
	guard     *OperationGuard
	logger    *observability.Logger

	// retry sessions keyed by content ID
	sessionsMu sync.Mutex
	sessions   map[string]*services.RetrySession
}

// NewGradingHandler creates a new GradingHandler
func NewGradingHandler(
	grading *services.GradingEngine,
	correction *services.CorrectionEngine,
	workflow *services.RetryWorkflow,
	generator *services.ContentGenerator,
	guard *OperationGuard,
	logger *observability.Logger,
) *GradingHandler {
	return &GradingHandler{
		grading:   grading,
		corrector: correction,
		workflow:  workflow,
		generator: generator,
		guard:     guard,
		logger:    logger,
		sessions:  make(map[string]*services.RetrySession),
	}
}

func (h *GradingHandler) session(contentID string) *services.RetrySession {
	h.sessionsMu.Lock()
	defer h.sessionsMu.Unlock()
	s, ok := h.sessions[contentID]
	if !ok {
		s = &services.RetrySession{}
		h.sessions[contentID] = s
	}
	return s
}

type gradeRequest struct {
	ContentID string                    `json:"contentId" binding:"required"`
	Answers   []models.UserAnswer       `json:"answers" binding:"required"`
	Questions []models.InteractiveBlock `json:"questions" binding:"required"`
}

// GradeAnswers evaluates a batch of submitted answers.
func (h *GradingHandler) GradeAnswers(c *gin.Context) {
	var req gradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request", nil, err.Error())
		return
	}

	guardKey := "grade:" + req.ContentID
	if err := h.guard.begin(guardKey); err != nil {
		HandleAppError(c, err)
		return
	}
	defer h.guard.end(guardKey)

	feedback, err := h.grading.Grade(c.Request.Context(), req.Answers, req.Questions)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"feedback": feedback})
}

type retryBeginRequest struct {
	Content  models.InteractiveContent `json:"content" binding:"required"`
	Feedback []models.FeedbackItem     `json:"feedback" binding:"required"`
}

// BeginRetry stows the full content and feedback and returns the reduced
// working set of incorrectly answered questions.
func (h *GradingHandler) BeginRetry(c *gin.Context) {
	var req retryBeginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request", nil, err.Error())
		return
	}
	if req.Content.ID == "" {
		HandleValidationError(c, "content.id", "", "content id is required")
		return
	}

	reduced, err := h.session(req.Content.ID).Begin(h.workflow, req.Content, req.Feedback)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, reduced)
}

type retryRestoreRequest struct {
	ContentID string `json:"contentId" binding:"required"`
}

// RestoreRetry swaps back to the pre-retry content and feedback.
func (h *GradingHandler) RestoreRetry(c *gin.Context) {
	var req retryRestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request", nil, err.Error())
		return
	}

	content, feedback, err := h.session(req.ContentID).Restore()
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"content":  content,
		"feedback": feedback,
	})
}

type correctionsRequest struct {
	IncorrectAnswers []models.IncorrectAnswer `json:"incorrectAnswers" binding:"required"`
	Feedback         []models.FeedbackItem    `json:"feedback"`
}

// RequestCorrections obtains deeper corrections for incorrect answers.
// When the caller supplies its current feedback, the corrections are merged
// into it and the merged feedback is returned alongside.
func (h *GradingHandler) RequestCorrections(c *gin.Context) {
	var req correctionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request", nil, err.Error())
		return
	}

	corrections, err := h.corrector.Correct(c.Request.Context(), req.IncorrectAnswers)
	if err != nil {
		// Existing feedback stays untouched on failure; the caller just
		// sees the error.
		HandleAppError(c, err)
		return
	}

	resp := gin.H{"corrections": corrections}
	if req.Feedback != nil {
		resp["feedback"] = services.MergeCorrections(req.Feedback, corrections)
	}
	c.JSON(http.StatusOK, resp)
}

type deeperExplanationRequest struct {
	Text string `json:"text" binding:"required"`
}

// DeeperExplanation re-explains a concept in simpler terms. Always returns
// displayable text.
func (h *GradingHandler) DeeperExplanation(c *gin.Context) {
	var req deeperExplanationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request", nil, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"explanation": h.generator.GetDeeperExplanation(c.Request.Context(), req.Text),
	})
}
