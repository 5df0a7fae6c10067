package handlers

import (
	"net/http"
	"time"

	"studyapp/internal/models"
	"studyapp/internal/observability"
	"studyapp/internal/services"
	"studyapp/internal/store"

	"github.com/gin-gonic/gin"
)

// LibraryHandler handles summaries, proofreading, library categorization,
// study tasks, and the resume-session slot.
type LibraryHandler struct {
	summaries *services.SummaryService
	library   *store.Library
	idGen     services.IDGenerator
	guard     *OperationGuard
	logger    *observability.Logger
}

// NewLibraryHandler creates a new LibraryHandler
func NewLibraryHandler(
	summaries *services.SummaryService,
	library *store.Library,
	idGen services.IDGenerator,
	guard *OperationGuard,
	logger *observability.Logger,
) *LibraryHandler {
	return &LibraryHandler{
		summaries: summaries,
		library:   library,
		idGen:     idGen,
		guard:     guard,
		logger:    logger,
	}
}

type summarizeRequest struct {
	BookName     string `json:"bookName" binding:"required"`
	ChapterTitle string `json:"chapterTitle" binding:"required"`
	ChapterText  string `json:"chapterText" binding:"required"`
	Style        string `json:"style"`
}

// SummarizeChapter produces and persists a chapter summary.
func (h *LibraryHandler) SummarizeChapter(c *gin.Context) {
	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request", nil, err.Error())
		return
	}

	guardKey := "summary:" + req.BookName + ":" + req.ChapterTitle
	if err := h.guard.begin(guardKey); err != nil {
		HandleAppError(c, err)
		return
	}
	defer h.guard.end(guardKey)

	summary := models.SavedSummary{
		ID:           h.idGen.NewID(),
		BookName:     req.BookName,
		ChapterTitle: req.ChapterTitle,
		SummaryText:  h.summaries.SummarizeChapter(c.Request.Context(), req.ChapterText, req.Style),
	}
	if err := h.library.SaveSummary(c.Request.Context(), summary); err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, summary)
}

// ListSummaries returns all saved summaries.
func (h *LibraryHandler) ListSummaries(c *gin.Context) {
	summaries, err := h.library.ListSummaries(c.Request.Context())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summaries": summaries})
}

// DeleteSummary removes a saved summary.
func (h *LibraryHandler) DeleteSummary(c *gin.Context) {
	if err := h.library.DeleteSummary(c.Request.Context(), c.Param("id")); err != nil {
		HandleAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type proofreadRequest struct {
	Text string `json:"text"`
}

// ProofreadPage corrects one page of extracted text. The original text
// comes back whenever correction is not possible.
func (h *LibraryHandler) ProofreadPage(c *gin.Context) {
	var req proofreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request", nil, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"text": h.summaries.ProofreadPage(c.Request.Context(), req.Text),
	})
}

// CategorizeLibrary groups the saved books into categories.
func (h *LibraryHandler) CategorizeLibrary(c *gin.Context) {
	books, err := h.library.ListBooks(c.Request.Context())
	if err != nil {
		HandleAppError(c, err)
		return
	}

	titles := make([]string, 0, len(books))
	for _, b := range books {
		titles = append(titles, b.Name)
	}

	categories, err := h.summaries.CategorizeBooks(c.Request.Context(), titles)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

type taskRequest struct {
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	Category    string              `json:"category"`
	DueDate     time.Time           `json:"dueDate"`
	Completed   bool                `json:"completed"`
}

// CreateTask persists a new study task.
func (h *LibraryHandler) CreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request", nil, err.Error())
		return
	}
	if req.Priority == "" {
		req.Priority = models.TaskPriorityMedium
	}

	task := models.Task{
		ID:          h.idGen.NewID(),
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Category:    req.Category,
		DueDate:     req.DueDate,
		Completed:   req.Completed,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.library.SaveTask(c.Request.Context(), task); err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// UpdateTask replaces a stored task.
func (h *LibraryHandler) UpdateTask(c *gin.Context) {
	var task models.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		HandleValidationError(c, "request", nil, err.Error())
		return
	}
	task.ID = c.Param("id")

	if err := h.library.SaveTask(c.Request.Context(), task); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// ListTasks returns all study tasks.
func (h *LibraryHandler) ListTasks(c *gin.Context) {
	tasks, err := h.library.ListTasks(c.Request.Context())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// DeleteTask removes a study task.
func (h *LibraryHandler) DeleteTask(c *gin.Context) {
	if err := h.library.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		HandleAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type taskCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateTaskCategory persists a new task category.
func (h *LibraryHandler) CreateTaskCategory(c *gin.Context) {
	var req taskCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request", nil, err.Error())
		return
	}

	category := models.TaskCategory{ID: h.idGen.NewID(), Name: req.Name}
	if err := h.library.SaveTaskCategory(c.Request.Context(), category); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// ListTaskCategories returns all task categories.
func (h *LibraryHandler) ListTaskCategories(c *gin.Context) {
	categories, err := h.library.ListTaskCategories(c.Request.Context())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// DeleteTaskCategory removes a task category.
func (h *LibraryHandler) DeleteTaskCategory(c *gin.Context) {
	if err := h.library.DeleteTaskCategory(c.Request.Context(), c.Param("id")); err != nil {
		HandleAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetActiveBook returns the resume pointer.
func (h *LibraryHandler) GetActiveBook(c *gin.Context) {
	state, err := h.library.LoadActiveBook(c.Request.Context())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// SetActiveBook stores the resume pointer.
func (h *LibraryHandler) SetActiveBook(c *gin.Context) {
	var state models.ActiveBookState
	if err := c.ShouldBindJSON(&state); err != nil {
		HandleValidationError(c, "request", nil, err.Error())
		return
	}
	if state.ID == "" {
		HandleValidationError(c, "id", "", "book id is required")
		return
	}

	if err := h.library.SaveActiveBook(c.Request.Context(), state); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// ClearActiveBook drops the resume pointer.
func (h *LibraryHandler) ClearActiveBook(c *gin.Context) {
	if err := h.library.ClearActiveBook(c.Request.Context()); err != nil {
		HandleAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
