// Package handlers exposes the study pipeline over HTTP.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"studyapp/internal/config"
	"studyapp/internal/extractor"
	"studyapp/internal/models"
	"studyapp/internal/observability"
	"studyapp/internal/services"
	"studyapp/internal/store"
	contextutils "studyapp/internal/utils"

	"github.com/gin-gonic/gin"
)

// StudyHandler handles document upload, structure analysis, and content
// generation requests.
type StudyHandler struct {
	analyzer  *services.StructureAnalyzer
	generator *services.ContentGenerator
	extractor extractor.PageExtractor
	library   *store.Library
	idGen     services.IDGenerator
	guard     *OperationGuard
	cfg       *config.Config
	logger    *observability.Logger
}

// NewStudyHandler creates a new StudyHandler
func NewStudyHandler(
	analyzer *services.StructureAnalyzer,
	generator *services.ContentGenerator,
	pageExtractor extractor.PageExtractor,
	library *store.Library,
	idGen services.IDGenerator,
	guard *OperationGuard,
	cfg *config.Config,
	logger *observability.Logger,
) *StudyHandler {
	return &StudyHandler{
		analyzer:  analyzer,
		generator: generator,
		extractor: pageExtractor,
		library:   library,
		idGen:     idGen,
		guard:     guard,
		cfg:       cfg,
		logger:    logger,
	}
}

// UploadBook accepts a document upload, extracts its pages, analyzes the
// chapter structure, and persists the result as a saved book.
func (h *StudyHandler) UploadBook(c *gin.Context) {
	file, header, err := c.Request.FormFile("document")
	if err != nil {
		HandleValidationError(c, "document", nil, "a document file is required")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > h.cfg.Server.MaxUploadBytes {
		HandleValidationError(c, "document", header.Filename, "upload exceeds the size limit")
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = header.Filename
	}

	guardKey := "upload:" + name
	if err := h.guard.begin(guardKey); err != nil {
		HandleAppError(c, err)
		return
	}
	defer h.guard.end(guardKey)

	pages, err := h.extractor.ExtractPages(c.Request.Context(), file, header.Filename)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	chapters := h.analyzer.AnalyzeDocument(c.Request.Context(), pages)

	book := models.SavedBook{
		ID:        h.idGen.NewID(),
		Name:      name,
		Chapters:  chapters,
		PageTexts: pages,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.library.SaveBook(c.Request.Context(), book); err != nil {
		HandleAppError(c, err)
		return
	}
	if err := h.library.SaveActiveBook(c.Request.Context(), models.ActiveBookState{ID: book.ID, Chapters: chapters}); err != nil {
		h.logger.Warn(c.Request.Context(), "Failed to update active book", map[string]interface{}{
			"book_id": book.ID,
			"error":   err.Error(),
		})
	}

	h.logger.Info(c.Request.Context(), "Book uploaded and analyzed", map[string]interface{}{
		"book_id":  book.ID,
		"pages":    len(pages),
		"chapters": len(chapters),
	})
	c.JSON(http.StatusCreated, book)
}

// ListBooks returns all saved books.
func (h *StudyHandler) ListBooks(c *gin.Context) {
	books, err := h.library.ListBooks(c.Request.Context())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books})
}

// GetBook returns one saved book with pages and structure.
func (h *StudyHandler) GetBook(c *gin.Context) {
	book, err := h.library.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// DeleteBook removes a saved book.
func (h *StudyHandler) DeleteBook(c *gin.Context) {
	if err := h.library.DeleteBook(c.Request.Context(), c.Param("id")); err != nil {
		HandleAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AnalyzeChapterLessons runs the lazy lesson substructure analysis for one
// chapter of a saved book and persists the result.
func (h *StudyHandler) AnalyzeChapterLessons(c *gin.Context) {
	bookID := c.Param("id")
	chapterID := c.Param("chapterID")

	guardKey := "lessons:" + bookID + ":" + chapterID
	if err := h.guard.begin(guardKey); err != nil {
		HandleAppError(c, err)
		return
	}
	defer h.guard.end(guardKey)

	book, err := h.library.GetBook(c.Request.Context(), bookID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	chapterIdx := -1
	for i := range book.Chapters {
		if book.Chapters[i].ID == chapterID {
			chapterIdx = i
			break
		}
	}
	if chapterIdx < 0 {
		HandleAppError(c, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "chapter %s not found in book %s", chapterID, bookID))
		return
	}

	chapter := book.Chapters[chapterIdx]
	lessons, err := h.analyzer.AnalyzeChapterForLessons(c.Request.Context(), chapterText(book, chapter), chapter)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	book.Chapters[chapterIdx].Lessons = lessons
	if err := h.library.SaveBook(c.Request.Context(), book); err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lessons": lessons})
}

// chapterText joins the extracted text of the pages in the chapter's range.
func chapterText(book models.SavedBook, chapter models.Chapter) string {
	var sb strings.Builder
	for _, p := range book.PageTexts {
		if p.PageNumber >= chapter.StartPage && p.PageNumber <= chapter.EndPage {
			sb.WriteString(p.Text)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// pagesInRange selects the pages within [start, end].
func pagesInRange(book models.SavedBook, start, end int) []models.PageText {
	var pages []models.PageText
	for _, p := range book.PageTexts {
		if p.PageNumber >= start && p.PageNumber <= end {
			pages = append(pages, p)
		}
	}
	return pages
}

// lessonRequest locates a lesson inside a saved book.
type lessonRequest struct {
	BookID    string `json:"bookId" binding:"required"`
	ChapterID string `json:"chapterId" binding:"required"`
	LessonID  string `json:"lessonId" binding:"required"`
}

// resolveLesson loads the book and finds the lesson's page range.
func (h *StudyHandler) resolveLesson(c *gin.Context, req lessonRequest) (models.SavedBook, models.Lesson, bool) {
	book, err := h.library.GetBook(c.Request.Context(), req.BookID)
	if err != nil {
		HandleAppError(c, err)
		return models.SavedBook{}, models.Lesson{}, false
	}

	for _, ch := range book.Chapters {
		if ch.ID != req.ChapterID {
			continue
		}
		for _, l := range ch.Lessons {
			if l.ID == req.LessonID {
				return book, l, true
			}
		}
	}

	HandleAppError(c, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "lesson %s not found", req.LessonID))
	return models.SavedBook{}, models.Lesson{}, false
}

// GenerateLessonContent produces the interactive teaching unit for a lesson.
func (h *StudyHandler) GenerateLessonContent(c *gin.Context) {
	var req lessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request", nil, err.Error())
		return
	}

	guardKey := "content:" + req.LessonID
	if err := h.guard.begin(guardKey); err != nil {
		HandleAppError(c, err)
		return
	}
	defer h.guard.end(guardKey)

	book, lesson, ok := h.resolveLesson(c, req)
	if !ok {
		return
	}

	content, err := h.generator.GenerateLesson(c.Request.Context(), pagesInRange(book, lesson.StartPage, lesson.EndPage))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	if content == nil {
		HandleAppError(c, contextutils.WrapError(contextutils.ErrGenerationFailed, "the lesson could not be generated from this text"))
		return
	}

	c.JSON(http.StatusOK, content)
}

// GenerateInitialQuestions produces the first question batch for a lesson.
func (h *StudyHandler) GenerateInitialQuestions(c *gin.Context) {
	var req lessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request", nil, err.Error())
		return
	}

	guardKey := "questions:" + req.LessonID
	if err := h.guard.begin(guardKey); err != nil {
		HandleAppError(c, err)
		return
	}
	defer h.guard.end(guardKey)

	book, lesson, ok := h.resolveLesson(c, req)
	if !ok {
		return
	}

	lessonText := joinPages(pagesInRange(book, lesson.StartPage, lesson.EndPage))
	blocks, err := h.generator.GenerateInitialQuestions(c.Request.Context(), lessonText)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	if blocks == nil {
		// All attempts produced unusable output; an empty quiz is the
		// caller-facing degradation.
		c.JSON(http.StatusOK, gin.H{"questions": []models.InteractiveBlock{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": blocks})
}

type moreQuestionsRequest struct {
	lessonRequest
	Existing []models.InteractiveBlock `json:"existing"`
}

// GenerateMoreQuestions produces a follow-up question batch, avoiding the
// prompts of existing questions.
func (h *StudyHandler) GenerateMoreQuestions(c *gin.Context) {
	var req moreQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request", nil, err.Error())
		return
	}

	guardKey := "questions:" + req.LessonID
	if err := h.guard.begin(guardKey); err != nil {
		HandleAppError(c, err)
		return
	}
	defer h.guard.end(guardKey)

	book, lesson, ok := h.resolveLesson(c, req.lessonRequest)
	if !ok {
		return
	}

	lessonText := joinPages(pagesInRange(book, lesson.StartPage, lesson.EndPage))
	blocks, err := h.generator.GenerateMoreQuestions(c.Request.Context(), lessonText, req.Existing)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	if blocks == nil {
		HandleAppError(c, contextutils.WrapError(contextutils.ErrGenerationFailed, "no additional questions could be generated from this text"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": blocks})
}

func joinPages(pages []models.PageText) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}
