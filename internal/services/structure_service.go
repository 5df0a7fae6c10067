package services

import (
	"context"
	"fmt"
	"strings"

	"studyapp/internal/config"
	"studyapp/internal/models"
	"studyapp/internal/observability"
	contextutils "studyapp/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// rawChapter is the wire shape of one structure-analysis result element,
// before IDs are assigned and page ranges are repaired.
type rawChapter struct {
	Title     string `json:"title"`
	StartPage int    `json:"startPage"`
	EndPage   int    `json:"endPage"`
}

type rawLesson struct {
	Title     string `json:"title"`
	StartPage int    `json:"startPage"`
	EndPage   int    `json:"endPage"`
}

// StructureAnalyzer derives a document's chapter structure and each
// chapter's lesson substructure from extracted page text.
type StructureAnalyzer struct {
	client  AIClient
	prompts *PromptManager
	idGen   IDGenerator
	logger  *observability.Logger
}

// NewStructureAnalyzer creates a structure analyzer.
func NewStructureAnalyzer(client AIClient, prompts *PromptManager, idGen IDGenerator, logger *observability.Logger) *StructureAnalyzer {
	return &StructureAnalyzer{
		client:  client,
		prompts: prompts,
		idGen:   idGen,
		logger:  logger,
	}
}

// wholeDocumentChapter is the fallback structure when analysis cannot
// produce usable chapters. It covers every page, so downstream study flows
// always have at least one chapter to work with.
func (s *StructureAnalyzer) wholeDocumentChapter(totalPages int) []models.Chapter {
	return []models.Chapter{{
		ID:        s.idGen.NewID(),
		Title:     "Full document",
		StartPage: 1,
		EndPage:   totalPages,
	}}
}

// AnalyzeDocument identifies the high-level chapter structure of a document.
// It never fails: any unrecoverable analysis problem degrades to a single
// chapter spanning the whole document.
func (s *StructureAnalyzer) AnalyzeDocument(ctx context.Context, pages []models.PageText) []models.Chapter {
	ctx, span := observability.TraceAIFunction(ctx, "analyze_document_structure",
		attribute.Int("document.pages", len(pages)),
	)
	var spanErr error
	defer observability.FinishSpan(span, &spanErr)

	totalPages := len(pages)

	analysisPages := pages
	if len(analysisPages) > config.MaxAnalysisPages {
		analysisPages = analysisPages[:config.MaxAnalysisPages]
	}
	parts := make([]string, 0, len(analysisPages))
	for _, p := range analysisPages {
		parts = append(parts, fmt.Sprintf("--- PAGE %d ---\n%s", p.PageNumber, p.Text))
	}

	prompt, err := s.prompts.Render(DocumentStructureTemplate, PromptData{
		DocumentText: strings.Join(parts, "\n\n"),
		TotalPages:   totalPages,
	})
	if err != nil {
		spanErr = contextutils.WrapErrorf(err, "failed to render structure prompt")
		s.logger.Error(ctx, "Failed to render structure prompt", err, map[string]interface{}{})
		return s.wholeDocumentChapter(totalPages)
	}

	chapters, err := callWithRetry(ctx, s.logger, config.MaxAIAttempts, config.AIRetryBaseDelay, func(ctx context.Context) ([]models.Chapter, error) {
		raw, err := s.client.GenerateJSON(ctx, prompt)
		if err != nil {
			return nil, err
		}

		var rawChapters []rawChapter
		if !DecodeJSON(raw, &rawChapters) || len(rawChapters) == 0 {
			// An unparsable or empty response is not worth retrying;
			// degrade to the whole-document chapter.
			s.logger.Warn(ctx, "Structure analysis returned no usable chapters", map[string]interface{}{
				"response_length": len(raw),
			})
			return s.wholeDocumentChapter(totalPages), nil
		}

		if _, verr := ValidateAgainstSchema(ChapterBatchSchema, rawChapters); verr != nil {
			s.logger.Warn(ctx, "Structure analysis response failed schema validation", map[string]interface{}{
				"error": verr.Error(),
			})
			return s.wholeDocumentChapter(totalPages), nil
		}

		return s.repairChapters(rawChapters, totalPages), nil
	})
	if err != nil {
		spanErr = err
		s.logger.Error(ctx, "Structure analysis failed after retries", err, map[string]interface{}{
			"total_pages": totalPages,
		})
		return s.wholeDocumentChapter(totalPages)
	}

	span.SetAttributes(attribute.Int("structure.chapters", len(chapters)))
	return chapters
}

// repairChapters fixes overlapping page ranges, pins the final chapter to
// the last page, assigns IDs, and drops chapters whose range is invalid.
func (s *StructureAnalyzer) repairChapters(raw []rawChapter, totalPages int) []models.Chapter {
	for i := 0; i < len(raw)-1; i++ {
		if raw[i].EndPage >= raw[i+1].StartPage {
			raw[i].EndPage = raw[i+1].StartPage - 1
		}
	}
	raw[len(raw)-1].EndPage = totalPages

	chapters := make([]models.Chapter, 0, len(raw))
	for _, rc := range raw {
		if rc.StartPage <= 0 || rc.StartPage > totalPages || rc.EndPage < rc.StartPage {
			continue
		}
		chapters = append(chapters, models.Chapter{
			ID:        s.idGen.NewID(),
			Title:     rc.Title,
			StartPage: rc.StartPage,
			EndPage:   rc.EndPage,
		})
	}
	return chapters
}

// AnalyzeChapterForLessons splits a chapter's text into lessons. A response
// that parses but contains no lessons yields an empty non-nil slice; a
// request that fails after retries yields nil and an error. Callers rely on
// the distinction to tell "no substructure" from "analysis unavailable".
func (s *StructureAnalyzer) AnalyzeChapterForLessons(ctx context.Context, chapterText string, chapter models.Chapter) (result0 []models.Lesson, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "analyze_chapter_lessons",
		attribute.String("chapter.title", chapter.Title),
		attribute.Int("chapter.text_length", len(chapterText)),
	)
	defer observability.FinishSpan(span, &err)

	excerpt := chapterText
	if len(excerpt) > config.ChapterExcerptChars {
		excerpt = excerpt[:config.ChapterExcerptChars]
	}

	prompt, err := s.prompts.Render(ChapterLessonsTemplate, PromptData{
		ChapterTitle: chapter.Title,
		ChapterText:  excerpt,
		StartPage:    chapter.StartPage,
		EndPage:      chapter.EndPage,
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render lesson prompt")
	}

	lessons, err := callWithRetry(ctx, s.logger, config.MaxAIAttempts, config.AIRetryBaseDelay, func(ctx context.Context) ([]models.Lesson, error) {
		raw, err := s.client.GenerateJSON(ctx, prompt)
		if err != nil {
			return nil, err
		}

		var rawLessons []rawLesson
		if !DecodeJSON(raw, &rawLessons) {
			s.logger.Warn(ctx, "Lesson analysis response was not parseable", map[string]interface{}{
				"chapter": chapter.Title,
			})
			return []models.Lesson{}, nil
		}

		lessons := make([]models.Lesson, 0, len(rawLessons))
		for _, rl := range rawLessons {
			lessons = append(lessons, models.Lesson{
				ID:        s.idGen.NewID(),
				Title:     rl.Title,
				StartPage: rl.StartPage,
				EndPage:   rl.EndPage,
			})
		}
		return lessons, nil
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrAnalysisFailed, "lesson analysis for %q failed: %v", chapter.Title, err)
	}

	span.SetAttributes(attribute.Int("lessons.count", len(lessons)))
	return lessons, nil
}
