// Package services provides embedded templates for AI prompts
package services

import (
	"embed"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var promptTemplatesFS embed.FS

// Template names as constants
const (
	DocumentStructureTemplate = "document_structure.tmpl"
	ChapterLessonsTemplate    = "chapter_lessons.tmpl"
	InteractiveLessonTemplate = "interactive_lesson.tmpl"
	InitialQuestionsTemplate  = "initial_questions.tmpl"
	MoreQuestionsTemplate     = "more_questions.tmpl"
	GradeAnswersTemplate      = "grade_answers.tmpl"
	CorrectionsTemplate       = "corrections.tmpl"
	DeeperExplanationTemplate = "deeper_explanation.tmpl"
	ChapterSummaryTemplate    = "chapter_summary.tmpl"
	ProofreadPageTemplate     = "proofread_page.tmpl"
	CategorizeBooksTemplate   = "categorize_books.tmpl"
)

// PromptData holds data for rendering prompt templates
type PromptData struct {
	// Document structure analysis
	DocumentText string
	TotalPages   int

	// Chapter and lesson scoped fields
	ChapterTitle string
	ChapterText  string
	LessonTitle  string
	StartPage    int
	EndPage      int

	// Question generation
	SourceText      string
	QuestionCount   int
	ExistingPrompts []string

	// Grading and corrections, pre-marshaled for direct inclusion
	AnswerPairsJSON      string
	IncorrectAnswersJSON string

	// Deeper explanation
	Question    string
	Explanation string

	// Summaries and proofreading
	WordCount       int
	TargetWordCount int
	SummaryStyle    string
	PageText        string

	// Categorization
	BookTitles []string
}

// GradingDisplayPair is a question prompt with the user's answer and the
// expected answer rendered as display text, the form the grading prompt
// presents to the model.
type GradingDisplayPair struct {
	QuestionID    string `json:"questionId"`
	Question      string `json:"question"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
}

// PromptManager renders prompt templates for the content pipeline.
type PromptManager struct {
	templates *template.Template
}

// NewPromptManager parses the embedded prompt templates.
func NewPromptManager() (result0 *PromptManager, err error) {
	templates, err := template.New("").ParseFS(promptTemplatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}

	return &PromptManager{
		templates: templates,
	}, nil
}

// Render renders a template with the given data
func (pm *PromptManager) Render(templateName string, data PromptData) (result0 string, err error) {
	var buf strings.Builder
	err = pm.templates.ExecuteTemplate(&buf, templateName, data)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
