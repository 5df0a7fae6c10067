// Package models defines data structures used throughout the study assistant backend.
package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// PageText is one physical page of extracted document text. Produced by the
// extraction collaborator; immutable once produced. Pages are ordered by
// PageNumber (1-based); gaps are not expected but not guaranteed either.
type PageText struct {
	PageNumber int      `json:"pageNumber"`
	Text       string   `json:"text"`
	Images     []string `json:"images,omitempty"`
}

// Lesson is a sub-unit of a Chapter. Its page range is expected to lie within
// the owning chapter's range, but analyzer output is advisory and not
// re-clamped.
type Lesson struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartPage int    `json:"startPage"`
	EndPage   int    `json:"endPage"`
}

// Chapter is a top-level structural unit of a document with a contiguous page
// range. Lessons are populated lazily by a separate substructure analysis.
// IsAnalyzing is an ephemeral in-flight marker and is never persisted as true.
type Chapter struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	StartPage   int      `json:"startPage"`
	EndPage     int      `json:"endPage"`
	Lessons     []Lesson `json:"lessons,omitempty"`
	IsAnalyzing bool     `json:"isAnalyzing,omitempty"`
}

// BlockType tags an InteractiveBlock variant.
type BlockType string

// InteractiveBlock variants. A block is a question block iff its type name
// ends in "_question".
const (
	BlockExplanation    BlockType = "explanation"
	BlockMathFormula    BlockType = "math_formula"
	BlockMultipleChoice BlockType = "multiple_choice_question"
	BlockTrueFalse      BlockType = "true_false_question"
	BlockFillInTheBlank BlockType = "fill_in_the_blank_question"
	BlockOpenEnded      BlockType = "open_ended_question"
)

// QuestionSuffix identifies gradable block variants.
const QuestionSuffix = "_question"

// IsQuestion reports whether the block type is a gradable question variant.
func (t BlockType) IsQuestion() bool {
	return strings.HasSuffix(string(t), QuestionSuffix)
}

// InteractiveBlock is one unit of generated study content: an explanation, a
// formula, or one of four question variants. The variant-specific fields are
// populated according to Type; the zero value of the others is ignored.
//
// ID is assigned locally at creation time, never by the generation service,
// and is the join key for grading, correction, and retry. An ID is never
// reassigned to a different semantic block.
type InteractiveBlock struct {
	Type BlockType `json:"type"`
	ID   string    `json:"id"`

	// explanation
	Text string `json:"text,omitempty"`

	// math_formula
	Latex string `json:"latex,omitempty"`

	// multiple_choice_question, true_false_question, open_ended_question
	Question string `json:"question,omitempty"`

	// multiple_choice_question
	Options            []string `json:"options,omitempty"`
	CorrectAnswerIndex *int     `json:"correctAnswerIndex,omitempty"`

	// true_false_question
	CorrectAnswer *bool `json:"correctAnswer,omitempty"`

	// fill_in_the_blank_question. A blank follows every part except the last,
	// so len(CorrectAnswers) == len(QuestionParts)-1 is the natural interleaving.
	QuestionParts  []string `json:"questionParts,omitempty"`
	CorrectAnswers []string `json:"correctAnswers,omitempty"`
}

// IsQuestion reports whether the block is a gradable question variant.
func (b *InteractiveBlock) IsQuestion() bool {
	return b.Type.IsQuestion()
}

// PromptText renders the human-readable prompt of a question block:
// the question text for choice/true-false/open-ended variants, and the parts
// joined around an inline blank marker for fill-in-the-blank. Returns ""
// for non-question blocks.
func (b *InteractiveBlock) PromptText() string {
	switch b.Type {
	case BlockMultipleChoice, BlockTrueFalse, BlockOpenEnded:
		return b.Question
	case BlockFillInTheBlank:
		return strings.Join(b.QuestionParts, " ___ ")
	default:
		return ""
	}
}

// InteractiveContent is an ordered sequence of interactive blocks generated
// for one lesson-study session. Block order is significant for display
// numbering and is preserved through append operations.
type InteractiveContent struct {
	ID      string             `json:"id"`
	Title   string             `json:"title"`
	Content []InteractiveBlock `json:"content"`
}

// AppendBlocks returns a new content value with blocks appended at the end.
// The receiver is not mutated; existing blocks keep their IDs and order.
func (c InteractiveContent) AppendBlocks(blocks []InteractiveBlock) InteractiveContent {
	merged := make([]InteractiveBlock, 0, len(c.Content)+len(blocks))
	merged = append(merged, c.Content...)
	merged = append(merged, blocks...)
	return InteractiveContent{ID: c.ID, Title: c.Title, Content: merged}
}

// QuestionBlocks returns the question-variant blocks in content order.
func (c InteractiveContent) QuestionBlocks() []InteractiveBlock {
	var questions []InteractiveBlock
	for _, b := range c.Content {
		if b.IsQuestion() {
			questions = append(questions, b)
		}
	}
	return questions
}

// AnswerValue holds a submitted answer whose shape depends on the question
// variant: an option index for multiple-choice, a boolean for true/false,
// an ordered blank sequence for fill-in-the-blank, free text for open-ended.
type AnswerValue struct {
	Index  *int
	Bool   *bool
	Text   *string
	Blanks []string
}

// UnmarshalJSON accepts a number, boolean, string, or array of strings.
func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	*v = AnswerValue{}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return nil
	}

	switch trimmed[0] {
	case '[':
		return json.Unmarshal(data, &v.Blanks)
	case '"':
		v.Text = new(string)
		return json.Unmarshal(data, v.Text)
	case 't', 'f':
		v.Bool = new(bool)
		return json.Unmarshal(data, v.Bool)
	default:
		v.Index = new(int)
		return json.Unmarshal(data, v.Index)
	}
}

// MarshalJSON emits whichever shape is populated.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch {
	case v.Blanks != nil:
		return json.Marshal(v.Blanks)
	case v.Text != nil:
		return json.Marshal(*v.Text)
	case v.Bool != nil:
		return json.Marshal(*v.Bool)
	case v.Index != nil:
		return json.Marshal(*v.Index)
	default:
		return []byte("null"), nil
	}
}

// Display renders the answer as plain text, whatever its shape.
func (v AnswerValue) Display() string {
	switch {
	case v.Blanks != nil:
		return strings.Join(v.Blanks, ", ")
	case v.Text != nil:
		return *v.Text
	case v.Bool != nil:
		return strconv.FormatBool(*v.Bool)
	case v.Index != nil:
		return strconv.Itoa(*v.Index)
	default:
		return ""
	}
}

// UserAnswer is one submitted answer referencing a question block by ID.
type UserAnswer struct {
	QuestionID string      `json:"questionId"`
	Answer     AnswerValue `json:"answer"`
}

// FeedbackItem is the graded outcome for one submitted answer. Question and
// UserAnswer carry the rendered original texts for display; Explanation may
// later be overwritten by a correction without changing IsCorrect.
type FeedbackItem struct {
	QuestionID  string `json:"questionId"`
	IsCorrect   bool   `json:"isCorrect"`
	Explanation string `json:"explanation"`
	Question    string `json:"question,omitempty"`
	UserAnswer  string `json:"userAnswer,omitempty"`
}

// AiCorrection is a deeper per-question correction produced for an incorrect answer.
type AiCorrection struct {
	QuestionID string `json:"questionId"`
	Correction string `json:"correction"`
}

// IncorrectAnswer is the input shape for the correction engine.
type IncorrectAnswer struct {
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
	UserAnswer string `json:"userAnswer"`
}

// SavedBook is a persisted uploaded document together with its extracted
// pages and analyzed structure.
type SavedBook struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Chapters  []Chapter  `json:"chapters"`
	PageTexts []PageText `json:"pageTexts"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ActiveBookState is the single-slot "resume last book" pointer.
type ActiveBookState struct {
	ID       string    `json:"id"`
	XP       int       `json:"xp"`
	Chapters []Chapter `json:"chapters"`
}

// SavedSummary is a persisted chapter summary.
type SavedSummary struct {
	ID           string `json:"id"`
	BookName     string `json:"bookName"`
	ChapterTitle string `json:"chapterTitle"`
	SummaryText  string `json:"summaryText"`
}

// TaskPriority is the priority of a study task.
type TaskPriority string

// Task priorities.
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Task is a user-managed study task.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Priority    TaskPriority `json:"priority"`
	Category    string       `json:"category"`
	DueDate     time.Time    `json:"dueDate"`
	Completed   bool         `json:"completed"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// TaskCategory is a user-defined task grouping.
type TaskCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BookCategory is an AI-assigned library grouping of book titles.
type BookCategory struct {
	Category      string            `json:"category"`
	SubCategories []BookSubCategory `json:"subCategories"`
}

// BookSubCategory groups book titles under a sub-heading.
type BookSubCategory struct {
	SubCategory string   `json:"subCategory"`
	Books       []string `json:"books"`
}
