package config

import "time"

// Timeouts
const (
	DefaultHTTPTimeout = 60 * time.Second
	AIRequestTimeout   = 3 * time.Minute
	ShutdownTimeout    = 30 * time.Second
	TestTimeout        = 100 * time.Millisecond
)

// AI retry policy. Backoff between attempts grows linearly with the attempt
// number (attempt × base delay).
const (
	MaxAIAttempts    = 3
	AIRetryBaseDelay = 1 * time.Second
	// ExtractionRetryBaseDelay paces the inner extraction-failure loop used by
	// initial question generation; it is independent of the call-level retry.
	ExtractionRetryBaseDelay = 500 * time.Millisecond
)

// Prompt-size caps. Only a bounded slice of the source text is sent upstream.
const (
	// MaxAnalysisPages caps how many pages are included in the document
	// structure prompt. Total page count is always computed from the full set.
	MaxAnalysisPages = 600
	// ChapterExcerptChars caps the chapter text sent for lesson decomposition.
	ChapterExcerptChars = 50000
	// LessonCharLimit caps the text sent for interactive lesson generation.
	LessonCharLimit = 40000
	// QuestionSourceChars caps the lesson text sent for question generation.
	QuestionSourceChars = 25000
)

// Question batch sizes
const (
	InitialQuestionTarget = 50
	MoreQuestionsBatch    = 10
)

// Generation defaults
const (
	DefaultMaxTokens      = 8192
	DefaultMaxUploadBytes = 64 << 20 // 64 MiB
)
