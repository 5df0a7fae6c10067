package services

import (
	"encoding/json"
	"strings"

	contextutils "studyapp/internal/utils"

	"github.com/xeipuuv/gojsonschema"
)

// ChapterBatchSchema validates the chapter array returned by document
// structure analysis. Page bounds are checked separately against the
// document's page count.
const ChapterBatchSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "title": {"type": "string", "minLength": 1},
      "startPage": {"type": "integer"},
      "endPage": {"type": "integer"}
    },
    "required": ["title", "startPage", "endPage"]
  }
}`

// LessonBatchSchema validates the lesson array returned by chapter
// substructure analysis.
const LessonBatchSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "title": {"type": "string", "minLength": 1},
      "startPage": {"type": "integer"},
      "endPage": {"type": "integer"}
    },
    "required": ["title"]
  }
}`

// QuestionBatchSchema validates a generated question batch. Each element is
// one of the four question variants, discriminated by its type tag.
const QuestionBatchSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "oneOf": [
      {
        "properties": {
          "type": {"const": "multiple_choice_question"},
          "question": {"type": "string", "minLength": 1},
          "options": {"type": "array", "items": {"type": "string"}, "minItems": 2},
          "correctAnswerIndex": {"type": "integer", "minimum": 0}
        },
        "required": ["type", "question", "options", "correctAnswerIndex"]
      },
      {
        "properties": {
          "type": {"const": "true_false_question"},
          "question": {"type": "string", "minLength": 1},
          "correctAnswer": {"type": "boolean"}
        },
        "required": ["type", "question", "correctAnswer"]
      },
      {
        "properties": {
          "type": {"const": "fill_in_the_blank_question"},
          "questionParts": {"type": "array", "items": {"type": "string"}, "minItems": 2},
          "correctAnswers": {"type": "array", "items": {"type": "string"}, "minItems": 1}
        },
        "required": ["type", "questionParts", "correctAnswers"]
      },
      {
        "properties": {
          "type": {"const": "open_ended_question"},
          "question": {"type": "string", "minLength": 1}
        },
        "required": ["type", "question"]
      }
    ]
  }
}`

// FeedbackBatchSchema validates the feedback array returned by grading.
const FeedbackBatchSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "questionId": {"type": "string", "minLength": 1},
      "isCorrect": {"type": "boolean"},
      "explanation": {"type": "string"}
    },
    "required": ["questionId", "isCorrect", "explanation"]
  }
}`

// CorrectionBatchSchema validates the correction array returned by the
// correction pass.
const CorrectionBatchSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "questionId": {"type": "string", "minLength": 1},
      "correction": {"type": "string"}
    },
    "required": ["questionId", "correction"]
  }
}`

// ValidateAgainstSchema validates a decoded value against a JSON schema.
func ValidateAgainstSchema(schema string, value interface{}) (result0 bool, err error) {
	if value == nil {
		return false, contextutils.ErrorWithContextf("value cannot be nil")
	}

	valueBytes, err := json.Marshal(value)
	if err != nil {
		return false, contextutils.WrapErrorf(err, "failed to marshal value for validation")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(valueBytes),
	)
	if err != nil {
		return false, contextutils.WrapErrorf(err, "schema validation failed")
	}

	if !result.Valid() {
		errs := result.Errors()
		var errorMessages []string
		for _, e := range errs {
			errorMessages = append(errorMessages, e.String())
		}
		return false, contextutils.WrapError(contextutils.ErrValidationFailed, strings.Join(errorMessages, "; "))
	}

	return true, nil
}
