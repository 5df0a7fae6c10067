package services

import (
	"encoding/json"
	"regexp"
	"strings"
)

// The generation service is expected, but not guaranteed, to return valid
// JSON. Responses routinely arrive wrapped in markdown code fences, padded
// with prose, or carrying trailing commas. ExtractJSON salvages the embedded
// JSON value or reports failure; it never retries (call-level retry lives in
// callWithRetry) and never returns a partially-parsed value.

var (
	fencedBlockRe   = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n?(.*?)\n?\\s*```$")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON extracts the outermost JSON value embedded in raw text.
// It unwraps a single fenced code block, slices from the first '{' or '[' to
// the last '}' or ']', strips trailing commas before closing delimiters, and
// parses the result. Returns ("", false) if no parseable JSON value exists;
// either the whole value parses or extraction fails.
func ExtractJSON(rawText string) (result0 string, result1 bool) {
	jsonStr := strings.TrimSpace(rawText)
	if jsonStr == "" {
		return "", false
	}

	if m := fencedBlockRe.FindStringSubmatch(jsonStr); m != nil {
		jsonStr = strings.TrimSpace(m[1])
	}

	firstBracket := strings.Index(jsonStr, "[")
	firstBrace := strings.Index(jsonStr, "{")
	start := -1
	switch {
	case firstBracket == -1:
		start = firstBrace
	case firstBrace == -1:
		start = firstBracket
	default:
		start = min(firstBracket, firstBrace)
	}
	if start == -1 {
		return "", false
	}

	lastBracket := strings.LastIndex(jsonStr, "]")
	lastBrace := strings.LastIndex(jsonStr, "}")
	end := max(lastBracket, lastBrace)
	if end == -1 || end < start {
		return "", false
	}

	jsonStr = jsonStr[start : end+1]

	// Trailing commas before a closing brace/bracket are a common generator artifact.
	cleaned := trailingCommaRe.ReplaceAllString(jsonStr, "$1")

	if !json.Valid([]byte(cleaned)) {
		return "", false
	}

	return cleaned, true
}

// DecodeJSON extracts and unmarshals the JSON embedded in raw text into dest.
// Returns false when extraction or unmarshaling fails; callers must not use
// dest unless the result is true.
func DecodeJSON(rawText string, dest interface{}) bool {
	cleaned, ok := ExtractJSON(rawText)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(cleaned), dest) == nil
}
