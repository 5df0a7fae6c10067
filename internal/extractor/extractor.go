// Package extractor turns uploaded documents into per-page text for the
// analysis pipeline.
package extractor

import (
	"bufio"
	"context"
	"io"
	"strings"

	"studyapp/internal/models"
	contextutils "studyapp/internal/utils"
)

// PageExtractor produces ordered per-page text from an uploaded document.
// Page numbers are 1-based and contiguous; a page with no recoverable text
// still appears, with empty Text.
type PageExtractor interface {
	ExtractPages(ctx context.Context, r io.Reader, name string) ([]models.PageText, error)
}

// PlainTextExtractor treats the upload as plain text with form-feed page
// breaks. Inputs without any form feed become a single page.
type PlainTextExtractor struct{}

// NewPlainTextExtractor creates a plain-text extractor.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// ExtractPages implements PageExtractor.
func (e *PlainTextExtractor) ExtractPages(ctx context.Context, r io.Reader, name string) ([]models.PageText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to read upload %q", name)
	}
	if len(data) == 0 {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "upload %q is empty", name)
	}

	rawPages := strings.Split(string(data), "\f")
	pages := make([]models.PageText, 0, len(rawPages))
	for i, raw := range rawPages {
		pages = append(pages, models.PageText{
			PageNumber: i + 1,
			Text:       strings.TrimSpace(raw),
		})
	}
	return pages, nil
}
