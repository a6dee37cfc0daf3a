// Package extract turns raw document bytes into a classified field map by
// delegating to the text-extraction service and the structured-extraction
// model behind narrow interfaces.
package extract

import (
	"context"

	"github.com/cliniq-health/cliniq/constants"
)

// TextExtractor recovers plain text from raw document bytes.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// FieldExtractor turns extracted text into a structured field map for the
// given document category. Raw is the unparsed model output, kept for the
// document record.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string, docType constants.DocType) (map[string]any, []byte, error)
}
