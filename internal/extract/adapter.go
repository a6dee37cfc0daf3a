package extract

import (
	"context"
	"log/slog"

	"github.com/cliniq-health/cliniq/constants"
	"github.com/cliniq-health/cliniq/internal/classify"
)

// Result is the outcome of the extraction stage for one document.
type Result struct {
	DocType constants.DocType
	Fields  map[string]any
	Raw     []byte // unparsed model output, persisted with the document
}

// Adapter runs text extraction, classification and structured extraction
// as one unit so the pipeline sees a single stage.
type Adapter struct {
	text   TextExtractor
	fields FieldExtractor
	logger *slog.Logger
}

func NewAdapter(text TextExtractor, fields FieldExtractor, logger *slog.Logger) *Adapter {
	return &Adapter{text: text, fields: fields, logger: logger}
}

// Extract turns raw document bytes into a classified field map. The category
// is decided from the recovered text before structured extraction so the
// model is prompted with the right schema.
func (a *Adapter) Extract(ctx context.Context, data []byte) (*Result, error) {
	text, err := a.text.ExtractText(ctx, data)
	if err != nil {
		return nil, err
	}

	docType := classify.Classify(text)
	a.logger.Debug("document classified", "doc_type", docType, "text_bytes", len(text))

	fields, raw, err := a.fields.ExtractFields(ctx, text, docType)
	if err != nil {
		return nil, err
	}
	return &Result{DocType: docType, Fields: fields, Raw: raw}, nil
}
