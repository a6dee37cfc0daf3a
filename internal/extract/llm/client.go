package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/cliniq-health/cliniq/constants"
	"github.com/cliniq-health/cliniq/internal/common"
)

const systemPrompt = `You are a clinical document extraction engine.
Read the document text and return ONLY a JSON object that satisfies the
provided JSON Schema. Use empty strings or omit optional keys when the
document does not state a value. Never invent clinical facts.`

// Client extracts structured fields from document text with a chat model.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	configured  bool
	logger      *slog.Logger
}

func NewClient(cfg common.LLMConfig, logger *slog.Logger) *Client {
	c := &Client{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		configured:  cfg.APIKey != "",
		logger:      logger,
	}
	if !c.configured {
		return c
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	c.api = openai.NewClientWithConfig(oc)
	return c
}

// ExtractFields asks the model for a field map conforming to the category
// schema. A missing API key fails with EXTRACTION_UNCONFIGURED before any
// network call; schema-violating model output fails with
// STRUCTURED_EXTRACTION_FAILED.
func (c *Client) ExtractFields(ctx context.Context, text string, docType constants.DocType) (map[string]any, []byte, error) {
	if !c.configured {
		return nil, nil, common.NewAppError(common.KindExtractionUnconfigured,
			"structured extraction is not configured: OPENAI_API_KEY is unset", nil)
	}

	schemaMap := BuildFieldSchema(docType)
	schemaJSON, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, nil, common.NewAppError(common.KindStructuredExtractionFailed, "marshal field schema", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Document category: %s\n\nJSON Schema:\n%s\n\nDocument text:\n%s",
					docType, schemaJSON, text),
			},
		},
	})
	if err != nil {
		c.logger.Error("structured extraction call failed", "model", c.model, "error", err)
		return nil, nil, common.NewAppError(common.KindStructuredExtractionFailed, "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, nil, common.NewAppError(common.KindStructuredExtractionFailed, "model returned no choices", nil)
	}

	raw := []byte(resp.Choices[0].Message.Content)
	if err := validateAgainstSchema(schemaMap, raw); err != nil {
		c.logger.Warn("model output rejected by field schema", "doc_type", docType, "error", err)
		return nil, nil, common.NewAppError(common.KindStructuredExtractionFailed, "model output rejected", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, nil, common.NewAppError(common.KindStructuredExtractionFailed, "decode model output", err)
	}
	c.logger.Debug("structured extraction succeeded", "doc_type", docType, "fields", len(fields))
	return fields, raw, nil
}
