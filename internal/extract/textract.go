package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cliniq-health/cliniq/internal/common"
)

// TextClient calls the external text-extraction service over HTTP.
type TextClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewTextClient(cfg common.TextExtractConfig, logger *slog.Logger) *TextClient {
	return &TextClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type textResponse struct {
	Text string `json:"text"`
}

// ExtractText posts the document bytes and returns the recovered text.
// A 4xx answer means the service rejected the document itself; 5xx and
// transport errors mean the service was unavailable. Both surface as
// TEXT_EXTRACTION_FAILED so the document fails the same way either side.
func (c *TextClient) ExtractText(ctx context.Context, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/extract", bytes.NewReader(data))
	if err != nil {
		return "", common.NewAppError(common.KindTextExtractionFailed, "build extraction request", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("text extraction service unreachable", "error", err)
		return "", common.NewAppError(common.KindTextExtractionFailed, "text extraction service unavailable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return "", common.NewAppError(common.KindTextExtractionFailed, "read extraction response", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var tr textResponse
		if err := json.Unmarshal(body, &tr); err != nil {
			return "", common.NewAppError(common.KindTextExtractionFailed, "decode extraction response", err)
		}
		return tr.Text, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		c.logger.Warn("text extraction rejected document", "status", resp.StatusCode)
		return "", common.NewAppError(common.KindTextExtractionFailed,
			fmt.Sprintf("document rejected by text extraction (status %d)", resp.StatusCode), nil)
	default:
		c.logger.Error("text extraction service error", "status", resp.StatusCode)
		return "", common.NewAppError(common.KindTextExtractionFailed,
			fmt.Sprintf("text extraction service error (status %d)", resp.StatusCode), nil)
	}
}
