package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliniq-health/cliniq/constants"
	"github.com/cliniq-health/cliniq/internal/common"
)

type fakeText struct {
	text string
	err  error
}

func (f *fakeText) ExtractText(_ context.Context, _ []byte) (string, error) {
	return f.text, f.err
}

type fakeFields struct {
	gotText    string
	gotDocType constants.DocType
	fields     map[string]any
	err        error
}

func (f *fakeFields) ExtractFields(_ context.Context, text string, docType constants.DocType) (map[string]any, []byte, error) {
	f.gotText = text
	f.gotDocType = docType
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.fields, []byte(`{"raw":true}`), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAdapterExtractClassifiesBeforeFields(t *testing.T) {
	text := &fakeText{text: "Laboratory panel for John Doe"}
	fields := &fakeFields{fields: map[string]any{"patient_name": "John Doe"}}
	a := NewAdapter(text, fields, testLogger())

	res, err := a.Extract(context.Background(), []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, constants.DocTypeDiagnosticReport, res.DocType)
	assert.Equal(t, constants.DocTypeDiagnosticReport, fields.gotDocType)
	assert.Equal(t, "Laboratory panel for John Doe", fields.gotText)
	assert.Equal(t, map[string]any{"patient_name": "John Doe"}, res.Fields)
	assert.JSONEq(t, `{"raw":true}`, string(res.Raw))
}

func TestAdapterExtractTextFailureShortCircuits(t *testing.T) {
	boom := common.NewAppError(common.KindTextExtractionFailed, "service down", nil)
	fields := &fakeFields{}
	a := NewAdapter(&fakeText{err: boom}, fields, testLogger())

	_, err := a.Extract(context.Background(), []byte("%PDF"))
	require.Error(t, err)
	assert.Equal(t, common.KindTextExtractionFailed, common.KindOf(err))
	assert.Empty(t, fields.gotText, "field extraction must not run after text failure")
}

func TestAdapterExtractFieldFailurePropagates(t *testing.T) {
	boom := common.NewAppError(common.KindStructuredExtractionFailed, "bad output", errors.New("schema"))
	a := NewAdapter(&fakeText{text: "discharged home"}, &fakeFields{err: boom}, testLogger())

	_, err := a.Extract(context.Background(), []byte("%PDF"))
	require.Error(t, err)
	assert.Equal(t, common.KindStructuredExtractionFailed, common.KindOf(err))
}

func TestTextClientExtractText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/extract", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"patient discharged"}`))
	}))
	defer srv.Close()

	c := NewTextClient(common.TextExtractConfig{BaseURL: srv.URL, Timeout: time.Second}, testLogger())
	text, err := c.ExtractText(context.Background(), []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "patient discharged", text)
}

func TestTextClientRejectedDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unreadable", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewTextClient(common.TextExtractConfig{BaseURL: srv.URL, Timeout: time.Second}, testLogger())
	_, err := c.ExtractText(context.Background(), []byte("junk"))
	require.Error(t, err)
	assert.Equal(t, common.KindTextExtractionFailed, common.KindOf(err))
}

func TestTextClientServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewTextClient(common.TextExtractConfig{BaseURL: srv.URL, Timeout: time.Second}, testLogger())
	_, err := c.ExtractText(context.Background(), []byte("%PDF"))
	require.Error(t, err)
	assert.Equal(t, common.KindTextExtractionFailed, common.KindOf(err))
}
