// Package validate checks canonical FHIR records against the configured
// JSON Schema ruleset and produces a persisted validation report.
package validate

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/cliniq-health/cliniq/constants"
	"github.com/cliniq-health/cliniq/internal/common"
)

//go:embed rulesets/*.json
var defaultRulesets embed.FS

// Verdicts recorded on the validation report.
const (
	VerdictOK     = "ok"
	VerdictFailed = "failed"
)

// Finding is one rule violation inside the validated record.
type Finding struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Report is the persisted outcome of validating one record.
type Report struct {
	Verdict  string    `json:"verdict"`
	Findings []Finding `json:"findings,omitempty"`
}

var rulesetFiles = map[constants.DocType]string{
	constants.DocTypeDiagnosticReport: "diagnostic_report.schema.json",
	constants.DocTypeDischargeSummary: "discharge_summary.schema.json",
}

// Validator holds the compiled per-category ruleset schemas.
type Validator struct {
	schemas map[constants.DocType]*jsonschema.Schema
	logger  *slog.Logger
}

// NewValidator compiles the ruleset for every document category. An empty
// dir uses the embedded default ruleset; otherwise schema files are read
// from dir by the same names.
func NewValidator(cfg common.RulesetConfig, logger *slog.Logger) (*Validator, error) {
	var src fs.FS
	if cfg.Dir != "" {
		src = os.DirFS(cfg.Dir)
		logger.Info("loading validation ruleset", "dir", cfg.Dir)
	} else {
		sub, err := fs.Sub(defaultRulesets, "rulesets")
		if err != nil {
			return nil, err
		}
		src = sub
		logger.Info("using embedded validation ruleset")
	}

	v := &Validator{
		schemas: make(map[constants.DocType]*jsonschema.Schema, len(rulesetFiles)),
		logger:  logger,
	}
	for docType, name := range rulesetFiles {
		raw, err := fs.ReadFile(src, name)
		if err != nil {
			return nil, fmt.Errorf("read ruleset %s: %w", name, err)
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(name, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("add ruleset %s: %w", name, err)
		}
		schema, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compile ruleset %s: %w", name, err)
		}
		v.schemas[docType] = schema
	}
	return v, nil
}

// Validate checks the record against the category ruleset. Rule violations
// are not errors: they come back inside the report with a failed verdict.
// The error return covers malformed input only.
func (v *Validator) Validate(docType constants.DocType, record json.RawMessage) (*Report, error) {
	schema, ok := v.schemas[docType]
	if !ok {
		return nil, fmt.Errorf("no ruleset for document category %q", docType)
	}

	var doc any
	if err := json.Unmarshal(record, &doc); err != nil {
		return nil, fmt.Errorf("record is not valid JSON: %w", err)
	}

	err := schema.Validate(doc)
	if err == nil {
		return &Report{Verdict: VerdictOK}, nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, err
	}

	report := &Report{Verdict: VerdictFailed, Findings: collectFindings(ve)}
	v.logger.Debug("record failed validation", "doc_type", docType, "findings", len(report.Findings))
	return report, nil
}

// collectFindings flattens the validation error tree into its leaf causes.
func collectFindings(ve *jsonschema.ValidationError) []Finding {
	if len(ve.Causes) == 0 {
		path := ve.InstanceLocation
		if path == "" {
			path = "/"
		}
		return []Finding{{Path: path, Message: ve.Message}}
	}
	var out []Finding
	for _, cause := range ve.Causes {
		out = append(out, collectFindings(cause)...)
	}
	return out
}
