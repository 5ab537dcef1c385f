package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	gfschema "github.com/fulmenhq/gofulmen/schema"
)

// Record names double as $defs keys in the embedded schema document.
const (
	RecordDimensionScore          = "DimensionScore"
	RecordTrademarkRiskRow        = "TrademarkRiskRow"
	RecordTrademarkRiskMatrix     = "TrademarkRiskMatrix"
	RecordDomainAnalysis          = "DomainAnalysis"
	RecordCountryAnalysis         = "CountryAnalysis"
	RecordCompetitor              = "Competitor"
	RecordCompetitorAnalysis      = "CompetitorAnalysis"
	RecordBrandScore              = "BrandScore"
	RecordBrandEvaluationRequest  = "BrandEvaluationRequest"
	RecordBrandEvaluationResponse = "BrandEvaluationResponse"
	RecordStatusCheck             = "StatusCheck"
	RecordStatusCheckCreate       = "StatusCheckCreate"
)

var allRecords = []string{
	RecordDimensionScore,
	RecordTrademarkRiskRow,
	RecordTrademarkRiskMatrix,
	RecordDomainAnalysis,
	RecordCountryAnalysis,
	RecordCompetitor,
	RecordCompetitorAnalysis,
	RecordBrandScore,
	RecordBrandEvaluationRequest,
	RecordBrandEvaluationResponse,
	RecordStatusCheck,
	RecordStatusCheckCreate,
}

//go:embed schemas/records.schema.json
var recordsSchema []byte

type validateFunc func(payload []byte) ([]FieldViolation, error)

var (
	validatorsOnce sync.Once
	validators     map[string]validateFunc
	validatorsErr  error
)

// Document returns the embedded JSON Schema document describing every record.
func Document() []byte {
	out := make([]byte, len(recordsSchema))
	copy(out, recordsSchema)
	return out
}

// RecordSchema returns a standalone JSON Schema for one record, suitable for
// structured-output requests to LLM providers.
func RecordSchema(record string) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(recordsSchema, &doc); err != nil {
		return nil, fmt.Errorf("decode records schema: %w", err)
	}
	defs, _ := doc["$defs"].(map[string]any)
	if _, ok := defs[record]; !ok {
		return nil, fmt.Errorf("unknown record %q", record)
	}
	doc["$ref"] = "#/$defs/" + record
	doc["title"] = record
	return doc, nil
}

func loadValidators() (map[string]validateFunc, error) {
	validatorsOnce.Do(func() {
		validators = make(map[string]validateFunc, len(allRecords))
		for _, record := range allRecords {
			doc, err := RecordSchema(record)
			if err != nil {
				validatorsErr = err
				return
			}
			raw, err := json.Marshal(doc)
			if err != nil {
				validatorsErr = fmt.Errorf("encode %s schema: %w", record, err)
				return
			}
			v, err := gfschema.NewValidator(raw)
			if err != nil {
				validatorsErr = fmt.Errorf("compile %s schema: %w", record, err)
				return
			}
			validators[record] = func(payload []byte) ([]FieldViolation, error) {
				diagnostics, err := v.ValidateJSON(payload)
				if err != nil {
					return nil, err
				}
				return leafViolations(diagnostics), nil
			}
		}
	})
	return validators, validatorsErr
}

// leafViolations drops the wrapper diagnostics the validator emits for the
// root schema and each $ref hop, keeping the violations that name a field.
func leafViolations(diagnostics []gfschema.Diagnostic) []FieldViolation {
	out := make([]FieldViolation, 0, len(diagnostics))
	for _, d := range diagnostics {
		if strings.HasPrefix(d.Message, refWrapperPrefix) {
			continue
		}
		out = append(out, FieldViolation{Field: d.Pointer, Message: d.Message})
	}
	if len(out) == 0 {
		for _, d := range diagnostics {
			out = append(out, FieldViolation{Field: d.Pointer, Message: d.Message})
		}
	}
	return out
}

const refWrapperPrefix = "doesn't validate with"

// ValidateJSON checks a JSON payload against the named record's schema. It
// returns a *ValidationError listing every violation, or nil.
func ValidateJSON(record string, payload []byte) error {
	all, err := loadValidators()
	if err != nil {
		return err
	}
	fn, ok := all[record]
	if !ok {
		return fmt.Errorf("unknown record %q", record)
	}
	if !json.Valid(payload) {
		return newValidationError(record, "", "malformed JSON")
	}
	violations, err := fn(payload)
	if err != nil {
		return fmt.Errorf("validate %s: %w", record, err)
	}
	if len(violations) > 0 {
		return &ValidationError{Record: record, Violations: violations}
	}
	return nil
}

// validateValue re-checks a typed record by serializing it and running the
// same schema that guards untyped input. Nil slices and maps count as empty.
func validateValue(record string, v any) error {
	payload, err := json.Marshal(withEmptyCollections(v))
	if err != nil {
		return fmt.Errorf("encode %s: %w", record, err)
	}
	return ValidateJSON(record, payload)
}

func (d DimensionScore) Validate() error {
	return validateValue(RecordDimensionScore, d)
}

func (r TrademarkRiskRow) Validate() error {
	return validateValue(RecordTrademarkRiskRow, r)
}

func (m TrademarkRiskMatrix) Validate() error {
	return validateValue(RecordTrademarkRiskMatrix, m)
}

func (d DomainAnalysis) Validate() error {
	return validateValue(RecordDomainAnalysis, d)
}

func (c CountryAnalysis) Validate() error {
	return validateValue(RecordCountryAnalysis, c)
}

func (c Competitor) Validate() error {
	return validateValue(RecordCompetitor, c)
}

func (c CompetitorAnalysis) Validate() error {
	return validateValue(RecordCompetitorAnalysis, c)
}

func (b BrandScore) Validate() error {
	return validateValue(RecordBrandScore, b)
}

// Validate checks a request built in Go. A nil Countries slice is accepted
// as empty; a nil BrandNames slice is rejected the same way an empty list is.
func (r BrandEvaluationRequest) Validate() error {
	return validateValue(RecordBrandEvaluationRequest, r)
}

func (r BrandEvaluationResponse) Validate() error {
	return validateValue(RecordBrandEvaluationResponse, r)
}

func (s StatusCheck) Validate() error {
	return validateValue(RecordStatusCheck, s)
}

func (s StatusCheckCreate) Validate() error {
	return validateValue(RecordStatusCheckCreate, s)
}
