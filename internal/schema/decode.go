package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// decodeJSON validates payload against record's schema and decodes it into a
// T. The untyped form is returned alongside so callers can inspect which keys
// were present.
func decodeJSON[T any](record string, payload []byte, strict bool) (T, map[string]any, error) {
	var out T

	if err := ValidateJSON(record, payload); err != nil {
		return out, nil, err
	}

	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return out, nil, newValidationError(record, "", "expected a JSON object")
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      &out,
		ErrorUnused: strict,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			numberHook,
		),
	})
	if err != nil {
		return out, nil, fmt.Errorf("create %s decoder: %w", record, err)
	}
	if err := decoder.Decode(raw); err != nil {
		return out, nil, newValidationError(record, "", err.Error())
	}
	return out, raw, nil
}

// numberHook converts JSON numbers for numeric fields. Integers are kept
// exactly and rejected when they do not fit the target type; integral values
// written with a fraction or exponent (5.0, 1e2) are accepted.
func numberHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	n, ok := data.(json.Number)
	if !ok {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i, err := n.Int64(); err == nil {
			if reflect.Zero(to).OverflowInt(i) {
				return nil, fmt.Errorf("%s is out of range", n)
			}
			return i, nil
		}
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return nil, fmt.Errorf("%s is out of range", n)
		}
		return int64(f), nil
	case reflect.Float32, reflect.Float64:
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("%s is out of range", n)
		}
		return f, nil
	}
	return data, nil
}

// decodeMap is the untyped-map entry point. The map is normalized through
// JSON so that Go-native values (typed slices, time.Time) and decoded JSON
// take the same path.
func decodeMap[T any](record string, raw map[string]any, strict bool) (T, map[string]any, error) {
	var out T
	if raw == nil {
		return out, nil, newValidationError(record, "", "expected a JSON object, got null")
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		return out, nil, newValidationError(record, "", fmt.Sprintf("unencodable input: %v", err))
	}
	return decodeJSON[T](record, payload, strict)
}

func DecodeDimensionScore(raw map[string]any) (DimensionScore, error) {
	v, _, err := decodeMap[DimensionScore](RecordDimensionScore, raw, true)
	return v, err
}

func DecodeTrademarkRiskRow(raw map[string]any) (TrademarkRiskRow, error) {
	v, _, err := decodeMap[TrademarkRiskRow](RecordTrademarkRiskRow, raw, true)
	return v, err
}

func DecodeTrademarkRiskMatrix(raw map[string]any) (TrademarkRiskMatrix, error) {
	v, _, err := decodeMap[TrademarkRiskMatrix](RecordTrademarkRiskMatrix, raw, true)
	return v, err
}

func DecodeDomainAnalysis(raw map[string]any) (DomainAnalysis, error) {
	v, _, err := decodeMap[DomainAnalysis](RecordDomainAnalysis, raw, true)
	return v, err
}

func DecodeCountryAnalysis(raw map[string]any) (CountryAnalysis, error) {
	v, _, err := decodeMap[CountryAnalysis](RecordCountryAnalysis, raw, true)
	return v, err
}

func DecodeCompetitor(raw map[string]any) (Competitor, error) {
	v, _, err := decodeMap[Competitor](RecordCompetitor, raw, true)
	return v, err
}

func DecodeCompetitorAnalysis(raw map[string]any) (CompetitorAnalysis, error) {
	v, _, err := decodeMap[CompetitorAnalysis](RecordCompetitorAnalysis, raw, true)
	return v, err
}

func DecodeBrandScore(raw map[string]any) (BrandScore, error) {
	v, _, err := decodeMap[BrandScore](RecordBrandScore, raw, true)
	return v, err
}

func DecodeBrandEvaluationRequest(raw map[string]any) (BrandEvaluationRequest, error) {
	v, _, err := decodeMap[BrandEvaluationRequest](RecordBrandEvaluationRequest, raw, true)
	return v, err
}

// ParseBrandEvaluationRequest validates and decodes a JSON request body.
func ParseBrandEvaluationRequest(data []byte) (BrandEvaluationRequest, error) {
	v, _, err := decodeJSON[BrandEvaluationRequest](RecordBrandEvaluationRequest, data, true)
	return v, err
}

func DecodeBrandEvaluationResponse(raw map[string]any) (BrandEvaluationResponse, error) {
	v, _, err := decodeMap[BrandEvaluationResponse](RecordBrandEvaluationResponse, raw, true)
	return v, err
}

// ParseBrandEvaluationResponse validates and decodes a JSON response, e.g.
// the raw output of the reasoning provider.
func ParseBrandEvaluationResponse(data []byte) (BrandEvaluationResponse, error) {
	v, _, err := decodeJSON[BrandEvaluationResponse](RecordBrandEvaluationResponse, data, true)
	return v, err
}

func DecodeStatusCheckCreate(raw map[string]any) (StatusCheckCreate, error) {
	v, _, err := decodeMap[StatusCheckCreate](RecordStatusCheckCreate, raw, true)
	return v, err
}

func ParseStatusCheckCreate(data []byte) (StatusCheckCreate, error) {
	v, _, err := decodeJSON[StatusCheckCreate](RecordStatusCheckCreate, data, true)
	return v, err
}

// DecodeStatusCheck builds a StatusCheck from untyped input. Unknown keys are
// ignored. A missing id or timestamp is generated. A supplied timestamp keeps
// its instant but is converted to UTC, so "2025-03-01T12:30:00+02:00"
// serializes back as "2025-03-01T10:30:00Z".
func DecodeStatusCheck(raw map[string]any, opts ...Option) (StatusCheck, error) {
	v, fields, err := decodeMap[StatusCheck](RecordStatusCheck, raw, false)
	if err != nil {
		return StatusCheck{}, err
	}
	return applyStatusDefaults(v, fields, newOptions(opts)), nil
}

// ParseStatusCheck is DecodeStatusCheck for a JSON document.
func ParseStatusCheck(data []byte, opts ...Option) (StatusCheck, error) {
	v, fields, err := decodeJSON[StatusCheck](RecordStatusCheck, data, false)
	if err != nil {
		return StatusCheck{}, err
	}
	return applyStatusDefaults(v, fields, newOptions(opts)), nil
}
