package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	gfschema "github.com/fulmenhq/gofulmen/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertPresentFields checks that every key in want appears in got with an
// equal value, recursing through objects and lists.
func assertPresentFields(t *testing.T, want, got any, path string) {
	t.Helper()
	switch w := want.(type) {
	case map[string]any:
		g, ok := got.(map[string]any)
		require.True(t, ok, "%s: expected object, got %T", path, got)
		for k, v := range w {
			gv, present := g[k]
			require.True(t, present, "%s/%s missing after round trip", path, k)
			assertPresentFields(t, v, gv, path+"/"+k)
		}
	case []any:
		g, ok := got.([]any)
		require.True(t, ok, "%s: expected list, got %T", path, got)
		require.Len(t, g, len(w), path)
		for i := range w {
			assertPresentFields(t, w[i], g[i], fmt.Sprintf("%s/%d", path, i))
		}
	default:
		assert.Equal(t, want, got, path)
	}
}

func loadFixture(t *testing.T, name string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	return raw
}

func validRow() map[string]any {
	return map[string]any{
		"likelihood": 2,
		"severity":   3,
		"zone":       "Green",
		"commentary": "ok",
	}
}

func validMatrix() map[string]any {
	return map[string]any{
		"genericness":            validRow(),
		"existing_conflicts":     validRow(),
		"phonetic_similarity":    validRow(),
		"relevant_classes":       validRow(),
		"rebranding_probability": validRow(),
		"overall_assessment":     "Low risk",
	}
}

func TestDecodeBrandEvaluationRequest(t *testing.T) {
	raw := loadFixture(t, "request.json")

	req, err := DecodeBrandEvaluationRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zynth", "Kavo"}, req.BrandNames)
	assert.Equal(t, "Tech", req.Category)
	assert.Equal(t, PositioningPremium, req.Positioning)
	assert.Equal(t, MarketScopeGlobal, req.MarketScope)
	assert.Equal(t, []string{"USA", "India"}, req.Countries)
}

func TestDecodeBrandEvaluationRequest_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"unknown positioning", func(m map[string]any) { m["positioning"] = "Luxury" }},
		{"unknown market scope", func(m map[string]any) { m["market_scope"] = "Planetary" }},
		{"missing category", func(m map[string]any) { delete(m, "category") }},
		{"missing countries", func(m map[string]any) { delete(m, "countries") }},
		{"empty brand names", func(m map[string]any) { m["brand_names"] = []any{} }},
		{"brand names not a list", func(m map[string]any) { m["brand_names"] = "Zynth" }},
		{"numeric brand name", func(m map[string]any) { m["brand_names"] = []any{"Zynth", 7} }},
		{"extra field", func(m map[string]any) { m["budget"] = "large" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := loadFixture(t, "request.json")
			tc.mutate(raw)

			_, err := DecodeBrandEvaluationRequest(raw)
			require.Error(t, err)
			ve, ok := AsValidationError(err)
			require.True(t, ok, "expected ValidationError, got %T", err)
			assert.Equal(t, RecordBrandEvaluationRequest, ve.Record)
			assert.NotEmpty(t, ve.Violations)
		})
	}
}

func TestDecodeBrandEvaluationRequest_EmptyCountriesAllowed(t *testing.T) {
	raw := loadFixture(t, "request.json")
	raw["countries"] = []any{}

	req, err := DecodeBrandEvaluationRequest(raw)
	require.NoError(t, err)
	assert.Empty(t, req.Countries)
}

func TestParseBrandEvaluationRequest_Malformed(t *testing.T) {
	_, err := ParseBrandEvaluationRequest([]byte(`{"brand_names": [`))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	_, err = ParseBrandEvaluationRequest([]byte(`["Zynth"]`))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestDecodeBrandEvaluationResponse(t *testing.T) {
	raw := loadFixture(t, "response.json")

	resp, err := DecodeBrandEvaluationResponse(raw)
	require.NoError(t, err)
	require.Len(t, resp.BrandScores, 2)

	zynth := resp.BrandScores[0]
	assert.Equal(t, "Zynth", zynth.BrandName)
	assert.Equal(t, VerdictGo, zynth.Verdict)
	assert.InDelta(t, 82.0, zynth.Namescore, 0.0001)
	assert.Equal(t, ZoneYellow, zynth.TrademarkMatrix.ExistingConflicts.Zone)
	assert.Equal(t, 3, zynth.TrademarkMatrix.ExistingConflicts.Likelihood)
	require.NotNil(t, zynth.CompetitorAnalysis)
	assert.Equal(t, "Synthia", zynth.CompetitorAnalysis.Competitors[0].Name)
	assert.Equal(t, "getzynth.com", zynth.DomainAnalysis.Alternatives[0]["domain"])

	kavo := resp.BrandScores[1]
	assert.Equal(t, VerdictNoGo, kavo.Verdict)
	assert.Nil(t, kavo.CompetitorAnalysis)
}

func TestDecodeBrandScore_VerdictIndependentOfScore(t *testing.T) {
	raw := loadFixture(t, "response.json")
	scores := raw["brand_scores"].([]any)
	score := scores[0].(map[string]any)

	score["verdict"] = "NO-GO"
	score["namescore"] = 95
	bs, err := DecodeBrandScore(score)
	require.NoError(t, err)
	assert.Equal(t, VerdictNoGo, bs.Verdict)

	score["verdict"] = "MAYBE"
	_, err = DecodeBrandScore(score)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestDecodeBrandScore_NullCompetitorAnalysis(t *testing.T) {
	raw := loadFixture(t, "response.json")
	score := raw["brand_scores"].([]any)[0].(map[string]any)
	score["competitor_analysis"] = nil

	bs, err := DecodeBrandScore(score)
	require.NoError(t, err)
	assert.Nil(t, bs.CompetitorAnalysis)

	out, err := Serialize(bs)
	require.NoError(t, err)
	value, present := out["competitor_analysis"]
	require.True(t, present, "null competitor_analysis is kept")
	assert.Nil(t, value)
	assertPresentFields(t, score, out, "")
}

func TestDecodeRejectsIntegersOutOfRange(t *testing.T) {
	for _, value := range []any{1e30, -1e30, json.Number("9223372036854775808")} {
		row := validRow()
		row["likelihood"] = value
		_, err := DecodeTrademarkRiskRow(row)
		require.Error(t, err, "likelihood %v", value)
		assert.True(t, IsValidationError(err))
	}

	row := validRow()
	row["severity"] = json.Number("9007199254740993")
	decoded, err := DecodeTrademarkRiskRow(row)
	require.NoError(t, err)
	assert.Equal(t, 9007199254740993, decoded.Severity)

	parsed, err := ParseBrandEvaluationResponse(mustReadFixture(t, "response.json"))
	require.NoError(t, err)
	assert.Equal(t, 8, parsed.BrandScores[0].TrademarkMatrix.RebrandingProbability.Severity)
}

func TestDecodeAcceptsIntegralNumbersWithFraction(t *testing.T) {
	row := validRow()
	row["likelihood"] = json.Number("4.0")
	decoded, err := DecodeTrademarkRiskRow(row)
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Likelihood)
}

func mustReadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestDecodeTrademarkRiskMatrix(t *testing.T) {
	m, err := DecodeTrademarkRiskMatrix(validMatrix())
	require.NoError(t, err)
	assert.Equal(t, "Low risk", m.OverallAssessment)
	assert.Len(t, m.Rows(), 5)

	missing := validMatrix()
	delete(missing, "rebranding_probability")
	_, err = DecodeTrademarkRiskMatrix(missing)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestDecodeTrademarkRiskRow(t *testing.T) {
	row := validRow()
	row["zone"] = "Orange"
	_, err := DecodeTrademarkRiskRow(row)
	require.Error(t, err)

	row = validRow()
	row["likelihood"] = 2.5
	_, err = DecodeTrademarkRiskRow(row)
	require.Error(t, err, "likelihood must be an integer")

	row = validRow()
	row["severity"] = "high"
	_, err = DecodeTrademarkRiskRow(row)
	require.Error(t, err)
}

func TestDecodeDimensionScore(t *testing.T) {
	d, err := DecodeDimensionScore(map[string]any{
		"name":      "Memorability",
		"score":     8,
		"reasoning": "short",
	})
	require.NoError(t, err)
	assert.InDelta(t, 8.0, d.Score, 0.0001)

	_, err = DecodeDimensionScore(map[string]any{"name": "Memorability", "score": 8})
	require.Error(t, err)
}

func TestDecodeDomainAnalysis_AlternativesMustBeStrings(t *testing.T) {
	_, err := DecodeDomainAnalysis(map[string]any{
		"exact_match_status": "taken",
		"alternatives":       []any{map[string]any{"domain": "getx.com", "rank": 1}},
		"strategy_note":      "n/a",
	})
	require.Error(t, err)
}

func TestDecodeCompetitorAnalysis(t *testing.T) {
	ca, err := DecodeCompetitorAnalysis(map[string]any{
		"competitors": []any{
			map[string]any{"name": "A", "positioning": "Mass", "price_range": "$"},
		},
		"white_space_analysis": "gap",
		"strategic_advantage":  "edge",
		"suggested_pricing":    "$$",
	})
	require.NoError(t, err)
	assert.Equal(t, "A", ca.Competitors[0].Name)

	_, err = DecodeCompetitor(map[string]any{"name": "A", "positioning": "Mass"})
	require.Error(t, err)
}

func TestDecodeCountryAnalysis(t *testing.T) {
	ca, err := DecodeCountryAnalysis(map[string]any{
		"country":                  "Japan",
		"cultural_resonance_score": 6.5,
		"cultural_notes":           "fine",
		"linguistic_check":         "no issues",
	})
	require.NoError(t, err)
	assert.Equal(t, "Japan", ca.Country)
}

func TestRoundTrip(t *testing.T) {
	t.Run("request", func(t *testing.T) {
		raw := loadFixture(t, "request.json")
		req, err := DecodeBrandEvaluationRequest(raw)
		require.NoError(t, err)
		out, err := Serialize(req)
		require.NoError(t, err)
		assert.Equal(t, raw, out)
	})

	t.Run("response", func(t *testing.T) {
		raw := loadFixture(t, "response.json")
		resp, err := DecodeBrandEvaluationResponse(raw)
		require.NoError(t, err)
		out, err := Serialize(resp)
		require.NoError(t, err)
		assertPresentFields(t, raw, out, "")

		again, err := DecodeBrandEvaluationResponse(out)
		require.NoError(t, err)
		assert.Equal(t, resp, again)
	})

	t.Run("status check", func(t *testing.T) {
		raw := map[string]any{
			"id":          "0b7e1e3c-3f0b-4a53-9b39-8f6f4a2b1c11",
			"client_name": "acme",
			"timestamp":   "2025-03-01T12:30:00Z",
		}
		sc, err := DecodeStatusCheck(raw)
		require.NoError(t, err)
		out, err := Serialize(sc)
		require.NoError(t, err)
		assert.Equal(t, raw, out)
	})
}

func TestStatusCheckDefaults(t *testing.T) {
	before := time.Now().UTC()

	create, err := DecodeStatusCheckCreate(map[string]any{"client_name": "acme"})
	require.NoError(t, err)
	sc := NewStatusCheck(create)

	assert.Equal(t, "acme", sc.ClientName)
	assert.NotEmpty(t, sc.ID)
	assert.Equal(t, time.UTC, sc.Timestamp.Location())
	assert.WithinDuration(t, before, sc.Timestamp, 5*time.Second)

	other := NewStatusCheck(create)
	assert.NotEqual(t, sc.ID, other.ID, "ids are generated per construction")
}

func TestDecodeStatusCheck(t *testing.T) {
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	opts := []Option{
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(func() string { return "fixed-id" }),
	}

	t.Run("defaults and extras ignored", func(t *testing.T) {
		sc, err := DecodeStatusCheck(map[string]any{
			"client_name": "acme",
			"region":      "eu-west-1",
		}, opts...)
		require.NoError(t, err)
		assert.Equal(t, "fixed-id", sc.ID)
		assert.Equal(t, fixed, sc.Timestamp)
	})

	t.Run("explicit values kept and normalized to UTC", func(t *testing.T) {
		sc, err := DecodeStatusCheck(map[string]any{
			"id":          "given",
			"client_name": "acme",
			"timestamp":   "2025-06-01T14:00:00+02:00",
		}, opts...)
		require.NoError(t, err)
		assert.Equal(t, "given", sc.ID)
		assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), sc.Timestamp)

		out, err := Serialize(sc)
		require.NoError(t, err)
		assert.Equal(t, "2025-06-01T12:00:00Z", out["timestamp"])
	})

	t.Run("missing client name", func(t *testing.T) {
		_, err := DecodeStatusCheck(map[string]any{"id": "x"}, opts...)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("bad timestamp", func(t *testing.T) {
		_, err := DecodeStatusCheck(map[string]any{
			"client_name": "acme",
			"timestamp":   "yesterday",
		}, opts...)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("parse from json", func(t *testing.T) {
		sc, err := ParseStatusCheck([]byte(`{"client_name":"acme"}`), opts...)
		require.NoError(t, err)
		assert.Equal(t, "fixed-id", sc.ID)
		assert.Equal(t, "acme", sc.ClientName)
		assert.Equal(t, fixed, sc.Timestamp)

		_, err = ParseStatusCheck([]byte(`{"client_name":`), opts...)
		require.Error(t, err)
	})
}

func TestDecodeStatusCheckCreate_RejectsExtras(t *testing.T) {
	_, err := DecodeStatusCheckCreate(map[string]any{"client_name": "acme", "x": 1})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestTypedValidate(t *testing.T) {
	req := BrandEvaluationRequest{
		BrandNames:  []string{"Zynth"},
		Category:    "Tech",
		Positioning: PositioningMass,
		MarketScope: MarketScopeSingleCountry,
		Countries:   []string{},
	}
	require.NoError(t, req.Validate())

	req.Positioning = "Luxury"
	require.Error(t, req.Validate())

	req.Positioning = PositioningMass
	req.BrandNames = nil
	require.Error(t, req.Validate())
}

func TestTypedValidateTreatsNilCollectionsAsEmpty(t *testing.T) {
	req := BrandEvaluationRequest{
		BrandNames:  []string{"Zynth"},
		Category:    "Tech",
		Positioning: PositioningMass,
		MarketScope: MarketScopeGlobal,
	}
	require.NoError(t, req.Validate())
	assert.Nil(t, req.Countries, "caller's record is not modified")

	score := BrandScore{
		BrandName: "Zynth",
		Namescore: 70,
		Verdict:   VerdictGo,
		TrademarkMatrix: TrademarkRiskMatrix{
			Genericness:           TrademarkRiskRow{Zone: ZoneGreen},
			ExistingConflicts:     TrademarkRiskRow{Zone: ZoneGreen},
			PhoneticSimilarity:    TrademarkRiskRow{Zone: ZoneGreen},
			RelevantClasses:       TrademarkRiskRow{Zone: ZoneGreen},
			RebrandingProbability: TrademarkRiskRow{Zone: ZoneGreen},
		},
		DomainAnalysis: DomainAnalysis{Alternatives: []map[string]string{nil}},
	}
	require.NoError(t, score.Validate())
	assert.Nil(t, score.DomainAnalysis.Alternatives[0], "shared slices are copied, not filled in place")

	out, err := Serialize(score)
	require.NoError(t, err)
	assert.Equal(t, []any{}, out["pros"])
	assert.Equal(t, []any{}, out["dimensions"])
	assert.Equal(t, map[string]any{}, out["trademark_risk"])
	assert.Equal(t, []any{}, out["cultural_analysis"])
	assert.Nil(t, out["competitor_analysis"])

	rendered, err := MarshalIndent(req)
	require.NoError(t, err)
	assert.Contains(t, string(rendered), `"countries": []`)
}

func TestValidationListsOnlyFieldViolations(t *testing.T) {
	raw := loadFixture(t, "response.json")
	score := raw["brand_scores"].([]any)[0].(map[string]any)
	score["verdict"] = "MAYBE"

	_, err := DecodeBrandEvaluationResponse(raw)
	require.Error(t, err)
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	require.NotEmpty(t, ve.Violations)
	for _, v := range ve.Violations {
		assert.NotContains(t, v.Message, "doesn't validate with")
	}
	assert.Contains(t, ve.Fields(), "/brand_scores/0/verdict")
}

func TestLeafViolations(t *testing.T) {
	diags := []gfschema.Diagnostic{
		{Pointer: "", Message: "doesn't validate with memory://schema.json#"},
		{Pointer: "", Message: "doesn't validate with '/$defs/BrandScore'"},
		{Pointer: "/verdict", Message: "value must be one of \"GO\""},
	}
	assert.Equal(t, []FieldViolation{{Field: "/verdict", Message: "value must be one of \"GO\""}}, leafViolations(diags))

	wrappersOnly := diags[:1]
	assert.Len(t, leafViolations(wrappersOnly), 1, "wrappers are kept when nothing else explains the failure")
}

func TestEnumValid(t *testing.T) {
	assert.True(t, VerdictConditionalGo.Valid())
	assert.False(t, Verdict("MAYBE").Valid())
	assert.True(t, ZoneRed.Valid())
	assert.False(t, Zone("Blue").Valid())
	assert.True(t, PositioningUltraPremium.Valid())
	assert.False(t, Positioning("Luxury").Valid())
	assert.True(t, MarketScopeMultiCountry.Valid())
	assert.False(t, MarketScope("Local").Valid())
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{
		Record: RecordBrandScore,
		Violations: []FieldViolation{
			{Field: "/verdict", Message: "value must be one of GO, NO-GO"},
			{Field: "", Message: "missing properties: summary"},
		},
	}
	assert.Equal(t, "invalid BrandScore: /verdict: value must be one of GO, NO-GO; /: missing properties: summary", err.Error())
	assert.Equal(t, []string{"/verdict", ""}, err.Fields())
}

func TestRecordSchema(t *testing.T) {
	doc, err := RecordSchema(RecordBrandEvaluationResponse)
	require.NoError(t, err)
	assert.Equal(t, "#/$defs/BrandEvaluationResponse", doc["$ref"])

	_, err = RecordSchema("Nope")
	require.Error(t, err)
}
