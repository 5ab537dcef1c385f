// Package schema defines the data contracts of the brand evaluation service:
// the evaluation request, the per-candidate analysis records, the evaluation
// response, and the status-check health records.
//
// Every record is validated on construction. Untyped input (decoded JSON) is
// checked against an embedded JSON Schema and then decoded into the typed
// record; violations surface as a single *ValidationError.
package schema

import "time"

// Verdict is the overall recommendation for a candidate name.
type Verdict string

const (
	VerdictGo            Verdict = "GO"
	VerdictConditionalGo Verdict = "CONDITIONAL GO"
	VerdictNoGo          Verdict = "NO-GO"
	VerdictReject        Verdict = "REJECT"
)

// Valid reports whether v is one of the defined verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictGo, VerdictConditionalGo, VerdictNoGo, VerdictReject:
		return true
	}
	return false
}

// Zone is the traffic-light rating of a trademark risk row.
type Zone string

const (
	ZoneGreen  Zone = "Green"
	ZoneYellow Zone = "Yellow"
	ZoneRed    Zone = "Red"
)

func (z Zone) Valid() bool {
	switch z {
	case ZoneGreen, ZoneYellow, ZoneRed:
		return true
	}
	return false
}

// Positioning is the price tier the brand targets.
type Positioning string

const (
	PositioningMass         Positioning = "Mass"
	PositioningPremium      Positioning = "Premium"
	PositioningUltraPremium Positioning = "Ultra-Premium"
)

func (p Positioning) Valid() bool {
	switch p {
	case PositioningMass, PositioningPremium, PositioningUltraPremium:
		return true
	}
	return false
}

// MarketScope is the geographic reach of the launch.
type MarketScope string

const (
	MarketScopeSingleCountry MarketScope = "Single Country"
	MarketScopeMultiCountry  MarketScope = "Multi-Country"
	MarketScopeGlobal        MarketScope = "Global"
)

func (m MarketScope) Valid() bool {
	switch m {
	case MarketScopeSingleCountry, MarketScopeMultiCountry, MarketScopeGlobal:
		return true
	}
	return false
}

// DimensionScore is one scored evaluation axis, e.g. "Memorability".
type DimensionScore struct {
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// TrademarkRiskRow is one factor of the trademark risk matrix.
type TrademarkRiskRow struct {
	Likelihood int    `json:"likelihood"`
	Severity   int    `json:"severity"`
	Zone       Zone   `json:"zone"`
	Commentary string `json:"commentary"`
}

// TrademarkRiskMatrix holds the five fixed risk factors. All five rows are
// required.
type TrademarkRiskMatrix struct {
	Genericness           TrademarkRiskRow `json:"genericness"`
	ExistingConflicts     TrademarkRiskRow `json:"existing_conflicts"`
	PhoneticSimilarity    TrademarkRiskRow `json:"phonetic_similarity"`
	RelevantClasses       TrademarkRiskRow `json:"relevant_classes"`
	RebrandingProbability TrademarkRiskRow `json:"rebranding_probability"`
	OverallAssessment     string           `json:"overall_assessment"`
}

// Rows returns the matrix factors in display order, keyed by field name.
func (m TrademarkRiskMatrix) Rows() []NamedRiskRow {
	return []NamedRiskRow{
		{Key: "genericness", Row: m.Genericness},
		{Key: "existing_conflicts", Row: m.ExistingConflicts},
		{Key: "phonetic_similarity", Row: m.PhoneticSimilarity},
		{Key: "relevant_classes", Row: m.RelevantClasses},
		{Key: "rebranding_probability", Row: m.RebrandingProbability},
	}
}

// NamedRiskRow pairs a matrix row with its field name.
type NamedRiskRow struct {
	Key string
	Row TrademarkRiskRow
}

// DomainAnalysis covers exact-match availability and suggested alternatives.
// Alternatives conventionally carry "domain" and "example" keys.
type DomainAnalysis struct {
	ExactMatchStatus string              `json:"exact_match_status"`
	Alternatives     []map[string]string `json:"alternatives"`
	StrategyNote     string              `json:"strategy_note"`
}

// CountryAnalysis is the cultural fit of a name in one market.
type CountryAnalysis struct {
	Country                string  `json:"country"`
	CulturalResonanceScore float64 `json:"cultural_resonance_score"`
	CulturalNotes          string  `json:"cultural_notes"`
	LinguisticCheck        string  `json:"linguistic_check"`
}

type Competitor struct {
	Name        string `json:"name"`
	Positioning string `json:"positioning"`
	PriceRange  string `json:"price_range"`
}

type CompetitorAnalysis struct {
	Competitors        []Competitor `json:"competitors"`
	WhiteSpaceAnalysis string       `json:"white_space_analysis"`
	StrategicAdvantage string       `json:"strategic_advantage"`
	SuggestedPricing   string       `json:"suggested_pricing"`
}

// BrandScore is the full analysis of one candidate name. Namescore is not
// derived from Dimensions and the two are not checked for consistency.
// A nil CompetitorAnalysis serializes as null.
type BrandScore struct {
	BrandName               string              `json:"brand_name"`
	Namescore               float64             `json:"namescore"`
	Verdict                 Verdict             `json:"verdict"`
	Summary                 string              `json:"summary"`
	StrategicClassification string              `json:"strategic_classification"`
	Pros                    []string            `json:"pros"`
	Cons                    []string            `json:"cons"`
	Dimensions              []DimensionScore    `json:"dimensions"`
	TrademarkRisk           map[string]string   `json:"trademark_risk"`
	TrademarkMatrix         TrademarkRiskMatrix `json:"trademark_matrix"`
	DomainAnalysis          DomainAnalysis      `json:"domain_analysis"`
	CulturalAnalysis        []CountryAnalysis   `json:"cultural_analysis"`
	CompetitorAnalysis      *CompetitorAnalysis `json:"competitor_analysis"`
	PositioningFit          string              `json:"positioning_fit"`
}

// BrandEvaluationRequest is the caller's ask: candidate names plus market
// context.
type BrandEvaluationRequest struct {
	BrandNames  []string    `json:"brand_names"`
	Category    string      `json:"category"`
	Positioning Positioning `json:"positioning"`
	MarketScope MarketScope `json:"market_scope"`
	Countries   []string    `json:"countries"`
}

// BrandEvaluationResponse is the evaluation result for a request.
type BrandEvaluationResponse struct {
	ExecutiveSummary  string       `json:"executive_summary"`
	BrandScores       []BrandScore `json:"brand_scores"`
	ComparisonVerdict string       `json:"comparison_verdict"`
}

// StatusCheck is a liveness record written by a client. ID and Timestamp are
// generated when absent; Timestamp is always UTC.
type StatusCheck struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	Timestamp  time.Time `json:"timestamp"`
}

// StatusCheckCreate is the write-only input for a StatusCheck.
type StatusCheckCreate struct {
	ClientName string `json:"client_name"`
}
