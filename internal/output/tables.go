package output

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/namelens/brandlens/internal/schema"
	"github.com/namelens/brandlens/internal/store"
)

// The builders below are shared by the table and markdown formatters; the
// caller picks Render or RenderMarkdown.

func summaryTable(resp *schema.BrandEvaluationResponse) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Brand", "Verdict", "Namescore", "Classification"})
	for _, score := range resp.BrandScores {
		t.AppendRow(table.Row{
			score.BrandName,
			verdictLabel(score.Verdict),
			formatScore(score.Namescore),
			score.StrategicClassification,
		})
	}
	return t
}

func dimensionTable(dims []schema.DimensionScore) (table.Writer, bool) {
	if len(dims) == 0 {
		return nil, false
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Dimension", "Score", "Reasoning"})
	for _, d := range dims {
		t.AppendRow(table.Row{d.Name, formatScore(d.Score), d.Reasoning})
	}
	return t, true
}

func matrixTable(m schema.TrademarkRiskMatrix) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Factor", "Likelihood", "Severity", "Zone", "Commentary"})
	for _, named := range m.Rows() {
		t.AppendRow(table.Row{
			riskLabel(named.Key),
			named.Row.Likelihood,
			named.Row.Severity,
			string(named.Row.Zone),
			named.Row.Commentary,
		})
	}
	if s := strings.TrimSpace(m.OverallAssessment); s != "" {
		t.AppendFooter(table.Row{"Overall", "", "", "", s})
	}
	return t
}

func culturalTable(countries []schema.CountryAnalysis) (table.Writer, bool) {
	if len(countries) == 0 {
		return nil, false
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Country", "Resonance", "Notes", "Linguistic Check"})
	for _, c := range countries {
		t.AppendRow(table.Row{c.Country, formatScore(c.CulturalResonanceScore), c.CulturalNotes, c.LinguisticCheck})
	}
	return t, true
}

func statusTable(checks []schema.StatusCheck) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"ID", "Client", "Timestamp"})
	for _, sc := range checks {
		t.AppendRow(table.Row{sc.ID, sc.ClientName, timestampLabel(sc.Timestamp)})
	}
	return t
}

func historyTable(entries []store.EvaluationSummary) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"ID", "Names", "Category", "Positioning", "Scope", "Created"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.ID,
			strings.Join(e.BrandNames, ", "),
			e.Category,
			e.Positioning,
			e.MarketScope,
			timestampLabel(e.CreatedAt),
		})
	}
	return t
}
