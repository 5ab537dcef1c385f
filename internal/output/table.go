package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/namelens/brandlens/internal/schema"
	"github.com/namelens/brandlens/internal/store"
)

// TableFormatter renders results as ASCII tables.
type TableFormatter struct{}

// FormatEvaluation renders a summary table followed by a detail block per
// brand, in response order.
func (f *TableFormatter) FormatEvaluation(resp *schema.BrandEvaluationResponse) (string, error) {
	if resp == nil {
		return "", nil
	}

	var sb strings.Builder
	if s := strings.TrimSpace(resp.ExecutiveSummary); s != "" {
		sb.WriteString(s)
		sb.WriteString("\n\n")
	}
	sb.WriteString(render(summaryTable(resp)))

	for _, score := range resp.BrandScores {
		sb.WriteString(fmt.Sprintf("\n\n== %s ==\n", score.BrandName))
		sb.WriteString(renderAnalysisSections(brandSections(score), false))
		if t, ok := dimensionTable(score.Dimensions); ok {
			sb.WriteString("\n")
			sb.WriteString(render(t))
		}
		sb.WriteString("\n")
		sb.WriteString(render(matrixTable(score.TrademarkMatrix)))
		if t, ok := culturalTable(score.CulturalAnalysis); ok {
			sb.WriteString("\n")
			sb.WriteString(render(t))
		}
	}

	if s := strings.TrimSpace(resp.ComparisonVerdict); s != "" {
		sb.WriteString("\n\nVerdict: ")
		sb.WriteString(s)
	}
	sb.WriteString("\n")
	return sb.String(), nil
}

func (f *TableFormatter) FormatStatusChecks(checks []schema.StatusCheck) (string, error) {
	if len(checks) == 0 {
		return "no status checks recorded\n", nil
	}
	return render(statusTable(checks)) + "\n", nil
}

func (f *TableFormatter) FormatHistory(entries []store.EvaluationSummary) (string, error) {
	if len(entries) == 0 {
		return "no evaluations recorded\n", nil
	}
	return render(historyTable(entries)) + "\n", nil
}

func render(t table.Writer) string {
	t.SetStyle(table.StyleRounded)
	return t.Render()
}
