package output

import (
	"fmt"
	"strings"

	"github.com/namelens/brandlens/internal/schema"
	"github.com/namelens/brandlens/internal/store"
)

// MarkdownFormatter renders results as Markdown tables.
type MarkdownFormatter struct{}

// FormatEvaluation renders a response as a Markdown report.
func (f *MarkdownFormatter) FormatEvaluation(resp *schema.BrandEvaluationResponse) (string, error) {
	if resp == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("## Brand evaluation\n\n")
	if s := strings.TrimSpace(resp.ExecutiveSummary); s != "" {
		sb.WriteString(s)
		sb.WriteString("\n\n")
	}
	sb.WriteString(summaryTable(resp).RenderMarkdown())
	sb.WriteString("\n")

	for _, score := range resp.BrandScores {
		sb.WriteString(fmt.Sprintf("\n### %s\n", escapeMarkdownCell(score.BrandName)))
		sb.WriteString(renderAnalysisSections(brandSections(score), true))
		if t, ok := dimensionTable(score.Dimensions); ok {
			sb.WriteString("\n#### Dimensions\n\n")
			sb.WriteString(t.RenderMarkdown())
			sb.WriteString("\n")
		}
		sb.WriteString("\n#### Trademark Matrix\n\n")
		sb.WriteString(matrixTable(score.TrademarkMatrix).RenderMarkdown())
		sb.WriteString("\n")
		if t, ok := culturalTable(score.CulturalAnalysis); ok {
			sb.WriteString("\n#### Cultural Analysis\n\n")
			sb.WriteString(t.RenderMarkdown())
			sb.WriteString("\n")
		}
	}

	if s := strings.TrimSpace(resp.ComparisonVerdict); s != "" {
		sb.WriteString(fmt.Sprintf("\n**Verdict**: %s\n", s))
	}
	return sb.String(), nil
}

func (f *MarkdownFormatter) FormatStatusChecks(checks []schema.StatusCheck) (string, error) {
	return statusTable(checks).RenderMarkdown() + "\n", nil
}

func (f *MarkdownFormatter) FormatHistory(entries []store.EvaluationSummary) (string, error) {
	return historyTable(entries).RenderMarkdown() + "\n", nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
