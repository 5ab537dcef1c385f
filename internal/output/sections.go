package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/namelens/brandlens/internal/schema"
)

type analysisSection struct {
	Title string
	Lines []string
}

// brandSections summarizes the prose parts of a score. Tabular parts
// (dimensions, trademark matrix, cultural fit) are rendered by the formatter.
func brandSections(score schema.BrandScore) []analysisSection {
	sections := make([]analysisSection, 0, 4)

	overview := make([]string, 0, 4)
	if s := strings.TrimSpace(score.Summary); s != "" {
		overview = append(overview, s)
	}
	overview = append(overview,
		"Pros: "+joinOr(score.Pros, "none listed"),
		"Cons: "+joinOr(score.Cons, "none listed"),
	)
	if fit := strings.TrimSpace(score.PositioningFit); fit != "" {
		overview = append(overview, "Positioning fit: "+fit)
	}
	sections = append(sections, analysisSection{Title: "Overview", Lines: overview})

	if section, ok := domainSection(score.DomainAnalysis); ok {
		sections = append(sections, section)
	}
	if section, ok := riskSection(score.TrademarkRisk); ok {
		sections = append(sections, section)
	}
	if section, ok := competitorSection(score.CompetitorAnalysis); ok {
		sections = append(sections, section)
	}
	return sections
}

func domainSection(d schema.DomainAnalysis) (analysisSection, bool) {
	lines := make([]string, 0, 3)
	if s := strings.TrimSpace(d.ExactMatchStatus); s != "" {
		lines = append(lines, "Exact match: "+s)
	}
	if len(d.Alternatives) > 0 {
		alts := make([]string, 0, len(d.Alternatives))
		for _, alt := range d.Alternatives {
			if label := alternativeLabel(alt); label != "" {
				alts = append(alts, label)
			}
		}
		lines = append(lines, "Alternatives: "+joinOr(alts, "none"))
	}
	if s := strings.TrimSpace(d.StrategyNote); s != "" {
		lines = append(lines, "Strategy: "+s)
	}
	if len(lines) == 0 {
		return analysisSection{}, false
	}
	return analysisSection{Title: "Domain Analysis", Lines: lines}, true
}

func riskSection(levels map[string]string) (analysisSection, bool) {
	if len(levels) == 0 {
		return analysisSection{}, false
	}

	keys := make([]string, 0, len(levels))
	for key := range levels {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", riskLabel(key), strings.TrimSpace(levels[key])))
	}
	return analysisSection{Title: "Trademark Risk", Lines: lines}, true
}

func competitorSection(c *schema.CompetitorAnalysis) (analysisSection, bool) {
	if c == nil {
		return analysisSection{}, false
	}

	lines := make([]string, 0, len(c.Competitors)+3)
	for _, comp := range c.Competitors {
		line := comp.Name
		if p := strings.TrimSpace(comp.Positioning); p != "" {
			line += " - " + p
		}
		if price := strings.TrimSpace(comp.PriceRange); price != "" {
			line += fmt.Sprintf(" [%s]", price)
		}
		lines = append(lines, line)
	}
	if s := strings.TrimSpace(c.WhiteSpaceAnalysis); s != "" {
		lines = append(lines, "White space: "+s)
	}
	if s := strings.TrimSpace(c.StrategicAdvantage); s != "" {
		lines = append(lines, "Advantage: "+s)
	}
	if s := strings.TrimSpace(c.SuggestedPricing); s != "" {
		lines = append(lines, "Suggested pricing: "+s)
	}
	if len(lines) == 0 {
		return analysisSection{}, false
	}
	return analysisSection{Title: "Competitors", Lines: lines}, true
}

func renderAnalysisSections(sections []analysisSection, markdown bool) string {
	if len(sections) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, section := range sections {
		if i > 0 {
			sb.WriteString("\n")
		}
		if markdown {
			sb.WriteString(fmt.Sprintf("\n#### %s\n", section.Title))
			for _, line := range section.Lines {
				sb.WriteString(fmt.Sprintf("- %s\n", line))
			}
		} else {
			sb.WriteString(fmt.Sprintf("\n%s:\n", section.Title))
			for _, line := range section.Lines {
				sb.WriteString(fmt.Sprintf("  %s\n", line))
			}
		}
	}
	return sb.String()
}
