package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/namelens/brandlens/internal/config"
	"github.com/namelens/brandlens/internal/schema"
)

// requestFlags are the evaluate flags that build a request.
type requestFlags struct {
	names       []string
	category    string
	positioning string
	scope       string
	countries   []string
	input       string
}

// buildRequest assembles a BrandEvaluationRequest either from an --input
// JSON document or from flags, falling back to configured defaults for
// omitted fields. Both paths go through schema validation.
func buildRequest(cmd *cobra.Command, flags requestFlags, defaults config.EvaluationConfig) (schema.BrandEvaluationRequest, error) {
	if path := strings.TrimSpace(flags.input); path != "" {
		if len(flags.names) > 0 {
			return schema.BrandEvaluationRequest{}, fmt.Errorf("cannot combine --name with --input")
		}
		data, err := readInput(path)
		if err != nil {
			return schema.BrandEvaluationRequest{}, err
		}
		return schema.ParseBrandEvaluationRequest(data)
	}

	names := splitList(flags.names)
	if len(names) == 0 {
		return schema.BrandEvaluationRequest{}, fmt.Errorf("at least one --name is required")
	}

	raw := map[string]any{
		"brand_names":  names,
		"category":     firstNonEmpty(flags.category, defaults.DefaultCategory),
		"positioning":  firstNonEmpty(flags.positioning, defaults.DefaultPositioning),
		"market_scope": firstNonEmpty(flags.scope, defaults.DefaultMarketScope),
	}
	countries := splitList(flags.countries)
	if !cmd.Flags().Changed("country") {
		countries = splitList(defaults.DefaultCountries)
	}
	raw["countries"] = countries

	return schema.DecodeBrandEvaluationRequest(raw)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied input path
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// splitList flattens repeated and comma-separated flag values, preserving
// order and dropping blanks.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
