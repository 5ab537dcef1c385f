package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namelens/brandlens/internal/evaluate"
	"github.com/namelens/brandlens/internal/observability"
	"github.com/namelens/brandlens/internal/output"
	"github.com/namelens/brandlens/internal/store"
)

var (
	evalFlags     requestFlags
	evalNoCache   bool
	evalVerify    bool
	evalNoHistory bool
	evalModel     string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate candidate brand names",
	Long: `Score candidate brand names for a category, positioning and market.

Examples:
  brandlens evaluate --name Zynth --name Kavo --category Tech --positioning Premium --scope Global
  brandlens evaluate --name Zynth,Kavo --country USA --country India --output markdown
  brandlens evaluate --input request.json --output json --out result.json`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	overrides := map[string]any{}
	if evalModel != "" {
		overrides["evaluation"] = map[string]any{"model": evalModel}
	}
	cfg, err := loadConfig(ctx, overrides)
	if err != nil {
		return err
	}

	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}

	req, err := buildRequest(cmd, evalFlags, cfg.Evaluation)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		// History and cache are optional for a one-off evaluation.
		observability.CLILogger.Warn("Store unavailable; continuing without cache and history",
			zap.String("store", describeStore(cfg.Store)),
			zap.Error(err))
		st = nil
	} else {
		defer st.Close() // nolint:errcheck // best-effort cleanup
	}

	svc, err := buildEvaluator(cfg, st)
	if err != nil {
		return err
	}
	if evalNoHistory && svc.Store != nil {
		svc.Store = historylessStore{svc.Store}
	}

	run := evaluate.RunOptions{NoCache: evalNoCache}
	if cmd.Flags().Changed("verify-domains") {
		run.VerifyDomains = &evalVerify
	}

	result, err := svc.Run(ctx, req, run)
	if err != nil {
		return err
	}

	rendered, err := output.NewFormatter(format).FormatEvaluation(result.Response)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd, rendered); err != nil {
		return err
	}

	if result.ID != "" && !evalNoHistory {
		fmt.Fprintf(os.Stderr, "Saved as %s%s\n", result.ID, cachedNote(result.Cached))
	}
	return nil
}

func cachedNote(cached bool) string {
	if cached {
		return " (from cache)"
	}
	return ""
}

// historylessStore keeps the evaluation cache but drops history writes.
type historylessStore struct {
	evaluate.Store
}

func (h historylessStore) SaveEvaluation(ctx context.Context, ev store.Evaluation) error {
	return nil
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	f := evaluateCmd.Flags()
	f.StringSliceVarP(&evalFlags.names, "name", "n", nil, "candidate brand name (repeatable or comma separated)")
	f.StringVar(&evalFlags.category, "category", "", "product category (default from evaluation.default_category)")
	f.StringVar(&evalFlags.positioning, "positioning", "", "Mass, Premium, or Ultra-Premium")
	f.StringVar(&evalFlags.scope, "scope", "", "Single Country, Multi-Country, or Global")
	f.StringSliceVar(&evalFlags.countries, "country", nil, "target country (repeatable or comma separated)")
	f.StringVarP(&evalFlags.input, "input", "i", "", "read the request from a JSON file (- for stdin)")
	f.BoolVar(&evalNoCache, "no-cache", false, "bypass the evaluation cache")
	f.BoolVar(&evalVerify, "verify-domains", false, "verify exact-match domains over RDAP")
	f.BoolVar(&evalNoHistory, "no-history", false, "do not record the evaluation in history")
	f.StringVar(&evalModel, "model", "", "override the provider model")
	addOutputFlags(evaluateCmd)
}
