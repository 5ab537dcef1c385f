package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/namelens/brandlens/internal/output"
	"github.com/namelens/brandlens/internal/schema"
	"github.com/namelens/brandlens/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect stored evaluations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent evaluations, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() // nolint:errcheck // best-effort cleanup

		entries, err := st.ListEvaluations(ctx, historyLimit)
		if err != nil {
			return err
		}
		rendered, err := output.NewFormatter(format).FormatHistory(entries)
		if err != nil {
			return err
		}
		return writeOutput(cmd, rendered)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>...",
	Short: "Show stored evaluations",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() // nolint:errcheck // best-effort cleanup

		evaluations := make([]*store.Evaluation, 0, len(args))
		for _, id := range args {
			ev, err := st.GetEvaluation(ctx, id)
			if err != nil {
				return fmt.Errorf("evaluation %s: %w", id, err)
			}
			evaluations = append(evaluations, ev)
		}

		// JSON keeps the stored request and metadata; other formats render
		// the responses only.
		if format == output.FormatJSON {
			var payload any = evaluations
			if len(evaluations) == 1 {
				payload = evaluations[0]
			}
			data, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return err
			}
			return writeOutput(cmd, string(data))
		}

		responses := make([]*schema.BrandEvaluationResponse, 0, len(evaluations))
		for _, ev := range evaluations {
			resp := ev.Response
			responses = append(responses, &resp)
		}
		rendered, err := output.FormatEvaluationList(format, responses)
		if err != nil {
			return err
		}
		return writeOutput(cmd, rendered)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)

	addOutputFlags(historyListCmd)
	addOutputFlags(historyShowCmd)
	historyListCmd.Flags().IntVar(&historyLimit, "limit", store.DefaultHistoryLimit, "maximum number of evaluations to list")
}
