package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namelens/brandlens/internal/metrics"
	"github.com/namelens/brandlens/internal/observability"
	"github.com/namelens/brandlens/internal/output"
	"github.com/namelens/brandlens/internal/schema"
	"github.com/namelens/brandlens/internal/store"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Record and list client status checks",
}

var statusCreateCmd = &cobra.Command{
	Use:   "create <client-name>",
	Short: "Record a status check",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}

		in, err := schema.DecodeStatusCheckCreate(map[string]any{"client_name": args[0]})
		if err != nil {
			return err
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() // nolint:errcheck // best-effort cleanup

		sc := schema.NewStatusCheck(in)
		if err := st.CreateStatusCheck(ctx, sc); err != nil {
			return err
		}
		metrics.RecordStatusCheck()
		observability.CLILogger.Debug("Status check recorded",
			zap.String("id", sc.ID),
			zap.String("client_name", sc.ClientName))

		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}
		if format == output.FormatTable {
			return writeOutput(cmd, fmt.Sprintf("%s %s %s", sc.ID, sc.ClientName, sc.Timestamp.Format("2006-01-02T15:04:05.000Z07:00")))
		}
		rendered, err := output.NewFormatter(format).FormatStatusChecks([]schema.StatusCheck{sc})
		if err != nil {
			return err
		}
		return writeOutput(cmd, rendered)
	},
}

var statusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded status checks",
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

		checks, err := st.ListStatusChecks(ctx, statusLimit)
		if err != nil {
			return err
		}
		rendered, err := output.NewFormatter(format).FormatStatusChecks(checks)
		if err != nil {
			return err
		}
		return writeOutput(cmd, rendered)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.AddCommand(statusCreateCmd)
	statusCmd.AddCommand(statusListCmd)

	addOutputFlags(statusCreateCmd)
	addOutputFlags(statusListCmd)
	statusListCmd.Flags().IntVar(&statusLimit, "limit", store.DefaultStatusLimit, "maximum number of checks to list")
}
