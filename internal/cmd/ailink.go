package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/namelens/brandlens/internal/ailink"
	"github.com/namelens/brandlens/internal/evaluate"
)

var ailinkCmd = &cobra.Command{
	Use:   "ailink",
	Short: "Inspect prompts and provider routing",
}

var ailinkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available prompts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}

		registry, err := buildPromptRegistry(cfg)
		if err != nil {
			return err
		}

		prompts := registry.List()
		if len(prompts) == 0 {
			return writeOutput(cmd, "No prompts found.")
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Slug", "Version", "Schema", "Source", "Description"})
		for _, p := range prompts {
			if p == nil {
				continue
			}
			t.AppendRow(table.Row{p.Config.Slug, p.Config.Version, p.SchemaRef(), p.Source, p.Config.Description})
		}
		return writeOutput(cmd, t.Render())
	},
}

var ailinkShowCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Print a prompt's templates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}

		registry, err := buildPromptRegistry(cfg)
		if err != nil {
			return err
		}
		p, err := registry.Get(args[0])
		if err != nil {
			return err
		}

		var b strings.Builder
		fmt.Fprintf(&b, "# %s (%s)\n", p.Config.Slug, p.Source)
		if p.Config.Version != "" {
			fmt.Fprintf(&b, "version: %s\n", p.Config.Version)
		}
		if ref := p.SchemaRef(); ref != "" {
			fmt.Fprintf(&b, "response schema: %s\n", ref)
		}
		if vars := p.Config.Input.RequiredVariables; len(vars) > 0 {
			fmt.Fprintf(&b, "required variables: %s\n", strings.Join(vars, ", "))
		}
		fmt.Fprintf(&b, "\n## System\n\n%s\n", strings.TrimSpace(p.Config.SystemTemplate))
		if user := strings.TrimSpace(p.Config.UserTemplate); user != "" {
			fmt.Fprintf(&b, "\n## User\n\n%s\n", user)
		}
		return writeOutput(cmd, b.String())
	},
}

var ailinkResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show which provider answers the evaluation role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}

		prompts, err := buildPromptRegistry(cfg)
		if err != nil {
			return err
		}
		slug := firstNonEmpty(cfg.Evaluation.Prompt, evaluate.DefaultPrompt)
		role := firstNonEmpty(cfg.Evaluation.Role, slug)
		def, err := prompts.Get(slug)
		if err != nil {
			return err
		}

		providers := ailink.NewRegistry(cfg.AILink)
		primary, err := providers.Resolve(role, def, cfg.Evaluation.Model)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.SetTitle(fmt.Sprintf("role %s, prompt %s, via %s", role, slug, routingSource(cfg.AILink, role)))
		t.AppendHeader(table.Row{"Order", "Provider", "Driver", "Model", "Base URL", "Credential"})
		rows := append([]*ailink.ResolvedProvider{primary}, providers.ResolveFallbacks(role, def, cfg.Evaluation.Model)...)
		for i, rp := range rows {
			order := "primary"
			if i > 0 {
				order = fmt.Sprintf("fallback %d", i)
			}
			t.AppendRow(table.Row{order, rp.ProviderID, rp.Provider.AIProvider, rp.Model, rp.BaseURL, credentialLabel(rp.Credential)})
		}
		return writeOutput(cmd, t.Render())
	},
}

// credentialLabel never exposes the key itself.
func credentialLabel(c ailink.CredentialConfig) string {
	if c.Label != "" {
		return c.Label
	}
	if c.APIKey == "" {
		return "(none)"
	}
	return "(unlabelled)"
}

func init() {
	rootCmd.AddCommand(ailinkCmd)
	ailinkCmd.AddCommand(ailinkListCmd)
	ailinkCmd.AddCommand(ailinkShowCmd)
	ailinkCmd.AddCommand(ailinkResolveCmd)

	for _, c := range []*cobra.Command{ailinkListCmd, ailinkShowCmd, ailinkResolveCmd} {
		c.Flags().String("out", "", "write output to a file instead of stdout")
	}
}
