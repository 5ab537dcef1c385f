package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"

	"github.com/namelens/brandlens/internal/output"
)

var extended bool

type versionReport struct {
	Binary    string `json:"binary"`
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	Go        string `json:"go,omitempty"`
	Gofulmen  string `json:"gofulmen,omitempty"`
	Crucible  string `json:"crucible,omitempty"`
}

func buildVersionReport(binary string, full bool) versionReport {
	report := versionReport{Binary: binary, Version: versionInfo.Version}
	if !full {
		return report
	}
	report.Commit = versionInfo.Commit
	report.BuildDate = versionInfo.BuildDate
	report.Go = runtime.Version()
	v := crucible.GetVersion()
	report.Gofulmen = v.Gofulmen
	report.Crucible = v.Crucible
	return report
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for full details including Crucible and Go versions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		binary := rootCmd.Name()
		if identity := GetAppIdentity(); identity != nil {
			binary = identity.BinaryName
		}
		report := buildVersionReport(binary, extended)

		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}
		if format == output.FormatJSON {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			return writeOutput(cmd, string(data))
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%s %s\n", report.Binary, report.Version)
		if extended {
			fmt.Fprintf(&b, "Commit: %s\n", report.Commit)
			fmt.Fprintf(&b, "Built: %s\n", report.BuildDate)
			fmt.Fprintf(&b, "Go: %s\n\n", report.Go)
			fmt.Fprintf(&b, "Gofulmen: %s\n", report.Gofulmen)
			fmt.Fprintf(&b, "Crucible: %s\n", report.Crucible)
		}
		return writeOutput(cmd, b.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
	addOutputFlags(versionCmd)
}
