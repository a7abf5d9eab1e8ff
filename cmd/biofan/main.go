// Command biofan fans biomedical research questions out to public data
// sources and reports normalized, cross-referenced results.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/henrybloomingdale/biofan/internal/output"
)

var (
	flagJSON     bool
	flagHuman    bool
	flagTables   string
	flagQuality  string
	flagRIS      string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "biofan",
	Short: "Biomedical research fan-out CLI",
	Long: `Query PubChem, ChEMBL, UniProt, PubMed, EuropePMC, OpenAlex and ClinicalTrials.gov,
normalize the results into one record schema, resolve identities across sources,
and report coverage metrics or ranked answer cards.

Configuration is read from BIOFAN_* environment variables (and a .env file).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateGlobalFlags(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as structured JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagHuman, "human", "H", false, "Rich colorful terminal output")
	rootCmd.PersistentFlags().StringVar(&flagTables, "tables", "", "Write CSV tables into this directory (research only)")
	rootCmd.PersistentFlags().StringVar(&flagQuality, "quality", "", "Write the Markdown quality report to this file (research only)")
	rootCmd.PersistentFlags().StringVar(&flagRIS, "ris", "", "Export literature to an RIS file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Override BIOFAN_LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scheduleCmd)
}

// validateGlobalFlags rejects output flags on commands that cannot honor
// them.
func validateGlobalFlags(cmd *cobra.Command) error {
	if flagJSON && flagHuman {
		return fmt.Errorf("--json and --human are mutually exclusive")
	}
	name := cmd.Name()
	if (flagTables != "" || flagQuality != "") && name != "research" {
		return fmt.Errorf("--tables and --quality are only supported by research")
	}
	if flagRIS != "" && name != "research" && name != "answer" {
		return fmt.Errorf("--ris is only supported by research and answer")
	}
	switch strings.ToLower(flagLogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level %q", flagLogLevel)
	}
	return nil
}

func outputCfg() output.OutputConfig {
	return output.OutputConfig{
		JSON:        flagJSON,
		Human:       flagHuman,
		TablesDir:   flagTables,
		QualityFile: flagQuality,
		RISFile:     flagRIS,
	}
}

// interactive reports whether progress lines should go to stderr.
func interactive() bool {
	return !flagJSON && isatty.IsTerminal(os.Stderr.Fd())
}

// splitList flattens repeated and comma-separated flag values, dropping
// blanks and exact duplicates.
func splitList(values []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	return out
}
