package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/henrybloomingdale/biofan/internal/normalize"
	"github.com/henrybloomingdale/biofan/internal/output"
)

var (
	normalizeFlagArgs []string
	normalizeFlagList bool
)

func init() {
	normalizeCmd.Flags().StringSliceVar(&normalizeFlagArgs, "arg", nil, "Call argument as key=value (e.g. name=aspirin for compound id fallback)")
	normalizeCmd.Flags().BoolVar(&normalizeFlagList, "list", false, "List the registered server/tool pairs")
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize <server> <tool> [payload.json|-]",
	Short: "Normalize a saved source payload into canonical records",
	Long: `Run one normalizer over a JSON payload saved from a source, without any
network access. The payload is read from the file argument or stdin.

Examples:
  biofan normalize --list
  biofan normalize pubchem pubchem_properties props.json --arg name=aspirin
  curl -s "$URL" | biofan normalize chembl chembl_activities - --json`,
	Args: func(cmd *cobra.Command, args []string) error {
		if normalizeFlagList {
			return nil
		}
		return cobra.RangeArgs(2, 3)(cmd, args)
	},
	RunE: runNormalize,
}

func runNormalize(cmd *cobra.Command, args []string) error {
	reg := normalize.DefaultRegistry()
	if normalizeFlagList {
		for _, k := range reg.Keys() {
			fmt.Fprintln(os.Stdout, k.String())
		}
		return nil
	}

	callArgs, err := parseCallArgs(normalizeFlagArgs)
	if err != nil {
		return err
	}
	src := "-"
	if len(args) == 3 {
		src = args[2]
	}
	data, err := readInput(src)
	if err != nil {
		return err
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}

	recs, ok := reg.Normalize(args[0], args[1], payload, callArgs)
	if !ok {
		return fmt.Errorf("no normalizer registered for %s/%s (see --list)", args[0], args[1])
	}
	return output.FormatRecords(os.Stdout, recs, outputCfg())
}

// parseCallArgs parses key=value pairs.
func parseCallArgs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --arg %q: expected key=value", p)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}
