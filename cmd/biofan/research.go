package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/henrybloomingdale/biofan/internal/output"
	"github.com/henrybloomingdale/biofan/internal/research"
)

var (
	researchFlagSpec        string
	researchFlagCompounds   []string
	researchFlagTargets     []string
	researchFlagLiterature  string
	researchFlagLitLimit    int
	researchFlagActLimit    int
	researchFlagPChEMBLOnly bool
	researchFlagSources     []string
	researchFlagCollapse    bool
	researchFlagSave        bool
	researchFlagUpload      bool
)

func init() {
	f := researchCmd.Flags()
	f.StringVar(&researchFlagSpec, "spec", "", "Read the research spec from a JSON file ('-' for stdin)")
	f.StringSliceVarP(&researchFlagCompounds, "compound", "c", nil, "Compound name (repeatable or comma-separated)")
	f.StringSliceVarP(&researchFlagTargets, "target", "t", nil, "Target query (repeatable or comma-separated)")
	f.StringVar(&researchFlagLiterature, "literature", "", "Literature query (default: the question)")
	f.IntVar(&researchFlagLitLimit, "literature-limit", 0, "Results per literature source (default 25)")
	f.IntVar(&researchFlagActLimit, "activity-limit", 0, "Activities per ChEMBL target (default 100)")
	f.BoolVar(&researchFlagPChEMBLOnly, "pchembl-only", false, "Only fetch activities with a pChEMBL value")
	f.StringSliceVar(&researchFlagSources, "source", nil, "Restrict to these sources (pubchem, chembl, uniprot, pubmed, europepmc, openalex)")
	f.BoolVar(&researchFlagCollapse, "collapse", false, "Collapse duplicate compounds and targets in the output")
	f.BoolVar(&researchFlagSave, "save", false, "Save the run to PostgreSQL (BIOFAN_POSTGRES_DSN)")
	f.BoolVar(&researchFlagUpload, "upload", false, "Upload run artifacts to S3 (BIOFAN_S3_*)")
}

var researchCmd = &cobra.Command{
	Use:   "research [question]",
	Short: "Run the research fan-out for compounds, targets and literature",
	Long: `Fan a research question out to the configured sources, normalize and
cross-reference the results, and report data quality.

Examples:
  biofan research "EGFR inhibitors in NSCLC" -c gefitinib,erlotinib -t EGFR
  biofan research --spec run.json --tables out/ --quality out/quality.md
  biofan research -t "JAK2" --source chembl,uniprot --json`,
	RunE: runResearch,
}

// buildSpec merges the spec file (if any) with command-line values; flags
// override file values when set.
func buildSpec(cmd *cobra.Command, args []string) (research.Spec, error) {
	var spec research.Spec
	if researchFlagSpec != "" {
		data, err := readInput(researchFlagSpec)
		if err != nil {
			return spec, err
		}
		if spec, err = research.ParseSpec(data); err != nil {
			return spec, err
		}
	}
	if q := strings.TrimSpace(strings.Join(args, " ")); q != "" {
		spec.Question = q
	}
	if v := splitList(researchFlagCompounds); len(v) > 0 {
		spec.Compounds = v
	}
	if v := splitList(researchFlagTargets); len(v) > 0 {
		spec.Targets = v
	}
	if v := splitList(researchFlagSources); len(v) > 0 {
		spec.Sources = v
	}
	if researchFlagLiterature != "" {
		spec.LiteratureQuery = researchFlagLiterature
	}
	flags := cmd.Flags()
	if flags.Changed("literature-limit") {
		spec.LiteratureLimit = researchFlagLitLimit
	}
	if flags.Changed("activity-limit") {
		spec.ActivityLimit = researchFlagActLimit
	}
	if flags.Changed("pchembl-only") {
		spec.PChEMBLOnly = researchFlagPChEMBLOnly
	}
	if flags.Changed("collapse") {
		spec.Collapse = researchFlagCollapse
	}
	return spec, spec.Validate()
}

func runResearch(cmd *cobra.Command, args []string) error {
	spec, err := buildSpec(cmd, args)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p := a.pipeline(cmd.Context())
	if interactive() {
		p = p.WithProgress(func(u research.ProgressUpdate) {
			fmt.Fprintf(os.Stderr, "  %s\n", u.Message)
		})
	}

	res, err := p.Run(cmd.Context(), spec)
	if err != nil {
		return fmt.Errorf("research failed: %w", err)
	}
	a.metrics.ObserveRun("research", len(res.Calls), res.Failures)

	if err := persistRun(cmd.Context(), a, res, researchFlagSave, researchFlagUpload); err != nil {
		return err
	}
	return output.FormatResearch(os.Stdout, res, outputCfg())
}

// persistRun saves and uploads a finished run as requested.
func persistRun(ctx context.Context, a *app, res *research.Result, save, upload bool) error {
	if save {
		st, err := a.store()
		if err != nil {
			return err
		}
		if st == nil {
			return fmt.Errorf("--save requires BIOFAN_POSTGRES_DSN")
		}
		if err := st.SaveRun(ctx, res); err != nil {
			return err
		}
		a.logger.Info("run saved", zap.String("run_id", res.RunID))
	}
	if upload {
		up, err := a.uploader(ctx)
		if err != nil {
			return err
		}
		if up == nil {
			return fmt.Errorf("--upload requires BIOFAN_S3_BUCKET")
		}
		links, err := up.UploadRun(ctx, res)
		if err != nil {
			return err
		}
		if interactive() {
			fmt.Fprintf(os.Stderr, "  Uploaded %d artifacts (%s)\n", len(links), links["result.json"])
		}
	}
	return nil
}

// readInput reads a file, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
