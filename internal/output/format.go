// Package output renders research results and answer cards as plain text,
// JSON, rich terminal output, CSV tables, Markdown and RIS.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/henrybloomingdale/biofan/internal/answer"
	"github.com/henrybloomingdale/biofan/internal/quality"
	"github.com/henrybloomingdale/biofan/internal/rank"
	"github.com/henrybloomingdale/biofan/internal/record"
	"github.com/henrybloomingdale/biofan/internal/research"
)

// OutputConfig controls which output mode(s) are active.
type OutputConfig struct {
	JSON        bool   // Structured JSON
	Human       bool   // Rich terminal output with color
	TablesDir   string // Write CSV tables into this directory (works alongside any mode)
	QualityFile string // Write the Markdown quality report to this path
	RISFile     string // Export literature to this RIS path
}

// FormatResearch writes a research run result.
func FormatResearch(w io.Writer, res *research.Result, cfg OutputConfig) error {
	if cfg.TablesDir != "" {
		if _, err := WriteTables(cfg.TablesDir, res.Dataset); err != nil {
			return fmt.Errorf("CSV export failed: %w", err)
		}
	}
	if cfg.QualityFile != "" {
		if err := writeQualityFile(cfg.QualityFile, res.Report); err != nil {
			return fmt.Errorf("quality report failed: %w", err)
		}
	}
	if cfg.RISFile != "" {
		if err := writeRISFile(cfg.RISFile, res.Dataset.Literature); err != nil {
			return fmt.Errorf("RIS export failed: %w", err)
		}
	}
	if cfg.JSON {
		return writeJSON(w, res)
	}
	if cfg.Human {
		return formatResearchHuman(w, res)
	}
	return formatResearchPlain(w, res)
}

// FormatCard writes an answer card.
func FormatCard(w io.Writer, card *answer.Card, cfg OutputConfig) error {
	if cfg.RISFile != "" {
		var lit []record.Literature
		for _, r := range card.Publications {
			if r.Publication != nil {
				lit = append(lit, *r.Publication)
			}
		}
		if err := writeRISFile(cfg.RISFile, lit); err != nil {
			return fmt.Errorf("RIS export failed: %w", err)
		}
	}
	if cfg.JSON {
		return writeJSON(w, card)
	}
	if cfg.Human {
		return formatCardHuman(w, card)
	}
	return formatCardPlain(w, card)
}

// FormatRecords writes normalized records, as produced by a single
// normalizer run.
func FormatRecords(w io.Writer, recs []record.Record, cfg OutputConfig) error {
	if cfg.JSON {
		return writeJSON(w, recs)
	}
	if len(recs) == 0 {
		fmt.Fprintln(w, "No records.")
		return nil
	}
	for i, r := range recs {
		fmt.Fprintf(w, "  %d. [%s] %s", i+1, r.Kind, r.ID)
		if r.Label != "" && r.Label != r.ID {
			fmt.Fprintf(w, "  %s", truncate(r.Label, 80))
		}
		if len(r.Xref) > 0 {
			fmt.Fprintf(w, "  (%s)", strings.Join(r.Xref, ", "))
		}
		fmt.Fprintln(w)
	}
	return nil
}

// --- Plain text formatters (default) ---

func formatResearchPlain(w io.Writer, res *research.Result) error {
	c := res.Report.Counts
	fmt.Fprintf(w, "Run: %s\n", res.RunID)
	if res.Spec.Question != "" {
		fmt.Fprintf(w, "Question: %s\n", res.Spec.Question)
	}
	fmt.Fprintf(w, "Records: %d compounds, %d targets, %d assays, %d literature\n",
		c.Compounds, c.Targets, c.Assays, c.Literature)
	fmt.Fprintf(w, "Calls: %d (%d failed)\n", len(res.Calls), res.Failures)
	if a := res.TargetAugmentation; a.Attempted > 0 || a.Cached > 0 {
		fmt.Fprintf(w, "Target augmentation: %d resolved, %d missing, %d failed, %d skipped\n",
			a.Resolved, a.Missing, a.Failed, a.Skipped)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Metrics:")
	for _, name := range quality.MetricOrder {
		fmt.Fprintf(w, "  %-30s %s\n", name, formatMetric(name, res.Report.Metrics[name]))
	}

	if len(res.Report.Notes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Notes:")
		for _, n := range res.Report.Notes {
			fmt.Fprintf(w, "  - %s\n", n)
		}
	}

	if res.Failures > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failed calls:")
		for _, call := range res.Calls {
			if !call.OK {
				fmt.Fprintf(w, "  - %s/%s: %s\n", call.Server, call.Tool, call.Error)
			}
		}
	}
	return nil
}

func formatCardPlain(w io.Writer, card *answer.Card) error {
	fmt.Fprintf(w, "Question: %s\n", card.Question)
	fmt.Fprintf(w, "Calls: %d (%d failed)\n", len(card.Calls), card.Failures)

	fmt.Fprintln(w)
	if len(card.Publications) == 0 {
		fmt.Fprintln(w, "No publications found.")
	} else {
		fmt.Fprintf(w, "Publications (%d):\n", len(card.Publications))
		for i, r := range card.Publications {
			fmt.Fprintf(w, "  %d. [%.2f] %s\n", i+1, score(r), publicationLine(r))
		}
	}

	if len(card.Trials) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Trials (%d):\n", len(card.Trials))
		for i, r := range card.Trials {
			fmt.Fprintf(w, "  %d. [%.2f] %s\n", i+1, score(r), trialLine(r))
		}
	}

	if len(card.Genes) > 0 {
		fmt.Fprintln(w)
		names := make([]string, len(card.Genes))
		for i, g := range card.Genes {
			names[i] = g.ID
		}
		fmt.Fprintf(w, "Genes: %s\n", strings.Join(names, ", "))
	}

	if len(card.Targets) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Targets:")
		for _, r := range card.Targets {
			fmt.Fprintf(w, "  - %s %s\n", r.ID, r.Label)
		}
	}
	return nil
}

func publicationLine(r record.Record) string {
	title := r.Label
	if title == "" {
		title = "(no title available)"
	}
	line := title
	if r.Publication != nil && r.Publication.Year > 0 {
		line += fmt.Sprintf(" (%d)", r.Publication.Year)
	}
	return line + " " + r.ID
}

func trialLine(r record.Record) string {
	line := r.ID
	if r.Label != "" {
		line += " " + r.Label
	}
	if r.Trial != nil {
		var tags []string
		for _, v := range []string{r.Trial.Status, r.Trial.Phase} {
			if v != "" {
				tags = append(tags, v)
			}
		}
		if len(tags) > 0 {
			line += " (" + strings.Join(tags, ", ") + ")"
		}
	}
	return line
}

func score(r record.Record) float64 {
	v, _ := r.Meta[rank.MetaScore].(float64)
	return v
}

func formatMetric(name string, v float64) string {
	switch name {
	case quality.CompoundDuplicateKeys:
		return fmt.Sprintf("%d", int(v))
	case quality.LiteratureUniqueRatio:
		return fmt.Sprintf("%.3f", v)
	}
	return fmt.Sprintf("%.1f%%", v)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
