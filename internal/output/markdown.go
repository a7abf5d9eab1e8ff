package output

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/henrybloomingdale/biofan/internal/quality"
)

// WriteQualityMarkdown renders a quality report as a Markdown narrative
// with Counts, Metrics and Notes sections.
func WriteQualityMarkdown(w io.Writer, r quality.Report) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# Data quality report")
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "## Counts")
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "| Collection | Records |")
	fmt.Fprintln(bw, "|---|---|")
	fmt.Fprintf(bw, "| Compounds | %d |\n", r.Counts.Compounds)
	fmt.Fprintf(bw, "| Targets | %d |\n", r.Counts.Targets)
	fmt.Fprintf(bw, "| Assays | %d |\n", r.Counts.Assays)
	fmt.Fprintf(bw, "| Literature | %d |\n", r.Counts.Literature)
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "## Metrics")
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "| Metric | Value |")
	fmt.Fprintln(bw, "|---|---|")
	for _, name := range quality.MetricOrder {
		fmt.Fprintf(bw, "| %s | %s |\n", name, formatMetric(name, r.Metrics[name]))
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "## Notes")
	fmt.Fprintln(bw)
	if len(r.Notes) == 0 {
		fmt.Fprintln(bw, "- All coverage thresholds met.")
	}
	for _, n := range r.Notes {
		fmt.Fprintf(bw, "- %s\n", n)
	}
	return bw.Flush()
}

func writeQualityFile(path string, r quality.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating quality report: %w", err)
	}
	defer f.Close()
	return WriteQualityMarkdown(f, r)
}
