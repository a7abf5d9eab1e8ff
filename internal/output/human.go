package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/henrybloomingdale/biofan/internal/answer"
	"github.com/henrybloomingdale/biofan/internal/quality"
	"github.com/henrybloomingdale/biofan/internal/rank"
	"github.com/henrybloomingdale/biofan/internal/record"
	"github.com/henrybloomingdale/biofan/internal/research"
)

// --- Styles ---

var (
	cyan       = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	bold       = lipgloss.NewStyle().Bold(true)
	dim        = lipgloss.NewStyle().Faint(true)
	green      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	yellow     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	red        = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	magenta    = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")).
			Padding(0, 1)
)

// truncate cuts a string to maxLen runes, appending "…" if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Headers(headers...).
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
			}
			return lipgloss.NewStyle()
		})
}

// --- Research ---

func formatResearchHuman(w io.Writer, res *research.Result) error {
	c := res.Report.Counts
	head := bold.Render("🧪 Research run") + " " + dim.Render(res.RunID)
	if res.Spec.Question != "" {
		head += "\n" + res.Spec.Question
	}
	head += "\n" + cyan.Render(fmt.Sprintf("%d compounds · %d targets · %d assays · %d literature",
		c.Compounds, c.Targets, c.Assays, c.Literature))
	fmt.Fprintln(w, boxStyle.Render(head))
	fmt.Fprintln(w)

	t := newTable("Metric", "Value")
	for _, name := range quality.MetricOrder {
		t.Row(name, formatMetric(name, res.Report.Metrics[name]))
	}
	fmt.Fprintln(w, t.Render())

	if len(res.Report.Notes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s\n", labelStyle.Render("Notes:"))
		for _, n := range res.Report.Notes {
			fmt.Fprintf(w, "    %s %s\n", yellow.Render("⚠"), wordWrap(n, 72))
		}
	}

	fmt.Fprintln(w)
	status := green.Render(fmt.Sprintf("%d calls", len(res.Calls)))
	if res.Failures > 0 {
		status += dim.Render(" · ") + red.Render(fmt.Sprintf("%d failed", res.Failures))
	}
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Sources:"), status)
	for _, call := range res.Calls {
		if !call.OK {
			fmt.Fprintf(w, "    %s %s/%s %s\n", red.Render("✗"), call.Server, call.Tool, dim.Render(truncate(call.Error, 60)))
		}
	}
	return nil
}

// --- Answer cards ---

func formatCardHuman(w io.Writer, card *answer.Card) error {
	head := bold.Render("🔬 "+card.Question) + "\n" + slotLine(card.Slots)
	fmt.Fprintln(w, boxStyle.Render(head))
	fmt.Fprintln(w)

	if len(card.Publications) == 0 {
		fmt.Fprintln(w, "No publications found.")
	} else {
		t := newTable("#", "Score", "Title", "Year", "ID")
		for i, r := range card.Publications {
			year := ""
			if r.Publication != nil && r.Publication.Year > 0 {
				year = fmt.Sprintf("%d", r.Publication.Year)
			}
			t.Row(fmt.Sprintf("%d", i+1), fmt.Sprintf("%.2f", score(r)), bold.Render(truncate(r.Label, 56)), year, cyan.Render(r.ID))
		}
		fmt.Fprintln(w, t.Render())
	}

	if len(card.Trials) > 0 {
		fmt.Fprintln(w)
		t := newTable("#", "Score", "NCT", "Status", "Phase")
		for i, r := range card.Trials {
			var status, phase string
			if r.Trial != nil {
				status, phase = r.Trial.Status, r.Trial.Phase
			}
			t.Row(fmt.Sprintf("%d", i+1), fmt.Sprintf("%.2f", score(r)), cyan.Render(r.ID), status, phase)
		}
		fmt.Fprintln(w, t.Render())
	}

	if len(card.Genes) > 0 {
		fmt.Fprintln(w)
		names := make([]string, len(card.Genes))
		for i, g := range card.Genes {
			if g.Meta["origin"] == "query" {
				names[i] = green.Render("*" + g.ID)
			} else {
				names[i] = magenta.Render(g.ID)
			}
		}
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Genes:"), strings.Join(names, ", "))
	}

	if len(card.Publications) > 0 {
		if ev := topEvidence(card.Publications); ev != "" {
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Evidence:"), ev)
		}
	}

	if card.Failures > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, dim.Render(fmt.Sprintf("%d of %d source calls failed", card.Failures, len(card.Calls))))
	}
	return nil
}

func slotLine(s rank.Slots) string {
	var parts []string
	add := func(label string, vals []string) {
		if len(vals) > 0 {
			parts = append(parts, label+": "+strings.Join(vals, ", "))
		}
	}
	add("genes", s.Genes)
	add("drugs", s.Drugs)
	add("diseases", s.Diseases)
	add("variants", s.Variants)
	add("phases", s.Phases)
	add("trials", s.NCTIDs)
	if len(parts) == 0 {
		return dim.Render("no slots")
	}
	return dim.Render(strings.Join(parts, " · "))
}

// topEvidence summarizes the extracted evidence of the best publication.
func topEvidence(pubs []record.Record) string {
	ev, ok := pubs[0].Meta[rank.MetaExtracted].(rank.Evidence)
	if !ok || ev.Empty() {
		return ""
	}
	var parts []string
	for _, hr := range ev.HazardRatios {
		parts = append(parts, fmt.Sprintf("HR %.2f", hr))
	}
	for _, m := range ev.MedianSurvival {
		parts = append(parts, fmt.Sprintf("median %.1f mo", m))
	}
	for _, c := range ev.Cutoffs {
		parts = append(parts, "cutoff "+c)
	}
	return yellow.Render(strings.Join(parts, "; "))
}

// wordWrap wraps text at the given width, breaking at spaces.
func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	current := words[0]

	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)
	return strings.Join(lines, "\n      ")
}
