package rank

import (
	"math"
	"regexp"
	"strings"

	"github.com/henrybloomingdale/biofan/internal/record"
)

// Publication score weights.
const (
	WeightTrial       = 6.0
	WeightMeta        = 5.0
	WeightHazardRatio = 3.0
	WeightMedian      = 3.0
	WeightCutoff      = 1.0
	WeightReview      = -2.0
	WeightPreprint    = -1.0
	WeightSlot        = 0.5
	WeightVariant     = 0.25

	RecencyBaseYear = 2010
	RecencyMax      = 3.0
	recencySpan     = 5.0
)

var (
	trialRe    = regexp.MustCompile(`(?i)\b(?:randomi[sz]ed|placebo[- ]controlled|controlled trial|clinical trial|phase\s*(?:I{1,3}V?|IV|[1-4])\b|double[- ]blind)`)
	metaRe     = regexp.MustCompile(`(?i)\b(?:meta[- ]analys[ie]s|systematic review|pooled analysis)\b`)
	reviewRe   = regexp.MustCompile(`(?i)\b(?:review|overview|perspective)\b`)
	preprintRe = regexp.MustCompile(`(?i)\b(?:preprint|biorxiv|medrxiv|research square)\b`)
)

// ScorePublication computes the evidentiary score of a publication record.
func ScorePublication(r record.Record, s Slots) float64 {
	text := r.Text()
	if r.Publication != nil {
		text += " " + r.Publication.PubType
	}
	ev := evidenceOf(r)

	score := 0.0
	if trialRe.MatchString(text) {
		score += WeightTrial
	}
	if metaRe.MatchString(text) {
		score += WeightMeta
	}
	if len(ev.HazardRatios) > 0 {
		score += WeightHazardRatio
	}
	if len(ev.MedianSurvival) > 0 {
		score += WeightMedian
	}
	if len(ev.Cutoffs) > 0 {
		score += WeightCutoff
	}
	if reviewRe.MatchString(text) {
		score += WeightReview
	}
	if preprintRe.MatchString(text) {
		score += WeightPreprint
	}
	score += Recency(pubYear(r))
	score += slotBump(text, s, WeightSlot, WeightVariant)
	return score
}

// Recency maps a publication year onto a 0-3 bump, linear from 2010 and
// capped. Unknown years score 0.
func Recency(year int) float64 {
	if year <= 0 {
		return 0
	}
	return math.Max(0, math.Min(RecencyMax, float64(year-RecencyBaseYear)/recencySpan))
}

// ScoreTrial computes the score of a trial record.
func ScoreTrial(r record.Record, s Slots) float64 {
	if r.Trial == nil {
		return slotBump(r.Text(), s, 1, 0)
	}
	return statusBump(r.Trial.Status) + phaseBump(r.Trial.Phase) + slotBump(r.Text(), s, 1, 0)
}

func statusBump(status string) float64 {
	st := strings.ToLower(strings.ReplaceAll(status, "_", " "))
	switch {
	case strings.Contains(st, "not yet recruiting"), st == "recruiting":
		return 4
	case strings.Contains(st, "active"):
		return 3
	case strings.Contains(st, "completed"):
		return 2
	}
	return 0
}

var phaseNumRe = regexp.MustCompile(`(?i)phase\s*(IV|III|II|I|[1-4])\b`)

// phaseBump returns the highest listed phase: IV scores 4 down to I at 1.
func phaseBump(phase string) float64 {
	best := 0.0
	for _, m := range phaseNumRe.FindAllStringSubmatch(phase, -1) {
		var n float64
		switch strings.ToUpper(m[1]) {
		case "I", "1":
			n = 1
		case "II", "2":
			n = 2
		case "III", "3":
			n = 3
		case "IV", "4":
			n = 4
		}
		best = math.Max(best, n)
	}
	return best
}

// slotBump adds per for each gene, drug and disease category with at least
// one term present in text, and variant when a variant term is present.
func slotBump(text string, s Slots, per, variant float64) float64 {
	lower := strings.ToLower(text)
	bump := 0.0
	for _, terms := range [][]string{s.Genes, s.Drugs, s.Diseases} {
		if anyTerm(lower, terms) {
			bump += per
		}
	}
	if variant > 0 && anyTerm(lower, s.Variants) {
		bump += variant
	}
	return bump
}

func anyTerm(lowerText string, terms []string) bool {
	for _, t := range terms {
		if containsWord(lowerText, strings.ToLower(strings.TrimSpace(t))) {
			return true
		}
	}
	return false
}

// containsWord reports whether term occurs in text bounded by non-word
// characters.
func containsWord(text, term string) bool {
	if term == "" {
		return false
	}
	for start := 0; ; {
		i := strings.Index(text[start:], term)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(term)
		if (i == 0 || !isWordByte(text[i-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		start = i + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func pubYear(r record.Record) int {
	if r.Publication != nil {
		return r.Publication.Year
	}
	return 0
}
