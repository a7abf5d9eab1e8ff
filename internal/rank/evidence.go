package rank

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/henrybloomingdale/biofan/internal/record"
)

// MetaExtracted is the meta key under which mined evidence is attached.
const MetaExtracted = "extracted"

// Evidence is numeric evidence mined from publication text.
type Evidence struct {
	Cutoffs        []string  `json:"cutoffs,omitempty"`
	HazardRatios   []float64 `json:"hazard_ratios,omitempty"`
	MedianSurvival []float64 `json:"median_survival_months,omitempty"`
}

// Empty reports whether nothing was extracted.
func (e Evidence) Empty() bool {
	return len(e.Cutoffs) == 0 && len(e.HazardRatios) == 0 && len(e.MedianSurvival) == 0
}

var (
	hrRe     = regexp.MustCompile(`(?i)\b(?:HR|hazard ratio)\b[\s(),:=]*(?:of|was|is)?[\s(),:=]*(\d+(?:\.\d+)?)`)
	medianRe = regexp.MustCompile(`(?i)\bmedian\s+(?:overall\s+|progression[- ]free\s+|disease[- ]free\s+|event[- ]free\s+)?(?:survival|OS|PFS)\b[^0-9.;]{0,24}?(\d+(?:\.\d+)?)\s*(months?|mo|weeks?|wk|years?|yr)\b`)
	cutoffRe = regexp.MustCompile(`(?i)\b(?:cut-?off|threshold)\b[^0-9<>≥≤;.]{0,16}([<>≥≤]=?\s*\d+(?:\.\d+)?\s*%?|\d+(?:\.\d+)?\s*%?)`)
	compRe   = regexp.MustCompile(`(?:≥|≤|>=|<=)\s*\d+(?:\.\d+)?\s*%`)
)

// ExtractEvidence mines hazard ratios, median survival (in months) and
// cutoff expressions from text.
func ExtractEvidence(text string) Evidence {
	var ev Evidence
	for _, m := range hrRe.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 && v < 20 {
			ev.HazardRatios = append(ev.HazardRatios, v)
		}
	}
	for _, m := range medianRe.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		ev.MedianSurvival = append(ev.MedianSurvival, toMonths(v, m[2]))
	}
	seen := map[string]bool{}
	addCutoff := func(s string) {
		s = strings.Join(strings.Fields(s), "")
		if s != "" && !seen[s] {
			seen[s] = true
			ev.Cutoffs = append(ev.Cutoffs, s)
		}
	}
	for _, m := range cutoffRe.FindAllStringSubmatch(text, -1) {
		addCutoff(m[1])
	}
	for _, m := range compRe.FindAllString(text, -1) {
		addCutoff(m)
	}
	return ev
}

func toMonths(v float64, unit string) float64 {
	switch u := strings.ToLower(unit); {
	case strings.HasPrefix(u, "w"):
		return v * 12 / 52
	case strings.HasPrefix(u, "y"):
		return v * 12
	}
	return v
}

// AttachEvidence extracts evidence for every publication record and stores
// it under meta["extracted"]. Other kinds are left untouched.
func AttachEvidence(recs []record.Record) {
	for i := range recs {
		if recs[i].Kind != record.KindPublication {
			continue
		}
		recs[i].SetMeta(MetaExtracted, ExtractEvidence(recs[i].Text()))
	}
}

func evidenceOf(r record.Record) Evidence {
	if ev, ok := r.Meta[MetaExtracted].(Evidence); ok {
		return ev
	}
	return ExtractEvidence(r.Text())
}
