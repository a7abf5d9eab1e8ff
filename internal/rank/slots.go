// Package rank scores and orders answer-card records by evidentiary
// strength and by relevance to the query slots.
package rank

import (
	"regexp"
	"strings"
)

// Slots are the entities extracted from a question.
type Slots struct {
	Genes    []string `json:"genes,omitempty"`
	Drugs    []string `json:"drugs,omitempty"`
	Diseases []string `json:"diseases,omitempty"`
	Variants []string `json:"variants,omitempty"`
	Phases   []string `json:"phases,omitempty"`
	NCTIDs   []string `json:"nct_ids,omitempty"`
}

var (
	nctRe     = regexp.MustCompile(`\bNCT\d{8}\b`)
	phaseRe   = regexp.MustCompile(`(?i)\bphase\s*(IV|III|II|I|[1-4])\b`)
	variantRe = regexp.MustCompile(`\b(?:[A-Z]\d{1,4}[A-Z*]|rs\d{3,}|c\.\d+[ACGT]>[ACGT]|p\.[A-Z][a-z]{2}\d+[A-Z][a-z]{2})\b`)
)

// ExtractSlots fills the pattern-detectable slots (NCT ids, phases,
// variants) from text and merges them into base. Genes, drugs and diseases
// are taken from base as given.
func ExtractSlots(text string, base Slots) Slots {
	s := base
	s.NCTIDs = appendUnique(s.NCTIDs, nctRe.FindAllString(text, -1)...)
	for _, m := range phaseRe.FindAllStringSubmatch(text, -1) {
		s.Phases = appendUnique(s.Phases, "PHASE"+arabicPhase(m[1]))
	}
	s.Variants = appendUnique(s.Variants, variantRe.FindAllString(text, -1)...)
	return s
}

func arabicPhase(p string) string {
	switch strings.ToUpper(p) {
	case "I", "1":
		return "1"
	case "II", "2":
		return "2"
	case "III", "3":
		return "3"
	case "IV", "4":
		return "4"
	}
	return p
}

func appendUnique(dst []string, vals ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, v := range dst {
		seen[strings.ToUpper(v)] = true
	}
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" || seen[strings.ToUpper(v)] {
			continue
		}
		seen[strings.ToUpper(v)] = true
		dst = append(dst, v)
	}
	return dst
}
