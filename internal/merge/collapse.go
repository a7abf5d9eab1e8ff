package merge

import (
	"sort"

	"github.com/henrybloomingdale/biofan/internal/record"
)

// CollapseCompounds merges compounds sharing an InChIKey skeleton into one
// record, unioning fields in input order and keeping every contributing
// source. Compounds without a skeleton pass through unchanged.
func CollapseCompounds(compounds []record.Compound) []record.Compound {
	index := make(map[string]int)
	var out []record.Compound
	for _, c := range compounds {
		if c.InChIKey14 == "" {
			out = append(out, c)
			continue
		}
		i, ok := index[c.InChIKey14]
		if !ok {
			index[c.InChIKey14] = len(out)
			c.Sources = unionSorted(nil, c.Sources)
			out = append(out, c)
			continue
		}
		m := &out[i]
		overlayEmpty(&m.Name, c.Name)
		overlayEmpty(&m.InChIKey, c.InChIKey)
		overlayEmpty(&m.CID, c.CID)
		overlayEmpty(&m.SMILES, c.SMILES)
		overlayEmpty(&m.Formula, c.Formula)
		if m.MW == nil {
			m.MW = c.MW
		}
		if m.XLogP == nil {
			m.XLogP = c.XLogP
		}
		if m.TPSA == nil {
			m.TPSA = c.TPSA
		}
		m.Sources = unionSorted(m.Sources, c.Sources)
	}
	return out
}

// CollapseTargets merges targets sharing a UniProt accession. Targets without
// an accession pass through unchanged.
func CollapseTargets(targets []record.Target) []record.Target {
	index := make(map[string]int)
	var out []record.Target
	for _, t := range targets {
		if t.UniProt == "" {
			out = append(out, t)
			continue
		}
		srcs := t.Sources
		if t.Source != "" {
			srcs = append(append([]string(nil), srcs...), t.Source)
		}
		i, ok := index[t.UniProt]
		if !ok {
			index[t.UniProt] = len(out)
			t.Sources = unionSorted(nil, srcs)
			out = append(out, t)
			continue
		}
		m := &out[i]
		overlayEmpty(&m.ChEMBLTargetID, t.ChEMBLTargetID)
		overlayEmpty(&m.Symbol, t.Symbol)
		overlayEmpty(&m.PrefName, t.PrefName)
		overlayEmpty(&m.OrganismName, t.OrganismName)
		overlayEmpty(&m.OrganismTaxID, t.OrganismTaxID)
		m.Sources = unionSorted(m.Sources, srcs)
	}
	for i := range out {
		if len(out[i].Sources) > 1 {
			out[i].Source = ""
		}
	}
	return out
}

func overlayEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func unionSorted(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string(nil), a...), b...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
