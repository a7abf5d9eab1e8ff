// Package merge joins normalized records across sources: it concatenates
// target lists, derives the ChEMBL-to-UniProt lookup table, re-links assays
// and deduplicates literature by composite key.
package merge

import (
	"github.com/henrybloomingdale/biofan/internal/normalize"
	"github.com/henrybloomingdale/biofan/internal/record"
)

// Targets concatenates target lists in order. Entries describing the same
// protein are kept as separate records.
func Targets(lists ...[]record.Target) []record.Target {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	out := make([]record.Target, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// TargetLookup maps chembl_target_id to uniprot for every target carrying
// both. The first mapping seen for an id wins.
func TargetLookup(targets []record.Target) map[string]string {
	lookup := make(map[string]string)
	for _, t := range targets {
		if t.ChEMBLTargetID == "" || t.UniProt == "" {
			continue
		}
		if _, ok := lookup[t.ChEMBLTargetID]; !ok {
			lookup[t.ChEMBLTargetID] = t.UniProt
		}
	}
	return lookup
}

// RelinkActivities re-normalizes raw activity rows against lookup.
func RelinkActivities(rows []map[string]any, lookup map[string]string) []record.Assay {
	return normalize.ChEMBLActivities(rows, lookup)
}

// DedupLiterature collapses records sharing a key. A later record's
// non-empty fields overwrite the earlier ones; empty fields never erase.
// Output follows the first-seen order of keys.
func DedupLiterature(recs []record.Literature) []record.Literature {
	index := make(map[string]int, len(recs))
	out := make([]record.Literature, 0, len(recs))
	for _, r := range recs {
		if i, ok := index[r.Key]; ok {
			out[i] = MergeLiterature(out[i], r)
			continue
		}
		index[r.Key] = len(out)
		out = append(out, r)
	}
	return out
}

// MergeLiterature overlays later onto earlier field by field.
func MergeLiterature(earlier, later record.Literature) record.Literature {
	m := earlier
	overlay(&m.Key, later.Key)
	overlay(&m.PMID, later.PMID)
	overlay(&m.DOI, later.DOI)
	overlay(&m.PMCID, later.PMCID)
	overlay(&m.Title, later.Title)
	overlay(&m.Journal, later.Journal)
	overlay(&m.Abstract, later.Abstract)
	overlay(&m.PubType, later.PubType)
	overlay(&m.Source, later.Source)
	if later.Year != 0 {
		m.Year = later.Year
	}
	return m
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
