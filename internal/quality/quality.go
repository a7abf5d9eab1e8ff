// Package quality computes coverage and duplication metrics over a merged
// dataset and emits advisory notes when policy thresholds are breached.
package quality

import (
	"fmt"
	"math"

	"github.com/henrybloomingdale/biofan/internal/record"
)

// Policy thresholds. Coverage values are percentages; the literature
// threshold is a ratio.
const (
	MinInChIKeyPct      = 80.0
	MinUniProtPct       = 40.0
	MinTargetLinkedPct  = 40.0
	MinPChEMBLPct       = 30.0
	MinLiteratureUnique = 0.8
)

// Metric names.
const (
	CompoundInChIKeyPct   = "compound_inchikey_pct"
	CompoundPropertyPct   = "compound_property_pct"
	CompoundDuplicateKeys = "compound_duplicate_inchikeys"
	TargetUniProtPct      = "target_uniprot_pct"
	TargetChEMBLPct       = "target_chembl_pct"
	AssayPChEMBLPct       = "assay_pchembl_pct"
	AssayNumericValuePct  = "assay_numeric_value_pct"
	AssayTargetLinkedPct  = "assay_target_linked_pct"
	LiteratureUniqueRatio = "literature_unique_ratio"
	LiteraturePMIDPct     = "literature_pmid_pct"
	LiteratureDOIPct      = "literature_doi_pct"
)

// Counts holds record totals per collection.
type Counts struct {
	Compounds  int `json:"compounds"`
	Targets    int `json:"targets"`
	Assays     int `json:"assays"`
	Literature int `json:"literature"`
}

// Report is the quality summary of a dataset.
type Report struct {
	Counts  Counts             `json:"counts"`
	Metrics map[string]float64 `json:"metrics"`
	Notes   []string           `json:"notes"`
}

// MetricOrder lists metric names in report order.
var MetricOrder = []string{
	CompoundInChIKeyPct, CompoundPropertyPct, CompoundDuplicateKeys,
	TargetUniProtPct, TargetChEMBLPct,
	AssayPChEMBLPct, AssayNumericValuePct, AssayTargetLinkedPct,
	LiteratureUniqueRatio, LiteraturePMIDPct, LiteratureDOIPct,
}

// Summarize computes the report. Empty collections yield zero metrics and
// therefore breach every threshold.
func Summarize(d record.Dataset) Report {
	m := make(map[string]float64, len(MetricOrder))

	nc := len(d.Compounds)
	var withKey, withProps int
	distinctKeys := make(map[string]bool)
	for _, c := range d.Compounds {
		if c.InChIKey != "" {
			withKey++
		}
		// Missing keys count as a single value.
		distinctKeys[c.InChIKey] = true
		if c.MW != nil && c.TPSA != nil {
			withProps++
		}
	}
	m[CompoundInChIKeyPct] = pct(withKey, nc)
	m[CompoundPropertyPct] = pct(withProps, nc)
	m[CompoundDuplicateKeys] = float64(nc - len(distinctKeys))

	nt := len(d.Targets)
	var withUniProt, withChEMBL int
	for _, t := range d.Targets {
		if t.UniProt != "" {
			withUniProt++
		}
		if t.ChEMBLTargetID != "" {
			withChEMBL++
		}
	}
	m[TargetUniProtPct] = pct(withUniProt, nt)
	m[TargetChEMBLPct] = pct(withChEMBL, nt)

	na := len(d.Assays)
	var withPChEMBL, numeric, linked int
	for _, a := range d.Assays {
		if a.PChEMBL != nil {
			withPChEMBL++
		}
		if a.NumericValue() {
			numeric++
		}
		if a.Linked() {
			linked++
		}
	}
	m[AssayPChEMBLPct] = pct(withPChEMBL, na)
	m[AssayNumericValuePct] = pct(numeric, na)
	m[AssayTargetLinkedPct] = pct(linked, na)

	nl := len(d.Literature)
	var withPMID, withDOI int
	keys := make(map[string]bool)
	for _, l := range d.Literature {
		keys[l.Key] = true
		if l.PMID != "" {
			withPMID++
		}
		if l.DOI != "" {
			withDOI++
		}
	}
	m[LiteratureUniqueRatio] = ratio(len(keys), nl)
	m[LiteraturePMIDPct] = pct(withPMID, nl)
	m[LiteratureDOIPct] = pct(withDOI, nl)

	return Report{
		Counts:  Counts{Compounds: nc, Targets: nt, Assays: na, Literature: nl},
		Metrics: m,
		Notes:   notes(m),
	}
}

func notes(m map[string]float64) []string {
	notes := []string{}
	if v := m[CompoundInChIKeyPct]; v < MinInChIKeyPct {
		notes = append(notes, fmt.Sprintf("Low InChIKey coverage (%.1f%% < %.0f%%): compound identity is weak.", v, MinInChIKeyPct))
	}
	if v := m[TargetUniProtPct]; v < MinUniProtPct {
		notes = append(notes, fmt.Sprintf("Low UniProt coverage (%.1f%% < %.0f%%): targets may not be joinable across sources.", v, MinUniProtPct))
	}
	if v := m[AssayTargetLinkedPct]; v < MinTargetLinkedPct {
		notes = append(notes, fmt.Sprintf("Few assays linked to a normalized target (%.1f%% < %.0f%%).", v, MinTargetLinkedPct))
	}
	if v := m[AssayPChEMBLPct]; v < MinPChEMBLPct {
		notes = append(notes, fmt.Sprintf("Sparse pChEMBL values (%.1f%% < %.0f%%): potency comparisons are limited.", v, MinPChEMBLPct))
	}
	if v := m[LiteratureUniqueRatio]; v < MinLiteratureUnique {
		notes = append(notes, fmt.Sprintf("Low literature uniqueness (%.2f < %.2f): sources overlap heavily or returned nothing.", v, MinLiteratureUnique))
	}
	return notes
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return clamp(100*float64(n)/float64(total), 0, 100)
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return clamp(float64(n)/float64(total), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
