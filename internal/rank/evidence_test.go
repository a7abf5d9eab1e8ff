package rank

import (
	"math"
	"testing"

	"github.com/henrybloomingdale/biofan/internal/record"
)

func TestExtractEvidence(t *testing.T) {
	text := "The hazard ratio (HR) 0.62 favored treatment. Median overall survival was 18.6 months versus 2 years. " +
		"Patients with PD-L1 ≥50% and a cutoff of 10% were included."
	ev := ExtractEvidence(text)

	if len(ev.HazardRatios) != 1 || ev.HazardRatios[0] != 0.62 {
		t.Errorf("expected HR 0.62, got %v", ev.HazardRatios)
	}
	if len(ev.MedianSurvival) != 1 || ev.MedianSurvival[0] != 18.6 {
		t.Errorf("expected median survival 18.6, got %v", ev.MedianSurvival)
	}
	if len(ev.Cutoffs) != 2 {
		t.Errorf("expected 2 cutoffs, got %v", ev.Cutoffs)
	}
}

func TestExtractEvidence_Units(t *testing.T) {
	ev := ExtractEvidence("median PFS of 26 weeks; median OS: 2.5 years")
	if len(ev.MedianSurvival) != 2 {
		t.Fatalf("expected 2 values, got %v", ev.MedianSurvival)
	}
	if math.Abs(ev.MedianSurvival[0]-6) > 1e-9 || ev.MedianSurvival[1] != 30 {
		t.Errorf("expected months 6 and 30, got %v", ev.MedianSurvival)
	}
}

func TestExtractEvidence_Empty(t *testing.T) {
	ev := ExtractEvidence("EGFR is a receptor tyrosine kinase.")
	if !ev.Empty() {
		t.Errorf("expected no evidence, got %+v", ev)
	}
}

func TestAttachEvidence(t *testing.T) {
	recs := []record.Record{
		pubAbstract("PMID:1", "Trial", "HR, 0.7", 2020),
		{Kind: record.KindGene, ID: "EGFR"},
	}
	AttachEvidence(recs)
	ev, ok := recs[0].Meta[MetaExtracted].(Evidence)
	if !ok || len(ev.HazardRatios) != 1 {
		t.Errorf("expected attached evidence, got %v", recs[0].Meta)
	}
	if recs[1].Meta != nil {
		t.Errorf("expected gene record untouched, got %v", recs[1].Meta)
	}
}

func TestExtractSlots(t *testing.T) {
	s := ExtractSlots("Is osimertinib in phase III NCT02296125 effective for EGFR T790M or rs121434569?", Slots{Genes: []string{"EGFR"}})
	if len(s.NCTIDs) != 1 || s.NCTIDs[0] != "NCT02296125" {
		t.Errorf("unexpected NCT ids %v", s.NCTIDs)
	}
	if len(s.Phases) != 1 || s.Phases[0] != "PHASE3" {
		t.Errorf("unexpected phases %v", s.Phases)
	}
	if len(s.Variants) != 2 {
		t.Errorf("expected T790M and rs id, got %v", s.Variants)
	}
	if len(s.Genes) != 1 {
		t.Errorf("expected base genes to be kept, got %v", s.Genes)
	}
}
