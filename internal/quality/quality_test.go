package quality

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/henrybloomingdale/biofan/internal/record"
)

func fp(v float64) *float64 { return &v }

func TestSummarize_EmptyDataset(t *testing.T) {
	r := Summarize(record.Dataset{})
	if r.Counts != (Counts{}) {
		t.Errorf("expected zero counts, got %+v", r.Counts)
	}
	for _, name := range MetricOrder {
		v, ok := r.Metrics[name]
		if !ok {
			t.Errorf("missing metric %s", name)
			continue
		}
		if v != 0 || math.IsNaN(v) {
			t.Errorf("metric %s: expected 0, got %v", name, v)
		}
	}
	if len(r.Notes) != 5 {
		t.Fatalf("expected every threshold to be flagged, got %d notes: %v", len(r.Notes), r.Notes)
	}
	for _, want := range []string{"InChIKey", "UniProt", "linked", "pChEMBL", "uniqueness"} {
		found := false
		for _, n := range r.Notes {
			if strings.Contains(n, want) {
				found = true
			}
		}
		if !found {
			t.Errorf("expected a note mentioning %q, got %v", want, r.Notes)
		}
	}
}

func TestSummarize_Metrics(t *testing.T) {
	d := record.Dataset{
		Compounds: []record.Compound{
			{InChIKey: "AAAAAAAAAAAAAA-BBBBBBBBBB-C", MW: fp(1), TPSA: fp(2)},
			{InChIKey: "AAAAAAAAAAAAAA-BBBBBBBBBB-C", MW: fp(1)},
			{CID: "5"},
			{InChIKey: "CCCCCCCCCCCCCC-BBBBBBBBBB-C", MW: fp(1), TPSA: fp(2)},
		},
		Targets: []record.Target{
			{UniProt: "P00533", ChEMBLTargetID: "CHEMBL203"},
			{ChEMBLTargetID: "CHEMBL9999"},
		},
		Assays: []record.Assay{
			{StandardValue: "12.5", PChEMBL: fp(7.9), TargetID: "P00533"},
			{StandardValue: ">10", ChEMBLTargetID: "CHEMBL9999"},
		},
		Literature: []record.Literature{
			{Key: "PMID:1", PMID: "1", DOI: "10.1/x"},
			{Key: "PMID:1", PMID: "1"},
			{Key: "DOI:10.2/y", DOI: "10.2/y"},
			{Key: "openalex"},
		},
	}
	r := Summarize(d)
	want := map[string]float64{
		CompoundInChIKeyPct:   75,
		CompoundPropertyPct:   50,
		CompoundDuplicateKeys: 1,
		TargetUniProtPct:      50,
		TargetChEMBLPct:       100,
		AssayPChEMBLPct:       50,
		AssayNumericValuePct:  50,
		AssayTargetLinkedPct:  50,
		LiteratureUniqueRatio: 0.75,
		LiteraturePMIDPct:     50,
		LiteratureDOIPct:      50,
	}
	for k, v := range want {
		if r.Metrics[k] != v {
			t.Errorf("%s: expected %v, got %v", k, v, r.Metrics[k])
		}
	}
	if r.Counts.Assays != 2 || r.Counts.Literature != 4 {
		t.Errorf("unexpected counts %+v", r.Counts)
	}
	// InChIKey 75 < 80 and literature 0.75 < 0.8 only.
	if len(r.Notes) != 2 {
		t.Errorf("expected 2 notes, got %v", r.Notes)
	}
}

func TestSummarize_DuplicateKeysWithMissingKeys(t *testing.T) {
	tests := []struct {
		name      string
		compounds []record.Compound
		want      float64
	}{
		{"cid only rows", []record.Compound{
			{CID: "1"}, {CID: "2"}, {CID: "3"},
			{CID: "4", InChIKey: "BSYNRYMUTXBXSQ-UHFFFAOYSA-N"},
		}, 2},
		{"single cid only row", []record.Compound{{CID: "1"}}, 0},
		{"keys repeated and missing", []record.Compound{
			{InChIKey: "BSYNRYMUTXBXSQ-UHFFFAOYSA-N"},
			{InChIKey: "BSYNRYMUTXBXSQ-UHFFFAOYSA-N"},
			{CID: "9"},
		}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Summarize(record.Dataset{Compounds: tt.compounds})
			if got := r.Metrics[CompoundDuplicateKeys]; got != tt.want {
				t.Errorf("expected %v duplicates, got %v", tt.want, got)
			}
		})
	}
}

func TestSummarize_UnlinkedAssayCountsInTotal(t *testing.T) {
	d := record.Dataset{Assays: []record.Assay{{AssayID: "A1", ChEMBLTargetID: "CHEMBL9999"}}}
	r := Summarize(d)
	if r.Counts.Assays != 1 {
		t.Errorf("expected assay in total count, got %d", r.Counts.Assays)
	}
	if r.Metrics[AssayTargetLinkedPct] != 0 {
		t.Errorf("expected 0%% linked, got %v", r.Metrics[AssayTargetLinkedPct])
	}
}

func TestSummarize_CoverageBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 100; trial++ {
		var d record.Dataset
		for i := rng.Intn(20); i > 0; i-- {
			c := record.Compound{}
			if rng.Intn(2) == 0 {
				c.InChIKey = fmt.Sprintf("K%d", rng.Intn(3))
			}
			if rng.Intn(2) == 0 {
				c.MW, c.TPSA = fp(1), fp(1)
			}
			d.Compounds = append(d.Compounds, c)
		}
		for i := rng.Intn(20); i > 0; i-- {
			a := record.Assay{}
			if rng.Intn(2) == 0 {
				a.TargetID = "P1"
			}
			if rng.Intn(2) == 0 {
				a.StandardValue = "1"
			}
			d.Assays = append(d.Assays, a)
		}
		for i := rng.Intn(20); i > 0; i-- {
			d.Literature = append(d.Literature, record.Literature{Key: fmt.Sprintf("PMID:%d", rng.Intn(5))})
		}
		r := Summarize(d)
		for name, v := range r.Metrics {
			if name == CompoundDuplicateKeys {
				if v < 0 {
					t.Errorf("negative duplicate count %v", v)
				}
				continue
			}
			if v < 0 || v > 100 || math.IsNaN(v) {
				t.Errorf("trial %d: metric %s out of bounds: %v", trial, name, v)
			}
		}
		if r.Metrics[LiteratureUniqueRatio] > 1 {
			t.Errorf("unique ratio above 1: %v", r.Metrics[LiteratureUniqueRatio])
		}
	}
}
