package rank

import (
	"fmt"
	"testing"

	"github.com/henrybloomingdale/biofan/internal/record"
)

func pub(key, title string, year int) record.Record {
	return record.FromLiterature(record.Literature{Key: key, Title: title, Year: year}, nil)
}

func pubAbstract(key, title, abstract string, year int) record.Record {
	return record.FromLiterature(record.Literature{Key: key, Title: title, Abstract: abstract, Year: year}, nil)
}

func trial(id, status, phase string, conditions ...string) record.Record {
	return record.FromTrial(record.Trial{NCTID: id, Title: id, Status: status, Phase: phase, Conditions: conditions}, nil)
}

func TestSortPublications_TieBreakByTitle(t *testing.T) {
	recs := []record.Record{
		pub("PMID:2", "beta Study", 2020),
		pub("PMID:1", "Alpha Study", 2020),
	}
	SortPublications(recs, Slots{})
	if recs[0].Label != "Alpha Study" {
		t.Errorf("expected %q first, got %q", "Alpha Study", recs[0].Label)
	}
}

func TestSortPublications_TieBreakByYear(t *testing.T) {
	// 2009 and 2005 both score zero recency.
	recs := []record.Record{
		pub("PMID:1", "Alpha Study", 2005),
		pub("PMID:2", "Beta Study", 2009),
	}
	SortPublications(recs, Slots{})
	if recs[0].Label != "Beta Study" {
		t.Errorf("expected newer publication first, got %q", recs[0].Label)
	}
}

func TestScorePublication_Weights(t *testing.T) {
	tests := []struct {
		name string
		rec  record.Record
		want float64
	}{
		{"plain", pub("k", "Observations on cells", 0), 0},
		{"trial", pub("k", "A randomized controlled trial of X", 0), 6},
		{"meta", pub("k", "A pooled analysis of X", 0), 5},
		{"meta and review", pub("k", "A systematic review and meta-analysis", 0), 3},
		{"review", pub("k", "A narrative review of X", 0), -2},
		{"preprint", pub("k", "X (medRxiv preprint)", 0), -1},
		{"hazard ratio", pubAbstract("k", "Outcomes", "HR 0.62 for death", 0), 3},
		{"median survival", pubAbstract("k", "Outcomes", "Median overall survival was 18.6 months", 0), 3},
		{"cutoff", pubAbstract("k", "Outcomes", "using a cutoff of 50%", 0), 1},
		{"recency mid", pub("k", "Observations", 2015), 1},
		{"recency cap", pub("k", "Observations", 2030), 3},
		{"recency floor", pub("k", "Observations", 1999), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScorePublication(tt.rec, Slots{})
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestScorePublication_SlotBump(t *testing.T) {
	r := pubAbstract("k", "EGFR inhibition with osimertinib in lung cancer", "T790M carriers", 0)
	s := Slots{Genes: []string{"EGFR"}, Drugs: []string{"Osimertinib"}, Diseases: []string{"lung cancer"}, Variants: []string{"T790M"}}
	if got := ScorePublication(r, s); got != 1.75 {
		t.Errorf("expected 1.75, got %v", got)
	}
	// Substring of a longer word does not count.
	r = pub("k", "EGFRvIII signalling", 0)
	if got := ScorePublication(r, Slots{Genes: []string{"EGFR"}}); got != 0 {
		t.Errorf("expected no slot bump for substring match, got %v", got)
	}
}

func TestRecency(t *testing.T) {
	tests := map[int]float64{0: 0, 2010: 0, 2012: 0.4, 2020: 2, 2025: 3, 2040: 3}
	for year, want := range tests {
		if got := Recency(year); got != want {
			t.Errorf("Recency(%d): expected %v, got %v", year, want, got)
		}
	}
}

func TestScoreTrial(t *testing.T) {
	tests := []struct {
		name string
		rec  record.Record
		want float64
	}{
		{"recruiting phase 3", trial("NCT1", "RECRUITING", "PHASE3"), 7},
		{"not yet recruiting phase 1", trial("NCT2", "NOT_YET_RECRUITING", "PHASE1"), 5},
		{"active phase 2/3", trial("NCT3", "ACTIVE_NOT_RECRUITING", "PHASE2, PHASE3"), 6},
		{"completed phase IV", trial("NCT4", "Completed", "Phase IV"), 6},
		{"terminated", trial("NCT5", "TERMINATED", ""), 0},
		{"enrolling by invitation", trial("NCT7", "ENROLLING_BY_INVITATION", ""), 0},
		{"slot match", trial("NCT6", "", "", "Non-small cell lung cancer"), 1},
	}
	s := Slots{Diseases: []string{"lung cancer"}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreTrial(tt.rec, s); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRank_TruncatesAfterSorting(t *testing.T) {
	var recs []record.Record
	for i := 0; i < 20; i++ {
		recs = append(recs, pub(fmt.Sprintf("PMID:%d", i), fmt.Sprintf("Observations %02d", i), 2000))
	}
	// Best item is last in input order.
	recs = append(recs, pub("PMID:best", "A randomized trial", 2024))
	for i := 0; i < 14; i++ {
		recs = append(recs, trial(fmt.Sprintf("NCT%08d", i), "COMPLETED", "PHASE1"))
	}
	recs = append(recs, trial("NCT99999999", "RECRUITING", "PHASE3"))

	got := Rank(recs, Slots{}, DefaultCaps())
	pubs := got[record.KindPublication]
	if len(pubs) != 15 {
		t.Fatalf("expected 15 publications, got %d", len(pubs))
	}
	if pubs[0].ID != "PMID:best" {
		t.Errorf("expected best publication to be retained first, got %q", pubs[0].ID)
	}
	trials := got[record.KindTrial]
	if len(trials) != 12 || trials[0].ID != "NCT99999999" {
		t.Errorf("expected 12 trials led by NCT99999999, got %d led by %q", len(trials), trials[0].ID)
	}
	if trials[0].Meta[MetaScore] != 7.0 {
		t.Errorf("expected score attached to meta, got %v", trials[0].Meta[MetaScore])
	}
}

func TestRank_GeneCapWidenedByQueryGenes(t *testing.T) {
	var recs []record.Record
	for i := 0; i < 25; i++ {
		recs = append(recs, record.Record{Kind: record.KindGene, ID: fmt.Sprintf("G%dX", i)})
	}
	got := Rank(recs, Slots{Genes: []string{"EGFR", "KRAS"}}, DefaultCaps())
	if len(got[record.KindGene]) != 22 {
		t.Errorf("expected 22 genes, got %d", len(got[record.KindGene]))
	}
}

func TestTruncate(t *testing.T) {
	recs := []record.Record{{ID: "a"}, {ID: "b"}}
	if len(Truncate(recs, 0)) != 2 || len(Truncate(recs, 1)) != 1 || len(Truncate(recs, 5)) != 2 {
		t.Error("unexpected truncation")
	}
}
