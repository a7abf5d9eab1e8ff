package rank

import (
	"sort"

	"golang.org/x/text/cases"

	"github.com/henrybloomingdale/biofan/internal/record"
)

// MetaScore is the meta key under which a record's score is attached.
const MetaScore = "score"

// Caps are per-kind display limits applied after sorting.
type Caps struct {
	Publications int `json:"publications"`
	Trials       int `json:"trials"`
	Genes        int `json:"genes"`
	Other        int `json:"other"`
}

// DefaultCaps returns the standard display limits.
func DefaultCaps() Caps {
	return Caps{Publications: 15, Trials: 12, Genes: 20, Other: 12}
}

func (c Caps) limit(k record.Kind) int {
	switch k {
	case record.KindPublication:
		return c.Publications
	case record.KindTrial:
		return c.Trials
	case record.KindGene:
		return c.Genes
	}
	return c.Other
}

// SortPublications orders publications by score descending, then year
// descending, then case-insensitive title.
func SortPublications(recs []record.Record, s Slots) {
	fold := cases.Fold()
	scores := make([]float64, len(recs))
	for i := range recs {
		scores[i] = ScorePublication(recs[i], s)
		recs[i].SetMeta(MetaScore, scores[i])
	}
	idx := order(len(recs))
	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		if scores[i] != scores[j] {
			return scores[i] > scores[j]
		}
		yi, yj := pubYear(recs[i]), pubYear(recs[j])
		if yi != yj {
			return yi > yj
		}
		return fold.String(recs[i].Label) < fold.String(recs[j].Label)
	})
	permute(recs, idx)
}

// SortTrials orders trials by score descending, then NCT id.
func SortTrials(recs []record.Record, s Slots) {
	scores := make([]float64, len(recs))
	for i := range recs {
		scores[i] = ScoreTrial(recs[i], s)
		recs[i].SetMeta(MetaScore, scores[i])
	}
	idx := order(len(recs))
	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		if scores[i] != scores[j] {
			return scores[i] > scores[j]
		}
		return recs[i].ID < recs[j].ID
	})
	permute(recs, idx)
}

// Rank groups records by kind, orders publications and trials by score and
// truncates every group to its cap. The gene cap bounds mined genes only, so
// it is widened by the number of query genes. Kinds without a scorer keep
// their input order. Records are copied; the input is not reordered.
func Rank(recs []record.Record, s Slots, caps Caps) map[record.Kind][]record.Record {
	groups := make(map[record.Kind][]record.Record)
	for _, r := range recs {
		groups[r.Kind] = append(groups[r.Kind], r)
	}
	for k, g := range groups {
		switch k {
		case record.KindPublication:
			SortPublications(g, s)
		case record.KindTrial:
			SortTrials(g, s)
		}
		limit := caps.limit(k)
		if k == record.KindGene && limit > 0 {
			limit += len(s.Genes)
		}
		groups[k] = Truncate(g, limit)
	}
	return groups
}

// Truncate keeps the first n records. Non-positive n keeps everything.
func Truncate(recs []record.Record, n int) []record.Record {
	if n <= 0 || len(recs) <= n {
		return recs
	}
	return recs[:n]
}

func order(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func permute(recs []record.Record, idx []int) {
	sorted := make([]record.Record, len(recs))
	for to, from := range idx {
		sorted[to] = recs[from]
	}
	copy(recs, sorted)
}
