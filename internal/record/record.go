// Package record defines the canonical record schema shared by the research
// pipeline and the answer-card pipeline. Every record carries a Kind
// discriminator and exactly one kind-specific payload.
package record

// Kind discriminates canonical records.
type Kind string

const (
	KindCompound    Kind = "compound"
	KindTarget      Kind = "target"
	KindAssay       Kind = "assay"
	KindPublication Kind = "publication"
	KindTrial       Kind = "trial"
	KindGene        Kind = "gene"
	KindProtein     Kind = "protein"
	KindPathway     Kind = "pathway"
	KindVariant     Kind = "variant"
	KindDisease     Kind = "disease"
	KindDrug        Kind = "drug"
)

// Kinds lists every known kind in display order.
var Kinds = []Kind{
	KindPublication, KindTrial, KindGene, KindProtein, KindPathway,
	KindVariant, KindDisease, KindDrug, KindCompound, KindTarget, KindAssay,
}

// Provenance identifies the tool call that produced a record.
type Provenance struct {
	Server string         `json:"server"`
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args,omitempty"`
}

// Record is the tagged-variant canonical record.
type Record struct {
	Kind   Kind           `json:"kind"`
	ID     string         `json:"id,omitempty"`
	Label  string         `json:"label,omitempty"`
	Xref   []string       `json:"xref,omitempty"`
	Source *Provenance    `json:"source,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`

	Compound    *Compound   `json:"compound,omitempty"`
	Target      *Target     `json:"target,omitempty"`
	Assay       *Assay      `json:"assay,omitempty"`
	Publication *Literature `json:"publication,omitempty"`
	Trial       *Trial      `json:"trial,omitempty"`
}

// SetMeta attaches a derived annotation, allocating the meta bag on demand.
func (r *Record) SetMeta(key string, v any) {
	if r.Meta == nil {
		r.Meta = make(map[string]any)
	}
	r.Meta[key] = v
}

// Text returns the searchable free text of a record.
func (r Record) Text() string {
	switch {
	case r.Publication != nil:
		return joinNonEmpty(r.Publication.Title, r.Publication.Abstract, r.Publication.Journal)
	case r.Trial != nil:
		return joinNonEmpty(append(append([]string{r.Trial.Title}, r.Trial.Conditions...), r.Trial.Interventions...)...)
	}
	return r.Label
}

// FromCompound wraps a compound payload.
func FromCompound(c Compound, src *Provenance) Record {
	return Record{Kind: KindCompound, ID: c.CompoundID, Label: c.Name, Source: src, Compound: &c}
}

// FromTarget wraps a target payload.
func FromTarget(t Target, src *Provenance) Record {
	label := t.PrefName
	if label == "" {
		label = t.Symbol
	}
	var xref []string
	if t.UniProt != "" && t.UniProt != t.TargetID {
		xref = append(xref, "uniprot:"+t.UniProt)
	}
	if t.ChEMBLTargetID != "" && t.ChEMBLTargetID != t.TargetID {
		xref = append(xref, "chembl:"+t.ChEMBLTargetID)
	}
	return Record{Kind: KindTarget, ID: t.TargetID, Label: label, Xref: xref, Source: src, Target: &t}
}

// FromAssay wraps an assay payload.
func FromAssay(a Assay, src *Provenance) Record {
	return Record{Kind: KindAssay, ID: a.AssayID, Label: a.StandardType, Source: src, Assay: &a}
}

// FromLiterature wraps a literature payload as a publication record.
func FromLiterature(l Literature, src *Provenance) Record {
	var xref []string
	if l.PMID != "" {
		xref = append(xref, "pmid:"+l.PMID)
	}
	if l.DOI != "" {
		xref = append(xref, "doi:"+l.DOI)
	}
	return Record{Kind: KindPublication, ID: l.Key, Label: l.Title, Xref: xref, Source: src, Publication: &l}
}

// FromTrial wraps a trial payload.
func FromTrial(tr Trial, src *Provenance) Record {
	return Record{Kind: KindTrial, ID: tr.NCTID, Label: tr.Title, Source: src, Trial: &tr}
}

// Dataset is the merged output of a research run.
type Dataset struct {
	Compounds  []Compound   `json:"compounds"`
	Targets    []Target     `json:"targets"`
	Assays     []Assay      `json:"assays"`
	Literature []Literature `json:"literature"`
}

// Split routes canonical records of the dataset kinds back into a Dataset.
// Records of other kinds are ignored.
func Split(recs []Record) Dataset {
	var d Dataset
	for _, r := range recs {
		switch {
		case r.Compound != nil:
			d.Compounds = append(d.Compounds, *r.Compound)
		case r.Target != nil:
			d.Targets = append(d.Targets, *r.Target)
		case r.Assay != nil:
			d.Assays = append(d.Assays, *r.Assay)
		case r.Publication != nil:
			d.Literature = append(d.Literature, *r.Publication)
		}
	}
	return d
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}
