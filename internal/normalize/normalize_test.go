package normalize

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return v
}

func decodeRow(t *testing.T, s string) map[string]any {
	t.Helper()
	m, ok := decode(t, s).(map[string]any)
	if !ok {
		t.Fatalf("fixture is not an object: %s", s)
	}
	return m
}

func TestPubChemProperties_Scenario(t *testing.T) {
	row := map[string]any{
		"InChIKey":        "AAAAAAAAAAAAAA-BBBBBBBBBB-C",
		"CID":             "100",
		"MolecularWeight": "180.16",
		"TPSA":            "63.6",
	}
	c := PubChemProperties(row, "aspirin")
	if c.CompoundID != "AAAAAAAAAAAAAA-BBBBBBBBBB-C" {
		t.Errorf("expected compound_id %q, got %q", "AAAAAAAAAAAAAA-BBBBBBBBBB-C", c.CompoundID)
	}
	if c.InChIKey14 != "AAAAAAAAAAAAAA" {
		t.Errorf("expected inchikey14 %q, got %q", "AAAAAAAAAAAAAA", c.InChIKey14)
	}
	if c.MW == nil || *c.MW != 180.16 {
		t.Errorf("expected mw 180.16, got %v", c.MW)
	}
	if c.TPSA == nil || *c.TPSA != 63.6 {
		t.Errorf("expected tpsa 63.6, got %v", c.TPSA)
	}
	if c.XLogP != nil {
		t.Errorf("expected xlogp absent, got %v", *c.XLogP)
	}
}

func TestPubChemProperties_IDFallbacks(t *testing.T) {
	tests := []struct {
		name string
		row  map[string]any
		hint string
		want string
	}{
		{"cid number", map[string]any{"CID": float64(2244)}, "aspirin", "2244"},
		{"name hint", map[string]any{}, "aspirin", "aspirin"},
		{"literal", map[string]any{}, "", "compound"},
		{"lowercase inchikey", map[string]any{"inchikey": "BSYNRYMUTXBXSQ-UHFFFAOYSA-N"}, "", "BSYNRYMUTXBXSQ-UHFFFAOYSA-N"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := PubChemProperties(tt.row, tt.hint)
			if c.CompoundID != tt.want {
				t.Errorf("expected compound_id %q, got %q", tt.want, c.CompoundID)
			}
		})
	}
}

func TestPubChemProperties_Malformed(t *testing.T) {
	row := map[string]any{
		"InChIKey":        "not-a-key",
		"MolecularWeight": "heavy",
		"TPSA":            []any{1},
		"SMILES":          "CC(=O)O",
		"Formula":         "C2H4O2",
	}
	c := PubChemProperties(row, "")
	if c.InChIKey14 != "" {
		t.Errorf("expected empty inchikey14 for malformed key, got %q", c.InChIKey14)
	}
	if c.MW != nil || c.TPSA != nil {
		t.Errorf("expected unparseable numbers to be absent, got mw=%v tpsa=%v", c.MW, c.TPSA)
	}
	if c.SMILES != "CC(=O)O" || c.Formula != "C2H4O2" {
		t.Errorf("expected alternate field names to be read, got smiles=%q formula=%q", c.SMILES, c.Formula)
	}
}

func TestPubChemPayload(t *testing.T) {
	p := decode(t, `{"PropertyTable":{"Properties":[
		{"CID":2244,"MolecularWeight":"180.16","InChIKey":"BSYNRYMUTXBXSQ-UHFFFAOYSA-N","CanonicalSMILES":"CC(=O)OC1=CC=CC=C1C(=O)O"},
		{"CID":5090}
	]}}`)
	got := PubChemPayload(p, "aspirin")
	if len(got) != 2 {
		t.Fatalf("expected 2 compounds, got %d", len(got))
	}
	if got[0].CID != "2244" {
		t.Errorf("expected cid %q, got %q", "2244", got[0].CID)
	}
	if got[1].CompoundID != "5090" {
		t.Errorf("expected compound_id %q, got %q", "5090", got[1].CompoundID)
	}
	if got := PubChemPayload("garbage", ""); len(got) != 0 {
		t.Errorf("expected no compounds for garbage payload, got %d", len(got))
	}
}

func TestChEMBLTarget(t *testing.T) {
	row := decodeRow(t, `{
		"target_chembl_id":"CHEMBL203",
		"pref_name":"Epidermal growth factor receptor erbB1",
		"organism":"Homo sapiens",
		"tax_id":9606,
		"target_components":[{"accession":"P00533","target_component_synonyms":[
			{"component_synonym":"ERBB1","syn_type":"GENE_SYMBOL_OTHER"},
			{"component_synonym":"EGFR","syn_type":"GENE_SYMBOL"}
		]}]
	}`)
	tg := ChEMBLTarget(row)
	if tg.TargetID != "P00533" {
		t.Errorf("expected target_id %q, got %q", "P00533", tg.TargetID)
	}
	if tg.ChEMBLTargetID != "CHEMBL203" {
		t.Errorf("expected chembl id %q, got %q", "CHEMBL203", tg.ChEMBLTargetID)
	}
	if tg.Symbol != "EGFR" {
		t.Errorf("expected symbol %q, got %q", "EGFR", tg.Symbol)
	}
	if tg.OrganismTaxID != "9606" {
		t.Errorf("expected taxid %q, got %q", "9606", tg.OrganismTaxID)
	}
}

func TestChEMBLTarget_Fallbacks(t *testing.T) {
	tg := ChEMBLTarget(map[string]any{"target_chembl_id": "CHEMBL9999"})
	if tg.TargetID != "CHEMBL9999" {
		t.Errorf("expected target_id to fall back to ChEMBL id, got %q", tg.TargetID)
	}
	if tg.UniProt != "" {
		t.Errorf("expected empty uniprot, got %q", tg.UniProt)
	}

	tg = ChEMBLTarget(map[string]any{})
	if tg.TargetID != "target" {
		t.Errorf("expected literal %q, got %q", "target", tg.TargetID)
	}
}

func TestChEMBLActivity_Unlinked(t *testing.T) {
	row := map[string]any{
		"assay_chembl_id":  "CHEMBL1000",
		"target_chembl_id": "CHEMBL9999",
		"standard_type":    "IC50",
		"standard_value":   float64(12.5),
		"standard_units":   "nM",
		"pchembl_value":    "7.90",
	}
	a := ChEMBLActivity(row, map[string]string{})
	if a.TargetID != "" {
		t.Errorf("expected unset target_id, got %q", a.TargetID)
	}
	if a.Linked() {
		t.Error("expected assay to be unlinked")
	}
	if a.StandardValue != "12.5" {
		t.Errorf("expected standard_value %q, got %q", "12.5", a.StandardValue)
	}
	if a.PChEMBL == nil || *a.PChEMBL != 7.9 {
		t.Errorf("expected pchembl 7.9, got %v", a.PChEMBL)
	}
	if a.Source != "chembl" {
		t.Errorf("expected source %q, got %q", "chembl", a.Source)
	}
}

func TestChEMBLActivity_Linked(t *testing.T) {
	row := map[string]any{"activity_id": float64(31863), "target_chembl_id": "CHEMBL203"}
	a := ChEMBLActivity(row, map[string]string{"CHEMBL203": "P00533"})
	if a.TargetID != "P00533" {
		t.Errorf("expected target_id %q, got %q", "P00533", a.TargetID)
	}
	if a.AssayID != "31863" {
		t.Errorf("expected assay_id fallback to activity_id, got %q", a.AssayID)
	}
	a = ChEMBLActivity(row, nil)
	if a.TargetID != "" {
		t.Errorf("expected nil lookup to leave target_id unset, got %q", a.TargetID)
	}
}

func TestUniProtEntry(t *testing.T) {
	row := decodeRow(t, `{
		"primaryAccession":"P00533",
		"proteinDescription":{"recommendedName":{"fullName":{"value":"Epidermal growth factor receptor"}}},
		"genes":[{"geneName":{"value":"EGFR"}}],
		"organism":{"scientificName":"Homo sapiens","taxonId":9606}
	}`)
	tg := UniProtEntry(row)
	if tg.TargetID != "P00533" || tg.UniProt != "P00533" {
		t.Errorf("expected P00533 as target_id and uniprot, got %q / %q", tg.TargetID, tg.UniProt)
	}
	if tg.PrefName != "Epidermal growth factor receptor" {
		t.Errorf("unexpected pref_name %q", tg.PrefName)
	}
	if tg.Symbol != "EGFR" || tg.OrganismName != "Homo sapiens" || tg.OrganismTaxID != "9606" {
		t.Errorf("unexpected symbol/organism: %+v", tg)
	}
}

func TestUniProtEntry_SubmissionName(t *testing.T) {
	row := decodeRow(t, `{"primaryAccession":"A0A024R161","proteinDescription":{"submissionNames":[{"fullName":{"value":"DNA damage-inducible"}}]}}`)
	tg := UniProtEntry(row)
	if tg.PrefName != "DNA damage-inducible" {
		t.Errorf("expected submission name fallback, got %q", tg.PrefName)
	}
}

func TestPubMedIDList(t *testing.T) {
	p := decode(t, `{"esearchresult":{"count":"2","idlist":["111","222"]}}`)
	lits := PubMedIDList(p)
	if len(lits) != 2 {
		t.Fatalf("expected 2 records, got %d", len(lits))
	}
	if lits[0].Key != "PMID:111" || lits[0].Source != "pubmed" {
		t.Errorf("unexpected first record %+v", lits[0])
	}
	if got := PubMedIDList(decode(t, `{"error":"bad"}`)); len(got) != 0 {
		t.Errorf("expected no records for error payload, got %d", len(got))
	}
}

func TestEuropePMCResults(t *testing.T) {
	p := decode(t, `{"resultList":{"result":[
		{"id":"1","source":"MED","pmid":"1","doi":"10.1/X","title":"A title.","pubYear":"2021","journalTitle":"Nature"},
		{"id":"PPR1","source":"PPR","doi":"10.2/y","title":"Preprint"},
		{"id":"PMC5","source":"PMC","pmcid":"PMC5","title":"Full text"},
		{"id":"AGR:9","source":"AGR","title":"Agricola"},
		{}
	]}}`)
	lits := EuropePMCResults(p)
	if len(lits) != 5 {
		t.Fatalf("expected 5 records, got %d", len(lits))
	}
	wantKeys := []string{"PMID:1", "DOI:10.2/y", "PMCID:PMC5", "EPMC:AGR:9", "europepmc"}
	for i, want := range wantKeys {
		if lits[i].Key != want {
			t.Errorf("record %d: expected key %q, got %q", i, want, lits[i].Key)
		}
	}
	if lits[0].DOI != "10.1/x" {
		t.Errorf("expected normalized doi, got %q", lits[0].DOI)
	}
	if lits[0].Year != 2021 || lits[0].Title != "A title" {
		t.Errorf("unexpected year/title: %d %q", lits[0].Year, lits[0].Title)
	}
}

func TestOpenAlexWorks(t *testing.T) {
	p := decode(t, `{"results":[
		{"id":"https://openalex.org/W1","doi":"https://doi.org/10.1/X","title":"Work one","publication_year":2019,
		 "ids":{"pmid":"https://pubmed.ncbi.nlm.nih.gov/42"},
		 "primary_location":{"source":{"display_name":"Cell"}},
		 "abstract_inverted_index":{"EGFR":[0],"drives":[1],"growth":[2]}},
		{"id":"https://openalex.org/W2","doi":"https://doi.org/10.3/z","display_name":"Work two"},
		{"id":"https://openalex.org/W3"}
	]}`)
	lits := OpenAlexWorks(p)
	if len(lits) != 3 {
		t.Fatalf("expected 3 records, got %d", len(lits))
	}
	if lits[0].Key != "PMID:42" || lits[0].DOI != "10.1/x" || lits[0].Journal != "Cell" {
		t.Errorf("unexpected first work %+v", lits[0])
	}
	if lits[0].Abstract != "EGFR drives growth" {
		t.Errorf("expected rebuilt abstract, got %q", lits[0].Abstract)
	}
	if lits[1].Key != "DOI:10.3/z" || lits[1].Title != "Work two" {
		t.Errorf("unexpected second work %+v", lits[1])
	}
	if lits[2].Key != "OPENALEX:W3" {
		t.Errorf("expected source-specific key, got %q", lits[2].Key)
	}
}

func TestClinicalTrialsStudies(t *testing.T) {
	p := decode(t, `{"studies":[
		{"protocolSection":{
			"identificationModule":{"nctId":"NCT01","briefTitle":"Osimertinib in EGFR NSCLC"},
			"statusModule":{"overallStatus":"RECRUITING","startDateStruct":{"date":"2021-03"}},
			"designModule":{"phases":["PHASE2","PHASE3"]},
			"conditionsModule":{"conditions":["NSCLC"]},
			"armsInterventionsModule":{"interventions":[{"name":"Osimertinib"}]}
		}},
		{"protocolSection":{}}
	]}`)
	trials := ClinicalTrialsStudies(p)
	if len(trials) != 1 {
		t.Fatalf("expected 1 trial, got %d", len(trials))
	}
	tr := trials[0]
	if tr.NCTID != "NCT01" || tr.Status != "RECRUITING" || tr.Phase != "PHASE2, PHASE3" || tr.StartYear != 2021 {
		t.Errorf("unexpected trial %+v", tr)
	}
	if len(tr.Interventions) != 1 || tr.Interventions[0] != "Osimertinib" {
		t.Errorf("unexpected interventions %v", tr.Interventions)
	}
}

func TestNormalizersNeverPanicOnGarbage(t *testing.T) {
	garbage := []any{nil, "x", 1.0, []any{1, "a"}, map[string]any{"resultList": 3, "results": "no"}}
	for _, g := range garbage {
		_ = PubChemPayload(g, "")
		_ = ChEMBLTargetsPayload(g)
		_ = ChEMBLActivities(ActivityRows(g), nil)
		_ = UniProtPayload(g)
		_ = PubMedIDList(g)
		_ = EuropePMCResults(g)
		_ = OpenAlexWorks(g)
		_ = ClinicalTrialsStudies(g)
	}
}
