package normalize

import (
	"strings"

	"github.com/henrybloomingdale/biofan/internal/identity"
	"github.com/henrybloomingdale/biofan/internal/record"
)

// ChEMBLTarget maps a ChEMBL target search row onto a Target. target_id
// resolves the component accession, then the ChEMBL id, then "target", so an
// unresolved target can still be joined against activities.
func ChEMBLTarget(row map[string]any) record.Target {
	acc, organism := identity.ExtractAccession(row)
	t := record.Target{
		UniProt:        acc,
		ChEMBLTargetID: str(row, "target_chembl_id"),
		PrefName:       str(row, "pref_name"),
		OrganismName:   strings.TrimSpace(organism),
		OrganismTaxID:  str(row, "tax_id"),
		Symbol:         chemblGeneSymbol(row),
		Source:         "chembl",
	}
	switch {
	case t.UniProt != "":
		t.TargetID = t.UniProt
	case t.ChEMBLTargetID != "":
		t.TargetID = t.ChEMBLTargetID
	default:
		t.TargetID = "target"
	}
	return t
}

// ChEMBLTargetsPayload normalizes a ChEMBL target search response.
func ChEMBLTargetsPayload(payload any) []record.Target {
	rows := Rows(payload, "targets")
	out := make([]record.Target, 0, len(rows))
	for _, row := range rows {
		out = append(out, ChEMBLTarget(row))
	}
	return out
}

func chemblGeneSymbol(row map[string]any) string {
	comps := Rows(row, "target_components")
	if len(comps) == 0 {
		return ""
	}
	for _, syn := range Rows(comps[0], "target_component_synonyms") {
		if str(syn, "syn_type") == "GENE_SYMBOL" {
			return str(syn, "component_synonym")
		}
	}
	return ""
}

// UniProtEntry maps a UniProt search hit onto a Target. UniProt is
// authoritative for target_id.
func UniProtEntry(row map[string]any) record.Target {
	t := record.Target{
		UniProt: str(row, "primaryAccession"),
		Source:  "uniprot",
	}
	if full := obj(row, "proteinDescription", "recommendedName", "fullName"); full != nil {
		t.PrefName = str(full, "value")
	}
	if t.PrefName == "" {
		if subs := Rows(obj(row, "proteinDescription"), "submissionNames"); len(subs) > 0 {
			if full := obj(subs[0], "fullName"); full != nil {
				t.PrefName = str(full, "value")
			}
		}
	}
	if genes := Rows(row, "genes"); len(genes) > 0 {
		if gn := obj(genes[0], "geneName"); gn != nil {
			t.Symbol = str(gn, "value")
		}
	}
	if org := obj(row, "organism"); org != nil {
		t.OrganismName = str(org, "scientificName")
		t.OrganismTaxID = str(org, "taxonId")
	}
	t.TargetID = t.UniProt
	if t.TargetID == "" {
		t.TargetID = "target"
	}
	return t
}

// UniProtPayload normalizes a UniProt REST search response.
func UniProtPayload(payload any) []record.Target {
	rows := Rows(payload, "results")
	out := make([]record.Target, 0, len(rows))
	for _, row := range rows {
		out = append(out, UniProtEntry(row))
	}
	return out
}
