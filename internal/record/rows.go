package record

import (
	"strconv"
	"strings"
)

// Row flattens a compound for delimited-text export. Empty fields are omitted
// so the table header is the union of populated keys.
func (c Compound) Row() map[string]string {
	r := map[string]string{}
	put(r, "compound_id", c.CompoundID)
	put(r, "name", c.Name)
	put(r, "inchikey", c.InChIKey)
	put(r, "inchikey14", c.InChIKey14)
	put(r, "cid", c.CID)
	put(r, "smiles", c.SMILES)
	put(r, "formula", c.Formula)
	putFloat(r, "mw", c.MW)
	putFloat(r, "xlogp", c.XLogP)
	putFloat(r, "tpsa", c.TPSA)
	put(r, "sources", strings.Join(c.Sources, ";"))
	return r
}

// Row flattens a target for delimited-text export.
func (t Target) Row() map[string]string {
	r := map[string]string{}
	put(r, "target_id", t.TargetID)
	put(r, "uniprot", t.UniProt)
	put(r, "chembl_target_id", t.ChEMBLTargetID)
	put(r, "symbol", t.Symbol)
	put(r, "pref_name", t.PrefName)
	put(r, "organism_name", t.OrganismName)
	put(r, "organism_taxid", t.OrganismTaxID)
	put(r, "source", t.Source)
	put(r, "sources", strings.Join(t.Sources, ";"))
	return r
}

// Row flattens an assay for delimited-text export.
func (a Assay) Row() map[string]string {
	r := map[string]string{}
	put(r, "assay_id", a.AssayID)
	put(r, "source", a.Source)
	put(r, "target_id", a.TargetID)
	put(r, "chembl_target_id", a.ChEMBLTargetID)
	put(r, "standard_type", a.StandardType)
	put(r, "standard_value", a.StandardValue)
	put(r, "standard_units", a.StandardUnits)
	putFloat(r, "pchembl_value", a.PChEMBL)
	put(r, "molecule_chembl_id", a.MoleculeChEMBLID)
	return r
}

// Row flattens a literature record for delimited-text export.
func (l Literature) Row() map[string]string {
	r := map[string]string{}
	put(r, "key", l.Key)
	put(r, "pmid", l.PMID)
	put(r, "doi", l.DOI)
	put(r, "pmcid", l.PMCID)
	put(r, "title", l.Title)
	if l.Year > 0 {
		r["year"] = strconv.Itoa(l.Year)
	}
	put(r, "journal", l.Journal)
	put(r, "pub_type", l.PubType)
	put(r, "source", l.Source)
	return r
}

func put(r map[string]string, k, v string) {
	if v != "" {
		r[k] = v
	}
}

func putFloat(r map[string]string, k string, v *float64) {
	if v != nil {
		r[k] = strconv.FormatFloat(*v, 'f', -1, 64)
	}
}
