package record

import (
	"strconv"
	"strings"
)

// Compound is a small molecule keyed by InChIKey where available.
type Compound struct {
	CompoundID string   `json:"compound_id"`
	Name       string   `json:"name,omitempty"`
	InChIKey   string   `json:"inchikey,omitempty"`
	InChIKey14 string   `json:"inchikey14,omitempty"`
	CID        string   `json:"cid,omitempty"`
	SMILES     string   `json:"smiles,omitempty"`
	Formula    string   `json:"formula,omitempty"`
	MW         *float64 `json:"mw,omitempty"`
	XLogP      *float64 `json:"xlogp,omitempty"`
	TPSA       *float64 `json:"tpsa,omitempty"`
	Sources    []string `json:"sources,omitempty"`
}

// Target is a protein target keyed by UniProt accession where available.
type Target struct {
	TargetID       string   `json:"target_id"`
	UniProt        string   `json:"uniprot,omitempty"`
	ChEMBLTargetID string   `json:"chembl_target_id,omitempty"`
	Symbol         string   `json:"symbol,omitempty"`
	PrefName       string   `json:"pref_name,omitempty"`
	OrganismName   string   `json:"organism_name,omitempty"`
	OrganismTaxID  string   `json:"organism_taxid,omitempty"`
	Source         string   `json:"source,omitempty"`
	Sources        []string `json:"sources,omitempty"`
}

// Assay is a single ChEMBL activity measurement.
type Assay struct {
	AssayID          string   `json:"assay_id"`
	Source           string   `json:"source"`
	TargetID         string   `json:"target_id,omitempty"`
	ChEMBLTargetID   string   `json:"chembl_target_id,omitempty"`
	StandardType     string   `json:"standard_type,omitempty"`
	StandardValue    string   `json:"standard_value,omitempty"`
	StandardUnits    string   `json:"standard_units,omitempty"`
	PChEMBL          *float64 `json:"pchembl_value,omitempty"`
	MoleculeChEMBLID string   `json:"molecule_chembl_id,omitempty"`
}

// Linked reports whether the assay has been joined to a normalized target.
func (a Assay) Linked() bool { return a.TargetID != "" }

// NumericValue reports whether the standard value parses as a number.
func (a Assay) NumericValue() bool {
	if strings.TrimSpace(a.StandardValue) == "" {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(a.StandardValue), 64)
	return err == nil
}

// Literature is a publication from PubMed, EuropePMC or OpenAlex.
type Literature struct {
	Key      string `json:"key"`
	PMID     string `json:"pmid,omitempty"`
	DOI      string `json:"doi,omitempty"`
	PMCID    string `json:"pmcid,omitempty"`
	Title    string `json:"title,omitempty"`
	Year     int    `json:"year,omitempty"`
	Journal  string `json:"journal,omitempty"`
	Abstract string `json:"abstract,omitempty"`
	PubType  string `json:"pub_type,omitempty"`
	Source   string `json:"source"`
}

// Trial is a ClinicalTrials.gov study.
type Trial struct {
	NCTID         string   `json:"nct_id"`
	Title         string   `json:"title,omitempty"`
	Status        string   `json:"status,omitempty"`
	Phase         string   `json:"phase,omitempty"`
	Conditions    []string `json:"conditions,omitempty"`
	Interventions []string `json:"interventions,omitempty"`
	StartYear     int      `json:"start_year,omitempty"`
}
