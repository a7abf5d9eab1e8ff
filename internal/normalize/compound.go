package normalize

import (
	"github.com/henrybloomingdale/biofan/internal/identity"
	"github.com/henrybloomingdale/biofan/internal/record"
)

// PubChemProperties maps a PubChem property-table row onto a Compound.
// compound_id resolves InChIKey, then CID, then nameHint, then "compound".
func PubChemProperties(row map[string]any, nameHint string) record.Compound {
	c := record.Compound{
		Name:     nameHint,
		InChIKey: str(row, "InChIKey", "inchikey"),
		CID:      str(row, "CID", "cid"),
		SMILES:   str(row, "CanonicalSMILES", "SMILES", "IsomericSMILES", "ConnectivitySMILES"),
		Formula:  str(row, "MolecularFormula", "Formula"),
		MW:       num(row, "MolecularWeight", "Weight"),
		XLogP:    num(row, "XLogP", "xlogp"),
		TPSA:     num(row, "TPSA", "tpsa"),
		Sources:  []string{"pubchem"},
	}
	c.InChIKey14 = identity.InChIKey14(c.InChIKey)

	switch {
	case c.InChIKey != "":
		c.CompoundID = c.InChIKey
	case c.CID != "":
		c.CompoundID = c.CID
	case nameHint != "":
		c.CompoundID = nameHint
	default:
		c.CompoundID = "compound"
	}
	return c
}

// PubChemPayload normalizes every row of a PubChem property response.
func PubChemPayload(payload any, nameHint string) []record.Compound {
	rows := Rows(payload, "PropertyTable", "Properties")
	out := make([]record.Compound, 0, len(rows))
	for _, row := range rows {
		out = append(out, PubChemProperties(row, nameHint))
	}
	return out
}
