package normalize

import "github.com/henrybloomingdale/biofan/internal/record"

// ChEMBLActivity maps a ChEMBL activity row onto an Assay. target_id is set
// only when lookup maps the row's target_chembl_id to an accession.
func ChEMBLActivity(row map[string]any, lookup map[string]string) record.Assay {
	a := record.Assay{
		AssayID:          str(row, "assay_chembl_id", "activity_id"),
		Source:           "chembl",
		ChEMBLTargetID:   str(row, "target_chembl_id"),
		StandardType:     str(row, "standard_type"),
		StandardValue:    str(row, "standard_value"),
		StandardUnits:    str(row, "standard_units"),
		PChEMBL:          num(row, "pchembl_value"),
		MoleculeChEMBLID: str(row, "molecule_chembl_id"),
	}
	if a.ChEMBLTargetID != "" {
		if acc := lookup[a.ChEMBLTargetID]; acc != "" {
			a.TargetID = acc
		}
	}
	return a
}

// ActivityRows extracts raw activity rows from a ChEMBL activity response.
func ActivityRows(payload any) []map[string]any {
	return Rows(payload, "activities")
}

// ChEMBLActivities normalizes raw activity rows against lookup.
func ChEMBLActivities(rows []map[string]any, lookup map[string]string) []record.Assay {
	out := make([]record.Assay, 0, len(rows))
	for _, row := range rows {
		out = append(out, ChEMBLActivity(row, lookup))
	}
	return out
}
