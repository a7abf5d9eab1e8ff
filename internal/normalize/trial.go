package normalize

import (
	"strings"

	"github.com/henrybloomingdale/biofan/internal/record"
)

// ClinicalTrialsStudy maps one ClinicalTrials.gov v2 study onto a Trial.
func ClinicalTrialsStudy(row map[string]any) record.Trial {
	ps := obj(row, "protocolSection")
	if ps == nil {
		return record.Trial{}
	}
	var tr record.Trial
	if id := obj(ps, "identificationModule"); id != nil {
		tr.NCTID = str(id, "nctId")
		tr.Title = str(id, "briefTitle", "officialTitle")
	}
	if st := obj(ps, "statusModule"); st != nil {
		tr.Status = str(st, "overallStatus")
		if sd := obj(st, "startDateStruct"); sd != nil {
			tr.StartYear = year(sd, "date")
		}
	}
	if d := obj(ps, "designModule"); d != nil {
		tr.Phase = strings.Join(stringList(d["phases"]), ", ")
	}
	if c := obj(ps, "conditionsModule"); c != nil {
		tr.Conditions = stringList(c["conditions"])
	}
	for _, iv := range Rows(obj(ps, "armsInterventionsModule"), "interventions") {
		if name := str(iv, "name"); name != "" {
			tr.Interventions = append(tr.Interventions, name)
		}
	}
	return tr
}

// ClinicalTrialsStudies maps a ClinicalTrials.gov v2 studies response onto
// trials. Studies without an NCT id are dropped.
func ClinicalTrialsStudies(payload any) []record.Trial {
	rows := Rows(payload, "studies")
	out := make([]record.Trial, 0, len(rows))
	for _, row := range rows {
		tr := ClinicalTrialsStudy(row)
		if tr.NCTID == "" {
			continue
		}
		out = append(out, tr)
	}
	return out
}
