package normalize

import (
	"strings"

	"github.com/henrybloomingdale/biofan/internal/identity"
	"github.com/henrybloomingdale/biofan/internal/record"
)

// Literature source tags.
const (
	SourcePubMed    = "pubmed"
	SourceEuropePMC = "europepmc"
	SourceOpenAlex  = "openalex"
)

// LiteratureKey builds the composite dedup key: PMID, then DOI, then the
// source-specific id, then the bare source tag.
func LiteratureKey(pmid, doi, sourceID, source string) string {
	switch {
	case pmid != "":
		return "PMID:" + pmid
	case doi != "":
		return "DOI:" + doi
	case sourceID != "":
		return sourceID
	default:
		return source
	}
}

// PubMedIDList maps an ESearch JSON response onto literature records, one per
// PMID.
func PubMedIDList(payload any) []record.Literature {
	m, _ := payload.(map[string]any)
	res := obj(m, "esearchresult")
	if res == nil {
		return nil
	}
	ids := stringList(res["idlist"])
	out := make([]record.Literature, 0, len(ids))
	for _, id := range ids {
		out = append(out, record.Literature{
			Key:    LiteratureKey(id, "", "", SourcePubMed),
			PMID:   id,
			Source: SourcePubMed,
		})
	}
	return out
}

// EuropePMCRow maps one EuropePMC search result onto a literature record.
func EuropePMCRow(row map[string]any) record.Literature {
	l := record.Literature{
		PMID:     str(row, "pmid"),
		DOI:      identity.NormalizeDOI(str(row, "doi")),
		PMCID:    str(row, "pmcid"),
		Title:    strings.TrimSuffix(str(row, "title"), "."),
		Year:     year(row, "pubYear", "firstPublicationDate"),
		Journal:  str(row, "journalTitle"),
		Abstract: str(row, "abstractText"),
		PubType:  str(row, "pubType"),
		Source:   SourceEuropePMC,
	}
	var sourceID string
	switch {
	case l.PMCID != "":
		sourceID = "PMCID:" + l.PMCID
	case str(row, "id") != "":
		sourceID = "EPMC:" + str(row, "id")
	}
	l.Key = LiteratureKey(l.PMID, l.DOI, sourceID, SourceEuropePMC)
	return l
}

// EuropePMCResults maps a EuropePMC search response onto literature records.
func EuropePMCResults(payload any) []record.Literature {
	rows := Rows(payload, "resultList", "result")
	out := make([]record.Literature, 0, len(rows))
	for _, row := range rows {
		out = append(out, EuropePMCRow(row))
	}
	return out
}

// OpenAlexWork maps one OpenAlex work onto a literature record.
func OpenAlexWork(row map[string]any) record.Literature {
	l := record.Literature{
		DOI:     identity.NormalizeDOI(str(row, "doi")),
		Title:   str(row, "title", "display_name"),
		Year:    year(row, "publication_year"),
		PubType: str(row, "type"),
		Source:  SourceOpenAlex,
	}
	if ids := obj(row, "ids"); ids != nil {
		l.PMID = lastPathSegment(str(ids, "pmid"))
		l.PMCID = lastPathSegment(str(ids, "pmcid"))
	}
	if src := obj(row, "primary_location", "source"); src != nil {
		l.Journal = str(src, "display_name")
	}
	if inv := obj(row, "abstract_inverted_index"); inv != nil {
		l.Abstract = invertedAbstract(inv)
	}
	var sourceID string
	if id := lastPathSegment(str(row, "id")); id != "" {
		sourceID = "OPENALEX:" + id
	}
	l.Key = LiteratureKey(l.PMID, l.DOI, sourceID, SourceOpenAlex)
	return l
}

// OpenAlexWorks maps an OpenAlex works response onto literature records.
func OpenAlexWorks(payload any) []record.Literature {
	rows := Rows(payload, "results")
	out := make([]record.Literature, 0, len(rows))
	for _, row := range rows {
		out = append(out, OpenAlexWork(row))
	}
	return out
}

func lastPathSegment(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// invertedAbstract rebuilds text from OpenAlex's word -> positions index.
func invertedAbstract(inv map[string]any) string {
	var words []string
	for word, positions := range inv {
		arr, ok := positions.([]any)
		if !ok {
			continue
		}
		for _, p := range arr {
			i, ok := asFloat(p)
			if !ok || i < 0 || i > 10000 {
				continue
			}
			idx := int(i)
			for len(words) <= idx {
				words = append(words, "")
			}
			words[idx] = word
		}
	}
	return strings.Join(strings.Fields(strings.Join(words, " ")), " ")
}
