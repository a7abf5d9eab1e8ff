// Package identity canonicalizes compound and target keys so records from
// different sources can be joined.
package identity

import (
	"regexp"
	"strings"
)

var (
	inchiKeyRe   = regexp.MustCompile(`^([A-Z]{14})-[A-Z]{8,10}-[A-Z]$`)
	skeletonRe   = regexp.MustCompile(`^[A-Z]{14}$`)
	uniprotRe    = regexp.MustCompile(`^([OPQ][0-9][A-Z0-9]{3}[0-9]|[A-NR-Z][0-9]([A-Z][A-Z0-9]{2}[0-9]){1,2})(-\d+)?$`)
	chemblIDRe   = regexp.MustCompile(`^CHEMBL\d+$`)
	doiPrefixes  = []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"}
	accessionKey = []string{"accession", "component_accession", "uniprot_accession"}
)

// InChIKey14 returns the 14-letter connectivity block of a full InChIKey.
// A bare 14-letter block maps to itself, so InChIKey14(InChIKey14(k)) ==
// InChIKey14(k). Any other input, including a padded key, yields "".
func InChIKey14(ik string) string {
	if m := inchiKeyRe.FindStringSubmatch(ik); m != nil {
		return m[1]
	}
	if skeletonRe.MatchString(ik) {
		return ik
	}
	return ""
}

// IsInChIKey reports whether s is a complete InChIKey.
func IsInChIKey(s string) bool {
	return inchiKeyRe.MatchString(s)
}

// IsUniProtAccession reports whether s looks like a UniProtKB accession,
// optionally with an isoform suffix.
func IsUniProtAccession(s string) bool {
	return uniprotRe.MatchString(s)
}

// IsChEMBLID reports whether s is a ChEMBL identifier such as CHEMBL203.
func IsChEMBLID(s string) bool {
	return chemblIDRe.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}

// ExtractAccession reads the accession of the first target component of a
// ChEMBL target payload, paired with the target's organism. Either value may
// be empty.
func ExtractAccession(target map[string]any) (accession, organism string) {
	if target == nil {
		return "", ""
	}
	organism, _ = target["organism"].(string)

	if comps, ok := target["target_components"].([]any); ok && len(comps) > 0 {
		if first, ok := comps[0].(map[string]any); ok {
			for _, k := range accessionKey {
				if v, ok := first[k].(string); ok && strings.TrimSpace(v) != "" {
					return strings.TrimSpace(v), organism
				}
			}
		}
	}
	if v, ok := target["uniprot_accession"].(string); ok {
		accession = strings.TrimSpace(v)
	}
	return accession, organism
}

// NormalizeDOI strips resolver prefixes and lowercases a DOI.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	lower := strings.ToLower(doi)
	for _, p := range doiPrefixes {
		if strings.HasPrefix(lower, p) {
			lower = lower[len(p):]
			break
		}
	}
	return strings.TrimSpace(lower)
}
