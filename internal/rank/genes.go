package rank

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/henrybloomingdale/biofan/internal/record"
)

// MinGeneMentions is the mention count a mined token needs to be kept.
const MinGeneMentions = 2

var (
	sentenceRe  = regexp.MustCompile(`[.!?;]\s+|\n+`)
	geneTokenRe = regexp.MustCompile(`\b[A-Z][A-Z0-9]{1,6}\b`)
	bioContext  = regexp.MustCompile(`(?i)\b(?:genes?|proteins?|promoters?|mutations?|mutant|mutated|pathways?|receptors?|kinases?|expression|expressed|variants?|alleles?|locus|loci|transcripts?|amplification|amplified|deletions?|fusions?|signaling|signalling|overexpression|knockdown|methylation)\b`)
)

// geneBlocklist holds uppercase tokens that match the gene pattern but are
// common acronyms.
var geneBlocklist = map[string]bool{
	"DNA": true, "RNA": true, "MRNA": true, "MIRNA": true, "CDNA": true, "PCR": true, "QPCR": true, "RT": true,
	"USA": true, "UK": true, "EU": true, "WHO": true, "FDA": true, "EMA": true, "NIH": true, "NCI": true,
	"HR": true, "CI": true, "OR": true, "RR": true, "OS": true, "PFS": true, "DFS": true, "RFS": true, "EFS": true,
	"ORR": true, "DCR": true, "CR": true, "PR": true, "SD": true, "PD": true, "AE": true, "AES": true, "SAE": true,
	"II": true, "III": true, "IV": true, "VS": true, "NA": true, "NR": true, "NS": true, "SE": true,
	"AND": true, "THE": true, "NOT": true, "FOR": true, "WITH": true, "IN": true, "OF": true, "TO": true, "BY": true,
	"HIV": true, "HBV": true, "HCV": true, "HPV": true, "EBV": true, "CMV": true, "COVID": true, "SARS": true,
	"ICU": true, "BMI": true, "MRI": true, "CT": true, "PET": true, "IHC": true, "FISH": true, "NGS": true,
	"WGS": true, "WES": true, "SNP": true, "SNPS": true, "CNV": true, "CNVS": true, "RCT": true, "RCTS": true,
	"TKI": true, "TKIS": true, "ICI": true, "ICIS": true, "MAB": true, "ADC": true, "CAR": true,
	"NSCLC": true, "SCLC": true, "AML": true, "ALL": true, "CLL": true, "CML": true, "MDS": true, "HCC": true,
	"CRC": true, "RCC": true, "GBM": true, "MM": true, "DLBCL": true, "TNBC": true, "HNSCC": true, "ESCC": true,
	"ATP": true, "ADP": true, "GTP": true, "NAD": true, "ROS": true, "ER": true, "UV": true, "KO": true, "WT": true,
	"ID": true, "IDS": true, "AUC": true, "ROC": true, "SNV": true, "LOH": true, "TMB": true, "MSI": true,
}

// MineGenes scans publication titles and abstracts for gene-like symbols.
// Only sentences with a biological-context keyword are read; tokens that
// are blocklisted or name a drug or disease slot are skipped; a token must
// be mentioned at least MinGeneMentions times. Known gene slots come first,
// followed by at most maxMined mined symbols by mention count.
func MineGenes(pubs []record.Record, s Slots, maxMined int) []string {
	exclude := make(map[string]bool)
	for _, t := range append(append([]string(nil), s.Drugs...), s.Diseases...) {
		for _, w := range strings.Fields(strings.ToUpper(t)) {
			exclude[w] = true
		}
	}

	counts := make(map[string]int)
	for _, r := range pubs {
		if r.Kind != record.KindPublication {
			continue
		}
		text := norm.NFKC.String(r.Text())
		for _, sentence := range sentenceRe.Split(text, -1) {
			if !bioContext.MatchString(sentence) {
				continue
			}
			for _, tok := range geneTokenRe.FindAllString(sentence, -1) {
				if geneBlocklist[tok] || exclude[tok] || isNumericSuffixOnly(tok) {
					continue
				}
				counts[tok]++
			}
		}
	}

	known := appendUnique(nil, s.Genes...)
	have := make(map[string]bool, len(known))
	for _, g := range known {
		have[strings.ToUpper(g)] = true
	}

	var mined []string
	for tok, n := range counts {
		if n >= MinGeneMentions && !have[tok] {
			mined = append(mined, tok)
		}
	}
	sort.Slice(mined, func(i, j int) bool {
		if counts[mined[i]] != counts[mined[j]] {
			return counts[mined[i]] > counts[mined[j]]
		}
		return mined[i] < mined[j]
	})
	if maxMined >= 0 && len(mined) > maxMined {
		mined = mined[:maxMined]
	}
	return append(known, mined...)
}

// isNumericSuffixOnly rejects tokens like "T2" or "G1" that are one letter
// followed by digits.
func isNumericSuffixOnly(tok string) bool {
	if len(tok) < 2 {
		return true
	}
	for _, c := range tok[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// GeneRecords wraps gene symbols as canonical records, marking whether each
// came from the question or from mining.
func GeneRecords(genes []string, s Slots) []record.Record {
	known := make(map[string]bool, len(s.Genes))
	for _, g := range s.Genes {
		known[strings.ToUpper(strings.TrimSpace(g))] = true
	}
	out := make([]record.Record, 0, len(genes))
	for _, g := range genes {
		r := record.Record{Kind: record.KindGene, ID: g, Label: g}
		origin := "mined"
		if known[strings.ToUpper(g)] {
			origin = "query"
		}
		r.SetMeta("origin", origin)
		out = append(out, r)
	}
	return out
}
