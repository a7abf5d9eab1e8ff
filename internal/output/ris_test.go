package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/henrybloomingdale/biofan/internal/record"
)

func TestWriteRIS(t *testing.T) {
	lit := []record.Literature{
		{
			Key:      "PMID:38000001",
			PMID:     "38000001",
			Title:    "Testing RIS Export",
			Abstract: "Line one.\nLine two.",
			Journal:  "Journal of Testing",
			Year:     2026,
			DOI:      "10.1000/example",
			Source:   "europepmc",
		},
		{Key: "DOI:10.1/pre", DOI: "10.1/pre", Title: "A preprint", PubType: "preprint"},
	}

	var buf bytes.Buffer
	if err := WriteRIS(&buf, lit); err != nil {
		t.Fatalf("unexpected error writing RIS: %v", err)
	}
	out := buf.String()

	expected := []string{
		"TY  - JOUR",
		"TI  - Testing RIS Export",
		"PY  - 2026",
		"JO  - Journal of Testing",
		"DO  - 10.1000/example",
		"AB  - Line one. Line two.",
		"ID  - PMID:38000001",
		"UR  - https://pubmed.ncbi.nlm.nih.gov/38000001/",
		"DB  - europepmc",
		"ER  -",
		"TY  - UNPB",
		"UR  - https://doi.org/10.1/pre",
	}
	for _, want := range expected {
		if !strings.Contains(out, want) {
			t.Fatalf("expected RIS output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Count(out, "ER  -") != 2 {
		t.Errorf("expected 2 records, got:\n%s", out)
	}
}

func TestWriteRIS_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRIS(&buf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
