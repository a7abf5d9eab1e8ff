package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/henrybloomingdale/biofan/internal/record"
)

// WriteRIS exports literature records in RIS format for citation managers.
func WriteRIS(out io.Writer, lit []record.Literature) error {
	w := bufio.NewWriter(out)
	for i, l := range lit {
		writeRISTag(w, "TY", risType(l.PubType))
		writeRISTag(w, "TI", l.Title)
		if l.Year > 0 {
			writeRISTag(w, "PY", strconv.Itoa(l.Year))
		}
		writeRISTag(w, "JO", l.Journal)
		writeRISTag(w, "DO", l.DOI)
		writeRISTag(w, "AB", l.Abstract)
		writeRISTag(w, "ID", l.Key)
		switch {
		case l.PMID != "":
			writeRISTag(w, "UR", "https://pubmed.ncbi.nlm.nih.gov/"+l.PMID+"/")
		case l.DOI != "":
			writeRISTag(w, "UR", "https://doi.org/"+l.DOI)
		}
		writeRISTag(w, "DB", l.Source)
		writeRISTag(w, "ER", "")

		if i < len(lit)-1 {
			if _, err := w.WriteString("\n"); err != nil {
				return fmt.Errorf("writing RIS separator: %w", err)
			}
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing RIS output: %w", err)
	}
	return nil
}

func writeRISFile(path string, lit []record.Literature) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating RIS file: %w", err)
	}
	defer f.Close()
	return WriteRIS(f, lit)
}

func risType(pubType string) string {
	switch t := strings.ToLower(pubType); {
	case strings.Contains(t, "preprint"):
		return "UNPB"
	case strings.Contains(t, "book"):
		return "BOOK"
	}
	return "JOUR"
}

func writeRISTag(w *bufio.Writer, tag, value string) {
	if tag == "" {
		return
	}
	if tag != "ER" && strings.TrimSpace(value) == "" {
		return
	}
	if tag == "ER" {
		_, _ = w.WriteString("ER  -\n")
		return
	}
	_, _ = w.WriteString(tag + "  - " + sanitizeRISValue(value) + "\n")
}

func sanitizeRISValue(v string) string {
	v = strings.ReplaceAll(v, "\r\n", " ")
	v = strings.ReplaceAll(v, "\n", " ")
	v = strings.ReplaceAll(v, "\r", " ")
	return strings.TrimSpace(v)
}
