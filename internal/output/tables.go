package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/henrybloomingdale/biofan/internal/record"
)

// Table file names written by WriteTables.
const (
	CompoundsTable  = "compounds.csv"
	TargetsTable    = "targets.csv"
	AssaysTable     = "assays.csv"
	LiteratureTable = "literature.csv"
)

// WriteTables writes one CSV file per dataset collection into dir and
// returns the paths written. Each header is the sorted union of keys present
// in the collection's rows; missing keys become empty cells. An empty
// collection yields an empty file.
func WriteTables(dir string, ds record.Dataset) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating table directory: %w", err)
	}
	tables := Tables(ds)
	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		path := filepath.Join(dir, t.Name)
		if err := writeTable(path, t.Rows); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Table is one named collection flattened to rows.
type Table struct {
	Name string
	Rows []map[string]string
}

// Tables flattens each dataset collection, in file order.
func Tables(ds record.Dataset) []Table {
	return []Table{
		{CompoundsTable, rowsOf(ds.Compounds, record.Compound.Row)},
		{TargetsTable, rowsOf(ds.Targets, record.Target.Row)},
		{AssaysTable, rowsOf(ds.Assays, record.Assay.Row)},
		{LiteratureTable, rowsOf(ds.Literature, record.Literature.Row)},
	}
}

func rowsOf[T any](items []T, row func(T) map[string]string) []map[string]string {
	out := make([]map[string]string, len(items))
	for i, it := range items {
		out[i] = row(it)
	}
	return out
}

// Header returns the sorted union of keys across rows.
func Header(rows []map[string]string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func writeTable(path string, rows []map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if err := WriteCSV(f, rows); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteCSV writes rows under their union header. Nothing is written when
// there are no keys.
func WriteCSV(out io.Writer, rows []map[string]string) error {
	header := Header(rows)
	if len(header) == 0 {
		return nil
	}
	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	rec := make([]string, len(header))
	for _, r := range rows {
		for i, k := range header {
			rec[i] = r[k]
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
