// Package source reads the legacy spreadsheet exports. Each export is a flat
// header-named CSV; columns are addressed by header name and unknown columns
// are simply never asked for.
package source

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// The four legacy export files.
const (
	FileClientes   = "DB_CLIENTES.csv"
	FileEquipo     = "DB_CONFIG_EQUIPO.csv"
	FileServicios  = "DB_SERVICIOS.csv"
	FileAtenciones = "DB_ATENCIONES.csv"
)

// Table is one loaded CSV: headers plus raw rows. Rows are immutable once
// loaded.
type Table struct {
	Path   string
	colIdx map[string]int
	rows   [][]string
}

// RawRecord is a read-only view of one source row. Position is the 1-based
// spreadsheet row number (the header is row 1), matching what an operator
// sees when opening the export.
type RawRecord struct {
	Position int
	colIdx   map[string]int
	values   []string
}

// Get returns the raw text for the named column, or "" when the column is
// unknown or the row is ragged. Absence handling is the normalizer's job.
func (r RawRecord) Get(col string) string {
	i, ok := r.colIdx[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	return r.values[i]
}

// LoadTable reads a whole CSV export into memory. The exports are small
// enough (tens of thousands of rows) that streaming buys nothing and full
// load keeps the migrators simple.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)

	// Sheets exports carry a UTF-8 BOM.
	bom, err := br.Peek(3)
	if err == nil && len(bom) >= 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}

	colIdx := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		// first occurrence wins on duplicate headers
		if _, dup := colIdx[h]; !dup {
			colIdx[h] = i
		}
	}

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		rows = append(rows, rec)
	}

	return &Table{Path: path, colIdx: colIdx, rows: rows}, nil
}

// Len is the number of data rows (header excluded).
func (t *Table) Len() int {
	return len(t.rows)
}

// Record returns the i-th data row (0-based index, 1-based spreadsheet
// position).
func (t *Table) Record(i int) RawRecord {
	return RawRecord{
		Position: i + 2, // header occupies row 1
		colIdx:   t.colIdx,
		values:   t.rows[i],
	}
}

// HasColumn reports whether the export carries the named column.
func (t *Table) HasColumn(col string) bool {
	_, ok := t.colIdx[col]
	return ok
}
