package migrators

import (
	"strings"

	"github.com/equilibrar/migratr/internal/migratr/normalize"
	"github.com/equilibrar/migratr/internal/migratr/source"
)

// DistinctColumn collects the cleaned distinct values of one source column,
// first-seen order, deduplicated case-insensitively. Values that clean to
// absent are dropped.
func DistinctColumn(tbl *source.Table, col string) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := 0; i < tbl.Len(); i++ {
		v, ok := normalize.CleanText(tbl.Record(i).Get(col))
		if !ok {
			continue
		}
		n := strings.ToLower(v)
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Dimension key collection, one per lookup table.

func ComunaKeys(clientes *source.Table) []string {
	return DistinctColumn(clientes, "COMUNA")
}

// PrevisionKeys reads the ISAPRE column; the legacy sheet stores the whole
// insurance plan there regardless of plan type.
func PrevisionKeys(clientes *source.Table) []string {
	return DistinctColumn(clientes, "ISAPRE")
}

func EspecialidadKeys(equipo *source.Table) []string {
	return DistinctColumn(equipo, "ESPECIALIDAD")
}
