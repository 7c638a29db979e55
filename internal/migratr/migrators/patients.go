package migrators

import (
	"strings"

	"github.com/equilibrar/migratr/internal/migratr/normalize"
	"github.com/equilibrar/migratr/internal/migratr/refmap"
	"github.com/equilibrar/migratr/internal/migratr/source"
)

// MigratePatients converts DB_CLIENTES rows into normalized patients.
//
// A non-absent RUT may appear at most once: the first occurrence wins and
// later duplicates are skipped with their row position. A blank RUT is never
// a duplicate key, so RUT-less rows all migrate. Unresolvable insurance or
// locality references leave the foreign key absent instead of dropping the
// row; a patient without a resolved comuna is still a useful record.
func MigratePatients(tbl *source.Table, previsiones, comunas *refmap.Map) ([]Patient, *RowLog) {
	rl := NewRowLog("patients")
	seen := make(map[string]struct{})
	out := make([]Patient, 0, tbl.Len())

	for i := 0; i < tbl.Len(); i++ {
		r := tbl.Record(i)
		rl.Row()

		rut, rutOK := normalize.CleanRUT(r.Get("RUT"))
		if rutOK {
			if _, dup := seen[rut]; dup {
				rl.Skip(r.Position, SkipDuplicateRUT, "rut", rut)
				continue
			}
			seen[rut] = struct{}{}
		}

		paterno, _ := normalize.CleanText(r.Get("PATERNO"))
		materno, _ := normalize.CleanText(r.Get("MATERNO"))
		apellidos := strings.TrimSpace(paterno + " " + materno)

		p := Patient{
			Pos:             r.Position,
			RUT:             optStr(rut, rutOK),
			Nombres:         optStr(normalize.TitleCase(r.Get("NOMBRES"))),
			Apellidos:       optStr(normalize.TitleCase(apellidos)),
			Email:           optStr(normalize.CleanText(r.Get("CORREO"))),
			Telefono:        optStr(normalize.CleanText(r.Get("TELEFONO"))),
			Direccion:       optStr(normalize.CleanText(r.Get("DIRECCION"))),
			FechaNacimiento: optStr(normalize.ParseDate(r.Get("FECHA_NACIMIENTO"))),
		}

		if isapre, ok := normalize.CleanText(r.Get("ISAPRE")); ok {
			p.IDPrevision = optID(previsiones.Lookup(isapre))
		}
		if comuna, ok := normalize.CleanText(r.Get("COMUNA")); ok {
			p.IDComuna = optID(comunas.Lookup(comuna))
		}

		out = append(out, p)
	}
	return out, rl
}
