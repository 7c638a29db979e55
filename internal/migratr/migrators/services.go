package migrators

import (
	"github.com/equilibrar/migratr/internal/migratr/normalize"
	"github.com/equilibrar/migratr/internal/migratr/source"
)

// ServiceOptions are the fixed defaults the legacy sheet never recorded.
type ServiceOptions struct {
	Modalidad       string
	DuracionMinutos int
}

// MigrateServices converts DB_SERVICIOS rows into normalized services.
// Modality and duration are always defaulted; the sheet has no such columns.
func MigrateServices(tbl *source.Table, opts ServiceOptions) ([]Service, *RowLog) {
	rl := NewRowLog("services")
	out := make([]Service, 0, tbl.Len())

	for i := 0; i < tbl.Len(); i++ {
		r := tbl.Record(i)
		rl.Row()

		codigo, codigoOK := normalize.CleanText(r.Get("ID_SERVICIO"))
		nombre, nombreOK := normalize.CleanText(r.Get("NOMBRE_SERVICIO"))
		if !codigoOK && !nombreOK {
			rl.Skip(r.Position, SkipBlankRow)
			continue
		}

		out = append(out, Service{
			Pos:             r.Position,
			Codigo:          optStr(codigo, codigoOK),
			Nombre:          optStr(nombre, nombreOK),
			PrecioLista:     normalize.CleanAmount(r.Get("PRECIO_LISTA")),
			Modalidad:       opts.Modalidad,
			DuracionMinutos: opts.DuracionMinutos,
		})
	}
	return out, rl
}
