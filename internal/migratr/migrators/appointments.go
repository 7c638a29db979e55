package migrators

import (
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/equilibrar/migratr/internal/migratr/normalize"
	"github.com/equilibrar/migratr/internal/migratr/refmap"
	"github.com/equilibrar/migratr/internal/migratr/source"
)

// AppointmentOptions are the run-level defaults for the transactional phase.
type AppointmentOptions struct {
	DefaultDurationMin int
	MinNoteLen         int
	EstadoDefault      int64
	UbicacionDefault   int64
}

// MigrateAppointments converts DB_ATENCIONES rows into appointment bundles.
// This is the critical-path phase: a row that cannot resolve its patient or
// professional, or whose date is unparseable, is skipped with a warning;
// it is never migrated with a dangling foreign key. Each surviving row yields one
// appointment, one financial detail, an optional payment (only when a
// payment date is present) and an optional clinical note (only when the
// observation clears the length heuristic), all correlated by the row's
// natural appointment code.
func MigrateAppointments(tbl *source.Table, pacientes, profesionales, servicios *refmap.Map, opts AppointmentOptions) ([]AppointmentBundle, *RowLog) {
	rl := NewRowLog("appointments")
	out := make([]AppointmentBundle, 0, tbl.Len())

	for i := 0; i < tbl.Len(); i++ {
		r := tbl.Record(i)
		rl.Row()

		// CODIGO CLIENTE carries the patient's RUT in whatever formatting the
		// sheet happened to use; strip it the same way the patient key was.
		codigoCliente, ok := normalize.CleanRUT(r.Get("CODIGO CLIENTE"))
		if !ok {
			rl.Skip(r.Position, SkipUnresolvedPatient)
			continue
		}
		idPaciente, ok := pacientes.Lookup(codigoCliente)
		if !ok {
			rl.Skip(r.Position, SkipUnresolvedPatient, "codigo_cliente", codigoCliente)
			continue
		}

		nombreProf, ok := normalize.CleanText(r.Get("ESPECIALISTA"))
		if !ok {
			rl.Skip(r.Position, SkipUnresolvedStaff)
			continue
		}
		idProfesional, ok := profesionales.Lookup(nombreProf)
		if !ok {
			rl.Skip(r.Position, SkipUnresolvedStaff, "especialista", nombreProf)
			continue
		}

		fechaInicio, ok := normalize.CombineDateTime(r.Get("FECHA DE ATENCION"), r.Get("HORA DE ATENCION"))
		if !ok {
			rl.Skip(r.Position, SkipInvalidDate, "fecha", r.Get("FECHA DE ATENCION"))
			continue
		}

		var fechaFin *string
		if t, err := time.Parse("2006-01-02 15:04:05", fechaInicio); err == nil {
			f := t.Add(time.Duration(opts.DefaultDurationMin) * time.Minute).Format("2006-01-02 15:04:05")
			fechaFin = &f
		}

		idEstado := opts.EstadoDefault
		if v, ok := normalize.CleanText(r.Get("ID_ESTADO")); ok {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				idEstado = n
			}
		}

		obs, obsOK := normalize.CleanText(r.Get("OBSERVACION"))

		cita := Appointment{
			CodigoCita:    optStr(normalize.CleanText(r.Get("ID_ATENCION"))),
			IDPaciente:    idPaciente,
			IDProfesional: idProfesional,
			IDEstado:      idEstado,
			IDUbicacion:   opts.UbicacionDefault,
			FechaInicio:   fechaInicio,
			FechaFin:      fechaFin,
			Observaciones: optStr(obs, obsOK),
		}
		if codigoServicio, ok := normalize.CleanText(r.Get("ID_SERVICIO")); ok {
			cita.IDServicio = optID(servicios.Lookup(codigoServicio))
		}

		bundle := AppointmentBundle{
			Pos:  r.Position,
			Cita: cita,
			Detalle: FinancialDetail{
				PrecioCobrado:    normalize.CleanAmount(r.Get("INGRESO")),
				MontoProfesional: normalize.CleanAmount(r.Get("PAGO ESPECIALISTA (LIQUIDO)")),
				MontoClinica:     normalize.CleanAmount(r.Get("UTILIDAD")),
				ImpuestoRetenido: normalize.CleanAmount(r.Get("IMPUESTO")),
			},
		}

		if fechaPago, ok := normalize.ParseDate(r.Get("FECHA DE PAGO")); ok {
			bundle.Pago = &Payment{
				FechaPago:  fechaPago,
				Monto:      bundle.Detalle.PrecioCobrado,
				EstadoPago: "CONFIRMADO",
			}
		}

		if obsOK && utf8.RuneCountInString(obs) > opts.MinNoteLen {
			bundle.Ficha = &ClinicalNote{IDPaciente: idPaciente, Observacion: obs}
		}

		out = append(out, bundle)
	}
	return out, rl
}
