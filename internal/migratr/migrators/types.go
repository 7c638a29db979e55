// Package migrators holds the per-entity migration logic. Every migrator is
// pure: it consumes source rows plus already-built reference maps and emits
// normalized records with resolved surrogate foreign keys, never natural
// keys. Writing the records is the runner's job.
package migrators

// Patient is a normalized pacientes row. Pointer fields are NULL when the
// source value was absent or unresolvable.
type Patient struct {
	Pos             int // source row position, for insert-failure logging
	RUT             *string
	Nombres         *string
	Apellidos       *string
	Email           *string
	Telefono        *string
	Direccion       *string
	FechaNacimiento *string
	IDPrevision     *int64
	IDComuna        *int64
}

// StaffMember is one usuarios + profesionales pair.
type StaffMember struct {
	Pos               int
	Email             string
	PasswordHash      string
	Nombres           string
	IDEspecialidad    *int64
	ColorCalendario   string
	ComisionBase      float64
	RetencionImpuesto float64
	Activo            bool
}

// Service is a normalized servicios row.
type Service struct {
	Pos             int
	Codigo          *string
	Nombre          *string
	PrecioLista     int
	Modalidad       string
	DuracionMinutos int
}

// Appointment is a normalized citas row.
type Appointment struct {
	CodigoCita    *string
	IDPaciente    int64
	IDProfesional int64
	IDServicio    *int64
	IDEstado      int64
	IDUbicacion   int64
	FechaInicio   string
	FechaFin      *string
	Observaciones *string
}

// FinancialDetail carries the four zero-defaulted amounts attached to every
// appointment.
type FinancialDetail struct {
	PrecioCobrado    int
	MontoProfesional int
	MontoClinica     int
	ImpuestoRetenido int
}

// Payment exists only when the source row carries a payment date.
type Payment struct {
	FechaPago  string
	Monto      int
	EstadoPago string
}

// ClinicalNote exists only when the free-text observation is long enough to
// plausibly be clinical content. The length cut-off is a heuristic, not a
// content classifier.
type ClinicalNote struct {
	IDPaciente  int64
	Observacion string
}

// AppointmentBundle is everything one transactional source row produces.
// All four outputs share the row's natural appointment code; the dependents
// are stitched to the appointment's surrogate id after insertion.
type AppointmentBundle struct {
	Pos     int
	Cita    Appointment
	Detalle FinancialDetail
	Pago    *Payment
	Ficha   *ClinicalNote
}

func optStr(s string, ok bool) *string {
	if !ok {
		return nil
	}
	return &s
}

func optID(id int64, ok bool) *int64 {
	if !ok {
		return nil
	}
	return &id
}
