// Package runner sequences the migration phases and owns everything that
// touches the target store. Phases run strictly in dependency order; the
// first unrecoverable failure terminates the run. There is no cross-phase
// rollback: completed phases stay durable, and a failed run is meant to be
// inspected and re-run against a clean target schema.
package runner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/equilibrar/migratr/internal/migratr/config"
	"github.com/equilibrar/migratr/internal/migratr/logger"
	"github.com/equilibrar/migratr/internal/migratr/migrators"
	"github.com/equilibrar/migratr/internal/migratr/refmap"
	"github.com/equilibrar/migratr/internal/migratr/source"
)

// Store is the slice of the target database the runner needs. *store.DB
// satisfies it; tests use an in-memory fake.
type Store interface {
	SelectPairs(ctx context.Context, query string, args ...any) (map[string]int64, error)
	Exec(ctx context.Context, query string, args ...any) error
	QueryInt64(ctx context.Context, query string, args ...any) (int64, error)
	InsertSQL(table string, cols ...string) string
	Placeholder(i int) string
}

// PhaseStats is the per-phase outcome reported in the run summary.
type PhaseStats struct {
	Phase     string `json:"phase"`
	Status    string `json:"status"` // ok | skipped | failed
	Processed int    `json:"processed"`
	Emitted   int    `json:"emitted"`
	Skipped   int    `json:"skipped"`
}

// RunSummary is appended as one NDJSON line to the run log.
type RunSummary struct {
	RunID      string       `json:"run_id"`
	StartedAt  string       `json:"started_at"`
	FinishedAt string       `json:"finished_at"`
	Driver     string       `json:"driver"`
	SourceDir  string       `json:"source_dir"`
	Phases     []PhaseStats `json:"phases"`
	OK         bool         `json:"ok"`
}

// Runner executes one migration run end to end.
type Runner struct {
	store Store
	cfg   *config.Config
	log   *zap.SugaredLogger
}

func New(st Store, cfg *config.Config) *Runner {
	return &Runner{store: st, cfg: cfg, log: logger.L()}
}

// runState is the data flowing between phases: loaded tables and the
// natural-key → surrogate-id maps each phase leaves for its dependents.
type runState struct {
	clientes   *source.Table
	equipo     *source.Table
	servicios  *source.Table
	atenciones *source.Table

	comunas        *refmap.Map
	previsiones    *refmap.Map
	especialidades *refmap.Map

	pacientesByRUT    *refmap.Map
	profesionales     *refmap.Map
	serviciosByCodigo *refmap.Map
}

// Run executes all phases and always appends a summary to the run log, even
// on failure. The returned error is the batch-level failure, if any; row
// level skips never surface here.
func (r *Runner) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Driver:    r.cfg.Database.Driver,
		SourceDir: r.cfg.Source.Dir,
	}
	r.log.Infow("starting migration run",
		"run_id", summary.RunID,
		"driver", summary.Driver,
		"source_dir", summary.SourceDir)

	st := &runState{}
	phases := []struct {
		name string
		fn   func(context.Context, *runState) (PhaseStats, error)
	}{
		{"load_sources", r.loadSources},
		{"migrate_dimensions", r.migrateDimensions},
		{"migrate_patients", r.migratePatients},
		{"migrate_staff", r.migrateStaff},
		{"migrate_services", r.migrateServices},
		{"migrate_appointments", r.migrateAppointments},
	}

	var runErr error
	start := time.Now()
	for _, p := range phases {
		stats, err := p.fn(ctx, st)
		stats.Phase = p.name
		if err != nil {
			stats.Status = "failed"
			summary.Phases = append(summary.Phases, stats)
			runErr = fmt.Errorf("phase %s: %w", p.name, err)
			r.log.Errorw("phase failed", "phase", p.name, "err", err.Error())
			break
		}
		if stats.Status == "" {
			stats.Status = "ok"
		}
		summary.Phases = append(summary.Phases, stats)
		r.log.Infow("phase complete",
			"phase", p.name,
			"status", stats.Status,
			"processed", stats.Processed,
			"emitted", stats.Emitted,
			"skipped", stats.Skipped)
	}

	summary.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	summary.OK = runErr == nil

	if r.cfg.Logging.RunLog != "" {
		if err := appendRunLog(r.cfg.Logging.RunLog, summary); err != nil {
			r.log.Errorw("failed to write run log", "path", r.cfg.Logging.RunLog, "err", err.Error())
		}
	}

	r.log.Infow("migration run finished",
		"run_id", summary.RunID,
		"ok", summary.OK,
		"duration", time.Since(start).String())
	return summary, runErr
}

func appendRunLog(path string, summary *RunSummary) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(summary)
}

// ------------------- phases -------------------

func (r *Runner) loadSources(ctx context.Context, st *runState) (PhaseStats, error) {
	var stats PhaseStats

	// patients and team config are required; a run without them has nothing
	// to key later phases on
	var err error
	st.clientes, err = source.LoadTable(filepath.Join(r.cfg.Source.Dir, source.FileClientes))
	if err != nil {
		return stats, err
	}
	st.equipo, err = source.LoadTable(filepath.Join(r.cfg.Source.Dir, source.FileEquipo))
	if err != nil {
		return stats, err
	}

	// services and appointments are optional: their phases are skipped when
	// the export is missing
	st.servicios, err = source.LoadTable(filepath.Join(r.cfg.Source.Dir, source.FileServicios))
	if err != nil {
		r.log.Warnw("optional source missing, phase will be skipped", "file", source.FileServicios, "err", err.Error())
		st.servicios = nil
	}
	st.atenciones, err = source.LoadTable(filepath.Join(r.cfg.Source.Dir, source.FileAtenciones))
	if err != nil {
		r.log.Warnw("optional source missing, phase will be skipped", "file", source.FileAtenciones, "err", err.Error())
		st.atenciones = nil
	}

	stats.Processed = st.clientes.Len() + st.equipo.Len()
	if st.servicios != nil {
		stats.Processed += st.servicios.Len()
	}
	if st.atenciones != nil {
		stats.Processed += st.atenciones.Len()
	}
	stats.Emitted = stats.Processed
	return stats, nil
}

func (r *Runner) migrateDimensions(ctx context.Context, st *runState) (PhaseStats, error) {
	var stats PhaseStats
	resolver := refmap.NewResolver(r.store)

	dims := []struct {
		spec refmap.TableSpec
		keys []string
		dst  **refmap.Map
	}{
		{
			spec: refmap.TableSpec{Table: "comunas", IDCol: "id_comuna", KeyCol: "nombre"},
			keys: migrators.ComunaKeys(st.clientes),
			dst:  &st.comunas,
		},
		{
			spec: refmap.TableSpec{
				Table: "previsiones", IDCol: "id_prevision", KeyCol: "nombre",
				ExtraCols: []string{"tipo"}, ExtraVals: []any{"ISAPRE"},
			},
			keys: migrators.PrevisionKeys(st.clientes),
			dst:  &st.previsiones,
		},
		{
			spec: refmap.TableSpec{Table: "especialidades", IDCol: "id_especialidad", KeyCol: "nombre"},
			keys: migrators.EspecialidadKeys(st.equipo),
			dst:  &st.especialidades,
		},
	}

	for _, d := range dims {
		m, err := resolver.Ensure(ctx, d.spec, d.keys)
		if err != nil {
			return stats, err
		}
		*d.dst = m
		stats.Processed += len(d.keys)
		stats.Emitted += m.Len()
	}
	return stats, nil
}

func (r *Runner) migratePatients(ctx context.Context, st *runState) (PhaseStats, error) {
	var stats PhaseStats
	patients, rl := migrators.MigratePatients(st.clientes, st.previsiones, st.comunas)

	insertSQL := r.store.InsertSQL("pacientes",
		"rut", "nombres", "apellidos", "email", "telefono", "direccion",
		"fecha_nacimiento", "id_prevision", "id_comuna")

	for _, p := range patients {
		err := r.store.Exec(ctx, insertSQL,
			p.RUT, p.Nombres, p.Apellidos, p.Email, p.Telefono, p.Direccion,
			p.FechaNacimiento, p.IDPrevision, p.IDComuna)
		if err != nil {
			rl.Skip(p.Pos, migrators.SkipInsertFailed, "err", err.Error())
			continue
		}
		stats.Emitted++
	}

	// the appointment phase keys on RUT; reload to pick up assigned ids
	pairs, err := r.store.SelectPairs(ctx,
		"SELECT id_paciente, rut FROM pacientes WHERE rut IS NOT NULL")
	if err != nil {
		return stats, fmt.Errorf("reload patient map: %w", err)
	}
	st.pacientesByRUT = refmap.FromPairs(pairs, false)

	stats.Processed = rl.Processed
	stats.Skipped = rl.Skipped()
	return stats, nil
}

func (r *Runner) migrateStaff(ctx context.Context, st *runState) (PhaseStats, error) {
	var stats PhaseStats

	roleID, err := r.store.QueryInt64(ctx,
		"SELECT id_rol FROM roles WHERE nombre = "+r.store.Placeholder(1), "PROFESIONAL")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return stats, fmt.Errorf("roles table has no PROFESIONAL entry; schema not provisioned")
		}
		return stats, fmt.Errorf("fetch professional role: %w", err)
	}

	staff, rl, err := migrators.MigrateStaff(st.equipo, st.especialidades, migrators.StaffOptions{
		Password:      r.cfg.Defaults.PlaceholderPassword,
		CalendarColor: r.cfg.Defaults.CalendarColor,
	})
	if err != nil {
		return stats, err
	}

	userSQL := r.store.InsertSQL("usuarios", "email", "password_hash", "id_rol")
	profSQL := r.store.InsertSQL("profesionales",
		"id_usuario", "nombres", "id_especialidad", "color_calendario",
		"comision_base", "retencion_impuesto", "activo")

	for _, m := range staff {
		if err := r.store.Exec(ctx, userSQL, m.Email, m.PasswordHash, roleID); err != nil {
			// duplicate account identifier and friends: skip the pair
			rl.Skip(m.Pos, migrators.SkipInsertFailed, "email", m.Email, "err", err.Error())
			continue
		}
		// the store assigns the account id at insert time; fetch it back by
		// its natural key
		userID, err := r.store.QueryInt64(ctx,
			"SELECT id_usuario FROM usuarios WHERE email = "+r.store.Placeholder(1), m.Email)
		if err != nil {
			rl.Skip(m.Pos, migrators.SkipInsertFailed, "email", m.Email, "err", err.Error())
			continue
		}
		if err := r.store.Exec(ctx, profSQL,
			userID, m.Nombres, m.IDEspecialidad, m.ColorCalendario,
			m.ComisionBase, m.RetencionImpuesto, m.Activo); err != nil {
			rl.Skip(m.Pos, migrators.SkipInsertFailed, "nombres", m.Nombres, "err", err.Error())
			continue
		}
		stats.Emitted++
	}

	pairs, err := r.store.SelectPairs(ctx, "SELECT id_profesional, nombres FROM profesionales")
	if err != nil {
		return stats, fmt.Errorf("reload staff map: %w", err)
	}
	st.profesionales = refmap.FromPairs(pairs, false)

	stats.Processed = rl.Processed
	stats.Skipped = rl.Skipped()
	return stats, nil
}

func (r *Runner) migrateServices(ctx context.Context, st *runState) (PhaseStats, error) {
	var stats PhaseStats
	if st.servicios == nil {
		stats.Status = "skipped"
		st.serviciosByCodigo = refmap.NewMap(true)
		return stats, nil
	}

	services, rl := migrators.MigrateServices(st.servicios, migrators.ServiceOptions{
		Modalidad:       r.cfg.Defaults.ServiceModality,
		DuracionMinutos: r.cfg.Defaults.ServiceDurationMin,
	})

	insertSQL := r.store.InsertSQL("servicios",
		"codigo", "nombre", "precio_lista", "modalidad", "duracion_minutos")
	for _, s := range services {
		err := r.store.Exec(ctx, insertSQL,
			s.Codigo, s.Nombre, s.PrecioLista, s.Modalidad, s.DuracionMinutos)
		if err != nil {
			rl.Skip(s.Pos, migrators.SkipInsertFailed, "err", err.Error())
			continue
		}
		stats.Emitted++
	}

	pairs, err := r.store.SelectPairs(ctx,
		"SELECT id_servicio, codigo FROM servicios WHERE codigo IS NOT NULL")
	if err != nil {
		return stats, fmt.Errorf("reload service map: %w", err)
	}
	// service codes are case-significant
	st.serviciosByCodigo = refmap.FromPairs(pairs, true)

	stats.Processed = rl.Processed
	stats.Skipped = rl.Skipped()
	return stats, nil
}

func (r *Runner) migrateAppointments(ctx context.Context, st *runState) (PhaseStats, error) {
	var stats PhaseStats
	if st.atenciones == nil {
		stats.Status = "skipped"
		return stats, nil
	}

	estadoDefault, err := r.store.QueryInt64(ctx,
		"SELECT id_estado FROM estados_cita WHERE codigo = "+r.store.Placeholder(1), "REALIZADA")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return stats, fmt.Errorf("estados_cita has no REALIZADA entry; schema not provisioned")
		}
		return stats, fmt.Errorf("fetch default appointment status: %w", err)
	}

	bundles, rl := migrators.MigrateAppointments(
		st.atenciones, st.pacientesByRUT, st.profesionales, st.serviciosByCodigo,
		migrators.AppointmentOptions{
			DefaultDurationMin: r.cfg.Defaults.AppointmentDurationMin,
			MinNoteLen:         r.cfg.Defaults.MinClinicalNoteLen,
			EstadoDefault:      estadoDefault,
			UbicacionDefault:   r.cfg.Defaults.LocationID,
		})

	citaSQL := r.store.InsertSQL("citas",
		"codigo_cita", "id_paciente", "id_profesional", "id_servicio", "id_estado",
		"id_ubicacion", "fecha_inicio", "fecha_fin", "observaciones", "observacion_migrada")

	inserted := make([]migrators.AppointmentBundle, 0, len(bundles))
	for i, b := range bundles {
		c := b.Cita
		err := r.store.Exec(ctx, citaSQL,
			c.CodigoCita, c.IDPaciente, c.IDProfesional, c.IDServicio, c.IDEstado,
			c.IDUbicacion, c.FechaInicio, c.FechaFin, c.Observaciones, c.Observaciones)
		if err != nil {
			rl.Skip(b.Pos, migrators.SkipInsertFailed, "err", err.Error())
			continue
		}
		inserted = append(inserted, b)
		stats.Emitted++
		if (i+1)%500 == 0 {
			r.log.Infow("appointment progress", "rows", i+1, "inserted", stats.Emitted)
		}
	}

	if err := r.stitchDependents(ctx, inserted, rl); err != nil {
		return stats, err
	}

	stats.Processed = rl.Processed
	stats.Skipped = rl.Skipped()
	return stats, nil
}

// stitchDependents links financial details, payments and clinical notes to
// their appointments. The store assigns id_cita only at insert time and a
// batch insert does not hand generated keys back, so the dependents are
// correlated through the natural appointment code: reload codigo_cita →
// id_cita, then insert each dependent with the resolved surrogate. Row order
// is never relied on.
func (r *Runner) stitchDependents(ctx context.Context, bundles []migrators.AppointmentBundle, rl *migrators.RowLog) error {
	citaIDs, err := r.store.SelectPairs(ctx,
		"SELECT id_cita, codigo_cita FROM citas WHERE codigo_cita IS NOT NULL")
	if err != nil {
		return fmt.Errorf("reload appointment map: %w", err)
	}
	byCodigo := refmap.FromPairs(citaIDs, true)

	detalleSQL := r.store.InsertSQL("detalle_financiero_cita",
		"id_cita", "precio_cobrado", "monto_profesional", "monto_clinica", "impuesto_retenido")
	pagoSQL := r.store.InsertSQL("pagos",
		"id_cita", "fecha_pago", "monto", "estado_pago", "id_metodo_pago")
	fichaSQL := r.store.InsertSQL("ficha_clinica",
		"id_cita", "id_paciente", "observacion_historica")

	var detalles, pagos, fichas int
	for _, b := range bundles {
		if b.Cita.CodigoCita == nil {
			rl.Skip(b.Pos, migrators.SkipUnresolvedCita)
			continue
		}
		idCita, ok := byCodigo.Lookup(*b.Cita.CodigoCita)
		if !ok {
			rl.Skip(b.Pos, migrators.SkipUnresolvedCita, "codigo_cita", *b.Cita.CodigoCita)
			continue
		}

		if err := r.store.Exec(ctx, detalleSQL,
			idCita, b.Detalle.PrecioCobrado, b.Detalle.MontoProfesional,
			b.Detalle.MontoClinica, b.Detalle.ImpuestoRetenido); err != nil {
			rl.Skip(b.Pos, migrators.SkipInsertFailed, "table", "detalle_financiero_cita", "err", err.Error())
		} else {
			detalles++
		}

		if b.Pago != nil {
			if err := r.store.Exec(ctx, pagoSQL,
				idCita, b.Pago.FechaPago, b.Pago.Monto, b.Pago.EstadoPago,
				r.cfg.Defaults.PaymentMethodID); err != nil {
				rl.Skip(b.Pos, migrators.SkipInsertFailed, "table", "pagos", "err", err.Error())
			} else {
				pagos++
			}
		}

		if b.Ficha != nil {
			if err := r.store.Exec(ctx, fichaSQL,
				idCita, b.Ficha.IDPaciente, b.Ficha.Observacion); err != nil {
				rl.Skip(b.Pos, migrators.SkipInsertFailed, "table", "ficha_clinica", "err", err.Error())
			} else {
				fichas++
			}
		}
	}

	r.log.Infow("dependent records stitched",
		"detalles", detalles, "pagos", pagos, "fichas", fichas)
	return nil
}
