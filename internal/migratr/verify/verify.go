// Package verify runs read-only consistency checks against a migrated
// schema. Every check is advisory: the report lists what it found and the
// caller decides whether the numbers are acceptable. Nothing here writes.
package verify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/araddon/dateparse"
)

// Store is the read-only slice of the target database verify needs.
type Store interface {
	QueryInt64(ctx context.Context, query string, args ...any) (int64, error)
	QueryRowStrings(ctx context.Context, query string, args ...any) ([]string, error)
	Placeholder(i int) string
}

type Options struct {
	// FinancialTolerance is the allowed absolute gap, in whole pesos, between
	// precio_cobrado and the sum of its parts before the row counts as
	// inconsistent. Legacy sheets carry rounding noise; zero is too strict.
	FinancialTolerance int
}

type TableCount struct {
	Table string
	Rows  int64
}

// Finding is one failed check: Count rows violate it.
type Finding struct {
	Check string
	Count int64
}

type Report struct {
	Counts        []TableCount
	Findings      []Finding
	FirstCita     string
	LastCita      string
	IngresosTotal int64
}

// countedTables in report order: dimensions first, then entities in
// migration order.
var countedTables = []string{
	"comunas",
	"previsiones",
	"especialidades",
	"pacientes",
	"usuarios",
	"profesionales",
	"servicios",
	"citas",
	"detalle_financiero_cita",
	"pagos",
	"ficha_clinica",
}

// Referential checks. The migration never inserts a row whose parent failed,
// so any non-zero count here means the target schema was touched outside the
// migration or the schema lacks its FK constraints.
var orphanChecks = []struct {
	name  string
	query string
}{
	{
		"citas referencing a missing patient",
		"SELECT COUNT(*) FROM citas c LEFT JOIN pacientes p ON c.id_paciente = p.id_paciente WHERE p.id_paciente IS NULL",
	},
	{
		"citas referencing a missing professional",
		"SELECT COUNT(*) FROM citas c LEFT JOIN profesionales pr ON c.id_profesional = pr.id_profesional WHERE pr.id_profesional IS NULL",
	},
	{
		"detalle_financiero_cita referencing a missing cita",
		"SELECT COUNT(*) FROM detalle_financiero_cita d LEFT JOIN citas c ON d.id_cita = c.id_cita WHERE c.id_cita IS NULL",
	},
	{
		"pagos referencing a missing cita",
		"SELECT COUNT(*) FROM pagos pg LEFT JOIN citas c ON pg.id_cita = c.id_cita WHERE c.id_cita IS NULL",
	},
	{
		"ficha_clinica referencing a missing cita",
		"SELECT COUNT(*) FROM ficha_clinica f LEFT JOIN citas c ON f.id_cita = c.id_cita WHERE c.id_cita IS NULL",
	},
	{
		"ficha_clinica referencing a missing patient",
		"SELECT COUNT(*) FROM ficha_clinica f LEFT JOIN pacientes p ON f.id_paciente = p.id_paciente WHERE p.id_paciente IS NULL",
	},
}

var qualityChecks = []struct {
	name  string
	query string
}{
	{
		"pacientes without a name",
		"SELECT COUNT(*) FROM pacientes WHERE nombres IS NULL OR nombres = ''",
	},
	{
		"duplicated RUTs in pacientes",
		"SELECT COUNT(*) FROM (SELECT rut FROM pacientes WHERE rut IS NOT NULL GROUP BY rut HAVING COUNT(*) > 1) AS d",
	},
	{
		"citas without a start date",
		"SELECT COUNT(*) FROM citas WHERE fecha_inicio IS NULL",
	},
	{
		"negative charged amounts",
		"SELECT COUNT(*) FROM detalle_financiero_cita WHERE precio_cobrado < 0",
	},
	{
		"profesionales without a specialty",
		"SELECT COUNT(*) FROM profesionales WHERE id_especialidad IS NULL",
	},
}

// Run executes all checks and returns the collected report. A query failure
// is a hard error: a schema verify cannot read is a schema verify cannot
// vouch for.
func Run(ctx context.Context, st Store, opts Options) (*Report, error) {
	rep := &Report{}

	for _, table := range countedTables {
		n, err := st.QueryInt64(ctx, "SELECT COUNT(*) FROM "+table)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		rep.Counts = append(rep.Counts, TableCount{Table: table, Rows: n})
	}

	for _, c := range orphanChecks {
		n, err := st.QueryInt64(ctx, c.query)
		if err != nil {
			return nil, fmt.Errorf("check %q: %w", c.name, err)
		}
		if n > 0 {
			rep.Findings = append(rep.Findings, Finding{Check: c.name, Count: n})
		}
	}

	for _, c := range qualityChecks {
		n, err := st.QueryInt64(ctx, c.query)
		if err != nil {
			return nil, fmt.Errorf("check %q: %w", c.name, err)
		}
		if n > 0 {
			rep.Findings = append(rep.Findings, Finding{Check: c.name, Count: n})
		}
	}

	finQuery := "SELECT COUNT(*) FROM detalle_financiero_cita " +
		"WHERE ABS(precio_cobrado - (monto_profesional + monto_clinica + impuesto_retenido)) > " +
		st.Placeholder(1)
	n, err := st.QueryInt64(ctx, finQuery, opts.FinancialTolerance)
	if err != nil {
		return nil, fmt.Errorf("financial consistency: %w", err)
	}
	if n > 0 {
		rep.Findings = append(rep.Findings, Finding{
			Check: fmt.Sprintf("financial breakdowns off by more than %d", opts.FinancialTolerance),
			Count: n,
		})
	}

	total, err := st.QueryInt64(ctx, "SELECT COALESCE(SUM(precio_cobrado), 0) FROM detalle_financiero_cita")
	if err != nil {
		return nil, fmt.Errorf("total income: %w", err)
	}
	rep.IngresosTotal = total

	if err := fillDateRange(ctx, st, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// fillDateRange reads the appointment time span. The two drivers hand back
// datetimes in different textual shapes, so the values are reparsed into a
// single canonical form; a shape dateparse cannot read is reported raw.
func fillDateRange(ctx context.Context, st Store, rep *Report) error {
	row, err := st.QueryRowStrings(ctx, "SELECT MIN(fecha_inicio), MAX(fecha_inicio) FROM citas")
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("appointment date range: %w", err)
	}
	if len(row) == 2 {
		rep.FirstCita = canonicalDate(row[0])
		rep.LastCita = canonicalDate(row[1])
	}
	return nil
}

func canonicalDate(s string) string {
	if s == "" {
		return ""
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return s
	}
	return t.Format("2006-01-02 15:04:05")
}

// Clean reports whether no check found anything.
func (r *Report) Clean() bool {
	return len(r.Findings) == 0
}

// Print writes the human-readable report.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintln(w, "row counts:")
	for _, c := range r.Counts {
		fmt.Fprintf(w, "  %-26s %d\n", c.Table, c.Rows)
	}

	fmt.Fprintln(w, "findings:")
	if r.Clean() {
		fmt.Fprintln(w, "  none")
	}
	for _, f := range r.Findings {
		fmt.Fprintf(w, "  %-50s %d\n", f.Check, f.Count)
	}

	if r.FirstCita != "" || r.LastCita != "" {
		fmt.Fprintf(w, "appointments span: %s .. %s\n", r.FirstCita, r.LastCita)
	}
	fmt.Fprintf(w, "total income recorded: %d\n", r.IngresosTotal)
}
