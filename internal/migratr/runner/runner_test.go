package runner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equilibrar/migratr/internal/migratr/config"
	"github.com/equilibrar/migratr/internal/migratr/source"
)

// fakeDB is an in-memory stand-in for the target schema. It understands just
// enough of the SQL the runner emits: INSERT statements built by its own
// InsertSQL, and the id/key SELECT shapes used for reloads. Ids are assigned
// per table in insert order, starting at 1.
type fakeDB struct {
	tables     map[string][]map[string]any
	failInsert map[string]bool
}

func newFakeDB() *fakeDB {
	f := &fakeDB{
		tables:     make(map[string][]map[string]any),
		failInsert: make(map[string]bool),
	}
	// rows the schema provisioning seeds before any migration run
	f.addRow("roles", map[string]any{"nombre": "PROFESIONAL"})
	f.addRow("estados_cita", map[string]any{"codigo": "REALIZADA"})
	return f
}

func (f *fakeDB) addRow(table string, row map[string]any) int64 {
	id := int64(len(f.tables[table]) + 1)
	row["_id"] = id
	f.tables[table] = append(f.tables[table], row)
	return id
}

func (f *fakeDB) rows(table string) []map[string]any { return f.tables[table] }

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case *string:
		if s == nil {
			return "", false
		}
		return *s, true
	default:
		return "", false
	}
}

func (f *fakeDB) InsertSQL(table string, cols ...string) string {
	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = "?"
	}
	return "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(ph, ", ") + ")"
}

func (f *fakeDB) Placeholder(i int) string { return "?" }

func (f *fakeDB) Exec(ctx context.Context, query string, args ...any) error {
	rest := strings.TrimPrefix(query, "INSERT INTO ")
	table := rest[:strings.Index(rest, " ")]
	if f.failInsert[table] {
		return errors.New("constraint violation")
	}
	colList := rest[strings.Index(rest, "(")+1 : strings.Index(rest, ")")]
	cols := strings.Split(colList, ", ")
	row := make(map[string]any, len(cols))
	for i, c := range cols {
		row[c] = args[i]
	}
	f.addRow(table, row)
	return nil
}

func (f *fakeDB) SelectPairs(ctx context.Context, query string, args ...any) (map[string]int64, error) {
	// "SELECT <id>, <key> FROM <table> [WHERE ...]"
	fields := strings.Fields(query)
	keyCol, table := fields[2], fields[4]
	out := make(map[string]int64)
	for _, row := range f.tables[table] {
		if key, ok := asString(row[keyCol]); ok && key != "" {
			out[key] = row["_id"].(int64)
		}
	}
	return out, nil
}

func (f *fakeDB) QueryInt64(ctx context.Context, query string, args ...any) (int64, error) {
	// "SELECT <id> FROM <table> WHERE <col> = ?"
	fields := strings.Fields(query)
	table, whereCol := fields[3], fields[5]
	want := args[0].(string)
	for _, row := range f.tables[table] {
		if v, ok := asString(row[whereCol]); ok && v == want {
			return row["_id"].(int64), nil
		}
	}
	return 0, sql.ErrNoRows
}

func writeSources(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

const clientesCSV = `RUT,NOMBRES,PATERNO,MATERNO,CORREO,TELEFONO,DIRECCION,FECHA_NACIMIENTO,ISAPRE,COMUNA
12.345.678-9,MARIA JOSE,LOPEZ,DIAZ,mj@example.com,+56911112222,Av. Providencia 1234,15/05/1990,Colmena,Providencia
9.876.543-2,PEDRO,SOTO,MUÑOZ,,,,,Banmédica,Ñuñoa
12.345.678-9,MARIA JOSE,LOPEZ,DIAZ,,,,,Colmena,Providencia
`

const equipoCSV = `ESPECIALISTA,ESPECIALIDAD,EMAIL,COLOR_PROFESIONAL,COMISION_%,RETENCION_%,ESTADO
CAROLINA REYES,Psicología,,,60,12.25,ACTIVO
`

const serviciosCSV = `ID_SERVICIO,NOMBRE_SERVICIO,PRECIO_LISTA
SVC-01,Consulta Psicológica,35000
`

const atencionesCSV = `ID_ATENCION,CODIGO CLIENTE,ESPECIALISTA,ID_SERVICIO,FECHA DE ATENCION,HORA DE ATENCION,ID_ESTADO,INGRESO,PAGO ESPECIALISTA (LIQUIDO),UTILIDAD,IMPUESTO,FECHA DE PAGO,OBSERVACION
AT-001,12.345.678-9,CAROLINA REYES,SVC-01,05/03/2024,15:30,,35000,21000,10500,3500,06/03/2024,Paciente presenta avance sostenido en el tratamiento
AT-002,99.999.999-9,CAROLINA REYES,,05/03/2024,10:00,,1000,,,,,
`

func allSources(t *testing.T) string {
	return writeSources(t, map[string]string{
		source.FileClientes:   clientesCSV,
		source.FileEquipo:     equipoCSV,
		source.FileServicios:  serviciosCSV,
		source.FileAtenciones: atencionesCSV,
	})
}

func testConfig(dir, runLog string) *config.Config {
	return &config.Config{
		Database: config.DatabaseCfg{Driver: "mysql"},
		Source:   config.SourceCfg{Dir: dir},
		Defaults: config.DefaultsCfg{
			AppointmentDurationMin: 60,
			ServiceDurationMin:     60,
			ServiceModality:        "PRESENCIAL",
			CalendarColor:          "#3B82F6",
			PlaceholderPassword:    "temp1234",
			MinClinicalNoteLen:     20,
			PaymentMethodID:        1,
			LocationID:             1,
		},
		Logging: config.LoggingCfg{Level: "info", RunLog: runLog},
	}
}

func phaseByName(t *testing.T, s *RunSummary, name string) PhaseStats {
	t.Helper()
	for _, p := range s.Phases {
		if p.Phase == name {
			return p
		}
	}
	t.Fatalf("phase %s not in summary", name)
	return PhaseStats{}
}

func TestRun_FullMigration(t *testing.T) {
	dir := allSources(t)
	runLog := filepath.Join(t.TempDir(), "runs.ndjson")
	db := newFakeDB()

	summary, err := New(db, testConfig(dir, runLog)).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.OK)
	assert.NotEmpty(t, summary.RunID)
	require.Len(t, summary.Phases, 6)
	for _, p := range summary.Phases {
		assert.Equal(t, "ok", p.Status, p.Phase)
	}

	assert.Len(t, db.rows("comunas"), 2)
	assert.Len(t, db.rows("especialidades"), 1)
	require.Len(t, db.rows("previsiones"), 2)
	for _, row := range db.rows("previsiones") {
		assert.Equal(t, "ISAPRE", row["tipo"], "dynamic insurance rows carry the plan type")
	}

	// duplicate RUT row does not migrate
	pacientes := db.rows("pacientes")
	require.Len(t, pacientes, 2)
	rut, _ := asString(pacientes[0]["rut"])
	assert.Equal(t, "123456789", rut)
	patStats := phaseByName(t, summary, "migrate_patients")
	assert.Equal(t, 3, patStats.Processed)
	assert.Equal(t, 2, patStats.Emitted)
	assert.Equal(t, 1, patStats.Skipped)

	// staff insert the account first, then the profile pointing at it
	usuarios := db.rows("usuarios")
	require.Len(t, usuarios, 1)
	email, _ := asString(usuarios[0]["email"])
	assert.Equal(t, "carolina.reyes@clinica.com", email)
	hash, _ := asString(usuarios[0]["password_hash"])
	assert.NotContains(t, hash, "temp1234")
	profesionales := db.rows("profesionales")
	require.Len(t, profesionales, 1)
	assert.Equal(t, usuarios[0]["_id"], profesionales[0]["id_usuario"])

	assert.Len(t, db.rows("servicios"), 1)

	// the second appointment references an unknown patient code
	citas := db.rows("citas")
	require.Len(t, citas, 1)
	fecha, _ := asString(citas[0]["fecha_inicio"])
	assert.Equal(t, "2024-03-05 15:30:00", fecha)
	apptStats := phaseByName(t, summary, "migrate_appointments")
	assert.Equal(t, 2, apptStats.Processed)
	assert.Equal(t, 1, apptStats.Emitted)
	assert.Equal(t, 1, apptStats.Skipped)

	// dependents stitched through the appointment code
	require.Len(t, db.rows("detalle_financiero_cita"), 1)
	assert.Equal(t, citas[0]["_id"], db.rows("detalle_financiero_cita")[0]["id_cita"])
	require.Len(t, db.rows("pagos"), 1)
	assert.Equal(t, 35000, db.rows("pagos")[0]["monto"])
	require.Len(t, db.rows("ficha_clinica"), 1)
	assert.Equal(t, pacientes[0]["_id"], db.rows("ficha_clinica")[0]["id_paciente"])

	// run log got exactly one summary line
	data, err := os.ReadFile(runLog)
	require.NoError(t, err)
	var logged RunSummary
	require.NoError(t, json.Unmarshal(data, &logged))
	assert.Equal(t, summary.RunID, logged.RunID)
	assert.True(t, logged.OK)
}

func TestRun_OptionalSourcesMissing(t *testing.T) {
	dir := writeSources(t, map[string]string{
		source.FileClientes: clientesCSV,
		source.FileEquipo:   equipoCSV,
	})
	db := newFakeDB()

	summary, err := New(db, testConfig(dir, "")).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.OK)

	assert.Equal(t, "skipped", phaseByName(t, summary, "migrate_services").Status)
	assert.Equal(t, "skipped", phaseByName(t, summary, "migrate_appointments").Status)
	assert.Empty(t, db.rows("servicios"))
	assert.Empty(t, db.rows("citas"))
	assert.Len(t, db.rows("pacientes"), 2, "patient phase still runs")
}

func TestRun_RequiredSourceMissing(t *testing.T) {
	dir := t.TempDir() // no exports at all
	runLog := filepath.Join(t.TempDir(), "runs.ndjson")

	summary, err := New(newFakeDB(), testConfig(dir, runLog)).Run(context.Background())
	require.Error(t, err)
	assert.False(t, summary.OK)
	require.NotEmpty(t, summary.Phases)
	assert.Equal(t, "load_sources", summary.Phases[0].Phase)
	assert.Equal(t, "failed", summary.Phases[0].Status)
	assert.Len(t, summary.Phases, 1, "run terminates at the first failed phase")

	// the failed run is still recorded
	data, err := os.ReadFile(runLog)
	require.NoError(t, err)
	var logged RunSummary
	require.NoError(t, json.Unmarshal(data, &logged))
	assert.False(t, logged.OK)
}

func TestRun_MissingRoleSeedFailsStaffPhase(t *testing.T) {
	dir := allSources(t)
	db := newFakeDB()
	db.tables["roles"] = nil

	summary, err := New(db, testConfig(dir, "")).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate_staff")
	assert.Equal(t, "failed", phaseByName(t, summary, "migrate_staff").Status)
}

func TestRun_RowInsertFailureDoesNotAbort(t *testing.T) {
	dir := allSources(t)
	db := newFakeDB()
	db.failInsert["citas"] = true

	summary, err := New(db, testConfig(dir, "")).Run(context.Background())
	require.NoError(t, err, "row-level insert failures never abort the run")
	assert.True(t, summary.OK)

	apptStats := phaseByName(t, summary, "migrate_appointments")
	assert.Equal(t, 0, apptStats.Emitted)
	assert.Equal(t, 2, apptStats.Skipped)
	assert.Empty(t, db.rows("detalle_financiero_cita"), "no dependents without their appointment")
	assert.Empty(t, db.rows("pagos"))
}
