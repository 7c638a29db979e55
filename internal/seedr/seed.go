// Package seedr generates a synthetic set of the four legacy clinic sheets
// as CSV exports. The output imitates the real spreadsheets, flaws included:
// duplicated RUTs, day-first dates in mixed separators, peso amounts with
// currency formatting, and appointment rows that reference patients by their
// RUT in whatever formatting the sheet author used that day.
package seedr

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"gopkg.in/yaml.v3"

	"github.com/equilibrar/migratr/internal/migratr/source"
)

type Config struct {
	Output     string `yaml:"output"`
	Seed       int64  `yaml:"seed"`
	Patients   int    `yaml:"patients"`
	Staff      int    `yaml:"staff"`
	Atenciones int    `yaml:"atenciones"`

	// Mess knobs, percentages 0-100. The defaults reproduce the rough error
	// rates observed in the real sheets.
	DuplicateRUTPct int `yaml:"duplicate_rut_pct"`
	BadDatePct      int `yaml:"bad_date_pct"`
	UnpaidPct       int `yaml:"unpaid_pct"`
}

func readConfig(path string) (Config, error) {
	log.Printf("[DEBUG] Loading seed config from %s", path)
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Output == "" {
		cfg.Output = "./csv_exports"
	}
	if cfg.Patients == 0 {
		cfg.Patients = 120
	}
	if cfg.Staff == 0 {
		cfg.Staff = 8
	}
	if cfg.Atenciones == 0 {
		cfg.Atenciones = 600
	}
	if cfg.DuplicateRUTPct == 0 {
		cfg.DuplicateRUTPct = 3
	}
	if cfg.BadDatePct == 0 {
		cfg.BadDatePct = 2
	}
	if cfg.UnpaidPct == 0 {
		cfg.UnpaidPct = 15
	}
	return cfg, nil
}

// Generate writes the four sheet exports into cfg.Output.
func Generate(configPath *string) {
	cfg, err := readConfig(*configPath)
	if err != nil {
		log.Fatalf("[FATAL] error loading seed config: %v", err)
	}

	// deterministic data if seed provided
	gofakeit.Seed(cfg.Seed)

	if err := os.MkdirAll(cfg.Output, 0755); err != nil {
		log.Fatalf("[FATAL] cannot create output dir: %v", err)
	}

	patients := genPatients(cfg)
	staff := genStaff(cfg)
	atenciones := genAtenciones(cfg, patients, staff)

	writeSheet(cfg, source.FileClientes, clientesHeaders, patients)
	writeSheet(cfg, source.FileEquipo, equipoHeaders, staff)
	writeSheet(cfg, source.FileServicios, serviciosHeaders, serviciosRows())
	writeSheet(cfg, source.FileAtenciones, atencionesHeaders, atenciones)

	log.Printf("[INFO] Generation complete: patients=%d staff=%d servicios=%d atenciones=%d",
		len(patients), len(staff), len(Servicios), len(atenciones))
}

var clientesHeaders = []string{
	"RUT", "NOMBRES", "PATERNO", "MATERNO", "CORREO", "TELEFONO",
	"DIRECCION", "FECHA_NACIMIENTO", "ISAPRE", "COMUNA",
}

var equipoHeaders = []string{
	"ESPECIALISTA", "ESPECIALIDAD", "EMAIL", "COLOR_PROFESIONAL",
	"COMISION_%", "RETENCION_%", "ESTADO",
}

var serviciosHeaders = []string{"ID_SERVICIO", "NOMBRE_SERVICIO", "PRECIO_LISTA"}

var atencionesHeaders = []string{
	"ID_ATENCION", "CODIGO CLIENTE", "ESPECIALISTA", "ID_SERVICIO",
	"FECHA DE ATENCION", "HORA DE ATENCION", "ID_ESTADO",
	"INGRESO", "PAGO ESPECIALISTA (LIQUIDO)", "UTILIDAD", "IMPUESTO",
	"FECHA DE PAGO", "OBSERVACION",
}

func writeSheet(cfg Config, name string, headers []string, rows [][]string) {
	path := filepath.Join(cfg.Output, name)
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("[FATAL] cannot create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		log.Fatalf("[FATAL] write headers to %s: %v", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		log.Fatalf("[FATAL] write rows to %s: %v", path, err)
	}
	log.Printf("[INFO] Wrote %s (%d rows)", path, len(rows))
}

func pct(p int) bool {
	return gofakeit.Number(1, 100) <= p
}

// rutCheckDigit computes the mod-11 verifier for a Chilean RUT body.
func rutCheckDigit(body int) string {
	sum, factor := 0, 2
	for n := body; n > 0; n /= 10 {
		sum += (n % 10) * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}
	switch d := 11 - sum%11; d {
	case 11:
		return "0"
	case 10:
		return "K"
	default:
		return fmt.Sprint(d)
	}
}

// formatRUT renders a RUT body the way sheet authors did: sometimes dotted,
// sometimes bare, dash before the verifier either way.
func formatRUT(body int) string {
	dv := rutCheckDigit(body)
	s := fmt.Sprint(body)
	if pct(50) {
		var parts []string
		for len(s) > 3 {
			parts = append([]string{s[len(s)-3:]}, parts...)
			s = s[:len(s)-3]
		}
		parts = append([]string{s}, parts...)
		s = strings.Join(parts, ".")
	}
	return s + "-" + dv
}

// dayFirstDate renders t in one of the sheet's day-first shapes.
func dayFirstDate(t time.Time) string {
	if pct(50) {
		return t.Format("2/1/2006")
	}
	return t.Format("2-1-2006")
}

func randomDayIn(yearFrom, yearTo int) time.Time {
	from := time.Date(yearFrom, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(yearTo, 12, 31, 0, 0, 0, 0, time.UTC)
	days := int(to.Sub(from).Hours() / 24)
	return from.AddDate(0, 0, gofakeit.Number(0, days))
}

func genPatients(cfg Config) [][]string {
	rows := make([][]string, 0, cfg.Patients)
	bodies := make([]int, 0, cfg.Patients)
	for i := 0; i < cfg.Patients; i++ {
		var body int
		if len(bodies) > 0 && pct(cfg.DuplicateRUTPct) {
			// sheet authors pasted existing rows and edited them in place
			body = bodies[gofakeit.Number(0, len(bodies)-1)]
		} else {
			body = gofakeit.Number(5_000_000, 25_000_000)
		}
		bodies = append(bodies, body)

		nombres := RandomFirstName()
		paterno := RandomSurname()
		materno := RandomSurname()

		email := ""
		if pct(70) {
			email = fmt.Sprintf("%s.%s%d@example.org",
				strings.ToLower(strings.Fields(nombres)[0]),
				strings.ToLower(paterno), gofakeit.Number(10, 99))
		}
		telefono := ""
		if pct(80) {
			telefono = fmt.Sprintf("+569%08d", gofakeit.Number(10_000_000, 99_999_999))
		}
		direccion := ""
		if pct(60) {
			direccion = fmt.Sprintf("%s %d", gofakeit.StreetName(), gofakeit.Number(100, 9999))
		}
		nacimiento := dayFirstDate(randomDayIn(1950, 2015))
		if pct(cfg.BadDatePct) {
			nacimiento = "sin fecha"
		}

		rows = append(rows, []string{
			formatRUT(body), nombres, paterno, materno, email, telefono,
			direccion, nacimiento, RandomIsapre(), RandomComuna(),
		})
	}
	return rows
}

func genStaff(cfg Config) [][]string {
	rows := make([][]string, 0, cfg.Staff)
	for i := 0; i < cfg.Staff; i++ {
		nombre := RandomFirstName() + " " + RandomSurname()
		estado := "ACTIVO"
		if pct(10) {
			estado = "INACTIVO"
		}
		color := ""
		if pct(40) {
			color = gofakeit.HexColor()
		}
		rows = append(rows, []string{
			nombre, RandomEspecialidad(), "", color,
			fmt.Sprint(gofakeit.Number(50, 70)),
			"12.25",
			estado,
		})
	}
	return rows
}

func serviciosRows() [][]string {
	rows := make([][]string, 0, len(Servicios))
	for _, s := range Servicios {
		precio := fmt.Sprint(s.Precio)
		if pct(30) {
			precio = fmt.Sprintf("$%s", precio)
		}
		rows = append(rows, []string{s.Codigo, s.Nombre, precio})
	}
	return rows
}

func genAtenciones(cfg Config, patients, staff [][]string) [][]string {
	rows := make([][]string, 0, cfg.Atenciones)
	for i := 0; i < cfg.Atenciones; i++ {
		patient := patients[gofakeit.Number(0, len(patients)-1)]
		member := staff[gofakeit.Number(0, len(staff)-1)]
		svc := Servicios[gofakeit.Number(0, len(Servicios)-1)]

		day := randomDayIn(2023, 2024)
		fecha := dayFirstDate(day)
		if pct(cfg.BadDatePct) {
			fecha = "pendiente"
		}
		hora := fmt.Sprintf("%02d:%02d", gofakeit.Number(9, 19), 15*gofakeit.Number(0, 3))

		ingreso := svc.Precio
		pagoEspecialista := ingreso * 60 / 100
		impuesto := ingreso * 10 / 100
		utilidad := ingreso - pagoEspecialista - impuesto

		fechaPago := ""
		if !pct(cfg.UnpaidPct) {
			fechaPago = dayFirstDate(day.AddDate(0, 0, gofakeit.Number(0, 30)))
		}

		obs := ""
		if pct(60) {
			obs = RandomObservacion()
		}

		rows = append(rows, []string{
			fmt.Sprintf("AT-%05d", i+1),
			patient[0], // RUT column, sheet formatting and all
			member[0],
			svc.Codigo,
			fecha,
			hora,
			"",
			fmt.Sprintf("$%d", ingreso),
			fmt.Sprint(pagoEspecialista),
			fmt.Sprint(utilidad),
			fmt.Sprint(impuesto),
			fechaPago,
			obs,
		})
	}
	return rows
}
