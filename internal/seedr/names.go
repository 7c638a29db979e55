package seedr

import (
	"github.com/brianvoe/gofakeit/v7"
)

// Shared lists for synthetic legacy-sheet generation. All values are the
// kind the real clinic sheets carry: Santiago comunas, Chilean insurance
// plans, the clinic's specialties and service catalog.

func RandomComuna() string {
	return Comunas[gofakeit.Number(0, len(Comunas)-1)]
}

var Comunas = []string{
	"Providencia", "Las Condes", "Ñuñoa", "Santiago Centro", "La Reina",
	"Vitacura", "Macul", "La Florida", "Peñalolén", "San Miguel",
	"Maipú", "Estación Central", "Recoleta", "Independencia", "Quilicura",
	"Puente Alto", "La Cisterna", "El Bosque", "Lo Barnechea", "Huechuraba",
}

func RandomIsapre() string {
	return Isapres[gofakeit.Number(0, len(Isapres)-1)]
}

var Isapres = []string{
	"Colmena", "Banmédica", "Cruz Blanca", "Consalud", "Vida Tres",
	"Nueva Masvida", "Esencial", "FONASA",
}

func RandomEspecialidad() string {
	return Especialidades[gofakeit.Number(0, len(Especialidades)-1)]
}

var Especialidades = []string{
	"Psicología", "Psiquiatría", "Nutrición", "Fonoaudiología",
	"Terapia Ocupacional", "Kinesiología", "Psicopedagogía",
}

func RandomFirstName() string {
	return FirstNames[gofakeit.Number(0, len(FirstNames)-1)]
}

var FirstNames = []string{
	"MARIA JOSE", "CAMILA", "FRANCISCA", "CATALINA", "VALENTINA",
	"JAVIERA", "CONSTANZA", "FERNANDA", "ANTONIA", "ISIDORA",
	"MATIAS", "SEBASTIAN", "BENJAMIN", "VICENTE", "DIEGO",
	"NICOLAS", "FELIPE", "CRISTOBAL", "JOAQUIN", "TOMAS",
	"PEDRO", "PABLO", "ANDRES", "CAROLINA", "DANIELA",
}

func RandomSurname() string {
	return Surnames[gofakeit.Number(0, len(Surnames)-1)]
}

var Surnames = []string{
	"GONZALEZ", "MUÑOZ", "ROJAS", "DIAZ", "PEREZ",
	"SOTO", "CONTRERAS", "SILVA", "MARTINEZ", "SEPULVEDA",
	"MORALES", "RODRIGUEZ", "LOPEZ", "FUENTES", "HERNANDEZ",
	"TORRES", "ARAYA", "FLORES", "ESPINOZA", "VALENZUELA",
	"CASTILLO", "TAPIA", "REYES", "GUTIERREZ", "CASTRO",
	"PIZARRO", "ALVAREZ", "VASQUEZ", "SANCHEZ", "FERNANDEZ",
}

// Servicio is one row of the clinic's service catalog.
type Servicio struct {
	Codigo string
	Nombre string
	Precio int
}

var Servicios = []Servicio{
	{"SVC-01", "Consulta Psicológica Adulto", 35000},
	{"SVC-02", "Consulta Psicológica Infantil", 38000},
	{"SVC-03", "Consulta Psiquiátrica", 65000},
	{"SVC-04", "Control Psiquiátrico", 45000},
	{"SVC-05", "Consulta Nutricional", 30000},
	{"SVC-06", "Evaluación Fonoaudiológica", 40000},
	{"SVC-07", "Sesión Terapia Ocupacional", 32000},
	{"SVC-08", "Sesión Kinesiología", 28000},
	{"SVC-09", "Evaluación Psicopedagógica", 55000},
	{"SVC-10", "Taller Grupal", 15000},
}

func RandomObservacion() string {
	return Observaciones[gofakeit.Number(0, len(Observaciones)-1)]
}

var Observaciones = []string{
	"ok",
	"pagado",
	"llegó tarde",
	"Paciente presenta avance sostenido en el tratamiento, se mantiene plan actual",
	"Se observa disminución de sintomatología ansiosa, continuar con sesiones quincenales",
	"Primera sesión de evaluación, se solicita completar anamnesis en próxima cita",
	"Paciente refiere mejoría en calidad del sueño tras ajuste de indicaciones",
	"Sesión de cierre de proceso, se entregan indicaciones de seguimiento",
	"Se trabaja regulación emocional con buenos resultados, reforzar en casa",
	"Control de rutina sin novedades, próxima cita en un mes",
}
