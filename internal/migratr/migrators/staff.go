package migrators

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/equilibrar/migratr/internal/migratr/normalize"
	"github.com/equilibrar/migratr/internal/migratr/refmap"
	"github.com/equilibrar/migratr/internal/migratr/source"
)

// HashFunc hashes the placeholder password for new staff accounts.
type HashFunc func(password string) (string, error)

// BcryptHash is the production HashFunc.
func BcryptHash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

// StaffOptions carries the defaults applied when the team sheet is silent.
type StaffOptions struct {
	// Password is the temporary placeholder credential; only its hash is
	// ever emitted.
	Password      string
	Hash          HashFunc
	CalendarColor string
}

// MigrateStaff converts DB_CONFIG_EQUIPO rows into account + profile pairs.
// Every professional shares the same placeholder hash; the password itself
// never leaves this function. Rows without a display name are skipped.
func MigrateStaff(tbl *source.Table, especialidades *refmap.Map, opts StaffOptions) ([]StaffMember, *RowLog, error) {
	hash := opts.Hash
	if hash == nil {
		hash = BcryptHash
	}
	passwordHash, err := hash(opts.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash placeholder password: %w", err)
	}

	rl := NewRowLog("staff")
	out := make([]StaffMember, 0, tbl.Len())

	for i := 0; i < tbl.Len(); i++ {
		r := tbl.Record(i)
		rl.Row()

		nombres, ok := normalize.TitleCase(r.Get("ESPECIALISTA"))
		if !ok {
			rl.Skip(r.Position, SkipMissingName)
			continue
		}

		email, ok := normalize.CleanText(r.Get("EMAIL"))
		if !ok {
			// dummy address so the account row satisfies its NOT NULL
			email = strings.ReplaceAll(strings.ToLower(nombres), " ", ".") + "@clinica.com"
		}

		m := StaffMember{
			Pos:               r.Position,
			Email:             email,
			PasswordHash:      passwordHash,
			Nombres:           nombres,
			ColorCalendario:   opts.CalendarColor,
			ComisionBase:      normalize.CleanPercent(r.Get("COMISION_%")),
			RetencionImpuesto: normalize.CleanPercent(r.Get("RETENCION_%")),
			Activo:            true,
		}

		if color, ok := normalize.CleanText(r.Get("COLOR_PROFESIONAL")); ok {
			m.ColorCalendario = color
		}
		if esp, ok := normalize.CleanText(r.Get("ESPECIALIDAD")); ok {
			m.IDEspecialidad = optID(especialidades.Lookup(esp))
		}
		if estado, ok := normalize.CleanText(r.Get("ESTADO")); ok {
			m.Activo = strings.EqualFold(estado, "ACTIVO")
		}

		out = append(out, m)
	}
	return out, rl, nil
}
