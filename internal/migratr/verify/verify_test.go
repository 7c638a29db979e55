package verify

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore answers count queries by first-match on a distinctive query
// fragment; unmatched queries count zero.
type fakeStore struct {
	counts []fragCount
	minMax []string
}

type fragCount struct {
	frag string
	n    int64
}

func (f *fakeStore) QueryInt64(ctx context.Context, query string, args ...any) (int64, error) {
	for _, c := range f.counts {
		if strings.Contains(query, c.frag) {
			return c.n, nil
		}
	}
	return 0, nil
}

func (f *fakeStore) QueryRowStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	return f.minMax, nil
}

func (f *fakeStore) Placeholder(i int) string { return "?" }

func TestRun_CleanSchema(t *testing.T) {
	st := &fakeStore{
		counts: []fragCount{
			{"LEFT JOIN", 0},
			{"SUM(precio_cobrado)", 875000},
			{"ABS(precio_cobrado", 0},
			{"COUNT(*) FROM pacientes WHERE", 0},
			{"COUNT(*) FROM pacientes", 120},
			{"COUNT(*) FROM citas WHERE", 0},
			{"COUNT(*) FROM citas", 450},
		},
		minMax: []string{"2023-01-09 10:00:00", "2024-12-20 18:30:00"},
	}

	rep, err := Run(context.Background(), st, Options{FinancialTolerance: 100})
	require.NoError(t, err)

	assert.True(t, rep.Clean())
	assert.Len(t, rep.Counts, len(countedTables))
	assert.Equal(t, int64(875000), rep.IngresosTotal)
	assert.Equal(t, "2023-01-09 10:00:00", rep.FirstCita)
	assert.Equal(t, "2024-12-20 18:30:00", rep.LastCita)
}

func TestRun_CollectsFindings(t *testing.T) {
	st := &fakeStore{
		counts: []fragCount{
			{"LEFT JOIN pacientes p ON c.id_paciente", 3},
			{"HAVING COUNT(*) > 1", 2},
			{"ABS(precio_cobrado", 5},
			{"SUM(precio_cobrado)", 0},
		},
	}

	rep, err := Run(context.Background(), st, Options{FinancialTolerance: 100})
	require.NoError(t, err)

	assert.False(t, rep.Clean())
	require.Len(t, rep.Findings, 3)

	byCheck := make(map[string]int64)
	for _, f := range rep.Findings {
		byCheck[f.Check] = f.Count
	}
	assert.Equal(t, int64(3), byCheck["citas referencing a missing patient"])
	assert.Equal(t, int64(2), byCheck["duplicated RUTs in pacientes"])
	assert.Equal(t, int64(5), byCheck["financial breakdowns off by more than 100"])
}

func TestRun_EmptyScheduleHasNoDateRange(t *testing.T) {
	st := &fakeStore{minMax: []string{"", ""}}

	rep, err := Run(context.Background(), st, Options{})
	require.NoError(t, err)
	assert.Empty(t, rep.FirstCita)
	assert.Empty(t, rep.LastCita)
}

func TestRun_NormalizesDriverDateShapes(t *testing.T) {
	// lib/pq hands timestamps back RFC3339-ish
	st := &fakeStore{minMax: []string{"2023-01-09T10:00:00Z", "2024-12-20T18:30:00Z"}}

	rep, err := Run(context.Background(), st, Options{})
	require.NoError(t, err)
	assert.Equal(t, "2023-01-09 10:00:00", rep.FirstCita)
	assert.Equal(t, "2024-12-20 18:30:00", rep.LastCita)
}

func TestReport_Print(t *testing.T) {
	rep := &Report{
		Counts:        []TableCount{{Table: "pacientes", Rows: 120}},
		Findings:      []Finding{{Check: "duplicated RUTs in pacientes", Count: 2}},
		FirstCita:     "2023-01-09 10:00:00",
		LastCita:      "2024-12-20 18:30:00",
		IngresosTotal: 875000,
	}

	var buf bytes.Buffer
	rep.Print(&buf)
	out := buf.String()

	assert.Contains(t, out, "pacientes")
	assert.Contains(t, out, "duplicated RUTs in pacientes")
	assert.Contains(t, out, "875000")
	assert.Contains(t, out, "2023-01-09 10:00:00 .. 2024-12-20 18:30:00")
	assert.NotContains(t, out, "none")
}
