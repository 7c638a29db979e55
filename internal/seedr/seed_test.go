package seedr

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equilibrar/migratr/internal/migratr/normalize"
	"github.com/equilibrar/migratr/internal/migratr/source"
)

func TestRutCheckDigit(t *testing.T) {
	assert.Equal(t, "5", rutCheckDigit(12345678))
	assert.Equal(t, "3", rutCheckDigit(9876543))
}

func writeSeedConfig(t *testing.T, output string, seed int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := fmt.Sprintf("output: %s\nseed: %d\npatients: 20\nstaff: 4\natenciones: 50\n", output, seed)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestWriteSchema_Dialects(t *testing.T) {
	var mysql, pg bytes.Buffer
	WriteSchema("mysql", &mysql)
	WriteSchema("postgres", &pg)

	assert.Contains(t, mysql.String(), "AUTO_INCREMENT")
	assert.NotContains(t, mysql.String(), "BIGSERIAL")
	assert.Contains(t, pg.String(), "BIGSERIAL")
	assert.NotContains(t, pg.String(), "AUTO_INCREMENT")

	// reference rows the migration resolves at run time
	for _, out := range []string{mysql.String(), pg.String()} {
		assert.Contains(t, out, "'PROFESIONAL'")
		assert.Contains(t, out, "'REALIZADA'")
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()

	cfgA := writeSeedConfig(t, dirA, 42)
	Generate(&cfgA)
	cfgB := writeSeedConfig(t, dirB, 42)
	Generate(&cfgB)

	for _, name := range []string{
		source.FileClientes, source.FileEquipo, source.FileServicios, source.FileAtenciones,
	} {
		a, err := os.ReadFile(filepath.Join(dirA, name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dirB, name))
		require.NoError(t, err)
		assert.Equal(t, a, b, "%s differs across runs with the same seed", name)
	}
}

func TestGenerate_SheetsAreLoadable(t *testing.T) {
	dir := t.TempDir()
	cfg := writeSeedConfig(t, dir, 7)
	Generate(&cfg)

	clientes, err := source.LoadTable(filepath.Join(dir, source.FileClientes))
	require.NoError(t, err)
	assert.Equal(t, 20, clientes.Len())
	assert.True(t, clientes.HasColumn("RUT"))
	assert.True(t, clientes.HasColumn("ISAPRE"))

	atenciones, err := source.LoadTable(filepath.Join(dir, source.FileAtenciones))
	require.NoError(t, err)
	assert.Equal(t, 50, atenciones.Len())

	// every appointment references a patient by RUT, after cleaning
	ruts := make(map[string]struct{})
	for i := 0; i < clientes.Len(); i++ {
		if rut, ok := normalize.CleanRUT(clientes.Record(i).Get("RUT")); ok {
			ruts[rut] = struct{}{}
		}
	}
	for i := 0; i < atenciones.Len(); i++ {
		code, ok := normalize.CleanRUT(atenciones.Record(i).Get("CODIGO CLIENTE"))
		require.True(t, ok)
		_, found := ruts[code]
		assert.True(t, found, "row %d references an unknown patient", i)
	}
}
