package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadColumns(t *testing.T) {
	path := writeFile(t, "table.txt", `# ell  w1  w2
1.0  10  100

2.0  20  200
3.0  30  300
`)
	cols, err := ReadColumns(path)
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, []float64{1, 2, 3}, cols[0])
	assert.Equal(t, []float64{10, 20, 30}, cols[1])
	assert.Equal(t, []float64{100, 200, 300}, cols[2])
}

func TestReadColumnsErrors(t *testing.T) {
	_, err := ReadColumns(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)

	ragged := writeFile(t, "ragged.txt", "1 2 3\n4 5\n")
	_, err = ReadColumns(ragged)
	require.ErrorContains(t, err, "2 columns, want 3")

	junk := writeFile(t, "junk.txt", "1 2\n3 abc\n")
	_, err = ReadColumns(junk)
	require.Error(t, err)

	empty := writeFile(t, "empty.txt", "# only a comment\n")
	_, err = ReadColumns(empty)
	require.ErrorContains(t, err, "empty table")
}

func TestReadKernelTable(t *testing.T) {
	path := writeFile(t, "wn.txt", "1 10 100 1000\n2 20 200 2000\n")

	grid, values, err := ReadKernelTable(path, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, grid)
	require.Len(t, values, 2)
	assert.Equal(t, []float64{10, 20}, values[0])
	assert.Equal(t, []float64{100, 200}, values[1])

	_, _, err = ReadKernelTable(path, 5)
	require.ErrorContains(t, err, "3 kernel columns for 5 modes")
}
