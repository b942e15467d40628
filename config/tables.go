package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadColumns parses a whitespace-separated numeric table. Blank lines
// and lines starting with '#' are skipped. All rows must have the
// same number of columns; the result is column-major.
func ReadColumns(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cols [][]float64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if cols == nil {
			cols = make([][]float64, len(fields))
		}
		if len(fields) != len(cols) {
			return nil, fmt.Errorf("%s:%d: %d columns, want %d", path, line, len(fields), len(cols))
		}
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, line, err)
			}
			cols[i] = append(cols[i], v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cols == nil {
		return nil, fmt.Errorf("%s: empty table", path)
	}
	return cols, nil
}

// ReadKernelTable parses a table whose first column is the sample grid
// and whose remaining columns are per-mode kernel values, truncated to
// modes columns.
func ReadKernelTable(path string, modes int) (grid []float64, values [][]float64, err error) {
	cols, err := ReadColumns(path)
	if err != nil {
		return nil, nil, err
	}
	if len(cols) < modes+1 {
		return nil, nil, fmt.Errorf("%s: %d kernel columns for %d modes", path, len(cols)-1, modes)
	}
	return cols[0], cols[1 : modes+1], nil
}
