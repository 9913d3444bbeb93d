package parser

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Table is the raw content of the first sheet of an uploaded file: the first non-blank
// row as headers and every following non-blank row padded to the header width.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Supported reports whether a file name has an extension ReadTable understands.
func Supported(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm", ".xls", ".csv":
		return true
	}
	return false
}

// Stem returns the file name without directory and extension.
func Stem(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
}

// ReadTable dispatches on the file extension.
func ReadTable(fileName string, data []byte) (*Table, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(data)
	case ".xls":
		rows, err = readXLS(data)
	case ".csv":
		rows, err = readCSV(data)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(fileName))
	}
	if err != nil {
		return nil, err
	}
	return newTable(rows)
}

func newTable(rows [][]string) (*Table, error) {
	table := &Table{}
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		if table.Headers == nil {
			table.Headers = trimTrailingEmpty(row)
			continue
		}
		padded := make([]string, len(table.Headers))
		copy(padded, row)
		table.Rows = append(table.Rows, padded)
	}
	if table.Headers == nil {
		return nil, fmt.Errorf("file has no header row")
	}
	return table, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func trimTrailingEmpty(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return append([]string(nil), row[:end]...)
}
