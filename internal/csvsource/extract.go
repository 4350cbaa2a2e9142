// Package csvsource reads URL lists out of uploaded CSV and XLSX files.
package csvsource

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mikey/site-categorizer/internal/core"
	"github.com/xuri/excelize/v2"
)

// zipSignature prefixes every XLSX file
var zipSignature = []byte("PK\x03\x04")

// utf8BOM is stripped from the first CSV header cell
const utf8BOM = "\ufeff"

// ExtractURLs returns the non-empty values of column in the header row of an
// uploaded spreadsheet. An empty column selects core.DefaultCSVColumn.
func ExtractURLs(file []byte, column string) ([]string, error) {
	column = strings.TrimSpace(column)
	if column == "" {
		column = core.DefaultCSVColumn
	}
	if len(bytes.TrimSpace(file)) == 0 {
		return nil, core.NewValidationError("file", "uploaded file is empty")
	}

	var (
		rows [][]string
		err  error
	)
	if IsXLSX(file) {
		rows, err = readXLSX(file)
	} else {
		rows, err = readCSV(file)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.NewValidationError("file", "uploaded file has no header row")
	}

	index := -1
	for i, name := range rows[0] {
		if strings.TrimSpace(strings.TrimPrefix(name, utf8BOM)) == column {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, core.NewValidationError("column_name", "column %q not found in uploaded file", column)
	}

	urls := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if index >= len(row) {
			continue
		}
		if value := strings.TrimSpace(row[index]); value != "" {
			urls = append(urls, value)
		}
	}
	if len(urls) == 0 {
		return nil, core.NewValidationError("file", "no URLs found in column %q", column)
	}

	return urls, nil
}

// IsXLSX reports whether file looks like an XLSX workbook
func IsXLSX(file []byte) bool {
	return bytes.HasPrefix(file, zipSignature)
}

func readCSV(file []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(file))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.NewValidationError("file", "malformed CSV: %v", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// readXLSX returns the rows of the first sheet
func readXLSX(file []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(file))
	if err != nil {
		return nil, core.NewValidationError("file", "malformed XLSX: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.NewValidationError("file", "workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}
