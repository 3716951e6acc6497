package timeblock

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
)

var importColumns = []string{"date", "entrada", "salida", "mail"}

// ParseCSV reads a time clock export. The header names the columns in any
// order; extra columns are ignored. Both comma and semicolon separated files
// are accepted.
func ParseCSV(data []byte) ([]workblock.ImportRow, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, workblock.ErrEmptyImport
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workblock.ErrInvalidCSV, err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range importColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", workblock.ErrInvalidCSV, name)
		}
	}

	var rows []workblock.ImportRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", workblock.ErrInvalidCSV, err)
		}
		field := func(name string) string {
			i := index[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		rows = append(rows, workblock.ImportRow{
			Date:    field("date"),
			Entrada: field("entrada"),
			Salida:  field("salida"),
			Mail:    field("mail"),
		})
	}
	if len(rows) == 0 {
		return nil, workblock.ErrEmptyImport
	}
	return rows, nil
}

func sniffDelimiter(data []byte) rune {
	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		return ';'
	}
	return ','
}
