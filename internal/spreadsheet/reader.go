package spreadsheet

import (
	"strings"

	"github.com/tealeg/xlsx/v2"

	"github.com/goguixter/leads-backend/internal/apperror"
)

// Row is one data row keyed by header column name. Missing cells default to
// the empty string.
type Row map[string]string

// Sheet is the parsed first worksheet of an upload.
type Sheet struct {
	Headers []string
	Rows    []Row
}

// MissingColumns returns the subset of required column names absent from the
// sheet header.
func (s *Sheet) MissingColumns(required []string) []string {
	present := make(map[string]bool, len(s.Headers))
	for _, h := range s.Headers {
		present[h] = true
	}

	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// ReadFirstSheet parses xlsx bytes and returns the first worksheet as an
// ordered sequence of string-keyed rows. The first row is treated as the
// header; rows with no content at all are skipped.
func ReadFirstSheet(data []byte) (*Sheet, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, apperror.BadRequest("Planilha invalida ou corrompida")
	}
	if len(f.Sheets) == 0 {
		return nil, apperror.BadRequest("Planilha vazia")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, apperror.BadRequest("Aba principal da planilha nao encontrada")
	}

	headers := rowToStrings(sheet.Rows[0])
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	out := &Sheet{Headers: headers}
	for _, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if empty(cells) {
			continue
		}

		mapped := make(Row, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(cells) {
				mapped[h] = cells[i]
			} else {
				mapped[h] = ""
			}
		}
		out.Rows = append(out.Rows, mapped)
	}

	return out, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}

func empty(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
