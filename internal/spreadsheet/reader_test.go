package spreadsheet_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/goguixter/leads-backend/internal/spreadsheet"
)

func buildXLSX(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestReadFirstSheet(t *testing.T) {
	data := buildXLSX(t, [][]string{
		{"student_name", "email", "phone"},
		{"Ana Silva", "ana@example.com", "+5511987654321"},
		{"Bruno", "bruno@example.com"},
	})

	sheet, err := spreadsheet.ReadFirstSheet(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"student_name", "email", "phone"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Ana Silva", sheet.Rows[0]["student_name"])
	assert.Equal(t, "+5511987654321", sheet.Rows[0]["phone"])

	// Short rows default missing cells to the empty string.
	assert.Equal(t, "", sheet.Rows[1]["phone"])
}

func TestReadFirstSheetSkipsBlankRows(t *testing.T) {
	data := buildXLSX(t, [][]string{
		{"student_name", "email"},
		{"", ""},
		{"Ana", "ana@example.com"},
	})

	sheet, err := spreadsheet.ReadFirstSheet(data)
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "Ana", sheet.Rows[0]["student_name"])
}

func TestReadFirstSheetRejectsGarbage(t *testing.T) {
	_, err := spreadsheet.ReadFirstSheet([]byte("not an xlsx file"))
	require.Error(t, err)
}

func TestMissingColumns(t *testing.T) {
	data := buildXLSX(t, [][]string{
		{"student_name", "email"},
		{"Ana", "ana@example.com"},
	})

	sheet, err := spreadsheet.ReadFirstSheet(data)
	require.NoError(t, err)

	missing := sheet.MissingColumns([]string{"student_name", "email", "phone", "school", "city"})
	assert.Equal(t, []string{"phone", "school", "city"}, missing)
}
