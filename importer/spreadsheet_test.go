package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheets map[string][][]any, order ...string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			rowCopy := row
			require.NoError(t, f.SetSheetRow(name, cell, &rowCopy))
		}
	}
	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want Container
	}{
		{"ole2", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, ContainerOLE2},
		{"zip", []byte("PK\x03\x04rest"), ContainerZIP},
		{"text", []byte("Item\tDesc"), ContainerText},
		{"empty", nil, ContainerText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sniff(tt.head))
		})
	}
}

func TestReadSpreadsheetXLSX(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Data": {
			{"Report title"},
			{"Item", "Qty", "Note"},
			{"A1", 3, "x"},
			{"B2", 4},
		},
	}, "Data")

	raw, err := ReadSpreadsheet(path, "", 1)
	require.NoError(t, err)
	assert.Equal(t, "Data", raw.Sheet)
	assert.Equal(t, []string{"Item", "Qty", "Note"}, raw.Columns)
	require.Len(t, raw.Rows, 2)
	assert.Equal(t, []string{"A1", "3", "x"}, raw.Rows[0])
	assert.Equal(t, []string{"B2", "4", ""}, raw.Rows[1])
}

func TestReadSpreadsheetTextDisguisedAsXLS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xls")
	require.NoError(t, os.WriteFile(path, []byte("Item\tDesc\n1\ta\n"), 0o644))

	_, err := ReadSpreadsheet(path, "", 0)
	assert.ErrorIs(t, err, ErrNotSpreadsheet)
}

func TestReadSpreadsheetCorruptXLS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xls")
	data := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 64)...)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := ReadSpreadsheet(path, "windows-874", 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotSpreadsheet)
}

func TestReadSpreadsheetSkipPastEnd(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{"S": {{"A"}}}, "S")
	_, err := ReadSpreadsheet(path, "", 5)
	assert.ErrorIs(t, err, ErrEmptyWorkbook)
}

func TestReadWorkbookAllSheets(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Sheet1": {{"Item", "Desc"}, {"1", "a"}},
		"Sheet2": {{"Item", "Desc2"}, {"2", "b"}, {"3", "c"}},
	}, "Sheet1", "Sheet2")

	sheets, err := ReadWorkbook(path)
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	assert.Equal(t, []string{"Item", "Desc2"}, sheets[1].Columns)
	assert.Len(t, sheets[1].Rows, 2)
}

func TestSniffFileMissing(t *testing.T) {
	_, err := SniffFile(filepath.Join(t.TempDir(), "none.xls"))
	assert.Error(t, err)
}
