package exporter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"inventoryetl/table"
)

func inventory() *table.Table {
	t := table.New("inv",
		table.Field{Name: "Item", Kind: table.KindString},
		table.Field{Name: "Qty", Kind: table.KindInt},
		table.Field{Name: "Unit Cost", Kind: table.KindFloat},
		table.Field{Name: "วันหมดอายุ", Kind: table.KindDate},
	)
	_ = t.AppendRow([]table.Value{
		table.Str("007"), table.Int(5), table.Float(12.5),
		table.Date(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)),
	})
	_ = t.AppendRow([]table.Value{table.Str("008"), table.Null(), table.Float(1), table.Null()})
	return t
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "file.xlsx")
	second := table.New("b", table.Field{Name: "Item", Kind: table.KindString})
	_ = second.AppendRow([]table.Value{table.Str("x")})

	require.NoError(t, WriteWorkbook(path, []Sheet{{Table: inventory()}, {Table: second}}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Sheet1", "Sheet2"}, f.GetSheetList())

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Item", "Qty", "Unit Cost", "วันหมดอายุ"}, rows[0])
	assert.Equal(t, "007", rows[1][0], "text keeps leading zeros")
	assert.Equal(t, "5", rows[1][1])
	assert.NotEmpty(t, rows[1][3])

	styleID, err := f.GetCellStyle("Sheet1", "D2")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.CustomNumFmt)
	assert.Equal(t, DateFormat, *style.CustomNumFmt)

	width, err := f.GetColWidth("Sheet1", "C")
	require.NoError(t, err)
	assert.Equal(t, float64(len("Unit Cost")+2), width)

	rows, err = f.GetRows("Sheet2")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Item"}, {"x"}}, rows)
}

func TestWriteWorkbookNamedSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "named.xlsx")
	require.NoError(t, WriteWorkbook(path, []Sheet{{Name: "Data", Table: inventory()}}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Data"}, f.GetSheetList())
}

func TestWriteWorkbookNoSheets(t *testing.T) {
	err := WriteWorkbook(filepath.Join(t.TempDir(), "x.xlsx"), nil)
	assert.ErrorIs(t, err, ErrNoSheets)
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("PK\x03\x04data"), 0o644))

	dst := filepath.Join(dir, "nested", "out.xlsx")
	require.NoError(t, CopyFile(src, dst))
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "PK\x03\x04data", string(got))

	assert.Error(t, CopyFile(filepath.Join(dir, "missing"), dst))
}

func TestParquetSchema(t *testing.T) {
	md := ParquetSchema(inventory().Fields)
	require.Len(t, md, 4)
	assert.Equal(t, "name=Item, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", md[0])
	assert.Equal(t, "name=Qty, type=INT64, repetitiontype=OPTIONAL", md[1])
	assert.Equal(t, "name=Unit_Cost, type=DOUBLE, repetitiontype=OPTIONAL", md[2])
	assert.Contains(t, md[3], "name=column_3")
	assert.Contains(t, md[3], "TIMESTAMP_MILLIS")
}

func TestParquetNamesUnique(t *testing.T) {
	names := parquetNames([]table.Field{{Name: "A B"}, {Name: "A.B"}, {Name: "2024"}, {Name: ""}})
	assert.Equal(t, []string{"A_B", "A_B_1", "c_2024", "column_3"}, names)
}

func TestWriteParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap", "combined.parquet")
	require.NoError(t, WriteParquet(path, inventory()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	head := make([]byte, 4)
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.Read(head)
	require.NoError(t, err)
	assert.Equal(t, "PAR1", string(head))

	assert.ErrorIs(t, WriteParquet(path, table.New("empty")), ErrNoColumns)
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inv.csv")
	require.NoError(t, WriteCSV(path, inventory()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Item,Qty,Unit Cost,วันหมดอายุ", lines[0])
	assert.Equal(t, "007,5,12.5,2024-03-20", lines[1])
	assert.Equal(t, "008,,1,", lines[2])
}
