package blocks

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventoryetl/table"
)

func TestSplitTwoBlocks(t *testing.T) {
	raw := &table.Raw{
		Columns: []string{"Item", "Desc", "Qty", " ITEM ", "Desc2", "Qty2"},
		Rows: [][]string{
			{"1", "a", "2", "9", "z", "1"},
			{"", "", "", "", "", ""},
			{"3", "b", "4", "", "", ""},
		},
	}

	got := Split(raw, DefaultMarker)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].Index)
	assert.Equal(t, "Sheet1", got[0].SheetName())
	assert.Equal(t, []string{"Item", "Desc", "Qty"}, got[0].Raw.Columns)
	assert.Equal(t, [][]string{{"1", "a", "2"}, {"3", "b", "4"}}, got[0].Raw.Rows)
	assert.Equal(t, 1, got[0].Dropped)

	assert.Equal(t, 3, got[1].Start)
	assert.Equal(t, 6, got[1].End)
	assert.Equal(t, "Sheet2", got[1].Raw.Sheet)
	assert.Equal(t, [][]string{{"9", "z", "1"}}, got[1].Raw.Rows)
	assert.Equal(t, 2, got[1].Dropped)
}

func TestSplitWithoutMarker(t *testing.T) {
	raw := &table.Raw{
		Columns: []string{"Code", "Desc", "Qty"},
		Rows:    [][]string{{"1", "a", "2"}, {"", " ", ""}},
	}
	got := Split(raw, "Item")
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Start)
	assert.Equal(t, 3, got[0].End)
	assert.Len(t, got[0].Raw.Rows, 1)
}

func TestSplitLeadingColumnsJoinFirstBlock(t *testing.T) {
	raw := &table.Raw{Columns: []string{"Org", "Item", "Desc", "Item", "Desc"}}
	got := Split(raw, "item")
	require.Len(t, got, 2)
	assert.Equal(t, []string{"Org", "Item", "Desc"}, got[0].Raw.Columns)
	assert.Equal(t, []string{"Item", "Desc"}, got[1].Raw.Columns)
}

func TestSplitDoesNotModifyInput(t *testing.T) {
	raw := &table.Raw{
		Columns: []string{"Item", "Desc", "Item", "Desc"},
		Rows:    [][]string{{"1", "a", "2", "b"}},
	}
	got := Split(raw, "")
	got[0].Raw.Rows[0][0] = "changed"
	got[0].Raw.Columns[0] = "changed"
	assert.Equal(t, "1", raw.Rows[0][0])
	assert.Equal(t, "Item", raw.Columns[0])
}

func TestSplitCoversEveryColumnOnce(t *testing.T) {
	faker := gofakeit.New(42)
	for run := 0; run < 50; run++ {
		width := faker.Number(1, 30)
		columns := make([]string, width)
		markers := 0
		for i := range columns {
			if faker.Bool() && faker.Bool() {
				columns[i] = "Item"
				markers++
			} else {
				columns[i] = "col_" + faker.Word()
			}
		}
		raw := &table.Raw{Columns: columns}

		got := Split(raw, "item")
		if markers == 0 {
			require.Len(t, got, 1)
		} else {
			require.Len(t, got, markers)
		}

		covered := make([]int, width)
		for _, b := range got {
			for c := b.Start; c < b.End; c++ {
				covered[c]++
			}
		}
		for c, n := range covered {
			if n != 1 {
				t.Fatalf("run %d: column %d covered %d times (columns %v)", run, c, n, columns)
			}
		}
	}
}

func TestStarts(t *testing.T) {
	assert.Equal(t, []int{0, 2}, Starts([]string{"item", "x", "Item "}, "ITEM"))
	assert.Nil(t, Starts([]string{"items"}, "item"))
}
