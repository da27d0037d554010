package normalization

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventoryetl/detect"
	"inventoryetl/table"
)

func pipeTestRules() *Rules {
	return &Rules{
		Category:    "TEST",
		Delimiter:   detect.Pipe,
		IntColumns:  []string{"STORE_CODE"},
		DateColumns: []string{"TRANSACTION_DATE"},
		TextColumns: []string{"PO No"},
	}
}

func TestNormalizeCoercions(t *testing.T) {
	raw := &table.Raw{
		Path:    "sale.txt",
		Columns: []string{" STORE_CODE ", "TRANSACTION_DATE", "PO No", "Qty", ""},
		Rows: [][]string{
			{"12", "20/03/2024", "00045", "3", ""},
			{"x", "garbage", "00046", "4", ""},
			{"12", "20/03/2024", "00045", "3", ""},
		},
	}
	n := NewNormalizer(nil)
	got, report, err := n.Normalize(raw, pipeTestRules(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"STORE_CODE", "TRANSACTION_DATE", "PO No", "Qty", "Unnamed: 4"}, got.Names())
	assert.Equal(t, table.KindInt, got.Fields[0].Kind)
	assert.Equal(t, table.KindDate, got.Fields[1].Kind)
	assert.Equal(t, table.KindString, got.Fields[2].Kind)
	assert.Equal(t, table.KindInt, got.Fields[3].Kind)

	require.Equal(t, 2, got.NumRows(), "duplicate row must be removed")
	assert.Equal(t, 1, report.DuplicatesFound)
	assert.Equal(t, int64(12), got.Rows[0][0].Int)
	assert.Equal(t, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), got.Rows[0][1].Time)
	assert.Equal(t, "00045", got.Rows[0][2].Str, "text columns keep leading zeros")
	assert.True(t, got.Rows[1][0].IsMissing())
	assert.True(t, got.Rows[1][1].IsMissing())
	assert.Equal(t, 1, report.CoercedToNull["STORE_CODE"])
	assert.Equal(t, 1, report.CoercedToNull["TRANSACTION_DATE"])

	assert.Equal(t, []string{" STORE_CODE ", "TRANSACTION_DATE", "PO No", "Qty", ""}, raw.Columns, "raw input is not modified")
}

func TestNormalizeRequiredColumns(t *testing.T) {
	raw := &table.Raw{
		Columns: []string{"B", "A", "Extra"},
		Rows:    [][]string{{"1", "2", "3"}},
	}
	got, report, err := NewNormalizer(nil).Normalize(raw, &Rules{Delimiter: detect.Tab}, []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, got.Names())
	assert.Equal(t, []string{"C"}, report.MissingColumns)
	assert.True(t, got.Rows[0][2].IsMissing())
	assert.Equal(t, int64(2), got.Rows[0][0].Int)
}

func TestNormalizeResplitsSinglePipeColumn(t *testing.T) {
	tests := []struct {
		name string
		raw  *table.Raw
	}{
		{
			name: "header carries delimiter",
			raw: &table.Raw{
				Columns: []string{"A|B|C"},
				Rows:    [][]string{{"1|2|3"}, {"4|5|6"}},
			},
		},
		{
			name: "first data row is the header",
			raw: &table.Raw{
				Columns: []string{"Report"},
				Rows:    [][]string{{"A|B|C"}, {"1|2|3"}, {"4|5|6"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, report, err := NewNormalizer(nil).Normalize(tt.raw, &Rules{Delimiter: detect.Pipe}, nil)
			require.NoError(t, err)
			assert.True(t, report.Resplit)
			assert.Equal(t, []string{"A", "B", "C"}, got.Names())
			require.Equal(t, 2, got.NumRows())
			assert.Equal(t, int64(6), got.Rows[1][2].Int)
		})
	}
}

func TestNormalizeResplitsOnSplitDelimiter(t *testing.T) {
	rules, err := DefaultRegistry().Lookup("PLC_HISMIC")
	require.NoError(t, err)
	require.Equal(t, detect.Tab, rules.Delimiter)

	raw := &table.Raw{
		Columns: []string{"ITEM|QTY|TRANSACTION_DATE"},
		Rows:    [][]string{{"A1|5|20-มี.ค.-24"}, {"A2|7|"}},
	}
	got, report, err := NewNormalizer(nil).Normalize(raw, rules, nil)
	require.NoError(t, err)
	assert.True(t, report.Resplit)
	assert.Equal(t, []string{"ITEM", "QTY", "TRANSACTION_DATE"}, got.Names())
	require.Equal(t, 2, got.NumRows())
	assert.Equal(t, table.KindDate, got.Fields[2].Kind)
	assert.True(t, got.Rows[1][2].IsMissing())
}

func TestCoerceKeepsDuplicates(t *testing.T) {
	raw := &table.Raw{
		Columns: []string{"STORE_CODE", "Qty"},
		Rows:    [][]string{{"1", "2"}, {"1", "2"}, {"3", "4"}},
	}
	n := NewNormalizer(nil)

	kept, report, err := n.Coerce(raw, pipeTestRules())
	require.NoError(t, err)
	assert.Equal(t, 3, kept.NumRows())
	assert.Zero(t, report.DuplicatesFound)
	assert.Equal(t, table.KindInt, kept.Fields[0].Kind)

	deduped, report, err := n.Normalize(raw, pipeTestRules(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, deduped.NumRows())
	assert.Equal(t, 1, report.DuplicatesFound)
}

func TestNormalizeSingleColumnWithoutDelimiter(t *testing.T) {
	raw := &table.Raw{Columns: []string{"Only"}, Rows: [][]string{{"a"}, {"b"}}}
	got, report, err := NewNormalizer(nil).Normalize(raw, &Rules{Delimiter: detect.Pipe}, nil)
	require.NoError(t, err)
	assert.False(t, report.Resplit)
	assert.Equal(t, []string{"Only"}, got.Names())
	assert.Equal(t, 2, got.NumRows())
}

func TestNormalizeRenamesAndReplacements(t *testing.T) {
	rules := &Rules{
		Delimiter:    detect.Pipe,
		Renames:      map[string]string{"Sub Inventory": "SubInventory"},
		Replacements: map[string]map[string]string{"UOM": {"EA": "Each"}},
	}
	raw := &table.Raw{
		Columns: []string{"Sub Inventory", "UOM"},
		Rows:    [][]string{{"A", "EA"}, {"B", "BOX"}},
	}
	got, report, err := NewNormalizer(nil).Normalize(raw, rules, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"SubInventory", "UOM"}, got.Names())
	assert.Equal(t, "Each", got.Rows[0][1].Str)
	assert.Equal(t, "BOX", got.Rows[1][1].Str)
	assert.Equal(t, 1, report.Renamed)
	assert.Equal(t, 1, report.Replaced)
}

func TestNormalizeThaiDates(t *testing.T) {
	rules, err := DefaultRegistry().Lookup("PLC_SALE")
	require.NoError(t, err)

	raw := &table.Raw{
		Columns: []string{"TRANSACTION_DATE", "ITEM"},
		Rows:    [][]string{{"20-มี.ค.-24", "A"}, {"31-ก.พ.-24", "B"}},
	}
	got, _, err := NewNormalizer(nil).Normalize(raw, rules, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-20", got.Rows[0][0].Time.Format("2006-01-02"))
	assert.True(t, got.Rows[1][0].IsMissing())
}

func TestNormalizeIsIdempotent(t *testing.T) {
	rules := pipeTestRules()
	rules.Renames = map[string]string{"Old": "New"}
	rules.Replacements = map[string]map[string]string{"Note": {"n/a": ""}}
	required := []string{"STORE_CODE", "TRANSACTION_DATE", "PO No", "New", "Note", "Missing"}

	raw := &table.Raw{
		Columns: []string{"STORE_CODE", "TRANSACTION_DATE", "PO No", "Old", "Note"},
		Rows: [][]string{
			{"1", "01/02/2024", "007", "1.5", "n/a"},
			{"2", "bad", "008", "2", "ok"},
			{"1", "01/02/2024", "007", "1.5", "n/a"},
		},
	}
	n := NewNormalizer(nil)
	first, _, err := n.Normalize(raw, rules, required)
	require.NoError(t, err)

	second := first.Clone()
	report, err := n.NormalizeTable(second, rules, required)
	require.NoError(t, err)

	assert.True(t, first.Equal(second), "second pass changed the table")
	assert.Empty(t, report.MissingColumns)
	assert.Zero(t, report.DuplicatesFound)
	assert.Zero(t, report.Renamed)
}

func TestNormalizeNilInput(t *testing.T) {
	_, _, err := NewNormalizer(nil).Normalize(nil, &Rules{}, nil)
	assert.ErrorIs(t, err, ErrNilInput)
	_, err = NewNormalizer(nil).NormalizeTable(nil, &Rules{}, nil)
	assert.ErrorIs(t, err, ErrNilInput)
	_, _, err = NewNormalizer(nil).Coerce(&table.Raw{}, nil)
	assert.ErrorIs(t, err, ErrNilInput)
}
