package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventoryetl/table"
)

func build(name string, fields []table.Field, rows ...[]table.Value) *table.Table {
	t := table.New(name, fields...)
	for _, r := range rows {
		if err := t.AppendRow(r); err != nil {
			panic(err)
		}
	}
	return t
}

func TestReconcileAddsDropsAndReorders(t *testing.T) {
	first := build("first",
		[]table.Field{{Name: "A", Kind: table.KindInt}, {Name: "B", Kind: table.KindString}, {Name: "C", Kind: table.KindFloat}},
		[]table.Value{table.Int(1), table.Str("x"), table.Float(1.5)},
	)
	second := build("second",
		[]table.Field{{Name: "B", Kind: table.KindString}, {Name: "C", Kind: table.KindString}, {Name: "D", Kind: table.KindString}},
		[]table.Value{table.Str("y"), table.Str("2.5"), table.Str("drop me")},
		[]table.Value{table.Str("z"), table.Null(), table.Str("drop me too")},
	)

	out, tmpl, drifts := NewReconciler(nil).Reconcile([]*table.Table{first, second})
	require.Len(t, out, 2)
	assert.Equal(t, []string{"A", "B", "C"}, tmpl.Names())

	got := out[1]
	assert.Equal(t, []string{"A", "B", "C"}, got.Names())
	for _, row := range got.Rows {
		assert.True(t, row[0].IsMissing(), "A must be all missing")
	}
	assert.Equal(t, table.KindFloat, got.Fields[2].Kind)
	assert.Equal(t, 2.5, got.Rows[0][2].Float)
	assert.True(t, got.Rows[1][2].IsMissing())

	assert.Equal(t, []string{"A"}, drifts[1].Added)
	assert.Equal(t, []string{"D"}, drifts[1].Dropped)
	assert.Empty(t, drifts[1].CoercionFailures)
	assert.True(t, drifts[0].Clean())

	assert.Equal(t, []string{"B", "C", "D"}, second.Names(), "input must not be modified")
}

func TestReconcileCoercionFailureKeepsOwnDtype(t *testing.T) {
	first := build("first",
		[]table.Field{{Name: "Qty", Kind: table.KindInt}},
		[]table.Value{table.Int(1)},
	)
	second := build("second",
		[]table.Field{{Name: "Qty", Kind: table.KindString}},
		[]table.Value{table.Str("12")},
		[]table.Value{table.Str("many")},
	)
	third := build("third",
		[]table.Field{{Name: "Qty", Kind: table.KindString}},
		[]table.Value{table.Str("7")},
	)

	out, _, drifts := NewReconciler(nil).Reconcile([]*table.Table{first, second, third})
	assert.Equal(t, table.KindString, out[1].Fields[0].Kind)
	assert.Equal(t, "12", out[1].Rows[0][0].Str)
	assert.Equal(t, []string{"Qty"}, drifts[1].CoercionFailures)

	assert.Equal(t, table.KindInt, out[2].Fields[0].Kind, "failure is local to one table")
	assert.Equal(t, int64(7), out[2].Rows[0][0].Int)
}

func TestReconcileEmpty(t *testing.T) {
	out, tmpl, drifts := NewReconciler(nil).Reconcile(nil)
	assert.Nil(t, out)
	assert.Nil(t, tmpl)
	assert.Nil(t, drifts)
}

func TestTemplateIsFrozen(t *testing.T) {
	first := build("first", []table.Field{{Name: "A", Kind: table.KindInt}})
	tmpl := NewTemplate(first)
	first.Fields[0].Name = "Z"
	fields := tmpl.Fields()
	fields[0].Kind = table.KindBool
	assert.Equal(t, []string{"A"}, tmpl.Names())
	assert.Equal(t, table.KindInt, tmpl.Fields()[0].Kind)
}
