// Package schema aligns a sequence of tables to the layout of the first one.
package schema

import (
	"log/slog"

	"inventoryetl/table"
)

// Template порядок и типы столбцов, заданные первой таблицей пакета.
// После создания не меняется.
type Template struct {
	fields []table.Field
}

// NewTemplate запоминает структуру t.
func NewTemplate(t *table.Table) *Template {
	return &Template{fields: append([]table.Field(nil), t.Fields...)}
}

// Fields возвращает копию столбцов шаблона.
func (tp *Template) Fields() []table.Field {
	return append([]table.Field(nil), tp.fields...)
}

// Names returns the template column names in order.
func (tp *Template) Names() []string {
	names := make([]string, len(tp.fields))
	for i, f := range tp.fields {
		names[i] = f.Name
	}
	return names
}

// Drift расхождения одной таблицы с шаблоном.
type Drift struct {
	Table   string
	Added   []string
	Dropped []string
	// CoercionFailures столбцы, оставшиеся в собственном типе.
	CoercionFailures []string
}

// Clean проверяет, совпадала ли таблица с шаблоном.
func (d Drift) Clean() bool {
	return len(d.Added) == 0 && len(d.Dropped) == 0 && len(d.CoercionFailures) == 0
}

// Reconciler приводит таблицы к шаблону.
type Reconciler struct {
	logger *slog.Logger
}

// NewReconciler создает согласователь. При nil logger используется slog.Default().
func NewReconciler(logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{logger: logger}
}

// Reconcile берет первую таблицу за шаблон и выравнивает по нему остальные.
// Входные таблицы не меняются, на каждую входную приходится одна выходная.
func (r *Reconciler) Reconcile(tables []*table.Table) ([]*table.Table, *Template, []Drift) {
	if len(tables) == 0 {
		return nil, nil, nil
	}
	tmpl := NewTemplate(tables[0])
	out := make([]*table.Table, 0, len(tables))
	drifts := make([]Drift, 0, len(tables))
	out = append(out, tables[0].Clone())
	drifts = append(drifts, Drift{Table: tables[0].Name})
	for _, t := range tables[1:] {
		aligned, drift := r.Align(t, tmpl)
		out = append(out, aligned)
		drifts = append(drifts, drift)
	}
	return out, tmpl, drifts
}

// Align возвращает копию t со столбцами, порядком и типами шаблона.
// Недостающие столбцы добавляются пустыми, лишние удаляются с
// предупреждением. Столбец, не приводимый к типу шаблона, сохраняет свой.
func (r *Reconciler) Align(t *table.Table, tmpl *Template) (*table.Table, Drift) {
	out := t.Clone()
	drift := Drift{Table: t.Name}
	want := make(map[string]bool, len(tmpl.fields))
	for _, f := range tmpl.fields {
		want[f.Name] = true
		if out.ColumnIndex(f.Name) < 0 {
			out.AddColumn(f.Name, f.Kind)
			drift.Added = append(drift.Added, f.Name)
		}
	}

	var extra []string
	for _, f := range out.Fields {
		if !want[f.Name] {
			extra = append(extra, f.Name)
		}
	}
	if len(extra) > 0 {
		drift.Dropped = out.DropColumns(extra...)
		r.logger.Warn("dropping columns not in template",
			"table", t.Name,
			"columns", drift.Dropped,
		)
	}

	out.Select(tmpl.Names())

	for i, f := range tmpl.fields {
		if err := out.CoerceColumn(i, f.Kind); err != nil {
			drift.CoercionFailures = append(drift.CoercionFailures, f.Name)
			r.logger.Warn("column kept its own dtype",
				"table", t.Name,
				"column", f.Name,
				"want", f.Kind.String(),
				"have", out.Fields[i].Kind.String(),
				"error", err,
			)
		}
	}
	if len(drift.Added) > 0 {
		r.logger.Info("template columns added empty", "table", t.Name, "columns", drift.Added)
	}
	return out, drift
}
