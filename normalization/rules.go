package normalization

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"inventoryetl/blocks"
	"inventoryetl/detect"
)

// Extensions расширения исходных файлов для всех категорий.
var Extensions = []string{".xls", ".XLS", ".xlsx", ".XLSX"}

// CombineOptions определяет, как категория сводится в общее хранилище.
type CombineOptions struct {
	// AddBU добавляет столбец BU с именем папки подразделения.
	AddBU bool
	// AddYear добавляет столбец Year с годом из имени папки.
	AddYear bool
	// MonthFromFilename добавляет столбец Month из имен файлов "___by_MMM".
	MonthFromFilename bool
	// AllSheets читает все листы сконвертированной книги, а не только первый.
	AllSheets bool
	// SourceColumn, если задан, имя столбца с меткой категории.
	SourceColumn string
	// StoreKey шаблон с подстановками {category}, {year} и {bu}.
	StoreKey string
}

// Rules декларативное описание одной категории исходных файлов.
type Rules struct {
	Category string
	// Patterns шаблоны имен файлов без расширения.
	Patterns  []string
	Delimiter detect.Delimiter
	// SplitOn, если задан, разделитель для повторной разбивки таблицы из
	// одного столбца. nil означает Delimiter.
	SplitOn  *detect.Delimiter
	SkipRows int

	MultiBlock  bool
	BlockMarker string

	// RequiredColumns выбираются по порядку при объединении.
	RequiredColumns []string
	Renames         map[string]string
	// Replacements столбец -> старое значение -> новое значение.
	Replacements map[string]map[string]string

	IntColumns  []string
	DateColumns []string
	TextColumns []string

	Combine CombineOptions
}

// Match проверяет, относится ли имя файла к категории.
func (r *Rules) Match(name string) bool {
	ext := filepath.Ext(name)
	if !hasExtension(ext) {
		return false
	}
	stem := strings.TrimSuffix(name, ext)
	for _, p := range r.Patterns {
		if ok, err := filepath.Match(p, stem); err == nil && ok {
			return true
		}
	}
	return false
}

func hasExtension(ext string) bool {
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Marker возвращает маркер блока, по умолчанию "item".
func (r *Rules) Marker() string {
	if r.BlockMarker == "" {
		return blocks.DefaultMarker
	}
	return r.BlockMarker
}

// ResplitDelimiter возвращает разделитель для таблицы, прочитанной одним
// столбцом.
func (r *Rules) ResplitDelimiter() detect.Delimiter {
	if r.SplitOn != nil {
		return *r.SplitOn
	}
	return r.Delimiter
}

// StoreKey раскрывает шаблон ключа хранилища для года и подразделения.
func (r *Rules) StoreKey(year, bu string) string {
	tmpl := r.Combine.StoreKey
	if tmpl == "" {
		tmpl = "{category}"
	}
	return strings.NewReplacer("{category}", r.Category, "{year}", year, "{bu}", bu).Replace(tmpl)
}

func (r *Rules) clone() *Rules {
	c := *r
	if r.SplitOn != nil {
		d := *r.SplitOn
		c.SplitOn = &d
	}
	c.Patterns = append([]string(nil), r.Patterns...)
	c.RequiredColumns = append([]string(nil), r.RequiredColumns...)
	c.IntColumns = append([]string(nil), r.IntColumns...)
	c.DateColumns = append([]string(nil), r.DateColumns...)
	c.TextColumns = append([]string(nil), r.TextColumns...)
	c.Renames = make(map[string]string, len(r.Renames))
	for k, v := range r.Renames {
		c.Renames[k] = v
	}
	c.Replacements = make(map[string]map[string]string, len(r.Replacements))
	for col, m := range r.Replacements {
		inner := make(map[string]string, len(m))
		for k, v := range m {
			inner[k] = v
		}
		c.Replacements[col] = inner
	}
	return &c
}

// Registry известные категории.
type Registry struct {
	rules map[string]*Rules
}

// NewRegistry собирает реестр из rules. При повторе побеждает последний.
func NewRegistry(rules ...*Rules) *Registry {
	reg := &Registry{rules: make(map[string]*Rules, len(rules))}
	for _, r := range rules {
		reg.rules[r.Category] = r
	}
	return reg
}

// Lookup возвращает копию правил категории.
func (reg *Registry) Lookup(category string) (*Rules, error) {
	r, ok := reg.rules[category]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	return r.clone(), nil
}

// Categories lists the registered category names in sorted order.
func (reg *Registry) Categories() []string {
	names := make([]string, 0, len(reg.rules))
	for name := range reg.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyConfig добавляет переименования и замены значений из конфигурации в
// соответствующие категории. Неизвестные категории возвращаются для
// предупреждения.
func (reg *Registry) ApplyConfig(renames map[string]map[string]string, replacements map[string]map[string]map[string]string) []string {
	var unknown []string
	for category, m := range renames {
		r, ok := reg.rules[category]
		if !ok {
			unknown = append(unknown, category)
			continue
		}
		if r.Renames == nil {
			r.Renames = make(map[string]string)
		}
		for from, to := range m {
			r.Renames[from] = to
		}
	}
	for category, cols := range replacements {
		r, ok := reg.rules[category]
		if !ok {
			unknown = append(unknown, category)
			continue
		}
		if r.Replacements == nil {
			r.Replacements = make(map[string]map[string]string)
		}
		for col, m := range cols {
			if r.Replacements[col] == nil {
				r.Replacements[col] = make(map[string]string)
			}
			for from, to := range m {
				r.Replacements[col][from] = to
			}
		}
	}
	sort.Strings(unknown)
	return unknown
}

var (
	pipeIntColumns  = []string{"SUBINVENTORY_CODE", "STORE_CODE", "SubInventory"}
	pipeDateColumns = []string{
		"TRANSACTION_DATE", "EXPIRE_DATE", "Invoice Date", "Receipt Date",
		"วันหมดอายุ", "REPORTED", "CREATION_DATE",
	}
	pipeTextColumns = []string{"Recept No", "PO No", "Invoice No"}

	inventoryValueColumns = []string{
		"SubInventory", "SubInventory Description", "Item", "Item Description",
		"Category", "UOM", "UOM Name", "Quantity", "Unit Cost", "Extended Value",
	}
	dosItemColumns = []string{
		"CREATION_DATE", "ITEM_CATEGORY", "ITEM_CATEGORY_DESC", "ITEM_NUMBER",
		"ITEM_DESCRIPTION", "DOS_GROUP", "DOS_GROUP_DESC", "PRIMARY_UOM_CODE",
		"PRIMARY_UNIT_OF_MEASURE", "Local / Import", "Generic / Original",
	}
	dosSaleColumns = []string{
		"SUBINVENTORY_CODE", "TRANSACTION_DATE", "ITEM_CODE", "ITEM_DESC",
		"TRX_TYPE_NAME", "TRX_TYPE_DESC", "PRIMARY_UOM_CODE", "PRIMARY_UOM_NAME",
	}
	transactionColumns = []string{
		"Item", "Subinventory", "Transaction Date", "Transaction ID",
		"Transaction UOM", "Primary Quantity",
	}
)

func pipeRules(category string, skip int, patterns ...string) *Rules {
	return &Rules{
		Category:    category,
		Patterns:    patterns,
		Delimiter:   detect.Pipe,
		SkipRows:    skip,
		IntColumns:  pipeIntColumns,
		DateColumns: pipeDateColumns,
		TextColumns: pipeTextColumns,
		Combine:     CombineOptions{AddBU: true, AddYear: true},
	}
}

func blockRules(category string) *Rules {
	return &Rules{
		Category:        category,
		Patterns:        []string{category + " JAN-DEC*", category + "*"},
		Delimiter:       detect.Tab,
		MultiBlock:      true,
		BlockMarker:     blocks.DefaultMarker,
		RequiredColumns: transactionColumns,
		DateColumns:     []string{"Transaction Date"},
		TextColumns:     []string{"Item", "Subinventory", "Transaction ID"},
		Combine:         CombineOptions{AddBU: true, AddYear: true},
	}
}

func thaiRules(category, pattern string) *Rules {
	pipe := detect.Pipe
	return &Rules{
		Category:    category,
		Patterns:    []string{pattern},
		Delimiter:   detect.Tab,
		SplitOn:     &pipe,
		DateColumns: []string{"TRANSACTION_DATE"},
		Combine:     CombineOptions{AddBU: true, AddYear: true},
	}
}

// DefaultRegistry возвращает встроенные категории больничного склада.
func DefaultRegistry() *Registry {
	report := pipeRules("INV_REPORT", 5, "PYT_รายงานข้อมูลการรับสินค้า*")
	report.Combine.SourceColumn = "from_report"

	value := pipeRules("INV_VALUE", 4, "G5_Inventory_Value_Report*")
	value.RequiredColumns = inventoryValueColumns
	value.Combine.MonthFromFilename = true

	sale := pipeRules("DOS_SALE", 0, "PYT_DOS___Sale_Transaction__Ne*")
	sale.RequiredColumns = dosSaleColumns

	item := pipeRules("DOS_ITEM", 0, "PYT_DOS___Extract_Item_Informa*")
	item.RequiredColumns = dosItemColumns

	return NewRegistry(
		report,
		pipeRules("INV_ONHAND", 0, "G5_Inventory_Current_On_Hand*"),
		value,
		sale,
		item,
		blockRules("ORCMII"),
		blockRules("POSMIS"),
		blockRules("SSBMIC"),
		blockRules("HISMIC"),
		thaiRules("PLC_SALE", "PLC_SALE_*"),
		thaiRules("PLC_HISMIC", "PLC_HISMIC_*"),
		thaiRules("PLC_ORCMII", "PLC_ORCMII_*"),
	)
}
