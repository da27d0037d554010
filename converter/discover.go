package converter

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"inventoryetl/normalization"
)

// Layout дерево исходных файлов <root>/<папка года>/<BU>/.
type Layout struct {
	SourceRoot string
	// Years и BusinessUnits, если не пусты, ограничивают обход. Год
	// совпадает с именем папки или с его последним словом.
	Years         []string
	BusinessUnits []string
	// OutputDir определяет, куда пишутся файлы категории.
	OutputDir func(year, bu, category string) string
}

// Filter сужает поиск. Пустые поля совпадают со всем.
type Filter struct {
	Year     string
	BU       string
	Category string
}

// YearOf возвращает год из имени папки года (последнее слово).
func YearOf(folder string) string {
	fields := strings.Fields(folder)
	if len(fields) == 0 {
		return folder
	}
	return fields[len(fields)-1]
}

func yearSelected(folder string, years []string) bool {
	if len(years) == 0 {
		return true
	}
	return slices.Contains(years, folder) || slices.Contains(years, YearOf(folder))
}

// Discover составляет задания для всех файлов, подходящих под шаблоны
// категорий. Файл, подходящий под несколько шаблонов одной категории, дает
// одно задание.
func Discover(layout Layout, reg *normalization.Registry, filter Filter) ([]Job, error) {
	categories := reg.Categories()
	if filter.Category != "" {
		if _, err := reg.Lookup(filter.Category); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, filter.Category)
		}
		categories = []string{filter.Category}
	}
	rules := make([]*normalization.Rules, 0, len(categories))
	for _, name := range categories {
		r, err := reg.Lookup(name)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}

	yearDirs, err := subdirs(layout.SourceRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSourceRoot, err)
	}

	type pair struct{ path, category string }
	seen := make(map[pair]bool)
	var jobs []Job
	for _, yearDir := range yearDirs {
		if !yearSelected(yearDir, layout.Years) {
			continue
		}
		year := YearOf(yearDir)
		if filter.Year != "" && filter.Year != year && filter.Year != yearDir {
			continue
		}
		yearPath := filepath.Join(layout.SourceRoot, yearDir)
		buDirs, err := subdirs(yearPath)
		if err != nil {
			return nil, err
		}
		for _, bu := range buDirs {
			if len(layout.BusinessUnits) > 0 && !slices.Contains(layout.BusinessUnits, bu) {
				continue
			}
			if filter.BU != "" && filter.BU != bu {
				continue
			}
			buPath := filepath.Join(yearPath, bu)
			names, err := listFiles(buPath)
			if err != nil {
				return nil, err
			}
			for _, r := range rules {
				for _, name := range names {
					if !r.Match(name) {
						continue
					}
					p := pair{filepath.Join(buPath, name), r.Category}
					if seen[p] {
						continue
					}
					seen[p] = true
					jobs = append(jobs, Job{
						Path:   p.path,
						Rules:  r,
						OutDir: outputDir(layout, year, bu, r.Category),
						Year:   year,
						BU:     bu,
					})
				}
			}
		}
	}
	return jobs, nil
}

func outputDir(layout Layout, year, bu, category string) string {
	if layout.OutputDir != nil {
		return layout.OutputDir(year, bu, category)
	}
	return filepath.Join(year, bu, category)
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
