package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"inventoryetl/combine"
	"inventoryetl/converter"
)

func newCombineCmd() *cobra.Command {
	var (
		category   string
		year       string
		bu         string
		key        string
		parquetDir string
		clearFirst bool
	)

	cmd := &cobra.Command{
		Use:   "combine",
		Short: "Append converted workbooks of a category to its combined store",
		Long: `Combine reads every .xlsx in <INV_CLEAN_ROOT>/<year>/<BU>/<category>, aligns the
columns to the first file and appends the rows to the category's store.

Appending never removes earlier rows: running combine twice over the same folder
stores its rows twice. Use --clear (or the clear command) to start over.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.RequireClean(); err != nil {
				return err
			}
			rules, err := registry().Lookup(category)
			if err != nil {
				return err
			}
			folders, err := combineFolders(category, year, bu)
			if err != nil {
				return err
			}
			if len(folders) == 0 {
				ui.Warning("no %s folders under %s", category, cfg.CleanRoot)
				return nil
			}
			if parquetDir == "" {
				parquetDir = cfg.ParquetDir()
			}

			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()
			stage := combine.NewStage(db, logger)
			ctx := cmd.Context()

			cleared := map[string]bool{}
			for _, f := range folders {
				job := combine.FolderJob{Dir: f.dir, Year: f.year, BU: f.bu, Rules: rules, Key: key}
				storeKey := job.Key
				if storeKey == "" {
					storeKey = rules.StoreKey(f.year, f.bu)
				}
				if clearFirst && !cleared[storeKey] {
					if err := stage.Combiner().Clear(ctx, storeKey); err != nil {
						return err
					}
					cleared[storeKey] = true
					ui.Info("cleared %s", storeKey)
				}
				if parquetDir != "" {
					job.SnapshotPath = filepath.Join(parquetDir, snapshotName(storeKey))
				}

				ui.Step("combining %s", f.dir)
				res, err := stage.CombineFolder(ctx, job)
				if err != nil {
					ui.Error("%s: %v", f.dir, err)
					continue
				}
				printCombine(res)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "category to combine (required)")
	cmd.Flags().StringVar(&year, "year", "", "only this year")
	cmd.Flags().StringVar(&bu, "bu", "", "only this business unit")
	cmd.Flags().StringVar(&key, "key", "", "store key (default from the category rules)")
	cmd.Flags().StringVar(&parquetDir, "parquet-dir", "", "write a parquet snapshot of the store here")
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "clear the store before appending")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

type combineFolder struct {
	dir, year, bu string
}

// combineFolders возвращает существующие папки <clean root>/<year>/<bu>/<category>.
func combineFolders(category, year, bu string) ([]combineFolder, error) {
	years, err := dirNames(cfg.CleanRoot)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", cfg.CleanRoot, err)
	}
	var out []combineFolder
	for _, y := range years {
		if year != "" && y != year {
			continue
		}
		if len(cfg.Years) > 0 && !slices.Contains(cfg.Years, y) && !slices.ContainsFunc(cfg.Years, func(s string) bool {
			return converter.YearOf(s) == y
		}) {
			continue
		}
		bus, err := dirNames(filepath.Join(cfg.CleanRoot, y))
		if err != nil {
			return nil, err
		}
		for _, b := range bus {
			if bu != "" && b != bu {
				continue
			}
			if len(cfg.BusinessUnits) > 0 && !slices.Contains(cfg.BusinessUnits, b) {
				continue
			}
			dir := filepath.Join(cfg.CleanRoot, y, b, category)
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				out = append(out, combineFolder{dir: dir, year: y, bu: b})
			}
		}
	}
	return out, nil
}

func dirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func snapshotName(key string) string {
	return strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(key) + ".parquet"
}

func printCombine(res *combine.FolderResult) {
	for _, f := range res.Failures {
		ui.Error("%s skipped: %v", f.Path, f.Err)
	}
	for _, d := range res.Drifts {
		if len(d.Dropped) > 0 {
			ui.Warning("%s: dropped %s", filepath.Base(d.Table), strings.Join(d.Dropped, ", "))
		}
		if len(d.Added) > 0 {
			ui.Info("%s: added empty %s", filepath.Base(d.Table), strings.Join(d.Added, ", "))
		}
	}
	if res.Append == nil {
		ui.Warning("%s: nothing appended", res.Key)
		return
	}
	a := res.Append
	if len(a.Repeated) > 0 {
		ui.Warning("%s: %d source files were already appended, their rows now repeat", a.Key, len(a.Repeated))
	}
	if len(a.NewColumns) > 0 || len(a.AbsentColumns) > 0 {
		ui.Warning("%s: store columns differ (new: %v, absent: %v)", a.Key, a.NewColumns, a.AbsentColumns)
	}
	for _, kc := range a.KindConflicts {
		if !kc.Converted {
			ui.Warning("%s: column %s stored as %s, batch values kept as %s", a.Key, kc.Column, kc.Stored, kc.Batch)
		}
	}
	ui.Success("%s: %d rows appended, %d total", a.Key, a.Appended, a.TotalRows)
	if res.Snapshot != "" {
		ui.Info("snapshot %s", res.Snapshot)
	}
}
