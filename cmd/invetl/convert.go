package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"inventoryetl/converter"
)

func newConvertCmd() *cobra.Command {
	var (
		filter   converter.Filter
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert every matching source file into a native workbook",
		Long: `Convert walks <INV_SOURCE_ROOT>/<year folder>/<BU>/, matches each file
against the category patterns and writes <output dir>/<name>.xlsx.
A file that fails is reported and the run continues.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.RequireSource(); err != nil {
				return err
			}
			layout := converter.Layout{
				SourceRoot:    cfg.SourceRoot,
				Years:         cfg.Years,
				BusinessUnits: cfg.BusinessUnits,
				OutputDir:     cfg.OutputDir,
			}
			jobs, err := converter.Discover(layout, registry(), filter)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				ui.Warning("no matching files under %s", cfg.SourceRoot)
				return nil
			}
			ui.Step("converting %d files", len(jobs))

			var onResult func(*converter.Result)
			if progress {
				bar := ui.ProgressBar(len(jobs), "converting")
				defer bar.Finish()
				onResult = func(*converter.Result) { _ = bar.Add(1) }
			}
			report, err := converter.New(newDetector(), logger).ConvertBatch(cmd.Context(), jobs, onResult)
			printBatch(report)
			if err != nil {
				return err
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d files failed", report.Failed, report.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Year, "year", "", "only this year (folder name or its last word)")
	cmd.Flags().StringVar(&filter.BU, "bu", "", "only this business unit")
	cmd.Flags().StringVar(&filter.Category, "category", "", "only this category")
	cmd.Flags().BoolVar(&progress, "progress", false, "show a progress bar")

	return cmd
}

func newConvertFileCmd() *cobra.Command {
	var (
		category string
		outDir   string
	)

	cmd := &cobra.Command{
		Use:   "convert-file <path>",
		Short: "Convert one file with the rules of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := registry().Lookup(category)
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = filepath.Dir(args[0])
			}
			res, err := converter.New(newDetector(), logger).ConvertFile(cmd.Context(), converter.Job{
				Path:   args[0],
				Rules:  rules,
				OutDir: outDir,
			})
			if err != nil {
				ui.Error("%v", err)
				return err
			}
			printResult(res)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "category whose rules apply (required)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output folder (default: next to the input)")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func printResult(res *converter.Result) {
	if res.Copied {
		ui.Success("%s copied to %s", filepath.Base(res.Input), res.Output)
		return
	}
	ui.Success("%s → %s (%s, confidence %.2f)", filepath.Base(res.Input), res.Output, res.Encoding, res.Confidence)
	if res.Fallback {
		ui.Info("read as delimited text after the spreadsheet reader failed")
	}
	for _, s := range res.Sheets {
		ui.Info("%s: %d rows × %d columns, %d empty rows dropped", s.Name, s.Rows, s.Columns, s.DroppedRows)
		for col, n := range s.CoercedToNull {
			ui.Warning("%s: %d values in %q could not be typed", s.Name, n, col)
		}
	}
}

func printBatch(report *converter.BatchReport) {
	if report == nil {
		return
	}
	for _, fe := range report.Failures {
		ui.Error("%s failed at %s: %v", fe.Path, fe.State, fe.Err)
	}
	ui.Info("files: %d, converted: %d (copied: %d), failed: %d, took %s",
		report.Total, report.Converted, report.Copied, report.Failed, report.Duration.Round(time.Millisecond))
	if report.Failed == 0 {
		ui.Success("all files converted")
	}
}
