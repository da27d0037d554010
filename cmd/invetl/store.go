package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"inventoryetl/exporter"
)

func newClearCmd() *cobra.Command {
	var (
		key string
		all bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove a combined store before a fresh combine",
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" && !all {
				return fmt.Errorf("either --key or --all is required")
			}
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()
			ctx := cmd.Context()

			keys := []string{key}
			if all {
				stores, err := db.Keys(ctx)
				if err != nil {
					return err
				}
				keys = keys[:0]
				for _, s := range stores {
					keys = append(keys, s.Key)
				}
			}
			for _, k := range keys {
				if err := db.Clear(ctx, k); err != nil {
					return err
				}
				ui.Success("cleared %s", k)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "store key to clear")
	cmd.Flags().BoolVar(&all, "all", false, "clear every store")
	cmd.MarkFlagsMutuallyExclusive("key", "all")

	return cmd
}

func newStoresCmd() *cobra.Command {
	var batches bool

	cmd := &cobra.Command{
		Use:   "stores",
		Short: "List combined stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()
			ctx := cmd.Context()

			stores, err := db.Keys(ctx)
			if err != nil {
				return err
			}
			if len(stores) == 0 {
				ui.Info("no stores in %s", cfg.StorePath)
				return nil
			}
			for _, s := range stores {
				fmt.Printf("%-40s %8d rows %4d columns  updated %s\n",
					s.Key, s.RowCount, len(s.Columns), s.UpdatedAt.Local().Format(time.DateTime))
				if !batches {
					continue
				}
				list, err := db.Batches(ctx, s.Key)
				if err != nil {
					return err
				}
				for _, b := range list {
					fmt.Printf("    %s  %6d rows  %s  %s\n",
						b.ID, b.RowCount, b.CreatedAt.Local().Format(time.DateTime), strings.Join(b.Sources, ", "))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&batches, "batches", false, "also list the appends of each store")

	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		key string
		out string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a combined store to .xlsx, .csv or .parquet",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			t, found, err := db.Load(cmd.Context(), key)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("store %s not found", key)
			}

			switch strings.ToLower(filepath.Ext(out)) {
			case ".xlsx":
				err = exporter.WriteWorkbook(out, []exporter.Sheet{{Table: t}})
			case ".csv":
				err = exporter.WriteCSV(out, t)
			case ".parquet":
				err = exporter.WriteParquet(out, t)
			default:
				return fmt.Errorf("unsupported output format %q", filepath.Ext(out))
			}
			if err != nil {
				return err
			}
			ui.Success("%s: %d rows written to %s", key, t.NumRows(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "store key (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (required)")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
