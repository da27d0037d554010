package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"inventoryetl/detect"
	"inventoryetl/importer"
)

func newDetectCmd() *cobra.Command {
	var (
		delimiter string
		skipRows  int
	)

	cmd := &cobra.Command{
		Use:   "detect <file>",
		Short: "Show the encoding guess, the candidates tried and the parse result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			delim, err := detect.ParseDelimiter(delimiter)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			container, err := importer.SniffFile(path)
			if err != nil {
				return err
			}

			d := newDetector()
			guess := d.Guess(data)
			fmt.Printf("container:  %s\n", container)
			fmt.Printf("guess:      %s (confidence %.2f)\n", guess.Charset, guess.Confidence)
			fmt.Printf("candidates: %v\n", d.Candidates(guess))

			if container != importer.ContainerText {
				ui.Info("binary spreadsheet, strings decoded as %s", d.Charset(data))
				return nil
			}
			raw, err := d.Detect(data, delim, skipRows)
			if err != nil {
				ui.Error("%v", err)
				return err
			}
			ui.Success("%s: %d columns, %d rows, %d malformed rows skipped",
				raw.Encoding, raw.Width(), len(raw.Rows), raw.Skipped)
			fmt.Printf("header:     %q\n", raw.Columns)
			return nil
		},
	}

	cmd.Flags().StringVarP(&delimiter, "delimiter", "d", "tab", "field separator: tab or pipe")
	cmd.Flags().IntVar(&skipRows, "skip", 0, "leading lines to skip before the header")

	return cmd
}
