package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// UI prints user-facing output. Logs go to stderr separately.
type UI struct {
	noColor bool
}

// NewUI creates a new UI instance.
func NewUI(noColor bool) *UI {
	return &UI{noColor: noColor}
}

func (ui *UI) print(c color.Attribute, symbol, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if ui.noColor {
		fmt.Printf("%s %s\n", symbol, msg)
		return
	}
	color.New(c).Printf("%s %s\n", symbol, msg)
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...any) { ui.print(color.FgGreen, "✓", format, args...) }

// Error prints an error message.
func (ui *UI) Error(format string, args ...any) { ui.print(color.FgRed, "✗", format, args...) }

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...any) { ui.print(color.FgYellow, "⚠", format, args...) }

// Info prints an info message.
func (ui *UI) Info(format string, args ...any) { ui.print(color.FgCyan, "ℹ", format, args...) }

// Step prints a step message.
func (ui *UI) Step(format string, args ...any) { ui.print(color.FgBlue, "→", format, args...) }

// ProgressBar creates a file counter on stderr.
func (ui *UI) ProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionEnableColorCodes(!ui.noColor),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
	)
}
