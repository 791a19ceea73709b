// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui provides user interface utilities for the graphload CLI.
//
// This package offers color output helpers that respect the --no-color flag
// and NO_COLOR environment variable. Output goes to an explicit writer so
// that diagnostics on stdout and status lines on stderr never mix.
//
// Color usage guidelines:
//   - Yellow: Warnings, cautions
//   - Green: Success, completions
//   - Cyan: Info, neutral messages
//   - Dim: Less important details, paths
package ui

import (
	"io"

	"github.com/fatih/color"
)

// Pre-configured color instances for consistent CLI output.
//
// These respect the global color.NoColor setting when called.
var (
	// Yellow is used for warnings and cautions.
	Yellow = color.New(color.FgYellow)

	// Green is used for success messages and completions.
	Green = color.New(color.FgGreen)

	// Cyan is used for informational messages.
	Cyan = color.New(color.FgCyan)

	// Dim is used for less important details like paths.
	Dim = color.New(color.Faint)
)

// InitColors configures global color output based on the noColor flag.
//
// This should be called early in main() after parsing flags. The
// fatih/color library already respects NO_COLOR and non-TTY output; this
// only adds the explicit --no-color override.
func InitColors(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

// Printer writes status lines to W.
type Printer struct {
	W io.Writer
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{W: w}
}

// Successf prints a formatted green success message with a checkmark prefix.
func (p *Printer) Successf(format string, args ...any) {
	_, _ = Green.Fprintf(p.W, "✓ "+format+"\n", args...)
}

// Warningf prints a formatted yellow warning message.
func (p *Printer) Warningf(format string, args ...any) {
	_, _ = Yellow.Fprintf(p.W, "⚠ "+format+"\n", args...)
}

// Infof prints a formatted cyan informational message.
func (p *Printer) Infof(format string, args ...any) {
	_, _ = Cyan.Fprintf(p.W, "ℹ "+format+"\n", args...)
}

// DimText returns a dim-formatted string for less important text.
//
// Example: fmt.Fprintf(w, "Log: %s\n", ui.DimText(logPath))
func DimText(text string) string {
	return Dim.Sprint(text)
}
