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

package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
)

func withoutColor(t *testing.T) {
	t.Helper()
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = original })
}

func TestInitColors(t *testing.T) {
	original := color.NoColor
	defer func() { color.NoColor = original }()

	color.NoColor = false
	InitColors(false)
	if color.NoColor {
		t.Error("InitColors(false) should leave colors enabled")
	}

	InitColors(true)
	if !color.NoColor {
		t.Error("InitColors(true) should disable colors")
	}
}

func TestPrinter(t *testing.T) {
	withoutColor(t)

	tests := []struct {
		name  string
		print func(p *Printer)
		want  string
	}{
		{"successf", func(p *Printer) { p.Successf("%d nodes", 3) }, "✓ 3 nodes\n"},
		{"warningf", func(p *Printer) { p.Warningf("%d errors", 2) }, "⚠ 2 errors\n"},
		{"infof", func(p *Printer) { p.Infof("v%s", "2.150.0") }, "ℹ v2.150.0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.print(NewPrinter(&buf))
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestDimText(t *testing.T) {
	withoutColor(t)

	if got := DimText("/tmp/run.jsonl"); got != "/tmp/run.jsonl" {
		t.Errorf("DimText() = %q", got)
	}
}
