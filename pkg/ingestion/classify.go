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

package ingestion

import "github.com/kraklabs/graphload/pkg/engine"

// Effect is what one engine message contributes to a run.
type Effect struct {
	// Node is set for node messages, the only kind that is counted.
	Node bool

	// Err is set for err messages. They are tallied but never fatal.
	Err bool

	// Diagnostics are the lines to print, in order.
	Diagnostics []string
}

// Classify decides how a message is counted and printed. It never fails;
// kinds it does not know are ignored unless debug is set, in which case
// every message is echoed in its raw form.
func Classify(m engine.Message, debug bool) Effect {
	var eff Effect

	switch m.Kind {
	case engine.KindNode:
		eff.Node = true
	case engine.KindErr:
		eff.Err = true
		if !debug {
			eff.Diagnostics = append(eff.Diagnostics, m.String())
		}
	case engine.KindPrint:
		eff.Diagnostics = append(eff.Diagnostics, m.Text())
	}

	if debug {
		eff.Diagnostics = append(eff.Diagnostics, m.String())
	}
	return eff
}
