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

package engine

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Opts accompanies a script submission. Vars are bound as script
// variables; View selects the view to work in (empty for the engine
// default); EditFormat controls whether node:edits messages are streamed.
// Keys the pipeline does not know are kept in Extra and passed through.
type Opts struct {
	Vars       map[string]any `yaml:"vars,omitempty"`
	View       string         `yaml:"view,omitempty"`
	EditFormat string         `yaml:"editformat,omitempty"`
	Extra      map[string]any `yaml:",inline"`
}

// Edit formats understood by the engines.
const (
	EditFormatNodeEdits = "nodeedits"
	EditFormatSplices   = "splices"
	EditFormatNone      = "none"
)

// SetVar binds name to v, allocating Vars when needed.
func (o *Opts) SetVar(name string, v any) {
	if o.Vars == nil {
		o.Vars = make(map[string]any)
	}
	o.Vars[name] = v
}

// Clone returns a copy whose Vars and Extra maps can be changed without
// affecting o. Values are shared.
func (o *Opts) Clone() *Opts {
	if o == nil {
		return &Opts{}
	}
	c := *o
	c.Vars = maps.Clone(o.Vars)
	c.Extra = maps.Clone(o.Extra)
	return &c
}

// MarshalJSON flattens Extra next to the known keys.
func (o Opts) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(o.Extra)+3)
	for k, v := range o.Extra {
		out[k] = v
	}
	if len(o.Vars) > 0 {
		out["vars"] = o.Vars
	}
	if o.View != "" {
		out["view"] = o.View
	}
	if o.EditFormat != "" {
		out["editformat"] = o.EditFormat
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (o *Opts) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode opts: %w", err)
	}

	*o = Opts{}
	for k, v := range raw {
		var err error
		switch k {
		case "vars":
			err = json.Unmarshal(v, &o.Vars)
		case "view":
			err = json.Unmarshal(v, &o.View)
		case "editformat":
			err = json.Unmarshal(v, &o.EditFormat)
		default:
			var val any
			if err = json.Unmarshal(v, &val); err == nil {
				if o.Extra == nil {
					o.Extra = make(map[string]any)
				}
				o.Extra[k] = val
			}
		}
		if err != nil {
			return fmt.Errorf("decode opts %q: %w", k, err)
		}
	}
	return nil
}
