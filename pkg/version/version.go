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

package version

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is a canonical semantic version without the leading "v",
// for example "2.150.0". Prerelease suffixes are kept; build metadata is
// dropped.
type Version string

// Parse parses a semantic version. A leading "v" is optional and missing
// minor or patch components default to zero ("2" is "2.0.0").
func Parse(s string) (Version, error) {
	v := strings.TrimSpace(s)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", fmt.Errorf("invalid version %q", s)
	}
	return Version(strings.TrimPrefix(semver.Canonical(v), "v")), nil
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// FromTuple builds a Version from its numeric components.
func FromTuple(major, minor, patch int) Version {
	return Version(fmt.Sprintf("%d.%d.%d", major, minor, patch))
}

func (v Version) String() string { return string(v) }

// Compare returns -1, 0 or +1 as v is less than, equal to or greater than w.
func (v Version) Compare(w Version) int {
	return semver.Compare("v"+string(v), "v"+string(w))
}

// UnmarshalJSON accepts either a version string ("2.150.0") or a
// [major, minor, patch] tuple.
func (v *Version) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		parsed, err := Parse(s)
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	}

	var tuple []int
	if err := json.Unmarshal(b, &tuple); err != nil {
		return fmt.Errorf("version must be a string or [major, minor, patch]: %s", string(b))
	}
	if len(tuple) != 3 {
		return fmt.Errorf("version tuple must have 3 elements, got %d", len(tuple))
	}
	*v = FromTuple(tuple[0], tuple[1], tuple[2])
	return nil
}
