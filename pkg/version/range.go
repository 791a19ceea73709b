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
	"fmt"
	"strings"
)

// clause is one comparison of a Range, such as ">=0.2.0".
type clause struct {
	op string
	v  Version
}

// ops is ordered so that two-character operators match first.
var ops = []string{">=", "<=", "==", ">", "<", "="}

func (c clause) holds(v Version) bool {
	cmp := v.Compare(c.v)
	switch c.op {
	case ">=":
		return cmp >= 0
	case ">":
		return cmp > 0
	case "<=":
		return cmp <= 0
	case "<":
		return cmp < 0
	default:
		return cmp == 0
	}
}

func (c clause) String() string { return c.op + c.v.String() }

// Range is a conjunction of version comparisons, written as a comma
// separated list: ">=0.2.0,<3.0.0" accepts 0.2.0 up to but excluding 3.0.0.
type Range struct {
	clauses []clause
}

// ParseRange parses a comma separated list of clauses. A clause without an
// operator is an exact match.
func ParseRange(s string) (Range, error) {
	var r Range
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		op := "=="
		for _, candidate := range ops {
			if strings.HasPrefix(part, candidate) {
				op = candidate
				part = strings.TrimSpace(part[len(candidate):])
				break
			}
		}
		if op == "=" {
			op = "=="
		}

		v, err := Parse(part)
		if err != nil {
			return Range{}, fmt.Errorf("parse range %q: %w", s, err)
		}
		r.clauses = append(r.clauses, clause{op: op, v: v})
	}
	if len(r.clauses) == 0 {
		return Range{}, fmt.Errorf("parse range %q: no clauses", s)
	}
	return r, nil
}

// MustParseRange is like ParseRange but panics on error.
func MustParseRange(s string) Range {
	r, err := ParseRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

// IsZero reports whether r has no clauses, as the zero Range does.
func (r Range) IsZero() bool { return len(r.clauses) == 0 }

// Contains reports whether v satisfies every clause of the range.
func (r Range) Contains(v Version) bool {
	for _, c := range r.clauses {
		if !c.holds(v) {
			return false
		}
	}
	return len(r.clauses) > 0
}

func (r Range) String() string {
	parts := make([]string, len(r.clauses))
	for i, c := range r.clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// BadVersionError reports a version outside a required range.
type BadVersionError struct {
	Reported Version
	Required Range
}

func (e *BadVersionError) Error() string {
	return fmt.Sprintf("version %s is outside of the required range (%s)", e.Reported, e.Required)
}

// Require returns a *BadVersionError unless reported lies within required.
func Require(reported Version, required Range) error {
	if !required.Contains(reported) {
		return &BadVersionError{Reported: reported, Required: required}
	}
	return nil
}
