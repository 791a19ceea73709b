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

package storage

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"
)

// Backend is the interface graph stores implement.
type Backend interface {
	// DefaultView returns the iden of the view used when none is requested.
	DefaultView() string

	// AddView creates an empty view.
	AddView(iden string) error

	// HasView reports whether the view exists.
	HasView(iden string) bool

	// PutNode creates the node or merges props into an existing one. The
	// bool result reports whether the node was created.
	PutNode(ctx context.Context, view, form string, valu any, props map[string]any) (Node, bool, error)

	// AddTag tags an existing or new node. The bool result reports whether
	// the tag was not present before.
	AddTag(ctx context.Context, view, form string, valu any, tag string) (Node, bool, error)

	// Count returns the number of nodes in the view.
	Count(ctx context.Context, view string) (int, error)

	// Nodes returns a snapshot of the view ordered by form then iden.
	Nodes(ctx context.Context, view string) ([]Node, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Node is a stored graph node.
type Node struct {
	Iden  string         `json:"iden"`
	Form  string         `json:"form"`
	Valu  any            `json:"valu"`
	Props map[string]any `json:"props,omitempty"`
	Tags  []string       `json:"tags,omitempty"`
}

// Errors returned by backends.
var (
	ErrNoSuchView = errors.New("no such view")
	ErrViewExists = errors.New("view already exists")
	ErrClosed     = errors.New("backend is closed")
)

// NodeIden returns the iden of the node (form, valu). valu must be JSON
// encodable.
func NodeIden(form string, valu any) (string, error) {
	if form == "" {
		return "", fmt.Errorf("node form is required")
	}
	b, err := json.Marshal(valu)
	if err != nil {
		return "", fmt.Errorf("encode %s value: %w", form, err)
	}

	h := blake3.New()
	_, _ = h.Write([]byte(form))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(b)
	return hex.EncodeToString(h.Sum(nil)), nil
}
