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
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var _ Backend = (*MemBackend)(nil)

// MemBackend implements Backend in memory. Nothing survives Close.
type MemBackend struct {
	mu          sync.RWMutex
	views       map[string]map[string]*Node
	defaultView string
	closed      bool
}

// MemConfig configures the memory backend.
type MemConfig struct {
	// DefaultView is the iden of the initial view.
	// Defaults to a freshly generated guid.
	DefaultView string
}

// NewGuid returns a random 32 character lowercase hex identifier.
func NewGuid() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewMemBackend creates an empty backend holding one view.
func NewMemBackend(config MemConfig) *MemBackend {
	if config.DefaultView == "" {
		config.DefaultView = NewGuid()
	}
	return &MemBackend{
		views:       map[string]map[string]*Node{config.DefaultView: {}},
		defaultView: config.DefaultView,
	}
}

// DefaultView implements Backend.
func (b *MemBackend) DefaultView() string { return b.defaultView }

// AddView implements Backend.
func (b *MemBackend) AddView(iden string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if _, ok := b.views[iden]; ok {
		return fmt.Errorf("%w: %s", ErrViewExists, iden)
	}
	b.views[iden] = map[string]*Node{}
	return nil
}

// HasView implements Backend.
func (b *MemBackend) HasView(iden string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.views[iden]
	return ok && !b.closed
}

// PutNode implements Backend.
func (b *MemBackend) PutNode(ctx context.Context, view, form string, valu any, props map[string]any) (Node, bool, error) {
	iden, err := NodeIden(form, valu)
	if err != nil {
		return Node{}, false, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	nodes, err := b.viewLocked(ctx, view)
	if err != nil {
		return Node{}, false, err
	}

	n, ok := nodes[iden]
	if !ok {
		n = &Node{Iden: iden, Form: form, Valu: valu}
		nodes[iden] = n
	}
	if len(props) > 0 {
		if n.Props == nil {
			n.Props = make(map[string]any, len(props))
		}
		maps.Copy(n.Props, props)
	}
	return n.clone(), !ok, nil
}

// AddTag implements Backend.
func (b *MemBackend) AddTag(ctx context.Context, view, form string, valu any, tag string) (Node, bool, error) {
	if tag == "" {
		return Node{}, false, fmt.Errorf("tag name is required")
	}
	iden, err := NodeIden(form, valu)
	if err != nil {
		return Node{}, false, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	nodes, err := b.viewLocked(ctx, view)
	if err != nil {
		return Node{}, false, err
	}

	n, ok := nodes[iden]
	if !ok {
		n = &Node{Iden: iden, Form: form, Valu: valu}
		nodes[iden] = n
	}
	i, found := slices.BinarySearch(n.Tags, tag)
	if !found {
		n.Tags = slices.Insert(n.Tags, i, tag)
	}
	return n.clone(), !found, nil
}

// Count implements Backend.
func (b *MemBackend) Count(ctx context.Context, view string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	nodes, err := b.viewLocked(ctx, view)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// Nodes implements Backend.
func (b *MemBackend) Nodes(ctx context.Context, view string) ([]Node, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	nodes, err := b.viewLocked(ctx, view)
	if err != nil {
		return nil, err
	}

	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Form != out[j].Form {
			return out[i].Form < out[j].Form
		}
		return out[i].Iden < out[j].Iden
	})
	return out, nil
}

// Close drops all data. Further calls fail with ErrClosed.
func (b *MemBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.views = nil
	return nil
}

// viewLocked must be called with b.mu held.
func (b *MemBackend) viewLocked(ctx context.Context, view string) (map[string]*Node, error) {
	if b.closed {
		return nil, ErrClosed
	}

	// Check context cancellation
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if view == "" {
		view = b.defaultView
	}
	nodes, ok := b.views[view]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchView, view)
	}
	return nodes, nil
}

func (n *Node) clone() Node {
	c := *n
	c.Props = maps.Clone(n.Props)
	c.Tags = slices.Clone(n.Tags)
	return c
}
