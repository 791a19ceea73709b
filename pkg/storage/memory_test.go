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
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGuid(t *testing.T) {
	g := NewGuid()
	assert.Len(t, g, 32)
	assert.Regexp(t, `^[0-9a-f]{32}$`, g)
	assert.NotEqual(t, g, NewGuid())
}

func TestNodeIden(t *testing.T) {
	a, err := NodeIden("inet:fqdn", "vertex.link")
	require.NoError(t, err)
	assert.Len(t, a, 64)

	b, err := NodeIden("inet:fqdn", "vertex.link")
	require.NoError(t, err)
	assert.Equal(t, a, b, "iden must be deterministic")

	c, err := NodeIden("inet:fqdn", "woot.com")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	d, err := NodeIden("ps:name", "vertex.link")
	require.NoError(t, err)
	assert.NotEqual(t, a, d, "form is part of the iden")

	_, err = NodeIden("", "x")
	assert.Error(t, err)
	_, err = NodeIden("test:int", make(chan int))
	assert.Error(t, err)
}

func TestMemBackend_PutNode(t *testing.T) {
	ctx := context.Background()
	b := NewMemBackend(MemConfig{})
	defer b.Close()

	n, created, err := b.PutNode(ctx, "", "inet:fqdn", "vertex.link", nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "inet:fqdn", n.Form)

	n, created, err = b.PutNode(ctx, b.DefaultView(), "inet:fqdn", "vertex.link", map[string]any{"zone": "link"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "link", n.Props["zone"])

	count, err := b.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Returned nodes are copies.
	n.Props["zone"] = "changed"
	nodes, err := b.Nodes(ctx, "")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "link", nodes[0].Props["zone"])
}

func TestMemBackend_AddTag(t *testing.T) {
	ctx := context.Background()
	b := NewMemBackend(MemConfig{})
	defer b.Close()

	n, added, err := b.AddTag(ctx, "", "inet:fqdn", "vertex.link", "cno.mal")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"cno.mal"}, n.Tags)

	_, added, err = b.AddTag(ctx, "", "inet:fqdn", "vertex.link", "cno.mal")
	require.NoError(t, err)
	assert.False(t, added)

	n, _, err = b.AddTag(ctx, "", "inet:fqdn", "vertex.link", "aka.foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"aka.foo", "cno.mal"}, n.Tags, "tags stay sorted")

	_, _, err = b.AddTag(ctx, "", "inet:fqdn", "vertex.link", "")
	assert.Error(t, err)
}

func TestMemBackend_Views(t *testing.T) {
	ctx := context.Background()
	b := NewMemBackend(MemConfig{DefaultView: "0123456789abcdef0123456789abcdef"})
	defer b.Close()

	assert.Equal(t, "0123456789abcdef0123456789abcdef", b.DefaultView())
	assert.True(t, b.HasView(b.DefaultView()))

	other := NewGuid()
	assert.False(t, b.HasView(other))
	require.NoError(t, b.AddView(other))
	assert.True(t, b.HasView(other))
	assert.ErrorIs(t, b.AddView(other), ErrViewExists)

	_, _, err := b.PutNode(ctx, other, "test:str", "a", nil)
	require.NoError(t, err)

	count, err := b.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, count, "views are isolated")

	_, _, err = b.PutNode(ctx, NewGuid(), "test:str", "a", nil)
	assert.True(t, errors.Is(err, ErrNoSuchView))
}

func TestMemBackend_Nodes_Ordered(t *testing.T) {
	ctx := context.Background()
	b := NewMemBackend(MemConfig{})
	defer b.Close()

	for _, f := range []string{"test:str", "inet:fqdn", "test:str", "inet:ipv4"} {
		_, _, err := b.PutNode(ctx, "", f, f+"-valu", nil)
		require.NoError(t, err)
	}

	nodes, err := b.Nodes(ctx, "")
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "inet:fqdn", nodes[0].Form)
	assert.Equal(t, "inet:ipv4", nodes[1].Form)
	assert.Equal(t, "test:str", nodes[2].Form)
}

func TestMemBackend_Closed(t *testing.T) {
	ctx := context.Background()
	b := NewMemBackend(MemConfig{})
	require.NoError(t, b.Close())
	require.NoError(t, b.Close(), "close is idempotent")

	_, _, err := b.PutNode(ctx, "", "test:str", "a", nil)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = b.Count(ctx, "")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, b.AddView(NewGuid()), ErrClosed)
	assert.False(t, b.HasView(b.DefaultView()))
}

func TestMemBackend_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewMemBackend(MemConfig{})
	defer b.Close()

	_, _, err := b.PutNode(ctx, "", "test:str", "a", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemBackend_Concurrent(t *testing.T) {
	ctx := context.Background()
	b := NewMemBackend(MemConfig{})
	defer b.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _, _ = b.PutNode(ctx, "", "test:int", j, nil)
				_, _ = b.Count(ctx, "")
			}
		}(i)
	}
	wg.Wait()

	count, err := b.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 100, count)
}
