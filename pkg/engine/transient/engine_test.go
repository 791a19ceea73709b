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

package transient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/graphload/pkg/engine"
	"github.com/kraklabs/graphload/pkg/storage"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func submit(t *testing.T, e *Engine, script string, opts *engine.Opts) []engine.Message {
	t.Helper()
	s, err := e.Submit(context.Background(), script, opts)
	require.NoError(t, err)

	var msgs []engine.Message
	require.NoError(t, engine.Drain(context.Background(), s, func(m engine.Message) error {
		msgs = append(msgs, m)
		return nil
	}))
	return msgs
}

func kinds(msgs []engine.Message) []engine.Kind {
	out := make([]engine.Kind, len(msgs))
	for i, m := range msgs {
		out[i] = m.Kind
	}
	return out
}

func rowsOpts(rows ...string) *engine.Opts {
	o := &engine.Opts{EditFormat: engine.EditFormatNone}
	o.SetVar("rows", rows)
	return o
}

func TestNew_Defaults(t *testing.T) {
	e := newEngine(t)
	assert.Equal(t, DefaultVersion, e.Version())
	assert.Len(t, e.Backend().DefaultView(), 32)
}

func TestSubmit_NodesFromRows(t *testing.T) {
	e := newEngine(t)

	msgs := submit(t, e, `map(rows, node("inet:fqdn", json(#).fqdn))`,
		rowsOpts(`{"fqdn": "vertex.link"}`, `{"fqdn": "woot.com"}`, `{"fqdn": "vertex.link"}`))

	assert.Equal(t, []engine.Kind{
		engine.KindInit, engine.KindNode, engine.KindNode, engine.KindNode, engine.KindFini,
	}, kinds(msgs))

	count, err := e.Backend().Count(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "repeated values update one node")
}

func TestSubmit_PropsTagsAndEdits(t *testing.T) {
	e := newEngine(t)

	opts := &engine.Opts{EditFormat: engine.EditFormatSplices}
	opts.SetVar("rows", []string{`{"ip": "1.2.3.4", "asn": 20}`})

	msgs := submit(t, e,
		`map(rows, [node("inet:ipv4", json(#).ip, {"asn": json(#).asn}), tag("inet:ipv4", json(#).ip, "cno.mal")])`,
		opts)

	assert.Equal(t, []engine.Kind{
		engine.KindInit,
		engine.KindNodeEdits, engine.KindNode,
		engine.KindNodeEdits, engine.KindNode,
		engine.KindFini,
	}, kinds(msgs))

	nodes, err := e.Backend().Nodes(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, float64(20), nodes[0].Props["asn"])
	assert.Equal(t, []string{"cno.mal"}, nodes[0].Tags)
}

func TestSubmit_PrintAndWarn(t *testing.T) {
	e := newEngine(t)

	msgs := submit(t, e, `[print("got %d rows", len(rows)), warn("careful")]`, rowsOpts("a", "b"))
	require.Len(t, msgs, 4)
	assert.Equal(t, engine.KindPrint, msgs[1].Kind)
	assert.Equal(t, "got 2 rows", msgs[1].Text())
	assert.Equal(t, engine.KindWarn, msgs[2].Kind)
	assert.Equal(t, "careful", msgs[2].Text())
}

func TestSubmit_RuntimeErrorIsMessage(t *testing.T) {
	e := newEngine(t)

	msgs := submit(t, e, `map(rows, node("test:str", json(#).v))`, rowsOpts(`{"v": "a"}`, `not json`, `{"v": "c"}`))

	assert.Equal(t, []engine.Kind{
		engine.KindInit, engine.KindNode, engine.KindErr, engine.KindFini,
	}, kinds(msgs))
	assert.Equal(t, "StormRuntimeError", msgs[2].ErrName())
	assert.Contains(t, msgs[2].Text(), "invalid document")

	count, err := e.Backend().Count(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "edits before the failure are kept")
}

func TestSubmit_Fail(t *testing.T) {
	e := newEngine(t)

	msgs := submit(t, e, `fail("bad row %s", rows[0])`, rowsOpts("x"))
	require.Len(t, msgs, 3)
	assert.Equal(t, "StormRaise", msgs[1].ErrName())
	assert.Equal(t, "bad row x", msgs[1].Text())
}

func TestSubmit_BadSyntax(t *testing.T) {
	e := newEngine(t)

	_, err := e.Submit(context.Background(), `map(rows, node(`, rowsOpts("x"))
	var re *engine.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "BadSyntax", re.Name)

	_, err = e.Submit(context.Background(), `nosuchvar + 1`, rowsOpts("x"))
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "BadSyntax", re.Name)
}

func TestSubmit_Views(t *testing.T) {
	e := newEngine(t)

	view := storage.NewGuid()
	_, err := e.Submit(context.Background(), `print("x")`, &engine.Opts{View: view})
	var re *engine.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "NoSuchView", re.Name)

	require.NoError(t, e.Backend().AddView(view))
	opts := rowsOpts("a")
	opts.View = view
	submit(t, e, `map(rows, node("test:str", #))`, opts)

	count, err := e.Backend().Count(context.Background(), view)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = e.Backend().Count(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSubmit_Canceled(t *testing.T) {
	e := newEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Submit(ctx, `map(rows, node("test:str", #))`, rowsOpts("a"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubmit_AfterClose(t *testing.T) {
	e, err := New(Config{})
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	_, err = e.Submit(context.Background(), `1`, nil)
	assert.ErrorIs(t, err, engine.ErrClosed)
}

func TestFormat(t *testing.T) {
	s, err := format("print", []any{"plain"})
	require.NoError(t, err)
	assert.Equal(t, "plain", s)

	s, err = format("print", []any{"%s=%d", "a", 1})
	require.NoError(t, err)
	assert.Equal(t, "a=1", s)

	s, err = format("print", []any{42})
	require.NoError(t, err)
	assert.Equal(t, "42", s)

	_, err = format("print", nil)
	assert.Error(t, err)
}
