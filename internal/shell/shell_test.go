// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gltest "github.com/kraklabs/graphload/internal/testing"
	"github.com/kraklabs/graphload/pkg/engine"
)

type scriptedReader struct {
	lines  []string
	errs   map[int]error
	pos    int
	closed bool
}

func (r *scriptedReader) Readline() (string, error) {
	i := r.pos
	r.pos++
	if err, ok := r.errs[i]; ok {
		return "", err
	}
	if i >= len(r.lines) {
		return "", io.EOF
	}
	return r.lines[i], nil
}

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

func TestShell_RunsLines(t *testing.T) {
	eng := gltest.SetupTransientEngine(t)
	rd := &scriptedReader{lines: []string{
		``,
		`node("inet:fqdn", "vertex.link")`,
		`print("hello")`,
		`exit`,
		`print("never")`,
	}}
	var out bytes.Buffer

	sh := &Shell{Out: &out, Reader: rd}
	opts := &engine.Opts{}
	require.NoError(t, sh.Run(context.Background(), eng, opts))

	got := out.String()
	assert.Contains(t, got, "inet:fqdn=vertex.link\ncomplete. 1 nodes.\n")
	assert.Contains(t, got, "hello\ncomplete. 0 nodes.\n")
	assert.NotContains(t, got, "never")
	assert.True(t, rd.closed)
}

func TestShell_RejectedScriptContinues(t *testing.T) {
	eng := gltest.SetupTransientEngine(t)
	rd := &scriptedReader{lines: []string{`map(rows,`, `print("after")`}}
	var out bytes.Buffer

	require.NoError(t, (&Shell{Out: &out, Reader: rd}).Run(context.Background(), eng, &engine.Opts{}))

	assert.Contains(t, out.String(), "ERROR: BadSyntax")
	assert.Contains(t, out.String(), "after\n")
}

func TestShell_InterruptAndQuit(t *testing.T) {
	gw := &gltest.FakeGateway{}
	rd := &scriptedReader{
		lines: []string{"", "quit"},
		errs:  map[int]error{0: readline.ErrInterrupt},
	}

	require.NoError(t, (&Shell{Out: io.Discard, Reader: rd}).Run(context.Background(), gw, nil))
	assert.Empty(t, gw.Submissions())
}

func TestShell_TransportErrorEnds(t *testing.T) {
	broken := &engine.TransportError{Op: "read stream", Err: errors.New("reset")}
	gw := &gltest.FakeGateway{StreamErr: func(int) error { return broken }}
	rd := &scriptedReader{lines: []string{"rows", "rows"}}

	err := (&Shell{Out: io.Discard, Reader: rd}).Run(context.Background(), gw, &engine.Opts{})
	require.ErrorAs(t, err, &broken)
	assert.Len(t, gw.Submissions(), 1)
}

func TestShell_OptsNotShared(t *testing.T) {
	gw := &gltest.FakeGateway{
		Reply: func(_ int, opts *engine.Opts) ([]engine.Message, error) {
			opts.SetVar("touched", true)
			return nil, nil
		},
	}
	opts := &engine.Opts{View: "0123456789abcdef0123456789abcdef"}
	rd := &scriptedReader{lines: []string{"rows"}}

	var out bytes.Buffer
	require.NoError(t, (&Shell{Out: &out, Reader: rd}).Run(context.Background(), gw, opts))

	assert.NotContains(t, opts.Vars, "touched")
	assert.Equal(t, opts.View, gw.Submissions()[0].Opts.View)
	assert.True(t, strings.HasPrefix(out.String(), `Type "exit" to quit.`))
}
