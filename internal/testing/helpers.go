// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/kraklabs/graphload/pkg/engine"
	"github.com/kraklabs/graphload/pkg/engine/transient"
	"github.com/kraklabs/graphload/pkg/storage"
)

// SetupTestBackend creates an in-memory backend that is closed when the
// test finishes.
func SetupTestBackend(t *testing.T) *storage.MemBackend {
	t.Helper()

	backend := storage.NewMemBackend(storage.MemConfig{})
	t.Cleanup(func() {
		_ = backend.Close()
	})
	return backend
}

// SetupTransientEngine creates a fresh transient engine for the test.
//
// Example:
//
//	eng := gltest.SetupTransientEngine(t)
//	drv := &ingestion.Driver{Gateway: eng}
func SetupTransientEngine(t *testing.T) *transient.Engine {
	t.Helper()

	eng, err := transient.New(transient.Config{Backend: SetupTestBackend(t)})
	if err != nil {
		t.Fatalf("failed to create transient engine: %v", err)
	}
	t.Cleanup(func() {
		_ = eng.Close()
	})
	return eng
}

// WriteRowFile writes rows, one per line, to a new file in the test's temp
// directory and returns its path.
func WriteRowFile(t *testing.T, name string, rows ...string) string {
	t.Helper()

	var sb strings.Builder
	for _, r := range rows {
		sb.WriteString(r)
		sb.WriteByte('\n')
	}
	return WriteFile(t, name, sb.String())
}

// WriteNumberedRows writes n rows named like "row-0" ... to a new file.
func WriteNumberedRows(t *testing.T, name string, n int) string {
	t.Helper()

	rows := make([]string, n)
	for i := range rows {
		rows[i] = fmt.Sprintf("row-%d", i)
	}
	return WriteRowFile(t, name, rows...)
}

// WriteFile writes content verbatim to a new file in the test's temp
// directory and returns its path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// ReadLines returns the lines of the file at path. A missing file yields
// no lines.
func ReadLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Submission is one call recorded by a FakeGateway.
type Submission struct {
	Script string
	Opts   *engine.Opts
}

// FakeGateway replays canned responses and records every submission.
//
// Reply is called once per Submit with the 0-based submission number and
// returns the messages to stream back. A non-nil error from Reply is
// returned by Submit. StreamErr, if set, is returned by the stream after
// its messages instead of io.EOF.
type FakeGateway struct {
	Reply     func(n int, opts *engine.Opts) ([]engine.Message, error)
	StreamErr func(n int) error

	mu     sync.Mutex
	subs   []Submission
	open   int
	closed bool
}

// Submit implements engine.Gateway.
func (g *FakeGateway) Submit(ctx context.Context, script string, opts *engine.Opts) (engine.Stream, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, engine.ErrClosed
	}
	if g.open > 0 {
		return nil, errors.New("submit while a stream is still open")
	}

	n := len(g.subs)
	g.subs = append(g.subs, Submission{Script: script, Opts: opts.Clone()})

	var msgs []engine.Message
	if g.Reply != nil {
		var err error
		if msgs, err = g.Reply(n, opts); err != nil {
			return nil, err
		}
	}
	var tail error
	if g.StreamErr != nil {
		tail = g.StreamErr(n)
	}
	g.open++
	return &fakeStream{g: g, msgs: msgs, tail: tail}, nil
}

// Close implements engine.Gateway.
func (g *FakeGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

// Submissions returns a copy of the recorded submissions.
func (g *FakeGateway) Submissions() []Submission {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Submission(nil), g.subs...)
}

// Open reports how many streams have not been closed.
func (g *FakeGateway) Open() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// Closed reports whether Close was called.
func (g *FakeGateway) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

type fakeStream struct {
	g      *FakeGateway
	msgs   []engine.Message
	tail   error
	pos    int
	closed bool
}

func (s *fakeStream) Next(ctx context.Context) (engine.Message, error) {
	if err := ctx.Err(); err != nil {
		return engine.Message{}, err
	}
	if s.pos < len(s.msgs) {
		m := s.msgs[s.pos]
		s.pos++
		return m, nil
	}
	if s.tail != nil {
		return engine.Message{}, s.tail
	}
	return engine.Message{}, io.EOF
}

func (s *fakeStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.g.mu.Lock()
	s.g.open--
	s.g.mu.Unlock()
	return nil
}

// NodeMessage builds a node message for form=valu.
func NodeMessage(t *testing.T, form string, valu any) engine.Message {
	t.Helper()

	m, err := engine.NewMessage(engine.KindNode, []any{[]any{form, valu}, map[string]any{}})
	if err != nil {
		t.Fatalf("failed to build node message: %v", err)
	}
	return m
}
