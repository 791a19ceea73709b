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

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kraklabs/graphload/internal/output"
	"github.com/kraklabs/graphload/pkg/engine"
)

// LogSink appends every received message to a file as one JSON line.
// The zero value and a sink opened with an empty path are no-ops.
type LogSink struct {
	mu     sync.Mutex
	f      *os.File
	path   string
	lines  int
	closed bool
}

// OpenLogSink opens path for appending, creating it and its parent
// directories when missing. Existing content is never truncated.
func OpenLogSink(path string) (*LogSink, error) {
	if path == "" {
		return &LogSink{}, nil
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &LogSink{f: f, path: path}, nil
}

// Write appends m. Writes after Close fail.
func (s *LogSink) Write(m engine.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("log sink is closed")
	}
	if s.f == nil {
		return nil
	}
	if err := output.JSONCompactTo(s.f, m); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	s.lines++
	return nil
}

// Lines reports how many messages were written.
func (s *LogSink) Lines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines
}

// Close flushes and closes the file. It is safe to call more than once.
func (s *LogSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.f == nil {
		return nil
	}
	f := s.f
	s.f = nil
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	return nil
}

// WithLogSink opens a sink for path, runs fn with it and closes it on every
// exit path, including a panic in fn. A close error is joined into the
// returned error.
func WithLogSink(path string, fn func(*LogSink) error) (err error) {
	sink, err := OpenLogSink(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return fn(sink)
}
