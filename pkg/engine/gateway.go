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
	"context"
	"errors"
	"fmt"
	"io"
)

// Gateway is a graph engine that executes scripts.
type Gateway interface {
	// Submit runs script with opts and returns its response stream. The
	// caller must drain or Close the stream before submitting again.
	Submit(ctx context.Context, script string, opts *Opts) (Stream, error)

	// Close releases the engine. It is safe to call more than once.
	Close() error
}

// Stream is the ordered response of one submission.
type Stream interface {
	// Next returns the next message, or io.EOF once the stream is complete.
	Next(ctx context.Context) (Message, error)

	// Close releases the stream; unread messages are discarded.
	Close() error
}

// RemoteError is a failure the engine itself declared for a whole
// submission, such as a script that does not compile or an unknown view.
type RemoteError struct {
	Name string
	Mesg string
}

func (e *RemoteError) Error() string {
	if e.Mesg == "" {
		return e.Name
	}
	return e.Name + ": " + e.Mesg
}

// TransportError wraps a failure to reach the engine or to keep reading
// from it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

// ErrClosed is returned by gateways used after Close.
var ErrClosed = errors.New("engine is closed")

// Drain reads s to the end, calling fn for each message, and closes s.
// It stops at the first error from s or fn.
func Drain(ctx context.Context, s Stream, fn func(Message) error) (err error) {
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for {
		m, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
	}
}

// SliceStream is a Stream over messages already in memory.
type SliceStream struct {
	msgs []Message
	pos  int
}

// NewSliceStream returns a stream yielding msgs in order.
func NewSliceStream(msgs []Message) *SliceStream {
	return &SliceStream{msgs: msgs}
}

// Next implements Stream.
func (s *SliceStream) Next(ctx context.Context) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}
	if s.pos >= len(s.msgs) {
		return Message{}, io.EOF
	}
	m := s.msgs[s.pos]
	s.pos++
	return m, nil
}

// Close implements Stream.
func (s *SliceStream) Close() error {
	s.pos = len(s.msgs)
	return nil
}
