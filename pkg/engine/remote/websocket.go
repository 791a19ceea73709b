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

package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/kraklabs/graphload/pkg/engine"
)

// maxFrameBytes bounds a single message frame.
const maxFrameBytes = 32 << 20

func (c *Client) submitWS(ctx context.Context, sr engine.StormRequest) (engine.Stream, error) {
	op := "GET " + engine.PathStormWS

	header := http.Header{}
	if c.target.hasAuth {
		token := base64.StdEncoding.EncodeToString([]byte(c.target.user + ":" + c.target.password))
		header.Set("Authorization", "Basic "+token)
	}

	conn, resp, err := websocket.Dial(ctx, c.target.wsEndpoint(engine.PathStormWS), &websocket.DialOptions{
		HTTPClient: c.http,
		HTTPHeader: header,
	})
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, responseError(op, resp)
		}
		return nil, &engine.TransportError{Op: op, Err: err}
	}
	conn.SetReadLimit(maxFrameBytes)

	if err := wsjson.Write(ctx, conn, sr); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "")
		return nil, &engine.TransportError{Op: "write request", Err: err}
	}

	s := &frameStream{conn: conn}

	// The first frame is either the first message or the engine's refusal.
	first, err := s.read(ctx)
	if errors.Is(err, io.EOF) {
		s.done = true
		return s, nil
	}
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	if bytes.HasPrefix(first, []byte("{")) {
		_ = s.Close()
		var body engine.ErrorBody
		if err := json.Unmarshal(first, &body); err != nil || body.Error.Name == "" {
			return nil, &engine.TransportError{Op: "read stream", Err: errors.New("malformed error frame")}
		}
		return nil, body.Err()
	}
	s.pending = first
	return s, nil
}

// frameStream reads one message per WebSocket frame. A normal closure
// ends the stream; any other closure is a transport failure.
type frameStream struct {
	conn    *websocket.Conn
	pending []byte
	done    bool
	closed  bool
}

func (s *frameStream) read(ctx context.Context) ([]byte, error) {
	_, data, err := s.conn.Read(ctx)
	if err == nil {
		return data, nil
	}
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		return nil, io.EOF
	}
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	return nil, &engine.TransportError{Op: "read stream", Err: err}
}

func (s *frameStream) Next(ctx context.Context) (engine.Message, error) {
	if err := ctx.Err(); err != nil {
		return engine.Message{}, err
	}
	if s.done || s.closed {
		return engine.Message{}, io.EOF
	}

	data := s.pending
	s.pending = nil
	if data == nil {
		var err error
		if data, err = s.read(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				s.done = true
			}
			return engine.Message{}, err
		}
	}

	var m engine.Message
	if err := json.Unmarshal(data, &m); err != nil {
		return engine.Message{}, &engine.TransportError{Op: "read stream", Err: err}
	}
	return m, nil
}

func (s *frameStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.done {
		// The server already closed normally; this only releases the conn.
		_ = s.conn.Close(websocket.StatusNormalClosure, "")
		return nil
	}
	_ = s.conn.Close(websocket.StatusGoingAway, "stream closed early")
	return nil
}
