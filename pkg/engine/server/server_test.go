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

package server

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gltest "github.com/kraklabs/graphload/internal/testing"
	"github.com/kraklabs/graphload/pkg/engine"
	"github.com/kraklabs/graphload/pkg/version"
)

func newServer(t *testing.T, gw engine.Gateway, users map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(Handler(Config{Gateway: gw, Version: version.MustParse("2.150.0"), Users: users}))
	t.Cleanup(srv.Close)
	return srv
}

func postStorm(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+engine.PathStorm, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestGetVersion(t *testing.T) {
	srv := newServer(t, &gltest.FakeGateway{}, nil)

	resp, err := http.Get(srv.URL + engine.PathVersion)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info engine.VersionInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, version.MustParse("2.150.0"), info.Version)
}

func TestPostStorm_StreamsLines(t *testing.T) {
	gw := &gltest.FakeGateway{
		Reply: func(_ int, opts *engine.Opts) ([]engine.Message, error) {
			rows := opts.Vars["rows"].([]any)
			msgs := []engine.Message{engine.PrintMessage("start")}
			for _, r := range rows {
				msgs = append(msgs, gltest.NodeMessage(t, "test:str", r))
			}
			return msgs, nil
		},
	}
	srv := newServer(t, gw, nil)

	resp := postStorm(t, srv, `{"query":"rows","opts":{"vars":{"rows":["a","b"]},"editformat":"splices"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, engine.ContentNDJSON, resp.Header.Get("Content-Type"))

	var lines []string
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, []string{
		`["print",{"mesg":"start"}]`,
		`["node",[["test:str","a"],{}]]`,
		`["node",[["test:str","b"],{}]]`,
	}, lines)

	subs := gw.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "rows", subs[0].Script)
	assert.Equal(t, engine.EditFormatSplices, subs[0].Opts.EditFormat)
}

func TestPostStorm_Errors(t *testing.T) {
	rejecting := &gltest.FakeGateway{
		Reply: func(int, *engine.Opts) ([]engine.Message, error) {
			return nil, &engine.RemoteError{Name: "NoSuchView", Mesg: "No view with iden: abc"}
		},
	}
	closed := &gltest.FakeGateway{}
	require.NoError(t, closed.Close())

	tests := []struct {
		name   string
		gw     engine.Gateway
		body   string
		status int
		errNm  string
	}{
		{"bad json", &gltest.FakeGateway{}, `{"query":`, http.StatusBadRequest, "BadRequest"},
		{"rejected", rejecting, `{"query":"rows"}`, http.StatusBadRequest, "NoSuchView"},
		{"closed", closed, `{"query":"rows"}`, http.StatusServiceUnavailable, "EngineError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postStorm(t, newServer(t, tt.gw, nil), tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body engine.ErrorBody
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.errNm, body.Error.Name)
		})
	}
}

func TestAuth(t *testing.T) {
	srv := newServer(t, &gltest.FakeGateway{}, map[string]string{"root": "secret"})

	tests := []struct {
		name   string
		user   string
		pass   string
		status int
	}{
		{"valid", "root", "secret", http.StatusOK},
		{"wrong password", "root", "nope", http.StatusUnauthorized},
		{"unknown user", "visi", "secret", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, srv.URL+engine.PathVersion, nil)
			require.NoError(t, err)
			req.SetBasicAuth(tt.user, tt.pass)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	resp, err := http.Get(srv.URL + engine.PathVersion)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	srv := newServer(t, &gltest.FakeGateway{}, nil)
	_ = postStorm(t, srv, `{"query":"rows"}`)

	resp, err := http.Get(srv.URL + engine.PathMetrics)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `graphload_engine_requests_total{route="storm"}`)
}

func TestMetrics_UnknownKindsShareOneLabel(t *testing.T) {
	gw := &gltest.FakeGateway{
		Reply: func(int, *engine.Opts) ([]engine.Message, error) {
			return []engine.Message{{Kind: "storage:nexus", Payload: json.RawMessage(`{}`)}}, nil
		},
	}
	srv := newServer(t, gw, nil)
	resp := postStorm(t, srv, `{"query":"rows"}`)
	_, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	mresp, err := http.Get(srv.URL + engine.PathMetrics)
	require.NoError(t, err)
	defer mresp.Body.Close()

	body, err := io.ReadAll(mresp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `graphload_engine_messages_total{kind="other"}`)
	assert.NotContains(t, string(body), `kind="storage:nexus"`)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))

	ascii := strings.Repeat("a", 200)
	assert.Len(t, truncate(ascii), 120)

	// A two-byte rune straddles byte 120.
	mixed := strings.Repeat("a", 119) + "é" + "tail"
	got := truncate(mixed)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 119), got)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newServer(t, &gltest.FakeGateway{}, nil)

	resp, err := http.Get(srv.URL + engine.PathStorm)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
