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

// Package server exposes an engine.Gateway over HTTP.
//
// Routes:
//
//	GET  /v1/version   {"version": "2.150.0"}
//	POST /v1/storm     StormRequest in, newline-delimited messages out
//	GET  /v1/storm/ws  one StormRequest frame in, one frame per message out
//	GET  /metrics      Prometheus metrics
//
// A submission the engine rejects is answered with an ErrorBody: status
// 400 over HTTP, a single object frame over WebSocket. A stream that fails
// after the first message aborts the connection instead.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"nhooyr.io/websocket"

	"github.com/kraklabs/graphload/internal/output"
	"github.com/kraklabs/graphload/pkg/engine"
	"github.com/kraklabs/graphload/pkg/version"
)

// Config configures a Handler.
type Config struct {
	// Gateway runs the submitted scripts. Required.
	Gateway engine.Gateway

	// Version is reported by /v1/version.
	Version version.Version

	// Users, if non-empty, enables basic auth with these user/password pairs.
	Users map[string]string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

type server struct {
	gw      engine.Gateway
	version version.Version
	users   map[string]string
	logger  *slog.Logger
}

// Handler returns the HTTP handler for config.
func Handler(config Config) http.Handler {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	svr := &server{
		gw:      config.Gateway,
		version: config.Version,
		users:   config.Users,
		logger:  logger,
	}

	router := mux.NewRouter()
	router.HandleFunc(engine.PathVersion, svr.auth(svr.getVersion)).Methods("GET").Name("GetVersion")
	router.HandleFunc(engine.PathStorm, svr.auth(svr.postStorm)).Methods("POST").Name("PostStorm")
	router.HandleFunc(engine.PathStormWS, svr.auth(svr.getStormWS)).Methods("GET").Name("GetStormWS")
	router.Handle(engine.PathMetrics, promhttp.Handler()).Methods("GET").Name("GetMetrics")
	return router
}

func (s *server) auth(next http.HandlerFunc) http.HandlerFunc {
	if len(s.users) == 0 {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		want, known := s.users[user]
		if !ok || !known || subtle.ConstantTimeCompare([]byte(pass), []byte(want)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="graphload"`)
			writeError(w, http.StatusUnauthorized, &engine.RemoteError{Name: "AuthDeny", Mesg: "invalid credentials"})
			return
		}
		next(w, r)
	}
}

// GET /v1/version
func (s *server) getVersion(w http.ResponseWriter, r *http.Request) {
	srvMetrics.request("version")
	w.Header().Set("Content-Type", "application/json")
	_ = output.JSONCompactTo(w, engine.VersionInfo{Version: s.version})
}

// POST /v1/storm
func (s *server) postStorm(w http.ResponseWriter, r *http.Request) {
	srvMetrics.request("storm")
	defer r.Body.Close()

	var req engine.StormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, &engine.RemoteError{Name: "BadRequest", Mesg: err.Error()})
		return
	}

	ctx := r.Context()
	stream, err := s.gw.Submit(ctx, req.Query, req.Opts)
	if err != nil {
		s.logger.Info("engine.server.reject", "route", "storm", "err", err)
		writeError(w, statusFor(err), err)
		return
	}

	w.Header().Set("Content-Type", engine.ContentNDJSON)
	w.WriteHeader(http.StatusOK)

	lw := output.NewLineWriter(w)
	err = engine.Drain(ctx, stream, func(m engine.Message) error {
		srvMetrics.message(m.Kind)
		return lw.Write(m)
	})
	if err != nil {
		s.logger.Warn("engine.server.stream.abort", "route", "storm", "messages", lw.Count(), "err", err)
		// The status line is already out; abort so the client sees a
		// truncated body rather than a clean end of stream.
		panic(http.ErrAbortHandler)
	}
	s.logger.Debug("engine.server.stream.done", "route", "storm", "messages", lw.Count())
}

// GET /v1/storm/ws
func (s *server) getStormWS(w http.ResponseWriter, r *http.Request) {
	srvMetrics.request("storm_ws")

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("engine.server.ws.accept", "err", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	ctx := r.Context()
	_, data, err := conn.Read(ctx)
	if err != nil {
		s.logger.Warn("engine.server.ws.read", "err", err)
		return
	}

	var req engine.StormRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.rejectWS(ctx, conn, &engine.RemoteError{Name: "BadRequest", Mesg: err.Error()})
		return
	}

	stream, err := s.gw.Submit(ctx, req.Query, req.Opts)
	if err != nil {
		s.logger.Info("engine.server.reject", "route", "storm_ws", "err", err)
		s.rejectWS(ctx, conn, err)
		return
	}

	count := 0
	err = engine.Drain(ctx, stream, func(m engine.Message) error {
		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		srvMetrics.message(m.Kind)
		count++
		return conn.Write(ctx, websocket.MessageText, b)
	})
	if err != nil {
		s.logger.Warn("engine.server.stream.abort", "route", "storm_ws", "messages", count, "err", err)
		_ = conn.Close(websocket.StatusInternalError, truncate(err.Error()))
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func (s *server) rejectWS(ctx context.Context, conn *websocket.Conn, err error) {
	b, merr := json.Marshal(engine.NewErrorBody(err, "EngineError"))
	if merr == nil {
		_ = conn.Write(ctx, websocket.MessageText, b)
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func statusFor(err error) int {
	var re *engine.RemoteError
	switch {
	case errors.As(err, &re):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = output.JSONCompactTo(w, engine.NewErrorBody(err, "EngineError"))
}

// Close reasons are limited to 123 bytes by the protocol.
func truncate(s string) string {
	if len(s) > 120 {
		n := 120
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		return s[:n]
	}
	return s
}

type metricsServer struct {
	once     sync.Once
	requests *prometheus.CounterVec
	messages *prometheus.CounterVec
}

var srvMetrics metricsServer

func (m *metricsServer) init() {
	m.once.Do(func() {
		m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "graphload_engine_requests_total", Help: "Requests served by route"}, []string{"route"})
		m.messages = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "graphload_engine_messages_total", Help: "Messages streamed by kind"}, []string{"kind"})
		prometheus.MustRegister(m.requests, m.messages)
	})
}

func (m *metricsServer) request(route string) {
	m.init()
	m.requests.WithLabelValues(route).Inc()
}

func (m *metricsServer) message(kind engine.Kind) {
	m.init()
	m.messages.WithLabelValues(kind.Label()).Inc()
}
