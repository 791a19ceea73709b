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
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/expr-lang/expr"

	"github.com/kraklabs/graphload/pkg/engine"
	"github.com/kraklabs/graphload/pkg/storage"
	"github.com/kraklabs/graphload/pkg/version"
)

// DefaultVersion is the version a transient engine reports.
var DefaultVersion = version.MustParse("2.150.0")

var _ engine.Gateway = (*Engine)(nil)

// Engine is an in-process engine over a storage backend.
type Engine struct {
	backend storage.Backend
	version version.Version
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Config configures a transient engine.
type Config struct {
	// Backend stores the graph. Defaults to a new storage.MemBackend.
	Backend storage.Backend

	// DefaultView is the iden of the default view of a new backend.
	// Ignored when Backend is set.
	DefaultView string

	// Version is reported to clients. Defaults to DefaultVersion.
	Version version.Version

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// New provisions an engine. A fresh MemBackend is created unless one is
// supplied.
func New(config Config) (*Engine, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Version == "" {
		config.Version = DefaultVersion
	}
	if config.Backend == nil {
		config.Backend = storage.NewMemBackend(storage.MemConfig{DefaultView: config.DefaultView})
	}

	config.Logger.Debug("engine.transient.start",
		"version", config.Version.String(),
		"view", config.Backend.DefaultView(),
	)

	return &Engine{
		backend: config.Backend,
		version: config.Version,
		logger:  config.Logger,
	}, nil
}

// Version returns the engine version.
func (e *Engine) Version() version.Version { return e.version }

// Backend returns the store the engine writes to.
func (e *Engine) Backend() storage.Backend { return e.backend }

// Submit compiles and runs script. The returned stream is already complete.
func (e *Engine) Submit(ctx context.Context, script string, opts *engine.Opts) (engine.Stream, error) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return nil, engine.ErrClosed
	}
	if opts == nil {
		opts = &engine.Opts{}
	}

	view := opts.View
	if view == "" {
		view = e.backend.DefaultView()
	}
	if !e.backend.HasView(view) {
		return nil, &engine.RemoteError{Name: "NoSuchView", Mesg: fmt.Sprintf("No view with iden: %s", view)}
	}

	r := &run{
		ctx:     ctx,
		backend: e.backend,
		view:    view,
		edits:   opts.EditFormat != engine.EditFormatNone,
	}

	env := make(map[string]any, len(opts.Vars))
	maps.Copy(env, opts.Vars)

	program, err := expr.Compile(script, append(r.functions(), expr.Env(env))...)
	if err != nil {
		return nil, &engine.RemoteError{Name: "BadSyntax", Mesg: err.Error()}
	}

	tick := time.Now()
	r.emit(engine.KindInit, map[string]any{"tick": tick.UnixMilli(), "text": script})

	if _, err := expr.Run(program, env); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		name, mesg := "StormRuntimeError", err.Error()
		if r.raised != nil {
			name, mesg = "StormRaise", r.raised.Error()
		}
		r.msgs = append(r.msgs, engine.ErrMessage(name, mesg))
	}

	tock := time.Now()
	r.emit(engine.KindFini, map[string]any{
		"tock":  tock.UnixMilli(),
		"took":  tock.Sub(tick).Milliseconds(),
		"count": r.count,
	})

	e.logger.Debug("engine.transient.submit",
		"view", view,
		"messages", len(r.msgs),
		"nodes", r.count,
	)

	return engine.NewSliceStream(r.msgs), nil
}

// Close releases the backend.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	return e.backend.Close()
}
