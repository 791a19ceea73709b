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

// Package main implements graphload-engine, a small server that runs a
// transient engine behind the graphload wire protocol.
//
// Usage:
//
//	graphload-engine                                  Listen on :4343
//	graphload-engine --listen 127.0.0.1:9000          Listen elsewhere
//	graphload-engine --user root:secret               Require basic auth
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/graphload/pkg/engine/server"
	"github.com/kraklabs/graphload/pkg/engine/transient"
	"github.com/kraklabs/graphload/pkg/version"
)

type options struct {
	Listen  string
	Version string
	Users   []string
	Debug   bool
}

func parseArgs(args []string, stderr io.Writer) (*options, map[string]string, version.Version, error) {
	o := &options{}
	fs := flag.NewFlagSet("graphload-engine", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.Listen, "listen", ":4343", "HTTP listen address")
	fs.StringVar(&o.Version, "report-version", transient.DefaultVersion.String(), "Engine version reported to clients")
	fs.StringArrayVar(&o.Users, "user", nil, "user:password allowed to connect (repeatable, none disables auth)")
	fs.BoolVar(&o.Debug, "debug", false, "Enable debug logs")
	if err := fs.Parse(args); err != nil {
		return nil, nil, "", err
	}

	v, err := version.Parse(o.Version)
	if err != nil {
		return nil, nil, "", fmt.Errorf("--report-version: %w", err)
	}

	users := make(map[string]string, len(o.Users))
	for _, u := range o.Users {
		name, pass, ok := strings.Cut(u, ":")
		if !ok || name == "" {
			return nil, nil, "", fmt.Errorf("--user %q: want user:password", u)
		}
		users[name] = pass
	}
	return o, users, v, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr, nil); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run serves until ctx is done. When ready is non-nil the bound address is
// sent on it once the listener is open.
func run(ctx context.Context, args []string, stderr io.Writer, ready chan<- string) error {
	o, users, v, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if o.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	eng, err := transient.New(transient.Config{Version: v, Logger: logger})
	if err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer func() { _ = eng.Close() }()

	ln, err := net.Listen("tcp", o.Listen)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	srv := &http.Server{
		Handler: server.Handler(server.Config{
			Gateway: eng,
			Version: v,
			Users:   users,
			Logger:  logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("engine.http.start",
		"addr", ln.Addr().String(),
		"version", v.String(),
		"view", eng.Backend().DefaultView(),
		"auth", len(users) > 0,
	)
	if ready != nil {
		ready <- ln.Addr().String()
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown.signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
