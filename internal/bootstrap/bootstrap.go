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

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kraklabs/graphload/internal/config"
	"github.com/kraklabs/graphload/pkg/engine"
	"github.com/kraklabs/graphload/pkg/engine/remote"
	"github.com/kraklabs/graphload/pkg/engine/transient"
	"github.com/kraklabs/graphload/pkg/storage"
	"github.com/kraklabs/graphload/pkg/version"
)

// ErrNoEngine is returned when neither a transient engine nor a URL is
// requested, or both are.
var ErrNoEngine = errors.New("exactly one of --test or --url is required")

// Config selects and configures the engine for a run.
type Config struct {
	// Test runs the scripts on a fresh in-process engine.
	Test bool

	// URL is a remote engine URL or alias name.
	URL string

	// AliasFile overrides the alias file location.
	AliasFile string

	// Required is the accepted remote engine version range.
	Required version.Range

	// Timeout bounds the remote version handshake. Zero means no limit.
	Timeout time.Duration
}

// OpenGateway returns the engine selected by cfg. A transient engine is
// created fresh each time and never version checked. A remote engine is
// checked against cfg.Required before it is returned.
//
// The caller must Close the gateway.
func OpenGateway(ctx context.Context, cfg Config, logger *slog.Logger) (engine.Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Test == (cfg.URL != "") {
		return nil, ErrNoEngine
	}

	if cfg.Test {
		eng, err := transient.New(transient.Config{
			Backend: storage.NewMemBackend(storage.MemConfig{}),
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create transient engine: %w", err)
		}
		logger.Info("bootstrap.engine.transient",
			"version", eng.Version(),
			"view", eng.Backend().DefaultView(),
		)
		return eng, nil
	}

	var aliases config.Aliases
	if !strings.Contains(cfg.URL, "://") {
		var err error
		if aliases, err = config.LoadAliases(cfg.AliasFile); err != nil {
			return nil, err
		}
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	client, err := remote.Open(ctx, remote.Config{
		URL:      cfg.URL,
		Aliases:  aliases,
		Required: cfg.Required,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
