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
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnknownAlias is returned when a URL without a scheme names no alias.
var ErrUnknownAlias = errors.New("unknown engine alias")

// target is a parsed engine location.
type target struct {
	base     *url.URL // http or https, no userinfo, no trailing slash
	ws       bool
	user     string
	password string
	hasAuth  bool
}

// resolve turns raw into a target. A value without "://" is looked up in
// aliases first.
func resolve(raw string, aliases map[string]string) (*target, error) {
	if !strings.Contains(raw, "://") {
		u, ok := aliases[raw]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAlias, raw)
		}
		raw = u
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse engine url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("engine url %q has no host", raw)
	}

	t := &target{}
	switch u.Scheme {
	case "http", "https":
	case "ws":
		t.ws = true
		u.Scheme = "http"
	case "wss":
		t.ws = true
		u.Scheme = "https"
	default:
		return nil, fmt.Errorf("unsupported engine url scheme %q", u.Scheme)
	}

	if u.User != nil {
		t.user = u.User.Username()
		t.password, _ = u.User.Password()
		t.hasAuth = true
		u.User = nil
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery, u.Fragment = "", ""
	t.base = u
	return t, nil
}

// endpoint returns the base URL joined with path.
func (t *target) endpoint(path string) string {
	u := *t.base
	u.Path += path
	return u.String()
}

// wsEndpoint returns the WebSocket URL for path.
func (t *target) wsEndpoint(path string) string {
	u := *t.base
	u.Path += path
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	return u.String()
}

// String renders the target without credentials, for logs.
func (t *target) String() string {
	if t.ws {
		return t.wsEndpoint("")
	}
	return t.base.String()
}
