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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	aliases := map[string]string{"prod": "wss://root:pw@engine.example:4443/api/"}

	tests := []struct {
		raw      string
		ws       bool
		endpoint string
		wsPoint  string
		user     string
	}{
		{"http://localhost:4343", false, "http://localhost:4343/v1/version", "ws://localhost:4343/v1/storm/ws", ""},
		{"https://a:b@engine:4443/", false, "https://engine:4443/v1/version", "wss://engine:4443/v1/storm/ws", "a"},
		{"ws://127.0.0.1:4343", true, "http://127.0.0.1:4343/v1/version", "ws://127.0.0.1:4343/v1/storm/ws", ""},
		{"prod", true, "https://engine.example:4443/api/v1/version", "wss://engine.example:4443/api/v1/storm/ws", "root"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := resolve(tt.raw, aliases)
			require.NoError(t, err)
			assert.Equal(t, tt.ws, got.ws)
			assert.Equal(t, tt.endpoint, got.endpoint("/v1/version"))
			assert.Equal(t, tt.wsPoint, got.wsEndpoint("/v1/storm/ws"))
			assert.Equal(t, tt.user, got.user)
			assert.NotContains(t, got.String(), "@")
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	for _, raw := range []string{"nope", "ftp://engine", "http://", "http://[::1"} {
		_, err := resolve(raw, nil)
		assert.Error(t, err, raw)
	}
}
