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
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/graphload/pkg/version"
)

func TestNewErrorBody(t *testing.T) {
	body := NewErrorBody(&RemoteError{Name: "NoSuchView", Mesg: "No view with iden: abc"}, "Ignored")
	assert.Equal(t, ErrorInfo{Name: "NoSuchView", Mesg: "No view with iden: abc"}, body.Error)

	body = NewErrorBody(fmt.Errorf("submit: %w", &RemoteError{Name: "BadSyntax", Mesg: "unexpected EOF"}), "EngineError")
	assert.Equal(t, ErrorInfo{Name: "BadSyntax", Mesg: "unexpected EOF"}, body.Error)

	body = NewErrorBody(errors.New("disk full"), "EngineError")
	assert.Equal(t, "EngineError", body.Error.Name)
	assert.Equal(t, "disk full", body.Err().Mesg)
}

func TestStormRequest_JSON(t *testing.T) {
	opts := &Opts{View: "v", EditFormat: EditFormatSplices}
	opts.SetVar("rows", []string{"a"})

	b, err := json.Marshal(StormRequest{Query: "rows", Opts: opts})
	require.NoError(t, err)

	var got StormRequest
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "rows", got.Query)
	assert.Equal(t, "v", got.Opts.View)
	assert.Equal(t, []any{"a"}, got.Opts.Vars["rows"])
}

func TestVersionInfo_Tuple(t *testing.T) {
	var info VersionInfo
	require.NoError(t, json.Unmarshal([]byte(`{"version":[2,150,0]}`), &info))
	assert.Equal(t, version.MustParse("2.150.0"), info.Version)
}
