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
	"errors"

	"github.com/kraklabs/graphload/pkg/version"
)

// HTTP routes served by an engine server.
const (
	PathVersion   = "/v1/version"
	PathStorm     = "/v1/storm"
	PathStormWS   = "/v1/storm/ws"
	PathMetrics   = "/metrics"
	ContentNDJSON = "application/x-ndjson"
)

// StormRequest is the body of a script submission.
type StormRequest struct {
	Query string `json:"query"`
	Opts  *Opts  `json:"opts,omitempty"`
}

// VersionInfo is the body returned by PathVersion.
type VersionInfo struct {
	Version version.Version `json:"version"`
}

// ErrorBody is the body of a failed request.
type ErrorBody struct {
	Error ErrorInfo `json:"error"`
}

// ErrorInfo describes a failure in the engine's own terms.
type ErrorInfo struct {
	Name string `json:"name"`
	Mesg string `json:"mesg,omitempty"`
}

// NewErrorBody builds the wire form of err. A *RemoteError anywhere in the
// chain keeps its name; anything else is reported as name.
func NewErrorBody(err error, name string) ErrorBody {
	var re *RemoteError
	if errors.As(err, &re) {
		return ErrorBody{Error: ErrorInfo{Name: re.Name, Mesg: re.Mesg}}
	}
	return ErrorBody{Error: ErrorInfo{Name: name, Mesg: err.Error()}}
}

// Err converts the body back into a *RemoteError.
func (b ErrorBody) Err() *RemoteError {
	return &RemoteError{Name: b.Error.Name, Mesg: b.Error.Mesg}
}
