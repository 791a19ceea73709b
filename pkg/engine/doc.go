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

// Package engine defines the contract between the ingest pipeline and the
// graph engine that executes transformation scripts.
//
// A Gateway accepts a script together with its Opts and answers with a
// Stream of Messages. Messages are tagged values: a Kind plus a raw JSON
// payload, serialized as a two element array:
//
//	["node", [["inet:fqdn", "vertex.link"], {"iden": "...", "tags": {}}]]
//	["print", {"mesg": "hello"}]
//	["err", ["BadTypeValu", {"mesg": "invalid row"}]]
//
// Two gateways exist: transient.Engine runs scripts in-process against a
// throwaway store, and remote.Client forwards them to an engine server.
// A non-nil error from Submit or Stream.Next means the submission failed
// as a whole; row level failures arrive as KindErr messages instead.
package engine
