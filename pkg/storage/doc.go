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

// Package storage provides the graph store behind the transient engine.
//
// A Backend holds nodes partitioned by view. A node is identified by its
// form and primary value; its iden is the hex encoded BLAKE3 digest of
// both, so writing the same (form, valu) twice updates one node.
//
// # Quick Start
//
//	backend := storage.NewMemBackend(storage.MemConfig{})
//	defer backend.Close()
//
//	node, created, err := backend.PutNode(ctx, backend.DefaultView(),
//	    "inet:fqdn", "vertex.link", map[string]any{"zone": "link"})
//
// # Thread Safety
//
// MemBackend is safe for concurrent use. Reads take a read lock and writes
// an exclusive lock, so one engine server can serve several clients.
package storage
