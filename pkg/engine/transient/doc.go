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

// Package transient provides a disposable in-process graph engine.
//
// Scripts are expr programs (github.com/expr-lang/expr) evaluated once per
// submission. Every submission var is visible by name, so the ingest batch
// is available as rows. The engine adds these functions:
//
//	json(s)                 decode a JSON document
//	node(form, valu[, props]) create or update a node, yields a node message
//	tag(form, valu, tag)    tag a node, yields a node message
//	print(fmt, args...)     yield a print message
//	warn(fmt, args...)      yield a warn message
//	fail(fmt, args...)      stop the script with an err message
//
// A typical ingest script maps over the batch:
//
//	map(rows, node("inet:fqdn", json(#).fqdn, {"seen": json(#).seen}))
//
// A script that does not compile fails the submission with a BadSyntax
// RemoteError. Failures while running are reported in the stream as a
// single err message followed by fini, leaving earlier edits in place.
package transient
