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

// Package bootstrap selects the engine a graphload run talks to.
//
// OpenGateway returns either a fresh transient engine (--test) or a remote
// client (--url), never both:
//
//	gw, err := bootstrap.OpenGateway(ctx, bootstrap.Config{
//	    URL:      "prod",
//	    Required: ingestion.RequiredVersion,
//	}, logger)
//	if err != nil {
//	    return err
//	}
//	defer gw.Close()
//
// # Remote Engines
//
// A URL without a scheme is an alias looked up in the alias file
// (--aliases, $GRAPHLOAD_ALIASES or ~/.graphload/aliases.yaml). The
// remote version is checked against Config.Required before OpenGateway
// returns; a mismatch surfaces as *version.BadVersionError and nothing is
// submitted.
//
// # Transient Engines
//
// A transient engine lives in memory for the duration of the process. It
// starts empty with a single default view and is discarded on Close.
package bootstrap
