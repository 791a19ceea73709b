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

// Package ingestion feeds line-oriented input files through a script on a
// graph engine, one batch of rows at a time.
//
// # Pipeline Overview
//
// A run processes its inputs in four steps:
//
//  1. Chunking: input files are read in order and split into batches of
//     at most BatchSize lines. A batch never spans two files.
//  2. Submission: the script is submitted with the batch bound to the
//     "rows" variable and the edit format forced to splices.
//  3. Classification: every message in the response stream is counted,
//     printed or ignored according to its kind.
//  4. Logging: every message is appended, as one JSON line, to the
//     message log when one is configured.
//
// Batches are strictly sequential. The engine's err messages are counted
// and printed but never stop the run; a gateway failure does.
//
// # Quick Start
//
//	drv := &ingestion.Driver{
//	    Gateway: gw,
//	    Out:     os.Stdout,
//	    LogPath: "run.jsonl",
//	}
//
//	result, err := drv.Run(ctx, script, []string{"rows.jsonl"}, &engine.Opts{})
//	if err != nil {
//	    return err
//	}
//
//	fmt.Printf("%d nodes in %d batches\n", result.Nodes, result.Batches)
//
// # Metrics
//
// The driver exports graphload_ing_* Prometheus metrics on the default
// registry: batches, rows, nodes, messages by kind and batch latency.
package ingestion
