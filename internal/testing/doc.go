// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package testing provides test helpers shared by the graphload packages.
//
// # Quick Start
//
// Run a script over a row file on a fresh transient engine:
//
//	func TestMyFeature(t *testing.T) {
//	    eng := gltest.SetupTransientEngine(t)
//	    rows := gltest.WriteRowFile(t, "rows.jsonl", `{"fqdn":"vertex.link"}`)
//
//	    drv := &ingestion.Driver{Gateway: eng}
//	    res, err := drv.Run(ctx, script, []string{rows}, nil)
//	    require.NoError(t, err)
//	}
//
// # Fake Gateway
//
// FakeGateway replays canned message streams and records every
// submission, so tests can check what was sent and in which order
// without an engine:
//
//	gw := &gltest.FakeGateway{
//	    Reply: func(n int, _ *engine.Opts) ([]engine.Message, error) {
//	        return []engine.Message{engine.PrintMessage("hi")}, nil
//	    },
//	}
//
// Submit fails while a previous stream is still open, which makes any
// overlap between batches a test failure.
package testing
