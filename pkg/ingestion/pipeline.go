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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/kraklabs/graphload/internal/contract"
	"github.com/kraklabs/graphload/pkg/engine"
	"github.com/kraklabs/graphload/pkg/version"
)

// RowsVar is the script variable that carries the current batch.
const RowsVar = "rows"

// RequiredVersion is the range of engine versions this driver can talk to.
var RequiredVersion = version.MustParseRange(">=0.2.0,<3.0.0")

// ErrInvalidScript is returned when a script fails the pre-submit checks.
var ErrInvalidScript = errors.New("invalid script")

// Shell is an interactive session started after the last batch.
type Shell interface {
	Run(ctx context.Context, gw engine.Gateway, opts *engine.Opts) error
}

// Driver feeds batches of rows through a script on an engine.
//
// Batches are processed strictly in order: a batch is submitted only after
// the previous batch's stream has been fully drained and closed. Any
// gateway error stops the run; err messages from the engine do not.
type Driver struct {
	// Gateway is the engine the script runs on. Required.
	Gateway engine.Gateway

	// Out receives print and err diagnostics. Defaults to io.Discard.
	Out io.Writer

	// Logger receives structured progress events. Defaults to slog.Default().
	Logger *slog.Logger

	// BatchSize is the number of rows per submission. Defaults to DefaultBatchSize.
	BatchSize int

	// Debug echoes every message in its raw form.
	Debug bool

	// LogPath, if set, receives every message as a JSON line.
	LogPath string

	// Shell, if set, is run after the last batch.
	Shell Shell

	// OnBatch, if set, is called after each batch is drained.
	OnBatch func(b Batch, nodes int)
}

// Result summarizes a completed run.
type Result struct {
	// Nodes is the total number of node messages received.
	Nodes int

	// Batches is the number of submissions made.
	Batches int

	// Rows is the number of rows read from the input files.
	Rows int

	// Messages is the total number of messages received, of any kind.
	Messages int

	// Errors is the number of err messages received. They are not fatal.
	Errors int

	// Duration is the wall time of the run, excluding the shell.
	Duration time.Duration
}

// Run executes script once per batch of rows read from paths. opts is
// modified in place: the edit format is forced to splices and
// Vars["rows"] holds the batch being submitted.
//
// On any fatal error the remaining batches are skipped and Run returns
// nil and the error. Messages already written to the log file stay there.
func (d *Driver) Run(ctx context.Context, script string, paths []string, opts *engine.Opts) (*Result, error) {
	if d.Gateway == nil {
		return nil, errors.New("driver has no gateway")
	}
	if res := contract.ValidateScript(script); !res.OK {
		return nil, fmt.Errorf("%w: %s", ErrInvalidScript, res.Message)
	}

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := d.Out
	if out == nil {
		out = io.Discard
	}
	size := d.BatchSize
	if size == 0 {
		size = DefaultBatchSize
	}

	chunks, err := NewChunker(paths, size)
	if err != nil {
		return nil, err
	}
	defer func() { _ = chunks.Close() }()

	if opts == nil {
		opts = &engine.Opts{}
	}
	opts.EditFormat = engine.EditFormatSplices
	if opts.Vars == nil {
		opts.Vars = map[string]any{}
	}

	start := time.Now()
	res := &Result{}
	logger.Info("ingest.start", "files", len(paths), "batch_size", size, "view", opts.View)

	err = WithLogSink(d.LogPath, func(sink *LogSink) error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			b, err := chunks.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}

			nodes, err := d.runBatch(ctx, script, b, opts, sink, out, res)
			if err != nil {
				logger.Error("ingest.batch.error", "seq", b.Seq, "file", b.File, "err", err)
				return err
			}
			logger.Debug("ingest.batch.done", "seq", b.Seq, "file", b.File, "rows", len(b.Rows), "nodes", nodes)
			if d.OnBatch != nil {
				d.OnBatch(b, nodes)
			}
		}
	})
	res.Duration = time.Since(start)
	recordRun(res.Duration, err != nil)
	if err != nil {
		return nil, err
	}

	logger.Info("ingest.complete",
		"nodes", res.Nodes,
		"batches", res.Batches,
		"rows", res.Rows,
		"errors", res.Errors,
		"took", res.Duration,
	)

	if d.Shell != nil {
		delete(opts.Vars, RowsVar)
		if err := d.Shell.Run(ctx, d.Gateway, opts); err != nil {
			return nil, fmt.Errorf("shell: %w", err)
		}
	}
	return res, nil
}

func (d *Driver) runBatch(ctx context.Context, script string, b Batch, opts *engine.Opts, sink *LogSink, out io.Writer, res *Result) (int, error) {
	began := time.Now()
	opts.Vars[RowsVar] = b.Rows

	stream, err := d.Gateway.Submit(ctx, script, opts)
	if err != nil {
		return 0, fmt.Errorf("submit batch %d: %w", b.Seq, err)
	}
	res.Batches++
	res.Rows += len(b.Rows)

	nodes := 0
	err = engine.Drain(ctx, stream, func(m engine.Message) error {
		res.Messages++
		recordMessage(m)
		eff := Classify(m, d.Debug)
		if eff.Node {
			nodes++
			res.Nodes++
		}
		if eff.Err {
			res.Errors++
		}
		for _, line := range eff.Diagnostics {
			if _, err := fmt.Fprintln(out, line); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
		return sink.Write(m)
	})
	recordBatch(len(b.Rows), time.Since(began))
	if err != nil {
		return nodes, fmt.Errorf("batch %d: %w", b.Seq, err)
	}
	return nodes, nil
}
