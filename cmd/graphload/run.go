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

package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/graphload/internal/bootstrap"
	"github.com/kraklabs/graphload/internal/config"
	"github.com/kraklabs/graphload/internal/contract"
	"github.com/kraklabs/graphload/internal/errors"
	"github.com/kraklabs/graphload/internal/shell"
	"github.com/kraklabs/graphload/internal/ui"
	"github.com/kraklabs/graphload/pkg/engine"
	"github.com/kraklabs/graphload/pkg/ingestion"
	"github.com/kraklabs/graphload/pkg/version"
)

// options holds the parsed command line.
type options struct {
	URL         string
	Test        bool
	View        string
	OptsFile    string
	LogFile     string
	CLI         bool
	Debug       bool
	BatchSize   int
	Timeout     time.Duration
	MetricsAddr string
	Aliases     string
	NoColor     bool
	Version     bool

	ScriptFile string
	RowFiles   []string
}

const usageText = `graphload - feed line-oriented files into a graph engine

Every row file is read line by line and split into batches. The script
runs once per batch with the batch bound to the variable "rows", so most
scripts map over rows to create nodes. For example:

    map(rows, node("inet:fqdn", json(#).fqdn))

Rows can be routed on a column value:

    map(rows, let r = json(#);
        r.type == "fqdn" ? node("inet:fqdn", r.valu) :
        r.type == "person name" ? node("ps:name", r.valu) :
        warn("unknown type " + r.type))

Tags are added with tag(form, valu, tag), output with print(...).

Usage:
  graphload [flags] <scriptfile> <rowfile>...

Flags:
`

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	o := &options{}

	fs := flag.NewFlagSet("graphload", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&o.URL, "url", "u", "", "Engine URL (http, https, ws, wss) or alias name")
	fs.BoolVarP(&o.Test, "test", "t", false, "Ingest into a temporary in-process engine")
	fs.StringVar(&o.View, "view", "", "View iden to work in (32 lowercase hex characters)")
	fs.StringVar(&o.OptsFile, "optsfile", "", "YAML file merged into the script options")
	fs.StringVar(&o.LogFile, "logfile", "", "Append every engine message to this file as a JSON line")
	fs.BoolVar(&o.CLI, "cli", false, "Open an interactive shell after loading")
	fs.BoolVar(&o.Debug, "debug", false, "Echo every raw message and enable debug logs")
	fs.IntVar(&o.BatchSize, "batch-size", ingestion.DefaultBatchSize, "Rows per submission")
	fs.DurationVar(&o.Timeout, "timeout", 0, "Overall run timeout (0 disables)")
	fs.StringVar(&o.MetricsAddr, "metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	fs.StringVar(&o.Aliases, "aliases", "", "Alias file (default $GRAPHLOAD_ALIASES or ~/.graphload/aliases.yaml)")
	fs.BoolVar(&o.NoColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&o.Version, "version", false, "Show version and exit")

	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, errors.NewInputError("Invalid arguments", err.Error(), "Run: graphload --help")
	}
	if o.Version {
		return o, nil
	}

	rest := fs.Args()
	if len(rest) < 2 {
		fs.Usage()
		return nil, errors.NewInputError(
			"Missing arguments",
			"graphload needs a script file and at least one row file",
			"Run: graphload --test <scriptfile> <rowfile>...",
		)
	}
	o.ScriptFile, o.RowFiles = rest[0], rest[1:]

	if o.Test == (o.URL != "") {
		return nil, errors.NewInputError(
			"Exactly one of --test or --url is required",
			"",
			"Use --test for a temporary engine or --url <url|alias> for a remote one",
		)
	}
	if o.BatchSize <= 0 {
		return nil, errors.NewInputError(
			fmt.Sprintf("Invalid --batch-size %d", o.BatchSize),
			"The batch size must be a positive number of rows",
			"",
		)
	}
	if o.View != "" && !contract.IsGuid(o.View) {
		return nil, errors.NewInputError(
			"View is not a guid "+o.View,
			"Views are identified by 32 lowercase hex characters",
			"Pass the view iden exactly as the engine reports it",
		)
	}
	return o, nil
}

// run executes graphload and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseArgs(args, stderr)
	if stderrors.Is(err, flag.ErrHelp) {
		return errors.ExitSuccess
	}
	if err != nil {
		return errors.Exit(stderr, errors.Classify(err), noColor(args))
	}

	if o.Version {
		fmt.Fprintf(stdout, "graphload version %s\n", buildVersion)
		fmt.Fprintf(stdout, "commit: %s\n", commit)
		fmt.Fprintf(stdout, "built: %s\n", date)
		return errors.ExitSuccess
	}

	ui.InitColors(o.NoColor)

	logLevel := slog.LevelInfo
	if o.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	if err := ingest(ctx, o, stdout, stderr, logger); err != nil {
		return errors.Exit(stderr, errors.Classify(err), o.NoColor)
	}
	return errors.ExitSuccess
}

func ingest(ctx context.Context, o *options, stdout, stderr io.Writer, logger *slog.Logger) error {
	script, err := os.ReadFile(o.ScriptFile)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	opts := &engine.Opts{}
	if o.OptsFile != "" {
		if opts, err = config.LoadOpts(o.OptsFile); err != nil {
			return errors.NewConfigError("Cannot load the options file", err.Error(), "Check that --optsfile points to a YAML mapping", err)
		}
	}
	if o.View != "" {
		opts.View = o.View
	}

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	if o.MetricsAddr != "" {
		stop := startMetrics(o.MetricsAddr, logger)
		defer stop()
	}

	gw, err := bootstrap.OpenGateway(ctx, bootstrap.Config{
		Test:      o.Test,
		URL:       o.URL,
		AliasFile: o.Aliases,
		Required:  ingestion.RequiredVersion,
	}, logger)
	if err != nil {
		var bad *version.BadVersionError
		if stderrors.As(err, &bad) {
			fmt.Fprintf(stdout, "Engine version %s is outside of the graphload supported range (%s).\n", bad.Reported, bad.Required)
			fmt.Fprintf(stdout, "Please use a version of graphload which supports %s; current version is %s.\n", bad.Reported, buildVersion)
			return &errors.UserError{Message: "Unsupported engine version", ExitCode: errors.ExitVersion, Err: err}
		}
		return err
	}
	defer func() {
		if cerr := gw.Close(); cerr != nil {
			logger.Warn("engine.close.error", "err", cerr)
		}
	}()

	progress := NewProgressConfig(stderr, o.Debug, o.NoColor)
	spinner := NewSpinner(progress, "ingesting")

	drv := &ingestion.Driver{
		Gateway:   gw,
		Out:       stdout,
		Logger:    logger,
		BatchSize: o.BatchSize,
		Debug:     o.Debug,
		LogPath:   o.LogFile,
		OnBatch: func(b ingestion.Batch, nodes int) {
			if spinner != nil {
				spinner.Describe(fmt.Sprintf("batch %d (%d nodes)", b.Seq+1, nodes))
				_ = spinner.Add(len(b.Rows))
			}
		},
	}
	if o.CLI {
		drv.Shell = &shell.Shell{
			Out:         stdout,
			HistoryFile: shell.DefaultHistoryFile(),
			Debug:       o.Debug,
			Logger:      logger,
		}
	}

	res, err := drv.Run(ctx, string(script), o.RowFiles, opts)
	if spinner != nil {
		_ = spinner.Finish()
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%d nodes.\n", res.Nodes)

	status := ui.NewPrinter(stderr)
	status.Successf("%d rows in %d batches (%s)", res.Rows, res.Batches, res.Duration.Round(time.Millisecond))
	if o.LogFile != "" {
		status.Infof("Messages logged to %s", ui.DimText(o.LogFile))
	}
	if res.Errors > 0 {
		status.Warningf("%d of %d messages were errors", res.Errors, res.Messages)
	}
	return nil
}

// noColor scans raw args for --no-color so that parse errors honor it.
func noColor(args []string) bool {
	for _, a := range args {
		if a == "--no-color" {
			return true
		}
	}
	return false
}
