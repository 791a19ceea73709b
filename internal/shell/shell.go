// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package shell is the interactive prompt started by --cli once every
// batch has been ingested.
//
// Each line read is submitted as a script with the run's options. Output
// is classified like batch output, with node messages also printed as
// form=valu. "exit", "quit" or end of input leave the shell.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/kraklabs/graphload/pkg/engine"
	"github.com/kraklabs/graphload/pkg/ingestion"
)

const (
	// Prompt is shown before each line.
	Prompt = "graph> "

	historyLimit = 10000
)

// LineReader supplies input lines. *readline.Instance implements it.
type LineReader interface {
	Readline() (string, error)
	Close() error
}

// Shell is an interactive session on an engine.
type Shell struct {
	// Out receives the output of each script.
	Out io.Writer

	// Reader supplies the input lines. When nil, Run opens a readline
	// terminal on stdin with HistoryFile.
	Reader LineReader

	// HistoryFile stores entered lines across sessions.
	HistoryFile string

	// Debug echoes every message in its raw form.
	Debug bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

var _ ingestion.Shell = (*Shell)(nil)

// DefaultHistoryFile returns ~/.graphload/shell_history, or "" when the
// home directory is unknown.
func DefaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".graphload", "shell_history")
}

// Run reads lines until exit and submits each one to gw with a copy of
// opts. Scripts the engine rejects are reported and the session goes on;
// a transport failure ends it.
func (s *Shell) Run(ctx context.Context, gw engine.Gateway, opts *engine.Opts) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := s.Out
	if out == nil {
		out = os.Stdout
	}

	rd := s.Reader
	if rd == nil {
		rl, err := s.open()
		if err != nil {
			return err
		}
		rd = rl
	}
	defer rd.Close()

	fmt.Fprintln(out, `Type "exit" to quit.`)
	logger.Debug("shell.start")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := rd.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read line: %w", err)
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if err := s.eval(ctx, gw, line, opts.Clone(), out); err != nil {
			var re *engine.RemoteError
			if errors.As(err, &re) {
				fmt.Fprintf(out, "ERROR: %s\n", re)
				continue
			}
			return err
		}
	}
}

func (s *Shell) eval(ctx context.Context, gw engine.Gateway, script string, opts *engine.Opts, out io.Writer) error {
	stream, err := gw.Submit(ctx, script, opts)
	if err != nil {
		return err
	}

	nodes := 0
	err = engine.Drain(ctx, stream, func(m engine.Message) error {
		if form, valu, ok := m.Ndef(); ok {
			nodes++
			fmt.Fprintf(out, "%s=%v\n", form, valu)
		}
		for _, line := range ingestion.Classify(m, s.Debug).Diagnostics {
			fmt.Fprintln(out, line)
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "complete. %d nodes.\n", nodes)
	return nil
}

func (s *Shell) open() (*readline.Instance, error) {
	if s.HistoryFile != "" {
		if err := os.MkdirAll(filepath.Dir(s.HistoryFile), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       Prompt,
		HistoryFile:  s.HistoryFile,
		HistoryLimit: historyLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	return rl, nil
}
