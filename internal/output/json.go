// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package output provides JSON encoding helpers shared by the graphload
// CLI, the message log and the engine server.
//
// Compact output is one value per line and does not escape HTML
// characters, so a message written to the log file reads the same as its
// printed form:
//
//	if err := output.JSONCompactTo(f, msg); err != nil {
//	    return err
//	}
//
// LineWriter streams newline-delimited JSON and flushes after each value
// when the destination supports it (http.ResponseWriter does):
//
//	lw := output.NewLineWriter(w)
//	for _, m := range msgs {
//	    if err := lw.Write(m); err != nil {
//	        return err
//	    }
//	}
package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONCompactTo writes data as one line of compact JSON followed by a
// newline.
func JSONCompactTo(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}

type flusher interface {
	Flush()
}

// LineWriter writes newline-delimited JSON values.
type LineWriter struct {
	w     io.Writer
	f     flusher
	count int
}

// NewLineWriter returns a LineWriter on w. If w has a Flush method it is
// called after every value.
func NewLineWriter(w io.Writer) *LineWriter {
	lw := &LineWriter{w: w}
	if f, ok := w.(flusher); ok {
		lw.f = f
	}
	return lw
}

// Write encodes v as one line.
func (lw *LineWriter) Write(v any) error {
	if err := JSONCompactTo(lw.w, v); err != nil {
		return err
	}
	lw.count++
	if lw.f != nil {
		lw.f.Flush()
	}
	return nil
}

// Count reports the number of values written.
func (lw *LineWriter) Count() int {
	return lw.count
}
