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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultBatchSize is the number of rows submitted per script run.
const DefaultBatchSize = 1000

// Batch is a run of consecutive rows from one input file.
type Batch struct {
	// Rows are the raw lines, without line terminators.
	Rows []string

	// File is the path the rows were read from.
	File string

	// Seq is the 0-based position of the batch in the whole run.
	Seq int
}

// Chunker reads input files in order and splits their lines into batches
// of at most size rows. Each file is chunked independently, so a batch
// never mixes rows of two files. Only one file is open at a time and at
// most size rows are held in memory.
type Chunker struct {
	paths []string
	size  int

	next int // index of the next path to open
	file *os.File
	rd   *bufio.Reader
	name string
	seq  int
	done bool
}

// NewChunker creates a chunker over paths. The files are opened lazily.
func NewChunker(paths []string, size int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", size)
	}
	return &Chunker{paths: paths, size: size}, nil
}

// Next returns the next batch, or io.EOF after the last one. An error
// opening or reading a file ends the sequence.
func (c *Chunker) Next() (Batch, error) {
	if c.done {
		return Batch{}, io.EOF
	}

	for {
		if c.rd == nil {
			if c.next >= len(c.paths) {
				c.done = true
				return Batch{}, io.EOF
			}
			if err := c.open(c.paths[c.next]); err != nil {
				c.done = true
				return Batch{}, err
			}
			c.next++
		}

		rows, err := c.read()
		if err != nil {
			_ = c.Close()
			return Batch{}, fmt.Errorf("read %s: %w", c.name, err)
		}
		if len(rows) < c.size {
			// File exhausted; the next call moves on to the next path.
			if cerr := c.closeFile(); cerr != nil {
				c.done = true
				return Batch{}, cerr
			}
		}
		if len(rows) == 0 {
			continue
		}

		b := Batch{Rows: rows, File: c.name, Seq: c.seq}
		c.seq++
		return b, nil
	}
}

// Close releases the open file, if any. Next returns io.EOF afterwards.
func (c *Chunker) Close() error {
	c.done = true
	return c.closeFile()
}

func (c *Chunker) open(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	c.file = f
	c.rd = bufio.NewReaderSize(f, 64*1024)
	c.name = path
	return nil
}

func (c *Chunker) closeFile() error {
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file, c.rd = nil, nil
	if err != nil {
		return fmt.Errorf("close %s: %w", c.name, err)
	}
	return nil
}

// read returns up to size rows. Fewer than size rows means end of file.
func (c *Chunker) read() ([]string, error) {
	rows := make([]string, 0, c.size)
	for len(rows) < c.size {
		line, err := c.rd.ReadString('\n')
		if len(line) > 0 {
			rows = append(rows, trimEOL(line))
		}
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
	}

	// A full batch that ends exactly at end of file must still report the
	// file as exhausted, otherwise an empty read follows.
	if _, err := c.rd.Peek(1); errors.Is(err, io.EOF) {
		if cerr := c.closeFile(); cerr != nil {
			return nil, cerr
		}
	}
	return rows, nil
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
