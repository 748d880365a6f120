// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package source

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
)

// LineFunc receives one trimmed, non-empty line.
type LineFunc func(line string)

// maxLineBytes bounds a single line. NMEA sentences are < 82 chars; longer
// runs are receiver noise and are dropped up to the next newline.
const maxLineBytes = 4096

// ScanLines reads r line by line and calls fn for each non-empty line, in
// order, until r is exhausted, ctx is cancelled, or a read fails.
// Lines longer than maxLineBytes are skipped. Reaching EOF returns nil.
func ScanLines(ctx context.Context, r io.Reader, fn LineFunc) error {
	br := bufio.NewReaderSize(r, maxLineBytes)
	discarding := false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, err := br.ReadSlice('\n')
		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			discarding = true
			continue
		case discarding:
			// Tail of an over-long line.
			discarding = false
		default:
			if line := strings.TrimSpace(string(chunk)); line != "" {
				fn(line)
			}
		}
		if err == io.EOF {
			return ctx.Err()
		}
		if err != nil {
			return err
		}
	}
}
