// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package monitor

import (
	"sync"
	"unicode/utf8"
)

// DefaultTailLines is how many raw lines a Tail keeps when not told otherwise.
const DefaultTailLines = 200

const maxLineBytes = 1024

// Tail keeps the most recent raw lines seen on the wire.
// A nil *Tail accepts and returns nothing.
type Tail struct {
	mu       sync.Mutex
	maxLines int
	lines    []string
}

// NewTail returns a buffer holding up to maxLines lines. A negative value
// disables it; zero selects DefaultTailLines.
func NewTail(maxLines int) *Tail {
	if maxLines == 0 {
		maxLines = DefaultTailLines
	}
	if maxLines < 0 {
		maxLines = 0
	}
	return &Tail{maxLines: maxLines, lines: make([]string, 0, maxLines)}
}

func (t *Tail) Add(line string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.maxLines == 0 {
		return
	}
	if len(line) > maxLineBytes {
		// Cut on a rune boundary.
		n := maxLineBytes
		for n > 0 && !utf8.RuneStart(line[n]) {
			n--
		}
		line = line[:n]
	}
	if len(t.lines) < t.maxLines {
		t.lines = append(t.lines, line)
		return
	}
	copy(t.lines, t.lines[1:])
	t.lines[len(t.lines)-1] = line
}

// Lines returns the buffered lines, oldest first.
func (t *Tail) Lines() []string {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, 0, len(t.lines))
	out = append(out, t.lines...)
	return out
}
