// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// DefaultReplayInterval paces file replay at one sentence per second.
const DefaultReplayInterval = time.Second

// LoadReplayFile reads an NMEA log and keeps only lines that look like
// sentences (start with '$' and contain '*').
func LoadReplayFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay file: %w", err)
	}
	defer f.Close()

	lines, err := ReadSentences(f)
	if err != nil {
		return nil, fmt.Errorf("error reading replay file %s: %w", path, err)
	}
	return lines, nil
}

// ReadSentences is LoadReplayFile for an arbitrary reader.
func ReadSentences(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256), 64*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "$") && strings.Contains(line, "*") {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// Replay feeds lines to fn one at a time, waiting interval before each
// line after the first. With loop set it starts over after the last line
// (onRestart, if non-nil, runs before each repeat). It returns nil once
// all lines were delivered, or ctx.Err() when cancelled.
//
// An interval <= 0 replays as fast as fn returns.
func Replay(ctx context.Context, lines []string, interval time.Duration, loop bool, onRestart func(), fn LineFunc) error {
	if len(lines) == 0 {
		return nil
	}

	var ticker *time.Ticker
	if interval > 0 {
		ticker = time.NewTicker(interval)
		defer ticker.Stop()
	}

	first := true
	for {
		for _, line := range lines {
			if !first && ticker != nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
				}
			} else if err := ctx.Err(); err != nil {
				return err
			}
			first = false
			fn(line)
		}
		if !loop {
			return nil
		}
		if onRestart != nil {
			onRestart()
		}
	}
}
