// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/HeyZhuang/NMEA-Inspector/internal/gps"
	"github.com/HeyZhuang/NMEA-Inspector/internal/ingest"
	"github.com/HeyZhuang/NMEA-Inspector/internal/source"
)

// ReplayOptions controls RunReplay.
type ReplayOptions struct {
	Path     string
	Interval time.Duration // 0 replays as fast as possible
	Follow   bool          // print every published snapshot, not just the last
	JSON     bool          // print snapshots as JSON
	Logger   *log.Logger
}

// ReplaySummary is the final state of a replay.
type ReplaySummary struct {
	Sentences int          `json:"sentences"`
	Stats     ingest.Stats `json:"stats"`
	Snapshot  gps.Snapshot `json:"snapshot"`
}

// RunReplay feeds a recorded NMEA file through the parser and writes the
// resulting state to out.
func RunReplay(ctx context.Context, opts ReplayOptions, out io.Writer) (ReplaySummary, error) {
	lines, err := source.LoadReplayFile(opts.Path)
	if err != nil {
		return ReplaySummary{}, err
	}

	svc := ingest.New(ingest.Config{Logger: opts.Logger})
	if opts.Follow {
		svc.AddSink(func(s gps.Snapshot) {
			if err := writeSnapshot(out, s, opts.JSON); err != nil {
				log.Printf("replay: write error: %v", err)
			}
		})
	}

	err = source.Replay(ctx, lines, opts.Interval, false, nil, func(line string) {
		_, _ = svc.Feed(line)
	})
	if err != nil {
		return ReplaySummary{}, err
	}

	summary := ReplaySummary{
		Sentences: len(lines),
		Stats:     svc.Stats(),
		Snapshot:  svc.Snapshot(),
	}
	if err := writeSummary(out, summary, opts.JSON); err != nil {
		return summary, err
	}
	return summary, nil
}

func writeSnapshot(out io.Writer, s gps.Snapshot, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(out).Encode(s)
	}
	_, err := fmt.Fprintln(out, formatSnapshot(s))
	return err
}

func writeSummary(out io.Writer, s ReplaySummary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	_, err := fmt.Fprintf(out,
		"replayed %d sentences: decoded=%d skipped=%d failed=%d published=%d\n%s\n",
		s.Sentences, s.Stats.Decoded, s.Stats.Skipped, s.Stats.Failed, s.Stats.Published,
		formatSnapshot(s.Snapshot))
	return err
}
