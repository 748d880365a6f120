// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/HeyZhuang/NMEA-Inspector/internal/gps"
	"github.com/HeyZhuang/NMEA-Inspector/internal/metrics"
	"github.com/HeyZhuang/NMEA-Inspector/internal/monitor"
	"github.com/HeyZhuang/NMEA-Inspector/internal/nmea"
	"github.com/HeyZhuang/NMEA-Inspector/internal/source"
)

// Source produces lines until it runs dry, fails, or ctx is cancelled.
type Source func(ctx context.Context, emit source.LineFunc) error

// Config controls the ingest service. Zero values are usable.
type Config struct {
	TailLines int               // raw lines kept for the raw view, see monitor.NewTail
	Metrics   *metrics.Metrics  // optional
	Logger    *log.Logger       // optional, defaults to log.Default()
	Parser    []nmea.Option     // extra parser options
	OnLine    func(line string) // optional, sees every line before it is parsed
}

// Stats counts lines seen by the service.
type Stats struct {
	Lines     uint64 `json:"lines"`
	Decoded   uint64 `json:"decoded"`
	Skipped   uint64 `json:"skipped"` // not NMEA, or a kind that is not decoded
	Failed    uint64 `json:"failed"`
	Published uint64 `json:"published"`
}

// Service feeds one line source through an nmea.Parser on its own
// goroutine and keeps the latest published snapshot for readers.
type Service struct {
	parser  *nmea.Parser
	tail    *monitor.Tail
	metrics *metrics.Metrics
	logger  *log.Logger
	onLine  func(string)

	last    atomic.Value // gps.Snapshot
	have    atomic.Bool
	lastErr atomic.Value // string

	lines, decoded, skipped, failed, published atomic.Uint64

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	runErr  error
	started bool
}

func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	opts := append([]nmea.Option{nmea.WithLogger(logger)}, cfg.Parser...)

	s := &Service{
		parser:  nmea.NewParser(opts...),
		tail:    monitor.NewTail(cfg.TailLines),
		metrics: cfg.Metrics,
		logger:  logger,
		onLine:  cfg.OnLine,
	}
	s.last.Store(gps.Snapshot{})
	s.lastErr.Store("")

	s.parser.Subscribe(func(snap gps.Snapshot) {
		s.published.Add(1)
		s.metrics.ObserveSnapshot(snap)
		s.last.Store(snap)
		s.have.Store(true)
	})
	return s
}

// AddSink registers fn to receive every published snapshot. Sinks run on
// the ingest goroutine and should not block for long.
func (s *Service) AddSink(fn func(gps.Snapshot)) (cancel func()) {
	return s.parser.Subscribe(fn)
}

// Feed handles one line synchronously. It must not be called while the
// service is running a source.
func (s *Service) Feed(line string) (nmea.Result, error) {
	s.lines.Add(1)
	s.tail.Add(line)
	if s.onLine != nil {
		s.onLine(line)
	}

	res, err := s.parser.Parse(line)
	s.metrics.ObserveParse(res, err)
	switch {
	case err == nil:
		s.decoded.Add(1)
	case nmea.IsSkippable(err):
		s.skipped.Add(1)
	default:
		s.failed.Add(1)
		s.lastErr.Store(err.Error())
	}
	return res, err
}

// Reset discards the receiver state, as when a new stream begins.
func (s *Service) Reset() {
	s.parser.Reset()
	s.last.Store(gps.Snapshot{})
	s.have.Store(false)
}

// Start resets the state and runs src on a new goroutine. It returns an
// error if the service is already running.
func (s *Service) Start(ctx context.Context, src Source) error {
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}
	if src == nil {
		return fmt.Errorf("ingest source is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("ingest service already started")
	}
	s.started = true
	s.runErr = nil
	s.Reset()

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := src(childCtx, func(line string) { _, _ = s.Feed(line) })
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Printf("ingest: source stopped: %v", err)
			s.lastErr.Store(fmt.Sprintf("source stopped: %v", err))
		}
		s.mu.Lock()
		s.runErr = err
		s.mu.Unlock()
	}()
	return nil
}

// Wait blocks until the running source returns and reports its error.
// Cancellation is not reported as an error.
func (s *Service) Wait() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	if errors.Is(s.runErr, context.Canceled) {
		return nil
	}
	return s.runErr
}

// Close stops the source and waits for it. The service can be started again.
func (s *Service) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
}

// Snapshot returns the most recently published state.
func (s *Service) Snapshot() gps.Snapshot {
	return s.last.Load().(gps.Snapshot).Clone()
}

// Latest is Snapshot plus whether anything was published since the last
// reset.
func (s *Service) Latest() (gps.Snapshot, bool) {
	return s.Snapshot(), s.have.Load()
}

// RawTail returns the latest raw lines, oldest first.
func (s *Service) RawTail() []string {
	return s.tail.Lines()
}

// LastError returns the most recent decode or source error, if any.
func (s *Service) LastError() string {
	return s.lastErr.Load().(string)
}

func (s *Service) Stats() Stats {
	return Stats{
		Lines:     s.lines.Load(),
		Decoded:   s.decoded.Load(),
		Skipped:   s.skipped.Load(),
		Failed:    s.failed.Load(),
		Published: s.published.Load(),
	}
}
