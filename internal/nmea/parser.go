// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/HeyZhuang/NMEA-Inspector/internal/gps"
)

// Result describes a successfully handled line.
type Result struct {
	Talker    string
	Kind      Kind
	Published bool // subscribers were notified with a new snapshot
}

// Option configures a Parser.
type Option func(*Parser)

// WithClock replaces time.Now for the timestamps the parser stamps itself.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.clock = now
		}
	}
}

// WithLogger sets where decode failures are logged.
func WithLogger(l *log.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// Parser rebuilds receiver state from a stream of NMEA lines.
//
// Parse must be called from one goroutine at a time, in stream order: the
// GSV reassembly depends on it. Subscribe and Snapshot may be used from
// other goroutines.
type Parser struct {
	snap gps.Snapshot
	gsv  gsvAssembler

	clock  func() time.Time
	logger *log.Logger

	mu     sync.Mutex
	subs   []subscriber
	nextID int
	last   gps.Snapshot // copy of snap as of the last publish or reset
}

type subscriber struct {
	id int
	fn func(gps.Snapshot)
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{
		clock:  time.Now,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Subscribe registers fn to be called synchronously, on the Parse goroutine,
// with a private copy of the snapshot each time one is published. The
// returned func removes the subscription.
func (p *Parser) Subscribe(fn func(gps.Snapshot)) (cancel func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs = append(p.subs, subscriber{id: id, fn: fn})
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			for i, s := range p.subs {
				if s.id == id {
					p.subs = append(p.subs[:i:i], p.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Snapshot returns a copy of the most recently published state.
func (p *Parser) Snapshot() gps.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last.Clone()
}

// Reset discards the snapshot and any partial satellite sequence.
func (p *Parser) Reset() {
	p.snap = gps.Snapshot{}
	p.gsv.reset()
	p.mu.Lock()
	p.last = gps.Snapshot{}
	p.mu.Unlock()
}

// Parse decodes one line. On failure the snapshot is unchanged and the
// error matches one of ErrMalformed, ErrInsufficientFields, ErrNumeric or
// ErrUnrecognized via errors.Is. Unrecognized kinds are not logged.
func (p *Parser) Parse(line string) (Result, error) {
	s, err := Tokenize(line)
	if err != nil {
		return Result{}, err
	}
	res := Result{Talker: s.Talker, Kind: s.Kind}

	need, ok := minFields[s.Kind]
	if !ok {
		return res, newDecodeError(s.Kind, ErrUnrecognized)
	}
	if len(s.Fields) < need {
		err := &DecodeError{Kind: s.Kind, Reason: ErrInsufficientFields, Field: -1,
			Err: fmt.Errorf("have %d, need %d", len(s.Fields), need)}
		p.logger.Printf("nmea: %s%s decode failed: %v", s.Talker, s.Kind, err)
		return res, err
	}

	notify := true
	switch s.Kind {
	case KindGGA:
		err = p.decodeGGA(s)
	case KindRMC:
		err = p.decodeRMC(s)
	case KindGSV:
		notify, err = p.decodeGSV(s)
	case KindGSA:
		err = p.decodeGSA(s)
	case KindGLL:
		err = p.decodeGLL(s)
	case KindVTG:
		err = p.decodeVTG(s)
	case KindZDA:
		err = p.decodeZDA(s)
	}
	if err != nil {
		p.logger.Printf("nmea: %s%s decode failed: %v", s.Talker, s.Kind, err)
		return res, err
	}

	if notify {
		p.publish()
		res.Published = true
	}
	return res, nil
}

func (p *Parser) publish() {
	p.mu.Lock()
	p.last = p.snap.Clone()
	subs := make([]subscriber, len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()

	for _, s := range subs {
		s.fn(p.snap.Clone())
	}
}

func (p *Parser) now() time.Time {
	return p.clock().UTC()
}

func (p *Parser) logSystemSummary(list []gps.Satellite) {
	summary := gps.Snapshot{Satellites: list}.SystemSummary()
	if summary != "" {
		summary = " " + summary
	}
	p.logger.Printf("nmea: satellites in view committed total=%d%s", len(list), summary)
}

// IsSkippable reports whether err only means the line was not something the
// parser handles (not NMEA, or a sentence kind it ignores).
func IsSkippable(err error) bool {
	return errors.Is(err, ErrMalformed) || errors.Is(err, ErrUnrecognized)
}
