// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"errors"
	"fmt"
)

// Reasons a line can fail to update the snapshot. Use errors.Is against
// the error returned by Parser.Parse.
var (
	ErrMalformed          = errors.New("not an NMEA sentence")
	ErrInsufficientFields = errors.New("insufficient fields")
	ErrNumeric            = errors.New("numeric field parse error")
	ErrUnrecognized       = errors.New("unrecognized sentence kind")
)

// DecodeError describes a failed decode. Reason is one of the Err* values
// above; Err, when set, is the underlying conversion error.
type DecodeError struct {
	Kind   Kind
	Reason error
	Field  int    // index into Sentence.Fields, -1 when not field specific
	Value  string // offending raw field value
	Err    error
}

func (e *DecodeError) Error() string {
	kind := string(e.Kind)
	if kind == "" {
		kind = "?"
	}
	switch {
	case e.Field >= 0 && e.Err != nil:
		return fmt.Sprintf("nmea %s: %v: field %d %q: %v", kind, e.Reason, e.Field, e.Value, e.Err)
	case e.Field >= 0:
		return fmt.Sprintf("nmea %s: %v: field %d %q", kind, e.Reason, e.Field, e.Value)
	case e.Err != nil:
		return fmt.Sprintf("nmea %s: %v: %v", kind, e.Reason, e.Err)
	default:
		return fmt.Sprintf("nmea %s: %v", kind, e.Reason)
	}
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

func newDecodeError(kind Kind, reason error) *DecodeError {
	return &DecodeError{Kind: kind, Reason: reason, Field: -1}
}
