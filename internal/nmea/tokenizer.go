// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"strings"
)

// Kind is the three-letter sentence code (GGA, RMC, ...).
type Kind string

const (
	KindGGA Kind = "GGA" // position fix
	KindRMC Kind = "RMC" // recommended minimum
	KindGSV Kind = "GSV" // satellites in view
	KindGSA Kind = "GSA" // DOP and active satellites
	KindGLL Kind = "GLL" // geographic position
	KindVTG Kind = "VTG" // course and speed
	KindZDA Kind = "ZDA" // time and date
)

// Sentence is a tokenized NMEA line.
type Sentence struct {
	Talker string // e.g. "GP", "BD", "GN"; empty when the address is too short
	Kind   Kind
	// Fields is the comma-split payload (excluding '$' and the checksum).
	// Fields[0] is the address, e.g. "GPGGA".
	Fields []string
	Raw    string
}

// Tokenize validates the line shape and splits it into fields.
//
// A line is accepted when it starts with '$' and contains '*'. The checksum
// after '*' is located but not verified.
func Tokenize(line string) (Sentence, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return Sentence{}, newDecodeError("", ErrMalformed)
	}
	star := strings.IndexByte(line, '*')
	if star == -1 {
		return Sentence{}, newDecodeError("", ErrMalformed)
	}

	fields := strings.Split(line[1:star], ",")
	addr := strings.TrimSpace(fields[0])
	if addr == "" {
		return Sentence{}, newDecodeError("", ErrMalformed)
	}

	s := Sentence{Fields: fields, Raw: line}
	if len(addr) >= 5 {
		s.Talker = strings.ToUpper(addr[:len(addr)-3])
		s.Kind = Kind(strings.ToUpper(addr[len(addr)-3:]))
	} else {
		s.Kind = Kind(strings.ToUpper(addr))
	}
	return s, nil
}
