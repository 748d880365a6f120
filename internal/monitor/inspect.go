// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package monitor

import (
	"errors"
	"strings"

	gonmea "github.com/adrianmo/go-nmea"

	"github.com/HeyZhuang/NMEA-Inspector/internal/nmea"
)

// Inspection labels one raw line for the raw sentence view.
//
// Checksums are reported here only; the state parser never rejects a line
// because of one.
type Inspection struct {
	Raw    string `json:"raw"`
	Talker string `json:"talker,omitempty"`
	Kind   string `json:"kind,omitempty"`
	System string `json:"system,omitempty"`

	HasChecksum      bool   `json:"has_checksum"`
	ChecksumOK       bool   `json:"checksum_ok"`
	ChecksumExpected string `json:"checksum_expected,omitempty"`
	ChecksumActual   string `json:"checksum_actual,omitempty"`

	// LibraryType is the sentence type reported by go-nmea when it could
	// parse the line; LibraryError holds its complaint otherwise.
	LibraryType  string `json:"library_type,omitempty"`
	LibraryError string `json:"library_error,omitempty"`

	Malformed bool `json:"malformed"`
}

// Inspect tokenizes line, verifies its checksum and runs it through go-nmea.
func Inspect(line string) Inspection {
	line = strings.TrimSpace(line)
	in := Inspection{Raw: line}

	s, err := nmea.Tokenize(line)
	if err != nil {
		in.Malformed = errors.Is(err, nmea.ErrMalformed)
		return in
	}
	in.Talker = s.Talker
	in.Kind = string(s.Kind)
	in.System = string(nmea.SystemByTalker(s.Talker))

	star := strings.IndexByte(line, '*')
	suffix := strings.ToUpper(strings.TrimSpace(line[star+1:]))
	in.ChecksumExpected = gonmea.Checksum(line[1:star])
	if len(suffix) >= 2 {
		in.HasChecksum = true
		in.ChecksumActual = suffix[:2]
		in.ChecksumOK = in.ChecksumActual == in.ChecksumExpected
	}

	sentence, err := gonmea.Parse(line)
	if err != nil {
		in.LibraryError = err.Error()
	} else {
		in.LibraryType = sentence.DataType()
	}
	return in
}

// InspectAll inspects lines in order.
func InspectAll(lines []string) []Inspection {
	out := make([]Inspection, 0, len(lines))
	for _, l := range lines {
		out = append(out, Inspect(l))
	}
	return out
}
