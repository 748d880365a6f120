// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"time"

	"github.com/HeyZhuang/NMEA-Inspector/internal/gps"
)

// Minimum field counts, address field included.
var minFields = map[Kind]int{
	KindGGA: 15,
	KindRMC: 12,
	KindGSV: 4,
	KindGSA: 18,
	KindGLL: 7,
	KindVTG: 9,
	KindZDA: 6,
}

// Known reports whether the parser decodes sentences of kind k.
func (k Kind) Known() bool {
	_, ok := minFields[k]
	return ok
}

// Every decoder reads all of its fields before touching the snapshot, so a
// failed decode leaves the previous state intact.

// GGA: position fix
//
//	1: time (hhmmss.sss)
//	2,3: latitude, N/S
//	4,5: longitude, E/W
//	6: quality (0..5)
//	7: satellites
//	8: HDOP
//	9: altitude (m)
func (p *Parser) decodeGGA(s Sentence) error {
	r := newFieldReader(s)
	utc, timeOK := r.time(1)
	lat := r.coordinate(2, 3)
	lon := r.coordinate(4, 5)
	quality := r.int(6)
	sats := r.int(7)
	hdop := r.float(8)
	alt := r.float(9)
	if err := r.Err(); err != nil {
		return err
	}

	now := p.now()
	snap := &p.snap
	if timeOK {
		snap.Time = utc
	}
	snap.Latitude = lat
	snap.Longitude = lon
	snap.HasPosition = r.raw(2) != "" && r.raw(4) != ""
	snap.FixType = FixTypeFromCode(quality)
	snap.SatelliteCount = sats
	if r.raw(8) != "" {
		snap.HDOP = hdop
		snap.HasDOP = true
	}
	snap.Altitude = alt
	snap.Timestamp = now

	// The sentence carries time of day only; prefer it over the wall clock.
	local, ok := "", false
	if timeOK {
		local, ok = LocalTimeOfDay(utc)
	}
	if !ok {
		local = LocalTime(now)
	}
	snap.LocalTime = local
	return nil
}

// RMC: recommended minimum
//
//	1: time, 2: status (A/V), 3,4: latitude, 5,6: longitude,
//	7: speed (knots), 8: course (deg), 9: date (ddmmyy)
func (p *Parser) decodeRMC(s Sentence) error {
	r := newFieldReader(s)
	utc, timeOK := r.time(1)
	status := r.raw(2)
	lat := r.coordinate(3, 4)
	lon := r.coordinate(5, 6)
	knots := r.float(7)
	course := r.float(8)
	date, dateOK, err := FormatRMCDate(r.raw(9))
	if err != nil {
		r.fail(9, err)
	}
	if err := r.Err(); err != nil {
		return err
	}

	snap := &p.snap
	if timeOK && dateOK {
		snap.Timestamp = rmcTimestamp(r.raw(1), r.raw(9))
	} else {
		snap.Timestamp = p.now()
	}
	if timeOK {
		snap.Time = utc
	}
	if dateOK {
		snap.Date = date
	}
	if status == "A" {
		snap.FixType = gps.FixValid
	} else {
		snap.FixType = gps.FixInvalid
	}
	snap.Latitude = lat
	snap.Longitude = lon
	snap.HasPosition = r.raw(3) != "" && r.raw(5) != ""
	snap.Speed = knots * knotsToMPS
	snap.Course = course
	return nil
}

// rmcTimestamp builds the UTC instant from already validated hhmmss and
// ddmmyy fields.
func rmcTimestamp(hhmmss, ddmmyy string) time.Time {
	num := func(s string) int { return int(s[0]-'0')*10 + int(s[1]-'0') }
	return time.Date(2000+num(ddmmyy[4:6]), time.Month(num(ddmmyy[2:4])), num(ddmmyy[0:2]),
		num(hhmmss[0:2]), num(hhmmss[2:4]), num(hhmmss[4:6]), 0, time.UTC)
}

// GSV: satellites in view, one part of a sequence
//
//	1: total parts, 2: part index, 3: satellites in view,
//	then repeated (id, elevation, azimuth, SNR)
//
// It reports whether the sequence completed and the list was committed.
func (p *Parser) decodeGSV(s Sentence) (bool, error) {
	r := newFieldReader(s)
	total := r.int(1)
	index := r.int(2)
	if err := r.Err(); err != nil {
		return false, err
	}
	if total < 1 || index < 1 || index > total {
		return false, &DecodeError{Kind: s.Kind, Reason: ErrNumeric, Field: 2, Value: r.raw(2)}
	}

	talkerSystem := SystemByTalker(s.Talker)
	records := (len(s.Fields) - 4) / 4
	sats := make([]gps.Satellite, 0, records)
	for i := 0; i < records; i++ {
		base := 4 + i*4
		sat := gps.Satellite{
			ID:        r.int(base),
			Elevation: r.int(base + 1),
			Azimuth:   r.int(base + 2),
			SNR:       r.int(base + 3),
		}
		if sat.ID <= 0 {
			continue
		}
		sat.System = SystemByID(sat.ID)
		if sat.System == gps.SystemUnknown && talkerSystem != gps.SystemMulti {
			sat.System = talkerSystem
		}
		sats = append(sats, sat)
	}
	if err := r.Err(); err != nil {
		return false, err
	}

	list, done := p.gsv.add(index, total, sats)
	if !done {
		return false, nil
	}
	p.snap.Satellites = list
	p.snap.SatelliteCount = len(list)
	p.logSystemSummary(list)
	return true, nil
}

// GSA: DOP and active satellites
//
//	1: mode (M/A), 2: fix code, 3..14: active satellite IDs,
//	15: PDOP, 16: HDOP, 17: VDOP, 18: system id (NMEA 4.10, optional)
//
// Receivers emit one GSA per constellation, so a sentence only replaces the
// used flags of the system it addresses. When that system cannot be
// resolved, all flags are replaced.
func (p *Parser) decodeGSA(s Sentence) error {
	r := newFieldReader(s)
	code := r.int(2)
	ids := make([]int, 0, 12)
	for i := 3; i <= 14; i++ {
		if r.raw(i) == "" {
			continue
		}
		if id := r.int(i); id > 0 {
			ids = append(ids, id)
		}
	}
	pdop := r.float(15)
	hdop := r.float(16)
	vdop := r.float(17)
	system := SystemByTalker(s.Talker)
	if system == gps.SystemMulti || system == gps.SystemUnknown {
		system = gsaSystemByCode(r.int(18))
	}
	if err := r.Err(); err != nil {
		return err
	}

	snap := &p.snap
	snap.FixType = FixTypeFromCode(code)
	snap.PDOP = pdop
	snap.HDOP = hdop
	snap.VDOP = vdop
	snap.HasDOP = true
	snap.UsedSatelliteCount = len(ids)
	for i := range snap.Satellites {
		if system == gps.SystemUnknown || snap.Satellites[i].System == system {
			snap.Satellites[i].Used = false
		}
	}
	for _, id := range ids {
		for i := range snap.Satellites {
			if snap.Satellites[i].ID == id {
				snap.Satellites[i].Used = true
				break
			}
		}
	}
	return nil
}

// gsaSystemByCode maps the NMEA 4.10 GSA system id.
func gsaSystemByCode(code int) gps.System {
	switch code {
	case 1:
		return gps.SystemGPS
	case 2:
		return gps.SystemGLN
	case 3:
		return gps.SystemGAL
	case 4:
		return gps.SystemBDS
	case 5:
		return gps.SystemQZSS
	default:
		return gps.SystemUnknown
	}
}

// GLL: geographic position
//
//	1,2: latitude, 3,4: longitude, 5: time, 6: status
func (p *Parser) decodeGLL(s Sentence) error {
	r := newFieldReader(s)
	lat := r.coordinate(1, 2)
	lon := r.coordinate(3, 4)
	utc, timeOK := r.time(5)
	if err := r.Err(); err != nil {
		return err
	}

	snap := &p.snap
	snap.Latitude = lat
	snap.Longitude = lon
	snap.HasPosition = r.raw(1) != "" && r.raw(3) != ""
	if timeOK {
		snap.Time = utc
	}
	return nil
}

// VTG: course and speed
//
//	1: course true (deg), 7: speed (km/h)
func (p *Parser) decodeVTG(s Sentence) error {
	r := newFieldReader(s)
	course := r.float(1)
	kmh := r.float(7)
	if err := r.Err(); err != nil {
		return err
	}
	p.snap.Course = course
	p.snap.Speed = kmh * kmhToMPS
	return nil
}

// ZDA: time and date
//
//	1: time, 2: day, 3: month, 4: year
func (p *Parser) decodeZDA(s Sentence) error {
	r := newFieldReader(s)
	utc, timeOK := r.time(1)
	date, dateOK, err := FormatZDADate(r.raw(2), r.raw(3), r.raw(4))
	if err != nil {
		r.fail(2, err)
	}
	if err := r.Err(); err != nil {
		return err
	}
	if timeOK {
		p.snap.Time = utc
	}
	if dateOK {
		p.snap.Date = date
	}
	return nil
}
