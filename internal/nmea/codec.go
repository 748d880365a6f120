// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/HeyZhuang/NMEA-Inspector/internal/gps"
)

const (
	knotsToMPS = 0.514444
	kmhToMPS   = 0.277778

	localOffset = 8 * time.Hour
)

// ParseCoordinate converts an NMEA ddmm.mmmm / dddmm.mmmm field plus
// hemisphere into signed decimal degrees. An empty field yields 0.
//
// The two digits before the decimal point start the minutes; everything in
// front of them is whole degrees. S and W negate the result.
func ParseCoordinate(field, hemisphere string) (float64, error) {
	v := strings.TrimSpace(field)
	if v == "" {
		return 0, nil
	}

	intPart := v
	if dot := strings.IndexByte(v, '.'); dot != -1 {
		intPart = v[:dot]
	}
	if len(intPart) < 2 {
		return 0, fmt.Errorf("coordinate %q: need at least two minute digits", v)
	}

	var deg float64
	if degPart := intPart[:len(intPart)-2]; degPart != "" {
		d, err := strconv.ParseUint(degPart, 10, 16)
		if err != nil {
			return 0, err
		}
		deg = float64(d)
	}
	mins, err := strconv.ParseFloat(v[len(intPart)-2:], 64)
	if err != nil {
		return 0, err
	}
	if mins < 0 {
		return 0, fmt.Errorf("coordinate %q: negative minutes", v)
	}

	dec := deg + mins/60.0
	switch strings.ToUpper(strings.TrimSpace(hemisphere)) {
	case "S", "W":
		dec = -dec
	}
	return dec, nil
}

// FormatTime turns an hhmmss[.sss] field into "HH:MM:SS". ok is false when
// the field is shorter than six characters; the caller then keeps its
// previous time.
func FormatTime(field string) (string, bool, error) {
	v := strings.TrimSpace(field)
	if len(v) < 6 {
		return "", false, nil
	}
	if !allDigits(v[:6]) {
		return "", false, fmt.Errorf("time %q: expected hhmmss", v)
	}
	return v[0:2] + ":" + v[2:4] + ":" + v[4:6], true, nil
}

// FormatRMCDate turns the recommended-minimum ddmmyy field into "20YY:MM:DD".
func FormatRMCDate(field string) (string, bool, error) {
	v := strings.TrimSpace(field)
	if len(v) < 6 {
		return "", false, nil
	}
	if !allDigits(v[:6]) {
		return "", false, fmt.Errorf("date %q: expected ddmmyy", v)
	}
	return "20" + v[4:6] + ":" + v[2:4] + ":" + v[0:2], true, nil
}

// FormatZDADate joins the separate ZDA day, month and year fields as
// "YYYY:MM:DD". ok is false unless all three are present.
func FormatZDADate(day, month, year string) (string, bool, error) {
	day, month, year = strings.TrimSpace(day), strings.TrimSpace(month), strings.TrimSpace(year)
	if day == "" || month == "" || year == "" {
		return "", false, nil
	}
	for _, p := range []string{day, month, year} {
		if !allDigits(p) {
			return "", false, fmt.Errorf("date part %q: expected digits", p)
		}
	}
	return year + ":" + month + ":" + day, true, nil
}

// LocalTime formats t shifted to UTC+8 as "HH:MM:SS".
func LocalTime(t time.Time) string {
	return t.UTC().Add(localOffset).Format("15:04:05")
}

// LocalTimeOfDay shifts a "HH:MM:SS" UTC time of day by +8h, wrapping past
// midnight.
func LocalTimeOfDay(utc string) (string, bool) {
	t, err := time.Parse("15:04:05", utc)
	if err != nil {
		return "", false
	}
	return t.Add(localOffset).Format("15:04:05"), true
}

// FixTypeFromCode maps the numeric quality code used by GGA and GSA.
func FixTypeFromCode(code int) gps.FixType {
	switch code {
	case 0:
		return gps.FixNone
	case 1:
		return gps.FixSingle
	case 2:
		return gps.FixDifferential
	case 3:
		return gps.FixPPS
	case 4:
		return gps.FixRTKFixed
	case 5:
		return gps.FixRTKFloat
	default:
		return gps.FixUnknown
	}
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
