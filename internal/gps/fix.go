package gps

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// System identifies the constellation a satellite or sentence belongs to.
type System string

const (
	SystemGPS     System = "GPS"
	SystemBDS     System = "BDS"
	SystemGLN     System = "GLN"
	SystemGAL     System = "GAL"
	SystemQZSS    System = "QZSS"
	SystemSBAS    System = "SBAS"
	SystemMulti   System = "MULTI" // GN talker: several constellations combined
	SystemUnknown System = "UNKNOWN"
)

// FixType is the textual classification of the receiver-reported fix.
type FixType string

const (
	FixNone         FixType = "no fix"
	FixSingle       FixType = "single"
	FixDifferential FixType = "differential"
	FixPPS          FixType = "pps"
	FixRTKFixed     FixType = "rtk fixed"
	FixRTKFloat     FixType = "rtk float"
	FixUnknown      FixType = "unknown"
	FixValid        FixType = "valid"   // RMC status A
	FixInvalid      FixType = "invalid" // RMC status V (or anything else)
)

// Satellite is one entry of a satellites-in-view list.
type Satellite struct {
	ID        int    `json:"id"`        // PRN-like identifier, 1..256
	Elevation int    `json:"elevation"` // degrees, 0..90
	Azimuth   int    `json:"azimuth"`   // degrees, 0..360
	SNR       int    `json:"snr"`       // dB, 0 = not reported
	System    System `json:"system"`
	Used      bool   `json:"used"` // listed by the latest GSA for its constellation
}

// Snapshot is the combined receiver state rebuilt from NMEA sentences.
//
// Latitude, Longitude and the DOP values default to 0; HasPosition and HasDOP
// tell whether they were actually reported.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	Latitude    float64 `json:"lat"` // decimal degrees, south negative
	Longitude   float64 `json:"lon"` // decimal degrees, west negative
	HasPosition bool    `json:"has_position"`
	Altitude    float64 `json:"altitude_m"`

	Time      string `json:"time"`       // UTC, "HH:MM:SS"
	Date      string `json:"date"`       // UTC, "YYYY:MM:DD"
	LocalTime string `json:"local_time"` // UTC+8, "HH:MM:SS"

	SatelliteCount     int `json:"satellite_count"`
	UsedSatelliteCount int `json:"used_satellite_count"`

	HDOP   float64 `json:"hdop"`
	PDOP   float64 `json:"pdop"`
	VDOP   float64 `json:"vdop"`
	HasDOP bool    `json:"has_dop"`

	FixType FixType `json:"fix_type"`

	Speed  float64 `json:"speed_mps"`  // m/s
	Course float64 `json:"course_deg"` // degrees

	Satellites []Satellite `json:"satellites"`
}

// Clone returns a copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Satellites != nil {
		out.Satellites = make([]Satellite, len(s.Satellites))
		copy(out.Satellites, s.Satellites)
	}
	return out
}

// SystemCounts returns the number of satellites in view per constellation.
func (s Snapshot) SystemCounts() map[System]int {
	counts := make(map[System]int)
	for _, sat := range s.Satellites {
		counts[sat.System]++
	}
	return counts
}

// UsedCount returns how many satellites of the list carry the used flag.
func (s Snapshot) UsedCount() int {
	n := 0
	for _, sat := range s.Satellites {
		if sat.Used {
			n++
		}
	}
	return n
}

// SystemSummary formats SystemCounts as "BDS=3 GPS=8", sorted by system.
// It returns "" when there are no satellites.
func (s Snapshot) SystemSummary() string {
	counts := s.SystemCounts()
	names := make([]string, 0, len(counts))
	for sys := range counts {
		names = append(names, string(sys))
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, counts[System(name)]))
	}
	return strings.Join(parts, " ")
}
