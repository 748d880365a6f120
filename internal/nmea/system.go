package nmea

import "github.com/HeyZhuang/NMEA-Inspector/internal/gps"

// SystemByTalker resolves the constellation from a sentence talker prefix.
// Only the first two characters are considered. GN yields gps.SystemMulti,
// which callers treat as unresolved.
func SystemByTalker(talker string) gps.System {
	if len(talker) < 2 {
		return gps.SystemUnknown
	}
	switch talker[:2] {
	case "GP":
		return gps.SystemGPS
	case "BD", "GB":
		return gps.SystemBDS
	case "GL":
		return gps.SystemGLN
	case "GA":
		return gps.SystemGAL
	case "GN":
		return gps.SystemMulti
	default:
		return gps.SystemUnknown
	}
}

// SystemByID resolves the constellation from a bare satellite identifier
// using the receiver's numbering ranges.
func SystemByID(id int) gps.System {
	switch {
	case id >= 1 && id <= 32:
		return gps.SystemGPS
	case id >= 33 && id <= 64:
		return gps.SystemGLN
	case id >= 65 && id <= 96:
		return gps.SystemGAL
	case id >= 97 && id <= 158:
		return gps.SystemBDS
	case id >= 159 && id <= 192:
		return gps.SystemQZSS
	case id >= 193 && id <= 256:
		return gps.SystemSBAS
	default:
		return gps.SystemUnknown
	}
}
