package nmea

import "github.com/HeyZhuang/NMEA-Inspector/internal/gps"

// gsvAssembler collects the satellite records of a multi-part GSV sequence.
//
// Message index 1 always starts a new list, whatever came before, so a
// dropped or reordered part only spoils the sequence it belongs to.
type gsvAssembler struct {
	pending []gps.Satellite
}

// add appends one part. When index reaches total the accumulated list is
// handed back and the assembler waits for the next index 1.
func (a *gsvAssembler) add(index, total int, sats []gps.Satellite) ([]gps.Satellite, bool) {
	if index == 1 {
		a.pending = nil
	}
	a.pending = append(a.pending, sats...)

	if index != total {
		return nil, false
	}
	out := a.pending
	if out == nil {
		out = []gps.Satellite{}
	}
	a.pending = nil
	return out, true
}

// reset drops any partial sequence.
func (a *gsvAssembler) reset() {
	*a = gsvAssembler{}
}
