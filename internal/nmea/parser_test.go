package nmea

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HeyZhuang/NMEA-Inspector/internal/gps"
)

const ggaLine = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,,,,*47"

var (
	gsvPart1 = line("GPGSV", "2", "1", "08", "01", "40", "083", "46", "02", "17", "308", "41", "12", "07", "344", "39", "14", "22", "228", "45")
	gsvPart2 = line("GPGSV", "2", "2", "08", "15", "05", "100", "30", "18", "60", "050", "", "00", "00", "000", "00")
)

func collect(p *Parser) *[]gps.Snapshot {
	var got []gps.Snapshot
	p.Subscribe(func(s gps.Snapshot) { got = append(got, s) })
	return &got
}

func TestParse_GGAScenario(t *testing.T) {
	p := newTestParser(t)
	got := collect(p)

	res, err := p.Parse(ggaLine)
	require.NoError(t, err)
	assert.Equal(t, Result{Talker: "GP", Kind: KindGGA, Published: true}, res)
	require.Len(t, *got, 1)

	s := (*got)[0]
	assert.InDelta(t, 48.1173, s.Latitude, 1e-4)
	assert.InDelta(t, 11.5167, s.Longitude, 1e-4)
	assert.True(t, s.HasPosition)
	assert.Equal(t, gps.FixSingle, s.FixType)
	assert.Equal(t, 8, s.SatelliteCount)
	assert.InDelta(t, 0.9, s.HDOP, 1e-9)
	assert.InDelta(t, 545.4, s.Altitude, 1e-9)
	assert.Equal(t, "12:35:19", s.Time)
	assert.Equal(t, "20:35:19", s.LocalTime)
	assert.Equal(t, testNow, s.Timestamp)
}

func TestParse_GGAWithoutTimeUsesClockForLocalTime(t *testing.T) {
	p := newTestParser(t)
	_, err := p.Parse(line("GNGGA", "", "", "", "", "", "0", "00", "", "", "", "", "", "", ""))
	require.NoError(t, err)

	s := p.Snapshot()
	assert.Equal(t, "09:02:03", s.LocalTime)
	assert.Equal(t, gps.FixNone, s.FixType)
	assert.False(t, s.HasPosition)
	assert.False(t, s.HasDOP)
	assert.Equal(t, "", s.Time)
}

func TestParse_RMC(t *testing.T) {
	p := newTestParser(t)
	_, err := p.Parse("$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A")
	require.NoError(t, err)

	s := p.Snapshot()
	assert.Equal(t, "12:35:19", s.Time)
	assert.Equal(t, "2094:03:23", s.Date)
	assert.Equal(t, gps.FixValid, s.FixType)
	assert.InDelta(t, 48.1173, s.Latitude, 1e-4)
	assert.InDelta(t, 22.4*0.514444, s.Speed, 1e-9)
	assert.InDelta(t, 84.4, s.Course, 1e-9)
	assert.Equal(t, time.Date(2094, 3, 23, 12, 35, 19, 0, time.UTC), s.Timestamp)

	_, err = p.Parse(line("GPRMC", "123520", "V", "", "", "", "", "", "", "", "", ""))
	require.NoError(t, err)
	s = p.Snapshot()
	assert.Equal(t, gps.FixInvalid, s.FixType)
	assert.False(t, s.HasPosition)
	assert.Equal(t, "2094:03:23", s.Date, "missing date keeps the previous one")
	assert.Equal(t, testNow, s.Timestamp)
}

func TestParse_GLLVTGZDA(t *testing.T) {
	p := newTestParser(t)

	_, err := p.Parse("$GPGLL,4916.45,N,12311.12,W,225444,A*1D")
	require.NoError(t, err)
	s := p.Snapshot()
	assert.InDelta(t, 49.2741667, s.Latitude, 1e-6)
	assert.InDelta(t, -123.1853333, s.Longitude, 1e-6)
	assert.Equal(t, "22:54:44", s.Time)
	assert.Equal(t, gps.FixType(""), s.FixType, "GLL does not touch fix type")
	assert.Equal(t, "", s.Date, "GLL does not touch date")

	_, err = p.Parse("$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K*48")
	require.NoError(t, err)
	s = p.Snapshot()
	assert.InDelta(t, 54.7, s.Course, 1e-9)
	assert.InDelta(t, 10.2*0.277778, s.Speed, 1e-9)

	_, err = p.Parse("$GPZDA,201530.00,04,07,2002,00,00*60")
	require.NoError(t, err)
	s = p.Snapshot()
	assert.Equal(t, "20:15:30", s.Time)
	assert.Equal(t, "2002:07:04", s.Date)
}

func TestParse_GSVTwoPartsPublishOnlyOnLast(t *testing.T) {
	p := newTestParser(t)
	got := collect(p)

	res, err := p.Parse(gsvPart1)
	require.NoError(t, err)
	assert.False(t, res.Published)
	assert.Empty(t, *got)

	res, err = p.Parse(gsvPart2)
	require.NoError(t, err)
	assert.True(t, res.Published)
	require.Len(t, *got, 1)

	s := (*got)[0]
	require.Len(t, s.Satellites, 6, "id 00 record is dropped")
	assert.Equal(t, 6, s.SatelliteCount)
	assert.Equal(t, []int{1, 2, 12, 14, 15, 18}, satIDs(s.Satellites))
	assert.Equal(t, gps.Satellite{ID: 1, Elevation: 40, Azimuth: 83, SNR: 46, System: gps.SystemGPS}, s.Satellites[0])
	assert.Equal(t, 0, s.Satellites[5].SNR, "empty SNR means not reported")
}

func TestParse_GSVSystemsByIDAndTalkerFallback(t *testing.T) {
	p := newTestParser(t)
	_, err := p.Parse(line("BDGSV", "1", "1", "03", "120", "45", "100", "40", "300", "10", "20", "30", "40", "12", "200", "25"))
	require.NoError(t, err)

	s := p.Snapshot()
	require.Len(t, s.Satellites, 3)
	assert.Equal(t, gps.SystemBDS, s.Satellites[0].System)
	assert.Equal(t, gps.SystemBDS, s.Satellites[1].System, "out-of-range id falls back to talker")
	assert.Equal(t, gps.SystemGLN, s.Satellites[2].System, "id range wins over talker")

	_, err = p.Parse(line("GNGSV", "1", "1", "01", "300", "10", "20", "30"))
	require.NoError(t, err)
	assert.Equal(t, gps.SystemUnknown, p.Snapshot().Satellites[0].System)
}

func TestParse_GSVOutOfOrderSelfHeals(t *testing.T) {
	p := newTestParser(t)

	// Part 2 first: it completes a (partial) sequence on its own.
	_, err := p.Parse(gsvPart2)
	require.NoError(t, err)
	assert.Equal(t, []int{15, 18}, satIDs(p.Snapshot().Satellites))

	// A dropped final part followed by a fresh sequence.
	_, err = p.Parse(gsvPart1)
	require.NoError(t, err)
	_, err = p.Parse(gsvPart1)
	require.NoError(t, err)
	_, err = p.Parse(gsvPart2)
	require.NoError(t, err)

	s := p.Snapshot()
	assert.Equal(t, []int{1, 2, 12, 14, 15, 18}, satIDs(s.Satellites))
	assert.Equal(t, 6, s.SatelliteCount)
}

func TestParse_GSVInvalidIndexRejected(t *testing.T) {
	p := newTestParser(t)
	for _, l := range []string{
		line("GPGSV", "", "", ""),
		line("GPGSV", "2", "3", "08"),
		line("GPGSV", "2", "0", "08"),
	} {
		_, err := p.Parse(l)
		assert.True(t, errors.Is(err, ErrNumeric), "line %s err=%v", l, err)
	}
	assert.Nil(t, p.Snapshot().Satellites)
}

func TestParse_GSAScenario(t *testing.T) {
	p := newTestParser(t)
	_, err := p.Parse(gsvPart1)
	require.NoError(t, err)
	_, err = p.Parse(gsvPart2)
	require.NoError(t, err)

	_, err = p.Parse(gsaLine([]string{"1", "2"}, "2.1", "1.2", "1.8"))
	require.NoError(t, err)

	s := p.Snapshot()
	assert.Equal(t, 2, s.UsedSatelliteCount)
	assert.Equal(t, 2.1, s.PDOP)
	assert.Equal(t, 1.2, s.HDOP)
	assert.Equal(t, 1.8, s.VDOP)
	assert.True(t, s.HasDOP)
	assert.Equal(t, gps.FixPPS, s.FixType, "GSA fix code 3 uses the GGA table")
	assert.Equal(t, []int{1, 2}, usedIDs(s.Satellites))
	assert.LessOrEqual(t, s.UsedSatelliteCount, len(s.Satellites))
}

func TestParse_GSAUnknownSatelliteIsNoop(t *testing.T) {
	p := newTestParser(t)
	_, err := p.Parse(gsvPart1)
	require.NoError(t, err)
	_, err = p.Parse(gsvPart2)
	require.NoError(t, err)
	_, err = p.Parse(gsaLine([]string{"12"}, "2.0", "1.0", "1.5"))
	require.NoError(t, err)

	_, err = p.Parse(gsaLine([]string{"99", "", "0"}, "2.0", "1.0", "1.5"))
	require.NoError(t, err)

	s := p.Snapshot()
	assert.Equal(t, 1, s.UsedSatelliteCount)
	assert.Empty(t, usedIDs(s.Satellites), "a newer GPS GSA replaces the GPS used flags")
}

func TestParse_GSAReplacesUsedFlags(t *testing.T) {
	p := newTestParser(t)
	for _, l := range []string{gsvPart1, gsvPart2,
		gsaLine([]string{"1", "2"}, "2.0", "1.0", "1.5"),
		gsaLine([]string{"12"}, "2.0", "1.0", "1.5"),
	} {
		_, err := p.Parse(l)
		require.NoError(t, err)
	}

	s := p.Snapshot()
	assert.Equal(t, []int{12}, usedIDs(s.Satellites))
	assert.Equal(t, s.UsedSatelliteCount, s.UsedCount())
}

func TestParse_GSAPerSystemId(t *testing.T) {
	p := newTestParser(t)
	gsv := line("GNGSV", "1", "1", "03", "01", "40", "083", "46", "02", "17", "308", "41", "120", "07", "344", "39")
	_, err := p.Parse(gsv)
	require.NoError(t, err)

	_, err = p.Parse(gnGSA("1", "1", "2"))
	require.NoError(t, err)
	_, err = p.Parse(gnGSA("4", "120"))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 120}, usedIDs(p.Snapshot().Satellites))

	_, err = p.Parse(gnGSA("1", "2"))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 120}, usedIDs(p.Snapshot().Satellites), "GPS GSA leaves BDS flags alone")

	// Without a system id the sentence covers every constellation.
	_, err = p.Parse(gnGSA("", "1"))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, usedIDs(p.Snapshot().Satellites))
}

func TestParse_GGAEmptyHDOPKeepsPrevious(t *testing.T) {
	p := newTestParser(t)
	_, err := p.Parse(gsaLine([]string{"1"}, "2.1", "1.2", "1.8"))
	require.NoError(t, err)
	_, err = p.Parse(line("GPGGA", "123519", "4807.038", "N", "01131.000", "E", "1", "08", "", "545.4", "M", "", "", "", ""))
	require.NoError(t, err)

	s := p.Snapshot()
	assert.True(t, s.HasDOP)
	assert.Equal(t, 1.2, s.HDOP)
	assert.Equal(t, 545.4, s.Altitude)
}

func TestParse_InsufficientFieldsLeavesStateUntouched(t *testing.T) {
	p := newTestParser(t)
	got := collect(p)
	_, err := p.Parse(ggaLine)
	require.NoError(t, err)
	before := p.snap.Clone()

	for _, l := range []string{
		line("GPGGA", "123600", "4807.038", "N"),
		line("GPRMC", "123600", "A"),
		line("GPGSA", "A", "3", "1"),
		line("GPGSV", "1", "1"),
		line("GPGLL", "4916.45", "N"),
		line("GPVTG", "054.7", "T"),
		line("GPZDA", "201530.00", "04"),
	} {
		_, err := p.Parse(l)
		assert.True(t, errors.Is(err, ErrInsufficientFields), "line %s err=%v", l, err)
	}
	assert.Equal(t, before, p.snap)
	assert.Len(t, *got, 1)
}

func TestParse_NumericErrorLeavesStateUntouched(t *testing.T) {
	p := newTestParser(t)
	_, err := p.Parse(gsvPart1)
	require.NoError(t, err)
	_, err = p.Parse(gsvPart2)
	require.NoError(t, err)
	_, err = p.Parse(ggaLine)
	require.NoError(t, err)
	before := p.snap.Clone()

	bad := []string{
		"$GPGGA,123519,48x7.038,N,01131.000,E,1,08,0.9,545.4,M,,,,*00",
		"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,5a5.4,M,,,,*00",
		gsaLine([]string{"1", "x2"}, "2.1", "1.2", "1.8"),
		gsaLine([]string{"1", "2"}, "2.1", "1.2", "high"),
		line("GPVTG", "054.7", "T", "034.4", "M", "005.5", "N", "fast", "K"),
		line("GPZDA", "201530.00", "4th", "07", "2002", "00", "00"),
	}
	for _, l := range bad {
		_, err := p.Parse(l)
		var de *DecodeError
		require.True(t, errors.As(err, &de), "line %s err=%v", l, err)
		assert.Equal(t, ErrNumeric, de.Reason)
	}
	assert.Equal(t, before, p.snap)
}

func TestParse_GSVNumericErrorKeepsAccumulator(t *testing.T) {
	p := newTestParser(t)
	_, err := p.Parse(gsvPart1)
	require.NoError(t, err)

	_, err = p.Parse(line("GPGSV", "2", "2", "08", "15", "xx", "100", "30"))
	require.True(t, errors.Is(err, ErrNumeric))

	_, err = p.Parse(gsvPart2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 12, 14, 15, 18}, satIDs(p.Snapshot().Satellites))
}

func TestParse_UnrecognizedAndMalformed(t *testing.T) {
	p := newTestParser(t)
	got := collect(p)

	_, err := p.Parse("$GPTXT,01,01,02,ANTSTATUS=OK*3B")
	assert.True(t, errors.Is(err, ErrUnrecognized))
	assert.True(t, IsSkippable(err))

	_, err = p.Parse("$PUBX,00,081350.00*00")
	assert.True(t, errors.Is(err, ErrUnrecognized))

	_, err = p.Parse("GPGGA,123519")
	assert.True(t, errors.Is(err, ErrMalformed))
	assert.True(t, IsSkippable(err))

	assert.Empty(t, *got)
	assert.Equal(t, gps.Snapshot{}, p.snap)
}

func TestParse_RepeatedSentenceIsIdempotent(t *testing.T) {
	p := newTestParser(t)
	_, err := p.Parse(gsvPart1)
	require.NoError(t, err)
	_, err = p.Parse(gsvPart2)
	require.NoError(t, err)

	for _, l := range []string{
		ggaLine,
		"$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A",
		gsaLine([]string{"1", "2"}, "2.1", "1.2", "1.8"),
		"$GPGLL,4916.45,N,12311.12,W,225444,A*1D",
		"$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K*48",
		"$GPZDA,201530.00,04,07,2002,00,00*60",
	} {
		_, err := p.Parse(l)
		require.NoError(t, err)
		first := p.Snapshot()
		_, err = p.Parse(l)
		require.NoError(t, err)
		assert.Equal(t, first, p.Snapshot(), "line %s", l)
	}
}

func TestSubscribe_ReceivesPrivateCopies(t *testing.T) {
	p := newTestParser(t)
	p.Subscribe(func(s gps.Snapshot) {
		if len(s.Satellites) > 0 {
			s.Satellites[0].Used = true
			s.Satellites[0].ID = 999
		}
	})
	got := collect(p)

	_, err := p.Parse(gsvPart1)
	require.NoError(t, err)
	_, err = p.Parse(gsvPart2)
	require.NoError(t, err)

	require.Len(t, *got, 1)
	assert.Equal(t, 1, (*got)[0].Satellites[0].ID)
	assert.False(t, (*got)[0].Satellites[0].Used)
	assert.Equal(t, 1, p.snap.Satellites[0].ID)
}

func TestSubscribe_Cancel(t *testing.T) {
	p := newTestParser(t)
	calls := 0
	cancel := p.Subscribe(func(gps.Snapshot) { calls++ })

	_, err := p.Parse(ggaLine)
	require.NoError(t, err)
	cancel()
	cancel()
	_, err = p.Parse(ggaLine)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestReset(t *testing.T) {
	p := newTestParser(t)
	_, err := p.Parse(ggaLine)
	require.NoError(t, err)
	_, err = p.Parse(gsvPart1)
	require.NoError(t, err)

	p.Reset()
	assert.Equal(t, gps.Snapshot{}, p.Snapshot())

	// The pending part 1 is gone: part 2 alone completes with its own records.
	_, err = p.Parse(gsvPart2)
	require.NoError(t, err)
	assert.Equal(t, []int{15, 18}, satIDs(p.Snapshot().Satellites))
}

func satIDs(sats []gps.Satellite) []int {
	out := make([]int, 0, len(sats))
	for _, s := range sats {
		out = append(out, s.ID)
	}
	return out
}

func usedIDs(sats []gps.Satellite) []int {
	var out []int
	for _, s := range sats {
		if s.Used {
			out = append(out, s.ID)
		}
	}
	return out
}
