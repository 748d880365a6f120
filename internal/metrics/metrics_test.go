package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HeyZhuang/NMEA-Inspector/internal/gps"
	"github.com/HeyZhuang/NMEA-Inspector/internal/nmea"
)

func TestOutcome(t *testing.T) {
	cases := map[string]error{
		OutcomeOK:                 nil,
		OutcomeMalformed:          fmt.Errorf("wrap: %w", nmea.ErrMalformed),
		OutcomeInsufficientFields: &nmea.DecodeError{Kind: nmea.KindGGA, Reason: nmea.ErrInsufficientFields, Field: -1},
		OutcomeNumeric:            &nmea.DecodeError{Kind: nmea.KindGSV, Reason: nmea.ErrNumeric, Field: 2},
		OutcomeUnrecognized:       &nmea.DecodeError{Kind: "TXT", Reason: nmea.ErrUnrecognized, Field: -1},
		OutcomeOther:              errors.New("boom"),
	}
	for want, err := range cases {
		assert.Equal(t, want, Outcome(err), "err=%v", err)
	}
}

func TestObserveParse_CountsByKindAndOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveParse(nmea.Result{Kind: nmea.KindGGA}, nil)
	m.ObserveParse(nmea.Result{Kind: nmea.KindGGA}, nil)
	m.ObserveParse(nmea.Result{Kind: nmea.KindGSV}, &nmea.DecodeError{Kind: nmea.KindGSV, Reason: nmea.ErrNumeric, Field: 1})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sentences.WithLabelValues("GGA", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sentences.WithLabelValues("GSV", OutcomeNumeric)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.sentences))
}

func TestObserveParse_UnknownKindsShareOneLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	for _, k := range []nmea.Kind{"TXT", "X#Q", "", "GGA\x00"} {
		m.ObserveParse(nmea.Result{Kind: k}, &nmea.DecodeError{Kind: k, Reason: nmea.ErrUnrecognized, Field: -1})
	}

	assert.Equal(t, 4.0, testutil.ToFloat64(m.sentences.WithLabelValues("other", OutcomeUnrecognized)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.sentences))
}

func TestObserveSnapshot(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveSnapshot(gps.Snapshot{
		Latitude: 48.1173, Longitude: 11.5167, HasPosition: true,
		Altitude: 545.4, Speed: 2.5,
		HDOP: 1.1, PDOP: 2.0, VDOP: 1.7, HasDOP: true,
		UsedSatelliteCount: 2,
		Satellites: []gps.Satellite{
			{ID: 1, System: gps.SystemGPS, Used: true},
			{ID: 2, System: gps.SystemGPS, Used: true},
			{ID: 70, System: gps.SystemGLN},
		},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.published))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.satsInView.WithLabelValues("GPS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.satsInView.WithLabelValues("GLN")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.satsUsed))
	assert.InDelta(t, 48.1173, testutil.ToFloat64(m.latitude), 1e-9)
	assert.InDelta(t, 2.0, testutil.ToFloat64(m.dop.WithLabelValues("position")), 1e-9)

	// A later view without GLONASS drops that series.
	m.ObserveSnapshot(gps.Snapshot{Satellites: []gps.Satellite{{ID: 3, System: gps.SystemGPS}}})
	assert.Equal(t, 1, testutil.CollectAndCount(m.satsInView))
	// Position is kept when the new snapshot does not carry one.
	assert.InDelta(t, 48.1173, testutil.ToFloat64(m.latitude), 1e-9)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveParse(nmea.Result{}, nil)
	m.ObserveSnapshot(gps.Snapshot{})
}
