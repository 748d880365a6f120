// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/HeyZhuang/NMEA-Inspector/internal/gps"
	"github.com/HeyZhuang/NMEA-Inspector/internal/nmea"
)

const namespace = "nmea_inspector"

// Outcome label values for the sentences counter.
const (
	OutcomeOK                 = "ok"
	OutcomeMalformed          = "malformed"
	OutcomeInsufficientFields = "insufficient_fields"
	OutcomeNumeric            = "numeric"
	OutcomeUnrecognized       = "unrecognized"
	OutcomeOther              = "error"
)

// Metrics exports parser activity and the latest receiver state.
type Metrics struct {
	sentences *prometheus.CounterVec
	published prometheus.Counter

	satsInView *prometheus.GaugeVec
	satsUsed   prometheus.Gauge

	latitude  prometheus.Gauge
	longitude prometheus.Gauge
	altitude  prometheus.Gauge
	speed     prometheus.Gauge
	course    prometheus.Gauge

	dop *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		sentences: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentences_total",
			Help:      "NMEA lines handled, by sentence kind and outcome.",
		}, []string{"kind", "outcome"}),
		published: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Snapshots delivered to subscribers.",
		}),
		satsInView: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "satellites_in_view",
			Help:      "Satellites in the last committed view, by constellation.",
		}, []string{"system"}),
		satsUsed: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "satellites_used",
			Help:      "Satellites used in the fix according to the last GSA.",
		}),
		latitude: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "latitude_degrees",
			Help:      "Last reported latitude.",
		}),
		longitude: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "longitude_degrees",
			Help:      "Last reported longitude.",
		}),
		altitude: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "altitude_meters",
			Help:      "Last reported altitude above mean sea level.",
		}),
		speed: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "speed_meters_per_second",
			Help:      "Last reported ground speed.",
		}),
		course: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "course_degrees",
			Help:      "Last reported course over ground.",
		}),
		dop: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dilution_of_precision",
			Help:      "Last reported dilution of precision, by type.",
		}, []string{"type"}),
	}
}

// Outcome maps a Parse error to its outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, nmea.ErrMalformed):
		return OutcomeMalformed
	case errors.Is(err, nmea.ErrInsufficientFields):
		return OutcomeInsufficientFields
	case errors.Is(err, nmea.ErrNumeric):
		return OutcomeNumeric
	case errors.Is(err, nmea.ErrUnrecognized):
		return OutcomeUnrecognized
	default:
		return OutcomeOther
	}
}

// kindOther labels every sentence kind the parser does not decode, so wire
// noise cannot grow the label set.
const kindOther = "other"

// ObserveParse counts one handled line.
func (m *Metrics) ObserveParse(res nmea.Result, err error) {
	if m == nil {
		return
	}
	kind := kindOther
	if res.Kind.Known() {
		kind = string(res.Kind)
	}
	m.sentences.WithLabelValues(kind, Outcome(err)).Inc()
}

// ObserveSnapshot records a published snapshot.
func (m *Metrics) ObserveSnapshot(s gps.Snapshot) {
	if m == nil {
		return
	}
	m.published.Inc()

	m.satsInView.Reset()
	for sys, n := range s.SystemCounts() {
		m.satsInView.WithLabelValues(string(sys)).Set(float64(n))
	}
	m.satsUsed.Set(float64(s.UsedSatelliteCount))

	if s.HasPosition {
		m.latitude.Set(s.Latitude)
		m.longitude.Set(s.Longitude)
	}
	m.altitude.Set(s.Altitude)
	m.speed.Set(s.Speed)
	m.course.Set(s.Course)

	if s.HasDOP {
		m.dop.WithLabelValues("horizontal").Set(s.HDOP)
		m.dop.WithLabelValues("position").Set(s.PDOP)
		m.dop.WithLabelValues("vertical").Set(s.VDOP)
	}
}
