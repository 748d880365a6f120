// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package publish

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/HeyZhuang/NMEA-Inspector/internal/gps"
)

// InfluxConfig selects the InfluxDB 2.x bucket snapshots are written to.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
	Logger *log.Logger
}

// Influx writes snapshot history through the non-blocking write API.
type Influx struct {
	client influxdb2.Client
	write  api.WriteAPI
}

func NewInflux(cfg InfluxConfig) (*Influx, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("influx url is required")
	}
	if cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx org and bucket are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().SetBatchSize(100))
	w := client.WriteAPI(cfg.Org, cfg.Bucket)

	in := &Influx{client: client, write: w}
	// The client closes the error channel on Close.
	go func() {
		for err := range w.Errors() {
			logger.Printf("influx: write failed: %v", err)
		}
	}()
	return in, nil
}

// Publish queues the points for s. It does not block on the network.
func (in *Influx) Publish(s gps.Snapshot) {
	for _, p := range Points(s, time.Now()) {
		in.write.WritePoint(p)
	}
}

// Close flushes pending points and releases the client.
func (in *Influx) Close() {
	in.write.Flush()
	in.client.Close()
}

// Points converts s into line protocol points. Points are stamped with
// s.Timestamp, or now when the snapshot has none.
func Points(s gps.Snapshot, now time.Time) []*write.Point {
	ts := s.Timestamp
	if ts.IsZero() {
		ts = now
	}
	fix := string(s.FixType)
	if fix == "" {
		fix = string(gps.FixUnknown)
	}

	var out []*write.Point
	if s.HasPosition {
		out = append(out, influxdb2.NewPointWithMeasurement("position").
			AddTag("fix_type", fix).
			AddField("latitude", s.Latitude).
			AddField("longitude", s.Longitude).
			AddField("altitude", s.Altitude).
			SetTime(ts))
	}

	out = append(out, influxdb2.NewPointWithMeasurement("motion").
		AddField("speed", s.Speed).
		AddField("course", s.Course).
		SetTime(ts))

	quality := influxdb2.NewPointWithMeasurement("quality").
		AddTag("fix_type", fix).
		AddField("satellites_in_view", s.SatelliteCount).
		AddField("satellites_used", s.UsedSatelliteCount).
		SetTime(ts)
	if s.HasDOP {
		quality.AddField("hdop", s.HDOP).
			AddField("pdop", s.PDOP).
			AddField("vdop", s.VDOP)
	}
	out = append(out, quality)

	for _, sat := range s.Satellites {
		out = append(out, influxdb2.NewPointWithMeasurement("satellite").
			AddTag("system", string(sat.System)).
			AddTag("id", strconv.Itoa(sat.ID)).
			AddField("elevation", sat.Elevation).
			AddField("azimuth", sat.Azimuth).
			AddField("snr", sat.SNR).
			AddField("used", sat.Used).
			SetTime(ts))
	}
	return out
}
