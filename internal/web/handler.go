// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package web

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HeyZhuang/NMEA-Inspector/internal/display"
	"github.com/HeyZhuang/NMEA-Inspector/internal/gps"
	"github.com/HeyZhuang/NMEA-Inspector/internal/monitor"
)

// State is what the HTTP API reads from.
type State interface {
	// Latest returns the last snapshot and whether one was published yet.
	Latest() (gps.Snapshot, bool)
	RawTail() []string
}

// SystemsView is the /api/systems payload.
type SystemsView struct {
	InView  int                `json:"in_view"`
	Used    int                `json:"used"`
	Systems map[gps.System]int `json:"systems"`
}

// Handler serves the inspector API:
//
//	/api/snapshot  latest snapshot as JSON
//	/api/systems   satellites in view per constellation
//	/api/raw       recent raw lines with checksum diagnostics
//	/status.png    128x64 status card
//	/ws            live snapshot stream
//	/metrics       Prometheus metrics, when gatherer is non-nil
func Handler(state State, hub *Hub, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/snapshot", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := state.Latest()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, snap)
	})

	mux.HandleFunc("/api/systems", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := state.Latest()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, SystemsView{
			InView:  len(snap.Satellites),
			Used:    snap.UsedCount(),
			Systems: snap.SystemCounts(),
		})
	})

	mux.HandleFunc("/api/raw", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, monitor.InspectAll(state.RawTail()))
	})

	mux.HandleFunc("/status.png", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := state.Latest()
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		if err := display.EncodePNG(w, display.Render(snap, ok)); err != nil {
			log.Printf("web: %v", err)
		}
	})

	if hub != nil {
		mux.HandleFunc("/ws", hub.ServeWS)
	}
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}
