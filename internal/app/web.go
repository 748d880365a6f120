// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/HeyZhuang/NMEA-Inspector/internal/config"
	"github.com/HeyZhuang/NMEA-Inspector/internal/gps"
	"github.com/HeyZhuang/NMEA-Inspector/internal/monitor"
	"github.com/HeyZhuang/NMEA-Inspector/internal/publish"
	"github.com/HeyZhuang/NMEA-Inspector/internal/web"
)

// subscriberState is the web.State of a web server fed from MQTT rather
// than from a local receiver.
type subscriberState struct {
	mu   sync.RWMutex
	last gps.Snapshot
	have bool
	tail *monitor.Tail
	hub  *web.Hub
}

func newSubscriberState(tailLines int, hub *web.Hub) *subscriberState {
	return &subscriberState{tail: monitor.NewTail(tailLines), hub: hub}
}

func (s *subscriberState) Latest() (gps.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last.Clone(), s.have
}

func (s *subscriberState) RawTail() []string {
	return s.tail.Lines()
}

func (s *subscriberState) applySnapshot(payload []byte) error {
	var snap gps.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return err
	}
	s.mu.Lock()
	s.last = snap
	s.have = true
	s.mu.Unlock()
	if s.hub != nil {
		s.hub.Publish(snap)
	}
	return nil
}

func (s *subscriberState) applyRaw(payload []byte) {
	s.tail.Add(string(payload))
}

// RunWeb serves the inspector web view from snapshots published on MQTT.
func RunWeb() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}
	if err := cfg.RequireBroker(); err != nil {
		return err
	}

	hub := web.NewHub()
	state := newSubscriberState(cfg.RawTailLines, hub)

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(publish.ClientID(cfg.MQTTClientIDWeb))

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to the snapshot topic and, if set, the raw line topic
	token := client.Subscribe(cfg.TopicGPS, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := state.applySnapshot(msg.Payload()); err != nil {
			log.Printf("web: snapshot unmarshal error: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to MQTT topic %s", cfg.TopicGPS)

	if cfg.TopicNMEARaw != "" {
		token := client.Subscribe(cfg.TopicNMEARaw, 0, func(_ mqtt.Client, msg mqtt.Message) {
			state.applyRaw(msg.Payload())
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("web: subscribed to MQTT topic %s", cfg.TopicNMEARaw)
	}

	// 3) HTTP API
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           web.Handler(state, hub, nil),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("web: server listening on %s", srv.Addr)
	return srv.ListenAndServe()
}
