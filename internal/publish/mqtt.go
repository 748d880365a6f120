// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package publish

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/HeyZhuang/NMEA-Inspector/internal/gps"
)

// Topics names where each view of a snapshot is published. Empty topics
// are skipped.
type Topics struct {
	Snapshot   string // full gps.Snapshot
	Position   string
	Velocity   string
	Quality    string
	Satellites string
	Raw        string // raw NMEA lines, see MQTT.PublishRaw
}

// Position is the payload published on Topics.Position.
type Position struct {
	Timestamp   time.Time `json:"timestamp"`
	Time        string    `json:"time"`
	Date        string    `json:"date"`
	LocalTime   string    `json:"local_time"`
	Latitude    float64   `json:"lat"`
	Longitude   float64   `json:"lon"`
	HasPosition bool      `json:"has_position"`
	Altitude    float64   `json:"altitude_m"`
}

// Velocity is the payload published on Topics.Velocity.
type Velocity struct {
	Timestamp time.Time `json:"timestamp"`
	Speed     float64   `json:"speed_mps"`
	Course    float64   `json:"course_deg"`
}

// Quality is the payload published on Topics.Quality.
type Quality struct {
	Timestamp          time.Time   `json:"timestamp"`
	FixType            gps.FixType `json:"fix_type"`
	SatelliteCount     int         `json:"satellite_count"`
	UsedSatelliteCount int         `json:"used_satellite_count"`
	HDOP               float64     `json:"hdop"`
	PDOP               float64     `json:"pdop"`
	VDOP               float64     `json:"vdop"`
	HasDOP             bool        `json:"has_dop"`
}

// Satellites is the payload published on Topics.Satellites.
type Satellites struct {
	Timestamp time.Time          `json:"timestamp"`
	InView    int                `json:"in_view"`
	Used      int                `json:"used"`
	Systems   map[gps.System]int `json:"systems"`
	List      []gps.Satellite    `json:"list"`
}

// Message is one MQTT publication.
type Message struct {
	Topic   string
	Payload []byte
}

// Payloads splits s into the messages published for it, in a fixed order.
func Payloads(s gps.Snapshot, t Topics) ([]Message, error) {
	views := []struct {
		topic string
		v     any
	}{
		{t.Snapshot, s},
		{t.Position, Position{
			Timestamp: s.Timestamp, Time: s.Time, Date: s.Date, LocalTime: s.LocalTime,
			Latitude: s.Latitude, Longitude: s.Longitude, HasPosition: s.HasPosition, Altitude: s.Altitude,
		}},
		{t.Velocity, Velocity{Timestamp: s.Timestamp, Speed: s.Speed, Course: s.Course}},
		{t.Quality, Quality{
			Timestamp: s.Timestamp, FixType: s.FixType,
			SatelliteCount: s.SatelliteCount, UsedSatelliteCount: s.UsedSatelliteCount,
			HDOP: s.HDOP, PDOP: s.PDOP, VDOP: s.VDOP, HasDOP: s.HasDOP,
		}},
		{t.Satellites, Satellites{
			Timestamp: s.Timestamp, InView: len(s.Satellites), Used: s.UsedCount(),
			Systems: s.SystemCounts(), List: sortedSatellites(s.Satellites),
		}},
	}

	var out []Message
	for _, view := range views {
		if view.topic == "" {
			continue
		}
		payload, err := json.Marshal(view.v)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", view.topic, err)
		}
		out = append(out, Message{Topic: view.topic, Payload: payload})
	}
	return out, nil
}

func sortedSatellites(in []gps.Satellite) []gps.Satellite {
	out := make([]gps.Satellite, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].System != out[j].System {
			return out[i].System < out[j].System
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// MQTTConfig describes the broker connection.
type MQTTConfig struct {
	Broker   string // e.g. tcp://localhost:1883
	ClientID string // a random suffix is appended
	Topics   Topics
	Logger   *log.Logger
}

// publisher is the part of mqtt.Client the sink needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes snapshots as retained JSON messages.
type MQTT struct {
	client publisher
	close  func()
	topics Topics
	logger *log.Logger
}

// ClientID returns base with a random suffix so several instances can
// share a broker.
func ClientID(base string) string {
	if base == "" {
		base = "nmea-inspector"
	}
	return base + "-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
}

// NewMQTT connects to the broker.
func NewMQTT(cfg MQTTConfig) (*MQTT, error) {
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(ClientID(cfg.ClientID)).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}

	m := newMQTT(client, cfg.Topics, cfg.Logger)
	m.close = func() { client.Disconnect(250) }
	return m, nil
}

func newMQTT(client publisher, topics Topics, logger *log.Logger) *MQTT {
	if logger == nil {
		logger = log.Default()
	}
	return &MQTT{client: client, topics: topics, logger: logger}
}

// Publish sends every configured view of s and returns the first error.
func (m *MQTT) Publish(s gps.Snapshot) error {
	msgs, err := Payloads(s, m.topics)
	if err != nil {
		return err
	}
	var firstErr error
	for _, msg := range msgs {
		token := m.client.Publish(msg.Topic, 0, true, msg.Payload)
		token.Wait()
		if err := token.Error(); err != nil {
			m.logger.Printf("mqtt: publish %s failed: %v", msg.Topic, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("publish %s: %w", msg.Topic, err)
			}
		}
	}
	return firstErr
}

// PublishRaw forwards one raw line when a raw topic is configured.
func (m *MQTT) PublishRaw(line string) error {
	if m.topics.Raw == "" {
		return nil
	}
	token := m.client.Publish(m.topics.Raw, 0, false, line)
	token.Wait()
	return token.Error()
}

func (m *MQTT) Close() {
	if m.close != nil {
		m.close()
	}
}
