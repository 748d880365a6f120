// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/HeyZhuang/NMEA-Inspector/internal/config"
	"github.com/HeyZhuang/NMEA-Inspector/internal/gps"
	"github.com/HeyZhuang/NMEA-Inspector/internal/publish"
)

// RunConsoleMQTT prints snapshots (and raw lines, when a raw topic is
// configured) published by the GPS producer.
func RunConsoleMQTT() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}
	if err := cfg.RequireBroker(); err != nil {
		return err
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(publish.ClientID(cfg.MQTTClientIDConsole))

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	gpsToken := client.Subscribe(cfg.TopicGPS, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s gps.Snapshot
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: gps unmarshal error: %v", err)
			return
		}
		fmt.Println(formatSnapshot(s))
	})
	gpsToken.Wait()
	if gpsToken.Error() != nil {
		return gpsToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicGPS)

	if cfg.TopicNMEARaw != "" {
		rawToken := client.Subscribe(cfg.TopicNMEARaw, 0, func(_ mqtt.Client, msg mqtt.Message) {
			fmt.Printf("[NMEA] %s\n", msg.Payload())
		})
		rawToken.Wait()
		if rawToken.Error() != nil {
			return rawToken.Error()
		}
		log.Printf("console: subscribed to %s", cfg.TopicNMEARaw)
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

// formatSnapshot renders s as one console line.
func formatSnapshot(s gps.Snapshot) string {
	pos := "lat=- lon=-"
	if s.HasPosition {
		pos = fmt.Sprintf("lat=%.6f lon=%.6f", s.Latitude, s.Longitude)
	}
	dop := "dop=-"
	if s.HasDOP {
		dop = fmt.Sprintf("pdop=%.1f hdop=%.1f vdop=%.1f", s.PDOP, s.HDOP, s.VDOP)
	}
	return fmt.Sprintf(
		"[GPS ]  time=%s date=%s local=%s %s alt=%.1fm speed=%.2fm/s course=%.1f° fix=%s sats=%d/%d %s %s",
		orDash(s.Time), orDash(s.Date), orDash(s.LocalTime), pos, s.Altitude, s.Speed, s.Course,
		orDash(string(s.FixType)), s.UsedSatelliteCount, s.SatelliteCount, dop, systemSummary(s),
	)
}

func systemSummary(s gps.Snapshot) string {
	if summary := s.SystemSummary(); summary != "" {
		return summary
	}
	return "systems=-"
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
