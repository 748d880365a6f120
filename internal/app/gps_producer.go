// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/HeyZhuang/NMEA-Inspector/internal/config"
	"github.com/HeyZhuang/NMEA-Inspector/internal/gps"
	"github.com/HeyZhuang/NMEA-Inspector/internal/ingest"
	"github.com/HeyZhuang/NMEA-Inspector/internal/metrics"
	"github.com/HeyZhuang/NMEA-Inspector/internal/publish"
	"github.com/HeyZhuang/NMEA-Inspector/internal/source"
	"github.com/HeyZhuang/NMEA-Inspector/internal/web"
)

// RunGPSProducer reads NMEA from the configured serial port or replay
// file, rebuilds the receiver state and publishes every snapshot to MQTT,
// InfluxDB (when configured) and the built-in web server.
func RunGPSProducer() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}
	if err := cfg.RequireBroker(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// ---- 1) Connect to MQTT broker ----
	sink, err := publish.NewMQTT(publish.MQTTConfig{
		Broker:   cfg.MQTTBroker,
		ClientID: cfg.MQTTClientIDGPS,
		Topics:   topicsFromConfig(cfg),
	})
	if err != nil {
		return err
	}
	defer sink.Close()
	log.Printf("gps producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	svc := ingest.New(ingest.Config{
		TailLines: cfg.RawTailLines,
		Metrics:   m,
		OnLine: func(line string) {
			if err := sink.PublishRaw(line); err != nil {
				log.Printf("gps producer: raw publish error: %v", err)
			}
		},
	})
	svc.AddSink(func(s gps.Snapshot) {
		// Errors are logged per topic by the sink.
		_ = sink.Publish(s)
	})

	// ---- 2) Optional InfluxDB history ----
	if cfg.InfluxURL != "" {
		history, err := publish.NewInflux(publish.InfluxConfig{
			URL:    cfg.InfluxURL,
			Token:  cfg.InfluxToken,
			Org:    cfg.InfluxOrg,
			Bucket: cfg.InfluxBucket,
		})
		if err != nil {
			return err
		}
		defer history.Close()
		svc.AddSink(history.Publish)
		log.Printf("gps producer: writing history to %s bucket %s", cfg.InfluxURL, cfg.InfluxBucket)
	}

	// ---- 3) Web view ----
	hub := web.NewHub()
	svc.AddSink(hub.Publish)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           web.Handler(svc, hub, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("gps producer: web server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("gps producer: web server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	// ---- 4) Line source ----
	src, err := lineSource(cfg, svc)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx, src); err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Wait(); err != nil {
		return err
	}
	if cfg.GPSSource == config.SourceReplay && ctx.Err() == nil {
		log.Printf("gps producer: replay finished, serving last state until interrupted")
		<-ctx.Done()
	}
	log.Println("gps producer: shutting down")
	return nil
}

func topicsFromConfig(cfg *config.Config) publish.Topics {
	return publish.Topics{
		Snapshot:   cfg.TopicGPS,
		Position:   cfg.TopicGPSPosition,
		Velocity:   cfg.TopicGPSVelocity,
		Quality:    cfg.TopicGPSQuality,
		Satellites: cfg.TopicGPSSatellites,
		Raw:        cfg.TopicNMEARaw,
	}
}

// lineSource builds the ingest source selected by GPS_SOURCE.
func lineSource(cfg *config.Config, svc *ingest.Service) (ingest.Source, error) {
	switch cfg.GPSSource {
	case config.SourceReplay:
		lines, err := source.LoadReplayFile(cfg.ReplayFile)
		if err != nil {
			return nil, err
		}
		log.Printf("gps source: replaying %d sentences from %s every %s", len(lines), cfg.ReplayFile, cfg.ReplayPace())
		return func(ctx context.Context, emit source.LineFunc) error {
			return source.Replay(ctx, lines, cfg.ReplayPace(), cfg.ReplayLoop, func() {
				log.Printf("gps source: replay restarting")
				svc.Reset()
			}, emit)
		}, nil

	case config.SourceSerial:
		sc := source.SerialConfig{
			PortName: cfg.GPSSerialPort,
			BaudRate: uint(cfg.GPSBaudRate),
			DataBits: uint(cfg.GPSDataBits),
			StopBits: uint(cfg.GPSStopBits),
			Parity:   cfg.GPSParity,
		}
		if _, err := sc.Options(); err != nil {
			return nil, err
		}
		return func(ctx context.Context, emit source.LineFunc) error {
			port, err := source.OpenSerial(sc)
			if err != nil {
				return err
			}
			log.Printf("gps source: serial port opened on %s at %d baud", sc.PortName, sc.BaudRate)
			// Closing the port is the only way to interrupt a blocked read.
			release := context.AfterFunc(ctx, func() { _ = port.Close() })
			defer func() {
				if release() {
					_ = port.Close()
				}
			}()

			err = source.ScanLines(ctx, port, emit)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}, nil

	default:
		return nil, fmt.Errorf("unknown GPS source %q", cfg.GPSSource)
	}
}
