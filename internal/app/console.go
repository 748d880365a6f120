// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/HeyZhuang/NMEA-Inspector/internal/config"
	"github.com/HeyZhuang/NMEA-Inspector/internal/gps"
	"github.com/HeyZhuang/NMEA-Inspector/internal/ingest"
)

// RunConsole reads the configured receiver directly, without a broker,
// and prints every snapshot.
func RunConsole() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := ingest.New(ingest.Config{TailLines: -1})
	svc.AddSink(func(s gps.Snapshot) {
		fmt.Println(formatSnapshot(s))
	})

	src, err := lineSource(cfg, svc)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx, src); err != nil {
		return err
	}
	defer svc.Close()
	return svc.Wait()
}
