// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/replay/main.go
//
// Offline replay of a recorded NMEA log. Lines that do not start with '$'
// or lack a '*' are dropped, the rest are fed through the parser and the
// final receiver state is printed.
//
// Run:
//
//	go run ./cmd/replay -file capture.nmea
//	go run ./cmd/replay -file capture.nmea -follow -json
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/HeyZhuang/NMEA-Inspector/internal/app"
)

func main() {
	path := flag.String("file", "", "NMEA log to replay")
	interval := flag.Duration("interval", 0, "delay between sentences (0 replays as fast as possible)")
	follow := flag.Bool("follow", false, "print every published snapshot")
	asJSON := flag.Bool("json", false, "print JSON instead of text")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err := app.RunReplay(ctx, app.ReplayOptions{
		Path:     *path,
		Interval: *interval,
		Follow:   *follow,
		JSON:     *asJSON,
	}, os.Stdout)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
