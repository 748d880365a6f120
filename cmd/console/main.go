// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/HeyZhuang/NMEA-Inspector/internal/app"
	"github.com/HeyZhuang/NMEA-Inspector/internal/config"
)

func main() {
	configPath := flag.String("config", "./nmea_config.txt", "path to configuration file (.txt or .yaml)")
	flag.Parse()

	log.Println("starting nmea-inspector console (local receiver)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
