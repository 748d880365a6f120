// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/HeyZhuang/NMEA-Inspector/internal/gps"
)

// Card size, matching a 128x64 monochrome OLED.
const (
	Width  = 128
	Height = 64
)

// Five rows of Face7x13 (ascent 11, descent 2) fit 64 pixels at a 12 pixel
// pitch.
const lineHeight = 12

// baseline returns the y of row i.
func baseline(i int) int {
	return basicfont.Face7x13.Ascent + lineHeight*i
}

// Render draws a status card for s. With have unset it shows a waiting
// screen.
func Render(s gps.Snapshot, have bool) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, Width, Height))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
	}

	if !have {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawString("NMEA Inspector")
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawString("Waiting...")
		return img
	}

	for i, text := range Lines(s) {
		drawer.Dot = fixed.P(0, baseline(i))
		drawer.DrawString(text)
	}
	return img
}

// Lines returns the text rows of the status card.
func Lines(s gps.Snapshot) []string {
	lines := make([]string, 0, 5)
	if s.HasPosition {
		latDir := "N"
		lat := s.Latitude
		if lat < 0 {
			latDir = "S"
			lat = -lat
		}
		lonDir := "E"
		lon := s.Longitude
		if lon < 0 {
			lonDir = "W"
			lon = -lon
		}
		lines = append(lines,
			fmt.Sprintf("%.4f%s", lat, latDir),
			fmt.Sprintf("%.4f%s", lon, lonDir))
	} else {
		lines = append(lines, "No position", "")
	}

	lines = append(lines, fmt.Sprintf("Alt: %.0fm %.1fm/s", s.Altitude, s.Speed))

	sats := fmt.Sprintf("Sats %d/%d", s.UsedSatelliteCount, s.SatelliteCount)
	if s.HasDOP {
		sats += fmt.Sprintf(" H%.1f", s.HDOP)
	}
	lines = append(lines, sats)

	fix := string(s.FixType)
	if fix == "" {
		fix = "-"
	}
	clock := s.LocalTime
	if clock == "" {
		clock = "--:--:--"
	}
	lines = append(lines, clock+" "+fix)
	return lines
}

// EncodePNG writes img as a PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode status card: %w", err)
	}
	return nil
}
