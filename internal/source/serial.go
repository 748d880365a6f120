// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package source

import (
	"fmt"
	"io"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"
)

// SerialConfig describes the receiver port.
type SerialConfig struct {
	PortName string // /dev/serial0, /dev/ttyUSB0, /dev/ttyACM0, ...
	BaudRate uint
	DataBits uint
	StopBits uint
	Parity   string // "none", "odd" or "even"
}

// Options converts c into go-serial open options, applying 9600 8N1
// defaults for unset values.
func (c SerialConfig) Options() (serial.OpenOptions, error) {
	if strings.TrimSpace(c.PortName) == "" {
		return serial.OpenOptions{}, fmt.Errorf("serial port name is required")
	}
	opts := serial.OpenOptions{
		PortName:              c.PortName,
		BaudRate:              c.BaudRate,
		DataBits:              c.DataBits,
		StopBits:              c.StopBits,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	if opts.BaudRate == 0 {
		opts.BaudRate = 9600
	}
	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.StopBits == 0 {
		opts.StopBits = 1
	}

	switch strings.ToLower(strings.TrimSpace(c.Parity)) {
	case "", "none":
	case "odd":
		opts.ParityMode = serial.PARITY_ODD
	case "even":
		opts.ParityMode = serial.PARITY_EVEN
	default:
		return serial.OpenOptions{}, fmt.Errorf("unknown parity %q", c.Parity)
	}
	return opts, nil
}

// OpenSerial opens the receiver port. Read it with ScanLines.
func OpenSerial(c SerialConfig) (io.ReadWriteCloser, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", opts.PortName, err)
	}
	return port, nil
}
