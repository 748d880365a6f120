// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// GPS sources.
const (
	SourceSerial = "serial"
	SourceReplay = "replay"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string `yaml:"mqtt_broker"`
	MQTTClientIDGPS     string `yaml:"mqtt_client_id_gps"`
	MQTTClientIDConsole string `yaml:"mqtt_client_id_console"`
	MQTTClientIDWeb     string `yaml:"mqtt_client_id_web"`

	// Topics
	TopicGPS           string `yaml:"topic_gps"`
	TopicGPSPosition   string `yaml:"topic_gps_position"`
	TopicGPSVelocity   string `yaml:"topic_gps_velocity"`
	TopicGPSQuality    string `yaml:"topic_gps_quality"`
	TopicGPSSatellites string `yaml:"topic_gps_satellites"`
	TopicNMEARaw       string `yaml:"topic_nmea_raw"`

	// GPS input
	GPSSource     string `yaml:"gps_source"` // "serial" or "replay"
	GPSSerialPort string `yaml:"gps_serial_port"`
	GPSBaudRate   int    `yaml:"gps_baud_rate"`
	GPSDataBits   int    `yaml:"gps_data_bits"`
	GPSStopBits   int    `yaml:"gps_stop_bits"`
	GPSParity     string `yaml:"gps_parity"` // "none", "odd" or "even"

	// Replay
	ReplayFile     string `yaml:"replay_file"`
	ReplayInterval int    `yaml:"replay_interval"` // milliseconds between lines
	ReplayLoop     bool   `yaml:"replay_loop"`

	// InfluxDB history, disabled when INFLUX_URL is empty
	InfluxURL    string `yaml:"influx_url"`
	InfluxToken  string `yaml:"influx_token"`
	InfluxOrg    string `yaml:"influx_org"`
	InfluxBucket string `yaml:"influx_bucket"`

	// Web Server
	WebServerPort int `yaml:"web_server_port"`
	RawTailLines  int `yaml:"raw_tail_lines"`
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
// Files ending in .yaml or .yml are read as YAML, anything else as
// KEY=VALUE lines.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		cfg, err = parseYAML(data)
	default:
		cfg, err = parseKeyValue(bytes.NewReader(data))
	}
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseYAML(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing yaml config: %w", err)
	}
	return cfg, nil
}

func parseKeyValue(r io.Reader) (*Config, error) {
	cfg := &Config{}
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_GPS":
		c.TopicGPS = value
	case "TOPIC_GPS_POSITION":
		c.TopicGPSPosition = value
	case "TOPIC_GPS_VELOCITY":
		c.TopicGPSVelocity = value
	case "TOPIC_GPS_QUALITY":
		c.TopicGPSQuality = value
	case "TOPIC_GPS_SATELLITES":
		c.TopicGPSSatellites = value
	case "TOPIC_NMEA_RAW":
		c.TopicNMEARaw = value

	// GPS input
	case "GPS_SOURCE":
		c.GPSSource = strings.ToLower(value)
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		return setInt(&c.GPSBaudRate, key, value)
	case "GPS_DATA_BITS":
		return setInt(&c.GPSDataBits, key, value)
	case "GPS_STOP_BITS":
		return setInt(&c.GPSStopBits, key, value)
	case "GPS_PARITY":
		c.GPSParity = strings.ToLower(value)

	// Replay
	case "REPLAY_FILE":
		c.ReplayFile = value
	case "REPLAY_INTERVAL":
		return setInt(&c.ReplayInterval, key, value)
	case "REPLAY_LOOP":
		loop, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid REPLAY_LOOP %q: %w", value, err)
		}
		c.ReplayLoop = loop

	// InfluxDB
	case "INFLUX_URL":
		c.InfluxURL = value
	case "INFLUX_TOKEN":
		c.InfluxToken = value
	case "INFLUX_ORG":
		c.InfluxOrg = value
	case "INFLUX_BUCKET":
		c.InfluxBucket = value

	// Web Server
	case "WEB_SERVER_PORT":
		return setInt(&c.WebServerPort, key, value)
	case "RAW_TAIL_LINES":
		return setInt(&c.RawTailLines, key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func setInt(dst *int, key, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

func (c *Config) applyDefaults() {
	if c.GPSSource == "" {
		c.GPSSource = SourceSerial
	}
	if c.GPSBaudRate == 0 {
		c.GPSBaudRate = 9600
	}
	if c.GPSDataBits == 0 {
		c.GPSDataBits = 8
	}
	if c.GPSStopBits == 0 {
		c.GPSStopBits = 1
	}
	if c.GPSParity == "" {
		c.GPSParity = "none"
	}
	if c.ReplayInterval == 0 {
		c.ReplayInterval = 1000
	}
	if c.TopicGPS == "" {
		c.TopicGPS = "nmea/gps"
	}
	if c.MQTTClientIDGPS == "" {
		c.MQTTClientIDGPS = "nmea-gps-producer"
	}
	if c.MQTTClientIDConsole == "" {
		c.MQTTClientIDConsole = "nmea-console"
	}
	if c.MQTTClientIDWeb == "" {
		c.MQTTClientIDWeb = "nmea-web"
	}
	if c.WebServerPort == 0 {
		c.WebServerPort = 8080
	}
}

// validate checks that all required fields are set. The broker is checked
// separately by RequireBroker, since the local console runs without one.
func (c *Config) validate() error {
	switch c.GPSSource {
	case SourceSerial:
		if c.GPSSerialPort == "" {
			return fmt.Errorf("GPS_SERIAL_PORT is required when GPS_SOURCE=serial")
		}
	case SourceReplay:
		if c.ReplayFile == "" {
			return fmt.Errorf("REPLAY_FILE is required when GPS_SOURCE=replay")
		}
	default:
		return fmt.Errorf("GPS_SOURCE must be serial or replay, got %q", c.GPSSource)
	}
	switch c.GPSParity {
	case "none", "odd", "even":
	default:
		return fmt.Errorf("GPS_PARITY must be none, odd or even, got %q", c.GPSParity)
	}
	if c.GPSBaudRate < 0 || c.GPSDataBits < 0 || c.GPSStopBits < 0 {
		return fmt.Errorf("serial settings must not be negative")
	}
	if c.ReplayInterval < 0 {
		return fmt.Errorf("REPLAY_INTERVAL must not be negative, got %d", c.ReplayInterval)
	}
	if c.WebServerPort < 1 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", c.WebServerPort)
	}
	if c.InfluxURL != "" && (c.InfluxOrg == "" || c.InfluxBucket == "") {
		return fmt.Errorf("INFLUX_ORG and INFLUX_BUCKET are required when INFLUX_URL is set")
	}
	return nil
}

// RequireBroker reports an error when no MQTT broker is configured.
func (c *Config) RequireBroker() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	return nil
}

// ReplayPace returns ReplayInterval as a duration.
func (c *Config) ReplayPace() time.Duration {
	return time.Duration(c.ReplayInterval) * time.Millisecond
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
