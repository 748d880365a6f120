package nmea

import (
	"fmt"
	"io"
	"log"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2026, 10, 15, 1, 2, 3, 0, time.UTC)

// line builds "$<fields joined by comma>*<checksum>".
func line(fields ...string) string {
	payload := strings.Join(fields, ",")
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X", payload, ck)
}

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	return NewParser(
		WithClock(func() time.Time { return testNow }),
		WithLogger(log.New(io.Discard, "", 0)),
	)
}

func gsaLine(ids []string, pdop, hdop, vdop string) string {
	slots := make([]string, 12)
	copy(slots, ids)
	fields := append([]string{"GPGSA", "A", "3"}, slots...)
	fields = append(fields, pdop, hdop, vdop)
	return line(fields...)
}

// gnGSA builds a GNGSA with the NMEA 4.10 system id in field 18.
func gnGSA(system string, ids ...string) string {
	slots := make([]string, 12)
	copy(slots, ids)
	fields := append([]string{"GNGSA", "A", "3"}, slots...)
	fields = append(fields, "2.0", "1.0", "1.5", system)
	return line(fields...)
}
