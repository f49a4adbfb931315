package source

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// NMEA 0183 parsing for the serial driver. Only RMC and GGA sentences are
// consumed: RMC carries position, speed and course, GGA carries fix quality
// and HDOP.

const (
	knotsPerMS = 1.94384
	// rule-of-thumb conversion from horizontal dilution to meters
	hdopToMeters = 5.0
)

type rmcSentence struct {
	Valid  bool
	Lat    float64
	Lon    float64
	Speed  *float64 // m/s
	Course *float64 // degrees
	Time   time.Time
}

type ggaSentence struct {
	Quality int
	HDOP    float64
	HasHDOP bool
}

// checksumValid verifies the XOR checksum between '$' and '*'.
func checksumValid(line string) bool {
	if len(line) < 4 || line[0] != '$' {
		return false
	}
	star := strings.LastIndexByte(line, '*')
	if star < 0 || star+3 > len(line) {
		return false
	}
	var sum byte
	for i := 1; i < star; i++ {
		sum ^= line[i]
	}
	return strings.EqualFold(fmt.Sprintf("%02X", sum), line[star+1:star+3])
}

// sentenceFields strips the checksum suffix and splits on commas. The first
// field keeps the talker prefix, e.g. "$GPRMC" or "$GNRMC".
func sentenceFields(line string) []string {
	body := line
	if star := strings.LastIndexByte(line, '*'); star >= 0 {
		body = line[:star]
	}
	return strings.Split(body, ",")
}

// parseCoordinate converts an NMEA ddmm.mmmm field plus hemisphere into
// decimal degrees.
func parseCoordinate(field, hemisphere string) (float64, error) {
	if field == "" || hemisphere == "" {
		return 0, fmt.Errorf("empty coordinate")
	}
	raw, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("coordinate %q: %w", field, err)
	}
	deg := math.Floor(raw / 100)
	minutes := raw - deg*100
	val := deg + minutes/60
	switch hemisphere {
	case "N", "E":
	case "S", "W":
		val = -val
	default:
		return 0, fmt.Errorf("hemisphere %q", hemisphere)
	}
	return val, nil
}

// parseRMC parses $__RMC fields:
// time, status, lat, N/S, lon, E/W, speed (knots), course, date, ...
func parseRMC(fields []string) (rmcSentence, error) {
	if len(fields) < 10 {
		return rmcSentence{}, fmt.Errorf("rmc: got %d fields", len(fields))
	}
	out := rmcSentence{Valid: fields[2] == "A"}
	if !out.Valid {
		return out, nil
	}
	var err error
	if out.Lat, err = parseCoordinate(fields[3], fields[4]); err != nil {
		return rmcSentence{}, fmt.Errorf("rmc lat: %w", err)
	}
	if out.Lon, err = parseCoordinate(fields[5], fields[6]); err != nil {
		return rmcSentence{}, fmt.Errorf("rmc lon: %w", err)
	}
	if fields[7] != "" {
		knots, err := strconv.ParseFloat(fields[7], 64)
		if err != nil {
			return rmcSentence{}, fmt.Errorf("rmc speed: %w", err)
		}
		ms := knots / knotsPerMS
		out.Speed = &ms
	}
	if fields[8] != "" {
		course, err := strconv.ParseFloat(fields[8], 64)
		if err != nil {
			return rmcSentence{}, fmt.Errorf("rmc course: %w", err)
		}
		out.Course = &course
	}
	// HHMMSS may carry fractional seconds, the date never does
	clock := strings.SplitN(fields[1], ".", 2)[0]
	if ts, err := time.Parse("020106 150405", fields[9]+" "+clock); err == nil {
		out.Time = ts.UTC()
	}
	return out, nil
}

// parseGGA parses $__GGA fields:
// time, lat, N/S, lon, E/W, quality, satellites, hdop, ...
func parseGGA(fields []string) (ggaSentence, error) {
	if len(fields) < 9 {
		return ggaSentence{}, fmt.Errorf("gga: got %d fields", len(fields))
	}
	var out ggaSentence
	if fields[6] != "" {
		q, err := strconv.Atoi(fields[6])
		if err != nil {
			return ggaSentence{}, fmt.Errorf("gga quality: %w", err)
		}
		out.Quality = q
	}
	if fields[8] != "" {
		hdop, err := strconv.ParseFloat(fields[8], 64)
		if err != nil {
			return ggaSentence{}, fmt.Errorf("gga hdop: %w", err)
		}
		out.HDOP = hdop
		out.HasHDOP = true
	}
	return out, nil
}
