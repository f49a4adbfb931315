package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.bug.st/serial"

	"backend-tracksmith/internal/filter"
)

// Serial reads NMEA 0183 sentences from a GPS receiver on a serial port.
type Serial struct {
	Port string
	Baud int
}

func (s *Serial) Name() string { return "serial" }

func (s *Serial) Run(ctx context.Context, emit func(Update)) error {
	mode := &serial.Mode{
		BaudRate: s.Baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(s.Port, mode)
	if err != nil {
		var portErr *serial.PortError
		if errors.As(err, &portErr) && portErr.Code() == serial.PermissionDenied {
			return fmt.Errorf("open serial port %s: %w", s.Port, os.ErrPermission)
		}
		return fmt.Errorf("open serial port %s: %w", s.Port, err)
	}

	// closing the port is the only way to unblock the scanner
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	var (
		accuracy *float64
		noFix    bool
	)
	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !checksumValid(line) {
			continue
		}
		fields := sentenceFields(line)
		switch {
		case strings.HasSuffix(fields[0], "GGA"):
			gga, err := parseGGA(fields)
			if err != nil {
				continue
			}
			if gga.HasHDOP {
				accuracy = filter.Float64(gga.HDOP * hdopToMeters)
			} else {
				accuracy = nil
			}
		case strings.HasSuffix(fields[0], "RMC"):
			rmc, err := parseRMC(fields)
			if err != nil {
				continue
			}
			if !rmc.Valid {
				if !noFix {
					noFix = true
					emit(Update{Failure: &Failure{
						Kind:    FailurePositionUnavailable,
						Message: "receiver reports no fix",
					}})
				}
				continue
			}
			noFix = false
			fix := filter.Fix{
				Lat:     rmc.Lat,
				Lon:     rmc.Lon,
				Speed:   rmc.Speed,
				Heading: rmc.Course,
				Time:    rmc.Time,
			}
			if accuracy != nil {
				fix.Accuracy = filter.Float64(*accuracy)
			}
			if fix.Time.IsZero() {
				fix.Time = time.Now()
			}
			emit(Update{Fix: &fix})
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", s.Port, err)
	}
	return errStreamEnded
}
