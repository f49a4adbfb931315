package filter

// Config holds the pipeline thresholds.
type Config struct {
	MinAccuracyM    float64 // meters - accuracy ceiling for scoring and the gate
	MaxSpeedMS      float64 // m/s - hard speed limit
	MinDistanceM    float64 // meters - minimum movement between accepted fixes
	MaxAcceleration float64 // speed-delta limit; the scorer compares it flat in m/s, the gate scales it by dt as m/s^2
	Smoothing       float64 // dead-reckoning blend weight of the expected position
	CorrectBelow    float64 // quality score under which dead reckoning kicks in
	HistorySize     int     // raw fixes kept for extrapolation
	RadianHeadings  bool    // convert headings to radians before the expected-position trig
}

// DefaultConfig returns the thresholds used in production.
func DefaultConfig() Config {
	return Config{
		MinAccuracyM:    10,
		MaxSpeedMS:      20,
		MinDistanceM:    0.5,
		MaxAcceleration: 10,
		Smoothing:       0.3,
		CorrectBelow:    0.3,
		HistorySize:     5,
	}
}
