package wwv

/*------------------------------------------------------------------
 *
 * Purpose:	Tick-interval tracker (spec.md §4.8). Keeps a rolling
 *		histogram of inter-tick intervals and scores tick-marker
 *		candidates by how well they line up with the established
 *		1000ms cadence. Wired into SyncDetector.SetTickCorrelator as
 *		a hint that narrows its correlation tolerance; it never
 *		rejects a candidate outright.
 *
 *----------------------------------------------------------------*/

import "math"

const (
	tickCorrHistorySize = 60
	tickCorrNominalMs   = 1000.0
	tickCorrToleranceMs = 50.0
)

// TickCorrelator implements spec.md §4.8.
type TickCorrelator struct {
	intervals  []float64
	lastTickMs float64
	haveLast   bool
}

// NewTickCorrelator builds an empty tick-interval tracker.
func NewTickCorrelator() *TickCorrelator {
	return &TickCorrelator{intervals: make([]float64, 0, tickCorrHistorySize)}
}

// ObserveTick records a tick's timestamp for the rolling histogram.
func (c *TickCorrelator) ObserveTick(ev TickEvent) {
	if c.haveLast {
		interval := ev.TimestampMs - c.lastTickMs
		if interval > 0 {
			c.intervals = append(c.intervals, interval)
			if len(c.intervals) > tickCorrHistorySize {
				c.intervals = c.intervals[1:]
			}
		}
	}
	c.lastTickMs = ev.TimestampMs
	c.haveLast = true
}

// MeanIntervalMs returns the rolling mean inter-tick interval, or 0 if no
// history has accumulated yet.
func (c *TickCorrelator) MeanIntervalMs() float64 {
	if len(c.intervals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range c.intervals {
		sum += v
	}
	return sum / float64(len(c.intervals))
}

// ScoreTickMarker annotates a candidate tick-marker event with how close
// it falls to an expected tick boundary given the rolling cadence. The
// returned ratio never rejects a candidate by itself (spec.md §4.8: "never
// a hard gate"); SyncDetector uses it to narrow its correlation tolerance.
func (c *TickCorrelator) ScoreTickMarker(ev TickMarkerEvent) float64 {
	mean := c.MeanIntervalMs()
	if mean <= 0 {
		mean = tickCorrNominalMs
	}
	offset := math.Mod(ev.TimestampMs-c.lastTickMs, mean)
	if offset > mean/2 {
		offset = mean - offset
	}
	if offset <= tickCorrToleranceMs {
		return 1.0
	}
	return tickCorrToleranceMs / offset
}
