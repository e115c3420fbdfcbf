package wwv

/*------------------------------------------------------------------
 *
 * Purpose:	Fuse the fast-path MarkerEvent (50kHz detector path) with
 *		the slow-path SlowMarkerFrame stream (12kHz display path)
 *		into a single CorrelatedMarker per spec.md §4.9.
 *
 * Description:	A MarkerEvent opens a 750ms correlation window. An
 *		above-threshold SlowMarkerFrame seen inside that window
 *		confirms it (HIGH confidence) provided the MarkerEvent
 *		itself lasted at least 500ms; a MarkerEvent whose window
 *		closes unconfirmed is still emitted (LOW confidence,
 *		fast-only). A SlowMarkerFrame going above threshold with no
 *		pending fast MarkerEvent only increments the slow-only
 *		counter - spec.md never asks for a slow-only
 *		CorrelatedMarker, since the fast path carries the marker
 *		number.
 *
 *----------------------------------------------------------------*/

const (
	markerCorrWindowMs      = 750.0
	markerCorrMinDurationMs = 500.0
)

// MarkerCorrelator implements spec.md §4.9.
type MarkerCorrelator struct {
	pending    *MarkerEvent
	pendingAt  float64
	sawSlowHit bool

	confirmedCount int64
	fastOnlyCount  int64
	slowOnlyCount  int64

	onCorrelated func(CorrelatedMarker)
}

// NewMarkerCorrelator builds an empty correlator.
func NewMarkerCorrelator() *MarkerCorrelator {
	return &MarkerCorrelator{}
}

func (c *MarkerCorrelator) SetCorrelatedCallback(cb func(CorrelatedMarker)) { c.onCorrelated = cb }

// ObserveMarker opens a new correlation window for a fast-path marker.
// Any unresolved previous window is flushed first (spec.md §4.9: "at
// most one pending fast marker"), even if its own 750ms window hasn't
// elapsed yet - a new fast marker arriving early still ends the prior
// window, on whatever slow-frame evidence has been seen so far.
func (c *MarkerCorrelator) ObserveMarker(ev MarkerEvent) {
	c.forceFlush()
	m := ev
	c.pending = &m
	c.pendingAt = ev.TimestampMs
	c.sawSlowHit = false
}

// ObserveSlowFrame feeds one slow-path frame. tsMs is the frame's own
// timestamp, used to decide whether a pending fast marker's window has
// elapsed.
func (c *MarkerCorrelator) ObserveSlowFrame(f SlowMarkerFrame) {
	if c.pending != nil && f.TimestampMs-c.pendingAt <= markerCorrWindowMs {
		if f.AboveThreshold {
			c.sawSlowHit = true
		}
	} else if f.AboveThreshold && c.pending == nil {
		c.slowOnlyCount++
	}
	c.flush(f.TimestampMs)
}

// flush emits+clears the pending fast marker once its correlation window
// has elapsed relative to "now".
func (c *MarkerCorrelator) flush(nowMs float64) {
	if c.pending == nil {
		return
	}
	if nowMs-c.pendingAt < markerCorrWindowMs {
		return
	}
	c.forceFlush()
}

// forceFlush emits+clears the pending fast marker unconditionally, on
// whatever slow-frame evidence has accumulated so far.
func (c *MarkerCorrelator) forceFlush() {
	if c.pending == nil {
		return
	}

	conf := ConfidenceLow
	if c.sawSlowHit && c.pending.DurationMs >= markerCorrMinDurationMs {
		conf = ConfidenceHigh
		c.confirmedCount++
	} else {
		c.fastOnlyCount++
	}

	cm := CorrelatedMarker{
		MarkerNumber: c.pending.MarkerNumber,
		TimestampMs:  c.pending.TimestampMs,
		DurationMs:   c.pending.DurationMs,
		Energy:       c.pending.AccumulatedEnergy,
		SNRDb:        c.pending.SNRDb,
		Confidence:   conf,
	}
	c.pending = nil
	c.sawSlowHit = false

	if c.onCorrelated != nil {
		c.onCorrelated(cm)
	}
}

// Counters returns (confirmed, fast-only, slow-only) emission counts.
func (c *MarkerCorrelator) Counters() (confirmed, fastOnly, slowOnly int64) {
	return c.confirmedCount, c.fastOnlyCount, c.slowOnlyCount
}
