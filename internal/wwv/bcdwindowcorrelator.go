package wwv

/*------------------------------------------------------------------
 *
 * Purpose:	Fuse BCDEvents from the time-code and frequency-code
 *		detectors into one decoded symbol per second (spec.md
 *		§4.11). Only runs while the sync detector reports LOCKED:
 *		without a confirmed minute boundary there is no reliable
 *		second grid to bucket events into.
 *
 *----------------------------------------------------------------*/

import "math"

const (
	bcdWindowMs          = 1000.0
	bcdMinDurationMs     = 100.0
	bcdZeroMaxMs         = 350.0
	bcdOneMaxMs          = 650.0
	bcdMarkerMaxMs       = 900.0
	bcdConfSingleBase    = 0.5
	bcdConfBothBase      = 1.0
	bcdConfSnrScaleDb    = 20.0
	bcdRegressionAfter   = 2
	bcdTrackingAfter     = 3
	bcdWindowToleranceMs = 50.0
)

// BCDWindowCorrelator implements spec.md §4.11.
type BCDWindowCorrelator struct {
	locked bool

	// anchorMs is the most recently confirmed minute marker's timestamp
	// (SyncStatus.LastConfirmed, spec.md §3's MinuteAnchor), the origin
	// every second-window is bucketed against: window k covers
	// [anchor+k*1000, anchor+(k+1)*1000) for k=1..59. k=0 - the marker's
	// own second - is never a BCD window (spec.md §4.11: 59 symbols per
	// minute, not 60).
	anchorMs   float64
	haveAnchor bool

	windowIndex int64
	haveWindow  bool
	windowStart float64
	timeEv      *BCDEvent
	freqEv      *BCDEvent

	state            BcdCorrState
	noneStreak       int
	cadenceStreak    int
	haveLastSymbolMs bool
	lastSymbolMs     float64
	nextSymbolIdx    int64

	onSymbol func(BCDSymbol)
}

// NewBCDWindowCorrelator builds an empty correlator.
func NewBCDWindowCorrelator() *BCDWindowCorrelator {
	return &BCDWindowCorrelator{}
}

func (c *BCDWindowCorrelator) SetSymbolCallback(cb func(BCDSymbol)) { c.onSymbol = cb }

// SetLocked is driven by the sync detector's status callback: the
// correlator accumulates nothing while not LOCKED (spec.md §4.11).
func (c *BCDWindowCorrelator) SetLocked(locked bool) {
	if c.locked && !locked {
		c.timeEv, c.freqEv = nil, nil
		c.haveWindow = false
	}
	c.locked = locked
}

// SetAnchor records the most recently confirmed minute marker's timestamp
// (spec.md §3's MinuteAnchor, carried as SyncStatus.LastConfirmed) as the
// origin every subsequent second-window is bucketed against. A no-op if
// the anchor hasn't actually moved, so a caller re-emitting the same
// status (a heartbeat, say) can't spuriously truncate an in-flight window.
func (c *BCDWindowCorrelator) SetAnchor(tsMs float64) {
	if c.haveAnchor && tsMs == c.anchorMs {
		return
	}
	if c.haveWindow {
		c.closeWindow()
	}
	c.anchorMs = tsMs
	c.haveAnchor = true
}

// ObserveBCDEvent files an event into the second-aligned window it falls
// in, closing (and classifying) the previous window first if its time has
// elapsed.
func (c *BCDWindowCorrelator) ObserveBCDEvent(ev BCDEvent) {
	if !c.locked {
		return
	}

	if !c.openWindowFor(ev.TimestampMs) {
		return
	}

	switch ev.Source {
	case BCDSourceTime:
		e := ev
		c.timeEv = &e
	case BCDSourceFreq:
		e := ev
		c.freqEv = &e
	}
}

// Advance moves the correlator's own window clock forward to nowMs,
// force-closing any window it has fully passed - including one with no
// events at all - so a second with no detected pulse still produces a
// NONE symbol (spec.md §4.11: "exactly one BCDSymbol per closed window").
func (c *BCDWindowCorrelator) Advance(nowMs float64) {
	if !c.locked {
		return
	}
	if !c.openWindowFor(nowMs) {
		return
	}
	if nowMs-c.windowStart >= bcdWindowMs {
		c.closeWindow()
	}
}

// openWindowFor ensures a window covering tsMs is open, closing whatever
// window (possibly empty) preceded it. Windows are numbered from the
// confirmed minute anchor: k := floor((tsMs-anchor)/1000) for k=1..59.
// Without an anchor, during the anchor's own second (k<1), or past the
// minute's last second (k>59), no window is opened - there is no reliable
// second grid to bucket into yet, and the marker's own second carries no
// BCD symbol (spec.md §4.11: 59 symbols per minute, not 60). Reports
// whether a window is open.
func (c *BCDWindowCorrelator) openWindowFor(tsMs float64) bool {
	if !c.haveAnchor {
		return false
	}
	k := int64(math.Floor((tsMs - c.anchorMs) / bcdWindowMs))
	if k < 1 || k > 59 {
		if c.haveWindow {
			c.closeWindow()
		}
		return false
	}
	if c.haveWindow && k != c.windowIndex {
		c.closeWindow()
	}
	if !c.haveWindow {
		c.windowIndex = k
		c.windowStart = c.anchorMs + float64(k)*bcdWindowMs
		c.haveWindow = true
	}
	return true
}

func (c *BCDWindowCorrelator) closeWindow() {
	sym := c.classify()
	c.timeEv, c.freqEv = nil, nil
	c.haveWindow = false

	if sym.Kind == BCDNone {
		c.noneStreak++
		c.cadenceStreak = 0
		if c.state == BcdTracking && c.noneStreak >= bcdRegressionAfter {
			c.state = BcdTentative
		}
	} else {
		c.noneStreak = 0
		if c.haveLastSymbolMs && math.Abs(sym.TimestampMs-c.lastSymbolMs-bcdWindowMs) <= bcdWindowToleranceMs {
			c.cadenceStreak++
		} else {
			c.cadenceStreak = 1
		}
		c.haveLastSymbolMs = true
		c.lastSymbolMs = sym.TimestampMs

		switch c.state {
		case BcdAcquiring:
			c.state = BcdTentative
		case BcdTentative:
			if c.cadenceStreak >= bcdTrackingAfter {
				c.state = BcdTracking
			}
		}
	}

	if c.onSymbol != nil {
		c.onSymbol(sym)
	}
}

func (c *BCDWindowCorrelator) classify() BCDSymbol {
	idx := c.nextSymbolIdx
	c.nextSymbolIdx++

	sym := BCDSymbol{Index: idx, TimestampMs: c.windowStart, Kind: BCDNone, Source: "NONE"}

	if c.timeEv == nil && c.freqEv == nil {
		return sym
	}

	durMs, snr, source := fuseBCDEvents(c.timeEv, c.freqEv)
	kind := classifyPulseDuration(durMs)
	base := bcdConfSingleBase
	if source == "BOTH" {
		base = bcdConfBothBase
	}
	scale := snr / bcdConfSnrScaleDb
	if scale > 1 {
		scale = 1
	} else if scale < 0 {
		scale = 0
	}

	sym.Kind = kind
	sym.Source = source
	sym.Confidence = base * scale
	return sym
}

func classifyPulseDuration(durMs float64) BCDSymbolKind {
	switch {
	case durMs < bcdMinDurationMs:
		return BCDNone
	case durMs <= bcdZeroMaxMs:
		return BCDZero
	case durMs <= bcdOneMaxMs:
		return BCDOne
	case durMs <= bcdMarkerMaxMs:
		return BCDMarker
	default:
		return BCDNone
	}
}

// fuseBCDEvents combines the two sources' events (when both present, the
// longer of their two durations is used) and reports a combined SNR
// estimate for the confidence formula.
func fuseBCDEvents(t, f *BCDEvent) (durMs, snrDb float64, source string) {
	switch {
	case t != nil && f != nil:
		durMs = math.Max(t.DurationMs, f.DurationMs)
		snrDb = energySnrDb(t.Energy+f.Energy, t.DurationMs+f.DurationMs)
		source = "BOTH"
	case t != nil:
		durMs = t.DurationMs
		snrDb = energySnrDb(t.Energy, t.DurationMs)
		source = "TIME"
	default:
		durMs = f.DurationMs
		snrDb = energySnrDb(f.Energy, f.DurationMs)
		source = "FREQ"
	}
	return
}

// energySnrDb derives a rough per-symbol SNR estimate from accumulated
// run energy; this is a confidence input only, not a detection gate.
func energySnrDb(energy, durMs float64) float64 {
	if durMs <= 0 || energy <= 0 {
		return 0
	}
	avg := energy / durMs
	return 10 * math.Log10(avg+1e-10)
}

// State returns the correlator's own confirmation ladder position.
func (c *BCDWindowCorrelator) State() BcdCorrState { return c.state }
