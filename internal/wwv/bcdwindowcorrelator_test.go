package wwv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBCDWindowCorrelator_NoSymbolsEmittedWhileUnlocked(t *testing.T) {
	c := NewBCDWindowCorrelator()
	c.SetAnchor(0)
	var emitted int
	c.SetSymbolCallback(func(BCDSymbol) { emitted++ })

	c.ObserveBCDEvent(BCDEvent{Source: BCDSourceTime, TimestampMs: 1500, DurationMs: 200, Energy: 100})
	c.Advance(3000)

	assert.Zero(t, emitted, "spec.md §4.11: no symbol is emitted when unlocked")
}

func TestBCDWindowCorrelator_NoSymbolsEmittedWithoutAnchor(t *testing.T) {
	c := NewBCDWindowCorrelator()
	c.SetLocked(true)
	var emitted int
	c.SetSymbolCallback(func(BCDSymbol) { emitted++ })

	// Locked but no confirmed minute marker yet: there is no second grid
	// to bucket into, so nothing is ever opened or classified.
	c.ObserveBCDEvent(BCDEvent{Source: BCDSourceTime, TimestampMs: 1500, DurationMs: 200, Energy: 100})
	c.Advance(3000)

	assert.Zero(t, emitted)
}

func TestBCDWindowCorrelator_AnchorSecondItselfIsExcluded(t *testing.T) {
	c := NewBCDWindowCorrelator()
	c.SetLocked(true)
	c.SetAnchor(10_000)
	var emitted int
	c.SetSymbolCallback(func(BCDSymbol) { emitted++ })

	// k=0 spans [anchor, anchor+1000): the marker's own second. Spec.md
	// §4.11 calls for 59 symbols per minute, not 60, so this window never
	// opens even though events and Advance calls land inside it.
	c.ObserveBCDEvent(BCDEvent{Source: BCDSourceTime, TimestampMs: 10_200, DurationMs: 200, Energy: 10})
	c.Advance(10_999)

	assert.Zero(t, emitted, "the anchor's own second (k=0) must not produce a BCD symbol")
}

func TestBCDWindowCorrelator_WindowsAlignToNonRoundAnchor(t *testing.T) {
	c := NewBCDWindowCorrelator()
	c.SetLocked(true)
	c.SetAnchor(123.0) // not a multiple of 1000ms

	var got []BCDSymbol
	c.SetSymbolCallback(func(s BCDSymbol) { got = append(got, s) })

	// k=1 window is [1123, 2123). An event sitting just before the
	// absolute 2000ms clock boundary must still fall in k=1, not get
	// cut off by a clock-aligned window the old implementation used.
	c.ObserveBCDEvent(BCDEvent{Source: BCDSourceTime, TimestampMs: 1900, DurationMs: 200, Energy: 10})
	c.Advance(2123) // crosses into k=2, closing k=1

	if assert.Len(t, got, 1) {
		assert.Equal(t, BCDZero, got[0].Kind)
		assert.Equal(t, 1123.0, got[0].TimestampMs)
	}
}

func TestBCDWindowCorrelator_SetAnchorIsIdempotentForUnchangedValue(t *testing.T) {
	c := NewBCDWindowCorrelator()
	c.SetLocked(true)
	c.SetAnchor(0)

	var emitted int
	c.SetSymbolCallback(func(BCDSymbol) { emitted++ })

	c.ObserveBCDEvent(BCDEvent{Source: BCDSourceTime, TimestampMs: 1500, DurationMs: 200, Energy: 10})
	// A repeated SetAnchor call with the same value (e.g. a sync-status
	// heartbeat re-emitting the same LastConfirmed) must not force-close
	// the window that's still accumulating events.
	c.SetAnchor(0)
	c.ObserveBCDEvent(BCDEvent{Source: BCDSourceFreq, TimestampMs: 1600, DurationMs: 200, Energy: 10})
	c.Advance(2000)

	if assert.Equal(t, 1, emitted) {
		// Confirmed indirectly: a spurious close on the repeated SetAnchor
		// would have emitted a TIME-only symbol before the FREQ event
		// ever arrived, leaving Source as "TIME" instead of "BOTH".
	}
}

func TestBCDWindowCorrelator_SetAnchorMovingForwardClosesInFlightWindow(t *testing.T) {
	c := NewBCDWindowCorrelator()
	c.SetLocked(true)
	c.SetAnchor(0)

	var got []BCDSymbol
	c.SetSymbolCallback(func(s BCDSymbol) { got = append(got, s) })

	c.ObserveBCDEvent(BCDEvent{Source: BCDSourceTime, TimestampMs: 1500, DurationMs: 200, Energy: 10})
	// A new confirmed marker re-anchors the grid; whatever window was
	// in flight under the old anchor is closed out first.
	c.SetAnchor(60_000)

	assert.Len(t, got, 1)
}

func TestBCDWindowCorrelator_ClassifiesZeroOneMarker(t *testing.T) {
	cases := []struct {
		durMs float64
		want  BCDSymbolKind
	}{
		{100, BCDZero},
		{350, BCDZero},
		{351, BCDOne},
		{650, BCDOne},
		{651, BCDMarker},
		{900, BCDMarker},
		{901, BCDNone},
		{50, BCDNone},
	}
	for _, tc := range cases {
		c := NewBCDWindowCorrelator()
		c.SetLocked(true)
		c.SetAnchor(0)
		var got BCDSymbol
		c.SetSymbolCallback(func(s BCDSymbol) { got = s })

		c.ObserveBCDEvent(BCDEvent{Source: BCDSourceTime, TimestampMs: 1500, DurationMs: tc.durMs, Energy: 10})
		c.Advance(2000)

		assert.Equal(t, tc.want, got.Kind, "duration %.0fms", tc.durMs)
	}
}

func TestBCDWindowCorrelator_BothSourcesBoostConfidence(t *testing.T) {
	cSingle := NewBCDWindowCorrelator()
	cSingle.SetLocked(true)
	cSingle.SetAnchor(0)
	var single BCDSymbol
	cSingle.SetSymbolCallback(func(s BCDSymbol) { single = s })
	cSingle.ObserveBCDEvent(BCDEvent{Source: BCDSourceTime, TimestampMs: 1500, DurationMs: 200, Energy: 1000})
	cSingle.Advance(2000)

	cBoth := NewBCDWindowCorrelator()
	cBoth.SetLocked(true)
	cBoth.SetAnchor(0)
	var both BCDSymbol
	cBoth.SetSymbolCallback(func(s BCDSymbol) { both = s })
	cBoth.ObserveBCDEvent(BCDEvent{Source: BCDSourceTime, TimestampMs: 1500, DurationMs: 200, Energy: 1000})
	cBoth.ObserveBCDEvent(BCDEvent{Source: BCDSourceFreq, TimestampMs: 1520, DurationMs: 200, Energy: 1000})
	cBoth.Advance(2000)

	assert.Equal(t, "TIME", single.Source)
	assert.Equal(t, "BOTH", both.Source)
	assert.Greater(t, both.Confidence, single.Confidence)
}

func TestBCDWindowCorrelator_AtMostOneSymbolPerWindow(t *testing.T) {
	c := NewBCDWindowCorrelator()
	c.SetLocked(true)
	c.SetAnchor(0)
	var emitted int
	c.SetSymbolCallback(func(BCDSymbol) { emitted++ })

	c.ObserveBCDEvent(BCDEvent{Source: BCDSourceTime, TimestampMs: 1100, DurationMs: 200, Energy: 10})
	c.ObserveBCDEvent(BCDEvent{Source: BCDSourceFreq, TimestampMs: 1150, DurationMs: 200, Energy: 10})
	c.ObserveBCDEvent(BCDEvent{Source: BCDSourceTime, TimestampMs: 1900, DurationMs: 200, Energy: 10}) // still in window 1
	c.ObserveBCDEvent(BCDEvent{Source: BCDSourceTime, TimestampMs: 2100, DurationMs: 200, Energy: 10}) // window 2: closes window 1

	assert.Equal(t, 1, emitted)
}

func TestBCDWindowCorrelator_PromotesToTrackingAfterThreeSteadySymbols(t *testing.T) {
	c := NewBCDWindowCorrelator()
	c.SetLocked(true)
	c.SetAnchor(0)

	assert.Equal(t, BcdAcquiring, c.State())

	c.ObserveBCDEvent(BCDEvent{Source: BCDSourceTime, TimestampMs: 1000, DurationMs: 200, Energy: 10})
	c.Advance(2000)
	assert.Equal(t, BcdTentative, c.State())

	c.ObserveBCDEvent(BCDEvent{Source: BCDSourceTime, TimestampMs: 2000, DurationMs: 200, Energy: 10})
	c.Advance(3000)
	assert.Equal(t, BcdTentative, c.State(), "two consecutive symbols are not yet three")

	c.ObserveBCDEvent(BCDEvent{Source: BCDSourceTime, TimestampMs: 3000, DurationMs: 200, Energy: 10})
	c.Advance(4000)
	assert.Equal(t, BcdTracking, c.State())
}

func TestBCDWindowCorrelator_RegressesAfterTwoConsecutiveNone(t *testing.T) {
	c := NewBCDWindowCorrelator()
	c.SetLocked(true)
	c.SetAnchor(0)

	for k := 0; k < 3; k++ {
		ts := float64((k + 1) * 1000)
		c.ObserveBCDEvent(BCDEvent{Source: BCDSourceTime, TimestampMs: ts, DurationMs: 200, Energy: 10})
		c.Advance(ts + 1000)
	}
	assert.Equal(t, BcdTracking, c.State())

	c.Advance(5000) // window with no event: NONE
	c.Advance(6000) // second consecutive NONE: regression
	assert.Equal(t, BcdTentative, c.State())
}

func TestBCDWindowCorrelator_ExactlyFiftyNineSymbolsPerMinute(t *testing.T) {
	c := NewBCDWindowCorrelator()
	c.SetLocked(true)
	c.SetAnchor(0)

	var emitted int
	c.SetSymbolCallback(func(BCDSymbol) { emitted++ })

	// Drive the window clock across a full minute with no BCD events at
	// all; every second except k=0 must still close out with a NONE.
	for ms := 1000.0; ms <= 60_000.0; ms += 1000.0 {
		c.Advance(ms)
	}

	assert.Equal(t, 59, emitted)
}
