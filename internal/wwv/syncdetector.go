package wwv

/*------------------------------------------------------------------
 *
 * Purpose:	Minute/marker lock state machine (spec.md §4.10). Cross-
 *		correlates the tick detector's own marker candidate
 *		(TickMarkerEvent, the 500-900ms wide pulse on the tick
 *		tone itself) against the independent MarkerDetector's
 *		MarkerEvent, and promotes SyncState as confirmed minute
 *		boundaries accumulate at the expected 60s cadence.
 *
 *----------------------------------------------------------------*/

import "math"

const (
	syncPendingTimeoutMs    = 3000.0
	syncCorrToleranceMs     = 1500.0
	syncIntervalNominalMs   = 60_000.0
	syncIntervalToleranceMs = 5_000.0
	syncIntervalMinMs       = 55_000.0
	syncGoodIntervalLoMs    = 55_000.0
	syncGoodIntervalHiMs    = 65_000.0
	syncLockedAfter         = 2
)

// SyncDetector implements spec.md §4.10, plus the opt-in heartbeat-degrade
// extension decided in SPEC_FULL.md's Open Question §5: SyncState is
// monotonic toward Locked and is never demoted by a stall; degraded-ness
// is surfaced as a separate flag alongside it.
type SyncDetector struct {
	degradeAfterSec float64

	tickCorr *TickCorrelator

	pendingTick   *TickMarkerEvent
	pendingMarker *MarkerEvent

	state           SyncState
	goodIntervals   int64
	confirmedCount  int64
	lastConfirmedMs float64
	prevConfirmedMs float64
	haveConfirmed   bool
	lastCorrScore   float64

	lastActivityMs float64
	nowMs          float64

	onStatus func(SyncStatus)
}

// NewSyncDetector builds a detector. degradeAfterSec <= 0 disables the
// heartbeat-degrade extension entirely (SyncStatus.Degraded stays false).
func NewSyncDetector(degradeAfterSec float64) *SyncDetector {
	return &SyncDetector{degradeAfterSec: degradeAfterSec, lastCorrScore: 1.0}
}

func (d *SyncDetector) SetStatusCallback(cb func(SyncStatus)) { d.onStatus = cb }

// SetTickCorrelator wires in the tick correlator's cadence score (spec.md
// §4.8: "a hint consumed by the sync detector") as a soft weight on the
// correlation tolerance below. A correlator wired in late or never at all
// leaves the tolerance at its full, unweighted value.
func (d *SyncDetector) SetTickCorrelator(tc *TickCorrelator) { d.tickCorr = tc }

// ObserveTickMarker records the tick detector's own marker candidate.
func (d *SyncDetector) ObserveTickMarker(ev TickMarkerEvent) {
	d.expirePending(ev.TimestampMs)
	t := ev
	d.pendingTick = &t
	d.tryCorrelate()
}

// ObserveMarker records the independent marker detector's output.
func (d *SyncDetector) ObserveMarker(ev MarkerEvent) {
	d.expirePending(ev.TimestampMs)
	m := ev
	d.pendingMarker = &m
	d.tryCorrelate()
}

func (d *SyncDetector) expirePending(nowMs float64) {
	if d.pendingTick != nil && nowMs-d.pendingTick.TimestampMs > syncPendingTimeoutMs {
		d.pendingTick = nil
	}
	if d.pendingMarker != nil && nowMs-d.pendingMarker.TimestampMs > syncPendingTimeoutMs {
		d.pendingMarker = nil
	}
}

func (d *SyncDetector) tryCorrelate() {
	if d.pendingTick == nil || d.pendingMarker == nil {
		return
	}

	score := 1.0
	if d.tickCorr != nil {
		score = d.tickCorr.ScoreTickMarker(*d.pendingTick)
	}
	d.lastCorrScore = score

	// The cadence score never rejects a correlation outright - it only
	// narrows the tolerance when the tick detector's own marker candidate
	// is off the established cadence, per spec.md §4.8's "hint, never a
	// hard gate". A well-aligned candidate (score 1.0) gets the full
	// tolerance; a poorly-aligned one is held to half of it.
	tolerance := syncCorrToleranceMs * (0.5 + 0.5*score)

	delta := d.pendingTick.TimestampMs - d.pendingMarker.TimestampMs
	if math.Abs(delta) >= tolerance {
		return
	}

	ts := d.pendingMarker.TimestampMs
	d.pendingTick = nil
	d.pendingMarker = nil
	d.confirm(ts)
}

func (d *SyncDetector) confirm(tsMs float64) {
	d.lastActivityMs = tsMs
	d.nowMs = math.Max(d.nowMs, tsMs)

	isFirst := !d.haveConfirmed
	intervalMs := tsMs - d.lastConfirmedMs
	if isFirst || d.goodInterval(intervalMs) {
		d.prevConfirmedMs = d.lastConfirmedMs
		d.lastConfirmedMs = tsMs
		d.haveConfirmed = true
		d.confirmedCount++
		if !isFirst && intervalMs >= syncGoodIntervalLoMs && intervalMs <= syncGoodIntervalHiMs {
			d.goodIntervals++
		}
	}

	switch {
	case d.goodIntervals >= syncLockedAfter:
		d.state = SyncLocked
	case d.confirmedCount >= 1:
		d.state = SyncTentative
	default:
		d.state = SyncAcquiring
	}

	d.emit()
}

// goodInterval implements spec.md §4.10: "within ±5s of a whole multiple
// of 60s (accepting dropped markers), AND the interval >= 55s".
func (d *SyncDetector) goodInterval(intervalMs float64) bool {
	if intervalMs < syncIntervalMinMs {
		return false
	}
	nearestMultiple := math.Round(intervalMs/syncIntervalNominalMs) * syncIntervalNominalMs
	return math.Abs(intervalMs-nearestMultiple) <= syncIntervalToleranceMs
}

// Tick advances the detector's notion of "now" without a correlation
// event, so heartbeat degrade can be evaluated between markers.
func (d *SyncDetector) Tick(nowMs float64) {
	d.expirePending(nowMs)
	d.nowMs = math.Max(d.nowMs, nowMs)
	d.emitIfDue(nowMs)
}

func (d *SyncDetector) emit() {
	if d.onStatus != nil {
		d.onStatus(d.status(d.lastActivityMs))
	}
}

func (d *SyncDetector) emitIfDue(nowMs float64) {
	if d.onStatus != nil {
		d.onStatus(d.status(nowMs))
	}
}

func (d *SyncDetector) status(nowMs float64) SyncStatus {
	degraded := false
	if d.degradeAfterSec > 0 && d.haveConfirmed {
		degraded = (nowMs-d.lastActivityMs)/1000.0 > d.degradeAfterSec
	}
	return SyncStatus{
		State:          d.state,
		Degraded:       degraded,
		LastConfirmed:  d.lastConfirmedMs,
		PrevConfirmed:  d.prevConfirmedMs,
		ConfirmedCount: d.confirmedCount,
		GoodIntervals:  d.goodIntervals,
		LastCorrScore:  d.lastCorrScore,
	}
}

// Status returns the current snapshot as of the latest time the detector
// has seen, through Tick or a confirmation.
func (d *SyncDetector) Status() SyncStatus { return d.status(d.nowMs) }
