package wwv

/*------------------------------------------------------------------
 *
 * Purpose:	BCD "frequency code" pulse detector on the data channel
 *		(spec.md §4.7). Unlike the time-code detector, this one
 *		never computes its own narrowband energy: it runs an
 *		envelope detector straight off the already data-channel-
 *		filtered I/Q (newDataChannelFilter), since the BCD
 *		sub-carrier here is amplitude, not frequency, coded.
 *
 *----------------------------------------------------------------*/

import "math"

const (
	bcdFreqEntryThresholdFactor = 2.0
	bcdFreqNoiseFloorAlpha      = 0.01
	bcdFreqSustainMinMs         = 100.0
	bcdFreqWarmupSamples        = 1000 // samples the filter and floor settle before a run may start
)

// BCDFreqDetector implements spec.md §4.7. It owns its own copy of the
// data-channel filter cascade; the orchestrator feeds it the same raw
// I/Q samples it feeds every other detector on the data path.
type BCDFreqDetector struct {
	sampleRateHz float64
	filter       *complexChannelFilter

	// sharedNoiseFloor, when non-nil, is the process-wide subcarrier
	// noise floor owned by the orchestrator (spec.md §9): this detector
	// reads it to seed/blend its local estimate rather than tracking a
	// second, independent floor from a cold start.
	sharedNoiseFloor *float64

	noiseFloor float64
	inRun      bool
	runStartMs float64
	runSum     float64

	frameIndex int64

	onEvent func(BCDEvent)
}

// NewBCDFreqDetector builds a detector running its own data-channel filter
// cascade over the raw detector-path I/Q.
func NewBCDFreqDetector(sampleRateHz float64) *BCDFreqDetector {
	return &BCDFreqDetector{
		sampleRateHz: sampleRateHz,
		filter:       newDataChannelFilter(sampleRateHz),
	}
}

func (d *BCDFreqDetector) SetEventCallback(cb func(BCDEvent)) { d.onEvent = cb }

// SetSharedNoiseFloor wires this detector to the orchestrator-owned
// subcarrier noise floor scalar (spec.md §9).
func (d *BCDFreqDetector) SetSharedNoiseFloor(ref *float64) { d.sharedNoiseFloor = ref }

func (d *BCDFreqDetector) ProcessSample(i, q float64) {
	if !finite(i) {
		i = 0
	}
	if !finite(q) {
		q = 0
	}

	fi, fq := d.filter.process(i, q)
	envelope := math.Hypot(fi, fq)

	ts := float64(d.frameIndex) / d.sampleRateHz * 1000.0
	d.frameIndex++
	d.onSample(envelope, ts)
}

func (d *BCDFreqDetector) onSample(envelope, ts float64) {
	floor := d.noiseFloor
	if d.sharedNoiseFloor != nil && *d.sharedNoiseFloor > 0 {
		floor = (floor + *d.sharedNoiseFloor) / 2.0
	}
	threshold := floor * bcdFreqEntryThresholdFactor

	if !d.inRun {
		d.noiseFloor += bcdFreqNoiseFloorAlpha * (envelope - d.noiseFloor)
	}

	if envelope > threshold && d.frameIndex > bcdFreqWarmupSamples {
		if !d.inRun {
			d.inRun = true
			d.runStartMs = ts
			d.runSum = 0
		}
		d.runSum += envelope
		return
	}

	if !d.inRun {
		return
	}

	d.inRun = false
	duration := ts - d.runStartMs
	if duration < bcdFreqSustainMinMs {
		return
	}

	ev := BCDEvent{
		Source:      BCDSourceFreq,
		TimestampMs: d.runStartMs,
		DurationMs:  duration,
		Energy:      d.runSum,
	}
	if d.onEvent != nil {
		d.onEvent(ev)
	}
}
