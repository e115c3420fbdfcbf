package wwv

/*------------------------------------------------------------------
 *
 * Purpose:	BCD "time code" pulse detector on the 100Hz subcarrier
 *		(spec.md §4.6). Same run-length-above-threshold shape as
 *		the marker detector, but windowed for 100-1000ms pulses
 *		and with no cool-down: WWV emits one BCD bit every second.
 *
 *----------------------------------------------------------------*/

const (
	bcdTimeEntryThresholdFactor = 2.0
	bcdTimeNoiseFloorAlpha      = 0.05
	bcdTimeMinDurationMs        = 100.0
	bcdTimeMaxDurationMs        = 1000.0
	bcdTimeWarmupFrames         = 100 // frames the floor adapts from zero before a run may start
)

// BCDTimeDetector implements spec.md §4.6.
type BCDTimeDetector struct {
	sampleRateHz float64
	bucket       *bucketEnergyDetector

	noiseFloor float64
	inRun      bool
	runStartMs float64
	runSum     float64
	runFrames  int

	frameIndex int64

	onEvent func(BCDEvent)
}

// NewBCDTimeDetector builds a detector watching the 100Hz BCD subcarrier
// bucket on the 50kHz detector path.
func NewBCDTimeDetector(sampleRateHz float64) *BCDTimeDetector {
	return &BCDTimeDetector{
		sampleRateHz: sampleRateHz,
		bucket:       newBucketEnergyDetector(100.0, sampleRateHz),
	}
}

func (d *BCDTimeDetector) SetEventCallback(cb func(BCDEvent)) { d.onEvent = cb }

func (d *BCDTimeDetector) ProcessSample(i, q float64) {
	if !finite(i) {
		i = 0
	}
	if !finite(q) {
		q = 0
	}

	energy, ok := d.bucket.feed(i, q)
	if !ok {
		return
	}

	ts := float64(d.frameIndex) * frameDurationMs(d.sampleRateHz)
	d.frameIndex++
	d.onFrame(energy, ts)
}

func (d *BCDTimeDetector) onFrame(energy, ts float64) {
	threshold := d.noiseFloor * bcdTimeEntryThresholdFactor

	if !d.inRun {
		d.noiseFloor += bcdTimeNoiseFloorAlpha * (energy - d.noiseFloor)
	}

	if energy > threshold && d.frameIndex > bcdTimeWarmupFrames {
		if !d.inRun {
			d.inRun = true
			d.runStartMs = ts
			d.runSum = 0
			d.runFrames = 0
		}
		d.runSum += energy
		d.runFrames++
		return
	}

	if !d.inRun {
		return
	}

	d.inRun = false
	duration := ts - d.runStartMs
	if duration < bcdTimeMinDurationMs || duration > bcdTimeMaxDurationMs {
		return
	}

	ev := BCDEvent{
		Source:      BCDSourceTime,
		TimestampMs: d.runStartMs,
		DurationMs:  duration,
		Energy:      d.runSum,
	}
	if d.onEvent != nil {
		d.onEvent(ev)
	}
}
