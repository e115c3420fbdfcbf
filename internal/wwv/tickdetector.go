package wwv

/*------------------------------------------------------------------
 *
 * Purpose:	Detect WWV/WWVH second ticks and the once-a-minute
 *		800ms marker tone on the 50kHz detector path
 *		(spec.md §4.2).
 *
 * Description:	A per-frame (5.12ms) bucket-energy source drives an
 *		IDLE/PULSE state machine. The adaptive noise floor only
 *		tracks frames while IDLE, so a long pulse cannot drag its
 *		own threshold down out from under it. WWV ticks at 1000 Hz
 *		and WWVH at 1200 Hz; both buckets are tracked and the
 *		frame energy used by the state machine is whichever is
 *		currently stronger, so a co-channel receiver still gets
 *		one coherent tick stream (duplicate near-simultaneous
 *		ticks are a tick correlator concern, not this detector's).
 *
 *----------------------------------------------------------------*/

import "math"

const (
	tickEntryThresholdFactor = 2.0
	tickExitHysteresis       = 0.7
	tickNoiseFloorAlpha      = 0.02 // slow first-order adaptation
	tickMaxPulseMs           = 1000.0
	tickMinDurationMs        = 2.0
	tickMaxDurationMs        = 50.0
	markerMinDurationMs      = 500.0
	markerMaxDurationMs      = 900.0
	tickWarmupFrames         = 100 // frames the floor adapts from zero before a pulse may start
)

type tickState int

const (
	tickIdle tickState = iota
	tickInPulse
)

// TickDetector implements spec.md §4.2.
type TickDetector struct {
	sampleRateHz float64
	buckets      []*bucketEnergyDetector
	filter       *complexChannelFilter

	noiseFloor float64
	state      tickState

	pulseStartMs  float64
	pulseDuration float64
	pulseSum      float64
	pulsePeak     float64
	pulseFrames   int

	frameIndex int64
	nextNumber int64

	onTick       func(TickEvent)
	onTickMarker func(TickMarkerEvent)
}

// NewTickDetector builds a tick detector watching the given tick tones
// (Hz) on the 50kHz detector path. tickHz is typically {1000, 1200}.
func NewTickDetector(sampleRateHz float64, tickHz []float64) *TickDetector {
	d := &TickDetector{sampleRateHz: sampleRateHz, filter: newSyncChannelFilter(sampleRateHz)}
	for _, hz := range tickHz {
		d.buckets = append(d.buckets, newBucketEnergyDetector(hz, sampleRateHz))
	}
	d.nextNumber = 1
	return d
}

func (d *TickDetector) SetTickCallback(cb func(TickEvent))             { d.onTick = cb }
func (d *TickDetector) SetTickMarkerCallback(cb func(TickMarkerEvent)) { d.onTickMarker = cb }

// ProcessSample feeds one complex sample of the 50kHz detector path.
// Non-finite input is coerced to zero per spec.md §7(b).
func (d *TickDetector) ProcessSample(i, q float64) {
	if !finite(i) {
		i = 0
	}
	if !finite(q) {
		q = 0
	}
	i, q = d.filter.process(i, q)

	var frameEnergy float64
	frameReady := false
	for _, b := range d.buckets {
		e, ok := b.feed(i, q)
		if ok {
			frameReady = true
			if e > frameEnergy {
				frameEnergy = e
			}
		}
	}
	if !frameReady {
		return
	}

	ts := float64(d.frameIndex) * frameDurationMs(d.sampleRateHz)
	d.frameIndex++
	d.onFrame(frameEnergy, ts)
}

func (d *TickDetector) onFrame(energy, ts float64) {
	threshold := d.noiseFloor * tickEntryThresholdFactor
	hysteresis := threshold * tickExitHysteresis

	switch d.state {
	case tickIdle:
		// Noise floor tracks while not in-pulse.
		d.noiseFloor += tickNoiseFloorAlpha * (energy - d.noiseFloor)

		if energy > threshold && d.frameIndex > tickWarmupFrames {
			d.state = tickInPulse
			d.pulseStartMs = ts
			d.pulseDuration = frameDurationMs(d.sampleRateHz)
			d.pulseSum = energy
			d.pulsePeak = energy
			d.pulseFrames = 1
		}

	case tickInPulse:
		// The frame that drops below hysteresis ends the pulse and is not
		// counted in its duration.
		if energy < hysteresis {
			d.state = tickIdle
			d.emitPulse()
			return
		}
		d.pulseDuration += frameDurationMs(d.sampleRateHz)
		d.pulseSum += energy
		d.pulseFrames++
		if energy > d.pulsePeak {
			d.pulsePeak = energy
		}

		if d.pulseDuration > tickMaxPulseMs {
			d.state = tickIdle
			d.emitPulse()
		}
	}
}

func (d *TickDetector) emitPulse() {
	dur := d.pulseDuration
	switch {
	case dur >= tickMinDurationMs && dur <= tickMaxDurationMs:
		snr := 0.0
		if d.noiseFloor > 0 {
			snr = 10 * math.Log10(d.pulsePeak/d.noiseFloor)
		}
		ev := TickEvent{
			TickNumber:  d.nextNumber,
			TimestampMs: d.pulseStartMs,
			DurationMs:  dur,
			PeakEnergy:  d.pulsePeak,
			NoiseFloor:  d.noiseFloor,
			SNRDb:       snr,
		}
		d.nextNumber++
		if d.onTick != nil {
			d.onTick(ev)
		}

	case dur >= markerMinDurationMs && dur <= markerMaxDurationMs:
		avg := d.pulseSum / float64(maxInt(d.pulseFrames, 1))
		ratio := 0.0
		if d.noiseFloor > 0 {
			ratio = avg / d.noiseFloor
		}
		ev := TickMarkerEvent{
			TimestampMs: d.pulseStartMs,
			DurationMs:  dur,
			CorrRatio:   ratio,
		}
		if d.onTickMarker != nil {
			d.onTickMarker(ev)
		}

	default:
		// Neither a tick nor a marker candidate: discard silently.
	}
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
