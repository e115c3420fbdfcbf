package wwv

/*------------------------------------------------------------------
 *
 * Purpose:	Fast-path minute-marker detector on the 50kHz detector
 *		path (spec.md §4.3). Same FFT/Goertzel plumbing as the
 *		tick detector, but integrating over a window matched to
 *		an 800ms pulse rather than a 5ms one, with its own noise
 *		floor and a hard 30s cool-down between emissions.
 *
 *----------------------------------------------------------------*/

import "math"

const (
	markerEntryThresholdFactor = 2.0
	markerNoiseFloorAlpha      = 0.02
	markerSustainMinMs         = 500.0
	markerCooldownMs           = 30_000.0
	markerWarmupFrames         = 100 // frames the floor adapts from zero before a run may start
)

// MarkerDetector implements spec.md §4.3.
type MarkerDetector struct {
	sampleRateHz float64
	buckets      []*bucketEnergyDetector
	filter       *complexChannelFilter

	noiseFloor float64
	inRun      bool
	runStartMs float64
	runSum     float64
	runFrames  int

	lastEmitMs float64
	haveEmit   bool
	nextNumber int64

	frameIndex int64

	// metadata is carried only for CSV/telemetry annotation; it never
	// influences detection (spec.md §4.3).
	metadata ReceiverMetadata

	onMarker func(MarkerEvent)
}

// NewMarkerDetector builds a marker detector watching the given tick
// tone(s) (typically {1000, 1200}) for the sustained 800ms marker pulse.
func NewMarkerDetector(sampleRateHz float64, tickHz []float64) *MarkerDetector {
	d := &MarkerDetector{sampleRateHz: sampleRateHz, filter: newSyncChannelFilter(sampleRateHz)}
	for _, hz := range tickHz {
		d.buckets = append(d.buckets, newBucketEnergyDetector(hz, sampleRateHz))
	}
	d.nextNumber = 1
	return d
}

func (d *MarkerDetector) SetMarkerCallback(cb func(MarkerEvent)) { d.onMarker = cb }

// LogMetadata records front-end state (center freq, gain, LNA), readable
// back through Metadata; it has no effect on detection logic. No sink in
// this repository writes it into its records.
func (d *MarkerDetector) LogMetadata(md ReceiverMetadata) { d.metadata = md }

func (d *MarkerDetector) Metadata() ReceiverMetadata { return d.metadata }

func (d *MarkerDetector) ProcessSample(i, q float64) {
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

func (d *MarkerDetector) onFrame(energy, ts float64) {
	threshold := d.noiseFloor * markerEntryThresholdFactor

	if !d.inRun {
		d.noiseFloor += markerNoiseFloorAlpha * (energy - d.noiseFloor)
	}

	if energy > threshold && d.frameIndex > markerWarmupFrames {
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

	// Run just ended.
	d.inRun = false
	duration := ts - d.runStartMs
	if duration < markerSustainMinMs {
		return
	}

	if d.haveEmit && (ts-d.lastEmitMs) < markerCooldownMs {
		// Within cool-down: drop silently (spec.md invariant #3).
		return
	}

	sinceLastSec := math.NaN()
	if d.haveEmit {
		sinceLastSec = (ts - d.lastEmitMs) / 1000.0
	}

	avg := d.runSum / float64(maxInt(d.runFrames, 1))
	snr := 0.0
	if d.noiseFloor > 0 {
		snr = 10 * math.Log10(avg/d.noiseFloor)
	}

	ev := MarkerEvent{
		MarkerNumber:       d.nextNumber,
		TimestampMs:        d.runStartMs,
		DurationMs:         duration,
		AccumulatedEnergy:  d.runSum,
		NoiseFloor:         d.noiseFloor,
		SNRDb:              snr,
		SinceLastMarkerSec: sinceLastSec,
	}
	d.nextNumber++
	d.lastEmitMs = ts
	d.haveEmit = true

	if d.onMarker != nil {
		d.onMarker(ev)
	}
}
