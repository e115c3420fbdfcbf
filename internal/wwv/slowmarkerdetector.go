package wwv

/*------------------------------------------------------------------
 *
 * Purpose:	Slow (12kHz display-path) marker verifier (spec.md
 *		§4.4). Consumes already-computed FFT bins from the
 *		external display FFT (out of scope for this package -
 *		waterfall/spectrum rendering owns that FFT) and maintains
 *		a sliding sum of N=10 frame energies, each frame being a
 *		~85ms, 50%-overlap window centered on the marker tone.
 *
 *----------------------------------------------------------------*/

import "math"

const slowMarkerRingSize = 10

// SlowMarkerDetector implements spec.md §4.4.
type SlowMarkerDetector struct {
	fftSize      int
	sampleRateHz float64
	centerBin    int

	noiseFloor float64

	ring     [slowMarkerRingSize]float64
	ringSum  float64
	ringNext int
	ringFull bool

	onFrame func(SlowMarkerFrame)
}

// NewSlowMarkerDetector configures the detector for a display FFT of the
// given size/rate, centered on targetHz (the tick-tone frequency, e.g.
// 1000 Hz) with a ±50Hz bucket (spec.md §4.4: "configured for 1000Hz ±50Hz").
func NewSlowMarkerDetector(fftSize int, sampleRateHz, targetHz float64) *SlowMarkerDetector {
	return &SlowMarkerDetector{
		fftSize:      fftSize,
		sampleRateHz: sampleRateHz,
		centerBin:    int(math.Round(targetHz * float64(fftSize) / sampleRateHz)),
	}
}

func (d *SlowMarkerDetector) SetFrameCallback(cb func(SlowMarkerFrame)) { d.onFrame = cb }

// ProcessDisplayFFT is called by the orchestrator once per completed
// display-path FFT frame, ~85ms apart with 50% overlap, per spec.md §4.4
// and §4.12 (process_display_fft).
func (d *SlowMarkerDetector) ProcessDisplayFFT(bins []complex128, tsMs float64) {
	halfWidth := int(math.Round(50.0 * float64(d.fftSize) / d.sampleRateHz))
	if halfWidth < 1 {
		halfWidth = 1
	}

	var signal float64
	for b := d.centerBin - halfWidth; b <= d.centerBin+halfWidth; b++ {
		signal += magSq(bins, b)
	}

	// Noise from two adjacent buckets, just outside the signal window.
	noiseLo := magSq(bins, d.centerBin-halfWidth-2) + magSq(bins, d.centerBin-halfWidth-1)
	noiseHi := magSq(bins, d.centerBin+halfWidth+1) + magSq(bins, d.centerBin+halfWidth+2)
	noise := (noiseLo + noiseHi) / 4.0

	aboveNow := signal > d.noiseFloor*markerEntryThresholdFactor*slowMarkerRingSize
	if !aboveNow {
		d.noiseFloor += markerNoiseFloorAlpha * (noise - d.noiseFloor)
	}

	if d.ringFull {
		d.ringSum -= d.ring[d.ringNext]
	}
	d.ring[d.ringNext] = signal
	d.ringSum += signal
	d.ringNext = (d.ringNext + 1) % slowMarkerRingSize
	if d.ringNext == 0 {
		d.ringFull = true
	}

	threshold := d.noiseFloor * markerEntryThresholdFactor * slowMarkerRingSize
	above := d.ringSum > threshold

	snr := 0.0
	if d.noiseFloor > 0 {
		snr = 10 * math.Log10(signal/d.noiseFloor)
	}

	frame := SlowMarkerFrame{
		Energy:         d.ringSum,
		SNRDb:          snr,
		NoiseFloor:     d.noiseFloor,
		TimestampMs:    tsMs,
		AboveThreshold: above,
	}
	if d.onFrame != nil {
		d.onFrame(frame)
	}
}

func magSq(bins []complex128, idx int) float64 {
	if idx < 0 || idx >= len(bins) {
		return 0
	}
	c := bins[idx]
	re := real(c)
	im := imag(c)
	return re*re + im*im
}
