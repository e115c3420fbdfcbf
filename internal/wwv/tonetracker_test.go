package wwv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// feedTone feeds n samples of a real tone (zero imaginary part, so it has
// both the USB and LSB components the tracker averages) and returns the
// last measurement produced.
func feedTone(tr *ToneTracker, n int, sampleRateHz, toneHz, amplitude float64) (ToneMeasurement, bool) {
	var meas ToneMeasurement
	var ok bool
	for k := 0; k < n; k++ {
		t := float64(k) / sampleRateHz
		i := amplitude * math.Cos(2*math.Pi*toneHz*t)
		if m, got := tr.ProcessSample(i, 0); got {
			meas, ok = m, true
		}
	}
	return meas, ok
}

func TestToneTracker_ExactNominalFrequency(t *testing.T) {
	const sampleRateHz = 12_000.0
	tr := NewToneTracker(500.0, sampleRateHz)

	meas, ok := feedTone(tr, toneFFTSize*3, sampleRateHz, 500.0, 1.0)
	if assert.True(t, ok, "expected a measurement once the FFT buffer fills") {
		assert.InDelta(t, 500.0, meas.MeasuredHz, 5.0)
		assert.InDelta(t, 0.0, meas.OffsetHz, 5.0)
		assert.True(t, meas.Valid)
	}
}

func TestToneTracker_OffsetFrequencyMeasuresPositiveOffset(t *testing.T) {
	const sampleRateHz = 12_000.0
	tr := NewToneTracker(500.0, sampleRateHz)

	meas, ok := feedTone(tr, toneFFTSize*3, sampleRateHz, 503.0, 1.0)
	if assert.True(t, ok) {
		assert.Greater(t, meas.OffsetHz, 0.0)
		assert.InDelta(t, 3.0, meas.OffsetHz, 5.0)
	}
}

func TestToneTracker_LowAmplitudeFailsSNRGate(t *testing.T) {
	const sampleRateHz = 12_000.0
	tr := NewToneTracker(500.0, sampleRateHz)

	// The SNR is peak over (noise + 1e-10), so a noiseless tone fails the
	// gate only once its peak falls near that fixed 1e-10 term.
	meas, ok := feedTone(tr, toneFFTSize*3, sampleRateHz, 500.0, 1e-13)
	if ok {
		assert.False(t, meas.Valid, "a signal indistinguishable from the noise floor must not be valid")
	}
}

func TestWrapBin(t *testing.T) {
	assert.Equal(t, 0, wrapBin(0, 16))
	assert.Equal(t, 15, wrapBin(-1, 16))
	assert.Equal(t, 1, wrapBin(17, 16))
}
