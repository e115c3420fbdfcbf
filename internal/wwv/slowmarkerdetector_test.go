package wwv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	slowMarkerTestFFTSize   = 1024
	slowMarkerTestSampleHz  = 12_000.0
	slowMarkerTestTargetHz  = 1000.0
	slowMarkerTestCenterBin = 85 // round(1000*1024/12000)
)

func slowMarkerBins(values map[int]float64) []complex128 {
	bins := make([]complex128, slowMarkerTestFFTSize)
	for idx, v := range values {
		bins[idx] = complex(math.Sqrt(v), 0)
	}
	return bins
}

func TestSlowMarkerDetector_BelowThresholdDuringNoise(t *testing.T) {
	d := NewSlowMarkerDetector(slowMarkerTestFFTSize, slowMarkerTestSampleHz, slowMarkerTestTargetHz)
	var last SlowMarkerFrame
	d.SetFrameCallback(func(f SlowMarkerFrame) { last = f })

	noiseBins := map[int]float64{79: 1.0, 80: 1.0, 90: 1.0, 91: 1.0}
	for i := 0; i < 50; i++ {
		d.ProcessDisplayFFT(slowMarkerBins(noiseBins), float64(i)*85)
	}

	assert.False(t, last.AboveThreshold)
}

func TestSlowMarkerDetector_SustainedSignalCrossesThreshold(t *testing.T) {
	d := NewSlowMarkerDetector(slowMarkerTestFFTSize, slowMarkerTestSampleHz, slowMarkerTestTargetHz)
	var last SlowMarkerFrame
	d.SetFrameCallback(func(f SlowMarkerFrame) { last = f })

	noiseBins := map[int]float64{79: 1.0, 80: 1.0, 90: 1.0, 91: 1.0}
	for i := 0; i < 50; i++ {
		d.ProcessDisplayFFT(slowMarkerBins(noiseBins), float64(i)*85)
	}

	signalBins := map[int]float64{
		81: 1000, 82: 1000, 83: 1000, 84: 1000, 85: 1000,
		86: 1000, 87: 1000, 88: 1000, 89: 1000,
	}
	for i := 0; i < slowMarkerRingSize; i++ {
		d.ProcessDisplayFFT(slowMarkerBins(signalBins), float64(50+i)*85)
	}

	assert.True(t, last.AboveThreshold, "a ring's worth of strong frames should cross the threshold")
	assert.Greater(t, last.Energy, 0.0)
	assert.Greater(t, last.SNRDb, 0.0)
}

func TestSlowMarkerDetector_OutOfRangeBinsContributeZero(t *testing.T) {
	assert.Equal(t, 0.0, magSq(nil, 0))
	assert.Equal(t, 0.0, magSq([]complex128{1 + 2i}, -1))
	assert.Equal(t, 0.0, magSq([]complex128{1 + 2i}, 5))
	assert.Equal(t, 5.0, magSq([]complex128{1 + 2i}, 0))
}
