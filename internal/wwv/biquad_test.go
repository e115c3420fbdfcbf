package wwv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBiquadSection_ResetClearsState(t *testing.T) {
	s := lowpassSection(1000, tickTestSampleRateHz, butterworthQ1)

	first := s.process(1.0)
	s.process(0.5)
	s.process(-0.3)

	s.reset()
	again := s.process(1.0)

	assert.Equal(t, first, again, "reset must clear delay-line state, not just coefficients")
}

// measureRMS drives the filter with a steady tone, discards settleFrames
// worth of samples to let the IIR transient die out, then returns the RMS
// of the I output over the next measureFrames.
func measureRMS(f *complexChannelFilter, hz, amp, sampleRateHz float64, settleFrames, measureFrames int) float64 {
	settle := settleFrames * frameSize
	measure := measureFrames * frameSize
	var sumSq float64
	for n := 0; n < settle+measure; n++ {
		t := float64(n) / sampleRateHz
		v := amp * math.Sin(2*math.Pi*hz*t)
		oi, _ := f.process(v, 0)
		if n >= settle {
			sumSq += oi * oi
		}
	}
	return math.Sqrt(sumSq / float64(measure))
}

func TestComplexChannelFilter_SyncBandPassesPassbandMoreThanStopband(t *testing.T) {
	pass := newSyncChannelFilter(tickTestSampleRateHz)
	rmsPass := measureRMS(pass, 1100, 1.0, tickTestSampleRateHz, 50, 50)

	stop := newSyncChannelFilter(tickTestSampleRateHz)
	rmsStop := measureRMS(stop, 100, 1.0, tickTestSampleRateHz, 50, 50)

	assert.Greater(t, rmsPass, 2*rmsStop,
		"the 800-1400Hz sync band filter should pass a 1100Hz tone far more readily than a 100Hz one")
}

func TestComplexChannelFilter_DataBandPassesLowFrequencyMoreThanHigh(t *testing.T) {
	low := newDataChannelFilter(tickTestSampleRateHz)
	rmsLow := measureRMS(low, 10, 1.0, tickTestSampleRateHz, 50, 50)

	high := newDataChannelFilter(tickTestSampleRateHz)
	rmsHigh := measureRMS(high, 5000, 1.0, tickTestSampleRateHz, 50, 50)

	assert.Greater(t, rmsLow, 2*rmsHigh,
		"the <150Hz data band filter should pass a 10Hz tone far more readily than a 5kHz one")
}

func TestComplexChannelFilter_ResetClearsBothChannels(t *testing.T) {
	f := newSyncChannelFilter(tickTestSampleRateHz)

	oi1, oq1 := f.process(1.0, 1.0)
	f.process(0.5, -0.5)

	f.reset()
	oi2, oq2 := f.process(1.0, 1.0)

	assert.Equal(t, oi1, oi2)
	assert.Equal(t, oq1, oq2)
}
