package wwv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func feedConstDC(d *BCDFreqDetector, samples int, amp float64) {
	for n := 0; n < samples; n++ {
		d.ProcessSample(amp, 0)
	}
}

func TestBCDFreqDetector_SustainedEnvelopeEmitsEvent(t *testing.T) {
	d := NewBCDFreqDetector(tickTestSampleRateHz)
	var events []BCDEvent
	d.SetEventCallback(func(e BCDEvent) { events = append(events, e) })

	feedConstDC(d, 2000, 0.01)  // settle the low-pass filter and noise floor
	feedConstDC(d, 6000, 1.0)   // 6000/50000s = 120ms, over the 100ms sustain floor
	feedConstDC(d, 2000, 0.01)

	if assert.Len(t, events, 1) {
		assert.Equal(t, BCDSourceFreq, events[0].Source)
		assert.GreaterOrEqual(t, events[0].DurationMs, 100.0)
		assert.Greater(t, events[0].Energy, 0.0)
	}
}

func TestBCDFreqDetector_TooShortEnvelopeNeverEmits(t *testing.T) {
	d := NewBCDFreqDetector(tickTestSampleRateHz)
	var events []BCDEvent
	d.SetEventCallback(func(e BCDEvent) { events = append(events, e) })

	feedConstDC(d, 2000, 0.01)
	feedConstDC(d, 1000, 1.0) // 20ms, under the 100ms floor
	feedConstDC(d, 2000, 0.01)

	assert.Len(t, events, 0)
}

func TestBCDFreqDetector_SharedNoiseFloorRaisesEntryThreshold(t *testing.T) {
	d := NewBCDFreqDetector(tickTestSampleRateHz)
	shared := 10.0
	d.SetSharedNoiseFloor(&shared)
	var events []BCDEvent
	d.SetEventCallback(func(e BCDEvent) { events = append(events, e) })

	feedConstDC(d, 2000, 0.01)
	feedConstDC(d, 6000, 1.0) // would clear a local-only threshold, not a blended one this high
	feedConstDC(d, 2000, 0.01)

	assert.Len(t, events, 0, "a high shared noise floor should suppress detection of a weak pulse")
}
