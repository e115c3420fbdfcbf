package wwv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func feedConstToneBCDTime(d *BCDTimeDetector, frames int, hz, amp float64) {
	total := frames * frameSize
	for n := 0; n < total; n++ {
		t := float64(n) / tickTestSampleRateHz
		v := amp * math.Sin(2*math.Pi*hz*t)
		d.ProcessSample(v, 0)
	}
}

func TestBCDTimeDetector_SustainedPulseEmitsEvent(t *testing.T) {
	d := NewBCDTimeDetector(tickTestSampleRateHz)
	var events []BCDEvent
	d.SetEventCallback(func(e BCDEvent) { events = append(events, e) })

	feedConstToneBCDTime(d, 200, 100, 0.01)
	feedConstToneBCDTime(d, 80, 100, 1.0) // ~410ms, inside the 100-1000ms band
	feedConstToneBCDTime(d, 20, 100, 0.01)

	if assert.Len(t, events, 1) {
		assert.Equal(t, BCDSourceTime, events[0].Source)
		assert.GreaterOrEqual(t, events[0].DurationMs, 100.0)
		assert.LessOrEqual(t, events[0].DurationMs, 1000.0)
		assert.Greater(t, events[0].Energy, 0.0)
	}
}

func TestBCDTimeDetector_TooShortPulseNeverEmits(t *testing.T) {
	d := NewBCDTimeDetector(tickTestSampleRateHz)
	var events []BCDEvent
	d.SetEventCallback(func(e BCDEvent) { events = append(events, e) })

	feedConstToneBCDTime(d, 200, 100, 0.01)
	feedConstToneBCDTime(d, 5, 100, 1.0) // ~25.6ms, under the 100ms floor
	feedConstToneBCDTime(d, 20, 100, 0.01)

	assert.Len(t, events, 0)
}

func TestBCDTimeDetector_TooLongPulseNeverEmits(t *testing.T) {
	d := NewBCDTimeDetector(tickTestSampleRateHz)
	var events []BCDEvent
	d.SetEventCallback(func(e BCDEvent) { events = append(events, e) })

	feedConstToneBCDTime(d, 200, 100, 0.01)
	feedConstToneBCDTime(d, 250, 100, 1.0) // 250*5.12ms = 1280ms, over the 1000ms ceiling
	feedConstToneBCDTime(d, 20, 100, 0.01)

	assert.Len(t, events, 0)
}
