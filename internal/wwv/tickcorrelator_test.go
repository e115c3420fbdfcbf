package wwv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickCorrelator_MeanIntervalMsZeroWithNoHistory(t *testing.T) {
	c := NewTickCorrelator()
	assert.Equal(t, 0.0, c.MeanIntervalMs())
}

func TestTickCorrelator_MeanIntervalTracksSteadyCadence(t *testing.T) {
	c := NewTickCorrelator()
	for i := 0; i < 10; i++ {
		c.ObserveTick(TickEvent{TickNumber: int64(i + 1), TimestampMs: float64(i) * 1000})
	}
	assert.InDelta(t, 1000.0, c.MeanIntervalMs(), 0.01)
}

func TestTickCorrelator_HistoryWindowIsBounded(t *testing.T) {
	c := NewTickCorrelator()
	for i := 0; i < tickCorrHistorySize+20; i++ {
		c.ObserveTick(TickEvent{TickNumber: int64(i + 1), TimestampMs: float64(i) * 1000})
	}
	assert.LessOrEqual(t, len(c.intervals), tickCorrHistorySize)
	assert.InDelta(t, 1000.0, c.MeanIntervalMs(), 0.01)
}

func TestTickCorrelator_NonPositiveIntervalIsIgnored(t *testing.T) {
	c := NewTickCorrelator()
	c.ObserveTick(TickEvent{TickNumber: 1, TimestampMs: 1000})
	c.ObserveTick(TickEvent{TickNumber: 2, TimestampMs: 1000}) // duplicate timestamp: zero interval
	c.ObserveTick(TickEvent{TickNumber: 3, TimestampMs: 2000})

	assert.InDelta(t, 1000.0, c.MeanIntervalMs(), 0.01)
}

func TestTickCorrelator_ScoreTickMarkerOnCadenceScoresOne(t *testing.T) {
	c := NewTickCorrelator()
	for i := 0; i < 5; i++ {
		c.ObserveTick(TickEvent{TickNumber: int64(i + 1), TimestampMs: float64(i) * 1000})
	}
	score := c.ScoreTickMarker(TickMarkerEvent{TimestampMs: 4000})
	assert.Equal(t, 1.0, score)
}

func TestTickCorrelator_ScoreTickMarkerOffCadenceScoresLower(t *testing.T) {
	c := NewTickCorrelator()
	for i := 0; i < 5; i++ {
		c.ObserveTick(TickEvent{TickNumber: int64(i + 1), TimestampMs: float64(i) * 1000})
	}
	onCadence := c.ScoreTickMarker(TickMarkerEvent{TimestampMs: 4000})
	offCadence := c.ScoreTickMarker(TickMarkerEvent{TimestampMs: 4300})
	assert.Less(t, offCadence, onCadence)
}

func TestTickCorrelator_ScoreTickMarkerWithNoHistoryFallsBackToNominal(t *testing.T) {
	c := NewTickCorrelator()
	score := c.ScoreTickMarker(TickMarkerEvent{TimestampMs: 0})
	assert.Equal(t, 1.0, score, "first marker lines up with itself with no prior tick history")
}
