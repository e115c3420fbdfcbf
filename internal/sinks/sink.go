// Package sinks fans events emitted by internal/wwv out to CSV files,
// UDP telemetry, and Prometheus metrics (spec.md §6, §9: "variants:
// in-process queue, CSV writer, telemetry emitter, orchestrator fan-out").
package sinks

import "github.com/alexpennington/wwvsync/internal/wwv"

// EventSink is the capability set spec.md §9 describes generalizing the
// source's function-pointer callbacks into. Any subset of methods can be
// a no-op; Fanout calls every sink for every event it receives.
type EventSink interface {
	OnTick(wwv.TickEvent)
	OnMarker(wwv.CorrelatedMarker)
	OnSync(wwv.SyncStatus)
	OnBCDSymbol(wwv.BCDSymbol)
	OnTone(wwv.ToneMeasurement)
}

// NopSink implements EventSink with no-op methods, for embedding in sinks
// that only care about a subset of events.
type NopSink struct{}

func (NopSink) OnTick(wwv.TickEvent)          {}
func (NopSink) OnMarker(wwv.CorrelatedMarker) {}
func (NopSink) OnSync(wwv.SyncStatus)         {}
func (NopSink) OnBCDSymbol(wwv.BCDSymbol)     {}
func (NopSink) OnTone(wwv.ToneMeasurement)    {}
