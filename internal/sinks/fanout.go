package sinks

/*------------------------------------------------------------------
 *
 * Purpose:	Compose any number of EventSinks into one (spec.md §9's
 *		"orchestrator fan-out" variant). A panic in one sink's
 *		handler is caught and logged so it never takes the others
 *		down with it; callbacks "must return quickly" (spec.md §6)
 *		but a slow or broken sink is still an external concern,
 *		not a reason to corrupt the core's callback thread.
 *----------------------------------------------------------------*/

import "github.com/alexpennington/wwvsync/internal/wwv"

// Fanout implements EventSink by forwarding every event to each of its
// member sinks in registration order.
type Fanout struct {
	sinks []EventSink
}

// NewFanout builds a Fanout over the given sinks.
func NewFanout(sinks ...EventSink) *Fanout {
	return &Fanout{sinks: sinks}
}

// guard recovers a panicking sink call so it never takes the others (or the
// orchestrator's callback thread) down with it.
func guard(component string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			wwv.Logger.Error("sink panicked, dropping event", "component", component, "panic", r)
		}
	}()
	fn()
}

func (f *Fanout) OnTick(ev wwv.TickEvent) {
	for _, s := range f.sinks {
		s := s
		guard("tick", func() { s.OnTick(ev) })
	}
}

func (f *Fanout) OnMarker(cm wwv.CorrelatedMarker) {
	for _, s := range f.sinks {
		s := s
		guard("marker", func() { s.OnMarker(cm) })
	}
}

func (f *Fanout) OnSync(st wwv.SyncStatus) {
	for _, s := range f.sinks {
		s := s
		guard("sync", func() { s.OnSync(st) })
	}
}

func (f *Fanout) OnBCDSymbol(sym wwv.BCDSymbol) {
	for _, s := range f.sinks {
		s := s
		guard("bcd_symbol", func() { s.OnBCDSymbol(sym) })
	}
}

func (f *Fanout) OnTone(m wwv.ToneMeasurement) {
	for _, s := range f.sinks {
		s := s
		guard("tone", func() { s.OnTone(m) })
	}
}
