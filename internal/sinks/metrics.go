package sinks

/*------------------------------------------------------------------
 *
 * Purpose:	Prometheus metrics sink, grounded on dantte-lp-gobfd's
 *		internal/metrics collector: one registry, counters for
 *		monotonic event counts, gauges for the latest measurement
 *		of each continuously-updated quantity.
 *
 *----------------------------------------------------------------*/

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alexpennington/wwvsync/internal/wwv"
)

// MetricsSink implements EventSink by updating a set of Prometheus
// collectors registered against a caller-supplied registry.
type MetricsSink struct {
	NopSink

	markersConfirmed prometheus.Counter
	markersFastOnly  prometheus.Counter
	markersSlowOnly  prometheus.Counter
	bcdSymbols       *prometheus.CounterVec
	syncState        prometheus.Gauge
	syncDegraded     prometheus.Gauge
	toneOffsetPPM    *prometheus.GaugeVec
	toneSNRDb        *prometheus.GaugeVec
}

// NewMetricsSink registers its collectors against reg and returns the sink.
func NewMetricsSink(reg prometheus.Registerer) *MetricsSink {
	s := &MetricsSink{
		markersConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wwvsync", Subsystem: "markers", Name: "confirmed_total",
			Help: "Minute markers confirmed by both fast and slow paths.",
		}),
		markersFastOnly: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wwvsync", Subsystem: "markers", Name: "fast_only_total",
			Help: "Minute markers seen on the fast path only.",
		}),
		markersSlowOnly: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wwvsync", Subsystem: "markers", Name: "slow_only_total",
			Help: "Slow-path marker candidates with no matching fast-path event; this sink receives only CorrelatedMarker events and never increments it.",
		}),
		bcdSymbols: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wwvsync", Subsystem: "bcd", Name: "symbols_total",
			Help: "BCD symbols emitted, labeled by kind.",
		}, []string{"kind"}),
		syncState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wwvsync", Subsystem: "sync", Name: "state",
			Help: "Sync detector state: 0=ACQUIRING, 1=TENTATIVE, 2=LOCKED.",
		}),
		syncDegraded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wwvsync", Subsystem: "sync", Name: "degraded",
			Help: "1 if the heartbeat-degrade extension considers sync stale.",
		}),
		toneOffsetPPM: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "wwvsync", Subsystem: "tone", Name: "offset_ppm",
			Help: "Latest frequency offset estimate per tracked tone.",
		}, []string{"nominal_hz"}),
		toneSNRDb: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "wwvsync", Subsystem: "tone", Name: "snr_db",
			Help: "Latest SNR estimate per tracked tone.",
		}, []string{"nominal_hz"}),
	}

	reg.MustRegister(s.markersConfirmed, s.markersFastOnly, s.markersSlowOnly,
		s.bcdSymbols, s.syncState, s.syncDegraded, s.toneOffsetPPM, s.toneSNRDb)

	return s
}

func (s *MetricsSink) OnMarker(cm wwv.CorrelatedMarker) {
	switch cm.Confidence {
	case wwv.ConfidenceHigh:
		s.markersConfirmed.Inc()
	case wwv.ConfidenceLow:
		s.markersFastOnly.Inc()
	}
}

func (s *MetricsSink) OnSync(st wwv.SyncStatus) {
	s.syncState.Set(float64(st.State))
	if st.Degraded {
		s.syncDegraded.Set(1)
	} else {
		s.syncDegraded.Set(0)
	}
}

func (s *MetricsSink) OnBCDSymbol(sym wwv.BCDSymbol) {
	s.bcdSymbols.WithLabelValues(sym.Kind.String()).Inc()
}

func (s *MetricsSink) OnTone(m wwv.ToneMeasurement) {
	label := prometheus.Labels{"nominal_hz": formatHz(m.NominalHz)}
	s.toneOffsetPPM.With(label).Set(m.OffsetPPM)
	s.toneSNRDb.With(label).Set(m.SNRDb)
}

func formatHz(hz float64) string {
	if hz == 0 {
		return "dc"
	}
	return strconv.Itoa(int(hz))
}
