package wwv

/*------------------------------------------------------------------
 *
 * Purpose:	Wire every detector and correlator into one pipeline and
 *		expose the small surface callers actually need (spec.md
 *		§4.12): feed samples in, get events/status out.
 *
 * Description:	Two independent sample streams exist: the 50kHz
 *		detector path (tick/marker/BCD detectors) and the 12kHz
 *		display path (tone trackers and, via its own FFT, the
 *		slow marker detector). The display-path FFT is processed
 *		on its own goroutine so a slow waterfall consumer never
 *		backs up the detector path. The slow marker detector's
 *		frames reach the marker correlator on that worker
 *		goroutine, so a CorrelatedMarker completed by a slow frame
 *		is delivered there too; everything else here runs
 *		synchronously on the caller's goroutine, matching the
 *		single-threaded-per-sample-stream shape of the detectors
 *		themselves.
 *
 *----------------------------------------------------------------*/

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Config selects which stages of the pipeline run and how they're tuned.
// Every Enable* flag defaults to false; callers opt in to the stages they
// want. The BCD time/freq detectors and the BCD window correlator have no
// flag and are always built.
type Config struct {
	DetectorSampleRateHz float64
	DisplaySampleRateHz  float64
	DisplayFFTSize       int
	TickToneHz           []float64

	EnableTick        bool
	EnableMarker      bool
	EnableSlowMarker  bool
	EnableTone        bool
	EnableSync        bool
	EnableCorrelators bool

	DegradeAfterSec float64

	// DisplayFFTQueueDepth bounds the slow-marker-detector work queue;
	// zero selects a small default.
	DisplayFFTQueueDepth int
}

func (c Config) withDefaults() Config {
	if len(c.TickToneHz) == 0 {
		c.TickToneHz = []float64{1000.0, 1200.0}
	}
	if c.DisplayFFTSize == 0 {
		c.DisplayFFTSize = 4096
	}
	if c.DisplayFFTQueueDepth <= 0 {
		c.DisplayFFTQueueDepth = 16
	}
	return c
}

// Stats is a point-in-time counter snapshot (spec.md §4.12).
type Stats struct {
	TicksEmitted        int64
	MarkersEmitted      int64
	CorrelatedConfirmed int64
	CorrelatedFastOnly  int64
	CorrelatedSlowOnly  int64
	BCDSymbolsEmitted   int64
	DisplayFFTDropped   int64
}

type displayFFTJob struct {
	bins []complex128
	tsMs float64
}

// Orchestrator implements spec.md §4.12.
type Orchestrator struct {
	cfg Config

	tick      *TickDetector
	marker    *MarkerDetector
	slowMark  *SlowMarkerDetector
	toneCarr  *ToneTracker
	tone500   *ToneTracker
	tone600   *ToneTracker
	bcdTime   *BCDTimeDetector
	bcdFreq   *BCDFreqDetector
	tickCorr  *TickCorrelator
	markCorr  *MarkerCorrelator
	sync      *SyncDetector
	bcdWindow *BCDWindowCorrelator

	subcarrierNoiseFloor float64
	detectorSampleCount  int64

	stats Stats

	displayFFTCh chan displayFFTJob
	group        *errgroup.Group
	cancel       context.CancelFunc

	onTick       func(TickEvent)
	onMarker     func(CorrelatedMarker)
	onSyncStatus func(SyncStatus)
	onBCDSymbol  func(BCDSymbol)
	onTone       func(ToneMeasurement)
}

// NewOrchestrator builds the full detector/correlator graph per cfg and
// starts the display-FFT worker goroutine.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	cfg = cfg.withDefaults()
	if cfg.DetectorSampleRateHz <= 0 {
		return nil, fmt.Errorf("wwv: DetectorSampleRateHz must be positive")
	}

	o := &Orchestrator{cfg: cfg}

	if cfg.EnableTick {
		o.tick = NewTickDetector(cfg.DetectorSampleRateHz, cfg.TickToneHz)
		o.tick.SetTickCallback(o.handleTick)
		o.tick.SetTickMarkerCallback(o.handleTickMarker)
	}
	if cfg.EnableMarker {
		o.marker = NewMarkerDetector(cfg.DetectorSampleRateHz, cfg.TickToneHz)
		o.marker.SetMarkerCallback(o.handleMarker)
	}
	if cfg.EnableSlowMarker {
		if cfg.DisplaySampleRateHz <= 0 {
			return nil, fmt.Errorf("wwv: DisplaySampleRateHz must be positive when slow marker is enabled")
		}
		o.slowMark = NewSlowMarkerDetector(cfg.DisplayFFTSize, cfg.DisplaySampleRateHz, cfg.TickToneHz[0])
		o.slowMark.SetFrameCallback(o.handleSlowFrame)
	}
	if cfg.EnableTone {
		if cfg.DisplaySampleRateHz <= 0 {
			return nil, fmt.Errorf("wwv: DisplaySampleRateHz must be positive when tone tracking is enabled")
		}
		o.toneCarr = NewToneTracker(0, cfg.DisplaySampleRateHz)
		o.tone500 = NewToneTracker(500.0, cfg.DisplaySampleRateHz)
		o.tone600 = NewToneTracker(600.0, cfg.DisplaySampleRateHz)
	}

	o.bcdTime = NewBCDTimeDetector(cfg.DetectorSampleRateHz)
	o.bcdTime.SetEventCallback(o.handleBCDEvent)
	o.bcdFreq = NewBCDFreqDetector(cfg.DetectorSampleRateHz)
	o.bcdFreq.SetEventCallback(o.handleBCDEvent)
	o.bcdFreq.SetSharedNoiseFloor(&o.subcarrierNoiseFloor)
	o.bcdWindow = NewBCDWindowCorrelator()
	o.bcdWindow.SetSymbolCallback(o.handleBCDSymbol)

	if cfg.EnableCorrelators {
		o.tickCorr = NewTickCorrelator()
		o.markCorr = NewMarkerCorrelator()
		o.markCorr.SetCorrelatedCallback(o.handleCorrelatedMarker)
	}
	if cfg.EnableSync {
		o.sync = NewSyncDetector(cfg.DegradeAfterSec)
		o.sync.SetStatusCallback(o.handleSyncStatus)
		if o.tickCorr != nil {
			o.sync.SetTickCorrelator(o.tickCorr)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	o.cancel = cancel
	o.group = g
	o.displayFFTCh = make(chan displayFFTJob, cfg.DisplayFFTQueueDepth)
	g.Go(func() error { return o.runDisplayFFTWorker(gctx) })

	return o, nil
}

func (o *Orchestrator) runDisplayFFTWorker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case job, ok := <-o.displayFFTCh:
			if !ok {
				return nil
			}
			if o.slowMark != nil {
				o.slowMark.ProcessDisplayFFT(job.bins, job.tsMs)
			}
		}
	}
}

func (o *Orchestrator) SetTickCallback(cb func(TickEvent))                  { o.onTick = cb }
func (o *Orchestrator) SetMarkerCallback(cb func(CorrelatedMarker))         { o.onMarker = cb }
func (o *Orchestrator) SetSyncStatusCallback(cb func(SyncStatus))           { o.onSyncStatus = cb }
func (o *Orchestrator) SetBCDSymbolCallback(cb func(BCDSymbol))             { o.onBCDSymbol = cb }
func (o *Orchestrator) SetToneMeasurementCallback(cb func(ToneMeasurement)) { o.onTone = cb }

// ProcessDetectorSample feeds one complex sample of the 50kHz detector
// path to every enabled detector on that path.
func (o *Orchestrator) ProcessDetectorSample(i, q float64) {
	if o.tick != nil {
		o.tick.ProcessSample(i, q)
	}
	if o.marker != nil {
		o.marker.ProcessSample(i, q)
	}
	o.bcdTime.ProcessSample(i, q)
	o.bcdFreq.ProcessSample(i, q)

	// Drive the BCD window correlator's own clock off the detector
	// sample stream so a second with no detected pulse still force-closes
	// its window and emits a NONE symbol (spec.md §4.11: "exactly one
	// BCDSymbol per closed window"), rather than only ever advancing on
	// ObserveBCDEvent calls.
	o.detectorSampleCount++
	tsMs := float64(o.detectorSampleCount) * 1000.0 / o.cfg.DetectorSampleRateHz
	o.bcdWindow.Advance(tsMs)
}

// ProcessDisplaySample feeds one complex sample of the 12kHz display
// path to the tone trackers.
func (o *Orchestrator) ProcessDisplaySample(i, q float64) {
	if o.toneCarr != nil {
		if m, ok := o.toneCarr.ProcessSample(i, q); ok {
			o.handleTone(m)
		}
	}
	if o.tone500 != nil {
		if m, ok := o.tone500.ProcessSample(i, q); ok {
			o.handleTone(m)
			if m.Valid {
				o.subcarrierNoiseFloor = m.NoiseFloorLinear
			}
		}
	}
	if o.tone600 != nil {
		if m, ok := o.tone600.ProcessSample(i, q); ok {
			o.handleTone(m)
		}
	}
}

// ProcessDisplayFFT enqueues one already-computed display-path FFT frame
// (owned by an external waterfall/spectrum component, per spec.md §4.4)
// for the slow marker detector. A full queue drops the frame rather than
// blocking the caller, counted in Stats.DisplayFFTDropped.
func (o *Orchestrator) ProcessDisplayFFT(bins []complex128, tsMs float64) {
	if o.slowMark == nil {
		return
	}
	select {
	case o.displayFFTCh <- displayFFTJob{bins: bins, tsMs: tsMs}:
	default:
		o.stats.DisplayFFTDropped++
	}
}

func (o *Orchestrator) handleTick(ev TickEvent) {
	o.stats.TicksEmitted++
	if o.tickCorr != nil {
		o.tickCorr.ObserveTick(ev)
	}
	if o.onTick != nil {
		o.onTick(ev)
	}
}

func (o *Orchestrator) handleTickMarker(ev TickMarkerEvent) {
	if o.sync != nil {
		o.sync.ObserveTickMarker(ev)
	}
}

func (o *Orchestrator) handleMarker(ev MarkerEvent) {
	o.stats.MarkersEmitted++
	if o.sync != nil {
		o.sync.ObserveMarker(ev)
	}
	if o.markCorr != nil {
		o.markCorr.ObserveMarker(ev)
	}
}

func (o *Orchestrator) handleSlowFrame(f SlowMarkerFrame) {
	if o.markCorr != nil {
		o.markCorr.ObserveSlowFrame(f)
	}
}

func (o *Orchestrator) handleCorrelatedMarker(cm CorrelatedMarker) {
	confirmed, fastOnly, slowOnly := o.markCorr.Counters()
	o.stats.CorrelatedConfirmed = confirmed
	o.stats.CorrelatedFastOnly = fastOnly
	o.stats.CorrelatedSlowOnly = slowOnly
	if o.onMarker != nil {
		o.onMarker(cm)
	}
}

func (o *Orchestrator) handleSyncStatus(s SyncStatus) {
	if s.LastConfirmed > 0 {
		o.bcdWindow.SetAnchor(s.LastConfirmed)
	}
	o.bcdWindow.SetLocked(s.State == SyncLocked)
	if o.onSyncStatus != nil {
		o.onSyncStatus(s)
	}
}

func (o *Orchestrator) handleBCDEvent(ev BCDEvent) {
	o.bcdWindow.ObserveBCDEvent(ev)
}

func (o *Orchestrator) handleBCDSymbol(sym BCDSymbol) {
	o.stats.BCDSymbolsEmitted++
	if o.onBCDSymbol != nil {
		o.onBCDSymbol(sym)
	}
}

func (o *Orchestrator) handleTone(m ToneMeasurement) {
	if o.onTone != nil {
		o.onTone(m)
	}
}

// GetSyncStatus returns the current lock status, or the zero SyncStatus
// (ACQUIRING, not degraded) if sync detection was not enabled. Degrade is
// evaluated at the detector path's current sample time.
func (o *Orchestrator) GetSyncStatus() SyncStatus {
	if o.sync == nil {
		return SyncStatus{}
	}
	return o.sync.status(float64(o.detectorSampleCount) * 1000.0 / o.cfg.DetectorSampleRateHz)
}

// Stats returns a snapshot of the orchestrator's running counters.
func (o *Orchestrator) Stats() Stats { return o.stats }

// Shutdown closes the BCD window correlator's open window, if any, so its
// symbol is emitted, then stops the display-FFT worker and waits for it to
// exit. Display FFT frames still queued at that point may be discarded
// unprocessed.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	if o.bcdWindow.haveWindow {
		o.bcdWindow.closeWindow()
	}
	o.cancel()
	close(o.displayFFTCh)
	done := make(chan error, 1)
	go func() { done <- o.group.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
