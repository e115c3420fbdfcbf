// Copyright the wwvsync authors.

/*------------------------------------------------------------------
 *
 * Package:	wwv
 *
 * Purpose:	Real-time WWV/WWVH time-signal receiver core: the
 *		detector chain (tick, marker, slow-marker, tone, BCD
 *		time/freq) and the correlators that fuse their events
 *		into a disciplined minute/second timebase plus a
 *		per-second decoded BCD symbol stream.
 *
 *		Everything in this package runs on the caller's thread,
 *		synchronously, except the Orchestrator's display-FFT
 *		worker goroutine (see orchestrator.go). The tone trackers
 *		allocate FFT buffers on every measurement, and the
 *		correlators copy each event they hold onto the heap.
 *		SDR acquisition, audio playback, waterfall rendering,
 *		CSV/telemetry sinks and test-signal generation are all
 *		external collaborators; this package only defines the
 *		data contract it expects from, and hands to, them.
 *
 *---------------------------------------------------------------*/

package wwv
