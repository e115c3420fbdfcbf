package commands

/*------------------------------------------------------------------
 *
 * Purpose:	The `run` subcommand: opens a sound-card capture stream
 *		via gordonklaus/portaudio, decimates it into the
 *		orchestrator's two sample streams (a 50kHz detector path
 *		and a 12kHz display path), fans emitted events out to the
 *		configured sinks, and shuts down cleanly on SIGINT/SIGTERM.
 *
 *----------------------------------------------------------------*/

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alexpennington/wwvsync/internal/config"
	"github.com/alexpennington/wwvsync/internal/hardware"
	"github.com/alexpennington/wwvsync/internal/sinks"
	"github.com/alexpennington/wwvsync/internal/wwv"
)

// captureSampleRateHz is the native sound-card rate. The detector path
// takes it undecimated; the display path's decimation factor is computed
// against it.
const captureSampleRateHz = 50_000.0

// framesPerBuffer bounds portaudio's per-callback batch size.
const framesPerBuffer = 512

func runCmd() *cobra.Command {
	var deviceIndex int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the receiver against a live sound-card capture feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runReceiver(cmd.Context(), cfg, deviceIndex)
		},
	}

	cmd.Flags().IntVar(&deviceIndex, "device", -1, "portaudio input device index (-1 selects the default)")
	return cmd
}

func runReceiver(ctx context.Context, cfg *config.Config, deviceIndex int) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch, err := wwv.NewOrchestrator(wwv.Config{
		DetectorSampleRateHz: cfg.Pipeline.DetectorSampleRateHz,
		DisplaySampleRateHz:  cfg.Pipeline.DisplaySampleRateHz,
		TickToneHz:           cfg.Pipeline.TickToneHz,
		EnableTick:           cfg.Pipeline.EnableTick,
		EnableMarker:         cfg.Pipeline.EnableMarker,
		EnableSlowMarker:     cfg.Pipeline.EnableSlowMarker,
		EnableTone:           cfg.Pipeline.EnableTone,
		EnableSync:           cfg.Pipeline.EnableSync,
		EnableCorrelators:    cfg.Pipeline.EnableCorrelators,
		DegradeAfterSec:      cfg.Pipeline.DegradeAfterSec,
	})
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}

	fanout, closeSinks, err := buildSinks(cfg)
	if err != nil {
		return fmt.Errorf("build sinks: %w", err)
	}
	defer closeSinks()

	orch.SetMarkerCallback(fanout.OnMarker)
	orch.SetSyncStatusCallback(fanout.OnSync)
	orch.SetBCDSymbolCallback(fanout.OnBCDSymbol)
	orch.SetToneMeasurementCallback(fanout.OnTone)

	closeHW := startHardware(cfg)
	defer closeHW()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Sinks.MetricsEnabled {
		g.Go(func() error { return runMetricsServer(gctx, cfg.Sinks.MetricsAddr) })
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	capture, err := newCaptureStream(deviceIndex, orch, cfg.Pipeline.DisplaySampleRateHz)
	if err != nil {
		return fmt.Errorf("open capture stream: %w", err)
	}

	if err := capture.Start(); err != nil {
		return fmt.Errorf("start capture stream: %w", err)
	}
	wwv.Logger.Info("capture stream started", "sample_rate_hz", captureSampleRateHz)

	g.Go(func() error {
		<-gctx.Done()
		wwv.Logger.Info("shutting down")
		if err := capture.Stop(); err != nil {
			wwv.Logger.Warn("stop capture stream", "err", err)
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return orch.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		return err
	}
	return nil
}

// captureStream wraps the portaudio stream and the display-path decimator.
type captureStream struct {
	stream *portaudio.Stream
	orch   *wwv.Orchestrator

	displayDecimFactor int
	displayAccum       int
}

// newCaptureStream opens a mono input stream at captureSampleRateHz. Each
// sample feeds the detector path directly (the stream's native rate is the
// detector path's rate) and, after decimation, the display path; treating
// the single real input channel as a complex sample with zero imaginary
// part matches an envelope/AM receiver front end, same as the teacher's
// mono TNC audio input (it never carries a true I/Q pair either).
func newCaptureStream(deviceIndex int, orch *wwv.Orchestrator, displaySampleRateHz float64) (*captureStream, error) {
	dev, err := inputDevice(deviceIndex)
	if err != nil {
		return nil, err
	}

	decim := 1
	if displaySampleRateHz > 0 {
		decim = int(captureSampleRateHz / displaySampleRateHz)
		if decim < 1 {
			decim = 1
		}
	}

	c := &captureStream{orch: orch, displayDecimFactor: decim}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      captureSampleRateHz,
		FramesPerBuffer: framesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, c.onSamples)
	if err != nil {
		return nil, fmt.Errorf("open portaudio stream: %w", err)
	}
	c.stream = stream
	return c, nil
}

func (c *captureStream) onSamples(in []float32) {
	for _, s := range in {
		v := float64(s)
		c.orch.ProcessDetectorSample(v, 0)

		c.displayAccum++
		if c.displayAccum >= c.displayDecimFactor {
			c.displayAccum = 0
			c.orch.ProcessDisplaySample(v, 0)
		}
	}
}

func (c *captureStream) Start() error { return c.stream.Start() }
func (c *captureStream) Stop() error  { return c.stream.Stop() }

func inputDevice(index int) (*portaudio.DeviceInfo, error) {
	if index < 0 {
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("default input device: %w", err)
		}
		return dev, nil
	}
	devs, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	if index >= len(devs) {
		return nil, fmt.Errorf("device index %d out of range (%d devices)", index, len(devs))
	}
	return devs[index], nil
}

// buildSinks assembles the enabled EventSinks into one Fanout, per
// spec.md §6/§9, and returns a closer that releases every sink's resources.
func buildSinks(cfg *config.Config) (*sinks.Fanout, func(), error) {
	var active []sinks.EventSink
	var closers []func()

	if cfg.Sinks.CSVEnabled {
		csv, err := sinks.NewCSVSink(cfg.Pipeline.OutputDir)
		if err != nil {
			return nil, nil, fmt.Errorf("csv sink: %w", err)
		}
		active = append(active, csv)
		closers = append(closers, csv.Close)
	}

	if cfg.Sinks.TelemetryEnabled {
		tel, err := sinks.NewTelemetrySink(cfg.Sinks.TelemetryAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("telemetry sink: %w", err)
		}
		active = append(active, tel)
		closers = append(closers, func() { tel.Close() })
	}

	if cfg.Sinks.MetricsEnabled {
		active = append(active, sinks.NewMetricsSink(prometheus.DefaultRegisterer))
	}

	fanout := sinks.NewFanout(active...)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return fanout, closeAll, nil
}

// startHardware brings up the optional GPIO/mDNS collaborators named in
// spec.md §6's "named interfaces", logging and skipping any that fail to
// initialize rather than aborting the run.
func startHardware(cfg *config.Config) func() {
	var closers []func()

	if cfg.Hardware.LNAEnabled {
		lna, err := hardware.NewLNAController(cfg.Hardware.LNAGPIOChip, cfg.Hardware.LNAGPIOLine, -1)
		if err != nil {
			wwv.Logger.Warn("LNA controller unavailable", "err", err)
		} else {
			if err := lna.SetEnabled(true); err != nil {
				wwv.Logger.Warn("enable LNA failed", "err", err)
			}
			closers = append(closers, func() { lna.Close() })
		}
	}

	if cfg.Hardware.AdvertiseEnabled {
		port := 7373
		if cfg.Sinks.TelemetryEnabled {
			if _, p, err := splitPort(cfg.Sinks.TelemetryAddr); err == nil {
				port = p
			}
		}
		adv, err := hardware.NewAdvertiser(cfg.Hardware.AdvertiseName, port)
		if err != nil {
			wwv.Logger.Warn("mDNS advertiser unavailable", "err", err)
		} else {
			closers = append(closers, adv.Close)
		}
	}

	return func() {
		for _, c := range closers {
			c()
		}
	}
}

// splitPort parses the port number out of a host:port address string.
func splitPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("split host:port %s: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("parse port %s: %w", portStr, err)
	}
	return host, port, nil
}

func runMetricsServer(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	}
}
