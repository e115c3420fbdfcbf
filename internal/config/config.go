// Package config loads the wwvsyncd daemon configuration using koanf/v2.
//
// Supports YAML files and environment variables, layered on top of
// built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete wwvsyncd configuration.
type Config struct {
	Pipeline PipelineConfig `koanf:"pipeline"`
	Sinks    SinksConfig    `koanf:"sinks"`
	Hardware HardwareConfig `koanf:"hardware"`
	Log      LogConfig      `koanf:"log"`
}

// PipelineConfig is the orchestrator's config/CLI surface (spec.md §6),
// plus the sample-rate and degrade-heartbeat knobs SPEC_FULL.md adds.
type PipelineConfig struct {
	// OutputDir is where CSV sinks write their log files.
	OutputDir string `koanf:"output_dir"`

	EnableTick        bool `koanf:"enable_tick"`
	EnableMarker      bool `koanf:"enable_marker"`
	EnableSync        bool `koanf:"enable_sync"`
	EnableTone        bool `koanf:"enable_tone"`
	EnableCorrelators bool `koanf:"enable_correlators"`
	EnableSlowMarker  bool `koanf:"enable_slow_marker"`

	// DegradeAfterSec enables the opt-in heartbeat-degrade extension
	// (SPEC_FULL.md §5); 0 disables it.
	DegradeAfterSec float64 `koanf:"degrade_after_sec"`

	DetectorSampleRateHz float64   `koanf:"detector_sample_rate_hz"`
	DisplaySampleRateHz  float64   `koanf:"display_sample_rate_hz"`
	TickToneHz           []float64 `koanf:"tick_tone_hz"`
}

// SinksConfig controls the event-sink fan-out (CSV, telemetry, metrics).
type SinksConfig struct {
	CSVEnabled bool `koanf:"csv_enabled"`

	TelemetryEnabled bool   `koanf:"telemetry_enabled"`
	TelemetryAddr    string `koanf:"telemetry_addr"`

	MetricsEnabled bool   `koanf:"metrics_enabled"`
	MetricsAddr    string `koanf:"metrics_addr"`
}

// HardwareConfig describes the optional GPIO/mDNS/rig collaborators.
type HardwareConfig struct {
	LNAEnabled  bool   `koanf:"lna_enabled"`
	LNAGPIOChip string `koanf:"lna_gpio_chip"`
	LNAGPIOLine int    `koanf:"lna_gpio_line"`

	AdvertiseEnabled bool   `koanf:"advertise_enabled"`
	AdvertiseName    string `koanf:"advertise_name"`

	RigEnabled bool   `koanf:"rig_enabled"`
	RigModel   int    `koanf:"rig_model"`
	RigDevice  string `koanf:"rig_device"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "text" or "json".
	Format string `koanf:"format"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults. Every
// Enable* flag under PipelineConfig defaults to true, per spec.md §6.
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			OutputDir:            ".",
			EnableTick:           true,
			EnableMarker:         true,
			EnableSync:           true,
			EnableTone:           true,
			EnableCorrelators:    true,
			EnableSlowMarker:     true,
			DegradeAfterSec:      0,
			DetectorSampleRateHz: 50_000.0,
			DisplaySampleRateHz:  12_000.0,
			TickToneHz:           []float64{1000.0, 1200.0},
		},
		Sinks: SinksConfig{
			CSVEnabled:       true,
			TelemetryEnabled: false,
			TelemetryAddr:    "255.255.255.255:7373",
			MetricsEnabled:   false,
			MetricsAddr:      ":9200",
		},
		Hardware: HardwareConfig{
			LNAGPIOChip:   "/dev/gpiochip0",
			LNAGPIOLine:   17,
			AdvertiseName: "wwvsync",
			RigModel:      1, // Hamlib RIG_MODEL_DUMMY
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for wwvsyncd configuration.
// Variables are named WWVSYNC_<section>_<key>, e.g. WWVSYNC_PIPELINE_ENABLE_TONE.
const envPrefix = "WWVSYNC_"

// Load reads configuration from a YAML file at path (if non-empty),
// overlays environment variable overrides (WWVSYNC_ prefix), and merges
// on top of DefaultConfig(). Missing fields inherit defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := k.Load(structProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	// Unmarshal onto the defaults so fields no layer supplied keep them.
	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// envKeyMapper transforms WWVSYNC_PIPELINE_ENABLE_TONE -> pipeline.enable_tone.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 {
		return s
	}
	return parts[0] + "." + parts[1]
}

// structProvider adapts a *Config (already populated with defaults) into a
// koanf confmap-style provider by round-tripping it through the YAML
// parser's own marshal/unmarshal, reusing the pack's "yaml" dependency
// rather than hand-rolling a reflection-based flattener. The marshal keys
// fields by lower-cased Go field name, not by koanf tag, so only
// single-word fields line up with their koanf keys; Load therefore
// unmarshals onto DefaultConfig() rather than an empty Config.
func structProvider(cfg *Config) koanf.Provider {
	return &defaultsProvider{cfg: cfg}
}

type defaultsProvider struct{ cfg *Config }

func (p *defaultsProvider) ReadBytes() ([]byte, error) {
	return yaml.Parser().Marshal(map[string]any{
		"pipeline": p.cfg.Pipeline,
		"sinks":    p.cfg.Sinks,
		"hardware": p.cfg.Hardware,
		"log":      p.cfg.Log,
	})
}

func (p *defaultsProvider) Read() (map[string]interface{}, error) {
	b, err := p.ReadBytes()
	if err != nil {
		return nil, err
	}
	return yaml.Parser().Unmarshal(b)
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

var (
	// ErrInvalidDetectorSampleRate indicates DetectorSampleRateHz <= 0.
	ErrInvalidDetectorSampleRate = errors.New("pipeline.detector_sample_rate_hz must be > 0")

	// ErrInvalidDisplaySampleRate indicates DisplaySampleRateHz <= 0 while
	// a display-path feature is enabled.
	ErrInvalidDisplaySampleRate = errors.New("pipeline.display_sample_rate_hz must be > 0 when tone tracking or slow marker detection is enabled")

	// ErrEmptyTickToneHz indicates no tick tone frequencies were configured.
	ErrEmptyTickToneHz = errors.New("pipeline.tick_tone_hz must not be empty")

	// ErrEmptyOutputDir indicates an empty output directory with CSV sinks enabled.
	ErrEmptyOutputDir = errors.New("pipeline.output_dir must not be empty when sinks.csv_enabled is true")
)

// Validate checks the configuration for logical errors (spec.md §7(e):
// "schema violations in config are rejected at construction").
func Validate(cfg *Config) error {
	if cfg.Pipeline.DetectorSampleRateHz <= 0 {
		return ErrInvalidDetectorSampleRate
	}
	if (cfg.Pipeline.EnableTone || cfg.Pipeline.EnableSlowMarker) && cfg.Pipeline.DisplaySampleRateHz <= 0 {
		return ErrInvalidDisplaySampleRate
	}
	if len(cfg.Pipeline.TickToneHz) == 0 {
		return ErrEmptyTickToneHz
	}
	if cfg.Sinks.CSVEnabled && cfg.Pipeline.OutputDir == "" {
		return ErrEmptyOutputDir
	}
	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// charmbracelet/log level. Unknown values default to log.InfoLevel.
func ParseLogLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
