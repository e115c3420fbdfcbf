package commands

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/alexpennington/wwvsync/internal/config"
	"github.com/alexpennington/wwvsync/internal/wwv"
)

var configPath string

// rootCmd is the top-level cobra command for wwvsyncd.
var rootCmd = &cobra.Command{
	Use:   "wwvsyncd",
	Short: "NIST WWV/WWVH time-signal receiver and synchronizer",
	Long: "wwvsyncd locks onto WWV/WWVH minute markers, decodes the BCD\n" +
		"time-code subcarrier, and reports receiver frequency offset\n" +
		"against the station's reference tones.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (YAML)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(devicesCmd())
	rootCmd.AddCommand(bandSelectCmd())
}

// Execute runs the root command and exits with spec.md §6's exit codes:
// 0 on clean shutdown, 1 on invalid configuration or upstream failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads and validates the daemon config, then points the
// package-wide logger at the configured level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	wwv.Logger.SetLevel(config.ParseLogLevel(cfg.Log.Level))
	if cfg.Log.Format == "json" {
		wwv.Logger.SetFormatter(log.JSONFormatter)
	}
	return cfg, nil
}
