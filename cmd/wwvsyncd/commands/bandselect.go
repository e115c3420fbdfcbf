package commands

/*------------------------------------------------------------------
 *
 * Purpose:	Step a companion HF receiver across the standard
 *		NIST WWV/WWVH carrier frequencies via Hamlib CAT control,
 *		so an operator can find the strongest propagation path
 *		without touching the radio directly.
 *
 *----------------------------------------------------------------*/

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexpennington/wwvsync/internal/hardware"
)

func bandSelectCmd() *cobra.Command {
	var dwell time.Duration

	cmd := &cobra.Command{
		Use:   "bandselect",
		Short: "Step a Hamlib-controlled receiver across WWV/WWVH carrier frequencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cfg.Hardware.RigEnabled {
				return fmt.Errorf("hardware.rig_enabled is false in config")
			}

			rig, err := hardware.NewRig(cfg.Hardware.RigModel, cfg.Hardware.RigDevice)
			if err != nil {
				return fmt.Errorf("open rig: %w", err)
			}
			defer rig.Close()

			for _, freqHz := range hardware.WWVFrequenciesHz {
				fmt.Printf("tuning to %.0f Hz\n", freqHz)
				if err := rig.SetFrequencyHz(freqHz); err != nil {
					return fmt.Errorf("set frequency %.0f: %w", freqHz, err)
				}

				readBack, err := rig.FrequencyHz()
				if err != nil {
					fmt.Printf("  readback failed: %v\n", err)
				} else {
					fmt.Printf("  readback: %.0f Hz\n", readBack)
				}

				select {
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				case <-time.After(dwell):
				}
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&dwell, "dwell", 10*time.Second, "time to dwell on each frequency")
	return cmd
}
