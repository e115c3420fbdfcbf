package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexpennington/wwvsync/internal/hardware"
)

func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List sound-card capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			devs, err := hardware.ListCaptureDevices()
			if err != nil {
				return fmt.Errorf("list capture devices: %w", err)
			}
			if len(devs) == 0 {
				fmt.Println("no capture devices found")
				return nil
			}
			for _, d := range devs {
				fmt.Printf("%s\tvendor=%s\tproduct=%s\tserial=%s\n", d.DevNode, d.Vendor, d.Product, d.Serial)
			}
			return nil
		},
	}
}
