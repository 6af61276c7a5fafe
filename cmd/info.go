package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crapp/labpowerqt-sub000/serial"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <port>",
	Short: "Display detailed information about a serial port",
	Long: `Display detailed information about a serial port including USB metadata.

Examples:
  labpsu info /dev/ttyACM0

For USB devices, this displays vendor/product IDs, the serial number and
manufacturer strings read from sysfs, and the supply model when the IDs are
known. Use "labpsu identify" to ask the supply itself.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := serial.GetPortInfo(args[0])
		if err != nil {
			return fmt.Errorf("getting port info: %w", err)
		}

		fmt.Printf("Port Information: %s\n\n", info.Path)
		fmt.Printf("  Name:        %s\n", info.Name)
		fmt.Printf("  Description: %s\n", info.Description)

		if !info.IsUSB() {
			return nil
		}

		fmt.Println("\nUSB Device Information:")
		fmt.Printf("  Vendor ID:    %s\n", info.VendorID)
		fmt.Printf("  Product ID:   %s\n", info.ProductID)
		for _, field := range []struct{ label, value string }{
			{"Serial:      ", info.SerialNumber},
			{"Manufacturer:", info.Manufacturer},
			{"Product:     ", info.Product},
			{"Supply:      ", supplyHint(info)},
		} {
			if field.value != "" {
				fmt.Printf("  %s %s\n", field.label, field.value)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
