package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/crapp/labpowerqt-sub000/serial"
)

// knownSupplies maps USB vendor:product IDs to the supplies that use them.
var knownSupplies = map[string]string{
	"0416:5011": "Korad/Tenma KA3005P (Nuvoton CDC)",
	"1a86:7523": "CH340 adapter (KA3305P and clones)",
	"0483:5740": "STM32 CDC (newer Korad firmware)",
}

// supplyHint returns the likely supply behind a port, or "".
func supplyHint(info *serial.PortInfo) string {
	if !info.IsUSB() {
		return ""
	}
	return knownSupplies[strings.ToLower(info.VendorID+":"+info.ProductID)]
}

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List serial ports that may have a supply attached",
	Long: `List serial ports on the system.

USB ports whose vendor and product IDs match a known supply interface are
marked. Bench supplies normally show up as USB CDC/ACM devices (ttyACM*)
or USB serial adapters (ttyUSB*).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := serial.ListPorts()
		if err != nil {
			return fmt.Errorf("listing ports: %w", err)
		}

		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		ports = filterPorts(ports, filterType)
		if len(ports) == 0 {
			if filterType != "" {
				fmt.Printf("No serial ports found matching filter: %s\n", filterType)
			} else {
				fmt.Println("No serial ports found")
			}
			return nil
		}

		if tableFormat {
			renderTable(ports)
		} else {
			renderSimple(ports)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("filter", "", "Filter by port type: usb, supply, standard, arm, all")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// filterPorts filters the port list based on the specified filter type
func filterPorts(ports []string, filterType string) []string {
	filterType = strings.ToLower(filterType)
	if filterType == "" || filterType == "all" {
		return ports
	}

	var filtered []string
	for _, port := range ports {
		info, err := serial.GetPortInfo(port)
		if err != nil {
			continue
		}

		name := strings.ToLower(info.Name)
		var keep bool
		switch filterType {
		case "usb":
			keep = strings.HasPrefix(name, "ttyusb") || strings.HasPrefix(name, "ttyacm")
		case "supply":
			keep = supplyHint(info) != ""
		case "standard":
			keep = strings.HasPrefix(name, "ttys")
		case "arm":
			keep = strings.HasPrefix(name, "ttyama")
		}
		if keep {
			filtered = append(filtered, port)
		}
	}
	return filtered
}

// renderTable renders the port list in a styled static table format
func renderTable(ports []string) {
	fmt.Printf("Found %d serial port(s):\n\n", len(ports))

	const portWidth, usbWidth, descWidth = 15, 11, 22

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("240"))
	cellStyle := lipgloss.NewStyle().PaddingRight(2)
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("114"))

	fmt.Println(headerStyle.Render(fmt.Sprintf("%-*s %-*s %-*s %s",
		portWidth, "Port",
		usbWidth, "VID:PID",
		descWidth, "Description",
		"Supply")))

	for _, port := range ports {
		info, err := serial.GetPortInfo(port)
		if err != nil {
			fmt.Println(cellStyle.Render(fmt.Sprintf("%-*s %-*s %-*s",
				portWidth, port,
				usbWidth, "-",
				descWidth, fmt.Sprintf("Error: %v", err))))
			continue
		}

		usb := "-"
		if info.IsUSB() {
			usb = info.VendorID + ":" + info.ProductID
		}
		row := fmt.Sprintf("%-*s %-*s %-*s ",
			portWidth, info.Name,
			usbWidth, usb,
			descWidth, info.Description)
		fmt.Println(cellStyle.Render(row) + hintStyle.Render(supplyHint(info)))
	}
}

// renderSimple prints one path per line for use in scripts
func renderSimple(ports []string) {
	for _, port := range ports {
		fmt.Println(port)
	}
}
