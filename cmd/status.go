package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/crapp/labpowerqt-sub000/internal/tui/components"
	"github.com/crapp/labpowerqt-sub000/psu"
)

// statusReport is what the status command prints.
type statusReport struct {
	Device         string       `json:"device" yaml:"device"`
	Identification string       `json:"identification,omitempty" yaml:"identification,omitempty"`
	Status         psu.Snapshot `json:"status" yaml:"status"`
}

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Read and print the current state of the supply",
	Long: `Run one status poll and print setpoints, readings, output and
protection state of every channel.

Example usage:
  labpsu status --port /dev/ttyACM0
  labpsu status --format json | jq '.status.channels[0].voltage_actual'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != "table" && format != "json" && format != "yaml" {
			return fmt.Errorf("unknown format %q: use table, json or yaml", format)
		}

		sc, err := sessionConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout(sc))
		defer cancel()

		s, _, err := oneShot(ctx, (*psu.Session).GetStatus)
		if err != nil {
			return err
		}
		defer disconnect(s)

		report := statusReport{
			Device:         sc.Device,
			Identification: s.Identification(),
			Status:         s.Status().Snapshot(),
		}
		return writeStatus(os.Stdout, format, report, sc.Accuracy)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringP("format", "o", "table", "Output format: table, json, yaml")
}

func writeStatus(w io.Writer, format string, r statusReport, acc psu.Accuracy) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	fmt.Fprintln(w, title.Render(r.Device)+" "+r.Identification)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("CH", "OUT", "MODE", "VOUT", "VSET", "IOUT", "ISET", "POWER")
	for _, ch := range r.Status.Channels {
		t.Row(
			strconv.Itoa(ch.Channel),
			onOff(ch.Output),
			modeName(ch.Mode),
			components.FormatReading(ch.VoltageActual, acc.Voltage, "V"),
			components.FormatReading(ch.VoltageSetpoint, acc.Voltage, "V"),
			components.FormatReading(ch.CurrentActual, acc.Current, "A"),
			components.FormatReading(ch.CurrentSetpoint, acc.Current, "A"),
			components.FormatReading(ch.Wattage, acc.Voltage, "W"),
		)
	}
	fmt.Fprintln(w, t.Render())

	var flags []string
	for _, f := range []struct {
		name string
		on   *bool
	}{
		{"ovp", r.Status.OVP}, {"ocp", r.Status.OCP}, {"otp", r.Status.OTP},
		{"beep", r.Status.Beeper}, {"lock", r.Status.Locked},
	} {
		if f.on != nil {
			flags = append(flags, f.name+"="+onOff(f.on))
		}
	}
	if r.Status.Tracking != nil {
		flags = append(flags, "tracking="+r.Status.Tracking.String())
	}
	if len(flags) > 0 {
		fmt.Fprintln(w, strings.Join(flags, "  "))
	}
	return nil
}

func onOff(b *bool) string {
	switch {
	case b == nil:
		return "-"
	case *b:
		return "on"
	default:
		return "off"
	}
}

func modeName(m *psu.Mode) string {
	if m == nil {
		return "-"
	}
	return m.String()
}
