package components

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"

	"github.com/crapp/labpowerqt-sub000/internal/tui/colors"
	"github.com/crapp/labpowerqt-sub000/internal/tui/styles"
	"github.com/crapp/labpowerqt-sub000/psu"
)

const (
	columnChannel  = "channel"
	columnOutput   = "output"
	columnMode     = "mode"
	columnVoltage  = "voltage"
	columnVSet     = "vset"
	columnCurrent  = "current"
	columnISet     = "iset"
	columnWattage  = "wattage"
	missingReading = "-"
)

// ChannelTable shows one row per supply channel.
type ChannelTable struct {
	model    table.Model
	accuracy psu.Accuracy
	rows     int
}

func NewChannelTable(acc psu.Accuracy) *ChannelTable {
	columns := []table.Column{
		table.NewColumn(columnChannel, "CH", 4),
		table.NewColumn(columnOutput, "OUT", 5),
		table.NewColumn(columnMode, "MODE", 6),
		table.NewColumn(columnVoltage, "VOUT", 10).WithStyle(styles.VoltageStyle),
		table.NewColumn(columnVSet, "VSET", 10),
		table.NewColumn(columnCurrent, "IOUT", 10).WithStyle(styles.CurrentStyle),
		table.NewColumn(columnISet, "ISET", 10),
		table.NewColumn(columnWattage, "POWER", 10).WithStyle(styles.PowerStyle),
	}

	model := table.New(columns).
		BorderRounded().
		HeaderStyle(lipgloss.NewStyle().Bold(true).Foreground(colors.Mauve)).
		WithBaseStyle(lipgloss.NewStyle().BorderForeground(colors.Surface1).Foreground(colors.Text))

	return &ChannelTable{model: model, accuracy: acc}
}

// SetSnapshot replaces the rows with the channels of snap.
func (c *ChannelTable) SetSnapshot(snap psu.Snapshot) {
	rows := make([]table.Row, 0, len(snap.Channels))
	for _, ch := range snap.Channels {
		rows = append(rows, table.NewRow(c.rowData(ch)))
	}
	c.rows = len(rows)
	c.model = c.model.WithRows(rows)
}

func (c *ChannelTable) rowData(ch psu.ChannelSnapshot) table.RowData {
	data := table.RowData{
		columnChannel: strconv.Itoa(ch.Channel),
		columnOutput:  missingReading,
		columnMode:    missingReading,
		columnVoltage: FormatReading(ch.VoltageActual, c.accuracy.Voltage, "V"),
		columnVSet:    FormatReading(ch.VoltageSetpoint, c.accuracy.Voltage, "V"),
		columnCurrent: FormatReading(ch.CurrentActual, c.accuracy.Current, "A"),
		columnISet:    FormatReading(ch.CurrentSetpoint, c.accuracy.Current, "A"),
		columnWattage: FormatReading(ch.Wattage, c.accuracy.Voltage, "W"),
	}
	if ch.Output != nil {
		label := "off"
		if *ch.Output {
			label = "on"
		}
		data[columnOutput] = table.NewStyledCell(label, styles.OutputStyle(*ch.Output))
	}
	if ch.Mode != nil {
		data[columnMode] = table.NewStyledCell(ch.Mode.String(), styles.ModeStyle(*ch.Mode))
	}
	return data
}

// Rows returns how many channels are shown.
func (c *ChannelTable) Rows() int {
	return c.rows
}

// Height is the number of terminal lines the table occupies.
func (c *ChannelTable) Height() int {
	return lipgloss.Height(c.View())
}

func (c *ChannelTable) View() string {
	return c.model.View()
}

// FormatReading renders v with a fixed number of decimals, or "-" when the
// value has not been read yet.
func FormatReading(v *float64, decimals int, unit string) string {
	if v == nil {
		return missingReading
	}
	return strconv.FormatFloat(*v, 'f', decimals, 64) + " " + unit
}
