package cmd

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/crapp/labpowerqt-sub000/internal/logging"
	"github.com/crapp/labpowerqt-sub000/internal/tui/components"
	"github.com/crapp/labpowerqt-sub000/internal/tui/models"
	"github.com/crapp/labpowerqt-sub000/psu"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor and control the supply in an interactive terminal",
	Long: `Open the supply and show a live view of every channel with an event log
and a command line.

Keys:
  :        enter a command (same syntax as "labpsu set")
  o        toggle the output
  r        poll now
  x        show raw replies in the log
  ?        help

Logs go to the configured log file; console logging is switched off while
the screen is open.

Example usage:
  labpsu watch --port /dev/ttyACM0 --poll 500ms`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := sessionConfig()
		if err != nil {
			return err
		}

		log := logger
		switch cfg.Logging.Output {
		case "stderr", "stdout", "":
			log = logging.Discard()
		}

		var p *tea.Program
		handler := psu.HandlerFunc(func(e psu.Event) {
			p.Send(components.EventMsg{Timestamp: time.Now(), Event: e})
		})
		s, err := psu.NewSession(sc, psu.WithLogger(log.With("device", sc.Name)), psu.WithHandler(handler))
		if err != nil {
			return err
		}

		m := models.NewWatchModel(s, sc.Device, sc.Serial, sc.Accuracy)
		p = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

		if err := s.Connect(); err != nil {
			return err
		}
		defer func() {
			if err := s.Disconnect(); err != nil {
				logger.Warn("disconnect failed", "error", err)
			}
		}()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go func() {
			_ = psu.NewPoller(s, sc.PollInterval, log).Run(ctx)
		}()

		_, err = p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
