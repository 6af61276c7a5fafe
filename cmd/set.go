package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crapp/labpowerqt-sub000/internal/control"
	"github.com/crapp/labpowerqt-sub000/psu"
)

// setCmd represents the set command
var setCmd = &cobra.Command{
	Use:   "set <action> [channel] [value]",
	Short: "Send a single request to the supply",
	Long: `Send one request to the supply and wait until it was written.

Actions:
  voltage <channel> <volts>     set the voltage of a channel
  current <channel> <amps>      set the current limit of a channel
  output [channel] on|off       switch the output
  ocp|ovp|otp on|off            over current/voltage/temperature protection
  beep|lock on|off              beeper and front panel lock
  tracking independent|series|parallel
  recall|save <n>               memory slots

Example usage:
  labpsu set voltage 1 12.5
  labpsu set output on
  labpsu set tracking series`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := control.Parse(args)
		if err != nil {
			return err
		}
		sc, err := sessionConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout(sc))
		defer cancel()

		s, res, err := oneShot(ctx, func(s *psu.Session) (*psu.Command, error) {
			return req.Apply(s)
		})
		if err != nil {
			return err
		}
		defer disconnect(s)

		if res.Result.Err != nil {
			return fmt.Errorf("%s: %w", req, res.Result.Err)
		}
		if res.Kind.IsQuery() {
			fmt.Println(res.Result.Value.String())
			return nil
		}
		logger.Info("request written", "request", req.String(), "command", res.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
}
