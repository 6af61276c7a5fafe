package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crapp/labpowerqt-sub000/psu"
)

// identifyCmd represents the identify command
var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Print the identification string of the supply",
	Long: `Open the supply, send the identification query and print the reply.

Example usage:
  labpsu identify --port /dev/ttyACM0`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := sessionConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout(sc))
		defer cancel()

		s, res, err := oneShot(ctx, (*psu.Session).GetIdentification)
		if err != nil {
			return err
		}
		defer disconnect(s)

		if res.Result.Err != nil {
			return res.Result.Err
		}
		fmt.Println(res.Result.Value.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(identifyCmd)
}
