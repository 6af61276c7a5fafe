package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crapp/labpowerqt-sub000/internal/config"
	"github.com/crapp/labpowerqt-sub000/internal/logging"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var (
	cfgFile string
	v       = config.New()

	// cfg and logger are loaded before any subcommand runs
	cfg    *config.Config
	logger *logging.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "labpsu",
	Short: "Control and monitor lab power supplies over a serial line",
	Long: `labpsu talks to programmable bench power supplies (Korad KA3005P,
KA3305P and their rebrands) over their USB serial interface.

Settings are read from $HOME/.labpsu.yaml (or --config), then from
LABPSU_* environment variables (e.g. LABPSU_DEVICE_PORT), then from flags.

Example usage:
  labpsu list
  labpsu status --port /dev/ttyACM0
  labpsu set voltage 1 12.5 --port /dev/ttyACM0
  labpsu watch --port /dev/ttyACM0
  labpsu bridge --port /dev/ttyACM0 --broker tcp://localhost:1883`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ReadFile(v, cfgFile); err != nil {
			return err
		}
		c, err := config.Load(v)
		if err != nil {
			return err
		}
		l, err := logging.New(c.Logging, Version)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		if f := v.ConfigFileUsed(); f != "" {
			logger.Debug("config loaded", "file", f)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = Version

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.labpsu.yaml)")
	pf.StringP("port", "p", "", "serial device of the supply, e.g. /dev/ttyACM0")
	pf.String("name", "", "name of the supply used in logs and MQTT topics")
	pf.StringP("family", "f", "", "device family: korad")
	pf.IntP("channels", "c", 0, "number of output channels")
	pf.IntP("baud", "b", 0, "baud rate (default 9600)")
	pf.Duration("poll", 0, "status poll interval (default 1s)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")
	pf.String("log-output", "", "log output: stderr, stdout, discard or a file path")

	cobra.CheckErr(config.BindFlags(v, pf))
}
