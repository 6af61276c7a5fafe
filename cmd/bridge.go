package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/crapp/labpowerqt-sub000/internal/config"
	"github.com/crapp/labpowerqt-sub000/internal/mqttbridge"
	"github.com/crapp/labpowerqt-sub000/psu"
)

// reconnectInterval is how often the bridge retries a supply that went away.
const reconnectInterval = 5 * time.Second

// bridgeCmd represents the bridge command
var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Publish supply status to MQTT and accept set requests",
	Long: `Run until interrupted, polling the supply and publishing to an MQTT broker:

  <prefix>/<name>/status         retained JSON status after every poll
  <prefix>/<name>/state          retained online/offline/error state
  <prefix>/<name>/result         result of every request
  <prefix>/<name>/set/<action>[/<channel>]   requests, payload is the value

The supply is reopened when it disappears, e.g. after a USB reset.

Example usage:
  labpsu bridge --port /dev/ttyACM0 --name bench --broker tcp://localhost:1883
  mosquitto_pub -t labpsu/bench/set/voltage/1 -m 12.5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := sessionConfig()
		if err != nil {
			return err
		}
		log := logger.With("device", sc.Name)
		topics := mqttbridge.Topics{Prefix: cfg.MQTT.Prefix, Device: sc.Name}

		client, err := mqttbridge.Connect(cfg.MQTT, topics.State(), log)
		if err != nil {
			return err
		}
		defer client.Close()

		var b *mqttbridge.Bridge
		forward := psu.HandlerFunc(func(e psu.Event) { b.HandleEvent(e) })
		s, err := psu.NewSession(sc, psu.WithLogger(log), psu.WithHandler(forward))
		if err != nil {
			return err
		}
		b = mqttbridge.New(client, s, topics, byte(cfg.MQTT.QoS), log)

		if err := b.Subscribe(); err != nil {
			return err
		}

		// The publisher outlives the command context so the offline state
		// still goes out after an interrupt.
		publishCtx, stopPublish := context.WithCancel(context.Background())
		defer stopPublish()
		go func() {
			_ = b.Run(publishCtx)
		}()

		ctx := cmd.Context()
		go func() {
			_ = psu.NewPoller(s, sc.PollInterval, log).Run(ctx)
		}()

		log.Info("bridge running", "broker", cfg.MQTT.Broker, "topics", topics.SetFilter())
		superviseSession(ctx, s, log)

		if err := s.Disconnect(); err != nil && !errors.Is(err, psu.ErrNotConnected) {
			log.Warn("disconnect failed", "error", err)
		}
		// let the outbox publish the offline state
		time.Sleep(200 * time.Millisecond)
		return nil
	},
}

// superviseSession keeps the session connected until ctx is done.
func superviseSession(ctx context.Context, s *psu.Session, log psu.Logger) {
	ticker := time.NewTicker(reconnectInterval)
	defer ticker.Stop()

	for {
		if !s.Connected() {
			if err := s.Connect(); err != nil {
				log.Warn("connect failed", "error", err)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func init() {
	rootCmd.AddCommand(bridgeCmd)

	bridgeCmd.Flags().String("broker", "", "MQTT broker URL (default tcp://localhost:1883)")
	cobra.CheckErr(config.BindFlags(v, bridgeCmd.Flags()))
}
