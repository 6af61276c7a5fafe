// Package config loads labpsu settings with viper.
//
// Values are resolved in this order, later sources winning: built-in
// defaults, the YAML config file, LABPSU_* environment variables and
// command line flags. Nested keys map to environment variables by
// replacing dots with underscores, e.g. device.port is LABPSU_DEVICE_PORT.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/crapp/labpowerqt-sub000/psu"
	"github.com/crapp/labpowerqt-sub000/serial"
)

// EnvPrefix is prepended to every environment variable.
const EnvPrefix = "LABPSU"

// DefaultConfigName is the file looked up in the home directory.
const DefaultConfigName = ".labpsu"

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Device   DeviceConfig  `mapstructure:"device"`
	Serial   SerialConfig  `mapstructure:"serial"`
	Timeouts TimeoutConfig `mapstructure:"timeouts"`
	Logging  LoggingConfig `mapstructure:"logging"`
	MQTT     MQTTConfig    `mapstructure:"mqtt"`
}

type DeviceConfig struct {
	Port            string        `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	Family          string        `mapstructure:"family"`
	Channels        int           `mapstructure:"channels"`
	VoltageAccuracy int           `mapstructure:"voltage_accuracy"`
	CurrentAccuracy int           `mapstructure:"current_accuracy"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
}

type SerialConfig struct {
	BaudRate    int    `mapstructure:"baud_rate"`
	DataBits    int    `mapstructure:"data_bits"`
	StopBits    int    `mapstructure:"stop_bits"`
	Parity      string `mapstructure:"parity"`
	FlowControl string `mapstructure:"flow_control"`
}

type TimeoutConfig struct {
	Write     time.Duration `mapstructure:"write"`
	FirstByte time.Duration `mapstructure:"first_byte"`
	Idle      time.Duration `mapstructure:"idle"`
	Stop      time.Duration `mapstructure:"stop"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
	Output string `mapstructure:"output"` // stderr, stdout, discard or a file path
}

type MQTTConfig struct {
	Broker   string `mapstructure:"broker"` // e.g. tcp://localhost:1883
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	QoS      int    `mapstructure:"qos"`
	Prefix   string `mapstructure:"prefix"`
}

// SetDefaults registers every key so environment overrides are picked up
// by Unmarshal.
func SetDefaults(v *viper.Viper) {
	def := psu.DefaultConfig()

	v.SetDefault("device.port", "")
	v.SetDefault("device.name", "psu")
	v.SetDefault("device.family", def.Family.String())
	v.SetDefault("device.channels", def.Channels)
	v.SetDefault("device.voltage_accuracy", def.Accuracy.Voltage)
	v.SetDefault("device.current_accuracy", def.Accuracy.Current)
	v.SetDefault("device.poll_interval", def.PollInterval)

	v.SetDefault("serial.baud_rate", def.Serial.BaudRate)
	v.SetDefault("serial.data_bits", def.Serial.DataBits)
	v.SetDefault("serial.stop_bits", def.Serial.StopBits)
	v.SetDefault("serial.parity", "none")
	v.SetDefault("serial.flow_control", def.Serial.FlowControl.String())

	v.SetDefault("timeouts.write", def.WriteTimeout)
	v.SetDefault("timeouts.first_byte", def.FirstByteTimeout)
	v.SetDefault("timeouts.idle", def.IdleTimeout)
	v.SetDefault("timeouts.stop", def.StopTimeout)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "labpsu")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("mqtt.prefix", "labpsu")
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile reads path, or $HOME/.labpsu.yaml when path is empty. A missing
// default file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(DefaultConfigName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", filepath.Clean(path), err)
	}
	return nil
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"port":       "device.port",
	"name":       "device.name",
	"family":     "device.family",
	"channels":   "device.channels",
	"baud":       "serial.baud_rate",
	"poll":       "device.poll_interval",
	"log-level":  "logging.level",
	"log-format": "logging.format",
	"log-output": "logging.output",
	"broker":     "mqtt.broker",
}

// BindFlags binds the flags present in fs to their config keys.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load unmarshals and validates the configuration.
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks values that do not depend on the selected command. The
// device port is checked by Session since not every command needs it.
func (c *Config) Validate() error {
	if _, err := psu.ParseFamily(c.Device.Family); err != nil {
		return fmt.Errorf("%w: device.family: %w", ErrInvalid, err)
	}
	if c.Device.Channels < 1 {
		return fmt.Errorf("%w: device.channels must be at least 1", ErrInvalid)
	}
	if c.Device.PollInterval <= 0 {
		return fmt.Errorf("%w: device.poll_interval must be positive", ErrInvalid)
	}
	if _, err := c.serial(); err != nil {
		return fmt.Errorf("%w: serial: %w", ErrInvalid, err)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("%w: mqtt.qos must be 0, 1 or 2", ErrInvalid)
	}
	return nil
}

func (c *Config) serial() (serial.Config, error) {
	parity, err := serial.ParseParity(c.Serial.Parity)
	if err != nil {
		return serial.Config{}, err
	}
	flow, err := serial.ParseFlowControl(c.Serial.FlowControl)
	if err != nil {
		return serial.Config{}, err
	}

	cfg := serial.DefaultConfig()
	err = serial.WithConfig(serial.Config{
		BaudRate:    c.Serial.BaudRate,
		DataBits:    c.Serial.DataBits,
		StopBits:    c.Serial.StopBits,
		Parity:      parity,
		FlowControl: flow,
		ReadTimeout: cfg.ReadTimeout,
	})(&cfg)
	return cfg, err
}

// Session builds the psu session configuration.
func (c *Config) Session() (psu.Config, error) {
	family, err := psu.ParseFamily(c.Device.Family)
	if err != nil {
		return psu.Config{}, err
	}
	sc, err := c.serial()
	if err != nil {
		return psu.Config{}, err
	}

	cfg := psu.Config{
		Device:   c.Device.Port,
		Name:     c.Device.Name,
		Family:   family,
		Channels: c.Device.Channels,
		Accuracy: psu.Accuracy{
			Voltage: c.Device.VoltageAccuracy,
			Current: c.Device.CurrentAccuracy,
		},
		Serial:           sc,
		PollInterval:     c.Device.PollInterval,
		WriteTimeout:     c.Timeouts.Write,
		FirstByteTimeout: c.Timeouts.FirstByte,
		IdleTimeout:      c.Timeouts.Idle,
		StopTimeout:      c.Timeouts.Stop,
	}
	return cfg, cfg.Validate()
}
