// Copyright 2026 Ott-cop
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ott-cop
//

package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Ott-cop/Oner-IoT/pkg/model"
)

const (
	envPrefix       = "ONER"
	clientIDPrefix  = "oner-"
	DefaultHTTPPort = 7129

	// DefaultBadgerPath is the badger directory used when no path is set.
	DefaultBadgerPath = "/var/lib/oner/badger"
	// DefaultSQLitePath is the sqlite database file used when no path is set.
	DefaultSQLitePath = "/var/lib/oner/oner.db"
)

// Config is the complete configuration of the process.
type Config struct {
	MQTT     MQTTConfig      `mapstructure:"mqtt"`
	Storage  StorageConfig   `mapstructure:"storage"`
	Channels []ChannelConfig `mapstructure:"channels" validate:"dive"`
	Bridge   BridgeConfig    `mapstructure:"bridge"`
	Log      LogConfig       `mapstructure:"log"`
	HTTP     HTTPConfig      `mapstructure:"http"`
	History  HistoryConfig   `mapstructure:"history"`
	Timing   TimingConfig    `mapstructure:"timing"`
}

// MQTTConfig holds the broker connection settings.
type MQTTConfig struct {
	URL      string `mapstructure:"url" validate:"required,url"`
	ClientID string `mapstructure:"client_id"`
	// Username defaults to the client id when a password is set.
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	QoS         int    `mapstructure:"qos" validate:"min=0,max=2"`
	StatusTopic string `mapstructure:"status_topic"`
	StateSuffix string `mapstructure:"state_suffix" validate:"required"`
	LogTopic    string `mapstructure:"log_topic"`
}

// StorageConfig selects where the layout is persisted.
type StorageConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=badger sqlite memory"`
	// Path defaults per backend, see DefaultPath.
	Path      string `mapstructure:"path" validate:"required_unless=Backend memory"`
	Namespace string `mapstructure:"namespace" validate:"required"`
	Key       string `mapstructure:"key" validate:"required"`
}

// DefaultPath returns the storage path used for the backend when none
// is configured. badger needs a directory, sqlite a file.
func (c StorageConfig) DefaultPath() string {
	switch c.Backend {
	case "badger":
		return DefaultBadgerPath
	case "sqlite":
		return DefaultSQLitePath
	default:
		return ""
	}
}

// ChannelConfig is a single entry of the channel table.
type ChannelConfig struct {
	Name      string `mapstructure:"name" validate:"required"`
	ID        int    `mapstructure:"id"`
	Pin       int    `mapstructure:"pin" validate:"min=0"`
	Topic     string `mapstructure:"topic" validate:"required"`
	ActiveLow bool   `mapstructure:"active_low"`
}

// BridgeConfig selects the hardware.
type BridgeConfig struct {
	Type        string `mapstructure:"type" validate:"oneof=auto rpi virtual"`
	GreenLEDPin int    `mapstructure:"green_led_pin" validate:"min=-1"`
	RedLEDPin   int    `mapstructure:"red_led_pin" validate:"min=-1"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Console    bool   `mapstructure:"console"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"min=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"min=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"min=0"`
	Compress   bool   `mapstructure:"compress"`
}

// HTTPConfig configures the metrics server.
type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"min=0,max=65535"`
}

// HistoryConfig configures the optional InfluxDB state history.
type HistoryConfig struct {
	URL    string `mapstructure:"url" validate:"omitempty,url"`
	Token  string `mapstructure:"token"`
	Org    string `mapstructure:"org" validate:"required_with=URL"`
	Bucket string `mapstructure:"bucket" validate:"required_with=URL"`
}

// TimingConfig holds intervals and queue sizes.
type TimingConfig struct {
	RetryInterval       time.Duration `mapstructure:"retry_interval" validate:"gt=0"`
	ResubscribeInterval time.Duration `mapstructure:"resubscribe_interval" validate:"gt=0"`
	RouterRetryDelay    time.Duration `mapstructure:"router_retry_delay" validate:"gt=0"`
	QueueSize           int           `mapstructure:"queue_size" validate:"min=1"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		MQTT: MQTTConfig{
			URL:         "tcp://127.0.0.1:1883",
			StatusTopic: "oner/status",
			StateSuffix: "/state",
		},
		Storage: StorageConfig{
			Backend:   "badger",
			Namespace: "oner",
			Key:       "devices",
		},
		Bridge: BridgeConfig{
			Type:        "auto",
			GreenLEDPin: -1,
			RedLEDPin:   -1,
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
		HTTP: HTTPConfig{
			Port: DefaultHTTPPort,
		},
		Timing: TimingConfig{
			RetryInterval:       2 * time.Second,
			ResubscribeInterval: 5 * time.Second,
			RouterRetryDelay:    100 * time.Millisecond,
			QueueSize:           32,
		},
	}
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"level":        "log.level",
	"log-file":     "log.file",
	"bridge":       "bridge.type",
	"http-port":    "http.port",
	"storage":      "storage.backend",
	"storage-path": "storage.path",
	"mqtt-url":     "mqtt.url",
}

// legacyEnv lists environment variables of earlier firmware that are
// still accepted.
var legacyEnv = map[string]string{
	"mqtt.url":       "MQTT_URL",
	"mqtt.client_id": "MQTT_CLIENT_ID",
	"mqtt.password":  "MQTT_CLIENT_PASS",
}

// Load the configuration.
// Values are taken from (highest priority first) the given flags when
// set, ONER_* environment variables, the config file at path (optional)
// and the defaults.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envName := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envName, legacy); err != nil {
			return Config{}, errors.Wrapf(err, "failed to bind environment for %s", key)
		}
	}
	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, errors.Wrapf(err, "failed to bind flag %s", name)
				}
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(model.ValidationError, "failed to read config file %s: %s", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrapf(model.ValidationError, "failed to parse configuration: %s", err)
	}
	if len(cfg.Channels) == 0 {
		cfg.Channels = FromChannels(model.DefaultChannels())
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = cfg.Storage.DefaultPath()
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = clientIDPrefix + uuid.NewString()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("mqtt.url", d.MQTT.URL)
	v.SetDefault("mqtt.client_id", d.MQTT.ClientID)
	v.SetDefault("mqtt.username", d.MQTT.Username)
	v.SetDefault("mqtt.password", d.MQTT.Password)
	v.SetDefault("mqtt.qos", d.MQTT.QoS)
	v.SetDefault("mqtt.status_topic", d.MQTT.StatusTopic)
	v.SetDefault("mqtt.state_suffix", d.MQTT.StateSuffix)
	v.SetDefault("mqtt.log_topic", d.MQTT.LogTopic)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.namespace", d.Storage.Namespace)
	v.SetDefault("storage.key", d.Storage.Key)
	v.SetDefault("bridge.type", d.Bridge.Type)
	v.SetDefault("bridge.green_led_pin", d.Bridge.GreenLEDPin)
	v.SetDefault("bridge.red_led_pin", d.Bridge.RedLEDPin)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.console", d.Log.Console)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("log.compress", d.Log.Compress)
	v.SetDefault("http.host", d.HTTP.Host)
	v.SetDefault("http.port", d.HTTP.Port)
	v.SetDefault("history.url", d.History.URL)
	v.SetDefault("history.token", d.History.Token)
	v.SetDefault("history.org", d.History.Org)
	v.SetDefault("history.bucket", d.History.Bucket)
	v.SetDefault("timing.retry_interval", d.Timing.RetryInterval)
	v.SetDefault("timing.resubscribe_interval", d.Timing.ResubscribeInterval)
	v.SetDefault("timing.router_retry_delay", d.Timing.RouterRetryDelay)
	v.SetDefault("timing.queue_size", d.Timing.QueueSize)
}

var configValidator = validator.New()

// Validate the configuration, including the channel table.
func (c Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return errors.Wrapf(model.ValidationError, "invalid configuration: %s", err)
	}
	if err := c.ChannelTable().Validate(); err != nil {
		return err
	}
	return nil
}

// ChannelTable returns the configured channels.
func (c Config) ChannelTable() model.Channels {
	result := make(model.Channels, 0, len(c.Channels))
	for _, cc := range c.Channels {
		result = append(result, model.Channel{
			Name:      cc.Name,
			ID:        cc.ID,
			Pin:       cc.Pin,
			Topic:     cc.Topic,
			ActiveLow: cc.ActiveLow,
		})
	}
	return result
}

// FromChannels converts a channel table into its configuration form.
func FromChannels(channels model.Channels) []ChannelConfig {
	result := make([]ChannelConfig, 0, len(channels))
	for _, c := range channels {
		result = append(result, ChannelConfig{
			Name:      c.Name,
			ID:        c.ID,
			Pin:       c.Pin,
			Topic:     c.Topic,
			ActiveLow: c.ActiveLow,
		})
	}
	return result
}
