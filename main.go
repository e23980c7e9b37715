//    Copyright 2017 Ewout Prangsma
//    Copyright 2026 Ott-cop
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	terminate "github.com/pulcy/go-terminate"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/Ott-cop/Oner-IoT/pkg/config"
	"github.com/Ott-cop/Oner-IoT/pkg/environment"
	"github.com/Ott-cop/Oner-IoT/pkg/logging"
	"github.com/Ott-cop/Oner-IoT/pkg/server"
	"github.com/Ott-cop/Oner-IoT/pkg/service"
	"github.com/Ott-cop/Oner-IoT/pkg/service/bridge"
	"github.com/Ott-cop/Oner-IoT/pkg/service/history"
	"github.com/Ott-cop/Oner-IoT/pkg/service/mqtt"
	"github.com/Ott-cop/Oner-IoT/pkg/service/status"
	"github.com/Ott-cop/Oner-IoT/pkg/service/storage"
)

const (
	projectName = "Oner IoT"
)

var (
	projectVersion = "dev"
	projectBuild   = "dev"
)

func main() {
	var configPath string

	pflag.StringVarP(&configPath, "config", "c", "", "Path of the configuration file (yaml|json|toml)")
	pflag.StringP("level", "l", "info", "Set log level")
	pflag.String("log-file", "", "Write logs to this file (rotated)")
	pflag.StringP("bridge", "b", "auto", "Type of bridge to use (auto|rpi|virtual)")
	pflag.Int("http-port", config.DefaultHTTPPort, "Port the HTTP server will listen on (0 to disable)")
	pflag.String("storage", "badger", "Storage backend (badger|sqlite|memory)")
	pflag.String("storage-path", "", "Path of the storage backend (default depends on --storage)")
	pflag.String("mqtt-url", "tcp://127.0.0.1:1883", "URL of the MQTT broker")
	pflag.Parse()

	conf, err := config.Load(configPath, pflag.CommandLine)
	if err != nil {
		Exitf("Failed to load configuration: %v\n", err)
	}

	// Prepare to shutdown in a controlled manor
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, mqttLogWriter, err := logging.NewLogger(ctx, logging.Config{
		Level:      conf.Log.Level,
		File:       conf.Log.File,
		MaxSizeMB:  conf.Log.MaxSizeMB,
		MaxBackups: conf.Log.MaxBackups,
		MaxAgeDays: conf.Log.MaxAgeDays,
		Compress:   conf.Log.Compress,
		Console:    conf.Log.Console,
	})
	if err != nil {
		Exitf("Failed to initialize logger: %v\n", err)
	}
	channels := conf.ChannelTable()

	br, err := newBridge(conf.Bridge, logger)
	if err != nil {
		Exitf("Failed to initialize bridge: %v\n", err)
	}
	defer br.Close()

	backend, err := storage.NewBackend(storage.BackendConfig{
		Type:       storage.BackendType(conf.Storage.Backend),
		Path:       conf.Storage.Path,
		SyncWrites: true,
	}, logger)
	if err != nil {
		Exitf("Failed to open storage: %v\n", err)
	}
	store := storage.NewLayoutStore(storage.Config{
		Namespace: conf.Storage.Namespace,
		Key:       conf.Storage.Key,
		Channels:  channels,
	}, backend, logger)

	transport, err := mqtt.NewTransport(mqtt.Config{
		BrokerURL:            conf.MQTT.URL,
		ClientID:             conf.MQTT.ClientID,
		UserName:             conf.MQTT.Username,
		Password:             conf.MQTT.Password,
		QoS:                  byte(conf.MQTT.QoS),
		StatusTopic:          conf.MQTT.StatusTopic,
		ConnectRetryInterval: conf.Timing.RetryInterval,
	}, logger)
	if err != nil {
		Exitf("Failed to initialize MQTT transport: %v\n", err)
	}
	if conf.MQTT.LogTopic != "" {
		mqttLogWriter.SetDestination(conf.MQTT.LogTopic, transport)
		mqttLogWriter.Enable(true)
	}

	recorder := history.NewRecorder(history.Config{
		URL:    conf.History.URL,
		Token:  conf.History.Token,
		Org:    conf.History.Org,
		Bucket: conf.History.Bucket,
	}, logger)

	svc, err := service.NewService(service.Config{
		Channels:            channels,
		QueueSize:           conf.Timing.QueueSize,
		RetryInterval:       conf.Timing.RetryInterval,
		ResubscribeInterval: conf.Timing.ResubscribeInterval,
		RouterRetryDelay:    conf.Timing.RouterRetryDelay,
	}, service.Dependencies{
		Logger:    logger,
		Bridge:    br,
		Store:     store,
		Transport: transport,
		Status:    status.NewPublisher(status.Config{StateSuffix: conf.MQTT.StateSuffix}, transport, logger),
		History:   recorder,
	})
	if err != nil {
		Exitf("Failed to initialize Service: %v\n", err)
	}

	httpServer := server.New(server.Config{
		Host:     conf.HTTP.Host,
		HTTPPort: conf.HTTP.Port,
	}, logger)

	t := terminate.NewTerminator(func(template string, args ...interface{}) {
		logger.Info().Msgf(template, args...)
	}, cancel)
	go t.ListenSignals()

	fmt.Printf("Starting %s (version %s build %s)\n", projectName, projectVersion, projectBuild)
	startedAt := time.Now()
	logger.Info().
		Str("client-id", conf.MQTT.ClientID).
		Str("broker", conf.MQTT.URL).
		Str("storage", conf.Storage.Backend).
		Strs("channels", channels.Names()).
		Msg("Starting")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(ctx) })
	g.Go(func() error { return httpServer.Run(ctx) })
	runErr := g.Wait()

	logger.Info().Str("uptime", strings.TrimSpace(humanize.RelTime(startedAt, time.Now(), "", ""))).Msg("Shutting down")
	recorder.Close()
	transport.Close()
	if err := backend.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close storage")
	}
	if runErr != nil {
		Exitf("Service run failed: %v\n", runErr)
	}
}

// newBridge creates the bridge of the configured type.
func newBridge(conf config.BridgeConfig, log zerolog.Logger) (bridge.API, error) {
	bridgeType := conf.Type
	if bridgeType == "auto" {
		bridgeType = environment.AutoDetectBridgeType(log)
	}
	switch bridgeType {
	case environment.BridgeTypeRaspberryPi:
		br, err := bridge.NewRaspberryPiBridge(bridge.RaspberryPiConfig{
			GreenLEDPin: conf.GreenLEDPin,
			RedLEDPin:   conf.RedLEDPin,
		})
		if err != nil {
			return nil, errors.Wrap(err, "Failed to initialize Raspberry Pi Bridge")
		}
		return br, nil
	case environment.BridgeTypeVirtual:
		log.Warn().Msg("Using virtual bridge; no pins will be driven")
		return bridge.NewVirtualBridge(), nil
	default:
		return nil, errors.Errorf("Unknown bridge type '%s' (auto|rpi|virtual)", bridgeType)
	}
}

// Print the given error message and exit with code 1
func Exitf(message string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, message, args...)
	os.Exit(1)
}
