//    Copyright 2017-2022 Ewout Prangsma
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

package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Ott-cop/Oner-IoT/pkg/model"
	"github.com/Ott-cop/Oner-IoT/pkg/service/bridge"
	"github.com/Ott-cop/Oner-IoT/pkg/service/channels"
	"github.com/Ott-cop/Oner-IoT/pkg/service/history"
	"github.com/Ott-cop/Oner-IoT/pkg/service/mqtt"
	"github.com/Ott-cop/Oner-IoT/pkg/service/reconciler"
	"github.com/Ott-cop/Oner-IoT/pkg/service/router"
	"github.com/Ott-cop/Oner-IoT/pkg/service/status"
	"github.com/Ott-cop/Oner-IoT/pkg/service/storage"
	"github.com/Ott-cop/Oner-IoT/pkg/service/subscriptions"
)

type Service interface {
	// Run the service until the given context is cancelled
	// or a fatal error occurs.
	Run(ctx context.Context) error
}

type Config struct {
	Channels model.Channels
	// Capacity of the command queue of each channel
	QueueSize           int
	RetryInterval       time.Duration
	ResubscribeInterval time.Duration
	RouterRetryDelay    time.Duration
}

type Dependencies struct {
	Logger    zerolog.Logger
	Bridge    bridge.API
	Store     *storage.LayoutStore
	Transport mqtt.Transport
	// Optional
	Status  *status.Publisher
	History history.Recorder
}

type service struct {
	Config
	Dependencies

	pins        map[string]*bridge.Pin
	runners     []*channels.Runner
	reconciler  *reconciler.Reconciler
	router      *router.Router
	keeper      *subscriptions.Keeper
	activeCount uint32
}

// NewService creates a Service instance and returns it.
// All output pins are opened here.
func NewService(conf Config, deps Dependencies) (Service, error) {
	if err := conf.Channels.Validate(); err != nil {
		return nil, err
	}
	deps.Logger = deps.Logger.With().Str("component", "service").Logger()
	if deps.History == nil {
		deps.History = history.NopRecorder()
	}
	s := &service{
		Config:       conf,
		Dependencies: deps,
		pins:         make(map[string]*bridge.Pin),
	}

	routes := make(map[string]router.Route)
	for _, c := range conf.Channels {
		pin, err := bridge.OpenPin(deps.Bridge, c.Pin, c.ActiveLow, false)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open pin of channel '%s'", c.Name)
		}
		s.pins[c.Name] = pin
		r := channels.NewRunner(channels.Config{
			Channel:   c,
			QueueSize: conf.QueueSize,
		}, channels.Dependencies{
			Log:      deps.Logger,
			Store:    deps.Store,
			Pin:      pin,
			Status:   deps.Status,
			History:  deps.History,
			OnActive: s.onActive,
		})
		s.runners = append(s.runners, r)
		routes[c.Topic] = router.Route{Channel: c.Name, Queue: r.Queue()}
	}

	s.reconciler = reconciler.New(reconciler.Dependencies{
		Log:      deps.Logger,
		Store:    deps.Store,
		Channels: conf.Channels,
		Pins:     s.pins,
	})
	s.router = router.New(router.Config{
		RetryDelay: conf.RouterRetryDelay,
	}, deps.Transport, routes, deps.Logger)
	s.keeper = subscriptions.NewKeeper(subscriptions.Config{
		Topics:              conf.Channels.Topics(),
		RetryInterval:       conf.RetryInterval,
		ResubscribeInterval: conf.ResubscribeInterval,
	}, deps.Transport, s.onSubscribed, deps.Logger)
	return s, nil
}

// Run reconciles all pins with the persisted layout, then processes
// commands until the given context is canceled.
func (s *service) Run(ctx context.Context) error {
	log := s.Logger
	s.Bridge.BlinkGreenLED(time.Millisecond * 250)

	layout, err := s.reconciler.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Startup reconciliation failed")
		s.Bridge.SetRedLED(true)
		return err
	}
	for _, c := range s.Channels {
		channelStateAtBoot.WithLabelValues(c.Name).Set(boolToFloat(layout[c.Name].State))
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, r := range s.runners {
		r := r
		g.Go(func() error { return r.Run(ctx) })
	}
	g.Go(func() error { return s.router.Run(ctx) })
	g.Go(func() error { return s.keeper.Run(ctx) })
	g.Go(func() error { return s.runActiveNotify(ctx) })
	log.Info().Strs("channels", s.Channels.Names()).Msg("Service started")
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Service stopped with error")
		return err
	}
	log.Info().Msg("Service stopped")
	return nil
}

// onSubscribed is called when all command topics have been subscribed
// for the first time.
func (s *service) onSubscribed(ctx context.Context) {
	s.Bridge.SetGreenLED(true)
	if s.Status == nil {
		return
	}
	layout, found, err := s.Store.Read(ctx)
	if err != nil || !found {
		s.Logger.Warn().Err(err).Msg("Failed to read layout for state report")
		return
	}
	s.Status.ReportLayout(ctx, s.Channels, layout)
}

// onActive is called when a command has been applied.
func (s *service) onActive() {
	atomic.AddUint32(&s.activeCount, 1)
}

// runActiveNotify updates the blinking status when a channel has become active
func (s *service) runActiveNotify(ctx context.Context) error {
	lastActiveCount := uint32(0)
	count := 0
	for {
		select {
		case <-ctx.Done():
			// Context canceled
			return nil
		case <-time.After(time.Second / 10):
			newActiveCount := atomic.LoadUint32(&s.activeCount)
			if newActiveCount != lastActiveCount {
				lastActiveCount = newActiveCount
				s.Bridge.BlinkRedLED(time.Second / 10)
				count = 0
			} else if count < 20 {
				count++
			} else {
				count = 0
				s.Bridge.SetRedLED(false)
			}
		}
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
