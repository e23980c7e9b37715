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

package router

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ott-cop/Oner-IoT/pkg/model"
	"github.com/Ott-cop/Oner-IoT/pkg/service/mqtt"
	"github.com/Ott-cop/Oner-IoT/pkg/service/util"
)

const (
	// DefaultRetryDelay is the delay after a failure to pull an event.
	DefaultRetryDelay = 100 * time.Millisecond
)

// Route binds a command topic to the queue of a channel runner.
type Route struct {
	Channel string
	Queue   chan<- model.Command
}

// Config of the router.
type Config struct {
	RetryDelay time.Duration
}

// Router pulls events from the transport and hands commands to the
// runner of their channel.
type Router struct {
	log        zerolog.Logger
	transport  mqtt.Transport
	routes     map[string]Route
	retryDelay time.Duration
}

// New creates a router. Routes are keyed by topic.
func New(conf Config, transport mqtt.Transport, routes map[string]Route, log zerolog.Logger) *Router {
	delay := conf.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	return &Router{
		log:        log.With().Str("component", "router").Logger(),
		transport:  transport,
		routes:     routes,
		retryDelay: delay,
	}
}

// Run routes events until the given context is canceled.
func (r *Router) Run(ctx context.Context) error {
	r.log.Debug().Int("routes", len(r.routes)).Msg("Router started")
	return util.UntilCanceled(ctx, r.log, "Pulling next event", r.retryDelay, func() error {
		ev, err := r.transport.NextEvent(ctx)
		if err != nil {
			transportErrorsTotal.Inc()
			return err
		}
		r.dispatch(ctx, ev)
		return nil
	})
}

func (r *Router) dispatch(ctx context.Context, ev mqtt.Event) {
	switch ev.Kind {
	case mqtt.EventReceived:
		route, found := r.routes[ev.Topic]
		if !found {
			messagesTotal.WithLabelValues("unknown").Inc()
			r.log.Info().Str("topic", ev.Topic).Msg("Dropping message on unknown topic")
			return
		}
		cmd := model.Command{
			Channel:    route.Channel,
			Payload:    ev.Payload,
			ReceivedAt: time.Now(),
		}
		// Block while the runner queue is full; commands are never dropped.
		select {
		case route.Queue <- cmd:
			messagesTotal.WithLabelValues(route.Channel).Inc()
		case <-ctx.Done():
		}
	case mqtt.EventConnected:
		r.log.Info().Msg("Transport connected")
	case mqtt.EventDisconnected:
		r.log.Warn().Err(ev.Err).Msg("Transport disconnected")
	}
}
