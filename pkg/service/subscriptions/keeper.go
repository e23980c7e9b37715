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

package subscriptions

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Ott-cop/Oner-IoT/pkg/service/mqtt"
)

const (
	// DefaultRetryInterval is the delay after a failed subscription pass.
	DefaultRetryInterval = 2 * time.Second
	// DefaultResubscribeInterval is the delay between subscription passes
	// once all topics have been subscribed.
	DefaultResubscribeInterval = 5 * time.Second
)

// State of the Keeper.
type State int32

const (
	// StateSubscribing means that not all topics have been subscribed yet.
	StateSubscribing State = iota
	// StateSteady means that all topics were subscribed at least once.
	StateSteady
)

func (s State) String() string {
	switch s {
	case StateSubscribing:
		return "subscribing"
	case StateSteady:
		return "steady"
	default:
		return "unknown"
	}
}

// Config of a Keeper.
type Config struct {
	// Topics to keep subscribed.
	Topics              []string
	RetryInterval       time.Duration
	ResubscribeInterval time.Duration
}

// Keeper keeps the transport subscribed to all command topics.
// It re-subscribes periodically, which recovers subscriptions lost
// when the broker connection was re-established.
type Keeper struct {
	config       Config
	log          zerolog.Logger
	transport    mqtt.Transport
	onSubscribed func(ctx context.Context)
	state        int32
}

// NewKeeper creates a keeper.
// onSubscribed (optional) is called once when all topics have been
// subscribed for the first time.
func NewKeeper(conf Config, transport mqtt.Transport, onSubscribed func(ctx context.Context), log zerolog.Logger) *Keeper {
	if conf.RetryInterval <= 0 {
		conf.RetryInterval = DefaultRetryInterval
	}
	if conf.ResubscribeInterval <= 0 {
		conf.ResubscribeInterval = DefaultResubscribeInterval
	}
	return &Keeper{
		config:       conf,
		log:          log.With().Str("component", "subscriptions").Logger(),
		transport:    transport,
		onSubscribed: onSubscribed,
		state:        int32(StateSubscribing),
	}
}

// State returns the current state.
func (k *Keeper) State() State {
	return State(atomic.LoadInt32(&k.state))
}

func (k *Keeper) setState(s State) {
	atomic.StoreInt32(&k.state, int32(s))
	keeperState.Set(float64(s))
}

// Run subscription passes until the given context is canceled.
func (k *Keeper) Run(ctx context.Context) error {
	k.setState(StateSubscribing)
	for {
		next, delay := k.step(ctx, k.State())
		if ctx.Err() != nil {
			return nil
		}
		k.setState(next)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
			// Continue
		}
	}
}

// step performs a single subscription pass from the given state.
// Returns the next state and the delay before the next pass.
func (k *Keeper) step(ctx context.Context, current State) (State, time.Duration) {
	passesTotal.Inc()
	if err := k.subscribeAll(ctx); err != nil {
		if ctx.Err() == nil {
			passErrorsTotal.Inc()
			k.log.Warn().Err(err).
				Str("state", current.String()).
				Dur("retry-interval", k.config.RetryInterval).
				Msg("Subscription pass failed")
		}
		// A Steady keeper stays Steady; it retries sooner.
		return current, k.config.RetryInterval
	}
	if current == StateSubscribing {
		k.log.Info().Strs("topics", k.config.Topics).Msg("Subscribed to all topics")
		if k.onSubscribed != nil {
			k.onSubscribed(ctx)
		}
	}
	return StateSteady, k.config.ResubscribeInterval
}

func (k *Keeper) subscribeAll(ctx context.Context) error {
	for _, topic := range k.config.Topics {
		if err := k.transport.Subscribe(ctx, topic); err != nil {
			return errors.Wrapf(err, "subscribe '%s'", topic)
		}
	}
	return nil
}
