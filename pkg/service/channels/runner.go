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

package channels

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Ott-cop/Oner-IoT/pkg/model"
	"github.com/Ott-cop/Oner-IoT/pkg/service/bridge"
	"github.com/Ott-cop/Oner-IoT/pkg/service/storage"
)

const (
	// DefaultQueueSize is the default capacity of a runner queue.
	DefaultQueueSize = 32
	maxLoggedPayload = 128
)

// StatusReporter is notified of every applied state.
type StatusReporter interface {
	ReportState(ctx context.Context, c model.Channel, dev model.Device)
}

// HistoryRecorder is notified of every applied state.
type HistoryRecorder interface {
	Record(c model.Channel, dev model.Device)
}

// Config of a Runner.
type Config struct {
	Channel model.Channel
	// QueueSize is the capacity of the command queue.
	QueueSize int
}

// Dependencies of a Runner.
type Dependencies struct {
	Log   zerolog.Logger
	Store *storage.LayoutStore
	Pin   *bridge.Pin
	// Optional
	Status  StatusReporter
	History HistoryRecorder
	// OnActive is called after every applied command.
	OnActive func()
}

// Runner applies the commands of a single channel, one at a time.
type Runner struct {
	Dependencies
	channel model.Channel
	queue   chan model.Command
}

// NewRunner creates a runner for the given channel.
func NewRunner(conf Config, deps Dependencies) *Runner {
	size := conf.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	deps.Log = deps.Log.With().
		Str("component", "runner").
		Str("channel", conf.Channel.Name).
		Logger()
	return &Runner{
		Dependencies: deps,
		channel:      conf.Channel,
		queue:        make(chan model.Command, size),
	}
}

// Channel returns the channel of this runner.
func (r *Runner) Channel() model.Channel {
	return r.channel
}

// Queue returns the queue commands for this runner are sent to.
func (r *Runner) Queue() chan<- model.Command {
	return r.queue
}

// Run applies queued commands until the given context is canceled.
// It only returns an error when the layout has disappeared from storage.
func (r *Runner) Run(ctx context.Context) error {
	r.Log.Debug().Msg("Runner started")
	defer r.Log.Debug().Msg("Runner stopped")
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-r.queue:
			queueLength.WithLabelValues(r.channel.Name).Set(float64(len(r.queue)))
			if err := r.Apply(ctx, cmd); model.IsLayoutMissing(err) {
				return err
			}
		}
	}
}

// Apply a single command: decode it, persist the new state and
// then drive the pin.
// When persisting fails, the pin is not touched.
// Errors are logged here; the returned error is informational except
// for a LayoutMissingError.
func (r *Runner) Apply(ctx context.Context, cmd model.Command) error {
	name := r.channel.Name
	log := r.Log
	commandsTotal.WithLabelValues(name).Inc()

	req, err := model.DecodeCommand(cmd.Payload)
	if err != nil {
		commandErrorsTotal.WithLabelValues(name, "decode").Inc()
		log.Warn().Err(err).Str("payload", truncate(cmd.Payload)).Msg("Dropping invalid command")
		return err
	}
	state := req.DesiredState()

	var applied model.Device
	var actuationErr error
	err = r.Store.Transaction(ctx, func(tx storage.Tx) error {
		layout, found, err := tx.Read(ctx)
		if err != nil {
			return err
		}
		if !found {
			return errors.Wrapf(model.LayoutMissingError, "no layout persisted while applying command for '%s'", name)
		}
		dev := layout[name]
		dev.ID = r.channel.ID
		dev.Name = name
		dev.State = state
		layout[name] = dev
		if err := tx.Write(ctx, layout); err != nil {
			return err
		}
		applied = dev
		actuationErr = r.Pin.Set(state)
		return nil
	})
	if model.IsLayoutMissing(err) {
		commandErrorsTotal.WithLabelValues(name, "layout-missing").Inc()
		log.Error().Err(err).Msg("Persisted layout is missing")
		return err
	} else if err != nil {
		commandErrorsTotal.WithLabelValues(name, "storage").Inc()
		log.Error().Err(err).Bool("state", state).Msg("Failed to persist state; dropping command")
		return err
	}
	if actuationErr != nil {
		commandErrorsTotal.WithLabelValues(name, "actuation").Inc()
		log.Error().Err(actuationErr).Bool("state", state).Msg("Failed to drive pin")
		return actuationErr
	}

	log.Info().Bool("state", state).Msg("Applied command")
	if state {
		channelState.WithLabelValues(name).Set(1)
	} else {
		channelState.WithLabelValues(name).Set(0)
	}
	if !cmd.ReceivedAt.IsZero() {
		applyDuration.Observe(timeSince(cmd.ReceivedAt).Seconds())
	}
	if r.OnActive != nil {
		r.OnActive()
	}
	if r.Status != nil {
		r.Status.ReportState(ctx, r.channel, applied)
	}
	if r.History != nil {
		r.History.Record(r.channel, applied)
	}
	return nil
}

func truncate(payload []byte) string {
	if len(payload) > maxLoggedPayload {
		return string(payload[:maxLoggedPayload]) + "..."
	}
	return string(payload)
}
