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

package reconciler

import (
	"context"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Ott-cop/Oner-IoT/pkg/model"
	"github.com/Ott-cop/Oner-IoT/pkg/service/bridge"
	"github.com/Ott-cop/Oner-IoT/pkg/service/storage"
)

// Dependencies of the reconciler.
type Dependencies struct {
	Log      zerolog.Logger
	Store    *storage.LayoutStore
	Channels model.Channels
	// Pins by channel name
	Pins map[string]*bridge.Pin
}

// Reconciler drives all pins to their persisted state at startup.
type Reconciler struct {
	Dependencies
}

// New creates a reconciler.
func New(deps Dependencies) *Reconciler {
	deps.Log = deps.Log.With().Str("component", "reconciler").Logger()
	return &Reconciler{Dependencies: deps}
}

// Run loads (or initializes) the persisted layout and drives every pin
// to its persisted state. Returns the layout.
// Storage failures are fatal. Pin failures are logged and do not stop
// the other pins from being reconciled.
func (r *Reconciler) Run(ctx context.Context) (model.Layout, error) {
	layout, found, err := r.Store.Read(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read persisted layout")
	}
	if !found {
		r.Log.Info().Msg("No persisted layout found; initializing default layout")
		if layout, err = r.Store.InitializeDefault(ctx); err != nil {
			return nil, errors.Wrap(err, "failed to initialize default layout")
		}
	} else if normalized, changed := layout.Normalize(r.Channels); changed {
		r.Log.Info().Msg("Persisted layout does not match channel table; updating")
		if err := r.Store.Write(ctx, normalized); err != nil {
			return nil, errors.Wrap(err, "failed to write normalized layout")
		}
		layout = normalized
	}

	var ae aerr.AggregateError
	for _, c := range r.Channels {
		state := layout[c.Name].State
		pin, found := r.Pins[c.Name]
		if !found {
			ae.Add(errors.Wrapf(model.ActuationError, "no pin for channel '%s'", c.Name))
			continue
		}
		if err := pin.Set(state); err != nil {
			r.Log.Error().Err(err).Str("channel", c.Name).Bool("state", state).Msg("Failed to reconcile pin")
			ae.Add(err)
			continue
		}
		r.Log.Debug().Str("channel", c.Name).Bool("state", state).Msg("Reconciled pin")
	}
	if err := ae.AsError(); err != nil {
		r.Log.Warn().Err(err).Msg("Not all pins could be reconciled")
	} else {
		r.Log.Info().Int("channels", len(r.Channels)).Msg("Reconciled all pins")
	}
	return layout, nil
}
