// Copyright 2021 Ewout Prangsma
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
// Author Ewout Prangsma
//

package util

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// UntilCanceled continues to call the given callback
// until the given context is canceled.
// After a failed call, it waits for retryDelay before calling again.
func UntilCanceled(ctx context.Context, log zerolog.Logger, description string, retryDelay time.Duration, cb func() error) error {
	for {
		if ctx.Err() != nil {
			// Context canceled
			return nil
		}
		err := cb()
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			// Error caused by cancellation
			return nil
		}
		log.Warn().Err(err).Dur("retry-delay", retryDelay).Msgf("%s failed", description)
		select {
		case <-ctx.Done():
			// Context canceled
			log.Info().Msgf("Stopping %s; context canceled", description)
			return nil
		case <-time.After(retryDelay):
			// Continue
		}
	}
}
