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
	"time"

	"github.com/Ott-cop/Oner-IoT/pkg/metrics"
)

const (
	subSystem = "channels"
)

var (
	commandsTotal = metrics.MustRegisterCounterVec(subSystem,
		"commands_total",
		"Total number of commands handled by a runner",
		"channel")
	commandErrorsTotal = metrics.MustRegisterCounterVec(subSystem,
		"command_errors_total",
		"Total number of commands that could not be applied",
		"channel", "reason")
	channelState = metrics.MustRegisterGaugeVec(subSystem,
		"state",
		"Last applied state of a channel (1=on)",
		"channel")
	queueLength = metrics.MustRegisterGaugeVec(subSystem,
		"queue_length",
		"Number of commands waiting in the queue of a runner",
		"channel")
	applyDuration = metrics.MustRegisterHistogram(subSystem,
		"apply_duration_seconds",
		"Time between receiving and applying a command")

	timeSince = time.Since
)
