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
	"github.com/Ott-cop/Oner-IoT/pkg/metrics"
)

const (
	subSystem = "subscriptions"
)

var (
	passesTotal = metrics.MustRegisterCounter(subSystem,
		"passes_total",
		"Total number of subscription passes")
	passErrorsTotal = metrics.MustRegisterCounter(subSystem,
		"pass_errors_total",
		"Total number of failed subscription passes")
	keeperState = metrics.MustRegisterGauge(subSystem,
		"state",
		"State of the subscription keeper (0=subscribing, 1=steady)")
)
