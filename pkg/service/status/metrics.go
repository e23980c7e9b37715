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

package status

import (
	"github.com/Ott-cop/Oner-IoT/pkg/metrics"
)

const (
	subSystem = "status"
)

var (
	publishedTotal = metrics.MustRegisterCounterVec(subSystem,
		"published_total",
		"Total number of state reports published",
		"channel")
	publishErrorsTotal = metrics.MustRegisterCounterVec(subSystem,
		"publish_errors_total",
		"Total number of state reports that failed to publish",
		"channel")
)
