//    Copyright 2023 Ewout Prangsma
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

package bridge

import (
	"github.com/Ott-cop/Oner-IoT/pkg/metrics"
)

const (
	subSystem = "bridge"
)

var (
	// Total number of times Pin.Set is called
	pinWritesTotal = metrics.MustRegisterCounterVec(subSystem,
		"pin_writes_total",
		"Total number of times Pin.Set is called",
		"pin")
	// Total number of times Pin.Set failed
	pinWriteErrorsTotal = metrics.MustRegisterCounterVec(subSystem,
		"pin_write_errors_total",
		"Total number of times Pin.Set failed",
		"pin")
)
