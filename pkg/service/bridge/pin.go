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

package bridge

import (
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/Ott-cop/Oner-IoT/pkg/model"
)

// Pin is the output of a single channel.
// It remembers the last value that was written successfully.
type Pin struct {
	mutex  sync.Mutex
	number int
	out    OutputPin
	value  bool
}

// OpenPin initializes the output with given number, driven to the
// given initial value.
func OpenPin(api API, number int, activeLow bool, initialValue bool) (*Pin, error) {
	out, err := api.Output(number, activeLow, initialValue)
	if err != nil {
		return nil, errors.Wrapf(model.ActuationError, "open pin %d: %s", number, err)
	}
	return &Pin{
		number: number,
		out:    out,
		value:  initialValue,
	}, nil
}

// Number returns the GPIO number of the pin.
func (p *Pin) Number() int {
	return p.number
}

// Set drives the pin to the given value.
func (p *Pin) Set(value bool) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	label := strconv.Itoa(p.number)
	pinWritesTotal.WithLabelValues(label).Inc()
	if err := p.out.Write(value); err != nil {
		pinWriteErrorsTotal.WithLabelValues(label).Inc()
		return errors.Wrapf(model.ActuationError, "write pin %d: %s", p.number, err)
	}
	p.value = value
	return nil
}

// Get returns the last value successfully written to the pin.
func (p *Pin) Get() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.value
}
