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
	"sync"
	"time"

	"github.com/pkg/errors"
)

// VirtualBridge is a bridge without hardware.
// Output pins are kept in memory and can be made to fail, which
// makes it usable for tests and for running on a development machine.
type VirtualBridge struct {
	mutex    sync.Mutex
	pins     map[int]*virtualPin
	greenLed bool
	redLed   bool
}

type virtualPin struct {
	bridge    *VirtualBridge
	number    int
	activeLow bool
	value     bool
	writes    int
	failWith  error
}

// NewVirtualBridge implements the bridge for a virtual local worker.
func NewVirtualBridge() *VirtualBridge {
	return &VirtualBridge{
		pins: make(map[int]*virtualPin),
	}
}

// Output initializes a GPIO output pin with the given pin number
// and initial logical value.
func (p *VirtualBridge) Output(pinNumber int, activeLow bool, initialValue bool) (OutputPin, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if pinNumber < 0 {
		return nil, errors.Errorf("Invalid pin %d", pinNumber)
	}
	pin, found := p.pins[pinNumber]
	if !found {
		pin = &virtualPin{bridge: p, number: pinNumber}
		p.pins[pinNumber] = pin
	}
	pin.activeLow = activeLow
	pin.value = initialValue
	return pin, nil
}

// Write the logical value of the pin.
func (vp *virtualPin) Write(value bool) error {
	vp.bridge.mutex.Lock()
	defer vp.bridge.mutex.Unlock()

	vp.writes++
	if vp.failWith != nil {
		return vp.failWith
	}
	vp.value = value
	return nil
}

// PinValue returns the logical value of the pin with given number.
func (p *VirtualBridge) PinValue(pinNumber int) (value bool, found bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if pin, found := p.pins[pinNumber]; found {
		return pin.value, true
	}
	return false, false
}

// PinWrites returns the number of write attempts of the pin with given number.
func (p *VirtualBridge) PinWrites(pinNumber int) int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if pin, found := p.pins[pinNumber]; found {
		return pin.writes
	}
	return 0
}

// SetPinError makes all following writes of the pin with given number
// fail with the given error. Pass nil to stop failing.
// The pin is created when it does not exist yet.
func (p *VirtualBridge) SetPinError(pinNumber int, err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	pin, found := p.pins[pinNumber]
	if !found {
		pin = &virtualPin{bridge: p, number: pinNumber}
		p.pins[pinNumber] = pin
	}
	pin.failWith = err
}

// Turn Green status led on/off
func (p *VirtualBridge) SetGreenLED(on bool) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.greenLed = on
	return nil
}

// Turn Red status led on/off
func (p *VirtualBridge) SetRedLED(on bool) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.redLed = on
	return nil
}

// GreenLED returns the state of the green led.
func (p *VirtualBridge) GreenLED() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.greenLed
}

// Blink Green status led with given duration between on/off
func (p *VirtualBridge) BlinkGreenLED(delay time.Duration) error {
	return nil
}

// Blink Red status led with given duration between on/off
func (p *VirtualBridge) BlinkRedLED(delay time.Duration) error {
	return nil
}

func (p *VirtualBridge) Close() error {
	return nil
}
