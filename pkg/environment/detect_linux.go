//    Copyright 2018 Ewout Prangsma
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

package environment

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

const (
	// BridgeTypeRaspberryPi drives real GPIO pins.
	BridgeTypeRaspberryPi = "rpi"
	// BridgeTypeVirtual keeps pins in memory.
	BridgeTypeVirtual = "virtual"

	gpioSysfsPath = "/sys/class/gpio"
)

// AutoDetectBridgeType detects the default bridge type based on the environment.
func AutoDetectBridgeType(log zerolog.Logger) string {
	var name unix.Utsname
	if err := unix.Uname(&name); err != nil {
		log.Warn().Err(err).Msg("Uname failed; using virtual bridge")
		return BridgeTypeVirtual
	}
	machine := strings.TrimRight(string(name.Machine[:]), "\x00")
	if !strings.HasPrefix(machine, "arm") && !strings.HasPrefix(machine, "aarch64") {
		log.Info().Str("machine", machine).Msg("Not an ARM board; using virtual bridge")
		return BridgeTypeVirtual
	}
	if _, err := os.Stat(gpioSysfsPath); err != nil {
		log.Info().Str("machine", machine).Msg("No GPIO sysfs; using virtual bridge")
		return BridgeTypeVirtual
	}
	return BridgeTypeRaspberryPi
}
