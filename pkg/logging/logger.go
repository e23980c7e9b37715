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

package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Config of the logger.
type Config struct {
	// Level is one of trace, debug, info, warn, error
	Level string
	// File to write logs to. Empty disables file logging.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	// Console writes human readable logs to stderr.
	Console bool
}

// NewLogger creates a logger that writes to the console, the optional
// rotating log file and the returned MQTT writer.
// The MQTT writer stays disabled until it is given a destination and
// enabled.
func NewLogger(ctx context.Context, conf Config) (zerolog.Logger, MQTTWriter, error) {
	level := zerolog.InfoLevel
	if conf.Level != "" {
		var err error
		level, err = zerolog.ParseLevel(strings.ToLower(conf.Level))
		if err != nil {
			return zerolog.Logger{}, nil, errors.Wrapf(err, "invalid log level '%s'", conf.Level)
		}
	}

	var writers []io.Writer
	if conf.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		writers = append(writers, os.Stderr)
	}
	if conf.File != "" {
		writers = append(writers, &lj.Logger{
			Filename:   conf.File,
			MaxSize:    valOr(conf.MaxSizeMB, 10),
			MaxBackups: valOr(conf.MaxBackups, 3),
			MaxAge:     valOr(conf.MaxAgeDays, 7),
			Compress:   conf.Compress,
		})
	}
	mqttWriter := NewMQTTWriter(ctx)
	writers = append(writers, mqttWriter)

	logger := zerolog.New(NewMultiWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
	return logger, mqttWriter, nil
}

func valOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
