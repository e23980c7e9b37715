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

package model

import (
	"github.com/pkg/errors"
)

var (
	// ValidationError is returned when a configuration or channel table
	// is not acceptable.
	ValidationError = errors.New("validation failed")
	// IsValidation returns true if the given error is caused by a ValidationError.
	IsValidation = isErrorFunc(ValidationError)

	// DecodeError is returned when a command payload cannot be decoded.
	DecodeError = errors.New("decode failed")
	// IsDecode returns true if the given error is caused by a DecodeError.
	IsDecode = isErrorFunc(DecodeError)

	// StorageError is returned when the persisted layout cannot be
	// read, written or (de)serialized.
	StorageError = errors.New("storage failed")
	// IsStorage returns true if the given error is caused by a StorageError.
	IsStorage = isErrorFunc(StorageError)

	// TransportError is returned when the broker connection fails
	// a subscribe, publish or receive.
	TransportError = errors.New("transport failed")
	// IsTransport returns true if the given error is caused by a TransportError.
	IsTransport = isErrorFunc(TransportError)

	// ActuationError is returned when an output pin cannot be driven.
	ActuationError = errors.New("actuation failed")
	// IsActuation returns true if the given error is caused by an ActuationError.
	IsActuation = isErrorFunc(ActuationError)

	// LayoutMissingError is returned when a command is applied while
	// no layout has been persisted.
	LayoutMissingError = errors.New("layout missing")
	// IsLayoutMissing returns true if the given error is caused by a LayoutMissingError.
	IsLayoutMissing = isErrorFunc(LayoutMissingError)

	maskAny = errors.WithStack
)

func isErrorFunc(typeOfError error) func(err error) bool {
	return func(err error) bool {
		if err == nil {
			return false
		}
		return err == typeOfError || errors.Cause(err) == typeOfError || errors.Is(err, typeOfError)
	}
}
