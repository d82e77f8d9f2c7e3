// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package simcore

import "fmt"

// ErrorCode enumerates the error taxonomy of the simulator: configuration
// mistakes discovered at setup time, protocol violations a plugin cannot
// recover from, requests rejected because the target is busy, timed-out
// blocking waits, and lookups against names or numbers that don't exist.
type ErrorCode int

const (
	// ErrNone is the zero value; never attached to a returned error.
	ErrNone ErrorCode = iota
	ErrConfiguration
	ErrProtocolViolation
	ErrResourceBusy
	ErrTimeout
	ErrNotFound
)

func (c ErrorCode) String() string {
	switch c {
	case ErrConfiguration:
		return "ConfigurationError"
	case ErrProtocolViolation:
		return "ProtocolViolation"
	case ErrResourceBusy:
		return "ResourceBusy"
	case ErrTimeout:
		return "Timeout"
	case ErrNotFound:
		return "NotFound"
	default:
		return "None"
	}
}

// SimError is the error type returned across the driver-facing surface. It
// always identifies the component and operation involved, plus the
// offending value, so the one-line diagnostic required by the error
// handling design can be reconstructed from the error alone.
type SimError struct {
	Code      ErrorCode
	Component string
	Op        string
	Value     any
	Err       error
}

func (e *SimError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s(%v): %s: %v", e.Component, e.Op, e.Value, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s(%v): %s", e.Component, e.Op, e.Value, e.Code)
}

func (e *SimError) Unwrap() error { return e.Err }

// CodeOf extracts the ErrorCode from err, if it (or something it wraps) is
// a *SimError. Returns ErrNone otherwise.
func CodeOf(err error) ErrorCode {
	var se *SimError
	for err != nil {
		if s, ok := err.(*SimError); ok {
			se = s
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if se == nil {
		return ErrNone
	}
	return se.Code
}

func newErr(code ErrorCode, component, op string, value any) error {
	return &SimError{Code: code, Component: component, Op: op, Value: value}
}

func wrapErr(code ErrorCode, component, op string, value any, err error) error {
	return &SimError{Code: code, Component: component, Op: op, Value: value, Err: err}
}
