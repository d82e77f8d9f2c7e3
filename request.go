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

// RequestKind classifies a faulted access request or a plugin dispatch
// operation.
type RequestKind int

const (
	KindRead RequestKind = iota
	KindWrite
	KindClock
	KindReset
	KindInterrupt
)

func (k RequestKind) String() string {
	switch k {
	case KindRead:
		return "Read"
	case KindWrite:
		return "Write"
	case KindClock:
		return "Clock"
	case KindReset:
		return "Reset"
	case KindInterrupt:
		return "Interrupt"
	default:
		return "Unknown"
	}
}

// ResetMode selects the reset edge delivered to a plugin's Reset op.
type ResetMode int

const (
	Assert ResetMode = iota
	Deassert
)

// ClockOp selects the clock operation delivered to a plugin's Clock op.
type ClockOp int

const (
	Tick ClockOp = iota
	ClockEnable
	ClockDisable
)

// Request is the ephemeral faulted-access request constructed per fault (or
// per direct dispatch call). IDs are monotonically increasing across the
// simulator; no entity retains a Request past the return from the owning
// plugin's op.
type Request struct {
	Module  string
	Address uint32
	Kind    RequestKind
	Value   uint32 // meaningful for KindWrite
	Reset   ResetMode
	Clock   ClockOp
	Cycles  uint32
	IRQ     uint32
	ID      uint64
}

// Response is returned for every dispatched Request.
type Response struct {
	Value uint32
	Err   error
}
