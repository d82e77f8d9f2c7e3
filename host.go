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

import "sync/atomic"

// PluginHost relays Requests to the plugin named by Request.Module and
// translates its return value into a Response. It also owns the
// monotonically increasing request ID counter shared by every fault and
// every direct dispatch call in the simulator.
type PluginHost struct {
	registry *Registry
	nextID   atomic.Uint64
}

// NewPluginHost returns a host dispatching against registry.
func NewPluginHost(registry *Registry) *PluginHost {
	return &PluginHost{registry: registry}
}

// NextID returns a fresh, monotonically increasing request ID.
func (h *PluginHost) NextID() uint64 {
	return h.nextID.Add(1)
}

// Dispatch resolves the plugin by req.Module and invokes the operation
// matching req.Kind. A Response.Err of NotFound means the plugin named by
// req.Module isn't registered; a ConfigurationError means req.Kind is not a
// known kind; any other error wraps whatever the plugin itself returned as
// a ProtocolViolation.
func (h *PluginHost) Dispatch(req Request) Response {
	p, ok := h.registry.FindPlugin(req.Module)
	if !ok {
		return Response{Err: newErr(ErrNotFound, "PluginHost", "Dispatch", req.Module)}
	}

	switch req.Kind {
	case KindRead:
		return Response{Value: p.Read(req.Address)}
	case KindWrite:
		if err := p.Write(req.Address, req.Value); err != nil {
			return Response{Err: wrapErr(ErrProtocolViolation, "PluginHost", "Write", req.Module, err)}
		}
		return Response{}
	case KindClock:
		if err := p.Clock(req.Clock, req.Cycles); err != nil {
			return Response{Err: wrapErr(ErrProtocolViolation, "PluginHost", "Clock", req.Module, err)}
		}
		return Response{}
	case KindReset:
		if err := p.Reset(req.Reset); err != nil {
			return Response{Err: wrapErr(ErrProtocolViolation, "PluginHost", "Reset", req.Module, err)}
		}
		return Response{}
	case KindInterrupt:
		if err := p.Interrupt(req.IRQ); err != nil {
			return Response{Err: wrapErr(ErrProtocolViolation, "PluginHost", "Interrupt", req.Module, err)}
		}
		return Response{}
	default:
		return Response{Err: newErr(ErrConfiguration, "PluginHost", "Dispatch", req.Kind)}
	}
}
