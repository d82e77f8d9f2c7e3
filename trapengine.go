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

import "github.com/drmorel/mmiosim/internal/simlog"

// TrapEngine is the platform-agnostic half of the MMIO trap engine: address
// lookup and request dispatch. The platform-specific half -- reserving
// guard regions in the driver's address space, catching the fault, and
// decoding the faulting instruction -- lives in trap_linux_amd64.go (and a
// stub for unsupported platforms in trap_other.go).
type TrapEngine struct {
	sim *Simulator
}

func newTrapEngine(sim *Simulator) *TrapEngine {
	return &TrapEngine{sim: sim}
}

// Service implements steps 3-4 of on_fault: given an address and an
// already-classified access, it looks the address up in the Address Map,
// builds a Request with a fresh ID, and dispatches it to the Plugin Host.
// It returns ok=false for an address outside every registered range, which
// per the component design is a fatal, unrecoverable condition -- the
// caller must abort rather than continue.
func (t *TrapEngine) Service(addr uint32, kind RequestKind, value uint32) (resp Response, ok bool) {
	module, _, _, found := t.sim.AddrMap.Lookup(addr)
	if !found {
		simlog.Fatal("TrapEngine", "on_fault", addr, "unknown address, aborting")
		return Response{}, false
	}

	req := Request{
		Module:  module,
		Address: addr,
		Kind:    kind,
		Value:   value,
		ID:      t.sim.Host.NextID(),
	}
	resp = t.sim.Host.Dispatch(req)
	if resp.Err != nil {
		simlog.Fatal("TrapEngine", "on_fault", req, resp.Err.Error())
		return resp, false
	}
	return resp, true
}
