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

import "testing"

func TestNewSimulatorAppliesConfig(t *testing.T) {
	cfg := NewConfig().Map(0x1000, 0x1050, "uart0")
	sim, err := NewSimulator(cfg)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	defer sim.Cleanup()

	module, _, _, ok := sim.AddrMap.Lookup(0x1010)
	if !ok || module != "uart0" {
		t.Fatalf("Lookup after NewSimulator = (%q, %v), want (uart0, true)", module, ok)
	}
}

func TestTrapEngineServiceRoundTrip(t *testing.T) {
	sim, err := NewSimulator(NewConfig().Map(0x1000, 0x1050, "echo0"))
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	defer sim.Cleanup()

	if err := sim.RegisterPlugin(&stubPlugin{name: "echo0"}); err != nil {
		t.Fatalf("RegisterPlugin: %v", err)
	}

	resp, ok := sim.Trap.Service(0x1010, KindRead, 0)
	if !ok {
		t.Fatalf("Service failed: %v", resp.Err)
	}
	if resp.Value != 0 {
		t.Fatalf("Service(Read) = %d, want 0", resp.Value)
	}
}

func TestTrapEngineServiceUnknownAddressFails(t *testing.T) {
	sim, err := NewSimulator(NewConfig())
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	defer sim.Cleanup()

	if _, ok := sim.Trap.Service(0xDEAD, KindRead, 0); ok {
		t.Fatal("Service succeeded for an address outside every range")
	}
}
