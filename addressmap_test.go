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

func TestAddressMapLookupRoundTrip(t *testing.T) {
	m := NewAddressMap()
	if err := m.Add(0x1000, 0x1050, "uart0"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	module, base, length, ok := m.Lookup(0x1020)
	if !ok || module != "uart0" || base != 0x1000 || length != 0x50 {
		t.Fatalf("Lookup = (%q, %#x, %#x, %v), want (uart0, 0x1000, 0x50, true)", module, base, length, ok)
	}
}

func TestAddressMapRejectsOverlap(t *testing.T) {
	m := NewAddressMap()
	if err := m.Add(0x1000, 0x2000, "a"); err != nil {
		t.Fatalf("Add(a): %v", err)
	}
	err := m.Add(0x1800, 0x2800, "b")
	if err == nil {
		t.Fatal("Add(b) succeeded, want ConfigurationError")
	}
	if CodeOf(err) != ErrConfiguration {
		t.Fatalf("CodeOf(err) = %v, want ErrConfiguration", CodeOf(err))
	}
}

func TestAddressMapLookupMiss(t *testing.T) {
	m := NewAddressMap()
	_ = m.Add(0x1000, 0x1050, "uart0")
	if _, _, _, ok := m.Lookup(0x5000); ok {
		t.Fatal("Lookup found a range for an address outside every range")
	}
}

func TestAddressMapRejectsBackwardsRange(t *testing.T) {
	m := NewAddressMap()
	if err := m.Add(0x2000, 0x1000, "bad"); err == nil {
		t.Fatal("Add with start >= end succeeded")
	}
}
