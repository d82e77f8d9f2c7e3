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

func TestIRQTableGatesDelivery(t *testing.T) {
	tbl := NewIRQTable()
	count := 0
	if err := tbl.RegisterHandler(5, func() { count++ }); err != nil {
		t.Fatalf("RegisterHandler: %v", err)
	}

	if err := tbl.Disable(5); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	tbl.Deliver(5)
	if count != 0 {
		t.Fatalf("handler invoked while disabled, count = %d", count)
	}

	if err := tbl.Enable(5); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	tbl.Deliver(5)
	if count != 1 {
		t.Fatalf("count = %d after enabled delivery, want 1", count)
	}
}

func TestIRQTableEnableUnknownIRQ(t *testing.T) {
	tbl := NewIRQTable()
	if err := tbl.Enable(99); CodeOf(err) != ErrNotFound {
		t.Fatalf("Enable(unregistered) = %v, want NotFound", err)
	}
}

func TestIRQTableDeliverUnregisteredIsNoop(t *testing.T) {
	tbl := NewIRQTable()
	tbl.Deliver(42) // must not panic
}
