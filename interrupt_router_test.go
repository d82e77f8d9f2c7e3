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

import (
	"testing"
	"time"
)

func TestTriggerDeliversBoundHandler(t *testing.T) {
	router := NewInterruptRouter(NewIRQTable())
	defer router.Stop()

	fired := make(chan struct{}, 1)
	if err := router.RegisterInterruptHandler(7, func() { fired <- struct{}{} }); err != nil {
		t.Fatalf("RegisterInterruptHandler: %v", err)
	}
	if err := router.AddSignalBinding(35, "uart0", 7); err != nil {
		t.Fatalf("AddSignalBinding: %v", err)
	}

	if err := router.Trigger("uart0", 7); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked after Trigger")
	}
}

func TestTriggerUnboundReturnsNotFound(t *testing.T) {
	router := NewInterruptRouter(NewIRQTable())
	defer router.Stop()

	err := router.Trigger("dma0", 12)
	if CodeOf(err) != ErrNotFound {
		t.Fatalf("Trigger(unbound) = %v, want NotFound", err)
	}
}
