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

import "time"

// IRQWaiter gives driver-side test code a blocking alternative to
// registering a callback handler for an IRQ: Wait and WaitTimeout block
// until the IRQ fires, the way §5's "wait for DMA transfer complete"
// convenience requires. It registers itself as the IRQ's handler, so it
// cannot be used on an IRQ that also has a plain callback installed (and
// vice versa) -- the data model allows only one handler per IRQ number.
type IRQWaiter struct {
	irqs    *IRQTable
	irq     uint32
	evChan  chan struct{}
	stopped bool
}

// NewWaiter registers a waiter for irq, replacing any existing handler.
func NewWaiter(irqs *IRQTable, irq uint32) *IRQWaiter {
	w := &IRQWaiter{irqs: irqs, irq: irq, evChan: make(chan struct{}, 64)}
	_ = irqs.RegisterHandler(irq, w.fire)
	return w
}

func (w *IRQWaiter) fire() {
	select {
	case w.evChan <- struct{}{}:
	default:
		// Unable to send, maybe the waiter has been stopped.
	}
}

// Wait blocks until the IRQ is delivered.
func (w *IRQWaiter) Wait() {
	<-w.evChan
}

// WaitTimeout blocks until the IRQ is delivered or tout elapses, returning
// false on timeout. This is the blocking-with-timeout primitive §5
// requires of operations like "wait for DMA transfer complete".
func (w *IRQWaiter) WaitTimeout(tout time.Duration) bool {
	timer := time.NewTimer(tout)
	defer timer.Stop()
	select {
	case <-w.evChan:
		return true
	case <-timer.C:
		return false
	}
}

// Stop disables the IRQ so the waiter's handler no longer fires. It does
// not unregister the handler outright (the data model has no "remove"
// operation), only disables delivery.
func (w *IRQWaiter) Stop() {
	if !w.stopped {
		_ = w.irqs.Disable(w.irq)
		w.stopped = true
	}
}
