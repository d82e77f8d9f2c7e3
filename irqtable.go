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
	"fmt"
	"sync"
	"sync/atomic"
)

// IRQHandler is invoked when an enabled IRQ is delivered. Handlers run on
// the goroutine that received the triggering signal and must be
// async-signal-reasonable: touch only atomics or state otherwise safe to
// mutate from that context, never a lock the same goroutine might already
// hold.
type IRQHandler func()

type irqEntry struct {
	handler IRQHandler
	enabled atomic.Bool
}

// IRQTable holds, for each IRQ number, a handler and an enable bit. At most
// one entry exists per IRQ number; replacing the handler is permitted and
// updates in place, per the data model's IRQ entry invariant.
type IRQTable struct {
	mu      sync.RWMutex
	entries map[uint32]*irqEntry
}

// NewIRQTable returns an empty IRQ table.
func NewIRQTable() *IRQTable {
	return &IRQTable{entries: make(map[uint32]*irqEntry)}
}

// RegisterHandler inserts or replaces the handler for irq and enables it.
func (t *IRQTable) RegisterHandler(irq uint32, h IRQHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[irq]
	if !ok {
		e = &irqEntry{}
		t.entries[irq] = e
	}
	e.handler = h
	e.enabled.Store(true)
	return nil
}

// Enable sets the enable bit for irq. Returns NotFound if irq has no
// registered handler.
func (t *IRQTable) Enable(irq uint32) error {
	t.mu.RLock()
	e, ok := t.entries[irq]
	t.mu.RUnlock()
	if !ok {
		return newErr(ErrNotFound, "IRQTable", "Enable", irq)
	}
	e.enabled.Store(true)
	return nil
}

// Disable clears the enable bit for irq. Returns NotFound if irq has no
// registered handler. Once this returns, no further invocation of irq's
// handler occurs until the next Enable.
func (t *IRQTable) Disable(irq uint32) error {
	t.mu.RLock()
	e, ok := t.entries[irq]
	t.mu.RUnlock()
	if !ok {
		return newErr(ErrNotFound, "IRQTable", "Disable", irq)
	}
	e.enabled.Store(false)
	return nil
}

// Deliver invokes irq's handler if one is registered and enabled; if not,
// it logs the condition and returns, per the delivery contract (§4.3): an
// interrupt for a disabled or unregistered IRQ is not an error, just a
// no-op worth noting.
func (t *IRQTable) Deliver(irq uint32) {
	t.mu.RLock()
	e, ok := t.entries[irq]
	t.mu.RUnlock()
	if !ok {
		diagnosticf("IRQTable", "Deliver", irq, "no handler registered")
		return
	}
	if !e.enabled.Load() {
		diagnosticf("IRQTable", "Deliver", irq, "IRQ disabled, dropped")
		return
	}
	e.handler()
}

// String renders the table as a human-readable dump of registered IRQs
// and their enable state, in the style of elsie's Interrupt.String.
func (t *IRQTable) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := "IRQTable(\n"
	for irq, e := range t.entries {
		s += fmt.Sprintf("\t%d: enabled=%v\n", irq, e.enabled.Load())
	}
	return s + ")"
}
