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
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// SignalBinding is one entry of the Signal Map: an OS signal number bound
// to a (plugin name, IRQ number) pair. Signal numbers are unique within
// the table; adding a duplicate signal replaces the existing binding.
type SignalBinding struct {
	Signal int
	Module string
	IRQ    uint32
}

type bindingKey struct {
	module string
	irq    uint32
}

// InterruptRouter is the Signal Map and Interrupt Router combined: it
// installs host signal handlers for bound signals, resolves a delivered
// signal back to an IRQ number, and calls into the IRQ Table. It also
// implements Trigger, which sends the bound signal to the current process
// on a plugin's behalf.
//
// The dispatch goroutine reading sigCh is the trampoline the design notes
// call for: synchronous signal handling is kept to the Go runtime's own
// forwarding machinery (os/signal), and all it does here is resolve the
// signal number and call into the IRQ Table on an ordinary goroutine.
type InterruptRouter struct {
	mu       sync.RWMutex
	irqs     *IRQTable
	bySignal map[int]SignalBinding
	byModule map[bindingKey]int
	sigCh    chan os.Signal
	started  bool
}

// NewInterruptRouter returns a router delivering into irqs.
func NewInterruptRouter(irqs *IRQTable) *InterruptRouter {
	return &InterruptRouter{
		irqs:     irqs,
		bySignal: make(map[int]SignalBinding),
		byModule: make(map[bindingKey]int),
		sigCh:    make(chan os.Signal, 64),
	}
}

// AddSignalBinding records the triple and installs a host signal handler
// for signal that resolves signal -> irq via this table and calls Deliver.
// A duplicate signal number replaces the prior binding.
func (r *InterruptRouter) AddSignalBinding(sig int, module string, irq uint32) error {
	if sig <= 0 {
		return newErr(ErrConfiguration, "InterruptRouter", "AddSignalBinding", sig)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, exists := r.bySignal[sig]; exists {
		delete(r.byModule, bindingKey{old.Module, old.IRQ})
	}
	r.bySignal[sig] = SignalBinding{Signal: sig, Module: module, IRQ: irq}
	r.byModule[bindingKey{module, irq}] = sig

	signal.Notify(r.sigCh, syscall.Signal(sig))
	if !r.started {
		r.started = true
		go r.dispatchLoop()
	}
	return nil
}

func (r *InterruptRouter) dispatchLoop() {
	for s := range r.sigCh {
		sig, ok := s.(syscall.Signal)
		if !ok {
			continue
		}
		r.mu.RLock()
		b, found := r.bySignal[int(sig)]
		r.mu.RUnlock()
		if !found {
			continue
		}
		r.irqs.Deliver(b.IRQ)
	}
}

// Trigger locates the binding whose (module, irq) matches and sends the
// bound host signal to the current process. Returns NotFound without side
// effect if no such binding exists.
func (r *InterruptRouter) Trigger(module string, irq uint32) error {
	r.mu.RLock()
	sig, found := r.byModule[bindingKey{module, irq}]
	r.mu.RUnlock()
	if !found {
		return newErr(ErrNotFound, "InterruptRouter", "Trigger", fmt.Sprintf("%s/%d", module, irq))
	}
	if err := unix.Kill(os.Getpid(), syscall.Signal(sig)); err != nil {
		return wrapErr(ErrProtocolViolation, "InterruptRouter", "Trigger", fmt.Sprintf("%s/%d", module, irq), err)
	}
	return nil
}

// RegisterInterruptHandler, EnableInterrupt and DisableInterrupt forward to
// the underlying IRQ Table; they're exposed here so callers only need to
// hold one driver-facing handle for the whole interrupt path.
func (r *InterruptRouter) RegisterInterruptHandler(irq uint32, h IRQHandler) error {
	return r.irqs.RegisterHandler(irq, h)
}

func (r *InterruptRouter) EnableInterrupt(irq uint32) error { return r.irqs.Enable(irq) }

func (r *InterruptRouter) DisableInterrupt(irq uint32) error { return r.irqs.Disable(irq) }

// Stop releases the signal channel. Cleanup calls this during teardown.
func (r *InterruptRouter) Stop() {
	signal.Stop(r.sigCh)
}
