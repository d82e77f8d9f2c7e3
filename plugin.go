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

// InterruptTrigger is the narrow capability a plugin is given to raise an
// interrupt back toward the driver. It is implemented by *Simulator and
// injected into plugin constructors so peripherals never need the whole
// simulator context, only this one verb.
type InterruptTrigger interface {
	TriggerInterrupt(module string, irq uint32) error
}

// GuestMemory gives a plugin access to the driver's ordinary (non-MMIO)
// memory, for peripherals like DMA that move bytes between guest buffers
// rather than just serving register reads/writes. It is implemented by
// TracedDriver, backed by /proc/<pid>/mem access to the traced driver
// process, and by FakeMemory for in-process tests.
type GuestMemory interface {
	ReadAt(addr uint32, buf []byte) error
	WriteAt(addr uint32, buf []byte) error
}

// Plugin is the uniform contract every peripheral behavioural model
// implements: lifecycle ops, register ops, and the interrupt hook.
type Plugin interface {
	// Name is this instance's unique, instance-suffixed registry key
	// (e.g. "uart0").
	Name() string

	// Init allocates per-instance state and may spawn background
	// workers. Called once, at register_plugin time.
	Init() error

	// Cleanup stops workers and frees state. Idempotent.
	Cleanup()

	// Reset zeros state and stops workers on Assert; Deassert is a no-op
	// for every exemplar plugin but is part of the contract for
	// plugins that model a held reset line.
	Reset(mode ResetMode) error

	// Clock advances or (en/dis)ables a plugin's internal clock. Tick
	// advances state synchronously by one step, independent of any
	// background worker's own timer -- this is what makes peripheral
	// timing deterministic in tests.
	Clock(op ClockOp, cycles uint32) error

	// Read must not block indefinitely.
	Read(addr uint32) uint32

	// Write may have side effects, including raising an interrupt.
	Write(addr uint32, value uint32) error

	// Interrupt is invoked when an IRQ is delivered to this plugin
	// specifically (reserved for bidirectional models; the UART and DMA
	// exemplars do not use it).
	Interrupt(irq uint32) error
}
