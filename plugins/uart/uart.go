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

// Package uart implements the UART exemplar peripheral model: a 256-byte
// FIFO, a control register whose enable bit starts and stops a background
// worker, and a flag register reporting FIFO state. Register layout and
// offsets follow a conventional PrimeCell-style UART, grounded the way
// tinyrange's uart8250_mmio.go switches on register offset rather than
// modelling each register as a separate field accessor.
package uart

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drmorel/mmiosim"
	"github.com/drmorel/mmiosim/internal/baseaddr"
	"github.com/drmorel/mmiosim/internal/simlog"
)

// Register offsets within a UART instance's 0x50-byte window.
const (
	offDR    = 0x00 // data register, read pops RX FIFO / write triggers TX
	offFR    = 0x18 // flag register, read-only
	offCR    = 0x30 // control register: bit0 enable
	offDMACR = 0x48 // DMA control register
)

const (
	crEnable = 1 << 0

	frRXReady = 1 << 0
	frTXBusy  = 1 << 1 // never asserted by this model; TX is instantaneous

	fifoCapacity = 256

	// DefaultRXIRQ and DefaultTXIRQ are the IRQ numbers the concrete end to
	// end scenarios bind this plugin's interrupts to.
	DefaultRXIRQ = 6
	DefaultTXIRQ = 5
)

// fifo is a fixed-capacity byte ring buffer.
type fifo struct {
	buf        [fifoCapacity]byte
	head, tail int
	count      int
}

func (f *fifo) empty() bool { return f.count == 0 }

func (f *fifo) push(b byte) bool {
	if f.count == fifoCapacity {
		return false
	}
	f.buf[f.tail] = b
	f.tail = (f.tail + 1) % fifoCapacity
	f.count++
	return true
}

func (f *fifo) pop() (byte, bool) {
	if f.count == 0 {
		return 0, false
	}
	b := f.buf[f.head]
	f.head = (f.head + 1) % fifoCapacity
	f.count--
	return b, true
}

// UART is the plugin instance for one UART peripheral window.
type UART struct {
	name     string
	instance int
	base     uint32

	irqs   simcore.InterruptTrigger
	rxIRQ  uint32
	txIRQ  uint32
	ticker time.Duration

	mu       sync.Mutex
	rx       fifo
	cr       uint32
	dmacr    uint32
	rxCount  int
	txCount  uint32
	running  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

// Option configures a UART at construction.
type Option func(*UART)

// WithIRQs overrides the default RX/TX IRQ numbers.
func WithIRQs(rx, tx uint32) Option {
	return func(u *UART) { u.rxIRQ, u.txIRQ = rx, tx }
}

// WithTickPeriod overrides the synthetic-RX tick period. The reference
// cadence is coupled to wall-clock seconds; this model instead takes an
// explicit, injectable period so tests can run the worker at whatever
// cadence they need deterministically.
func WithTickPeriod(d time.Duration) Option {
	return func(u *UART) { u.ticker = d }
}

// New returns a UART plugin for the given instance index (0-based), raising
// interrupts through irqs.
func New(instance int, irqs simcore.InterruptTrigger, opts ...Option) *UART {
	u := &UART{
		name:     instanceName(instance),
		instance: instance,
		base:     baseaddr.Instance(baseaddr.UARTBase, instance),
		irqs:     irqs,
		rxIRQ:    DefaultRXIRQ,
		txIRQ:    DefaultTXIRQ,
		ticker:   time.Second,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func instanceName(instance int) string {
	return "uart" + strconv.Itoa(instance)
}

// Name implements simcore.Plugin.
func (u *UART) Name() string { return u.name }

// Init implements simcore.Plugin. It allocates no background worker until
// the control register's enable bit is written.
func (u *UART) Init() error { return nil }

// Cleanup implements simcore.Plugin.
func (u *UART) Cleanup() { u.stopWorker() }

// Reset implements simcore.Plugin.
func (u *UART) Reset(mode simcore.ResetMode) error {
	if mode != simcore.Assert {
		return nil // Deassert is a no-op for this model
	}
	u.stopWorker()
	u.mu.Lock()
	u.rx = fifo{}
	u.cr = 0
	u.dmacr = 0
	u.rxCount = 0
	u.txCount = 0
	u.mu.Unlock()
	return nil
}

// Clock implements simcore.Plugin. Tick advances synthetic RX state by one
// step synchronously, independent of the background worker's own timer.
func (u *UART) Clock(op simcore.ClockOp, cycles uint32) error {
	switch op {
	case simcore.Tick:
		for i := uint32(0); i < cycles; i++ {
			u.tick()
		}
	case simcore.ClockEnable:
		u.startWorker()
	case simcore.ClockDisable:
		u.stopWorker()
	}
	return nil
}

// Read implements simcore.Plugin.
func (u *UART) Read(addr uint32) uint32 {
	off := addr - u.base
	u.mu.Lock()
	defer u.mu.Unlock()

	switch off {
	case offDR:
		b, ok := u.rx.pop()
		if !ok {
			return 0
		}
		return uint32(b)
	case offFR:
		var fr uint32
		if !u.rx.empty() {
			fr |= frRXReady
		}
		return fr
	case offCR:
		return u.cr
	case offDMACR:
		return u.dmacr
	default:
		simlog.Diagnostic(u.name, "Read", addr, "unmapped offset, returning 0")
		return 0
	}
}

// Write implements simcore.Plugin.
func (u *UART) Write(addr uint32, value uint32) error {
	off := addr - u.base

	switch off {
	case offDR:
		// The data model (§3) lists the control enable bit and the
		// interrupt-enable flag as distinct state; this model collapses
		// them onto the same bit (crEnable) because the exemplar address
		// plan defines no separate interrupt-mask register offset and the
		// basic-TX scenario (§8) enables both with a single write of 0x01
		// to the control register. A model with a genuinely independent
		// interrupt-enable flag would gate this check on that flag instead.
		u.mu.Lock()
		u.txCount++
		interruptsEnabled := u.cr&crEnable != 0
		u.mu.Unlock()
		if interruptsEnabled && u.irqs != nil {
			_ = u.irqs.TriggerInterrupt(u.name, u.txIRQ)
		}
		return nil
	case offFR:
		simlog.Diagnostic(u.name, "Write", addr, "write to read-only flag register ignored")
		return nil
	case offCR:
		u.mu.Lock()
		prev := u.cr
		u.cr = value
		u.mu.Unlock()
		if value&crEnable != 0 && prev&crEnable == 0 {
			u.startWorker()
		} else if value&crEnable == 0 && prev&crEnable != 0 {
			u.stopWorker()
		}
		return nil
	case offDMACR:
		u.mu.Lock()
		prev := u.dmacr
		u.dmacr = value
		u.mu.Unlock()
		simlog.Diagnostic(u.name, "Write", value, diffBits(prev, value))
		return nil
	default:
		simlog.Diagnostic(u.name, "Write", addr, "unmapped offset ignored")
		return nil
	}
}

// Interrupt implements simcore.Plugin; the UART exemplar never receives
// interrupts directed at itself.
func (u *UART) Interrupt(irq uint32) error { return nil }

// TxCount returns the number of bytes written to the data register since
// the last reset, for tests exercising the basic-TX scenario.
func (u *UART) TxCount() uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.txCount
}

func diffBits(prev, next uint32) string {
	changed := prev ^ next
	if changed == 0 {
		return "no DMA control bits changed"
	}
	return fmt.Sprintf("DMA control bits changed: 0x%08x", changed)
}

func (u *UART) startWorker() {
	if u.running.Swap(true) {
		return
	}
	u.stopCh = make(chan struct{})
	u.stopOnce = sync.Once{}
	go u.workerLoop(u.stopCh)
}

func (u *UART) stopWorker() {
	if !u.running.Swap(false) {
		return
	}
	u.stopOnce.Do(func() { close(u.stopCh) })
}

func (u *UART) workerLoop(stop chan struct{}) {
	t := time.NewTicker(u.ticker)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			u.tick()
		}
	}
}

// tick appends one synthetic RX byte if the FIFO is currently empty,
// publishing the mutation before raising the RX interrupt so a driver read
// triggered by the IRQ observes the new byte.
func (u *UART) tick() {
	u.mu.Lock()
	if !u.rx.empty() {
		u.mu.Unlock()
		return
	}
	b := byte('A' + u.rxCount%26)
	u.rx.push(b)
	u.rxCount++
	u.mu.Unlock()

	if u.irqs != nil {
		_ = u.irqs.TriggerInterrupt(u.name, u.rxIRQ)
	}
}
