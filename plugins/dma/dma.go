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

// Package dma implements the DMA exemplar peripheral model: 16 independent
// channels, each moving bytes between two addresses in guest memory a
// bounded chunk per worker tick. Register naming follows the bitfield
// conventions of the BCM283x DMA controller (global control/status plus a
// per-channel control/status/src/dst/size/config window), pared down to
// the subset this simulator models.
package dma

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drmorel/mmiosim"
	"github.com/drmorel/mmiosim/internal/baseaddr"
	"github.com/drmorel/mmiosim/internal/simlog"
)

const (
	numChannels = 16

	// Global register offsets.
	offGlobalCtrl    = 0x00
	offGlobalStatus  = 0x04
	offIRQStatus     = 0x08
	offIRQClear      = 0x0C
	channelWindowOff = 0x100
	channelWindowLen = 0x20

	// Per-channel register offsets, relative to the channel's window.
	chSrc    = 0x00
	chDst    = 0x04
	chSize   = 0x08
	chCtrl   = 0x0C
	chConfig = 0x10

	ctrlEnable = 1 << 0
	ctrlDone   = 1 << 1

	configIRQEnable = 1 << 0

	globalEnable = 1 << 0

	// defaultSize is the simulator convenience substituted when a channel is
	// enabled with size == 0.
	defaultSize = 1024

	// perTickChunk bounds how many bytes one worker tick moves for a single
	// active channel.
	perTickChunk = 512

	// DefaultBaseIRQ is the IRQ number channel 0's completion interrupt maps
	// to; channel i uses DefaultBaseIRQ+i.
	DefaultBaseIRQ = 10
)

type channel struct {
	src, dst, size, ctrl, config uint32
}

// DMA is the plugin instance for one DMA controller instance.
type DMA struct {
	name     string
	instance int
	base     uint32

	irqs    simcore.InterruptTrigger
	mem     simcore.GuestMemory
	baseIRQ uint32
	ticker  time.Duration

	mu          sync.Mutex
	channels    [numChannels]channel
	globalCtrl  uint32
	irqStatus   uint32
	running     atomic.Bool
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// Option configures a DMA instance at construction.
type Option func(*DMA)

// WithBaseIRQ overrides the IRQ number channel 0 maps to.
func WithBaseIRQ(irq uint32) Option {
	return func(d *DMA) { d.baseIRQ = irq }
}

// WithTickPeriod overrides the worker's transfer cadence.
func WithTickPeriod(p time.Duration) Option {
	return func(d *DMA) { d.ticker = p }
}

// New returns a DMA plugin for the given instance index, moving bytes
// through mem and raising completion interrupts through irqs.
func New(instance int, irqs simcore.InterruptTrigger, mem simcore.GuestMemory, opts ...Option) *DMA {
	d := &DMA{
		name:     instanceName(instance),
		instance: instance,
		base:     baseaddr.Instance(baseaddr.DMABase, instance),
		irqs:     irqs,
		mem:      mem,
		baseIRQ:  DefaultBaseIRQ,
		ticker:   10 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func instanceName(instance int) string {
	return "dma" + strconv.Itoa(instance)
}

// Name implements simcore.Plugin.
func (d *DMA) Name() string { return d.name }

// Init implements simcore.Plugin.
func (d *DMA) Init() error { return nil }

// Cleanup implements simcore.Plugin.
func (d *DMA) Cleanup() { d.stopWorker() }

// Reset implements simcore.Plugin.
func (d *DMA) Reset(mode simcore.ResetMode) error {
	if mode != simcore.Assert {
		return nil
	}
	d.stopWorker()
	d.mu.Lock()
	d.channels = [numChannels]channel{}
	d.globalCtrl = 0
	d.irqStatus = 0
	d.mu.Unlock()
	return nil
}

// Clock implements simcore.Plugin. Tick advances every active channel by
// one transfer step synchronously, independent of the background worker.
func (d *DMA) Clock(op simcore.ClockOp, cycles uint32) error {
	switch op {
	case simcore.Tick:
		for i := uint32(0); i < cycles; i++ {
			d.tick()
		}
	case simcore.ClockEnable:
		d.startWorker()
	case simcore.ClockDisable:
		d.stopWorker()
	}
	return nil
}

// Read implements simcore.Plugin.
func (d *DMA) Read(addr uint32) uint32 {
	off := addr - d.base
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case off == offGlobalCtrl:
		return d.globalCtrl
	case off == offGlobalStatus:
		return d.globalStatusLocked()
	case off == offIRQStatus:
		return d.irqStatus
	case off == offIRQClear:
		return 0
	case off >= channelWindowOff:
		ch, reg, ok := d.decodeChannelOffset(off)
		if !ok {
			simlog.Diagnostic(d.name, "Read", addr, "unmapped channel offset, returning 0")
			return 0
		}
		return d.readChannelLocked(ch, reg)
	default:
		simlog.Diagnostic(d.name, "Read", addr, "unmapped offset, returning 0")
		return 0
	}
}

// Write implements simcore.Plugin.
func (d *DMA) Write(addr uint32, value uint32) error {
	off := addr - d.base

	switch {
	case off == offGlobalCtrl:
		d.mu.Lock()
		prev := d.globalCtrl
		d.globalCtrl = value & globalEnable
		d.mu.Unlock()
		if value&globalEnable != 0 && prev&globalEnable == 0 {
			d.startWorker()
		} else if value&globalEnable == 0 && prev&globalEnable != 0 {
			d.stopWorker()
		}
		return nil
	case off == offGlobalStatus:
		simlog.Diagnostic(d.name, "Write", addr, "write to read-only status register ignored")
		return nil
	case off == offIRQStatus:
		simlog.Diagnostic(d.name, "Write", addr, "write to read-only IRQ status register ignored")
		return nil
	case off == offIRQClear:
		d.mu.Lock()
		d.irqStatus &^= value
		d.mu.Unlock()
		return nil
	case off >= channelWindowOff:
		ch, reg, ok := d.decodeChannelOffset(off)
		if !ok {
			simlog.Diagnostic(d.name, "Write", addr, "unmapped channel offset ignored")
			return nil
		}
		return d.writeChannel(ch, reg, value)
	default:
		simlog.Diagnostic(d.name, "Write", addr, "unmapped offset ignored")
		return nil
	}
}

// Interrupt implements simcore.Plugin; the DMA exemplar never receives
// interrupts directed at itself.
func (d *DMA) Interrupt(irq uint32) error { return nil }

func (d *DMA) decodeChannelOffset(off uint32) (ch int, reg uint32, ok bool) {
	rel := off - channelWindowOff
	idx := rel / channelWindowLen
	if idx >= numChannels {
		return 0, 0, false
	}
	return int(idx), rel % channelWindowLen, true
}

func (d *DMA) readChannelLocked(ch int, reg uint32) uint32 {
	c := &d.channels[ch]
	switch reg {
	case chSrc:
		return c.src
	case chDst:
		return c.dst
	case chSize:
		return c.size
	case chCtrl:
		return c.ctrl
	case chConfig:
		return c.config
	default:
		return 0
	}
}

func (d *DMA) writeChannel(ch int, reg uint32, value uint32) error {
	d.mu.Lock()
	c := &d.channels[ch]
	switch reg {
	case chSrc:
		c.src = value
	case chDst:
		c.dst = value
	case chSize:
		c.size = value
	case chConfig:
		c.config = value
	case chCtrl:
		prevEnabled := c.ctrl&ctrlEnable != 0
		nowEnabled := value&ctrlEnable != 0
		c.ctrl = value & (ctrlEnable | ctrlDone)
		if nowEnabled && !prevEnabled {
			if c.size == 0 {
				c.size = defaultSize
			}
			c.ctrl &^= ctrlDone
		}
	default:
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()
	return nil
}

func (d *DMA) globalStatusLocked() uint32 {
	var status uint32
	for i := range d.channels {
		if d.channels[i].ctrl&ctrlEnable != 0 {
			status |= 1 << uint(i)
		}
	}
	return status
}

func (d *DMA) startWorker() {
	if d.running.Swap(true) {
		return
	}
	d.stopCh = make(chan struct{})
	d.stopOnce = sync.Once{}
	go d.workerLoop(d.stopCh)
}

func (d *DMA) stopWorker() {
	if !d.running.Swap(false) {
		return
	}
	d.stopOnce.Do(func() { close(d.stopCh) })
}

func (d *DMA) workerLoop(stop chan struct{}) {
	t := time.NewTicker(d.ticker)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			d.tick()
		}
	}
}

// tick advances every active channel by one transfer step: move
// min(size, perTickChunk) bytes from src to dst, advance both pointers,
// decrement size, and on completion clear enable, set done, and raise the
// channel's completion interrupt if its config has interrupt-enable set.
func (d *DMA) tick() {
	for i := range d.channels {
		d.tickChannel(i)
	}
}

func (d *DMA) tickChannel(i int) {
	d.mu.Lock()
	c := &d.channels[i]
	if c.ctrl&ctrlEnable == 0 {
		d.mu.Unlock()
		return
	}
	n := c.size
	if n > perTickChunk {
		n = perTickChunk
	}
	src, dst := c.src, c.dst
	d.mu.Unlock()

	if n > 0 && d.mem != nil {
		buf := make([]byte, n)
		if err := d.mem.ReadAt(src, buf); err != nil {
			simlog.Diagnostic(d.name, "tick", i, "source read failed: "+err.Error())
			return
		}
		if err := d.mem.WriteAt(dst, buf); err != nil {
			simlog.Diagnostic(d.name, "tick", i, "destination write failed: "+err.Error())
			return
		}
	}

	d.mu.Lock()
	c.src += n
	c.dst += n
	c.size -= n
	done := c.size == 0
	irqEnabled := c.config&configIRQEnable != 0
	if done {
		c.ctrl &^= ctrlEnable
		c.ctrl |= ctrlDone
		d.irqStatus |= 1 << uint(i)
	}
	d.mu.Unlock()

	if done && irqEnabled && d.irqs != nil {
		_ = d.irqs.TriggerInterrupt(d.name, d.baseIRQ+uint32(i))
	}
}
