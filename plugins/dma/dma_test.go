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

package dma

import (
	"sync"
	"testing"
	"time"

	"github.com/drmorel/mmiosim"
)

type fakeTrigger struct {
	mu    sync.Mutex
	calls []uint32
}

func (f *fakeTrigger) TriggerInterrupt(module string, irq uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, irq)
	return nil
}

func (f *fakeTrigger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func channelBase(inst, ch int) uint32 {
	d := New(inst, nil, nil)
	return d.base + channelWindowOff + uint32(ch)*channelWindowLen
}

func TestMemToMemTransferCompletes(t *testing.T) {
	mem := simcore.NewFakeMemory(256)
	for i := 0; i < 16; i++ {
		mem[i] = byte(i)
	}

	trig := &fakeTrigger{}
	d := New(0, trig, mem, WithTickPeriod(time.Millisecond))

	cb := channelBase(0, 0)
	d.Write(cb+chSrc, 0)
	d.Write(cb+chDst, 128)
	d.Write(cb+chSize, 16)
	d.Write(cb+chConfig, configIRQEnable)
	d.Write(cb+chCtrl, ctrlEnable)

	d.Clock(simcore.ClockEnable, 0)
	defer d.Clock(simcore.ClockDisable, 0)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if d.Read(cb+chCtrl)&ctrlDone != 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if d.Read(cb+chCtrl)&ctrlDone == 0 {
		t.Fatal("channel never completed")
	}
	for i := 0; i < 16; i++ {
		if mem[128+i] != byte(i) {
			t.Fatalf("dst[%d] = %d, want %d", i, mem[128+i], i)
		}
	}
	if got := trig.count(); got != 1 {
		t.Fatalf("interrupt count = %d, want 1", got)
	}
}

func TestEnableWithZeroSizeDefaults(t *testing.T) {
	d := New(0, nil, simcore.NewFakeMemory(4096))
	cb := channelBase(0, 1)
	d.Write(cb+chSize, 0)
	d.Write(cb+chCtrl, ctrlEnable)

	if got := d.Read(cb + chSize); got != defaultSize {
		t.Fatalf("size after enable-with-zero = %d, want %d", got, defaultSize)
	}
}

func TestTickSumEqualsInitialSize(t *testing.T) {
	mem := simcore.NewFakeMemory(4096)
	d := New(0, nil, mem)
	cb := channelBase(0, 2)
	d.Write(cb+chSrc, 0)
	d.Write(cb+chDst, 2048)
	d.Write(cb+chSize, 1200)
	d.Write(cb+chCtrl, ctrlEnable)

	for i := 0; i < 10 && d.Read(cb+chCtrl)&ctrlDone == 0; i++ {
		d.Clock(simcore.Tick, 1)
	}

	if got := d.Read(cb + chCtrl); got&ctrlDone == 0 {
		t.Fatal("channel did not complete within expected ticks")
	}
	if got := d.Read(cb + chSize); got != 0 {
		t.Fatalf("size after completion = %d, want 0", got)
	}
}

func TestGlobalControlIRQClear(t *testing.T) {
	d := New(0, nil, nil)
	d.Write(d.base+offGlobalCtrl, globalEnable)
	if got := d.Read(d.base + offGlobalCtrl); got != globalEnable {
		t.Fatalf("global ctrl = %#x, want %#x", got, globalEnable)
	}

	d.mu.Lock()
	d.irqStatus = 0x3
	d.mu.Unlock()
	d.Write(d.base+offIRQClear, 0x1)
	if got := d.Read(d.base + offIRQStatus); got != 0x2 {
		t.Fatalf("irq status after clear = %#x, want 0x2", got)
	}
}
