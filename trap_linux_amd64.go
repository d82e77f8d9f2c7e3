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

//go:build linux && amd64

package simcore

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/drmorel/mmiosim/internal/decode"
	"github.com/drmorel/mmiosim/internal/simlog"
)

const pageSize = 4096

// guardRegion describes a host virtual-memory reservation covering a
// trapped register range. Reservation is two-phase, matching the fact that
// the Address Map is typically populated before any driver process
// exists: reserveGuardRegion (called from AddressMap.Add) only validates
// and records the descriptor; installGuardRegions performs the real mmap,
// and runs inside the traced driver process itself, before driver code
// executes, so the inaccessible pages land in the process whose pointer
// literals must fault.
type guardRegion struct {
	start  uintptr
	length int
}

func reserveGuardRegion(addr uintptr, length int) (*guardRegion, error) {
	if addr%pageSize != 0 {
		return nil, fmt.Errorf("guard region start 0x%x is not page-aligned", addr)
	}
	if length <= 0 {
		return nil, fmt.Errorf("guard region length must be positive")
	}
	return &guardRegion{start: addr, length: length}, nil
}

func releaseGuardRegion(*guardRegion) {
	// The mapping lives in the driver process and is torn down when that
	// process exits; there is nothing to release here.
}

// installGuardRegions reserves every range of m as PROT_NONE, MAP_FIXED
// memory in the calling process. DriverMain calls this before handing
// control to driver code.
func installGuardRegions(m *AddressMap) error {
	for _, r := range m.Ranges() {
		length := int(r.End - r.Start)
		_, _, errno := syscall.Syscall6(
			syscall.SYS_MMAP,
			uintptr(r.Start),
			uintptr(length),
			syscall.PROT_NONE,
			syscall.MAP_FIXED|syscall.MAP_PRIVATE|syscall.MAP_ANON,
			^uintptr(0),
			0,
		)
		if errno != 0 {
			return fmt.Errorf("installGuardRegions: mmap 0x%x/%d: %v", r.Start, length, errno)
		}
	}
	return nil
}

// driverTraceEnv marks a re-exec'd child as the traced driver process.
// DriverMain checks for it; ordinary invocations of the same binary never
// set it and run unaffected.
const driverTraceEnv = "MMIOSIM_TRACE_CHILD=1"

// TracedDriver is a driver process under the trap engine's control.
type TracedDriver struct {
	engine *TrapEngine
	cmd    *exec.Cmd
	pid    int
	memFD  *os.File
}

// Launch starts path (re-executing the calling binary with the trace
// marker set, by convention) under ptrace, waits for the tracee's initial
// stop at exec, opens its /proc/<pid>/mem and resumes it. The SIGSTOP that
// DriverMain raises once its guard regions are installed arrives later and
// is forwarded by Run like any other non-SIGSEGV stop; callers should
// follow Launch with (*TracedDriver).Run to service faults until the
// driver exits.
func (t *TrapEngine) Launch(path string, args ...string) (*TracedDriver, error) {
	cmd := exec.Command(path, args...)
	cmd.Env = append(os.Environ(), driverTraceEnv)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: true}

	if err := cmd.Start(); err != nil {
		return nil, wrapErr(ErrConfiguration, "TrapEngine", "Launch", path, err)
	}
	pid := cmd.Process.Pid

	var ws unix.WaitStatus
	if _, err := unix.Wait4(pid, &ws, 0, nil); err != nil {
		return nil, wrapErr(ErrConfiguration, "TrapEngine", "Launch", pid, err)
	}

	memFD, err := os.OpenFile(fmt.Sprintf("/proc/%d/mem", pid), os.O_RDWR, 0)
	if err != nil {
		return nil, wrapErr(ErrConfiguration, "TrapEngine", "Launch", pid, err)
	}

	if err := unix.PtraceCont(pid, 0); err != nil {
		memFD.Close()
		return nil, wrapErr(ErrConfiguration, "TrapEngine", "Launch", pid, err)
	}

	return &TracedDriver{engine: t, cmd: cmd, pid: pid, memFD: memFD}, nil
}

// ReadAt implements GuestMemory by reading the traced process's ordinary
// memory through /proc/<pid>/mem.
func (td *TracedDriver) ReadAt(addr uint32, buf []byte) error {
	_, err := td.memFD.ReadAt(buf, int64(addr))
	return err
}

// WriteAt implements GuestMemory, symmetric with ReadAt.
func (td *TracedDriver) WriteAt(addr uint32, buf []byte) error {
	_, err := td.memFD.WriteAt(buf, int64(addr))
	return err
}

// Run services faults until the driver process exits, stops for an
// unrelated signal (forwarded unchanged), or a fatal condition is hit. A
// fault during fault handling -- a SIGSEGV arriving while this goroutine
// is itself inside handleSegv -- cannot happen: the tracee stays stopped
// for the whole of handleSegv, by construction of ptrace-stop semantics.
func (td *TracedDriver) Run() error {
	defer td.memFD.Close()

	for {
		var ws unix.WaitStatus
		_, err := unix.Wait4(td.pid, &ws, 0, nil)
		if err != nil {
			return err
		}
		if ws.Exited() {
			return nil
		}
		if ws.Signaled() {
			return fmt.Errorf("driver process killed by signal %s", ws.Signal())
		}
		if !ws.Stopped() {
			continue
		}

		sig := ws.StopSignal()
		if sig != unix.SIGSEGV {
			// Not our concern: pass it through untouched.
			_ = unix.PtraceCont(td.pid, int(sig))
			continue
		}

		if err := td.handleSegv(); err != nil {
			_ = unix.PtraceKill(td.pid)
			return err
		}
	}
}

// handleSegv implements on_fault (§4.1): decode the faulting instruction,
// classify it, dispatch to the Plugin Host, write the result back, and
// advance the instruction pointer past the instruction.
func (td *TracedDriver) handleSegv() error {
	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(td.pid, &regs); err != nil {
		return fmt.Errorf("PtraceGetRegs: %w", err)
	}

	insn := make([]byte, 6)
	n, _ := td.memFD.ReadAt(insn, int64(regs.Rip))
	insn = insn[:n]

	acc, err := decode.Decode(insn)
	if err != nil {
		// Documented fallback: log and continue as if the access were a
		// read of 0. The destination register cannot be reliably
		// identified for an encoding we failed to classify, so none is
		// written; only the instruction pointer advances, by the
		// shortest recognized instruction length.
		simlog.Diagnostic("TrapEngine", "decode", fmt.Sprintf("% x", insn), "unrecognized opcode, read-of-zero fallback")
		regs.Rip += 2
		if err := unix.PtraceSetRegs(td.pid, &regs); err != nil {
			return fmt.Errorf("PtraceSetRegs: %w", err)
		}
		return unix.PtraceCont(td.pid, 0)
	}

	addr := uint32(getReg(&regs, acc.Base))

	var kind RequestKind
	var value uint32
	if acc.Kind == decode.Read {
		kind = KindRead
	} else {
		kind = KindWrite
		if acc.HasImm {
			value = acc.Imm
		} else {
			value = uint32(getReg(&regs, acc.Reg))
		}
	}

	resp, ok := td.engine.Service(addr, kind, value)
	if !ok {
		return fmt.Errorf("fatal fault at 0x%x: %v", addr, resp.Err)
	}

	if acc.Kind == decode.Read {
		setReg(&regs, acc.Reg, uint64(resp.Value))
	}
	regs.Rip += uint64(acc.Len)

	if err := unix.PtraceSetRegs(td.pid, &regs); err != nil {
		return fmt.Errorf("PtraceSetRegs: %w", err)
	}
	return unix.PtraceCont(td.pid, 0)
}

// getReg and setReg map a decode.Reg (the conventional x86 ModRM register
// order) onto the corresponding 64-bit field of the traced thread's
// general-purpose register file, truncating to the low 32 bits the way a
// 32-bit mov instruction does.
func getReg(regs *unix.PtraceRegs, r decode.Reg) uint64 {
	switch r {
	case decode.AX:
		return regs.Rax
	case decode.CX:
		return regs.Rcx
	case decode.DX:
		return regs.Rdx
	case decode.BX:
		return regs.Rbx
	case decode.SP:
		return regs.Rsp
	case decode.BP:
		return regs.Rbp
	case decode.SI:
		return regs.Rsi
	case decode.DI:
		return regs.Rdi
	default:
		return 0
	}
}

func setReg(regs *unix.PtraceRegs, r decode.Reg, v uint64) {
	switch r {
	case decode.AX:
		regs.Rax = v
	case decode.CX:
		regs.Rcx = v
	case decode.DX:
		regs.Rdx = v
	case decode.BX:
		regs.Rbx = v
	case decode.SP:
		regs.Rsp = v
	case decode.BP:
		regs.Rbp = v
	case decode.SI:
		regs.Rsi = v
	case decode.DI:
		regs.Rdi = v
	}
}

// DriverMain is called by a driver binary's own main(), using the same
// Config the simulator process built its Simulator from. In an ordinary
// invocation it is a no-op; under Launch's re-exec, it installs the guard
// regions in this (the driver's) address space and stops the process so
// the tracer can take over fault servicing before any trapped pointer is
// dereferenced.
func DriverMain(sim *Simulator) error {
	if os.Getenv("MMIOSIM_TRACE_CHILD") == "" {
		return nil
	}
	if err := installGuardRegions(sim.AddrMap); err != nil {
		return err
	}
	return unix.Kill(os.Getpid(), unix.SIGSTOP)
}
