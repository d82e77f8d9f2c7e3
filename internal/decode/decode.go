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

// Package decode implements the minimal x86-64 instruction decoder the trap
// engine needs to turn a faulting load or store into a register-indirect
// MMIO access. Per the design notes, the supported opcode set is narrow and
// explicit; anything else is reported as ErrUnsupported so the caller can
// apply the documented read-of-zero fallback rather than guess.
//
// Only register-indirect addressing with no displacement and no SIB byte is
// recognized (ModRM.mod == 0, ModRM.rm not 4 or 5), matching "plain integer
// loads/stores to the trapped region" in the non-goals.
package decode

import (
	"encoding/binary"
	"errors"
)

// Kind classifies a decoded access.
type Kind int

const (
	// Read is a 32-bit load from [reg] into reg.
	Read Kind = iota
	// Write is a 32-bit store of a register or immediate to [reg].
	Write
)

func (k Kind) String() string {
	if k == Read {
		return "Read"
	}
	return "Write"
}

// Reg identifies a general-purpose register by its 3-bit ModRM encoding,
// in the conventional x86 order.
type Reg int

const (
	AX Reg = iota
	CX
	DX
	BX
	SP
	BP
	SI
	DI
)

// ErrUnsupported is returned for any opcode outside the minimal set this
// decoder recognizes. Callers apply the documented fallback: log and treat
// as a Read of 0.
var ErrUnsupported = errors.New("decode: unsupported instruction")

// ErrTruncated is returned when the supplied bytes are too short to contain
// the instruction the leading opcode byte promises.
var ErrTruncated = errors.New("decode: truncated instruction")

// Access is the result of decoding one trapped instruction.
type Access struct {
	Kind Kind
	// Base is the ModRM.rm register holding the memory operand's address
	// -- the faulting virtual address is this register's current value,
	// since every recognized encoding addresses memory as [Base] with no
	// displacement or scale.
	Base Reg
	// Reg is the destination register for a Read, or the source register
	// for a register-to-memory Write. Unused (zero value AX) when HasImm.
	Reg Reg
	// HasImm is true when the instruction is a store-immediate; Imm then
	// holds the embedded 32-bit immediate and Reg is meaningless.
	HasImm bool
	Imm    uint32
	// Len is the instruction's length in bytes, i.e. how far to advance
	// the trapped thread's instruction pointer.
	Len int
}

// Decode recognizes exactly three opcodes:
//
//	8B /r        mov r32, [r/m32]   (2 bytes)  -> Read
//	89 /r        mov [r/m32], r32   (2 bytes)  -> Write, register source
//	C7 /0 id     mov [r/m32], imm32 (6 bytes)  -> Write, immediate source
//
// All three require ModRM.mod == 0 and a base register that does not need a
// SIB byte or a disp32 (r/m != 4, r/m != 5). Any other encoding, including
// a recognized opcode with an unsupported ModRM, returns ErrUnsupported.
func Decode(insn []byte) (*Access, error) {
	if len(insn) < 2 {
		return nil, ErrTruncated
	}
	op := insn[0]
	modrm := insn[1]
	mod := modrm >> 6
	regField := Reg((modrm >> 3) & 7)
	rm := modrm & 7

	if mod != 0 || rm == 4 || rm == 5 {
		return nil, ErrUnsupported
	}

	base := Reg(rm)

	switch op {
	case 0x8B:
		return &Access{Kind: Read, Base: base, Reg: regField, Len: 2}, nil
	case 0x89:
		return &Access{Kind: Write, Base: base, Reg: regField, Len: 2}, nil
	case 0xC7:
		if regField != AX { // the /0 extension field, not a register
			return nil, ErrUnsupported
		}
		if len(insn) < 6 {
			return nil, ErrTruncated
		}
		imm := binary.LittleEndian.Uint32(insn[2:6])
		return &Access{Kind: Write, Base: base, HasImm: true, Imm: imm, Len: 6}, nil
	default:
		return nil, ErrUnsupported
	}
}
