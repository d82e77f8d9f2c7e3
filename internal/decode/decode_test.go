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

package decode

import "testing"

// Golden table of cases, in the style of elsie's assembler gold tests: one
// row per recognized (or deliberately unrecognized) encoding.
func TestDecodeGold(t *testing.T) {
	cases := []struct {
		name    string
		insn    []byte
		want    *Access
		wantErr error
	}{
		{
			name: "load eax from [ecx]",
			insn: []byte{0x8B, 0x01}, // mod=00 reg=000(AX) rm=001(CX)
			want: &Access{Kind: Read, Base: CX, Reg: AX, Len: 2},
		},
		{
			name: "store ebx to [edx]",
			insn: []byte{0x89, 0x1A}, // mod=00 reg=011(BX) rm=010(DX)
			want: &Access{Kind: Write, Base: DX, Reg: BX, Len: 2},
		},
		{
			name: "store immediate to [esi]",
			insn: []byte{0xC7, 0x06, 0x78, 0x56, 0x34, 0x12}, // mod=00 reg=000 rm=110(SI)
			want: &Access{Kind: Write, Base: SI, HasImm: true, Imm: 0x12345678, Len: 6},
		},
		{
			name:    "sib addressing unsupported",
			insn:    []byte{0x8B, 0x04, 0x00}, // rm=100 (SIB escape)
			wantErr: ErrUnsupported,
		},
		{
			name:    "disp32 base unsupported",
			insn:    []byte{0x8B, 0x05, 0, 0, 0, 0}, // mod=00 rm=101 (disp32 escape)
			wantErr: ErrUnsupported,
		},
		{
			name:    "unknown opcode",
			insn:    []byte{0xFF, 0x00},
			wantErr: ErrUnsupported,
		},
		{
			name:    "truncated",
			insn:    []byte{0x8B},
			wantErr: ErrTruncated,
		},
		{
			name:    "store immediate truncated",
			insn:    []byte{0xC7, 0x00, 0x01, 0x02},
			wantErr: ErrTruncated,
		},
		{
			name:    "store immediate extension field not zero",
			insn:    []byte{0xC7, 0x08, 0, 0, 0, 0}, // reg field = 001
			wantErr: ErrUnsupported,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Decode(c.insn)
			if c.wantErr != nil {
				if err != c.wantErr {
					t.Fatalf("Decode() err = %v, want %v", err, c.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() unexpected err: %v", err)
			}
			if *got != *c.want {
				t.Fatalf("Decode() = %+v, want %+v", got, c.want)
			}
		})
	}
}
