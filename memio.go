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

import "io"

// FakeMemory is an in-process GuestMemory backed by a plain byte slice. It
// lets plugin tests exercise ReadAt/WriteAt (and therefore DMA transfers)
// without a real traced driver process behind them.
type FakeMemory []byte

// NewFakeMemory returns a zero-filled FakeMemory of the given size.
func NewFakeMemory(size int) FakeMemory {
	return make(FakeMemory, size)
}

// ReadAt copies len(buf) bytes starting at addr into buf. Returns io.EOF if
// the read would run past the end of the backing slice.
func (m FakeMemory) ReadAt(addr uint32, buf []byte) error {
	if int(addr)+len(buf) > len(m) {
		return io.EOF
	}
	copy(buf, m[addr:])
	return nil
}

// WriteAt copies buf into the backing slice starting at addr. Returns
// io.EOF if the write would run past the end of the backing slice.
func (m FakeMemory) WriteAt(addr uint32, buf []byte) error {
	if int(addr)+len(buf) > len(m) {
		return io.EOF
	}
	copy(m[addr:], buf)
	return nil
}
