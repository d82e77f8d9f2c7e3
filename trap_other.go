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

//go:build !(linux && amd64)

package simcore

import "fmt"

// guardRegion, reserveGuardRegion and releaseGuardRegion have no realizable
// implementation outside linux/amd64: the trap engine's fault servicing
// depends on ptrace register-file access and the x86-64 decoder, both of
// which are architecture- and OS-specific (see the design notes on porting
// the instruction decoder to a different host ISA).
type guardRegion struct {
	start  uintptr
	length int
}

var errUnsupportedPlatform = fmt.Errorf("simcore: MMIO trap engine requires linux/amd64")

func reserveGuardRegion(addr uintptr, length int) (*guardRegion, error) {
	return nil, errUnsupportedPlatform
}

func releaseGuardRegion(*guardRegion) {}

// TracedDriver is the unsupported-platform stand-in; its methods all
// report errUnsupportedPlatform.
type TracedDriver struct{}

// Launch always fails on platforms other than linux/amd64.
func (t *TrapEngine) Launch(path string, args ...string) (*TracedDriver, error) {
	return nil, wrapErr(ErrConfiguration, "TrapEngine", "Launch", path, errUnsupportedPlatform)
}

func (td *TracedDriver) Run() error { return errUnsupportedPlatform }

func (td *TracedDriver) ReadAt(addr uint32, buf []byte) error { return errUnsupportedPlatform }

func (td *TracedDriver) WriteAt(addr uint32, buf []byte) error { return errUnsupportedPlatform }

// DriverMain is a no-op outside linux/amd64.
func DriverMain(sim *Simulator) error { return nil }
