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

// Package baseaddr computes the per-instance register window addresses used
// by the exemplar plugins, per the address plan in the specification:
// peripheral base at 0x40000000, with each instance of a peripheral class
// occupying a distinct 4 KiB window starting at a class-specific base.
package baseaddr

const (
	// Peripheral is the base of the whole MMIO region.
	Peripheral = 0x40000000

	// UARTBase is the address of uart0; uartN is UARTBase + n*Window.
	UARTBase = 0x40002000

	// DMABase is the address of dma0; dmaN is DMABase + n*Window.
	DMABase = 0x40006000

	// Window is the size of one peripheral instance's register window.
	Window = 0x1000
)

// Instance returns the base address of the instance-th window of a
// peripheral class whose first instance starts at classBase.
func Instance(classBase uint32, instance int) uint32 {
	return classBase + uint32(instance)*Window
}
