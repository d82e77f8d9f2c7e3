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

/*

Package simcore is a user-space MMIO peripheral simulator. A driver under
test maps a set of ordinary register ranges; reads and writes to those
ranges fault, are decoded, and are serviced by a small behavioural model of
the peripheral -- a plugin -- instead of real hardware.

The simulator owns four cooperating pieces: the Address Map, which tags
register ranges with the plugin that owns them and reserves a guard region
for each; the Plugin Registry and Plugin Host, which hold peripheral
instances and dispatch requests to them; the Interrupt Router and IRQ
Table, which deliver host-signal-borne interrupts back to the driver; and
the Trap Engine, which on linux/amd64 traces the driver process with
ptrace, decodes the faulting instruction, and resumes it with the plugin's
answer spliced into the register file.

Peripheral models live in subpackages (plugins/uart, plugins/dma) and
implement the Plugin interface; they're given only the narrow
InterruptTrigger and GuestMemory capabilities they need, not the whole
Simulator.

*/
package simcore
