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

import "sync"

// maxRanges bounds the Address Map; a small, linearly scanned table is
// acceptable per the component design.
const maxRanges = 32

// AddressRange is one entry of the Address Map: a half-open [Start, End)
// range owned by exactly one plugin name, plus the guard region reserved
// for it.
type AddressRange struct {
	Start, End uint32
	Module     string
	guard      *guardRegion
}

// AddressMap is the table of register ranges each tagged with a plugin
// name. It is populated during initialization (add) and read without
// locking concerns during steady state (lookup); the mutex exists only to
// make Add safe to call from more than one goroutine during setup.
type AddressMap struct {
	mu     sync.RWMutex
	ranges []AddressRange
}

// NewAddressMap returns an empty Address Map.
func NewAddressMap() *AddressMap {
	return &AddressMap{}
}

// Add inserts a new range. start must be less than end, and the range must
// not overlap any range already present. Add records the range's guard
// region descriptor via reserveGuardRegion, which checks that start is
// page-aligned; if that reservation fails (as it always does on platforms
// other than linux/amd64), the range is not added. Add does not create the
// inaccessible mapping itself: installGuardRegions creates it later, inside
// the driver process.
func (m *AddressMap) Add(start, end uint32, module string) error {
	if start >= end {
		return newErr(ErrConfiguration, "AddressMap", "Add", start)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.ranges) >= maxRanges {
		return newErr(ErrConfiguration, "AddressMap", "Add", module)
	}
	for _, r := range m.ranges {
		if start < r.End && r.Start < end {
			return newErr(ErrConfiguration, "AddressMap", "Add", start)
		}
	}

	guard, err := reserveGuardRegion(uintptr(start), int(end-start))
	if err != nil {
		return wrapErr(ErrConfiguration, "AddressMap", "Add", start, err)
	}

	m.ranges = append(m.ranges, AddressRange{Start: start, End: end, Module: module, guard: guard})
	return nil
}

// Lookup returns the module owning addr, the range's base and length, and
// true if addr falls within a registered range.
func (m *AddressMap) Lookup(addr uint32) (module string, base, length uint32, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.ranges {
		if addr >= r.Start && addr < r.End {
			return r.Module, r.Start, r.End - r.Start, true
		}
	}
	return "", 0, 0, false
}

// Ranges returns a snapshot of the registered ranges, for diagnostics and
// tests. Mutating the returned slice has no effect on the map.
func (m *AddressMap) Ranges() []AddressRange {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]AddressRange, len(m.ranges))
	copy(out, m.ranges)
	return out
}

// releaseGuards tears down every guard region, in reverse registration
// order, mirroring the teacher's reverse-order Close().
func (m *AddressMap) releaseGuards() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.ranges) - 1; i >= 0; i-- {
		releaseGuardRegion(m.ranges[i].guard)
	}
}
