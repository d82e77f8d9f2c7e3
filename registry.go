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

// maxPlugins bounds the plugin registry, mirroring the teacher's
// fixed-capacity, const-bounded tables (nUnits, nSignals in the PRU
// package).
const maxPlugins = 32

// Registry is a fixed-capacity, name-indexed collection of plugin
// instances. It is append-mostly: plugins are registered during
// initialization and looked up during steady state, so lookups take no
// lock beyond what's needed for the map read itself.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]Plugin
	order   []string // insertion order, for reverse-order cleanup
}

// NewRegistry returns an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Plugin)}
}

// RegisterPlugin inserts p by name and calls its Init. Returns a
// ConfigurationError if the registry is full or the name is already taken;
// a ProtocolViolation if Init itself fails.
func (r *Registry) RegisterPlugin(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.byName[name]; exists {
		return newErr(ErrConfiguration, "Registry", "RegisterPlugin", name)
	}
	if len(r.byName) >= maxPlugins {
		return newErr(ErrConfiguration, "Registry", "RegisterPlugin", name)
	}
	if err := p.Init(); err != nil {
		return wrapErr(ErrProtocolViolation, "Registry", "RegisterPlugin", name, err)
	}
	r.byName[name] = p
	r.order = append(r.order, name)
	return nil
}

// FindPlugin returns the registered plugin named name, if any.
func (r *Registry) FindPlugin(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	return p, ok
}

// CleanupAll calls Cleanup on every registered plugin in reverse
// insertion order. Plugin cleanup is best-effort: plugins do not return
// errors from Cleanup, so failures there can only be logged by the plugin
// itself.
func (r *Registry) CleanupAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.order) - 1; i >= 0; i-- {
		if p, ok := r.byName[r.order[i]]; ok {
			p.Cleanup()
		}
	}
	r.byName = make(map[string]Plugin)
	r.order = nil
}
