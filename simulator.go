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

// Simulator ties together the Address Map, Plugin Registry, Plugin Host,
// Interrupt Router and Trap Engine into the single handle driver code and
// plugin constructors are given. It implements InterruptTrigger so plugins
// can be handed just the Simulator (or a narrower view of it) to raise
// interrupts without reaching back into the Router directly.
type Simulator struct {
	AddrMap  *AddressMap
	Registry *Registry
	Host     *PluginHost
	Router   *InterruptRouter
	Trap     *TrapEngine
}

// NewSimulator builds a Simulator from cfg: it allocates the Address Map,
// Plugin Registry, Plugin Host, IRQ Table, Interrupt Router and Trap Engine,
// then applies every Map and Bind entry in cfg in order. A failure partway
// through leaves no guard regions installed for ranges that weren't reached;
// the caller should treat any error from NewSimulator as fatal to the
// configuration attempt and not retry with the same Config.
func NewSimulator(cfg *Config) (*Simulator, error) {
	if cfg == nil {
		cfg = NewConfig()
	}

	sim := &Simulator{
		AddrMap:  NewAddressMap(),
		Registry: NewRegistry(),
	}
	sim.Host = NewPluginHost(sim.Registry)
	sim.Router = NewInterruptRouter(NewIRQTable())
	sim.Trap = newTrapEngine(sim)

	for _, m := range cfg.addresses {
		if err := sim.AddrMap.Add(m.start, m.end, m.module); err != nil {
			return nil, err
		}
	}
	for _, s := range cfg.signals {
		if err := sim.Router.AddSignalBinding(s.signal, s.module, s.irq); err != nil {
			return nil, err
		}
	}

	return sim, nil
}

// Cleanup tears the simulator down: every registered plugin's Cleanup is
// called in reverse registration order, every guard region is released, and
// the interrupt router stops listening for host signals. Cleanup is
// idempotent with respect to the plugins it calls, but calling it more than
// once on the same Simulator is not itself supported -- build a new one for
// a fresh run.
func (s *Simulator) Cleanup() {
	s.Registry.CleanupAll()
	s.AddrMap.releaseGuards()
	s.Router.Stop()
}

// AddRegisterMapping adds a register range to the Address Map after the
// simulator has already been constructed, for callers that register plugins
// and their ranges dynamically rather than up front in a Config.
func (s *Simulator) AddRegisterMapping(start, end uint32, module string) error {
	return s.AddrMap.Add(start, end, module)
}

// AddSignalMapping binds an OS signal to a (module, irq) pair after
// construction, for the same dynamic-registration case as
// AddRegisterMapping.
func (s *Simulator) AddSignalMapping(sig int, module string, irq uint32) error {
	return s.Router.AddSignalBinding(sig, module, irq)
}

// RegisterInterruptHandler installs h as irq's handler.
func (s *Simulator) RegisterInterruptHandler(irq uint32, h IRQHandler) error {
	return s.Router.RegisterInterruptHandler(irq, h)
}

// EnableInterrupt enables delivery of irq.
func (s *Simulator) EnableInterrupt(irq uint32) error {
	return s.Router.EnableInterrupt(irq)
}

// DisableInterrupt disables delivery of irq without unregistering its
// handler.
func (s *Simulator) DisableInterrupt(irq uint32) error {
	return s.Router.DisableInterrupt(irq)
}

// TriggerInterrupt raises irq on behalf of module, satisfying the
// InterruptTrigger capability plugins are constructed with.
func (s *Simulator) TriggerInterrupt(module string, irq uint32) error {
	return s.Router.Trigger(module, irq)
}

// RegisterPlugin adds p to the Plugin Registry, calling its Init.
func (s *Simulator) RegisterPlugin(p Plugin) error {
	return s.Registry.RegisterPlugin(p)
}

// FindPlugin returns the plugin registered under name, if any.
func (s *Simulator) FindPlugin(name string) (Plugin, bool) {
	return s.Registry.FindPlugin(name)
}

// NewWaiter returns a blocking waiter for irq, registered against this
// simulator's IRQ table.
func (s *Simulator) NewWaiter(irq uint32) *IRQWaiter {
	return NewWaiter(s.Router.irqs, irq)
}
