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

// addressMapping and signalMapping are the two kinds of entries a Config
// accumulates before NewSimulator validates and wires them into the
// Address Map and Signal Map.
type addressMapping struct {
	start, end uint32
	module     string
}

type signalMapping struct {
	signal int
	module string
	irq    uint32
}

// Config contains the register ranges and signal bindings a Simulator is
// built from. A configuration is built up through chained methods, e.g.:
//
//	cfg := NewConfig()
//	cfg.Map(0x40002000, 0x40002050, "uart0").Bind(34, "uart0", 5)
//	sim, err := NewSimulator(cfg)
type Config struct {
	addresses []addressMapping
	signals   []signalMapping
}

// DefaultConfig is an empty configuration; driver code typically builds its
// own rather than relying on this one, since register ranges and signal
// bindings are inherently application-specific. It exists so callers that
// want to start from a known-empty base and append to it have one, the way
// DefaultConfig works in the PRU package this is adapted from.
var DefaultConfig *Config

func init() {
	DefaultConfig = NewConfig()
}

// NewConfig returns an empty Config.
func NewConfig() *Config {
	c := new(Config)
	c.Clear()
	return c
}

// Clear empties the Config for reuse.
func (c *Config) Clear() *Config {
	c.addresses = nil
	c.signals = nil
	return c
}

// Map records a register range to be added to the Address Map. Ranges must
// not overlap; NewSimulator reports overlaps as a ConfigurationError.
func (c *Config) Map(start, end uint32, module string) *Config {
	c.addresses = append(c.addresses, addressMapping{start, end, module})
	return c
}

// Bind records a signal-to-IRQ binding to be added to the Signal Map.
func (c *Config) Bind(sig int, module string, irq uint32) *Config {
	c.signals = append(c.signals, signalMapping{sig, module, irq})
	return c
}
