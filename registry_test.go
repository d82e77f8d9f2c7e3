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

import "testing"

type stubPlugin struct {
	name        string
	initErr     error
	cleanupHits *[]string
}

func (p *stubPlugin) Name() string { return p.name }
func (p *stubPlugin) Init() error  { return p.initErr }
func (p *stubPlugin) Cleanup() {
	if p.cleanupHits != nil {
		*p.cleanupHits = append(*p.cleanupHits, p.name)
	}
}
func (p *stubPlugin) Reset(ResetMode) error      { return nil }
func (p *stubPlugin) Clock(ClockOp, uint32) error { return nil }
func (p *stubPlugin) Read(uint32) uint32          { return 0 }
func (p *stubPlugin) Write(uint32, uint32) error  { return nil }
func (p *stubPlugin) Interrupt(uint32) error      { return nil }

var _ Plugin = (*stubPlugin)(nil)

func TestRegistryFindRoundTrip(t *testing.T) {
	r := NewRegistry()
	p := &stubPlugin{name: "uart0"}
	if err := r.RegisterPlugin(p); err != nil {
		t.Fatalf("RegisterPlugin: %v", err)
	}
	got, ok := r.FindPlugin("uart0")
	if !ok || got != Plugin(p) {
		t.Fatalf("FindPlugin = (%v, %v), want (%v, true)", got, ok, p)
	}
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	r := NewRegistry()
	_ = r.RegisterPlugin(&stubPlugin{name: "uart0"})
	err := r.RegisterPlugin(&stubPlugin{name: "uart0"})
	if CodeOf(err) != ErrConfiguration {
		t.Fatalf("RegisterPlugin(dup) = %v, want ConfigurationError", err)
	}
}

func TestRegistryInitFailurePropagates(t *testing.T) {
	r := NewRegistry()
	err := r.RegisterPlugin(&stubPlugin{name: "bad", initErr: errTestInit})
	if CodeOf(err) != ErrProtocolViolation {
		t.Fatalf("RegisterPlugin(failing Init) = %v, want ProtocolViolation", err)
	}
}

func TestCleanupAllReverseOrder(t *testing.T) {
	r := NewRegistry()
	var hits []string
	_ = r.RegisterPlugin(&stubPlugin{name: "a", cleanupHits: &hits})
	_ = r.RegisterPlugin(&stubPlugin{name: "b", cleanupHits: &hits})
	r.CleanupAll()
	if len(hits) != 2 || hits[0] != "b" || hits[1] != "a" {
		t.Fatalf("CleanupAll order = %v, want [b a]", hits)
	}
}

var errTestInit = &SimError{Code: ErrProtocolViolation, Component: "stub", Op: "Init", Value: "bad"}
