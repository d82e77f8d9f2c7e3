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

// Package simlog provides the structured logging used across the simulator
// core. It wraps log/slog the way elsie's internal/log package does: a
// package-scoped default logger plus small helpers for the one-line,
// component/operation/value diagnostics the error taxonomy requires.
package simlog

import (
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	current = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
)

// Default returns the process-wide logger. Components call this rather than
// holding their own *slog.Logger so a single SetDefault rewires every
// diagnostic at once.
func Default() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return current
}

// SetDefault overrides the default logger, e.g. to raise verbosity or direct
// output at a test's own buffer.
func SetDefault(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	current = l
}

// Diagnostic emits the one-line "component, operation, offending value,
// outcome" diagnostic required of every error condition in the error
// taxonomy.
func Diagnostic(component, op string, value any, outcome string) {
	Default().Warn("diagnostic", "component", component, "op", op, "value", value, "outcome", outcome)
}

// Fatal emits a diagnostic at error level for conditions the trap engine
// cannot recover from. It does not itself terminate the process; the caller
// decides how to abort.
func Fatal(component, op string, value any, outcome string) {
	Default().Error("diagnostic", "component", component, "op", op, "value", value, "outcome", outcome)
}
