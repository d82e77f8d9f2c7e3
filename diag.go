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

import "github.com/drmorel/mmiosim/internal/simlog"

// diagnosticf is a package-local shorthand for the one-line, non-fatal
// diagnostics §7 requires of every recoverable error condition.
func diagnosticf(component, op string, value any, outcome string) {
	simlog.Diagnostic(component, op, value, outcome)
}
