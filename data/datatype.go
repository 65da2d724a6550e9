// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package data

import (
	"time"
)

const (
	FilingSyncRoutine     = "filing-sync"
	FactEnrichmentRoutine = "fact-enrichment"
	MacroSyncRoutine      = "macro-sync"
)

// RunSummary records the outcome of one synchronization routine
type RunSummary struct {
	Routine   string
	StartTime time.Time
	EndTime   time.Time

	// Entities is the number of tracked entities (or macro series) visited
	Entities int

	// Skipped counts entities whose remote source was unavailable
	Skipped int

	// Written counts rows inserted or replaced
	Written int
}

// Degraded is true when at least one remote request was skipped
func (summary RunSummary) Degraded() bool {
	return summary.Skipped > 0
}

// Duration returns the wall-clock time the routine took
func (summary RunSummary) Duration() time.Duration {
	return summary.EndTime.Sub(summary.StartTime)
}
