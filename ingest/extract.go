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
package ingest

import (
	"sort"

	"github.com/penny-vault/pvsec/provider"
	"github.com/shopspring/decimal"
)

// LatestValue returns the most recent value reported for a fact. tags are
// tried in order and the first one with at least one point in unit is used;
// its point with the greatest end date wins (points without an end date
// sort first, ties keep their reported order). NULL when no tag matches.
func LatestValue(ns provider.FactNamespace, tags []string, unit string) decimal.NullDecimal {
	for _, tag := range tags {
		fact, ok := ns[tag]
		if !ok || fact == nil {
			continue
		}

		points := fact.Units[unit]
		if len(points) == 0 {
			continue
		}

		sorted := make([]*provider.FactPoint, len(points))
		copy(sorted, points)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].End < sorted[j].End
		})

		return decimal.NewNullDecimal(sorted[len(sorted)-1].Val)
	}

	return decimal.NullDecimal{}
}
