/*
 * Copyright 2022 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package debug

import (
	"sync/atomic"

	"github.com/cloudwego/irgraph/canon"
	"github.com/cloudwego/irgraph/gc"
	"github.com/cloudwego/irgraph/lower"
)

// A Stats records statistics about the graph engine.
type Stats struct {
	Canon   CanonStats
	Barrier BarrierStats
	Lower   LowerStats
}

// A CanonStats records statistics about the canonicalizer.
type CanonStats struct {
	Runs     int
	Rewrites int
}

// A BarrierStats records statistics about barrier insertion.
type BarrierStats struct {
	Inserted int
}

// A LowerStats records statistics about the lowering stage.
type LowerStats struct {
	Units int
	Ops   int
}

// GetStats returns statistics of the graph engine.
func GetStats() Stats {
	return Stats{
		Canon: CanonStats{
			Runs:     int(atomic.LoadUint64(&canon.RunCount)),
			Rewrites: int(atomic.LoadUint64(&canon.RewriteCount)),
		},
		Barrier: BarrierStats{
			Inserted: int(atomic.LoadUint64(&gc.BarrierCount)),
		},
		Lower: LowerStats{
			Units: int(atomic.LoadUint64(&lower.UnitCount)),
			Ops:   int(atomic.LoadUint64(&lower.OpCount)),
		},
	}
}
