/*
 * Copyright 2022 ByteDance Inc.
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

package gc

import (
    `fmt`

    `github.com/cloudwego/irgraph/ir`
    `github.com/cloudwego/irgraph/stamp`
)

// Requirement is the barrier a heap write needs.
type Requirement struct {
    Kind       ir.BarrierKind
    Precise    bool
    VerifyOnly bool
}

// Policy decides which heap writes need a barrier. It is supplied by the
// collector, the graph only represents the outcome.
type Policy interface {
    RequiresBarrier(store *ir.Node, g *ir.Graph) (Requirement, bool)
}

func isAlwaysNull(g *ir.Graph, id ir.ID) bool {
    v, ok := g.Stamp(id).(stamp.ObjectStamp)
    return ok && (v.IsAlwaysNull() || v.IsEmpty())
}

// writesObject reports whether the store writes a reference slot of an
// object that may exist. A store through a null receiver never completes.
func writesObject(store *ir.Node, g *ir.Graph) bool {
    return store.Access.Object && !isAlwaysNull(g, g.AddressBase(store.Input(0)))
}

// storesReference reports whether the store may write a non-null reference.
func storesReference(store *ir.Node, g *ir.Graph) bool {
    if !writesObject(store, g) {
        return false
    } else if v, ok := g.Stamp(store.Input(1)).(stamp.ObjectStamp); ok {
        return !v.IsAlwaysNull() && !v.IsEmpty()
    } else {
        return true
    }
}

// CardTablePolicy is the policy of a serial, generational collector that
// remembers old-to-young references with a card table. Only element stores
// know the exact slot, so only they get precise barriers.
type CardTablePolicy struct {
    VerifyOnly bool
}

func (self CardTablePolicy) RequiresBarrier(store *ir.Node, g *ir.Graph) (Requirement, bool) {
    if !storesReference(store, g) {
        return Requirement{}, false
    } else {
        return Requirement { Kind: ir.PostBarrier, Precise: store.Access.Array, VerifyOnly: self.VerifyOnly }, true
    }
}

// SnapshotPolicy is the policy of a concurrent marking collector that keeps
// a snapshot of the heap at the beginning of marking: the previous value of
// the location must be recorded before it is overwritten.
type SnapshotPolicy struct{}

func (SnapshotPolicy) RequiresBarrier(store *ir.Node, g *ir.Graph) (Requirement, bool) {
    if !writesObject(store, g) {
        return Requirement{}, false
    } else {
        return Requirement { Kind: ir.PreBarrier, Precise: true }, true
    }
}

// NoBarrierPolicy never requires a barrier, as with a non-generational
// stop-the-world collector.
type NoBarrierPolicy struct{}

func (NoBarrierPolicy) RequiresBarrier(*ir.Node, *ir.Graph) (Requirement, bool) {
    return Requirement{}, false
}

// PolicyByName returns one of the well-known policies.
func PolicyByName(name string) (Policy, error) {
    switch name {
        case "card"        : return CardTablePolicy{}, nil
        case "card-verify" : return CardTablePolicy { VerifyOnly: true }, nil
        case "snapshot"    : return SnapshotPolicy{}, nil
        case "none"        : return NoBarrierPolicy{}, nil
        default            : return nil, fmt.Errorf("gc: unknown barrier policy: %q", name)
    }
}
