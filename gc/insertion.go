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
    `sync/atomic`

    `github.com/cloudwego/irgraph/ir`
)

var (
    BarrierCount uint64 = 0
)

// State is the barrier state of a heap write site.
type State uint8

const (
    NotNeeded State = iota
    Required
    Inserted
)

func (self State) String() string {
    switch self {
        case NotNeeded : return "not-needed"
        case Required  : return "required"
        case Inserted  : return "inserted"
        default        : return "unknown"
    }
}

// Insertion inserts the barriers required by the policy around every store.
type Insertion struct {
    Policy Policy
}

// Site is the outcome of the insertion pass for one store.
type Site struct {
    Store   ir.ID
    Barrier ir.ID
    State   State
}

// Apply inserts the missing barriers and returns how many were inserted.
// Stores that are already guarded are left alone.
func (self Insertion) Apply(g *ir.Graph) int {
    ret := 0
    for _, s := range self.Sites(g) {
        if s.State == Required {
            self.insert(g, s)
            ret++
        }
    }

    /* update the statistics */
    atomic.AddUint64(&BarrierCount, uint64(ret))
    return ret
}

// Sites returns the state of every store in block order.
func (self Insertion) Sites(g *ir.Graph) []Site {
    var ret []Site
    for _, bb := range g.Blocks() {
        for _, p := range g.FixedNodes(bb) {
            if p.Kind == ir.KStore {
                ret = append(ret, self.site(g, p))
            }
        }
    }
    return ret
}

func (self Insertion) site(g *ir.Graph, store *ir.Node) Site {
    req, ok := self.Policy.RequiresBarrier(store, g)
    if !ok {
        return Site { Store: store.Id, Barrier: ir.None, State: NotNeeded }
    }

    /* pre-barriers go before the store, post-barriers after it */
    adj := store.Next()
    if req.Kind == ir.PreBarrier {
        adj = store.Prev()
    }

    /* check for an existing barrier */
    if adj != ir.None && matches(g, g.Node(adj), store, req) {
        return Site { Store: store.Id, Barrier: adj, State: Inserted }
    } else {
        return Site { Store: store.Id, Barrier: ir.None, State: Required }
    }
}

func matches(g *ir.Graph, p *ir.Node, store *ir.Node, req Requirement) bool {
    return p.Kind == ir.KWriteBarrier &&
           p.Barrier.Kind == req.Kind &&
           p.Barrier.Precise == req.Precise &&
           p.Barrier.VerifyOnly == req.VerifyOnly &&
           g.BarrierAddress(p.Id) == store.Input(0)
}

func (self Insertion) insert(g *ir.Graph, s Site) ir.ID {
    addr := g.Node(s.Store).Input(0)
    req, _ := self.Policy.RequiresBarrier(g.Node(s.Store), g)

    /* insert the barrier next to the store */
    switch {
        case req.Kind == ir.PreBarrier : return g.NewWriteBarrier(g.Node(s.Store).Prev(), ir.PreBarrier, addr, ir.None, req.Precise)
        case req.VerifyOnly            : return g.NewVerifyBarrier(s.Store, addr, req.Precise)
        default                        : return g.NewSerialWriteBarrier(s.Store, addr, req.Precise)
    }
}
