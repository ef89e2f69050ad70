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

package canon

import (
    `log/slog`
    `sync/atomic`

    `github.com/oleiade/lane`

    `github.com/cloudwego/irgraph/internal/opts`
    `github.com/cloudwego/irgraph/ir`
)

var (
    RewriteCount uint64 = 0
    RunCount     uint64 = 0
)

// Canonicalizer rewrites a graph into canonical form by applying the rule
// of each node kind until no rule fires anymore.
type Canonicalizer struct {
    MaxIterations int
}

// New creates a canonicalizer with the process-wide iteration limit.
func New() Canonicalizer {
    return Canonicalizer { MaxIterations: opts.MaxCanonIterations }
}

type _WorkList struct {
    g *ir.Graph
    q *lane.Queue
    s map[ir.ID]struct{}
}

func newWorkList(g *ir.Graph) *_WorkList {
    return &_WorkList {
        g: g,
        q: lane.NewQueue(),
        s: make(map[ir.ID]struct{}),
    }
}

func (self *_WorkList) add(id ir.ID) {
    if id != ir.None {
        if _, ok := self.s[id]; !ok {
            self.s[id] = struct{}{}
            self.q.Enqueue(id)
        }
    }
}

func (self *_WorkList) pop() ir.ID {
    id := self.q.Dequeue().(ir.ID)
    delete(self.s, id)
    return id
}

func (self *_WorkList) empty() bool {
    return self.q.Empty()
}

func (self *_WorkList) addMergeable() bool {
    ret := false
    for _, bb := range self.g.Blocks() {
        if self.g.CanMergeInto(bb) {
            ret = true
            self.add(bb.Tail)
        }
    }
    return ret
}

func (self *_WorkList) NodeAdded(id ir.ID) {
    self.add(id)
}

func (self *_WorkList) InputChanged(user ir.ID, old ir.ID, new ir.ID) {
    self.add(user)
    self.add(old)
    self.add(new)
}

func (self *_WorkList) StampChanged(id ir.ID) {
    for _, u := range self.g.Node(id).Usages() {
        self.add(u)
    }
}

// Apply canonicalizes the whole graph and returns the number of rewrites.
func (self Canonicalizer) Apply(g *ir.Graph) int {
    var ids []ir.ID
    for _, p := range g.Nodes() {
        ids = append(ids, p.Id)
    }
    return self.ApplyTo(g, ids)
}

// ApplyTo canonicalizes the graph starting from the dirty nodes, and
// returns the number of rewrites.
func (self Canonicalizer) ApplyTo(g *ir.Graph, dirty []ir.ID) int {
    nb := 0
    nr := 0
    wl := newWorkList(g)
    op := opts.Options { MaxCanonIterations: self.MaxIterations }

    /* watch the graph while rewriting */
    old := g.Watch(wl)
    defer g.Watch(old)

    /* start with the dirty nodes */
    for _, id := range dirty {
        wl.add(id)
    }

    /* drain the work list, then drop the blocks that became unreachable */
    for {
        for !wl.empty() {
            if !op.CanIterate(nb) {
                g.Fatalf(wl.pop(), "canonicalization did not terminate after %d iterations", self.MaxIterations)
            }

            /* rewrite the node */
            if nb++; wl.rewrite(wl.pop()) {
                nr++
            }
        }

        /* stop when no block can be removed or merged anymore */
        if g.RemoveUnreachable() != 0 {
            nr++
        } else if !wl.addMergeable() {
            break
        }
    }

    /* update the statistics */
    atomic.AddUint64(&RunCount, 1)
    atomic.AddUint64(&RewriteCount, uint64(nr))
    slog.Debug("canonicalized", "unit", g.Unit, "iterations", nb, "rewrites", nr)
    return nr
}

func (self *_WorkList) rewrite(id ir.ID) bool {
    g := self.g
    if !g.IsAlive(id) || id == g.Dead() {
        return false
    }

    /* narrow the stamp first, the rules depend on it */
    p := g.Node(id)
    g.InferStamp(id)

    /* unused values are removed */
    if p.IsFloating() && !p.HasUsages() && p.Kind != ir.KParam {
        g.Kill(id)
        return true
    }

    /* the block may change under the rule */
    bb := p.Block()
    r := p.Info().Canonical(g, p)

    /* the rule may have removed the node by itself */
    if r == id && g.IsAlive(id) {
        return false
    } else if g.IsAlive(id) {
        g.ReplaceAtUsages(id, r)
        g.Kill(id)
    }

    /* the end of the block may be simplified further */
    if bb != nil && bb.IsAlive() && bb.IsClosed() {
        self.add(bb.Tail)
    }
    return true
}
