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

package ir

import (
    `fmt`

    `gonum.org/v1/gonum/graph/simple`
    `gonum.org/v1/gonum/graph/topo`
)

func (self *Graph) errorf(id ID, format string, args ...interface{}) error {
    kind := KDead
    if id != None {
        kind = self.nodes[id].Kind
    }

    /* same shape as the fatal errors */
    return &InternalError {
        Unit   : self.Unit,
        Node   : id,
        Kind   : kind,
        Reason : fmt.Sprintf(format, args...),
    }
}

// Verify checks the structural invariants of the graph: symmetric edges,
// well formed fixed chains and control flow, and acyclic data dependencies
// apart from the ones through phis.
func (self *Graph) Verify() error {
    if err := self.verifyEdges(); err != nil {
        return err
    } else if err = self.verifyBlocks(); err != nil {
        return err
    } else {
        return self.verifyAcyclic()
    }
}

func count(ids []ID, id ID) int {
    ret := 0
    for _, v := range ids {
        if v == id {
            ret++
        }
    }
    return ret
}

func (self *Graph) verifyEdges() error {
    for _, p := range self.nodes {
        if p.dead {
            if len(p.usages) != 0 {
                return self.errorf(p.Id, "deleted node still has %d usages", len(p.usages))
            }
            continue
        }

        /* every input lists this node as a usage, once per edge */
        for _, v := range p.inputs {
            if v == None {
                continue
            } else if !self.IsAlive(v) {
                return self.errorf(p.Id, "input %s is deleted", v)
            } else if n, m := count(p.inputs, v), count(self.nodes[v].usages, p.Id); n != m {
                return self.errorf(p.Id, "input %s has %d edges but %d usages", v, n, m)
            }
        }

        /* every usage lists this node as an input */
        for _, u := range p.usages {
            if !self.IsAlive(u) {
                return self.errorf(p.Id, "usage %s is deleted", u)
            } else if count(self.nodes[u].inputs, p.Id) == 0 {
                return self.errorf(p.Id, "usage %s does not use it", u)
            }
        }
    }
    return nil
}

func (self *Graph) verifyBlocks() error {
    seen := make(map[ID]struct{})
    for _, bb := range self.Blocks() {
        var last *Node
        head := self.nodes[bb.Head]

        /* the chain starts with a head node */
        if head.dead || !head.Kind.IsBlockHead() || head.prev != None {
            return self.errorf(bb.Head, "block %d has an invalid head", bb.Id)
        }

        /* walk the chain */
        for id := bb.Head; id != None; id = self.nodes[id].next {
            p := self.nodes[id]
            seen[id] = struct{}{}

            /* check the links */
            if p.dead || p.block != bb || !p.IsFixed() {
                return self.errorf(id, "invalid fixed node in block %d", bb.Id)
            } else if last != nil && p.prev != last.Id {
                return self.errorf(id, "broken back link in block %d", bb.Id)
            } else if last != nil && p.Kind.IsBlockHead() {
                return self.errorf(id, "block head in the middle of block %d", bb.Id)
            } else if p.IsTerminal() && p.next != None {
                return self.errorf(id, "terminal in the middle of block %d", bb.Id)
            }
            last = p
        }

        /* the chain ends with the terminal */
        if !last.IsTerminal() || bb.Tail != last.Id {
            return self.errorf(last.Id, "block %d is not closed", bb.Id)
        }

        /* the control flow edges are symmetric */
        for _, s := range bb.Succs {
            if s.dead || count2(s.Preds, bb) != count2(bb.Succs, s) {
                return self.errorf(bb.Tail, "edge from block %d to block %d is asymmetric", bb.Id, s.Id)
            }
        }

        /* and so are the reverse edges */
        for _, s := range bb.Preds {
            if s.dead || count2(s.Succs, bb) == 0 {
                return self.errorf(bb.Head, "predecessor %d of block %d does not jump here", s.Id, bb.Id)
            }
        }

        /* successors of a branch are begin blocks with this block as the only predecessor */
        if last.Kind == KIf {
            for _, s := range bb.Succs {
                if self.nodes[s.Head].Kind != KBegin || len(s.Preds) != 1 {
                    return self.errorf(bb.Tail, "critical edge from block %d to block %d", bb.Id, s.Id)
                }
            }
        }

        /* each phi has one input per predecessor */
        for _, v := range bb.Phis {
            if n := len(self.nodes[v].inputs); n != len(bb.Preds) {
                return self.errorf(v, "phi has %d inputs but block %d has %d predecessors", n, bb.Id, len(bb.Preds))
            }
        }
    }

    /* no fixed node is left outside of a chain */
    for _, p := range self.nodes {
        if _, ok := seen[p.Id]; !ok && !p.dead && p.IsFixed() {
            return self.errorf(p.Id, "fixed node outside of any block")
        }
    }
    return nil
}

func count2(bbs []*Block, bb *Block) int {
    ret := 0
    for _, v := range bbs {
        if v == bb {
            ret++
        }
    }
    return ret
}

func (self *Graph) verifyAcyclic() error {
    dg := simple.NewDirectedGraph()
    for _, p := range self.nodes {
        if !p.dead {
            dg.AddNode(simple.Node(p.Id))
        }
    }

    /* data edges, phis may close loops */
    for _, p := range self.nodes {
        if p.dead || p.Kind == KPhi {
            continue
        }

        /* add the edges from the inputs */
        for _, v := range p.inputs {
            if v == p.Id {
                return self.errorf(p.Id, "node uses itself")
            } else if v != None {
                dg.SetEdge(dg.NewEdge(dg.Node(int64(v)), dg.Node(int64(p.Id))))
            }
        }
    }

    /* a topological order exists only without cycles */
    if _, err := topo.Sort(dg); err != nil {
        return self.errorf(None, "cyclic data dependency: %v", err)
    } else {
        return nil
    }
}
