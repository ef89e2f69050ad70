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
    `github.com/oleiade/lane`

    `github.com/cloudwego/irgraph/stamp`
)

// Stamp returns the current stamp of a node.
func (self *Graph) Stamp(id ID) stamp.Stamp {
    return self.live(id, id).st
}

// UpdateStamp narrows the stamp of a node to the meet of its current stamp
// and s. It returns whether the stamp changed.
func (self *Graph) UpdateStamp(id ID, s stamp.Stamp) bool {
    p := self.live(id, id)
    ns := p.st.Meet(s)

    /* mixing kinds is a bug in the producer of the graph */
    if !stamp.IsLegal(ns) {
        self.Fatalf(id, "illegal stamp: %s meets %s", p.st, s)
    }

    /* stamps never widen */
    if ns.Equal(p.st) {
        return false
    }

    /* update the stamp */
    p.st = ns
    self.version++

    /* notify the watcher if any */
    if self.watcher != nil {
        self.watcher.StampChanged(id)
    }
    return true
}

// InferStamp recomputes the stamp of a node from its inputs and narrows the
// current one with it. It returns whether the stamp changed.
func (self *Graph) InferStamp(id ID) bool {
    p := self.live(id, id)
    return self.UpdateStamp(id, p.Info().Infer(self, p))
}

// InferAll runs stamp inference over the whole graph until a fixed point is
// reached, and returns the number of stamps that changed.
func (self *Graph) InferAll() int {
    ret := 0
    q := lane.NewQueue()
    inq := make(map[ID]struct{}, len(self.nodes))

    /* start with every node */
    for _, p := range self.nodes {
        if !p.dead {
            q.Enqueue(p.Id)
            inq[p.Id] = struct{}{}
        }
    }

    /* propagate changes to the usages */
    for !q.Empty() {
        id := q.Dequeue().(ID)
        delete(inq, id)

        /* skip the node if it's unchanged */
        if !self.IsAlive(id) || !self.InferStamp(id) {
            continue
        }

        /* add all the usages */
        ret++
        for _, u := range self.nodes[id].usages {
            if _, ok := inq[u]; !ok {
                q.Enqueue(u)
                inq[u] = struct{}{}
            }
        }
    }
    return ret
}

func inferSelf(_ *Graph, n *Node) stamp.Stamp {
    return n.st
}

func inferVoid(_ *Graph, _ *Node) stamp.Stamp {
    return stamp.Void()
}

func inferBinary(g *Graph, n *Node) stamp.Stamp {
    return stamp.Fold(n.Info().Op, g.Stamp(n.inputs[0]), g.Stamp(n.inputs[1]))
}

func inferUnary(g *Graph, n *Node) stamp.Stamp {
    return stamp.FoldUnary(n.Info().Op, g.Stamp(n.inputs[0]))
}

func inferPhi(g *Graph, n *Node) stamp.Stamp {
    var ret stamp.Stamp = stamp.Bottom()
    for _, v := range n.inputs {
        if v != n.Id {
            ret = ret.Join(g.Stamp(v))
        }
    }
    return ret
}

func inferAddress(g *Graph, n *Node) stamp.Stamp {
    for _, v := range n.inputs {
        if v != None && g.Stamp(v).IsEmpty() {
            return stamp.EmptyInt(64)
        }
    }
    return stamp.Word()
}
