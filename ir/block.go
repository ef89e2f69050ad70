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
    `golang.org/x/exp/slices`

    `github.com/cloudwego/irgraph/stamp`
)

// Block is a basic block: a chain of fixed nodes starting with a head node
// (Start, Begin or Merge) and ending with a terminal once closed.
type Block struct {
    Id    int
    Head  ID
    Tail  ID
    Preds []*Block
    Succs []*Block
    Phis  []ID
    dead  bool
}

func (self *Block) IsAlive() bool {
    return !self.dead
}

// IsClosed reports whether the block already ends with a terminal.
func (self *Block) IsClosed() bool {
    return self.Tail != None
}

func (self *Block) removePhi(id ID) {
    if i := slices.Index(self.Phis, id); i >= 0 {
        self.Phis = slices.Delete(self.Phis, i, i + 1)
    }
}

func (self *Block) predIndex(p *Block) int {
    for i, v := range self.Preds {
        if v == p {
            return i
        }
    }
    return -1
}

func (self *Graph) newBlock(head Kind) *Block {
    ret := &Block {
        Id   : len(self.blocks),
        Tail : None,
    }

    /* create the head node */
    p := self.alloc(head, stamp.Void(), nil)
    p.block = ret
    ret.Head = p.Id
    self.blocks = append(self.blocks, ret)
    return ret
}

// Start returns the entry block of the graph.
func (self *Graph) Start() *Block {
    return self.start
}

// NewBlock creates a block with a single predecessor.
func (self *Graph) NewBlock() *Block {
    return self.newBlock(KBegin)
}

// NewMerge creates a block where control flow from several blocks joins.
func (self *Graph) NewMerge() *Block {
    return self.newBlock(KMerge)
}

// Block returns the block with the given index.
func (self *Graph) Block(id int) *Block {
    return self.blocks[id]
}

// Blocks returns the live blocks in creation order.
func (self *Graph) Blocks() []*Block {
    ret := make([]*Block, 0, len(self.blocks))
    for _, bb := range self.blocks {
        if !bb.dead {
            ret = append(ret, bb)
        }
    }
    return ret
}

// FixedNodes returns the fixed nodes of the block in program order, from
// the head to the terminal.
func (self *Graph) FixedNodes(bb *Block) []*Node {
    var ret []*Node
    for id := bb.Head; id != None; id = self.nodes[id].next {
        ret = append(ret, self.nodes[id])
    }
    return ret
}

func (self *Graph) last(bb *Block) ID {
    id := bb.Head
    for self.nodes[id].next != None {
        id = self.nodes[id].next
    }
    return id
}

func (self *Graph) link(after *Node, p *Node) {
    p.block = after.block
    p.prev = after.Id
    p.next = after.next

    /* fix the back link */
    if p.next != None {
        self.nodes[p.next].prev = p.Id
    }

    /* fix the forward link */
    after.next = p.Id
    self.version++
}

func (self *Graph) unlink(p *Node) {
    if p.prev != None {
        self.nodes[p.prev].next = p.next
    }

    /* fix the back link */
    if p.next != None {
        self.nodes[p.next].prev = p.prev
    }

    /* terminals leave the block open */
    if p.block != nil && p.block.Tail == p.Id {
        p.block.Tail = None
    }

    /* detach from the chain */
    p.prev = None
    p.next = None
    self.version++
}

// Append adds a fixed node to the end of an open block.
func (self *Graph) Append(bb *Block, kind Kind, st stamp.Stamp, inputs ...ID) ID {
    if bb.IsClosed() {
        self.Fatalf(bb.Tail, "appending %s to a closed block", kind)
    }
    return self.AddFixed(self.last(bb), kind, st, inputs...)
}

// AddFixed inserts a fixed node right after another fixed node.
func (self *Graph) AddFixed(after ID, kind Kind, st stamp.Stamp, inputs ...ID) ID {
    p := self.live(after, after)
    info := kind.Info()

    /* check the placement */
    if !p.IsFixed() || p.IsTerminal() {
        self.Fatalf(after, "cannot insert %s after %s", kind, p.Kind)
    } else if info.Placement != Fixed || kind.IsBlockHead() {
        self.failf(kind, "%s is not an insertable fixed node", kind)
    }

    /* create and link the node */
    ret := self.alloc(kind, st, inputs)
    self.link(p, ret)
    return ret.Id
}

// Load reads a heap location through an address.
func (self *Graph) Load(after ID, addr ID, access Access) ID {
    id := self.AddFixed(after, KLoad, access.Stamp(), addr)
    self.nodes[id].Access = access
    return id
}

// Store writes a value to a heap location through an address.
func (self *Graph) Store(after ID, addr ID, value ID, access Access) ID {
    id := self.AddFixed(after, KStore, stamp.Void(), addr, value)
    self.nodes[id].Access = access
    return id
}

func (self *Graph) terminate(bb *Block, kind Kind, inputs []ID, succs []*Block) ID {
    if bb.dead {
        self.Fatalf(bb.Head, "terminating a deleted block")
    } else if bb.IsClosed() {
        self.Fatalf(bb.Tail, "block is already closed")
    }

    /* create and link the terminal */
    p := self.alloc(kind, stamp.Void(), inputs)
    self.link(self.nodes[self.last(bb)], p)
    bb.Tail = p.Id
    bb.Succs = append([]*Block(nil), succs...)

    /* add the reverse edges */
    for _, s := range succs {
        s.Preds = append(s.Preds, bb)
    }
    return p.Id
}

// Goto closes the block with an unconditional jump.
func (self *Graph) Goto(bb *Block, to *Block) ID {
    if to == self.start {
        self.Fatalf(bb.Head, "jumping to the start block")
    }
    return self.terminate(bb, KGoto, nil, []*Block { to })
}

// If closes the block with a two-way branch. Both targets must be fresh
// Begin blocks so that no critical edge exists.
func (self *Graph) If(bb *Block, cond ID, t *Block, f *Block) ID {
    for _, s := range [...]*Block { t, f } {
        if self.nodes[s.Head].Kind != KBegin || len(s.Preds) != 0 {
            self.Fatalf(s.Head, "branch target must be a fresh begin block")
        }
    }

    /* both targets must be distinct */
    if t == f {
        self.Fatalf(t.Head, "branch targets must be distinct")
    }
    return self.terminate(bb, KIf, []ID { cond }, []*Block { t, f })
}

// Return closes the block by returning from the unit. The value may be None.
func (self *Graph) Return(bb *Block, v ID) ID {
    if v == None {
        return self.terminate(bb, KReturn, nil, nil)
    } else {
        return self.terminate(bb, KReturn, []ID { v }, nil)
    }
}

// Unreachable closes a block that can never complete.
func (self *Graph) Unreachable(bb *Block) ID {
    return self.terminate(bb, KUnreachable, nil, nil)
}

func (self *Graph) replaceTerminal(bb *Block, kind Kind, inputs []ID) ID {
    p := self.live(bb.Tail, bb.Tail)
    succs := bb.Succs

    /* remove the old terminal, the successor edges are fixed by the caller */
    self.unlink(p)
    self.release(p)

    /* create the new one */
    q := self.alloc(kind, stamp.Void(), inputs)
    self.link(self.nodes[self.last(bb)], q)
    bb.Tail = q.Id
    bb.Succs = succs
    return q.Id
}

func (self *Graph) removeEdge(from *Block, to *Block) {
    i := to.predIndex(from)
    j := slices.Index(from.Succs, to)

    /* the edge must exist in both directions */
    if i < 0 || j < 0 {
        self.Fatalf(to.Head, "no edge from block %d to block %d", from.Id, to.Id)
    }

    /* remove the edge and the corresponding phi inputs */
    to.Preds = slices.Delete(to.Preds, i, i + 1)
    from.Succs = slices.Delete(from.Succs, j, j + 1)
    self.version++

    /* the phi inputs are ordered like the predecessors */
    for _, v := range to.Phis {
        self.removeInput(v, i)
    }

    /* blocks without predecessors are unreachable */
    if len(to.Preds) == 0 && to != self.start {
        self.killBlock(to)
    }
}

func (self *Graph) killBlock(bb *Block) {
    var fixed []*Node
    bb.dead = true

    /* collect the chain */
    for id := bb.Head; id != None; id = self.nodes[id].next {
        fixed = append(fixed, self.nodes[id])
    }

    /* values defined here can never exist */
    for _, v := range bb.Phis {
        self.ReplaceAtUsages(v, self.dead)
    }
    for _, p := range fixed {
        self.ReplaceAtUsages(p.Id, self.dead)
    }

    /* release the phis and the chain */
    for _, v := range bb.Phis {
        self.release(self.nodes[v])
    }
    for _, p := range fixed {
        p.prev, p.next = None, None
        self.release(p)
    }

    /* cut the successor edges */
    bb.Phis = nil
    bb.Tail = None
    for len(bb.Succs) != 0 {
        self.removeEdge(bb, bb.Succs[0])
    }
}

// FoldIf turns a branch with a known outcome into a jump to the taken
// successor and removes the other edge.
func (self *Graph) FoldIf(id ID, taken bool) ID {
    p := self.live(id, id)
    if p.Kind != KIf {
        self.Fatalf(id, "not a branch")
    }

    /* pick the successors */
    bb := p.block
    keep, drop := bb.Succs[0], bb.Succs[1]
    if !taken {
        keep, drop = drop, keep
    }

    /* jump to the taken one */
    ret := self.replaceTerminal(bb, KGoto, nil)
    self.removeEdge(bb, drop)

    /* only the taken edge is left, unless the block itself died with the other one */
    if bb.IsAlive() && (len(bb.Succs) != 1 || bb.Succs[0] != keep) {
        self.Fatalf(ret, "inconsistent successors after folding a branch")
    }
    return ret
}

// MakeUnreachable cuts the block just before the node: the node and every
// fixed node after it are removed, and the block ends with Unreachable.
func (self *Graph) MakeUnreachable(id ID) ID {
    var cut []*Node
    p := self.live(id, id)

    /* block heads cannot be cut */
    if !p.IsFixed() || p.Kind.IsBlockHead() {
        self.Fatalf(id, "cannot cut the block at %s", p.Kind)
    }

    /* collect the tail of the chain */
    bb := p.block
    for v := id; v != None; v = self.nodes[v].next {
        cut = append(cut, self.nodes[v])
    }

    /* values defined there can never exist */
    for _, q := range cut {
        self.ReplaceAtUsages(q.Id, self.dead)
    }

    /* detach the tail of the chain */
    self.nodes[p.prev].next = None
    bb.Tail = None

    /* release the nodes */
    for _, q := range cut {
        q.prev, q.next = None, None
        self.release(q)
    }

    /* close the block and drop the successors */
    succs := bb.Succs
    bb.Succs = nil
    ret := self.terminate(bb, KUnreachable, nil, nil)

    /* restore the edges so they can be removed consistently */
    bb.Succs = succs
    for len(bb.Succs) != 0 {
        self.removeEdge(bb, bb.Succs[0])
    }
    return ret
}

// CanMergeInto reports whether the block ends with a jump that can be
// replaced by the body of its target.
func (self *Graph) CanMergeInto(bb *Block) bool {
    if !bb.IsClosed() || self.nodes[bb.Tail].Kind != KGoto || len(bb.Succs) != 1 {
        return false
    }

    /* the target must be only reachable from here */
    to := bb.Succs[0]
    return to != bb && to != self.start && len(to.Preds) == 1 && len(to.Phis) == 0
}

// MergeInto replaces the jump at the end of the block with the body of its
// only successor, which is deleted.
func (self *Graph) MergeInto(bb *Block) {
    if !self.CanMergeInto(bb) {
        self.Fatalf(bb.Tail, "block %d cannot absorb its successor", bb.Id)
    }

    /* remove the jump */
    to := bb.Succs[0]
    jmp := self.nodes[bb.Tail]
    self.unlink(jmp)
    self.release(jmp)

    /* move the body */
    head := self.nodes[to.Head]
    tail := self.last(bb)
    for id := head.next; id != None; id = self.nodes[id].next {
        self.nodes[id].block = bb
    }

    /* splice the chain */
    if head.next != None {
        self.nodes[tail].next = head.next
        self.nodes[head.next].prev = tail
    }

    /* the target's successors now follow this block */
    bb.Tail = to.Tail
    bb.Succs = to.Succs
    for _, s := range to.Succs {
        s.Preds[s.predIndex(to)] = bb
    }

    /* delete the target */
    head.next = None
    to.dead = true
    to.Preds = nil
    to.Succs = nil
    to.Tail = None
    self.release(head)
}

// RemoveUnreachable deletes every block the start block cannot reach,
// including unreachable cycles, and returns how many were deleted.
func (self *Graph) RemoveUnreachable() int {
    var rem []*Block
    vis := make(map[*Block]struct{})

    /* mark the reachable blocks */
    for _, bb := range self.ReversePostOrder() {
        vis[bb] = struct{}{}
    }

    /* find the unreachable ones */
    for _, bb := range self.blocks {
        if _, ok := vis[bb]; !ok && !bb.dead {
            rem = append(rem, bb)
        }
    }

    /* cut all the edges leaving unreachable blocks */
    for _, bb := range rem {
        for !bb.dead && len(bb.Succs) != 0 {
            self.removeEdge(bb, bb.Succs[0])
        }
    }

    /* whatever is left has no edges at all */
    for _, bb := range rem {
        if !bb.dead {
            self.killBlock(bb)
        }
    }
    return len(rem)
}

// ReversePostOrder returns the blocks reachable from the start block in
// reverse post order.
func (self *Graph) ReversePostOrder() []*Block {
    var ret []*Block
    st := lane.NewStack()
    vis := map[int]struct{} { self.start.Id: {} }

    /* iterative depth-first search */
    st.Push(self.start)
    for !st.Empty() {
        tail := true
        this := st.Head().(*Block)

        /* visit the first unvisited successor */
        for _, p := range this.Succs {
            if _, ok := vis[p.Id]; !ok {
                tail = false
                vis[p.Id] = struct{}{}
                st.Push(p)
                break
            }
        }

        /* all the successors are visited */
        if tail {
            ret = append(ret, st.Pop().(*Block))
        }
    }

    /* reverse the post order */
    for i, j := 0, len(ret) - 1; i < j; i, j = i + 1, j - 1 {
        ret[i], ret[j] = ret[j], ret[i]
    }
    return ret
}
