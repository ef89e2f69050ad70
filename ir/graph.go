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
    `github.com/cloudwego/irgraph/stamp`
)

// Watcher observes graph mutations. The canonicalizer uses it to find the
// nodes touched by a rewrite.
type Watcher interface {
    NodeAdded(id ID)
    InputChanged(user ID, old ID, new ID)
    StampChanged(id ID)
}

type _ConstKey struct {
    obj  bool
    bits uint8
    val  int64
}

// Graph owns every node of one compilation unit.
type Graph struct {
    Unit    string
    nodes   []*Node
    blocks  []*Block
    start   *Block
    dead    ID
    version uint64
    consts  map[_ConstKey]ID
    watcher Watcher
}

// New creates an empty graph with a start block.
func New(unit string) *Graph {
    ret := &Graph {
        Unit   : unit,
        consts : make(map[_ConstKey]ID),
    }

    /* the dead node and the start block always exist */
    ret.dead = ret.alloc(KDead, stamp.Bottom(), nil).Id
    ret.start = ret.newBlock(KStart)
    return ret
}

// Dead returns the singleton node that replaces values that can never exist.
func (self *Graph) Dead() ID {
    return self.dead
}

// Version is bumped on every mutation of the graph.
func (self *Graph) Version() uint64 {
    return self.version
}

// Watch installs a mutation watcher and returns the previous one.
func (self *Graph) Watch(w Watcher) Watcher {
    ret := self.watcher
    self.watcher = w
    return ret
}

// Node returns the node with the given handle, which may be a tombstone.
func (self *Graph) Node(id ID) *Node {
    if id < 0 || int(id) >= len(self.nodes) {
        self.Fatalf(None, "invalid node handle: %d", int32(id))
    }
    return self.nodes[id]
}

// IsAlive reports whether the handle refers to a live node.
func (self *Graph) IsAlive(id ID) bool {
    return id >= 0 && int(id) < len(self.nodes) && !self.nodes[id].dead
}

// Len returns the size of the node arena, including tombstones.
func (self *Graph) Len() int {
    return len(self.nodes)
}

// Nodes returns all the live nodes in handle order.
func (self *Graph) Nodes() []*Node {
    ret := make([]*Node, 0, len(self.nodes))
    for _, p := range self.nodes {
        if !p.dead {
            ret = append(ret, p)
        }
    }
    return ret
}

// FloatingNodes returns the live floating nodes in handle order.
func (self *Graph) FloatingNodes() []*Node {
    ret := make([]*Node, 0, len(self.nodes))
    for _, p := range self.nodes {
        if !p.dead && p.IsFloating() {
            ret = append(ret, p)
        }
    }
    return ret
}

func (self *Graph) live(id ID, user ID) *Node {
    if !self.IsAlive(id) {
        self.Fatalf(user, "reference to a deleted node: %s", id)
    }
    return self.nodes[id]
}

func (self *Graph) use(v ID, user ID) {
    p := self.live(v, user)
    p.usages = append(p.usages, user)
}

func (self *Graph) unuse(v ID, user ID) {
    p := self.nodes[v]
    for i, u := range p.usages {
        if u == user {
            p.usages = append(p.usages[:i], p.usages[i + 1:]...)
            return
        }
    }
    self.Fatalf(user, "usage of %s is missing", v)
}

func (self *Graph) alloc(kind Kind, st stamp.Stamp, inputs []ID) *Node {
    info := kind.Info()
    ret := &Node {
        Id     : ID(len(self.nodes)),
        Kind   : kind,
        st     : st,
        inputs : append(make([]ID, 0, len(inputs)), inputs...),
        prev   : None,
        next   : None,
    }

    /* check the inputs and the stamp */
    if info.Arity != Variadic && len(inputs) != info.Arity {
        self.failf(kind, "%s expects %d inputs, got %d", kind, info.Arity, len(inputs))
    } else if !stamp.IsLegal(st) {
        self.failf(kind, "%s has an illegal stamp", kind)
    }

    /* attach the usages */
    self.nodes = append(self.nodes, ret)
    self.version++

    /* inputs may be absent only where the kind allows it */
    for _, v := range ret.inputs {
        if v != None {
            self.use(v, ret.Id)
        }
    }

    /* notify the watcher if any */
    if self.watcher != nil {
        self.watcher.NodeAdded(ret.Id)
    }
    return ret
}

// SetInput replaces one input edge of a node, keeping the usage lists of
// both the old and the new input consistent.
func (self *Graph) SetInput(id ID, slot int, v ID) {
    p := self.live(id, id)
    if slot < 0 || slot >= len(p.inputs) {
        self.Fatalf(id, "input slot %d out of range", slot)
    }

    /* nothing to do if unchanged */
    old := p.inputs[slot]
    if old == v {
        return
    }

    /* attach the new edge before detaching the old one */
    if v != None {
        self.use(v, id)
    }

    /* detach the old edge */
    if old != None {
        self.unuse(old, id)
    }

    /* update the input */
    p.inputs[slot] = v
    self.version++

    /* notify the watcher if any */
    if self.watcher != nil {
        self.watcher.InputChanged(id, old, v)
    }
}

func (self *Graph) removeInput(id ID, slot int) {
    p := self.live(id, id)
    old := p.inputs[slot]

    /* detach and remove the slot */
    if old != None {
        self.unuse(old, id)
    }

    /* shift the remaining inputs */
    p.inputs = append(p.inputs[:slot], p.inputs[slot + 1:]...)
    self.version++

    /* notify the watcher if any */
    if self.watcher != nil {
        self.watcher.InputChanged(id, old, None)
    }
}

// ReplaceAtUsages redirects every usage edge of old to v.
func (self *Graph) ReplaceAtUsages(old ID, v ID) {
    if old == v {
        return
    }

    /* the list shrinks while edges are moved, so iterate over a copy */
    p := self.live(old, old)
    uses := append([]ID(nil), p.usages...)

    /* a node may use the same input in more than one slot */
    for _, u := range uses {
        q := self.nodes[u]
        for i, x := range q.inputs {
            if x == old {
                self.SetInput(u, i, v)
                break
            }
        }
    }

    /* every usage must have been moved */
    if len(p.usages) != 0 {
        self.Fatalf(old, "%d usages left after replacement", len(p.usages))
    }
}

// Kill removes a node without usages from the graph.
func (self *Graph) Kill(id ID) {
    p := self.live(id, id)
    if id == self.dead {
        self.Fatalf(id, "the dead node cannot be killed")
    } else if len(p.usages) != 0 {
        self.Fatalf(id, "killing a node with %d usages", len(p.usages))
    }

    /* fixed nodes must be unlinked first */
    if p.Kind.IsBlockHead() {
        self.Fatalf(id, "block heads are only removed with their block")
    } else if p.IsFixed() {
        self.unlink(p)
    } else if p.Kind == KPhi {
        p.block.removePhi(id)
    }

    /* detach from the inputs */
    self.release(p)
}

func (self *Graph) release(p *Node) {
    p.dead = true
    p.block = nil
    self.version++

    /* the released inputs may become unused */
    for i, v := range p.inputs {
        if v != None {
            self.unuse(v, p.Id)
            p.inputs[i] = None

            /* notify the watcher if any */
            if self.watcher != nil {
                self.watcher.InputChanged(p.Id, v, None)
            }
        }
    }
}

// Const returns the cached integer constant of the given width.
func (self *Graph) Const(bits uint8, v int64) ID {
    v = stamp.SignExtend(v, bits)
    key := _ConstKey { bits: bits, val: v }

    /* reuse the constant if it is still alive */
    if id, ok := self.consts[key]; ok && self.IsAlive(id) {
        return id
    }

    /* create a new one */
    p := self.alloc(KConst, stamp.ForConstant(bits, v), nil)
    p.Value = v
    self.consts[key] = p.Id
    return p.Id
}

// Null returns the cached null reference constant.
func (self *Graph) Null() ID {
    return self.Object(0)
}

// Object returns the cached constant referring to a heap object handle of
// the external heap snapshot. Handle 0 is the null reference.
func (self *Graph) Object(handle int64) ID {
    kind := KObject
    st := stamp.Stamp(stamp.ObjectNonNull())

    /* the null reference */
    if handle == 0 {
        kind = KNull
        st = stamp.ObjectNull()
    }

    /* reuse the constant if it is still alive */
    key := _ConstKey { obj: true, val: handle }
    if id, ok := self.consts[key]; ok && self.IsAlive(id) {
        return id
    }

    /* create a new one */
    p := self.alloc(kind, st, nil)
    p.Value = handle
    self.consts[key] = p.Id
    return p.Id
}

// Param creates the incoming argument at the given index.
func (self *Graph) Param(index int, st stamp.Stamp) ID {
    p := self.alloc(KParam, st, nil)
    p.Value = int64(index)
    return p.Id
}

// AddFloating creates a floating node with an explicit stamp. Phis belong
// to a block and must be created with Phi.
func (self *Graph) AddFloating(kind Kind, st stamp.Stamp, inputs ...ID) ID {
    if kind.Info().Placement != Floating || kind == KPhi || kind == KDead {
        self.failf(kind, "%s is not a free floating node", kind)
    }
    return self.alloc(kind, st, inputs).Id
}

// Binary creates a two-operand arithmetic, comparison or Pi node.
func (self *Graph) Binary(kind Kind, x ID, y ID) ID {
    info := kind.Info()
    if info.Infer == nil || info.Arity != 2 || info.Placement != Floating || kind == KAddress {
        self.failf(kind, "%s is not a binary operator", kind)
    }

    /* the initial stamp is inferred from the operands */
    st := stamp.Fold(info.Op, self.Stamp(x), self.Stamp(y))
    return self.alloc(kind, st, []ID { x, y }).Id
}

// Unary creates a one-operand arithmetic node.
func (self *Graph) Unary(kind Kind, x ID) ID {
    if kind != KNeg && kind != KNot {
        self.failf(kind, "%s is not a unary operator", kind)
    }
    return self.alloc(kind, stamp.FoldUnary(kind.Info().Op, self.Stamp(x)), []ID { x }).Id
}

// Address creates "base + index * scale + disp". The index may be None.
func (self *Graph) Address(base ID, index ID, scale int, disp int64) ID {
    p := self.alloc(KAddress, stamp.Word(), []ID { base, index })
    p.Scale = scale
    p.Value = disp
    return p.Id
}

// Phi creates a value merged at the head of b, one input per predecessor.
func (self *Graph) Phi(b *Block, st stamp.Stamp, inputs ...ID) ID {
    if self.nodes[b.Head].Kind != KMerge {
        self.Fatalf(b.Head, "phi outside of a merge block")
    }

    /* attach to the block */
    p := self.alloc(KPhi, st, inputs)
    p.block = b
    b.Phis = append(b.Phis, p.Id)
    return p.Id
}
