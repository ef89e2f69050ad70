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
    `math/bits`

    `golang.org/x/exp/slices`

    `github.com/cloudwego/irgraph/stamp`
)

func canonIdentity(_ *Graph, n *Node) ID {
    return n.Id
}

func (self *Graph) constOf(id ID) (int64, bool) {
    if v, ok := self.nodes[id].st.(stamp.IntegerStamp); !ok {
        return 0, false
    } else {
        return v.Constant()
    }
}

func (self *Graph) isConst(id ID) bool {
    return self.nodes[id].Kind == KConst
}

func widthOf(n *Node) uint8 {
    if v, ok := n.st.(stamp.IntegerStamp); ok {
        return v.Bits()
    } else {
        return 64
    }
}

// canonValue handles the rules shared by every floating node: dead values
// and values with a single possible result.
func canonValue(g *Graph, n *Node) (ID, bool) {
    switch v := n.st.(type) {
        case stamp.IntegerStamp: {
            if v.IsEmpty() {
                return g.dead, true
            } else if c, ok := v.Constant(); ok && n.Kind != KConst {
                return g.Const(v.Bits(), c), true
            }
        }

        /* references known to be null */
        case stamp.ObjectStamp: {
            if v.IsEmpty() {
                return g.dead, true
            } else if v.IsAlwaysNull() && n.Kind != KNull {
                return g.Null(), true
            }
        }

        /* kindless empty values */
        case stamp.BottomStamp: {
            if n.Kind != KDead {
                return g.dead, true
            }
        }
    }
    return n.Id, false
}

func canonFloating(rule Rule) Rule {
    return func(g *Graph, n *Node) ID {
        if r, ok := canonValue(g, n); ok {
            return r
        } else if rule != nil {
            return rule(g, n)
        } else {
            return n.Id
        }
    }
}

func canonSameOperand(g *Graph, n *Node) ID {
    x := n.inputs[0]
    w := widthOf(g.nodes[x])

    /* rules for "x op x" */
    switch n.Kind {
        case KSub, KXor            : return g.Const(w, 0)
        case KAnd, KOr             : return x
        case KEquals               : return g.Const(32, 1)
        case KLessThan, KBelowThan : return g.Const(32, 0)
        default                    : return n.Id
    }
}

func canonConstOperand(g *Graph, n *Node, c int64) ID {
    x := n.inputs[0]
    w := widthOf(n)

    /* rules for "x op c" */
    switch n.Kind {
        case KAdd, KSub, KOr, KXor: {
            if c == 0 {
                return x
            }
        }

        /* shifting by zero */
        case KShl, KShr, KUShr: {
            if c & int64(w - 1) == 0 {
                return x
            }
        }

        /* multiplication, and strength reduction to shifts */
        case KMul: {
            switch {
                case c == 0                : return g.Const(w, 0)
                case c == 1                : return x
                case c > 1 && c & (c - 1) == 0 : return g.Binary(KShl, x, g.Const(w, int64(bits.TrailingZeros64(uint64(c)))))
            }
        }

        /* masking */
        case KAnd: {
            switch c {
                case 0  : return g.Const(w, 0)
                case -1 : return x
            }
        }
    }
    return n.Id
}

func canonArith(g *Graph, n *Node) ID {
    x, y := n.inputs[0], n.inputs[1]

    /* the most specific rules go first, unless the operand never exists */
    if x == y && !g.nodes[x].st.IsEmpty() {
        if r := canonSameOperand(g, n); r != n.Id {
            return r
        }
    }

    /* dead and constant results */
    if r, ok := canonValue(g, n); ok {
        return r
    }

    /* constants go to the right of commutative operators */
    if n.Info().Op.IsCommutative() && g.isConst(x) && !g.isConst(y) {
        return g.Binary(n.Kind, y, x)
    }

    /* identities with a constant operand */
    if g.isConst(y) {
        return canonConstOperand(g, n, g.nodes[y].Value)
    } else {
        return n.Id
    }
}

func canonUnary(g *Graph, n *Node) ID {
    if r, ok := canonValue(g, n); ok {
        return r
    }

    /* involutions: --x and ^^x */
    if p := g.nodes[n.inputs[0]]; p.Kind == n.Kind {
        return p.inputs[0]
    } else {
        return n.Id
    }
}

func canonPi(g *Graph, n *Node) ID {
    x, y := n.inputs[0], n.inputs[1]
    if x == y || n.st.Equal(g.nodes[x].st) {
        return x
    } else {
        return n.Id
    }
}

func canonPhi(g *Graph, n *Node) ID {
    r := None

    /* an edge that carries a dead value is never taken */
    for i := slices.Index(n.inputs, g.dead); i >= 0; i = slices.Index(n.inputs, g.dead) {
        if g.MakeUnreachable(n.block.Preds[i].Tail); !g.IsAlive(n.Id) {
            return g.dead
        }
    }

    /* fold the remaining inputs */
    for _, v := range n.inputs {
        if v == n.Id || v == r {
            continue
        } else if r != None {
            return n.Id
        } else {
            r = v
        }
    }

    /* a phi without any other input is never executed */
    if r == None {
        return g.dead
    } else {
        return r
    }
}

func canonFixed(rule Rule) Rule {
    return func(g *Graph, n *Node) ID {
        for _, v := range n.inputs {
            if v == g.dead {
                return g.MakeUnreachable(n.Id)
            }
        }

        /* kind-specific rules */
        if rule != nil {
            return rule(g, n)
        } else {
            return n.Id
        }
    }
}

// canonWriteBarrier removes barriers that never guard a reference: the
// stored value is null, or the receiver is null and the write never happens.
func canonWriteBarrier(g *Graph, n *Node) ID {
    if v := n.inputs[1]; v != None && g.isAlwaysNull(v) {
        return g.dead
    } else if g.isAlwaysNull(g.AddressBase(n.inputs[0])) {
        return g.dead
    } else {
        return n.Id
    }
}

func canonIf(g *Graph, n *Node) ID {
    if c := n.inputs[0]; c == g.dead {
        return g.MakeUnreachable(n.Id)
    } else if v, ok := g.constOf(c); ok {
        return g.FoldIf(n.Id, v != 0)
    } else {
        return n.Id
    }
}

func canonGoto(g *Graph, n *Node) ID {
    if bb := n.block; g.CanMergeInto(bb) {
        g.MergeInto(bb)
        return g.dead
    } else {
        return n.Id
    }
}

func canonReturn(g *Graph, n *Node) ID {
    if len(n.inputs) == 1 && n.inputs[0] == g.dead {
        return g.MakeUnreachable(n.Id)
    } else {
        return n.Id
    }
}
