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

    `github.com/cloudwego/irgraph/stamp`
)

// Kind is the operation a node performs.
type Kind uint8

const (
    KDead Kind = iota
    KConst
    KNull
    KObject
    KParam
    KAdd
    KSub
    KMul
    KAnd
    KOr
    KXor
    KShl
    KShr
    KUShr
    KNeg
    KNot
    KEquals
    KLessThan
    KBelowThan
    KPi
    KPhi
    KAddress
    KStart
    KBegin
    KMerge
    KLoad
    KStore
    KWriteBarrier
    KDimensions
    KIf
    KGoto
    KReturn
    KUnreachable
    _KindCount
)

// Placement tells how a node is positioned in the program.
type Placement uint8

const (
    Floating Placement = iota
    Fixed
    Terminal
)

func (self Placement) String() string {
    switch self {
        case Floating : return "floating"
        case Fixed    : return "fixed"
        case Terminal : return "terminal"
        default       : return fmt.Sprintf("placement(%d)", uint8(self))
    }
}

// Variadic marks kinds that accept any number of inputs.
const Variadic = -1

type (
    // InferFunc computes the stamp of a node from the stamps of its inputs.
    InferFunc func(g *Graph, n *Node) stamp.Stamp

    // Rule returns the canonical replacement of a node: the node itself when
    // nothing applies, an existing or newly built node, or g.Dead(). A rule
    // may also rewrite the control flow around the node and remove it.
    Rule func(g *Graph, n *Node) ID
)

// KindInfo is the behavior table entry of a Kind.
type KindInfo struct {
    Name      string
    Placement Placement
    Arity     int
    Op        stamp.Op
    Infer     InferFunc
    Canonical Rule
    Lowerable bool
}

var _kinds [_KindCount]KindInfo

func (self Kind) Info() *KindInfo {
    if self >= _KindCount {
        panic(fmt.Sprintf("ir: invalid node kind: %d", uint8(self)))
    } else {
        return &_kinds[self]
    }
}

func (self Kind) String() string {
    if self >= _KindCount {
        return fmt.Sprintf("kind(%d)", uint8(self))
    } else {
        return _kinds[self].Name
    }
}

// IsBlockHead reports whether nodes of this kind begin a basic block.
func (self Kind) IsBlockHead() bool {
    return self == KStart || self == KBegin || self == KMerge
}

func floating(name string, arity int, infer InferFunc, rule Rule) KindInfo {
    return KindInfo { Name: name, Placement: Floating, Arity: arity, Infer: infer, Canonical: rule, Lowerable: true }
}

func arith(name string, op stamp.Op, arity int, rule Rule) KindInfo {
    if arity == 1 {
        return KindInfo { Name: name, Placement: Floating, Arity: 1, Op: op, Infer: inferUnary, Canonical: rule, Lowerable: true }
    } else {
        return KindInfo { Name: name, Placement: Floating, Arity: 2, Op: op, Infer: inferBinary, Canonical: rule, Lowerable: true }
    }
}

func fixed(name string, arity int, infer InferFunc, rule Rule) KindInfo {
    return KindInfo { Name: name, Placement: Fixed, Arity: arity, Infer: infer, Canonical: rule, Lowerable: true }
}

func terminal(name string, arity int, rule Rule) KindInfo {
    return KindInfo { Name: name, Placement: Terminal, Arity: arity, Infer: inferVoid, Canonical: rule, Lowerable: true }
}

func init() {
    _kinds = [_KindCount]KindInfo {
        KDead         : { Name: "dead", Placement: Floating, Arity: 0, Infer: inferSelf, Canonical: canonIdentity },
        KConst        : floating("const"   , 0, inferSelf    , canonIdentity),
        KNull         : floating("null"    , 0, inferSelf    , canonIdentity),
        KObject       : floating("object"  , 0, inferSelf    , canonIdentity),
        KParam        : floating("param"   , 0, inferSelf    , canonFloating(nil)),
        KAdd          : arith("add"        , stamp.OpAdd    , 2, canonArith),
        KSub          : arith("sub"        , stamp.OpSub    , 2, canonArith),
        KMul          : arith("mul"        , stamp.OpMul    , 2, canonArith),
        KAnd          : arith("and"        , stamp.OpAnd    , 2, canonArith),
        KOr           : arith("or"         , stamp.OpOr     , 2, canonArith),
        KXor          : arith("xor"        , stamp.OpXor    , 2, canonArith),
        KShl          : arith("shl"        , stamp.OpShl    , 2, canonArith),
        KShr          : arith("shr"        , stamp.OpShr    , 2, canonArith),
        KUShr         : arith("ushr"       , stamp.OpUShr   , 2, canonArith),
        KNeg          : arith("neg"        , stamp.OpNeg    , 1, canonUnary),
        KNot          : arith("not"        , stamp.OpNot    , 1, canonUnary),
        KEquals       : arith("eq"         , stamp.OpEq     , 2, canonArith),
        KLessThan     : arith("lt"         , stamp.OpLt     , 2, canonArith),
        KBelowThan    : arith("ltu"        , stamp.OpLtu    , 2, canonArith),
        KPi           : arith("pi"         , stamp.OpRefine , 2, canonFloating(canonPi)),
        KPhi          : floating("phi"     , Variadic, inferPhi, canonFloating(canonPhi)),
        KAddress      : floating("address" , 2, inferAddress , canonFloating(nil)),
        KStart        : fixed("start"      , 0, inferVoid    , canonIdentity),
        KBegin        : fixed("begin"      , 0, inferVoid    , canonIdentity),
        KMerge        : fixed("merge"      , 0, inferVoid    , canonIdentity),
        KLoad         : fixed("load"       , 1, inferSelf    , canonFixed(nil)),
        KStore        : fixed("store"      , 2, inferVoid    , canonFixed(nil)),
        KWriteBarrier : fixed("barrier"    , 2, inferVoid    , canonFixed(canonWriteBarrier)),
        KDimensions   : fixed("dimensions" , 0, inferSelf    , canonIdentity),
        KIf           : terminal("if"      , 1, canonIf),
        KGoto         : terminal("goto"    , 0, canonGoto),
        KReturn       : terminal("return"  , Variadic, canonReturn),
        KUnreachable  : terminal("unreachable", 0, canonIdentity),
    }
}
