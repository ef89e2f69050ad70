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

package lower

import (
    `log/slog`
    `sync/atomic`

    `golang.org/x/exp/slices`

    `github.com/cloudwego/irgraph/ir`
    `github.com/cloudwego/irgraph/lir`
    `github.com/cloudwego/irgraph/stamp`
)

var (
    UnitCount uint64 = 0
    OpCount   uint64 = 0
)

type _LowerFunc func(ctx *Context, n *ir.Node)

var _fixed map[ir.Kind]_LowerFunc

func init() {
    _fixed = map[ir.Kind]_LowerFunc {
        ir.KStart        : lowerNothing,
        ir.KBegin        : lowerNothing,
        ir.KMerge        : lowerNothing,
        ir.KLoad         : lowerLoad,
        ir.KStore        : lowerStore,
        ir.KWriteBarrier : lowerWriteBarrier,
        ir.KIf           : lowerIf,
        ir.KGoto         : lowerGoto,
        ir.KReturn       : lowerReturn,
        ir.KUnreachable  : lowerUnreachable,
    }
}

// Context is the state of lowering one graph.
type Context struct {
    g     *ir.Graph
    prog  *lir.Program
    bb    *lir.Block
    vars  map[ir.ID]lir.Variable
    local map[ir.ID]lir.Variable
    done  map[ir.ID]bool
}

func newContext(g *ir.Graph) *Context {
    return &Context {
        g    : g,
        prog : lir.NewProgram(g.Unit),
        vars : make(map[ir.ID]lir.Variable),
        done : make(map[ir.ID]bool),
    }
}

// Graph returns the graph being lowered.
func (self *Context) Graph() *ir.Graph {
    return self.g
}

// Frame returns the frame of the program being built.
func (self *Context) Frame() *lir.FrameBuilder {
    return &self.prog.Frame
}

// NewVariable allocates a virtual register.
func (self *Context) NewVariable(kind lir.Kind) lir.Variable {
    return self.prog.NewVariable(kind)
}

// Emit appends an operation to the current block.
func (self *Context) Emit(op lir.Op) {
    self.bb.Append(op)
}

// Define records the variable holding the result of a fixed node.
func (self *Context) Define(id ir.ID, v lir.Variable) {
    self.vars[id] = v
}

// Lower translates a canonical graph into a low-level program. Blocks are
// emitted in reverse post order, fixed nodes keep their block order and
// every floating value is computed right before its first use in a block.
func Lower(g *ir.Graph) *lir.Program {
    ctx := newContext(g)
    rpo := g.ReversePostOrder()

    /* incoming arguments are defined first */
    params := make([]*ir.Node, 0)
    for _, p := range g.FloatingNodes() {
        if p.Kind == ir.KParam && p.HasUsages() {
            params = append(params, p)
        }
    }

    /* phis are assigned their variables up front */
    for _, bb := range rpo {
        for _, id := range bb.Phis {
            ctx.vars[id] = ctx.NewVariable(kindOf(g.Stamp(id)))
        }
    }

    /* lower every block */
    for _, bb := range rpo {
        ctx.enter(bb)
        if bb == g.Start() {
            ctx.lowerParams(params)
        }
        for _, p := range g.FixedNodes(bb) {
            ctx.lowerFixed(p)
        }
    }

    /* update the statistics */
    nop := 0
    for _, bb := range ctx.prog.Blocks {
        nop += len(bb.Ops)
    }

    /* all done */
    atomic.AddUint64(&UnitCount, 1)
    atomic.AddUint64(&OpCount, uint64(nop))
    slog.Debug("lowered", "unit", g.Unit, "blocks", len(rpo), "ops", nop, "frame", ctx.prog.Frame.Size())
    return ctx.prog
}

func (self *Context) enter(bb *ir.Block) {
    succs := make([]lir.Label, len(bb.Succs))
    for i, s := range bb.Succs {
        succs[i] = lir.Label(s.Id)
    }

    /* floating values are cached per block */
    self.bb = self.prog.NewBlock(lir.Label(bb.Id), succs)
    self.local = make(map[ir.ID]lir.Variable)
}

func (self *Context) lowerParams(params []*ir.Node) {
    for _, p := range params {
        v := self.NewVariable(kindOf(p.Stamp()))
        self.Emit(&lir.Param { Dst: v, Index: int(p.Value) })
        self.vars[p.Id] = v
    }
}

func (self *Context) lowerFixed(p *ir.Node) {
    fn, ok := _fixed[p.Kind]
    ifn, isi := _intrinsics[p.Kind]

    /* intrinsics own their lowering routines */
    switch {
        case isi                      : self.lowerIntrinsic(p, ifn)
        case ok && p.Info().Lowerable : fn(self, p)
        default                       : self.g.Fatalf(p.Id, "%s cannot be lowered", p.Kind)
    }
}

func kindOf(st stamp.Stamp) lir.Kind {
    switch v := st.(type) {
        case stamp.IntegerStamp : return lir.IntKind(v.Bits())
        case stamp.ObjectStamp  : return lir.Ref
        default                 : return lir.Void
    }
}

func lowerNothing(_ *Context, _ *ir.Node) {}

func lowerLoad(ctx *Context, n *ir.Node) {
    v := ctx.NewVariable(kindOf(n.Access.Stamp()))
    ctx.Emit(&lir.Load { Dst: v, Addr: ctx.Value(n.Input(0)) })
    ctx.vars[n.Id] = v
}

func lowerStore(ctx *Context, n *ir.Node) {
    addr := ctx.Value(n.Input(0))
    ctx.Emit(&lir.Store { Addr: addr, Value: ctx.Value(n.Input(1)) })
}

func lowerWriteBarrier(ctx *Context, n *ir.Node) {
    attr := n.Barrier
    addr := ctx.g.BarrierAddress(n.Id)

    /* imprecise barriers guard the whole object */
    if !attr.Precise {
        addr = ctx.g.BarrierBase(n.Id)
    }

    /* select the barrier operation */
    switch {
        case attr.Kind == ir.PreBarrier : ctx.Emit(&lir.PreBarrier { Addr: ctx.Value(addr) })
        case attr.VerifyOnly            : ctx.Emit(&lir.CardVerify { Addr: ctx.Value(addr), Precise: attr.Precise })
        default                         : ctx.Emit(&lir.CardMark { Addr: ctx.Value(addr), Tmp: ctx.NewVariable(lir.I64), Precise: attr.Precise })
    }
}

func lowerIf(ctx *Context, n *ir.Node) {
    bb := n.Block()
    ctx.Emit(&lir.Branch {
        Cond  : ctx.Value(n.Input(0)),
        True  : lir.Label(bb.Succs[0].Id),
        False : lir.Label(bb.Succs[1].Id),
    })
}

func lowerGoto(ctx *Context, n *ir.Node) {
    bb := n.Block()
    to := bb.Succs[0]
    ctx.resolvePhis(bb, to)
    ctx.Emit(&lir.Jump { Target: lir.Label(to.Id) })
}

func lowerReturn(ctx *Context, n *ir.Node) {
    if len(n.Inputs()) == 0 {
        ctx.Emit(&lir.ReturnOp { X: lir.Illegal })
    } else {
        ctx.Emit(&lir.ReturnOp { X: ctx.Value(n.Input(0)) })
    }
}

func lowerUnreachable(ctx *Context, _ *ir.Node) {
    ctx.Emit(&lir.Trap{})
}

// resolvePhis moves the values flowing from bb into the phis of its
// successor to. Phis reading other phis of the same block go through
// temporaries so every phi sees the values from before the edge.
func (self *Context) resolvePhis(bb *ir.Block, to *ir.Block) {
    if len(to.Phis) == 0 {
        return
    }

    /* find the edge */
    i := slices.Index(to.Preds, bb)
    if i < 0 {
        self.g.Fatalf(bb.Tail, "%s is not a predecessor of %s", bb, to)
    }

    /* compute the incoming values */
    src := make([]lir.Variable, len(to.Phis))
    tmp := false
    for j, id := range to.Phis {
        in := self.g.Node(id).Input(i)
        src[j] = self.Value(in)
        tmp = tmp || slices.Contains(to.Phis, in)
    }

    /* copy through temporaries if needed */
    if tmp {
        for j, v := range src {
            src[j] = self.NewVariable(v.Kind)
            self.Emit(&lir.Move { Dst: src[j], Src: v })
        }
    }

    /* assign the phis */
    for j, id := range to.Phis {
        self.Emit(&lir.Move { Dst: self.vars[id], Src: src[j] })
    }
}
