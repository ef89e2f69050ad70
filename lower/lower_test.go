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
    `io`
    `log/slog`
    `os`
    `testing`

    `github.com/sebdah/goldie/v2`
    `github.com/stretchr/testify/require`

    `github.com/cloudwego/irgraph/ir`
    `github.com/cloudwego/irgraph/lir`
    `github.com/cloudwego/irgraph/stamp`
)

func TestMain(m *testing.M) {
    slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
    os.Exit(m.Run())
}

func catch(fn func()) (err *ir.InternalError) {
    defer func() {
        if v := recover(); v != nil {
            err = v.(*ir.InternalError)
        }
    }()
    fn()
    return nil
}

func lower(t *testing.T, g *ir.Graph) *lir.Program {
    require.NoError(t, g.Verify())
    p := Lower(g)
    require.NoError(t, p.Validate())
    return p
}

func opsOf(p *lir.Program, label lir.Label) []lir.Op {
    return p.Block(label).Ops
}

func newDiamond() *ir.Graph {
    g := ir.New("golden")
    x := g.Param(0, stamp.UnrestrictedInt(32))
    lt := g.Binary(ir.KLessThan, x, g.Const(32, 10))
    bt, bf, bm := g.NewBlock(), g.NewBlock(), g.NewMerge()

    /* a transient array is filled before branching */
    dims := g.NewDimensions(g.Start().Head, 2)
    g.Store(dims, g.Address(dims, ir.None, 0, 4), x, ir.Access { Array: true, ElemSize: 4, Bits: 32 })

    /* both arms flow into the merge */
    g.If(g.Start(), lt, bt, bf)
    g.Goto(bt, bm)
    g.Goto(bf, bm)
    sum := g.Binary(ir.KAdd, x, g.Const(32, 1))
    g.Return(bm, g.Phi(bm, stamp.UnrestrictedInt(32), sum, x))
    return g
}

func TestLower_Golden(t *testing.T) {
    gd := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
    gd.Assert(t, "diamond", []byte(lower(t, newDiamond()).String()))
}

func operandsOf(p *lir.Program) [][]lir.Operand {
    var ret [][]lir.Operand
    for _, bb := range p.Blocks {
        for _, op := range bb.Ops {
            ret = append(ret, op.Operands())
        }
    }
    return ret
}

func TestLower_Deterministic(t *testing.T) {
    g := newDiamond()
    a := lower(t, g)
    b := lower(t, g)
    c := lower(t, newDiamond())
    require.Equal(t, a.String(), b.String())
    require.Equal(t, a.String(), c.String())

    /* roles and operand flags are not part of the listing */
    require.Equal(t, operandsOf(a), operandsOf(b))
    require.Equal(t, operandsOf(a), operandsOf(c))
    require.NotEmpty(t, operandsOf(a))
}

func TestLower_BlockOrder(t *testing.T) {
    p := lower(t, newDiamond())
    labels := make([]lir.Label, 0, len(p.Blocks))
    for _, bb := range p.Blocks {
        labels = append(labels, bb.Label)
    }
    require.Equal(t, []lir.Label { 0, 2, 1, 3 }, labels)
    require.Equal(t, []lir.Label { 1, 2 }, p.Block(0).End().Successors())
    require.Equal(t, []lir.Label { 3 }, p.Block(1).End().Successors())
    require.Equal(t, 8, p.Frame.Size())
}

func TestLower_PhiMovesBeforeTerminator(t *testing.T) {
    p := lower(t, newDiamond())
    for _, label := range []lir.Label { 1, 2 } {
        ops := opsOf(p, label)
        require.IsType(t, &lir.Jump{}, ops[len(ops) - 1])
        require.IsType(t, &lir.Move{}, ops[len(ops) - 2])
        require.Equal(t, 0, ops[len(ops) - 2].(*lir.Move).Dst.Index)
    }
}

func TestLower_FloatingOncePerBlock(t *testing.T) {
    g := ir.New("sched")
    x := g.Param(0, stamp.UnrestrictedInt(64))
    y := g.Binary(ir.KMul, x, x)
    bt, bf := g.NewBlock(), g.NewBlock()
    acc := ir.Access { Field: ir.FieldRef { Owner: "Box", Name: "v", Offset: 8 }, Bits: 64 }

    /* used twice in the start block */
    a := g.Address(x, ir.None, 0, 8)
    s := g.Store(g.Start().Head, a, y, acc)
    g.Store(s, a, y, acc)
    g.If(g.Start(), g.Binary(ir.KEquals, y, g.Const(64, 0)), bt, bf)

    /* and once in each successor */
    g.Return(bt, y)
    g.Return(bf, y)

    /* count the multiplications per block */
    p := lower(t, g)
    for _, bb := range p.Blocks {
        n := 0
        for _, op := range bb.Ops {
            if v, ok := op.(*lir.BinOp); ok && v.Operator == stamp.OpMul {
                n++
            }
        }
        require.Equal(t, 1, n, "%s", bb.Label)
    }

    /* the address is computed once as well */
    n := 0
    for _, op := range opsOf(p, 0) {
        if _, ok := op.(*lir.Lea); ok {
            n++
        }
    }
    require.Equal(t, 1, n)
}

func TestLower_WriteBarriers(t *testing.T) {
    g := ir.New("barriers")
    obj := g.Param(0, stamp.ObjectNonNull())
    val := g.Param(1, stamp.ObjectAny())
    idx := g.Param(2, stamp.UnrestrictedInt(64))
    fa := g.Address(obj, ir.None, 0, 16)
    ea := g.Address(obj, idx, 8, 24)

    /* imprecise, precise, verify-only and pre-write barriers */
    s := g.Store(g.Start().Head, fa, val, ir.Access { Field: ir.FieldRef { Owner: "Node", Name: "next", Offset: 16 }, Object: true })
    b := g.NewSerialWriteBarrier(s, fa, false)
    s = g.Store(b, ea, val, ir.Access { Array: true, ElemSize: 8, Object: true })
    b = g.NewSerialWriteBarrier(s, ea, true)
    b = g.NewVerifyBarrier(b, ea, true)
    g.NewWriteBarrier(b, ir.PreBarrier, fa, ir.None, false)
    g.Return(g.Start(), ir.None)

    /* collect the variables */
    p := lower(t, g)
    ops := opsOf(p, 0)
    params := map[int]lir.Variable{}
    var leas []*lir.Lea
    var barriers []lir.Op
    for _, op := range ops {
        switch v := op.(type) {
            case *lir.Param                                   : params[v.Index] = v.Dst
            case *lir.Lea                                     : leas = append(leas, v)
            case *lir.CardMark, *lir.CardVerify, *lir.PreBarrier : barriers = append(barriers, v)
        }
    }

    /* imprecise barriers mark the object, precise ones the slot */
    require.Len(t, leas, 2)
    require.Len(t, barriers, 4)
    require.Equal(t, &lir.CardMark { Addr: params[0], Tmp: barriers[0].(*lir.CardMark).Tmp }, barriers[0])
    require.Equal(t, leas[1].Dst, barriers[1].(*lir.CardMark).Addr)
    require.True(t, barriers[1].(*lir.CardMark).Precise)
    require.Equal(t, &lir.CardVerify { Addr: leas[1].Dst, Precise: true }, barriers[2])
    require.Equal(t, &lir.PreBarrier { Addr: params[0] }, barriers[3])
}

func TestLower_ParallelPhis(t *testing.T) {
    g := ir.New("swap")
    x := g.Param(0, stamp.UnrestrictedInt(32))
    y := g.Param(1, stamp.UnrestrictedInt(32))
    m := g.NewMerge()
    body, exit := g.NewBlock(), g.NewBlock()
    g.Goto(g.Start(), m)

    /* the loop swaps the two phis on every iteration */
    a := g.Phi(m, stamp.UnrestrictedInt(32), x, y)
    b := g.Phi(m, stamp.UnrestrictedInt(32), y, x)
    g.If(m, g.Binary(ir.KLessThan, a, b), body, exit)
    g.Goto(body, m)
    g.SetInput(a, 1, b)
    g.SetInput(b, 1, a)
    g.Return(exit, a)

    /* the back edge goes through temporaries */
    p := lower(t, g)
    ops := opsOf(p, lir.Label(body.Id))
    require.Len(t, ops, 5)
    for _, op := range ops[:4] {
        require.IsType(t, &lir.Move{}, op)
    }
    va, vb := ops[2].(*lir.Move).Dst, ops[3].(*lir.Move).Dst
    require.Equal(t, vb, ops[0].(*lir.Move).Src)
    require.Equal(t, va, ops[1].(*lir.Move).Src)
    require.Equal(t, ops[0].(*lir.Move).Dst, ops[2].(*lir.Move).Src)
    require.Equal(t, ops[1].(*lir.Move).Dst, ops[3].(*lir.Move).Src)
    require.IsType(t, &lir.Jump{}, ops[4])
}

func TestLower_Trap(t *testing.T) {
    g := ir.New("trap")
    g.Unreachable(g.Start())
    p := lower(t, g)
    require.Equal(t, []lir.Op { &lir.Trap{} }, opsOf(p, 0))
}

func TestLower_IntrinsicLoweredOnce(t *testing.T) {
    g := ir.New("dims")
    dims := g.NewDimensions(g.Start().Head, 3)
    g.Return(g.Start(), ir.None)

    /* lower the intrinsic by hand */
    ctx := newContext(g)
    ctx.enter(g.Start())
    ctx.lowerFixed(g.Node(dims))
    require.Equal(t, 12, ctx.Frame().Size())
    require.Equal(t, []lir.StackSlot { { Index: 0, Offset: 0, Size: 12, Align: 4 } }, ctx.Frame().Slots())

    /* a second time is a defect */
    err := catch(func() { ctx.lowerFixed(g.Node(dims)) })
    require.NotNil(t, err)
    require.Equal(t, ir.KDimensions, err.Kind)
    require.Equal(t, "dims", err.Unit)
}

func TestLower_ZeroRankDimensions(t *testing.T) {
    g := ir.New("dims")
    dims := g.NewDimensions(g.Start().Head, 0)
    g.Return(g.Start(), dims)
    p := lower(t, g)
    require.Equal(t, 0, p.Frame.Size())
    require.IsType(t, &lir.StackAddress{}, opsOf(p, 0)[0])
}
