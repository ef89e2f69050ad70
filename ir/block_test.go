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
    `testing`

    `github.com/stretchr/testify/require`

    `github.com/cloudwego/irgraph/stamp`
)

func kindsOf(nodes []*Node) []Kind {
    ret := make([]Kind, len(nodes))
    for i, p := range nodes {
        ret[i] = p.Kind
    }
    return ret
}

func TestBlock_ReversePostOrder(t *testing.T) {
    d := newDiamond()
    require.Equal(t, []*Block { d.g.Start(), d.bf, d.bt, d.bm }, d.g.ReversePostOrder())
    require.NoError(t, d.g.Verify())
}

func TestBlock_BranchTargets(t *testing.T) {
    d := newDiamond()
    bb := d.g.NewBlock()
    require.NotNil(t, catch(func() { d.g.If(bb, d.cond, d.bm, d.g.NewBlock()) }))
    require.NotNil(t, catch(func() { d.g.If(bb, d.cond, d.bt, d.g.NewBlock()) }))
    require.NotNil(t, catch(func() { d.g.Goto(bb, d.g.Start()) }))
    require.NotNil(t, catch(func() { d.g.Return(d.bm, None) }))
}

func TestBlock_FoldIf(t *testing.T) {
    d := newDiamond()
    one := d.g.Node(d.phi).Input(0)
    jmp := d.g.FoldIf(d.br, true)
    require.False(t, d.g.IsAlive(d.br))
    require.False(t, d.bf.IsAlive())
    require.Equal(t, KGoto, d.g.Node(jmp).Kind)
    require.Equal(t, []*Block { d.bt }, d.g.Start().Succs)
    require.Equal(t, []*Block { d.bt }, d.bm.Preds)
    require.Equal(t, []ID { one }, d.g.Node(d.phi).Inputs())
    require.Empty(t, d.g.Node(d.cond).Usages())
    require.NoError(t, d.g.Verify())
}

func TestBlock_MakeUnreachable(t *testing.T) {
    g := New("test")
    base := g.Param(0, stamp.ObjectNonNull())
    addr := g.Address(base, None, 0, 8)
    ld := g.Load(g.Start().Head, addr, Access { Field: FieldRef { "T", "a", 8 }, Bits: 32 })
    st := g.Store(ld, addr, ld, Access { Field: FieldRef { "T", "b", 8 }, Bits: 32 })
    ret := g.Return(g.Start(), ld)
    id := g.MakeUnreachable(ld)
    for _, v := range []ID { ld, st, ret } {
        require.False(t, g.IsAlive(v))
    }
    require.Equal(t, []Kind { KStart, KUnreachable }, kindsOf(g.FixedNodes(g.Start())))
    require.Equal(t, id, g.Start().Tail)
    require.Empty(t, g.Node(addr).Usages())
    require.NoError(t, g.Verify())
}

func TestBlock_MakeUnreachableRemovesSuccessors(t *testing.T) {
    d := newDiamond()
    d.g.MakeUnreachable(d.br)
    require.Empty(t, d.g.Start().Succs)
    require.Equal(t, []*Block { d.g.Start() }, d.g.Blocks())
    require.False(t, d.g.IsAlive(d.phi))
    require.False(t, d.g.IsAlive(d.ret))
    require.NoError(t, d.g.Verify())
}

func TestBlock_MergeInto(t *testing.T) {
    g := New("test")
    bb := g.NewBlock()
    g.Goto(g.Start(), bb)
    x := g.Param(0, stamp.UnrestrictedInt(64))
    addr := g.Address(x, None, 0, 0)
    g.Load(bb.Head, addr, Access { Bits: 64 })
    g.Return(bb, x)
    require.True(t, g.CanMergeInto(g.Start()))
    g.MergeInto(g.Start())
    require.False(t, bb.IsAlive())
    require.Equal(t, []Kind { KStart, KLoad, KReturn }, kindsOf(g.FixedNodes(g.Start())))
    require.False(t, g.CanMergeInto(g.Start()))
    require.NoError(t, g.Verify())
}

func TestBlock_MergeIntoRequiresSinglePredecessor(t *testing.T) {
    d := newDiamond()
    require.False(t, d.g.CanMergeInto(d.bt))
    require.NotNil(t, catch(func() { d.g.MergeInto(d.bt) }))
}

func TestBlock_RemoveUnreachable(t *testing.T) {
    g := New("test")
    g.Return(g.Start(), None)
    b1, b2 := g.NewBlock(), g.NewBlock()
    g.Goto(b1, b2)
    g.Goto(b2, b1)
    require.NoError(t, g.Verify())
    require.Equal(t, 2, g.RemoveUnreachable())
    require.Equal(t, []*Block { g.Start() }, g.Blocks())
    require.Equal(t, 0, g.RemoveUnreachable())
    require.NoError(t, g.Verify())
}
