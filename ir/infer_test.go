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

    `github.com/brianvoe/gofakeit/v6`
    `github.com/stretchr/testify/require`

    `github.com/cloudwego/irgraph/stamp`
)

func TestInfer_UpdateStampOnlyNarrows(t *testing.T) {
    g := New("test")
    x := g.Param(0, stamp.ForRange(32, 0, 100))
    require.True(t, g.UpdateStamp(x, stamp.ForRange(32, 50, 200)))
    require.True(t, g.Stamp(x).Equal(stamp.ForRange(32, 50, 100)))
    require.False(t, g.UpdateStamp(x, stamp.UnrestrictedInt(32)))
    require.True(t, g.Stamp(x).Equal(stamp.ForRange(32, 50, 100)))
    err := catch(func() { g.UpdateStamp(x, stamp.ObjectAny()) })
    require.NotNil(t, err)
    require.Contains(t, err.Reason, "illegal stamp")
}

func TestInfer_MixedWidthsAreFatal(t *testing.T) {
    g := New("test")
    x := g.Param(0, stamp.UnrestrictedInt(32))
    y := g.Param(1, stamp.UnrestrictedInt(64))
    err := catch(func() { g.Binary(KAdd, x, y) })
    require.NotNil(t, err)
    require.Equal(t, KAdd, err.Kind)
}

func TestInfer_Propagation(t *testing.T) {
    g := New("test")
    x := g.Param(0, stamp.ForRange(32, 0, 5))
    a := g.Binary(KAdd, x, g.Const(32, 1))
    b := g.Binary(KMul, a, g.Const(32, 2))
    g.Return(g.Start(), b)
    require.True(t, g.Stamp(b).Equal(stamp.ForRange(32, 2, 12)))
    g.UpdateStamp(x, stamp.ForConstant(32, 3))
    require.True(t, g.Stamp(b).Equal(stamp.ForRange(32, 2, 12)))
    require.Equal(t, 2, g.InferAll())
    require.True(t, g.Stamp(a).Equal(stamp.ForConstant(32, 4)))
    require.True(t, g.Stamp(b).Equal(stamp.ForConstant(32, 8)))
    require.Equal(t, 0, g.InferAll())
}

func TestInfer_DisjointEqualityIsEmpty(t *testing.T) {
    g := New("test")
    x := g.Param(0, stamp.ForRange(32, 0, 5))
    y := g.Param(1, stamp.ForRange(32, 10, 20))
    pi := g.Binary(KPi, x, y)
    sum := g.Binary(KAdd, pi, g.Const(32, 1))
    require.True(t, g.Stamp(pi).IsEmpty())
    require.True(t, g.Stamp(sum).IsEmpty())
    require.True(t, g.Stamp(g.Binary(KEquals, x, y)).Equal(stamp.ForConstant(32, 0)))
}

func TestInfer_Phi(t *testing.T) {
    d := newDiamond()
    require.True(t, d.g.InferStamp(d.phi))
    require.True(t, d.g.Stamp(d.phi).Equal(stamp.ForRange(32, 1, 2)))
    require.False(t, d.g.InferStamp(d.phi))
}

func TestInfer_Monotone(t *testing.T) {
    f := gofakeit.New(5)
    g := New("random")
    ops := []Kind { KAdd, KSub, KMul, KAnd, KOr, KXor, KEquals, KLessThan }
    ids := []ID {}

    /* parameters with random ranges, results are booleans or 32-bit values */
    for i := 0; i < 6; i++ {
        lo := int64(f.Number(-1000, 1000))
        ids = append(ids, g.Param(i, stamp.ForRange(32, lo, lo + int64(f.Number(0, 5000)))))
    }
    for i := 0; i < 30; i++ {
        x := ids[f.Number(0, len(ids) - 1)]
        y := ids[f.Number(0, len(ids) - 1)]
        ids = append(ids, g.Binary(ops[f.Number(0, len(ops) - 1)], x, y))
    }

    /* narrow parameters one at a time, generality never grows */
    for i := 0; i < 40; i++ {
        prev := make(map[ID]uint64)
        for _, p := range g.Nodes() {
            prev[p.Id] = p.Stamp().Generality()
        }

        /* shrink a random parameter */
        x := ids[f.Number(0, 5)]
        s := g.Stamp(x).(stamp.IntegerStamp)
        g.UpdateStamp(x, stamp.ForRange(32, s.Lower() + int64(f.Number(0, 3)), s.Upper()))
        g.InferAll()

        /* compare */
        for _, p := range g.Nodes() {
            require.LessOrEqual(t, p.Stamp().Generality(), prev[p.Id], "%s", p)
        }
    }
}
