/*
 * Copyright 2022 CloudWeGo Authors
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

package irgraph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/irgraph/ir"
	"github.com/cloudwego/irgraph/lir"
	"github.com/cloudwego/irgraph/stamp"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

// newUnit builds "obj.next = v; return x < k ? x + 1 : x" with x in [0, 100].
func newUnit(name string, k int64) *ir.Graph {
	g := ir.New(name)
	obj := g.Param(0, stamp.ObjectNonNull())
	x := g.Param(1, stamp.ForRange(32, 0, 100))
	v := g.Param(2, stamp.ObjectAny())
	bt, bf, bm := g.NewBlock(), g.NewBlock(), g.NewMerge()
	acc := ir.Access{Field: ir.FieldRef{Owner: "Node", Name: "next", Offset: 16}, Object: true}
	g.Store(g.Start().Head, g.Address(obj, ir.None, 0, 16), v, acc)
	g.If(g.Start(), g.Binary(ir.KLessThan, x, g.Const(32, k)), bt, bf)
	g.Goto(bt, bm)
	g.Goto(bf, bm)
	g.Return(bm, g.Phi(bm, stamp.UnrestrictedInt(32), g.Binary(ir.KAdd, x, g.Const(32, 1)), x))
	return g
}

func countOps(p *lir.Program, code lir.Opcode) int {
	n := 0
	for _, bb := range p.Blocks {
		for _, op := range bb.Ops {
			if op.Opcode() == code {
				n++
			}
		}
	}
	return n
}

func TestCompile_FoldsConstantBranch(t *testing.T) {
	p, err := Compile(newUnit("folded", 200))
	require.NoError(t, err)
	require.Len(t, p.Blocks, 1)
	require.IsType(t, &lir.ReturnOp{}, p.Blocks[0].End())
	require.Equal(t, 1, countOps(p, lir.OP_card_mark))
	require.Equal(t, 1, countOps(p, lir.OP_binop))
}

func TestCompile_KeepsUnknownBranch(t *testing.T) {
	p, err := Compile(newUnit("kept", 50))
	require.NoError(t, err)
	require.Len(t, p.Blocks, 4)
	require.Equal(t, 1, countOps(p, lir.OP_branch))
	require.Equal(t, 2, countOps(p, lir.OP_jump))
	require.Equal(t, 1, countOps(p, lir.OP_card_mark))
}

func TestCompile_DeadPhiInput(t *testing.T) {
	g := ir.New("deadphi")
	c := g.Param(0, stamp.UnrestrictedInt(32))
	x := g.Param(1, stamp.ForRange(32, 0, 5))
	y := g.Param(2, stamp.ForRange(32, 10, 20))
	bt, bf, bm := g.NewBlock(), g.NewBlock(), g.NewMerge()
	g.If(g.Start(), g.Binary(ir.KLessThan, c, g.Const(32, 10)), bt, bf)
	g.Goto(bt, bm)
	g.Goto(bf, bm)
	g.Return(bm, g.Phi(bm, stamp.UnrestrictedInt(32), g.Binary(ir.KPi, x, y), x))

	/* the dead arm traps, the other one returns x */
	p, err := Compile(g)
	require.NoError(t, err)
	require.NoError(t, g.Verify())
	require.Len(t, p.Blocks, 3)
	require.Equal(t, 1, countOps(p, lir.OP_branch))
	require.Equal(t, 1, countOps(p, lir.OP_trap))
	require.Equal(t, 1, countOps(p, lir.OP_return))
	require.Equal(t, 0, countOps(p, lir.OP_jump))
}

func TestCompile_BarrierPolicy(t *testing.T) {
	p, err := Compile(newUnit("nobarrier", 50), WithBarrierPolicy("none"))
	require.NoError(t, err)
	require.Equal(t, 0, countOps(p, lir.OP_card_mark))
	p, err = Compile(newUnit("verify", 50), WithBarrierPolicy("card-verify"))
	require.NoError(t, err)
	require.Equal(t, 1, countOps(p, lir.OP_card_verify))
	p, err = Compile(newUnit("snapshot", 50), WithBarrierPolicy("snapshot"))
	require.NoError(t, err)
	require.Equal(t, 1, countOps(p, lir.OP_pre_barrier))
}

func TestCompile_InternalError(t *testing.T) {
	g := newUnit("broken", 50)
	p, err := Compile(g, WithMaxCanonIterations(1))
	require.Nil(t, p)
	require.Error(t, err)
	ie, ok := errors.Cause(err).(*ir.InternalError)
	require.True(t, ok)
	require.Equal(t, "broken", ie.Unit)
	require.Contains(t, ie.Reason, "did not terminate")
	require.Contains(t, fmt.Sprintf("%+v", err), "compile.go")
}

func TestCompile_Deterministic(t *testing.T) {
	a, err := Compile(newUnit("det", 50))
	require.NoError(t, err)
	b, err := Compile(newUnit("det", 50))
	require.NoError(t, err)
	require.Equal(t, a.String(), b.String())
}

func TestCompileAll_Parallel(t *testing.T) {
	var graphs []*ir.Graph
	for i := 0; i < 32; i++ {
		graphs = append(graphs, newUnit(fmt.Sprintf("unit_%d", i), int64(i * 7)))
	}

	/* results are in the order of the graphs */
	rs := CompileAll(context.Background(), graphs, WithWorkers(4))
	require.Len(t, rs, len(graphs))
	for i, r := range rs {
		require.NoError(t, r.Err)
		require.Equal(t, fmt.Sprintf("unit_%d", i), r.Unit)
		p, err := Compile(newUnit(r.Unit, int64(i * 7)))
		require.NoError(t, err)
		require.Equal(t, p.String(), r.Program.String())
	}
}

func TestCompileAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	/* nothing is started */
	rs := CompileAll(ctx, []*ir.Graph{newUnit("a", 1), newUnit("b", 2)}, WithWorkers(2))
	require.Len(t, rs, 2)
	for _, r := range rs {
		var ae AbandonedError
		require.Nil(t, r.Program)
		require.True(t, errors.Is(r.Err, context.Canceled))
		require.True(t, errors.As(r.Err, &ae))
		require.Equal(t, r.Unit, ae.Unit)
	}
}

func TestCompileAll_Empty(t *testing.T) {
	require.Empty(t, CompileAll(context.Background(), nil))
}
