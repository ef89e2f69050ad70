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

package debug_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudwego/irgraph"
	"github.com/cloudwego/irgraph/debug"
	"github.com/cloudwego/irgraph/ir"
	"github.com/cloudwego/irgraph/stamp"
)

func TestGetStats(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	g := ir.New("stats")
	obj := g.Param(0, stamp.ObjectNonNull())
	val := g.Param(1, stamp.ObjectAny())
	g.Store(g.Start().Head, g.Address(obj, ir.None, 0, 8), val, ir.Access{Field: ir.FieldRef{Owner: "Box", Name: "v", Offset: 8}, Object: true})
	g.Return(g.Start(), ir.None)

	/* counters only grow */
	before := debug.GetStats()
	_, err := irgraph.Compile(g)
	require.NoError(t, err)
	after := debug.GetStats()
	require.Equal(t, before.Canon.Runs + 2, after.Canon.Runs)
	require.Equal(t, before.Barrier.Inserted + 1, after.Barrier.Inserted)
	require.Equal(t, before.Lower.Units + 1, after.Lower.Units)
	require.Greater(t, after.Lower.Ops, before.Lower.Ops)
	require.GreaterOrEqual(t, after.Canon.Rewrites, before.Canon.Rewrites)
}
