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
    `github.com/cloudwego/irgraph/ir`
    `github.com/cloudwego/irgraph/lir`
)

// Intrinsic is the lowering routine of an intrinsic node. It must produce
// exactly one value, which becomes the value of the node.
type Intrinsic func(ctx *Context, n *ir.Node) lir.Variable

var _intrinsics = map[ir.Kind]Intrinsic {
    ir.KDimensions: lowerDimensions,
}

func (self *Context) lowerIntrinsic(n *ir.Node, fn Intrinsic) {
    if self.done[n.Id] {
        self.g.Fatalf(n.Id, "intrinsic lowered twice")
    }

    /* the result is consumed by every usage */
    self.done[n.Id] = true
    self.Define(n.Id, fn(self, n))
}

// lowerDimensions reserves the dimensions array on the stack. The slot
// lives until the end of the program.
func lowerDimensions(ctx *Context, n *ir.Node) lir.Variable {
    ret := ctx.NewVariable(lir.I64)
    slot := ctx.Frame().AllocateStack(n.Rank() * ir.DimensionElemSize, ir.DimensionElemSize)
    ctx.Emit(&lir.StackAddress { Dst: ret, Slot: slot })
    return ret
}
