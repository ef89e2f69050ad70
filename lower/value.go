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

// Value returns the variable holding the value of a node in the current
// block. Floating nodes are lowered on their first use in each block and
// reused afterwards.
func (self *Context) Value(id ir.ID) lir.Variable {
    if v, ok := self.vars[id]; ok {
        return v
    } else if v, ok = self.local[id]; ok {
        return v
    }

    /* fixed values must have been lowered already */
    p := self.g.Node(id)
    if !p.IsFloating() {
        self.g.Fatalf(id, "%s is used before it is defined", p.Kind)
    }

    /* schedule the floating node here */
    ret := self.lowerFloating(p)
    self.local[id] = ret
    return ret
}

func (self *Context) lowerFloating(p *ir.Node) lir.Variable {
    switch p.Kind {
        case ir.KConst, ir.KNull, ir.KObject: {
            ret := self.NewVariable(kindOf(p.Stamp()))
            self.Emit(&lir.Const { Dst: ret, Value: p.Value })
            return ret
        }

        /* refinements only narrow the stamp */
        case ir.KPi: {
            return self.Value(p.Input(0))
        }

        /* address arithmetic */
        case ir.KAddress: {
            var idx lir.Value = lir.Illegal
            base := self.Value(p.Input(0))

            /* the index is optional */
            if p.Input(1) != ir.None {
                idx = self.Value(p.Input(1))
            }

            /* compute the address */
            ret := self.NewVariable(lir.I64)
            self.Emit(&lir.Lea { Dst: ret, Base: base, Index: idx, Scale: p.Scale, Disp: p.Value })
            return ret
        }

        /* unary operators */
        case ir.KNeg, ir.KNot: {
            x := self.Value(p.Input(0))
            ret := self.NewVariable(kindOf(p.Stamp()))
            self.Emit(&lir.UnOp { Operator: p.Info().Op, Dst: ret, X: x })
            return ret
        }

        /* comparisons */
        case ir.KEquals, ir.KLessThan, ir.KBelowThan: {
            x := self.Value(p.Input(0))
            y := self.Value(p.Input(1))
            ret := self.NewVariable(kindOf(p.Stamp()))
            self.Emit(&lir.Cmp { Cond: p.Info().Op, Dst: ret, X: x, Y: y })
            return ret
        }

        /* binary operators */
        case ir.KAdd, ir.KSub, ir.KMul, ir.KAnd, ir.KOr, ir.KXor, ir.KShl, ir.KShr, ir.KUShr: {
            x := self.Value(p.Input(0))
            y := self.Value(p.Input(1))
            ret := self.NewVariable(kindOf(p.Stamp()))
            self.Emit(&lir.BinOp { Operator: p.Info().Op, Dst: ret, X: x, Y: y })
            return ret
        }

        /* parameters and phis are defined up front, the rest is dead */
        default: {
            self.g.Fatalf(p.Id, "%s value reached lowering", p.Kind)
            return lir.Variable{}
        }
    }
}
