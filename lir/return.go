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

package lir

import (
    `fmt`
)

// FrameContext is the frame state of the function being emitted.
type FrameContext interface {
    Leave()
    Returned()
}

// CodeBuilder is the interface block-end operations emit machine code
// through.
type CodeBuilder interface {
    Frame() FrameContext
    AvxSseTransition() bool
    Vzeroupper()
    Ret()
}

// ReturnOp leaves the function. X is the returned Variable, or Illegal for
// void functions.
type ReturnOp struct {
    X Value
}

func (*ReturnOp) Opcode() Opcode { return OP_return }

func (self *ReturnOp) Operands() []Operand {
    return []Operand { use(REG | ILLEGAL, self.X) }
}

func (*ReturnOp) Successors() []Label {
    return nil
}

func (self *ReturnOp) String() string {
    if self.X == Illegal {
        return "return"
    } else {
        return fmt.Sprintf("return %s", self.X)
    }
}

// EmitCode tears the frame down, resets the upper SIMD state when leaving
// AVX code for SSE code and transfers control back to the caller.
func (self *ReturnOp) EmitCode(cb CodeBuilder) {
    cb.Frame().Leave()
    if cb.AvxSseTransition() {
        cb.Vzeroupper()
    }

    /* the frame is still live for the blocks after this one */
    cb.Ret()
    cb.Frame().Returned()
}
