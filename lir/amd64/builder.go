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

package amd64

import (
    `fmt`

    `github.com/chenzhuoyu/iasm/x86_64`
    `github.com/klauspost/cpuid/v2`

    `github.com/cloudwego/irgraph/lir`
)

const (
    RSP = x86_64.RSP
    RBP = x86_64.RBP
)

// HostNeedsVzeroupper reports whether code running on this machine may
// leave dirty upper YMM state behind when returning to SSE code.
func HostNeedsVzeroupper() bool {
    return cpuid.CPU.Supports(cpuid.AVX)
}

// FrameSize rounds the stack storage of a program up to the ABI stack
// alignment, leaving room for the saved frame pointer.
func FrameSize(p *lir.Program) int32 {
    return int32((p.Frame.Size() + 15) &^ 15)
}

type _Frame struct {
    b    *Builder
    live bool
}

func (self *_Frame) Leave() {
    if !self.live {
        panic("amd64: leaving a frame that is not live")
    }

    /* release the locals, then restore the frame pointer */
    if self.b.size != 0 {
        self.b.prog.ADDQ(self.b.size, RSP)
    }
    self.b.prog.POPQ(RBP)
    self.live = false
}

func (self *_Frame) Returned() {
    if self.live {
        panic("amd64: returned without leaving the frame")
    }
    self.live = true
}

// Builder emits machine code through an iasm program.
type Builder struct {
    avx   bool
    size  int32
    prog  *x86_64.Program
    frame _Frame
}

// NewBuilder creates a builder for a frame of size bytes. avx is whether
// the compiled code may use AVX instructions.
func NewBuilder(size int32, avx bool) *Builder {
    if size < 0 || size % 16 != 0 {
        panic(fmt.Sprintf("amd64: invalid frame size: %d", size))
    }

    /* create the program */
    ret := &Builder { avx: avx, size: size }
    ret.prog = x86_64.DefaultArch.CreateProgram()
    ret.frame.b = ret
    return ret
}

// Enter emits the function prologue.
func (self *Builder) Enter() {
    if self.frame.live {
        panic("amd64: frame entered twice")
    }

    /* save the frame pointer, then reserve the locals */
    self.prog.PUSHQ(RBP)
    self.prog.MOVQ(RSP, RBP)
    if self.size != 0 {
        self.prog.SUBQ(self.size, RSP)
    }
    self.frame.live = true
}

func (self *Builder) Frame() lir.FrameContext {
    return &self.frame
}

func (self *Builder) AvxSseTransition() bool {
    return self.avx
}

func (self *Builder) Vzeroupper() {
    self.prog.VZEROUPPER()
}

func (self *Builder) Ret() {
    self.prog.RET()
}

// Emit emits the machine code of a block end. Only returns have code of
// their own, other block ends are left to the emitter.
func (self *Builder) Emit(op lir.BlockEnd) bool {
    if v, ok := op.(*lir.ReturnOp); ok {
        v.EmitCode(self)
        return true
    } else {
        return false
    }
}

// Assemble encodes the emitted instructions and releases the program.
func (self *Builder) Assemble() []byte {
    defer self.prog.Free()
    return self.prog.Assemble(0)
}
