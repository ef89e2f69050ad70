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
    `testing`

    `github.com/stretchr/testify/require`
    `golang.org/x/arch/x86/x86asm`

    `github.com/cloudwego/irgraph/lir`
)

var (
    _VZEROUPPER = []byte { 0xc5, 0xf8, 0x77 }
    _RET        = []byte { 0xc3 }
)

func decode(t *testing.T, code []byte, ops ...x86asm.Op) []byte {
    for _, op := range ops {
        ins, err := x86asm.Decode(code, 64)
        require.NoError(t, err)
        require.Equal(t, op, ins.Op)
        code = code[ins.Len:]
    }
    return code
}

func TestBuilder_ReturnWithTransition(t *testing.T) {
    b := NewBuilder(16, true)
    b.Enter()
    require.True(t, b.Emit(&lir.ReturnOp { X: lir.Illegal }))
    code := b.Assemble()

    /* prologue, then teardown before the reset and the return */
    rem := decode(t, code, x86asm.PUSH, x86asm.MOV, x86asm.SUB, x86asm.ADD, x86asm.POP)
    require.Equal(t, append(append([]byte{}, _VZEROUPPER...), _RET...), rem)
}

func TestBuilder_ReturnWithoutTransition(t *testing.T) {
    b := NewBuilder(0, false)
    b.Enter()
    require.True(t, b.Emit(&lir.ReturnOp { X: lir.Illegal }))
    rem := decode(t, b.Assemble(), x86asm.PUSH, x86asm.MOV, x86asm.POP, x86asm.RET)
    require.Empty(t, rem)
}

func TestBuilder_FrameOrdering(t *testing.T) {
    b := NewBuilder(0, false)
    require.Panics(t, func() { b.Frame().Leave() })
    b.Enter()
    require.Panics(t, func() { b.Enter() })
    require.Panics(t, func() { b.Frame().Returned() })
    b.Frame().Leave()
    b.Frame().Returned()

    /* the frame is live again for the next block */
    require.NotPanics(t, func() { b.Emit(&lir.ReturnOp { X: lir.Illegal }) })
    require.False(t, b.Emit(&lir.Trap{}))
}

func TestBuilder_InvalidFrame(t *testing.T) {
    require.Panics(t, func() { NewBuilder(-16, false) })
    require.Panics(t, func() { NewBuilder(12, false) })
}

func TestFrameSize(t *testing.T) {
    p := lir.NewProgram("frame")
    require.Equal(t, int32(0), FrameSize(p))
    p.Frame.AllocateStack(12, 4)
    require.Equal(t, int32(16), FrameSize(p))
    p.Frame.AllocateStack(8, 8)
    require.Equal(t, int32(32), FrameSize(p))
}

func TestHostNeedsVzeroupper(t *testing.T) {
    b := NewBuilder(0, HostNeedsVzeroupper())
    require.Equal(t, HostNeedsVzeroupper(), b.AvxSseTransition())
}
