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
    `testing`

    `github.com/stretchr/testify/require`
)

type recorder struct {
    avx bool
    log []string
}

type recorderFrame struct {
    r *recorder
}

func (self recorderFrame) Leave()    { self.r.log = append(self.r.log, "leave") }
func (self recorderFrame) Returned() { self.r.log = append(self.r.log, "returned") }

func (self *recorder) Frame() FrameContext     { return recorderFrame { self } }
func (self *recorder) AvxSseTransition() bool  { return self.avx }
func (self *recorder) Vzeroupper()             { self.log = append(self.log, "vzeroupper") }
func (self *recorder) Ret()                    { self.log = append(self.log, "ret") }

func TestReturnOp_EmitCode(t *testing.T) {
    cb := &recorder { avx: true }
    (&ReturnOp { X: Illegal }).EmitCode(cb)
    require.Equal(t, []string { "leave", "vzeroupper", "ret", "returned" }, cb.log)
}

func TestReturnOp_EmitCodeWithoutTransition(t *testing.T) {
    cb := &recorder{}
    (&ReturnOp { X: Variable { Index: 0, Kind: I64 } }).EmitCode(cb)
    require.Equal(t, []string { "leave", "ret", "returned" }, cb.log)
}

func TestReturnOp_Operands(t *testing.T) {
    require.Equal(t, []Operand { { Use, REG | ILLEGAL, Illegal } }, (&ReturnOp { X: Illegal }).Operands())
}
