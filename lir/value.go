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

// Kind is the machine kind of a value.
type Kind uint8

const (
    Void Kind = iota
    I8
    I16
    I32
    I64
    Ref
)

func (self Kind) String() string {
    switch self {
        case Void : return "void"
        case I8   : return "i8"
        case I16  : return "i16"
        case I32  : return "i32"
        case I64  : return "i64"
        case Ref  : return "ref"
        default   : return "???"
    }
}

// Size returns the size of a value of this kind in bytes.
func (self Kind) Size() int {
    switch self {
        case I8   : return 1
        case I16  : return 2
        case I32  : return 4
        case I64  : return 8
        case Ref  : return 8
        default   : return 0
    }
}

// IntKind returns the integer kind of the given width.
func IntKind(bits uint8) Kind {
    switch bits {
        case 8  : return I8
        case 16 : return I16
        case 32 : return I32
        case 64 : return I64
        default : panic(fmt.Sprintf("lir: invalid integer width: %d", bits))
    }
}

// Value is anything an operand can refer to.
type Value interface {
    fmt.Stringer
    value()
}

func (Variable)     value() {}
func (StackSlot)    value() {}
func (Immediate)    value() {}
func (IllegalValue) value() {}

// Variable is a virtual register, assigned a location by the register
// allocator.
type Variable struct {
    Index int
    Kind  Kind
}

func (self Variable) String() string {
    return fmt.Sprintf("v%d", self.Index)
}

// StackSlot is a transient stack location of the current frame.
type StackSlot struct {
    Index  int
    Offset int
    Size   int
    Align  int
}

func (self StackSlot) String() string {
    return fmt.Sprintf("stack%d[%d,%d]", self.Index, self.Size, self.Align)
}

// Immediate is a constant encoded into the instruction.
type Immediate int64

func (self Immediate) String() string {
    return fmt.Sprintf("$%d", int64(self))
}

// IllegalValue marks an absent operand.
type IllegalValue struct{}

func (IllegalValue) String() string {
    return "-"
}

// Illegal is the absent operand.
var Illegal Value = IllegalValue{}

// Label identifies a block of a program.
type Label int

func (self Label) String() string {
    return fmt.Sprintf("bb_%d", int(self))
}
