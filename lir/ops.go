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

    `github.com/cloudwego/irgraph/stamp`
)

// Opcode identifies the kind of a low-level operation.
type Opcode uint8

const (
    OP_const Opcode = iota
    OP_move
    OP_param
    OP_binop
    OP_unop
    OP_cmp
    OP_lea
    OP_load
    OP_store
    OP_stack_address
    OP_card_mark
    OP_card_verify
    OP_pre_barrier
    OP_branch
    OP_jump
    OP_return
    OP_trap
)

var _OpNames = [...]string {
    OP_const         : "const",
    OP_move          : "move",
    OP_param         : "param",
    OP_binop         : "binop",
    OP_unop          : "unop",
    OP_cmp           : "cmp",
    OP_lea           : "lea",
    OP_load          : "load",
    OP_store         : "store",
    OP_stack_address : "stack_address",
    OP_card_mark     : "card_mark",
    OP_card_verify   : "card_verify",
    OP_pre_barrier   : "pre_barrier",
    OP_branch        : "branch",
    OP_jump          : "jump",
    OP_return        : "return",
    OP_trap          : "trap",
}

func (self Opcode) String() string {
    if int(self) < len(_OpNames) {
        return _OpNames[self]
    } else {
        return fmt.Sprintf("op(%d)", self)
    }
}

// Op is a low-level operation.
type Op interface {
    fmt.Stringer
    Opcode() Opcode
    Operands() []Operand
}

// BlockEnd is an operation that ends a block. Its successors must be
// exactly the control-flow successors of the block.
type BlockEnd interface {
    Op
    Successors() []Label
}

var _Mnemonics = map[stamp.Op]string {
    stamp.OpAdd  : "add",
    stamp.OpSub  : "sub",
    stamp.OpMul  : "mul",
    stamp.OpAnd  : "and",
    stamp.OpOr   : "or",
    stamp.OpXor  : "xor",
    stamp.OpShl  : "shl",
    stamp.OpShr  : "sar",
    stamp.OpUShr : "shr",
    stamp.OpNeg  : "neg",
    stamp.OpNot  : "not",
    stamp.OpEq   : "eq",
    stamp.OpLt   : "lt",
    stamp.OpLtu  : "ltu",
}

func mnemonic(op stamp.Op) string {
    if v, ok := _Mnemonics[op]; ok {
        return v
    } else {
        return op.String()
    }
}

func defs(v Variable) string {
    return fmt.Sprintf("%s:%s", v, v.Kind)
}

// Const loads a constant into a variable. Reference constants are object
// handles, 0 being null.
type Const struct {
    Dst   Variable
    Value int64
}

func (*Const) Opcode() Opcode { return OP_const }

func (self *Const) Operands() []Operand {
    return []Operand { def(self.Dst), use(CONST, Immediate(self.Value)) }
}

func (self *Const) String() string {
    return fmt.Sprintf("%s = const %d", defs(self.Dst), self.Value)
}

// Move copies a value into a variable.
type Move struct {
    Dst Variable
    Src Variable
}

func (*Move) Opcode() Opcode { return OP_move }

func (self *Move) Operands() []Operand {
    return []Operand { def(self.Dst), use(REG | STACK, self.Src) }
}

func (self *Move) String() string {
    return fmt.Sprintf("%s = move %s", defs(self.Dst), self.Src)
}

// Param defines a variable from an incoming argument.
type Param struct {
    Dst   Variable
    Index int
}

func (*Param) Opcode() Opcode { return OP_param }

func (self *Param) Operands() []Operand {
    return []Operand { def(self.Dst), use(CONST, Immediate(self.Index)) }
}

func (self *Param) String() string {
    return fmt.Sprintf("%s = param %d", defs(self.Dst), self.Index)
}

// BinOp is a two-operand arithmetic or logical operation.
type BinOp struct {
    Operator stamp.Op
    Dst      Variable
    X        Variable
    Y        Variable
}

func (*BinOp) Opcode() Opcode { return OP_binop }

func (self *BinOp) Operands() []Operand {
    return []Operand { def(self.Dst), use(REG, self.X), use(REG | STACK, self.Y) }
}

func (self *BinOp) String() string {
    return fmt.Sprintf("%s = %s %s, %s", defs(self.Dst), mnemonic(self.Operator), self.X, self.Y)
}

// UnOp is a one-operand arithmetic or logical operation.
type UnOp struct {
    Operator stamp.Op
    Dst      Variable
    X        Variable
}

func (*UnOp) Opcode() Opcode { return OP_unop }

func (self *UnOp) Operands() []Operand {
    return []Operand { def(self.Dst), use(REG, self.X) }
}

func (self *UnOp) String() string {
    return fmt.Sprintf("%s = %s %s", defs(self.Dst), mnemonic(self.Operator), self.X)
}

// Cmp compares two values and defines a 0 or 1 result.
type Cmp struct {
    Cond stamp.Op
    Dst  Variable
    X    Variable
    Y    Variable
}

func (*Cmp) Opcode() Opcode { return OP_cmp }

func (self *Cmp) Operands() []Operand {
    return []Operand { def(self.Dst), use(REG, self.X), use(REG | STACK, self.Y) }
}

func (self *Cmp) String() string {
    return fmt.Sprintf("%s = cmp.%s %s, %s", defs(self.Dst), mnemonic(self.Cond), self.X, self.Y)
}

// Lea computes "base + index * scale + disp". Index is a Variable or
// Illegal.
type Lea struct {
    Dst   Variable
    Base  Variable
    Index Value
    Scale int
    Disp  int64
}

func (*Lea) Opcode() Opcode { return OP_lea }

func (self *Lea) Operands() []Operand {
    return []Operand {
        def(self.Dst),
        use(REG, self.Base),
        use(REG | ILLEGAL, self.Index),
        use(CONST, Immediate(self.Disp)),
    }
}

func (self *Lea) String() string {
    if self.Index == Illegal {
        return fmt.Sprintf("%s = lea %d(%s)", defs(self.Dst), self.Disp, self.Base)
    } else {
        return fmt.Sprintf("%s = lea %d(%s, %s, %d)", defs(self.Dst), self.Disp, self.Base, self.Index, self.Scale)
    }
}

// Load reads a value from memory.
type Load struct {
    Dst  Variable
    Addr Variable
}

func (*Load) Opcode() Opcode { return OP_load }

func (self *Load) Operands() []Operand {
    return []Operand { def(self.Dst), use(REG, self.Addr) }
}

func (self *Load) String() string {
    return fmt.Sprintf("%s = load (%s)", defs(self.Dst), self.Addr)
}

// Store writes a value to memory.
type Store struct {
    Addr  Variable
    Value Variable
}

func (*Store) Opcode() Opcode { return OP_store }

func (self *Store) Operands() []Operand {
    return []Operand { use(REG, self.Addr), use(REG, self.Value) }
}

func (self *Store) String() string {
    return fmt.Sprintf("store.%s %s, (%s)", self.Value.Kind, self.Value, self.Addr)
}

// StackAddress defines the address of a stack slot.
type StackAddress struct {
    Dst  Variable
    Slot StackSlot
}

func (*StackAddress) Opcode() Opcode { return OP_stack_address }

func (self *StackAddress) Operands() []Operand {
    return []Operand { def(self.Dst), use(STACK, self.Slot) }
}

func (self *StackAddress) String() string {
    return fmt.Sprintf("%s = stack_address %s", defs(self.Dst), self.Slot)
}

// CardMark dirties the card covering an address. Imprecise marks are
// given the object base instead of the written slot. Tmp holds the card
// index.
type CardMark struct {
    Addr    Variable
    Tmp     Variable
    Precise bool
}

func (*CardMark) Opcode() Opcode { return OP_card_mark }

func (self *CardMark) Operands() []Operand {
    return []Operand { use(REG, self.Addr), { Role: Temp, Flags: REG, Value: self.Tmp } }
}

func (self *CardMark) String() string {
    return fmt.Sprintf("card_mark%s %s", precise(self.Precise), self.Addr)
}

// CardVerify checks that the card covering an address is dirty.
type CardVerify struct {
    Addr    Variable
    Precise bool
}

func (*CardVerify) Opcode() Opcode { return OP_card_verify }

func (self *CardVerify) Operands() []Operand {
    return []Operand { use(REG, self.Addr) }
}

func (self *CardVerify) String() string {
    return fmt.Sprintf("card_verify%s %s", precise(self.Precise), self.Addr)
}

// PreBarrier records the value about to be overwritten at an address.
type PreBarrier struct {
    Addr Variable
}

func (*PreBarrier) Opcode() Opcode { return OP_pre_barrier }

func (self *PreBarrier) Operands() []Operand {
    return []Operand { use(REG, self.Addr) }
}

func (self *PreBarrier) String() string {
    return fmt.Sprintf("pre_barrier %s", self.Addr)
}

func precise(v bool) string {
    if v {
        return ".precise"
    } else {
        return ""
    }
}

// Branch transfers control to True when Cond is non-zero and to False
// otherwise.
type Branch struct {
    Cond  Variable
    True  Label
    False Label
}

func (*Branch) Opcode() Opcode { return OP_branch }

func (self *Branch) Operands() []Operand {
    return []Operand { use(REG, self.Cond) }
}

func (self *Branch) Successors() []Label {
    return []Label { self.True, self.False }
}

func (self *Branch) String() string {
    return fmt.Sprintf("branch %s, %s, %s", self.Cond, self.True, self.False)
}

// Jump transfers control to Target.
type Jump struct {
    Target Label
}

func (*Jump) Opcode() Opcode { return OP_jump }

func (*Jump) Operands() []Operand {
    return nil
}

func (self *Jump) Successors() []Label {
    return []Label { self.Target }
}

func (self *Jump) String() string {
    return fmt.Sprintf("jump %s", self.Target)
}

// Trap ends a block that cannot be reached.
type Trap struct{}

func (*Trap) Opcode() Opcode { return OP_trap }

func (*Trap) Operands() []Operand {
    return nil
}

func (*Trap) Successors() []Label {
    return nil
}

func (*Trap) String() string {
    return "trap"
}
