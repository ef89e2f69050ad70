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
    `strings`

    `golang.org/x/exp/slices`
)

// ValidationError describes an ill-formed operation of a program.
type ValidationError struct {
    Block  Label
    Index  int
    Reason string
}

func (self ValidationError) Error() string {
    if self.Index < 0 {
        return fmt.Sprintf("lir: %s: %s", self.Block, self.Reason)
    } else {
        return fmt.Sprintf("lir: %s[%d]: %s", self.Block, self.Index, self.Reason)
    }
}

// FrameBuilder lays out the transient stack storage of a program. Slots
// live until the end of the program, they are never released.
type FrameBuilder struct {
    size  int
    slots []StackSlot
}

// AllocateStack reserves a stack slot of size bytes aligned to align.
func (self *FrameBuilder) AllocateStack(size int, align int) StackSlot {
    if size < 0 {
        panic(fmt.Sprintf("lir: negative stack slot size: %d", size))
    } else if align <= 0 || align & (align - 1) != 0 {
        panic(fmt.Sprintf("lir: invalid stack slot alignment: %d", align))
    }

    /* align the slot */
    off := (self.size + align - 1) &^ (align - 1)
    ret := StackSlot { Index: len(self.slots), Offset: off, Size: size, Align: align }

    /* add to the frame */
    self.size = off + size
    self.slots = append(self.slots, ret)
    return ret
}

// Size returns the number of bytes of stack storage.
func (self *FrameBuilder) Size() int {
    return self.size
}

// Slots returns every allocated slot in allocation order.
func (self *FrameBuilder) Slots() []StackSlot {
    return self.slots
}

// Block is the operation sequence of one basic block. Succs are the
// control-flow successors the block end must branch to.
type Block struct {
    Label Label
    Succs []Label
    Ops   []Op
}

func (self *Block) Append(op Op) {
    self.Ops = append(self.Ops, op)
}

// End returns the operation ending the block, if any.
func (self *Block) End() BlockEnd {
    if len(self.Ops) == 0 {
        return nil
    } else if v, ok := self.Ops[len(self.Ops) - 1].(BlockEnd); ok {
        return v
    } else {
        return nil
    }
}

// Program is the lowered form of one compilation unit, handed to the
// emitter.
type Program struct {
    Unit   string
    Blocks []*Block
    Frame  FrameBuilder
    nvars  int
}

func NewProgram(unit string) *Program {
    return &Program { Unit: unit }
}

// NewVariable allocates a fresh virtual register.
func (self *Program) NewVariable(kind Kind) Variable {
    self.nvars++
    return Variable { Index: self.nvars - 1, Kind: kind }
}

// Variables returns the number of allocated virtual registers.
func (self *Program) Variables() int {
    return self.nvars
}

// NewBlock appends an empty block.
func (self *Program) NewBlock(label Label, succs []Label) *Block {
    ret := &Block { Label: label, Succs: succs }
    self.Blocks = append(self.Blocks, ret)
    return ret
}

// Block finds a block by its label.
func (self *Program) Block(label Label) *Block {
    if i := slices.IndexFunc(self.Blocks, func(bb *Block) bool { return bb.Label == label }); i < 0 {
        return nil
    } else {
        return self.Blocks[i]
    }
}

// Validate checks the operand constraints of every operation and the
// block-end rules.
func (self *Program) Validate() error {
    for _, bb := range self.Blocks {
        if err := self.validateBlock(bb); err != nil {
            return err
        }
    }
    return nil
}

func (self *Program) validateBlock(bb *Block) error {
    end := bb.End()
    nop := len(bb.Ops)

    /* the block must be ended */
    if end == nil {
        return ValidationError { Block: bb.Label, Index: -1, Reason: "block is not terminated" }
    } else if !slices.Equal(end.Successors(), bb.Succs) {
        return ValidationError { Block: bb.Label, Index: nop - 1, Reason: fmt.Sprintf("successors %v do not match %v", end.Successors(), bb.Succs) }
    }

    /* every successor must exist */
    for _, s := range bb.Succs {
        if self.Block(s) == nil {
            return ValidationError { Block: bb.Label, Index: nop - 1, Reason: fmt.Sprintf("branch to unknown block %s", s) }
        }
    }

    /* check each operation */
    for i, op := range bb.Ops {
        if _, ok := op.(BlockEnd); ok && i != nop - 1 {
            return ValidationError { Block: bb.Label, Index: i, Reason: fmt.Sprintf("%s in the middle of the block", op.Opcode()) }
        }
        for _, v := range op.Operands() {
            if err := self.validateOperand(v); err != nil {
                return ValidationError { Block: bb.Label, Index: i, Reason: fmt.Sprintf("%s: %v", op.Opcode(), err) }
            }
        }
    }
    return nil
}

func (self *Program) validateOperand(v Operand) error {
    if err := v.Check(); err != nil {
        return err
    } else if x, ok := v.Value.(Variable); ok && (x.Index < 0 || x.Index >= self.nvars) {
        return fmt.Errorf("unknown variable %s", x)
    } else if s, ok := v.Value.(StackSlot); ok && (s.Index >= len(self.Frame.slots) || self.Frame.slots[s.Index] != s) {
        return fmt.Errorf("unknown stack slot %s", s)
    } else {
        return nil
    }
}

func (self *Program) String() string {
    var sb strings.Builder
    fmt.Fprintf(&sb, "program %s (frame %d)\n", self.Unit, self.Frame.Size())

    /* dump every block */
    for _, bb := range self.Blocks {
        if len(bb.Succs) == 0 {
            fmt.Fprintf(&sb, "%s:\n", bb.Label)
        } else {
            fmt.Fprintf(&sb, "%s: ; succs = %s\n", bb.Label, labelList(bb.Succs))
        }
        for _, op := range bb.Ops {
            fmt.Fprintf(&sb, "    %s\n", op)
        }
    }
    return sb.String()
}

func labelList(v []Label) string {
    ret := make([]string, len(v))
    for i, s := range v {
        ret[i] = s.String()
    }
    return strings.Join(ret, ", ")
}
