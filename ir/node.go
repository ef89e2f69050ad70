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

package ir

import (
    `fmt`
    `strings`

    `github.com/cloudwego/irgraph/stamp`
)

// ID is a stable handle of a node within its graph.
type ID int32

// None is the absent node.
const None ID = -1

func (self ID) String() string {
    if self == None {
        return "none"
    } else {
        return fmt.Sprintf("%%%d", int32(self))
    }
}

// BarrierKind tells which side of a heap write a barrier guards.
type BarrierKind uint8

const (
    PostBarrier BarrierKind = iota
    PreBarrier
)

func (self BarrierKind) String() string {
    switch self {
        case PostBarrier : return "post"
        case PreBarrier  : return "pre"
        default          : return fmt.Sprintf("barrier(%d)", uint8(self))
    }
}

// BarrierAttr carries the attributes of a WriteBarrier node.
type BarrierAttr struct {
    Kind       BarrierKind
    Precise    bool
    VerifyOnly bool
}

func (self BarrierAttr) String() string {
    var sb strings.Builder
    sb.WriteString(self.Kind.String())

    /* precision */
    if self.Precise {
        sb.WriteString(",precise")
    } else {
        sb.WriteString(",imprecise")
    }

    /* verification mode */
    if self.VerifyOnly {
        sb.WriteString(",verify")
    }
    return sb.String()
}

// FieldRef names an instance field of a heap object.
type FieldRef struct {
    Owner  string
    Name   string
    Offset int64
}

func (self FieldRef) String() string {
    return self.Owner + "." + self.Name
}

// Access describes the heap location touched by a Load or a Store.
type Access struct {
    Field    FieldRef
    Array    bool
    ElemSize int
    Object   bool
    Bits     uint8
}

func (self Access) String() string {
    ty := "obj"
    if !self.Object {
        ty = fmt.Sprintf("i%d", self.Bits)
    }

    /* element access or field access */
    if self.Array {
        return fmt.Sprintf("[]%s", ty)
    } else {
        return fmt.Sprintf("%s:%s", self.Field, ty)
    }
}

// Stamp returns the stamp of the accessed value.
func (self Access) Stamp() stamp.Stamp {
    if self.Object {
        return stamp.ObjectAny()
    } else {
        return stamp.UnrestrictedInt(self.Bits)
    }
}

// Node is an operation in the graph. Edges are handles into the owning
// graph and must only be changed through the graph.
type Node struct {
    Id      ID
    Kind    Kind
    Value   int64
    Scale   int
    Access  Access
    Barrier BarrierAttr
    st      stamp.Stamp
    inputs  []ID
    usages  []ID
    block   *Block
    prev    ID
    next    ID
    dead    bool
}

func (self *Node) Info() *KindInfo     { return self.Kind.Info() }
func (self *Node) Stamp() stamp.Stamp  { return self.st }
func (self *Node) Inputs() []ID        { return self.inputs }
func (self *Node) Input(i int) ID      { return self.inputs[i] }
func (self *Node) Usages() []ID        { return self.usages }
func (self *Node) Block() *Block       { return self.block }
func (self *Node) Prev() ID            { return self.prev }
func (self *Node) Next() ID            { return self.next }
func (self *Node) IsAlive() bool       { return !self.dead }
func (self *Node) IsFloating() bool    { return self.Info().Placement == Floating }
func (self *Node) IsFixed() bool       { return self.Info().Placement != Floating }
func (self *Node) IsTerminal() bool    { return self.Info().Placement == Terminal }

// HasUsages reports whether any node consumes the result of this node.
func (self *Node) HasUsages() bool {
    return len(self.usages) != 0
}

func (self *Node) attrs() string {
    switch self.Kind {
        case KConst        : return fmt.Sprintf(" %d", self.Value)
        case KObject       : return fmt.Sprintf(" @%d", self.Value)
        case KParam        : return fmt.Sprintf(" #%d", self.Value)
        case KDimensions   : return fmt.Sprintf(" rank=%d", self.Value)
        case KAddress      : return fmt.Sprintf(" disp=%d scale=%d", self.Value, self.Scale)
        case KLoad, KStore : return " " + self.Access.String()
        case KWriteBarrier : return " " + self.Barrier.String()
        default            : return ""
    }
}

func (self *Node) String() string {
    var sb strings.Builder
    fmt.Fprintf(&sb, "%s = %s%s", self.Id, self.Kind, self.attrs())

    /* operands */
    for i, v := range self.inputs {
        if i == 0 {
            sb.WriteByte(' ')
        } else {
            sb.WriteString(", ")
        }
        sb.WriteString(v.String())
    }

    /* result stamp */
    if self.st.Kind() != stamp.KindVoid {
        sb.WriteString(" : ")
        sb.WriteString(self.st.String())
    }
    return sb.String()
}
