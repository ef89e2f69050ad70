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
)

// Availability tells whether a heap read can be answered by the snapshot.
type Availability uint8

const (
    NotConstant Availability = iota
    NotYetAvailable
    Available
)

func (self Availability) String() string {
    switch self {
        case NotConstant     : return "not-constant"
        case NotYetAvailable : return "not-yet-available"
        case Available       : return "available"
        default              : return fmt.Sprintf("availability(%d)", uint8(self))
    }
}

// Constant is a value in the external heap snapshot: either an integer of
// the given width, or a reference to an object handle (0 is null).
type Constant struct {
    Object bool
    Bits   uint8
    Value  int64
}

// IntConstant creates an integer constant.
func IntConstant(bits uint8, v int64) Constant {
    return Constant { Bits: bits, Value: v }
}

// ObjectConstant creates a reference constant.
func ObjectConstant(handle int64) Constant {
    return Constant { Object: true, Value: handle }
}

func (self Constant) IsNull() bool {
    return self.Object && self.Value == 0
}

func (self Constant) String() string {
    if !self.Object {
        return fmt.Sprintf("i%d %d", self.Bits, self.Value)
    } else if self.Value == 0 {
        return "null"
    } else {
        return fmt.Sprintf("@%d", self.Value)
    }
}

// ConstantReader is the heap snapshot of an external analysis.
type ConstantReader interface {
    TypeOf(obj Constant) (string, bool)
    ReadField(recv Constant, field FieldRef) (Constant, Availability)
    ReadArrayElement(array Constant, index int) (Constant, Availability)
    ArrayLength(array Constant) (int, bool)
}

// FoldRead tells what constant a Load node would evaluate to, according to
// the heap snapshot. It never changes the graph.
func FoldRead(g *Graph, id ID, reader ConstantReader) (Constant, Availability) {
    p := g.Node(id)
    if !p.IsAlive() || p.Kind != KLoad {
        return Constant{}, NotConstant
    }

    /* only reads through a computed address are considered */
    addr := g.nodes[p.inputs[0]]
    if addr.Kind != KAddress {
        return Constant{}, NotConstant
    }

    /* the receiver must be a non-null constant */
    recv, ok := constantOf(g, addr.inputs[0])
    if !ok || recv.IsNull() || !recv.Object {
        return Constant{}, NotConstant
    }

    /* dispatch by the kind of access */
    if p.Access.Array {
        return foldArrayRead(g, addr, recv, reader)
    } else {
        return foldFieldRead(p, recv, reader)
    }
}

func constantOf(g *Graph, id ID) (Constant, bool) {
    switch p := g.nodes[id]; p.Kind {
        case KNull   : return ObjectConstant(0), true
        case KObject : return ObjectConstant(p.Value), true
        case KConst  : return IntConstant(widthOf(p), p.Value), true
        default      : return Constant{}, false
    }
}

func foldFieldRead(p *Node, recv Constant, reader ConstantReader) (Constant, Availability) {
    if ty, ok := reader.TypeOf(recv); !ok || ty != p.Access.Field.Owner {
        return Constant{}, NotConstant
    } else {
        return reader.ReadField(recv, p.Access.Field)
    }
}

func foldArrayRead(g *Graph, addr *Node, recv Constant, reader ConstantReader) (Constant, Availability) {
    if addr.inputs[1] == None {
        return Constant{}, NotConstant
    }

    /* the index must be a known integer */
    idx, ok := g.constOf(addr.inputs[1])
    if !ok {
        return Constant{}, NotConstant
    }

    /* the receiver must be an array, and the index must be in range */
    if n, ok := reader.ArrayLength(recv); !ok || idx < 0 || idx >= int64(n) {
        return Constant{}, NotConstant
    } else {
        return reader.ReadArrayElement(recv, int(idx))
    }
}
