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

package stamp

import (
    `fmt`
    `math`
)

// Kind classifies the values a Stamp describes.
type Kind uint8

const (
    KindVoid Kind = iota
    KindInt
    KindObject
    KindIllegal
    KindBottom
)

func (self Kind) String() string {
    switch self {
        case KindVoid    : return "void"
        case KindInt     : return "int"
        case KindObject  : return "object"
        case KindIllegal : return "illegal"
        case KindBottom  : return "bottom"
        default          : return fmt.Sprintf("kind(%d)", uint8(self))
    }
}

// Stamp is an immutable abstract value describing the set of runtime values
// a node can produce. Meet intersects two sets, Join unites them.
type Stamp interface {
    fmt.Stringer
    Kind() Kind
    Meet(other Stamp) Stamp
    Join(other Stamp) Stamp
    Equal(other Stamp) bool
    IsEmpty() bool
    IsUnrestricted() bool
    Generality() uint64
}

type (
    VoidStamp    struct{}
    IllegalStamp struct{}
    BottomStamp  struct{}
)

var (
    _ Stamp = VoidStamp{}
    _ Stamp = IllegalStamp{}
    _ Stamp = BottomStamp{}
    _ Stamp = IntegerStamp{}
    _ Stamp = ObjectStamp{}
)

// Void is the stamp of nodes that produce no value.
func Void() Stamp {
    return VoidStamp{}
}

// Illegal is the result of combining stamps of incompatible kinds.
func Illegal() Stamp {
    return IllegalStamp{}
}

// Bottom is the kindless empty stamp. It marks values that can never exist
// at runtime, which is how unreachable code shows up in the lattice.
func Bottom() Stamp {
    return BottomStamp{}
}

func (VoidStamp) Kind() Kind             { return KindVoid }
func (VoidStamp) String() string         { return "void" }
func (VoidStamp) IsEmpty() bool          { return false }
func (VoidStamp) IsUnrestricted() bool   { return true }
func (VoidStamp) Generality() uint64     { return 1 }
func (VoidStamp) Equal(other Stamp) bool { _, ok := other.(VoidStamp); return ok }

func (self VoidStamp) Meet(other Stamp) Stamp {
    switch other.(type) {
        case VoidStamp   : return self
        case BottomStamp : return other
        default          : return Illegal()
    }
}

func (self VoidStamp) Join(other Stamp) Stamp {
    switch other.(type) {
        case VoidStamp   : return self
        case BottomStamp : return self
        default          : return Illegal()
    }
}

func (IllegalStamp) Kind() Kind             { return KindIllegal }
func (IllegalStamp) String() string         { return "illegal" }
func (IllegalStamp) IsEmpty() bool          { return false }
func (IllegalStamp) IsUnrestricted() bool   { return false }
func (IllegalStamp) Generality() uint64     { return math.MaxUint64 }
func (IllegalStamp) Meet(Stamp) Stamp       { return Illegal() }
func (IllegalStamp) Join(Stamp) Stamp       { return Illegal() }
func (IllegalStamp) Equal(other Stamp) bool { _, ok := other.(IllegalStamp); return ok }

func (BottomStamp) Kind() Kind             { return KindBottom }
func (BottomStamp) String() string         { return "⊥" }
func (BottomStamp) IsEmpty() bool          { return true }
func (BottomStamp) IsUnrestricted() bool   { return false }
func (BottomStamp) Generality() uint64     { return 0 }
func (BottomStamp) Equal(other Stamp) bool { _, ok := other.(BottomStamp); return ok }

func (self BottomStamp) Meet(other Stamp) Stamp {
    if _, ok := other.(IllegalStamp); ok {
        return other
    } else {
        return self
    }
}

func (self BottomStamp) Join(other Stamp) Stamp {
    return other
}

// EmptyOf returns the empty stamp with the same kind (and width) as s.
func EmptyOf(s Stamp) Stamp {
    switch v := s.(type) {
        case IntegerStamp : return EmptyInt(v.bits)
        case ObjectStamp  : return EmptyObject()
        case VoidStamp    : return Bottom()
        default           : return s
    }
}

// IsLegal reports whether s can be attached to a node.
func IsLegal(s Stamp) bool {
    return s != nil && s.Kind() != KindIllegal
}

// Empty returns the bottom of the given kind. Bits is ignored for
// non-integer kinds.
func Empty(kind Kind, bits uint8) Stamp {
    switch kind {
        case KindInt     : return EmptyInt(bits)
        case KindObject  : return EmptyObject()
        case KindIllegal : return Illegal()
        default          : return Bottom()
    }
}

// Unrestricted returns the top of the given kind. Bits is ignored for
// non-integer kinds.
func Unrestricted(kind Kind, bits uint8) Stamp {
    switch kind {
        case KindInt    : return UnrestrictedInt(bits)
        case KindObject : return ObjectAny()
        case KindVoid   : return Void()
        default         : return Illegal()
    }
}
