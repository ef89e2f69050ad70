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

// ObjectStamp describes a heap reference: possibly null, known non-null,
// known null, or empty when both facts hold at once.
type ObjectStamp struct {
    nonNull    bool
    alwaysNull bool
}

func ObjectAny() ObjectStamp     { return ObjectStamp{} }
func ObjectNonNull() ObjectStamp { return ObjectStamp { nonNull: true } }
func ObjectNull() ObjectStamp    { return ObjectStamp { alwaysNull: true } }
func EmptyObject() ObjectStamp   { return ObjectStamp { nonNull: true, alwaysNull: true } }

func (self ObjectStamp) Kind() Kind           { return KindObject }
func (self ObjectStamp) IsEmpty() bool        { return self.nonNull && self.alwaysNull }
func (self ObjectStamp) IsUnrestricted() bool { return !self.nonNull && !self.alwaysNull }
func (self ObjectStamp) IsNonNull() bool      { return self.nonNull && !self.alwaysNull }
func (self ObjectStamp) IsAlwaysNull() bool   { return self.alwaysNull && !self.nonNull }

func (self ObjectStamp) Generality() uint64 {
    switch {
        case self.IsEmpty()      : return 0
        case self.IsAlwaysNull() : return 1
        case self.IsNonNull()    : return 2
        default                  : return 3
    }
}

func (self ObjectStamp) String() string {
    switch {
        case self.IsEmpty()      : return "object ⊥"
        case self.IsAlwaysNull() : return "object null"
        case self.IsNonNull()    : return "object !null"
        default                  : return "object"
    }
}

func (self ObjectStamp) Equal(other Stamp) bool {
    v, ok := other.(ObjectStamp)
    return ok && v == self
}

func (self ObjectStamp) Meet(other Stamp) Stamp {
    switch v := other.(type) {
        case BottomStamp  : return EmptyObject()
        case ObjectStamp  : return ObjectStamp { nonNull: self.nonNull || v.nonNull, alwaysNull: self.alwaysNull || v.alwaysNull }
        default           : return Illegal()
    }
}

func (self ObjectStamp) Join(other Stamp) Stamp {
    switch v := other.(type) {
        case BottomStamp: {
            return self
        }

        /* an empty stamp contributes nothing to the union */
        case ObjectStamp: {
            if self.IsEmpty() {
                return v
            } else if v.IsEmpty() {
                return self
            } else {
                return ObjectStamp { nonNull: self.nonNull && v.nonNull, alwaysNull: self.alwaysNull && v.alwaysNull }
            }
        }

        /* incompatible stamps */
        default: {
            return Illegal()
        }
    }
}
