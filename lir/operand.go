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
)

// Role is how an operation accesses an operand.
type Role uint8

const (
    Use Role = iota
    Def
    Temp
)

func (self Role) String() string {
    switch self {
        case Use  : return "use"
        case Def  : return "def"
        case Temp : return "temp"
        default   : return "???"
    }
}

// Flags is the set of storage classes an operand may be assigned.
type Flags uint8

const (
    REG Flags = 1 << iota
    STACK
    ILLEGAL
    CONST
)

func (self Flags) String() string {
    var ret []string
    if self & REG     != 0 { ret = append(ret, "REG") }
    if self & STACK   != 0 { ret = append(ret, "STACK") }
    if self & ILLEGAL != 0 { ret = append(ret, "ILLEGAL") }
    if self & CONST   != 0 { ret = append(ret, "CONST") }
    return strings.Join(ret, "|")
}

// Operand is a value slot of an operation, with the constraints the
// register allocator has to satisfy.
type Operand struct {
    Role  Role
    Flags Flags
    Value Value
}

func (self Operand) String() string {
    return fmt.Sprintf("%s[%s] %s", self.Role, self.Flags, self.Value)
}

// Check reports whether the operand value is allowed by its flags.
func (self Operand) Check() error {
    var need Flags
    switch self.Value.(type) {
        case Variable     : need = REG | STACK
        case StackSlot    : need = STACK
        case Immediate    : need = CONST
        case IllegalValue : need = ILLEGAL
        default           : return fmt.Errorf("invalid operand value: %v", self.Value)
    }

    /* definitions cannot be constants or absent */
    if self.Role != Use && self.Flags & (CONST | ILLEGAL) != 0 {
        return fmt.Errorf("%s operand cannot be %s", self.Role, self.Flags)
    } else if self.Flags & need == 0 {
        return fmt.Errorf("%s is not allowed for %s", self.Value, self.Flags)
    } else {
        return nil
    }
}

func use(flags Flags, v Value) Operand {
    return Operand { Role: Use, Flags: flags, Value: v }
}

func def(v Variable) Operand {
    return Operand { Role: Def, Flags: REG, Value: v }
}
