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

// InternalError describes a broken graph invariant. It is raised with panic
// and should only be recovered at the compilation unit boundary.
type InternalError struct {
    Unit   string
    Node   ID
    Kind   Kind
    Reason string
}

func (self *InternalError) Error() string {
    if self.Node == None {
        return fmt.Sprintf("ir: internal error in unit %q: %s", self.Unit, self.Reason)
    } else {
        return fmt.Sprintf("ir: internal error in unit %q at %s (%s): %s", self.Unit, self.Node, self.Kind, self.Reason)
    }
}

// Fatalf panics with an *InternalError that blames the node.
func (self *Graph) Fatalf(id ID, format string, args ...interface{}) {
    kind := KDead
    if id != None && int(id) < len(self.nodes) {
        kind = self.nodes[id].Kind
    }

    /* never returns */
    panic(&InternalError {
        Unit   : self.Unit,
        Node   : id,
        Kind   : kind,
        Reason : fmt.Sprintf(format, args...),
    })
}

func (self *Graph) failf(kind Kind, format string, args ...interface{}) {
    panic(&InternalError {
        Unit   : self.Unit,
        Node   : None,
        Kind   : kind,
        Reason : fmt.Sprintf(format, args...),
    })
}
