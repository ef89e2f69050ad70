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
    `github.com/cloudwego/irgraph/stamp`
)

// NewSerialWriteBarrier inserts the post-write barrier of a serial
// collector after the given fixed node. The stored value is unknown.
func (self *Graph) NewSerialWriteBarrier(after ID, address ID, precise bool) ID {
    return self.NewWriteBarrier(after, PostBarrier, address, None, precise)
}

// NewWriteBarrier inserts a barrier guarding a heap write through address
// after the given fixed node. The value may be None when it is not known.
func (self *Graph) NewWriteBarrier(after ID, kind BarrierKind, address ID, value ID, precise bool) ID {
    if address == None {
        self.Fatalf(after, "barrier without an address")
    }

    /* create the barrier */
    id := self.AddFixed(after, KWriteBarrier, stamp.Void(), address, value)
    self.nodes[id].Barrier = BarrierAttr { Kind: kind, Precise: precise }
    return id
}

// NewVerifyBarrier inserts a barrier that only checks the collector
// invariant instead of maintaining it.
func (self *Graph) NewVerifyBarrier(after ID, address ID, precise bool) ID {
    id := self.NewSerialWriteBarrier(after, address, precise)
    self.nodes[id].Barrier.VerifyOnly = true
    return id
}

// BarrierAddress returns the address guarded by a barrier.
func (self *Graph) BarrierAddress(id ID) ID {
    return self.barrier(id).inputs[0]
}

// BarrierValue returns the stored value a barrier refers to, or None.
func (self *Graph) BarrierValue(id ID) ID {
    return self.barrier(id).inputs[1]
}

// BarrierBase returns the object a barrier guards. It is the base of the
// address when the address is computed from an object.
func (self *Graph) BarrierBase(id ID) ID {
    return self.AddressBase(self.BarrierAddress(id))
}

// AddressBase returns the object an address points into, or the address
// itself when it is not computed from an object.
func (self *Graph) AddressBase(addr ID) ID {
    if p := self.nodes[addr]; p.Kind == KAddress {
        return p.inputs[0]
    } else {
        return p.Id
    }
}

func (self *Graph) isAlwaysNull(id ID) bool {
    st, ok := self.nodes[id].st.(stamp.ObjectStamp)
    return ok && st.IsAlwaysNull()
}

func (self *Graph) barrier(id ID) *Node {
    if p := self.live(id, id); p.Kind != KWriteBarrier {
        self.Fatalf(id, "not a write barrier")
        return nil
    } else {
        return p
    }
}
