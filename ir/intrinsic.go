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

// DimensionElemSize is the size in bytes of each element of a Dimensions
// array.
const DimensionElemSize = 4

// NewDimensions inserts an intrinsic that reserves a transient stack array
// holding rank 32-bit dimensions, and produces its address. A negative rank
// is rejected here, never at lowering time.
func (self *Graph) NewDimensions(after ID, rank int) ID {
    if rank < 0 {
        self.failf(KDimensions, "negative rank for dimensions: %d", rank)
    }

    /* create the intrinsic */
    id := self.AddFixed(after, KDimensions, stamp.Word())
    self.nodes[id].Value = int64(rank)
    return id
}

// Rank returns the number of dimensions reserved by a Dimensions node.
func (self *Node) Rank() int {
    if self.Kind != KDimensions {
        panic("ir: not a dimensions intrinsic: " + self.Kind.String())
    }
    return int(self.Value)
}
