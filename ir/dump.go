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

    `github.com/davecgh/go-spew/spew`
)

func (self *Block) String() string {
    return fmt.Sprintf("bb_%d", self.Id)
}

func blockList(bbs []*Block) string {
    ret := make([]string, len(bbs))
    for i, bb := range bbs {
        ret[i] = bb.String()
    }
    return strings.Join(ret, ", ")
}

// String dumps the graph in a deterministic textual form: floating nodes
// first, then every block with its phis and its fixed chain.
func (self *Graph) String() string {
    var sb strings.Builder
    fmt.Fprintf(&sb, "unit %s\n", self.Unit)

    /* floating nodes, phis are listed with their blocks */
    for _, p := range self.FloatingNodes() {
        if p.Kind != KPhi && p.Kind != KDead {
            fmt.Fprintf(&sb, "    %s\n", p)
        }
    }

    /* blocks */
    for _, bb := range self.Blocks() {
        fmt.Fprintf(&sb, "%s:", bb)
        if len(bb.Preds) != 0 {
            fmt.Fprintf(&sb, " ; preds = %s", blockList(bb.Preds))
        }

        /* phis and the fixed chain */
        sb.WriteByte('\n')
        for _, v := range bb.Phis {
            fmt.Fprintf(&sb, "    %s\n", self.nodes[v])
        }
        for _, p := range self.FixedNodes(bb) {
            fmt.Fprintf(&sb, "    %s", p)
            if p.IsTerminal() && len(bb.Succs) != 0 {
                fmt.Fprintf(&sb, " -> %s", blockList(bb.Succs))
            }
            sb.WriteByte('\n')
        }
    }
    return sb.String()
}

type _NodeDump struct {
    Id     ID
    Kind   string
    Stamp  string
    Inputs []ID
    Usages []ID
    Block  int
}

var _dumpConfig = spew.ConfigState {
    Indent                  : "    ",
    DisablePointerAddresses : true,
    DisableCapacities       : true,
    SortKeys                : true,
}

// Dump returns a verbose dump of every live node, including usage lists and
// block membership. It is meant for debugging.
func (self *Graph) Dump() string {
    var ret []_NodeDump
    for _, p := range self.Nodes() {
        bb := -1
        if p.block != nil {
            bb = p.block.Id
        }

        /* flatten the node */
        ret = append(ret, _NodeDump {
            Id     : p.Id,
            Kind   : p.Kind.String(),
            Stamp  : p.st.String(),
            Inputs : p.inputs,
            Usages : p.usages,
            Block  : bb,
        })
    }
    return _dumpConfig.Sdump(ret)
}
