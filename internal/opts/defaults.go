/*
 * Copyright 2022 CloudWeGo Authors
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

package opts

import (
	"os"
	"runtime"
	"strconv"
)

const (
	_DefaultMaxCanonIterations = 1 << 20 // cutoff at 1M work-list pops per unit
	_DefaultBarrierPolicy      = "card"  // serial collector card marking
)

var (
	MaxCanonIterations = parseOrDefault("IRGRAPH_MAX_CANON_ITERATIONS", _DefaultMaxCanonIterations, 16)
	Workers            = parseOrDefault("IRGRAPH_WORKERS", runtime.GOMAXPROCS(0), 0)
	BarrierPolicy      = stringOrDefault("IRGRAPH_BARRIER_POLICY", _DefaultBarrierPolicy)
	Debug              = os.Getenv("IRGRAPH_DEBUG") != ""
)

func parseOrDefault(key string, def int, min int) int {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseUint(env, 0, 64); err != nil {
		panic("irgraph: invalid value for " + key)
	} else if ret := int(val); ret <= min {
		panic("irgraph: value too small for " + key)
	} else {
		return ret
	}
}

func stringOrDefault(key string, def string) string {
	if env := os.Getenv(key); env == "" {
		return def
	} else {
		return env
	}
}
