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

package irgraph

import (
	"fmt"

	"github.com/cloudwego/irgraph/gc"
	"github.com/cloudwego/irgraph/internal/opts"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithMaxCanonIterations sets the maximum number of work-list pops the
// canonicalizer performs for one unit before giving up.
//
// Set this option to "0" disables this limit. A unit that hits the limit
// fails with an internal error.
//
// The default value of this option is "1048576".
func WithMaxCanonIterations(n int) Option {
	if n < 0 {
		panic(fmt.Sprintf("irgraph: invalid canonicalization limit: %d", n))
	} else {
		return func(o *opts.Options) { o.MaxCanonIterations = n }
	}
}

// WithWorkers sets how many units CompileAll compiles in parallel.
//
// The default value of this option is GOMAXPROCS.
func WithWorkers(n int) Option {
	if n <= 0 {
		panic(fmt.Sprintf("irgraph: invalid worker count: %d", n))
	} else {
		return func(o *opts.Options) { o.Workers = n }
	}
}

// WithBarrierPolicy selects the collector barrier policy by name, one of
// "card", "card-verify", "snapshot" or "none".
//
// The default value of this option is "card".
func WithBarrierPolicy(name string) Option {
	if _, err := gc.PolicyByName(name); err != nil {
		panic(err.Error())
	} else {
		return func(o *opts.Options) { o.BarrierPolicy = name }
	}
}

// WithVerify controls whether graphs and programs are checked for
// consistency before and after lowering.
//
// The default value of this option is "true".
func WithVerify(v bool) Option {
	return func(o *opts.Options) { o.Verify = v }
}

// SetMaxCanonIterations sets the default canonicalization limit for all
// units from now on.
//
// This value can also be configured with the `IRGRAPH_MAX_CANON_ITERATIONS`
// environment variable.
//
// Returns the old opts.MaxCanonIterations value.
func SetMaxCanonIterations(n int) int {
	n, opts.MaxCanonIterations = opts.MaxCanonIterations, n
	return n
}

// SetBarrierPolicy sets the default barrier policy for all units from now
// on.
//
// This value can also be configured with the `IRGRAPH_BARRIER_POLICY`
// environment variable.
//
// Returns the old opts.BarrierPolicy value.
func SetBarrierPolicy(name string) string {
	name, opts.BarrierPolicy = opts.BarrierPolicy, name
	return name
}
