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
	"context"
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"github.com/cloudwego/irgraph/canon"
	"github.com/cloudwego/irgraph/gc"
	"github.com/cloudwego/irgraph/internal/opts"
	"github.com/cloudwego/irgraph/ir"
	"github.com/cloudwego/irgraph/lir"
	"github.com/cloudwego/irgraph/lower"
)

// Result is the outcome of compiling one unit.
type Result struct {
	Unit    string
	Program *lir.Program
	Err     error
}

// Compile infers the stamps of g, canonicalizes it, inserts the barriers
// required by the collector policy, canonicalizes it again and lowers it.
//
// Internal consistency violations abandon the graph and are returned as
// *ir.InternalError wrapped with the stack trace, use errors.Cause to get
// the original error.
func Compile(g *ir.Graph, options ...Option) (*lir.Program, error) {
	o := opts.GetDefaultOptions()
	for _, fn := range options {
		fn(&o)
	}
	return compile(g, &o)
}

// CompileAll compiles independent units in parallel. Results are in the
// same order as graphs. Units that have not been started when ctx is done
// are abandoned with an AbandonedError.
func CompileAll(ctx context.Context, graphs []*ir.Graph, options ...Option) []Result {
	o := opts.GetDefaultOptions()
	for _, fn := range options {
		fn(&o)
	}

	/* never start more workers than units */
	nw := o.Workers
	if nw > len(graphs) {
		nw = len(graphs)
	}

	/* start the workers */
	wg := sync.WaitGroup{}
	ch := make(chan int)
	rt := make([]Result, len(graphs))
	for i := 0; i < nw; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range ch {
				rt[j].Program, rt[j].Err = compile(graphs[j], &o)
			}
		}()
	}

	/* dispatch the units until cancelled */
	for i, g := range graphs {
		rt[i].Unit = g.Unit
		if !dispatch(ctx, ch, i) {
			abandon(ctx, graphs[i:], rt[i:])
			break
		}
	}

	/* wait for the running units */
	close(ch)
	wg.Wait()
	return rt
}

func dispatch(ctx context.Context, ch chan<- int, i int) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case ch <- i:
		return true
	case <-ctx.Done():
		return false
	}
}

func abandon(ctx context.Context, graphs []*ir.Graph, rt []Result) {
	for i, g := range graphs {
		rt[i].Unit = g.Unit
		rt[i].Err = errors.WithStack(AbandonedError{Unit: g.Unit, Cause: ctx.Err()})
	}
}

func compile(g *ir.Graph, o *opts.Options) (p *lir.Program, err error) {
	policy, err := gc.PolicyByName(o.BarrierPolicy)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	/* internal errors abandon the unit */
	defer func() {
		if v := recover(); v != nil {
			if e, ok := v.(*ir.InternalError); !ok {
				panic(v)
			} else {
				slog.Warn("compilation abandoned", "unit", e.Unit, "kind", e.Kind.String(), "error", e.Reason)
				p, err = nil, errors.WithStack(e)
			}
		}
	}()

	/* optimize the graph and insert the barriers */
	cn := canon.Canonicalizer{MaxIterations: o.MaxCanonIterations}
	g.InferAll()
	cn.Apply(g)
	nb := gc.Insertion{Policy: policy}.Apply(g)
	cn.Apply(g)

	/* the graph must be consistent before lowering */
	if o.Verify {
		if err = g.Verify(); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	/* dump the graph if needed */
	if opts.Debug {
		slog.Debug("canonical graph", "unit", g.Unit, "graph", g.String())
	}

	/* lower the graph */
	p = lower.Lower(g)
	if o.Verify {
		if err = p.Validate(); err != nil {
			return nil, errors.WithStack(InvalidProgramError{Unit: g.Unit, Reason: err})
		}
	}

	/* all done */
	slog.Debug("compiled", "unit", g.Unit, "barriers", nb, "blocks", len(p.Blocks), "frame", p.Frame.Size())
	return p, nil
}
