// Copyright 2026 The Lowc Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cleanup removes the temporaries that flow lowering introduces.
//
// Run repeats rounds of analysis, proposal and application until a round
// proposes nothing, and then removes the declarations that are no longer
// used. Each round rebuilds the use-def table of the current tree, so no
// fact is carried over from a tree generation to the next.
//
// The pass does not change which effects happen, nor their order. Reads
// before initialization and reassignments of let names are repaired and
// reported as diagnostics.
package cleanup

import (
	"bytes"
	"log/slog"

	"github.com/VictoriaMetrics/metrics"

	"lowc.dev/go/internal/core/policy"
	"lowc.dev/go/internal/core/rw"
	"lowc.dev/go/internal/lowdebug"
	"lowc.dev/go/ir/ast"
	"lowc.dev/go/ir/errors"
	"lowc.dev/go/ir/format"
	"lowc.dev/go/ir/token"
)

// Options configures a run of the pass. The zero value is ready to use.
type Options struct {
	// Logger receives the trace enabled by LOWC_DEBUG=logclean=N. The
	// default is slog.Default().
	Logger *slog.Logger

	// Observe, if not nil, is called before each round is applied.
	Observe func(*RoundInfo)

	// MaxRounds overrides LOWC_DEBUG=maxrounds.
	MaxRounds int

	// Metrics receives the counters of the run. The default is Metrics.
	Metrics *metrics.Set
}

// RoundInfo describes a round to an observer.
type RoundInfo struct {
	Round *Round
	// Tree is the generation the round applies to. It is never modified.
	Tree  *ast.Tree
	Table *rw.Snapshot
}

// Result is the outcome of Run.
type Result struct {
	Tree   *ast.Tree
	Rounds []*Round
	// Swept lists the declarations removed after the last round.
	Swept       []Edit
	Diagnostics []*LogEntry
}

// Errs returns the diagnostics as an error list sorted by position.
func (r *Result) Errs() errors.List {
	var list errors.List
	for _, e := range r.Diagnostics {
		list.Add(e)
	}
	list.Sort()
	return list
}

type state uint8

const (
	analyzing state = iota
	proposing
	applying
	sweeping
	done
)

var stateNames = [...]string{
	analyzing: "Analyze",
	proposing: "Propose",
	applying:  "Apply",
	sweeping:  "Sweep",
	done:      "Done",
}

func (s state) String() string { return stateNames[s] }

type driver struct {
	logger    *slog.Logger
	level     int
	observe   func(*RoundInfo)
	maxRounds int
	metrics   *metrics.Set

	round int
	state state
}

// Run cleans t and returns the resulting tree. t is not modified.
//
// An error is returned if t or an intermediate tree violates a structural
// invariant, or if the pass does not reach a fixpoint within the maximum
// number of rounds. Such errors indicate a bug in an earlier stage or in
// the pass itself.
func Run(t *ast.Tree, opts *Options) (*Result, error) {
	if err := lowdebug.Init(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &Options{}
	}
	d := &driver{
		logger:    opts.Logger,
		level:     lowdebug.Flags.LogClean,
		observe:   opts.Observe,
		maxRounds: opts.MaxRounds,
		metrics:   opts.Metrics,
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.maxRounds <= 0 {
		d.maxRounds = lowdebug.Flags.MaxRounds
	}
	if d.metrics == nil {
		d.metrics = Metrics
	}
	return d.run(t)
}

func (d *driver) enter(s state) {
	d.state = s
	d.logf(1, "%s", s)
}

func (d *driver) run(t *ast.Tree) (*Result, error) {
	d.count(runsTotal, 1)
	if err := Check(t); err != nil {
		d.count(failedTotal, 1)
		return nil, err
	}

	res := &Result{}
	cur := t
	for d.round = 1; ; d.round++ {
		d.enter(analyzing)
		tab := rw.Build(cur)
		if lowdebug.Flags.Tables {
			d.logf(1, "table:\n%s", tab.Snapshot())
		}

		d.enter(proposing)
		prop := Propose(tab, policy.New(tab), d.logf)
		if len(prop.Edits) == 0 {
			break
		}
		if d.round > d.maxRounds {
			d.count(failedTotal, 1)
			return nil, errors.Newf(token.NoPos,
				"cleanup: no fixpoint after %d rounds", d.maxRounds)
		}
		round := &Round{N: d.round, Edits: prop.Edits}
		if d.observe != nil {
			d.observe(&RoundInfo{Round: round, Tree: cur, Table: tab.Snapshot()})
		}

		d.enter(applying)
		next, err := d.apply(cur, round.Edits)
		if err != nil {
			return nil, err
		}
		d.logf(1, "%d edits, %d deferred", len(round.Edits), prop.Deferred)
		for _, e := range prop.Diagnostics {
			d.count(diagnosticsTotal(e.Kind), 1)
			d.logf(1, "%s: %s", e.Kind, e.Message)
		}
		d.count(roundsTotal, 1)
		res.Rounds = append(res.Rounds, round)
		res.Diagnostics = append(res.Diagnostics, prop.Diagnostics...)
		cur = next
	}

	d.enter(sweeping)
	tab := rw.Build(cur)
	res.Swept = Sweep(tab, policy.New(tab))
	if len(res.Swept) > 0 {
		next, err := d.apply(cur, res.Swept)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	d.enter(done)
	res.Tree = cur
	return res, nil
}

// apply applies edits to t and checks the result.
func (d *driver) apply(t *ast.Tree, edits []Edit) (*ast.Tree, error) {
	var before []byte
	if lowdebug.Flags.Strict {
		before, _ = format.File(t)
	}
	next, err := Apply(t, edits)
	if before != nil {
		after, _ := format.File(t)
		d.assertf(bytes.Equal(before, after), "round %d modified its input", d.round)
	}
	if err == nil {
		err = Check(next)
	}
	if err != nil {
		d.count(failedTotal, 1)
		return nil, errors.Wrapf(err, token.NoPos, "cleanup: %s in round %d", d.state, d.round)
	}
	for _, e := range edits {
		d.count(editsTotal(e.Kind()), 1)
	}
	return next, nil
}
