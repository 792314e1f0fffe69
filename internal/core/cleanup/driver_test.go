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

package cleanup_test

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"sort"
	"testing"

	"github.com/VictoriaMetrics/metrics"
	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"
	"github.com/rogpeppe/go-internal/txtar"

	"lowc.dev/go/internal/core/cleanup"
	"lowc.dev/go/internal/core/rw"
	"lowc.dev/go/internal/lowdebug"
	"lowc.dev/go/ir/ast"
	"lowc.dev/go/ir/format"
	"lowc.dev/go/ir/parser"
	"lowc.dev/go/ir/token"
)

// extra holds inputs that exercise loops and closures, in addition to the
// inputs of the golden tests.
var extra = map[string]string{
	"loop": `
extern c: Bool;
extern f: Int;
extern g: Void;
var i = 0;
while (c) {
	var t#1 = f();
	i = t#1;
}
g(i);
`,
	"closure": `
extern g: Void;
var t#1 = 1;
let h = fn(a) {
	g(t#1, a);
};
h(2);
`,
	"return": `
extern f: Int;
let k = fn(b: Bool) {
	var t#1 = f();
	if (b) {
		return t#1;
	}
	return 0;
};
k(true);
`,
}

// inputs returns the valid inputs of testdata and extra, keyed by name.
func inputs(t *testing.T) map[string]*ast.Tree {
	t.Helper()
	files, err := filepath.Glob("testdata/*.txtar")
	qt.Assert(t, qt.IsNil(err))
	m := map[string]*ast.Tree{}
	for _, file := range files {
		a, err := txtar.ParseFile(file)
		qt.Assert(t, qt.IsNil(err))
		for _, f := range a.Files {
			if f.Name != "in.lowc" {
				continue
			}
			tree, err := parser.ParseFile(f.Name, f.Data)
			qt.Assert(t, qt.IsNil(err), qt.Commentf("%s", file))
			if cleanup.Check(tree) == nil {
				m[filepath.Base(file)] = tree
			}
		}
	}
	for name, src := range extra {
		tree, err := parser.ParseFile(name+".lowc", []byte(src))
		qt.Assert(t, qt.IsNil(err), qt.Commentf("%s", name))
		m[name] = tree
	}
	return m
}

func names(m map[string]*ast.Tree) []string {
	var a []string
	for k := range m {
		a = append(a, k)
	}
	sort.Strings(a)
	return a
}

func run(t *testing.T, tree *ast.Tree) *cleanup.Result {
	t.Helper()
	res, err := cleanup.Run(tree, &cleanup.Options{Metrics: metrics.NewSet()})
	qt.Assert(t, qt.IsNil(err))
	return res
}

func src(t *testing.T, tree *ast.Tree) string {
	t.Helper()
	b, err := format.File(tree)
	qt.Assert(t, qt.IsNil(err))
	return string(b)
}

func TestIdempotent(t *testing.T) {
	m := inputs(t)
	for _, name := range names(m) {
		t.Run(name, func(t *testing.T) {
			first := run(t, m[name])
			second := run(t, first.Tree)
			qt.Check(t, qt.HasLen(second.Rounds, 0))
			qt.Check(t, qt.HasLen(second.Swept, 0))
			qt.Check(t, qt.HasLen(second.Diagnostics, 0))
			qt.Check(t, qt.Equals(src(t, second.Tree), src(t, first.Tree)))
		})
	}
}

// TestRounds checks that every round makes progress on some name. Repairs
// and void splits each take a round of their own before the name can be
// removed.
func TestRounds(t *testing.T) {
	m := inputs(t)
	for _, name := range names(m) {
		t.Run(name, func(t *testing.T) {
			tree := m[name]
			res := run(t, tree)
			bound := len(rw.Build(tree).Locals) + len(res.Diagnostics)
			for _, r := range res.Rounds {
				for _, e := range r.Edits {
					if _, ok := e.(cleanup.SplitVoidAssignment); ok {
						bound++
					}
				}
			}
			qt.Check(t, qt.IsTrue(len(res.Rounds) <= max(bound, 1)),
				qt.Commentf("%d rounds", len(res.Rounds)))
			for i, r := range res.Rounds {
				qt.Check(t, qt.Equals(r.N, i+1))
				qt.Check(t, qt.Not(qt.HasLen(r.Edits, 0)))
			}
		})
	}
}

// effects lists the callees of the calls that may execute, in evaluation
// order.
func effects(tree *ast.Tree) []string {
	tab := rw.Build(tree)
	var a []string
	ast.Walk(tree, tree.Root, func(id ast.NodeID) bool {
		return !tab.IsDead(id)
	}, func(id ast.NodeID) {
		if n := tree.Node(id); n.Kind == ast.CallExpr {
			a = append(a, format.String(tree, n.X))
		}
	})
	return a
}

func TestEffectOrder(t *testing.T) {
	m := inputs(t)
	for _, name := range names(m) {
		t.Run(name, func(t *testing.T) {
			tree := m[name]
			res := run(t, tree)
			if diff := cmp.Diff(effects(tree), effects(res.Tree)); diff != "" {
				t.Errorf("effects changed (-before +after):\n%s", diff)
			}
		})
	}
}

func TestNoVoidStores(t *testing.T) {
	m := inputs(t)
	for _, name := range names(m) {
		t.Run(name, func(t *testing.T) {
			out := run(t, m[name]).Tree
			ast.Inspect(out, func(id ast.NodeID) bool {
				n := out.Node(id)
				if n.Kind != ast.AssignStmt {
					return true
				}
				x := out.Node(n.X)
				if x.Type == ast.Void {
					qt.Check(t, qt.Equals(x.Op, token.VOID),
						qt.Commentf("%s", format.String(out, id)))
				}
				return true
			})
		})
	}
}

func TestExportedNamesKept(t *testing.T) {
	m := inputs(t)
	for _, name := range names(m) {
		t.Run(name, func(t *testing.T) {
			tree := m[name]
			out := run(t, tree).Tree
			want := map[string]bool{}
			for i := 1; i < len(tree.Names); i++ {
				if n := tree.Names[i]; n.Exported {
					want[n.Text] = true
				}
			}
			got := map[string]bool{}
			ast.Inspect(out, func(id ast.NodeID) bool {
				if n := out.Node(id); n.Kind == ast.DeclStmt && out.Name(n.Name).Exported {
					got[out.Text(n.Name)] = true
				}
				return true
			})
			qt.Check(t, qt.DeepEquals(got, want))
		})
	}
}

func TestInputNotModified(t *testing.T) {
	// Strict mode also compares each input with its formatting before the
	// round, panicking on a difference.
	qt.Assert(t, qt.IsNil(lowdebug.Init()))
	saved := lowdebug.Flags
	t.Cleanup(func() { lowdebug.Flags = saved })
	lowdebug.Flags.Strict = true

	m := inputs(t)
	for _, name := range names(m) {
		t.Run(name, func(t *testing.T) {
			tree := m[name]
			before := src(t, tree)

			type generation struct {
				tree *ast.Tree
				src  string
			}
			var seen []generation
			_, err := cleanup.Run(tree, &cleanup.Options{
				Metrics: metrics.NewSet(),
				Observe: func(info *cleanup.RoundInfo) {
					seen = append(seen, generation{info.Tree, src(t, info.Tree)})
				},
			})
			qt.Assert(t, qt.IsNil(err))

			qt.Check(t, qt.Equals(src(t, tree), before))
			for _, g := range seen {
				qt.Check(t, qt.Equals(src(t, g.tree), g.src))
			}
		})
	}
}

func TestObserveTable(t *testing.T) {
	tree, err := parser.ParseFile("in.lowc", []byte("var t#1 = 1;\nlet x = t#1;\n"))
	qt.Assert(t, qt.IsNil(err))

	var tables []string
	res, err := cleanup.Run(tree, &cleanup.Options{
		Metrics: metrics.NewSet(),
		Observe: func(info *cleanup.RoundInfo) {
			tables = append(tables, info.Table.String())
		},
	})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(tables, len(res.Rounds)))
	qt.Check(t, qt.StringContains(tables[0], "W(t#1 A @ 1:9)"))
	qt.Check(t, qt.StringContains(tables[0], "R(t#1 @ 2:9)"))
}

func TestMaxRounds(t *testing.T) {
	tree, err := parser.ParseFile("in.lowc", []byte(extra["loop"]))
	qt.Assert(t, qt.IsNil(err))

	set := metrics.NewSet()
	_, err = cleanup.Run(tree, &cleanup.Options{MaxRounds: 1, Metrics: set})
	qt.Assert(t, qt.IsNil(err))

	tree, err = parser.ParseFile("in.lowc", []byte(`
var t#1 = 1;
var t#2 = t#1;
var t#3 = t#2;
t#3 + 1;
`))
	qt.Assert(t, qt.IsNil(err))
	_, err = cleanup.Run(tree, &cleanup.Options{MaxRounds: 1, Metrics: set})
	qt.Assert(t, qt.ErrorMatches(err, `cleanup: no fixpoint after 1 rounds`))
	qt.Check(t, qt.Equals(set.GetOrCreateCounter(`lowc_cleanup_failures_total`).Get(), uint64(1)))
}

func TestMetrics(t *testing.T) {
	tree, err := parser.ParseFile("in.lowc", []byte(`
extern f: Int;
extern g: Void;
var t#1 = f();
var t#2 = t#1;
g(t#2);
let x = 0;
x = 1;
`))
	qt.Assert(t, qt.IsNil(err))

	set := metrics.NewSet()
	res, err := cleanup.Run(tree, &cleanup.Options{Metrics: set})
	qt.Assert(t, qt.IsNil(err))

	get := func(name string) uint64 {
		return set.GetOrCreateCounter(name).Get()
	}
	qt.Check(t, qt.Equals(get(`lowc_cleanup_runs_total`), 1))
	qt.Check(t, qt.Equals(get(`lowc_cleanup_rounds_total`), uint64(len(res.Rounds))))
	qt.Check(t, qt.Equals(get(`lowc_cleanup_edits_total{kind="InlineAtSoleRead"}`), 2))
	qt.Check(t, qt.Equals(get(`lowc_cleanup_edits_total{kind="PromoteToVar"}`), 1))
	qt.Check(t, qt.Equals(get(`lowc_cleanup_edits_total{kind="DeclareNoOp"}`), 2))
	qt.Check(t, qt.Equals(get(`lowc_cleanup_diagnostics_total{kind="IllegalReassignment"}`), 1))
	qt.Check(t, qt.Equals(get(`lowc_cleanup_failures_total`), 0))

	var b bytes.Buffer
	set.WritePrometheus(&b)
	qt.Check(t, qt.StringContains(b.String(), `lowc_cleanup_runs_total 1`))
}

func TestLogging(t *testing.T) {
	qt.Assert(t, qt.IsNil(lowdebug.Init()))
	saved := lowdebug.Flags
	t.Cleanup(func() { lowdebug.Flags = saved })
	lowdebug.Flags.LogClean = 2

	tree, err := parser.ParseFile("in.lowc", []byte(extra["loop"]))
	qt.Assert(t, qt.IsNil(err))

	var b bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&b, nil))
	_, err = cleanup.Run(tree, &cleanup.Options{Logger: logger, Metrics: metrics.NewSet()})
	qt.Assert(t, qt.IsNil(err))

	out := b.String()
	qt.Check(t, qt.StringContains(out, "msg=Analyze round=1"))
	qt.Check(t, qt.StringContains(out, "msg=Sweep"))
	qt.Check(t, qt.StringContains(out, `msg="propose InlineAtSoleRead(Assign 7:10 @ Ident 8:6)" round=1`))
}

func TestCheck(t *testing.T) {
	parse := func(s string) *ast.Tree {
		tree, err := parser.ParseFile("in.lowc", []byte(s))
		qt.Assert(t, qt.IsNil(err))
		return tree
	}

	tree := parse("let x = 1;\nx;\n")
	qt.Assert(t, qt.IsNil(cleanup.Check(tree)))

	twice := tree.Clone()
	root := twice.Node(twice.Root)
	root.List = append(root.List, root.List[0])
	qt.Check(t, qt.ErrorMatches(cleanup.Check(twice), `cleanup: x is declared 2 times`))

	missing := tree.Clone()
	root = missing.Node(missing.Root)
	root.List = root.List[1:]
	qt.Check(t, qt.ErrorMatches(cleanup.Check(missing), `cleanup: x is referenced but not declared`))

	qt.Check(t, qt.ErrorMatches(cleanup.Check(parse("break out;\n")),
		`cleanup: break out outside of label out`))

	// Labels do not reach into function literals.
	qt.Check(t, qt.ErrorMatches(cleanup.Check(parse("label out {\n\tfn() {\n\t\tbreak out;\n\t};\n}\n")),
		`cleanup: break out outside of label out`))

	_, err := cleanup.Run(parse("break out;\n"), &cleanup.Options{Metrics: metrics.NewSet()})
	qt.Check(t, qt.ErrorMatches(err, `cleanup: break out outside of label out`))
}
