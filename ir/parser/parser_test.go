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

package parser_test

import (
	"strings"
	"testing"

	"github.com/go-quicktest/qt"

	"lowc.dev/go/ir/ast"
	"lowc.dev/go/ir/errors"
	"lowc.dev/go/ir/format"
	"lowc.dev/go/ir/parser"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		desc string
		in   string
		out  string
	}{{
		desc: "compound assignment",
		in:   "let x = 1;\nx += 2;\nx -= x * 3;",
		out:  "let x = 1;\nx = x + 2;\nx = x - x * 3;\n",
	}, {
		desc: "precedence",
		in:   "let b = (1 + 2) * 3 < 4 - -1.5;",
		out:  "let b = (1 + 2) * 3 < 4 - -1.5;\n",
	}, {
		desc: "externs first",
		in:   "let y = f(1, \"a\");\nextern f: Int;",
		out:  "extern f: Int;\nlet y = f(1, \"a\");\n",
	}, {
		desc: "attributes",
		in:   "export var e: Int = 1_000; let p @placeholder @test;",
		out:  "export var e: Int = 1000;\nlet p @placeholder @test;\n",
	}, {
		desc: "separate declaration",
		in:   "var t#1; let u = 2; t#1 = u;",
		out:  "var t#1;\nlet u = 2;\nt#1 = u;\n",
	}, {
		desc: "control flow",
		in: `var ok;
{ bubble(); } orelse { ok = false; }
let h = fn(a: Int, b) { return a; };
let r = hs(ok, 1);
while (r < 2) {}
label l { if (ok) { break l; } else if (null) { return; } else { panic("x"); } }
`,
		out: `var ok;
{
	bubble();
} orelse {
	ok = false;
}
let h = fn(a: Int, b) {
	return a;
};
let r = hs(ok, 1);
while (r < 2) {}
label l {
	if (ok) {
		break l;
	} else if (null) {
		return;
	} else {
		panic("x");
	}
}
`,
	}}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			tree, err := parser.ParseFile("test.lowc", []byte(tc.in))
			qt.Assert(t, qt.IsNil(err))
			b, err := format.File(tree)
			qt.Assert(t, qt.IsNil(err))
			qt.Assert(t, qt.Equals(string(b), tc.out))

			// Formatted output is a fixed point.
			tree, err = parser.ParseFile("test.lowc", b)
			qt.Assert(t, qt.IsNil(err))
			b2, err := format.File(tree)
			qt.Assert(t, qt.IsNil(err))
			qt.Assert(t, qt.Equals(string(b2), tc.out))
		})
	}
}

func TestDesugar(t *testing.T) {
	tree, err := parser.ParseFile("test.lowc", []byte("let x = 1;\nx += 2;"))
	qt.Assert(t, qt.IsNil(err))

	root := tree.Node(tree.Root)
	qt.Assert(t, qt.HasLen(root.List, 3))
	kinds := []ast.Kind{}
	for _, id := range root.List {
		kinds = append(kinds, tree.Node(id).Kind)
	}
	qt.Assert(t, qt.DeepEquals(kinds, []ast.Kind{ast.DeclStmt, ast.AssignStmt, ast.AssignStmt}))

	// The assignment of a declaration is positioned at the =.
	qt.Check(t, qt.Equals(tree.Node(root.List[0]).Pos.String(), "test.lowc:1:1"))
	qt.Check(t, qt.Equals(tree.Node(root.List[1]).Pos.String(), "test.lowc:1:7"))
	qt.Check(t, qt.Equals(tree.Node(root.List[2]).Pos.String(), "test.lowc:2:1"))

	x := tree.Lookup("x")
	add := tree.Node(tree.Node(root.List[2]).X)
	qt.Check(t, qt.Equals(add.Kind, ast.BinaryExpr))
	qt.Check(t, qt.Equals(tree.Node(add.X).Name, x))
	qt.Check(t, qt.Equals(tree.Node(root.List[2]).Name, x))
}

func TestNames(t *testing.T) {
	src := `
extern f: Int;
extern v: Void;
let t#1 = f();
let b = t#1 < 1;
var s = "a";
let u = v();
let h = fn(p: Bool) {};
`
	tree, err := parser.ParseFile("test.lowc", []byte(src))
	qt.Assert(t, qt.IsNil(err))

	testCases := []struct {
		name string
		kind ast.NameKind
		mut  ast.Mutability
		typ  ast.Type
	}{
		{"f", ast.External, ast.Let, ast.Int},
		{"t#1", ast.Temporary, ast.Let, ast.Int},
		{"b", ast.Source, ast.Let, ast.Bool},
		{"s", ast.Source, ast.Var, ast.String},
		{"u", ast.Source, ast.Let, ast.Void},
		{"h", ast.Source, ast.Let, ast.Fn},
		{"p", ast.Source, ast.Let, ast.Bool},
	}
	for _, tc := range testCases {
		n := tree.Name(tree.Lookup(tc.name))
		qt.Check(t, qt.Equals(n.Kind, tc.kind), qt.Commentf("%s", tc.name))
		qt.Check(t, qt.Equals(n.Mut, tc.mut), qt.Commentf("%s", tc.name))
		qt.Check(t, qt.Equals(n.Type, tc.typ), qt.Commentf("%s", tc.name))
	}
	qt.Check(t, qt.IsTrue(tree.Name(tree.Lookup("p")).Param))
}

func TestErrors(t *testing.T) {
	testCases := []struct {
		in  string
		msg string
		pos string
	}{{
		in:  "x = 1;",
		msg: "undefined: x",
		pos: "test.lowc:1:1",
	}, {
		in:  "let x; let x;",
		msg: "x redeclared",
		pos: "test.lowc:1:12",
	}, {
		in:  "extern f: Int; f = 1;",
		msg: "cannot assign to external name f",
		pos: "test.lowc:1:16",
	}, {
		in:  "let x @foo;",
		msg: "unknown attribute @foo",
		pos: "test.lowc:1:8",
	}, {
		in:  "1 = 2;",
		msg: "cannot assign to Lit",
		pos: "test.lowc:1:1",
	}, {
		in:  "let x = ;",
		msg: "expected operand, found ';'",
		pos: "test.lowc:1:9",
	}, {
		in:  "let x = 1",
		msg: "expected ';', found 'EOF'",
		pos: "test.lowc:1:10",
	}, {
		in:  "let x = -y;",
		msg: "expected number, found IDENT y",
		pos: "test.lowc:1:10",
	}}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			_, err := parser.ParseFile("test.lowc", []byte(tc.in))
			qt.Assert(t, qt.IsNotNil(err))
			errs := errors.Errors(err)
			qt.Assert(t, qt.HasLen(errs, 1))
			qt.Check(t, qt.Equals(errs[0].Error(), tc.msg))
			qt.Check(t, qt.Equals(errs[0].Position().String(), tc.pos))
		})
	}
}

func TestTooManyErrors(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("x = ;\n")
	}
	_, err := parser.ParseFile("test.lowc", []byte(b.String()))
	qt.Assert(t, qt.HasLen(errors.Errors(err), 11))

	_, err = parser.ParseFile("test.lowc", []byte(b.String()), parser.AllErrors)
	qt.Assert(t, qt.HasLen(errors.Errors(err), 20))
}
