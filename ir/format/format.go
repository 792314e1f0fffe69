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

// Package format prints trees of the lowered IR in their canonical text
// form. Printing the result of parsing a formatted file yields the same
// text.
package format

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"lowc.dev/go/ir/ast"
	"lowc.dev/go/ir/token"
)

// An Option sets behavior of the formatter.
type Option func(c *config)

// UseSpaces specifies that tabs should be converted to n spaces.
func UseSpaces(n int) Option {
	return func(c *config) { c.indent = strings.Repeat(" ", n) }
}

// OmitExterns suppresses the extern declarations at the top of a file.
func OmitExterns() Option {
	return func(c *config) { c.omitExterns = true }
}

type config struct {
	indent      string
	omitExterns bool
}

// File formats the whole tree t, starting with its extern declarations.
func File(t *ast.Tree, opts ...Option) ([]byte, error) {
	f := newFormatter(t, opts)
	if !f.omitExterns {
		for i := 1; i < len(t.Names); i++ {
			if n := &t.Names[i]; n.Kind == ast.External {
				f.printf("extern %s: %s;\n", n.Text, n.DeclaredType)
			}
		}
	}
	if t.Root != ast.NoNode {
		f.stmtList(t.Node(t.Root).List)
	}
	return f.buf.Bytes(), f.err
}

// Node formats the subtree rooted at id. Statements are terminated by a
// newline; expressions are not.
func Node(t *ast.Tree, id ast.NodeID, opts ...Option) ([]byte, error) {
	f := newFormatter(t, opts)
	if t.Node(id).Kind.IsExpr() {
		f.expr(id, token.LowestPrec)
	} else {
		f.stmtList([]ast.NodeID{id})
	}
	return f.buf.Bytes(), f.err
}

// String is like Node but returns a string and renders errors inline. It
// is meant for logging.
func String(t *ast.Tree, id ast.NodeID) string {
	b, err := Node(t, id)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return strings.TrimSuffix(string(b), "\n")
}

type formatter struct {
	config
	t     *ast.Tree
	buf   bytes.Buffer
	depth int
	err   error
}

func newFormatter(t *ast.Tree, opts []Option) *formatter {
	f := &formatter{t: t, config: config{indent: "\t"}}
	for _, o := range opts {
		o(&f.config)
	}
	return f
}

func (f *formatter) printf(format string, args ...any) {
	fmt.Fprintf(&f.buf, format, args...)
}

func (f *formatter) line() {
	for i := 0; i < f.depth; i++ {
		f.buf.WriteString(f.indent)
	}
}

func (f *formatter) errorf(id ast.NodeID, format string, args ...any) {
	if f.err == nil {
		f.err = fmt.Errorf("format: node %d: %s", id, fmt.Sprintf(format, args...))
	}
}

func (f *formatter) stmtList(list []ast.NodeID) {
	for i := 0; i < len(list); i++ {
		id := list[i]
		n := f.t.Node(id)
		f.line()
		if n.Kind == ast.DeclStmt && i+1 < len(list) {
			if next := f.t.Node(list[i+1]); next.Kind == ast.AssignStmt && next.Name == n.Name {
				f.decl(n)
				f.buf.WriteString(" = ")
				f.expr(next.X, token.LowestPrec)
				f.buf.WriteString(";\n")
				i++
				continue
			}
		}
		f.stmt(id)
		f.buf.WriteByte('\n')
	}
}

func (f *formatter) block(id ast.NodeID) {
	n := f.t.Node(id)
	if n.Kind != ast.BlockStmt {
		f.errorf(id, "expected block, found %s", n.Kind)
		return
	}
	if len(n.List) == 0 {
		f.buf.WriteString("{}")
		return
	}
	f.buf.WriteString("{\n")
	f.depth++
	f.stmtList(n.List)
	f.depth--
	f.line()
	f.buf.WriteString("}")
}

func (f *formatter) decl(n *ast.Node) {
	name := f.t.Name(n.Name)
	if name.Exported {
		f.buf.WriteString("export ")
	}
	f.printf("%s %s", name.Mut, name.Text)
	if name.DeclaredType != ast.Unknown {
		f.printf(": %s", name.DeclaredType)
	}
	if name.Placeholder {
		f.buf.WriteString(" @placeholder")
	}
	if name.Reach == ast.ReachTest {
		f.buf.WriteString(" @test")
	}
}

func (f *formatter) stmt(id ast.NodeID) {
	n := f.t.Node(id)
	switch n.Kind {
	case ast.BlockStmt:
		f.block(id)
	case ast.DeclStmt:
		f.decl(n)
		f.buf.WriteString(";")
	case ast.AssignStmt:
		f.printf("%s = ", f.t.Text(n.Name))
		f.expr(n.X, token.LowestPrec)
		f.buf.WriteString(";")
	case ast.ExprStmt:
		f.expr(n.X, token.LowestPrec)
		f.buf.WriteString(";")
	case ast.IfStmt:
		f.buf.WriteString("if (")
		f.expr(n.X, token.LowestPrec)
		f.buf.WriteString(") ")
		f.block(n.Body)
		if n.Else != ast.NoNode {
			f.buf.WriteString(" else ")
			f.stmt(n.Else)
		}
	case ast.WhileStmt:
		f.buf.WriteString("while (")
		f.expr(n.X, token.LowestPrec)
		f.buf.WriteString(") ")
		f.block(n.Body)
	case ast.LabeledStmt:
		f.printf("label %s ", n.Label)
		f.block(n.Body)
	case ast.BreakStmt:
		f.printf("break %s;", n.Label)
	case ast.BubbleStmt:
		f.buf.WriteString("bubble();")
	case ast.ReturnStmt:
		if n.X == ast.NoNode {
			f.buf.WriteString("return;")
			return
		}
		f.buf.WriteString("return ")
		f.expr(n.X, token.LowestPrec)
		f.buf.WriteString(";")
	case ast.OrElseStmt:
		f.block(n.Body)
		f.buf.WriteString(" orelse ")
		f.block(n.Else)
	default:
		f.errorf(id, "unexpected %s in statement position", n.Kind)
	}
}

func (f *formatter) expr(id ast.NodeID, prec int) {
	n := f.t.Node(id)
	switch n.Kind {
	case ast.BasicLit:
		f.buf.WriteString(n.Value)
	case ast.Ident:
		f.buf.WriteString(f.t.Text(n.Name))
	case ast.CallExpr:
		f.expr(n.X, token.HighestPrec+1)
		f.buf.WriteByte('(')
		for i, a := range n.List {
			if i > 0 {
				f.buf.WriteString(", ")
			}
			f.expr(a, token.LowestPrec)
		}
		f.buf.WriteByte(')')
	case ast.BinaryExpr:
		p := n.Op.Precedence()
		if p < prec {
			f.buf.WriteByte('(')
		}
		f.expr(n.X, p)
		f.printf(" %s ", n.Op)
		f.expr(n.Y, p+1)
		if p < prec {
			f.buf.WriteByte(')')
		}
	case ast.HsExpr:
		f.printf("hs(%s, ", f.t.Text(n.Name))
		f.expr(n.X, token.LowestPrec)
		f.buf.WriteByte(')')
	case ast.FuncLit:
		f.buf.WriteString("fn(")
		for i, p := range n.Params {
			if i > 0 {
				f.buf.WriteString(", ")
			}
			name := f.t.Name(p)
			f.buf.WriteString(name.Text)
			if name.DeclaredType != ast.Unknown {
				f.printf(": %s", name.DeclaredType)
			}
		}
		f.buf.WriteString(") ")
		f.block(n.Body)
	case ast.FailExpr:
		f.printf("panic(%s)", strconv.Quote(n.Value))
	default:
		f.errorf(id, "unexpected %s in expression position", n.Kind)
	}
}
