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

package cleanup

import (
	"slices"

	"github.com/mpvl/unique"

	"lowc.dev/go/ir/ast"
	"lowc.dev/go/ir/errors"
)

// Check verifies the structural invariants that every generation of a tree
// must satisfy:
//
//   - each break refers to an enclosing label of the same function,
//   - each local name that is referenced is declared exactly once, or is a
//     parameter.
//
// It only considers nodes reachable from the root.
func Check(t *ast.Tree) error {
	c := &checker{t: t, decls: map[ast.NameID]int{}}
	ast.Walk(t, t.Root, c.before, c.after)

	var missing []string
	for _, n := range c.refs {
		name := t.Name(n)
		if name.Param || c.decls[n] > 0 {
			continue
		}
		missing = append(missing, name.Text)
	}
	unique.Strings(&missing)
	for _, text := range missing {
		c.errs.AddNewf(t.Name(t.Lookup(text)).Pos, "cleanup: %s is referenced but not declared", text)
	}
	for n, k := range c.decls {
		if k > 1 {
			c.errs.AddNewf(t.Name(n).Pos, "cleanup: %s is declared %d times", t.Text(n), k)
		}
	}
	c.errs.Sort()
	return c.errs.Err()
}

type checker struct {
	t      *ast.Tree
	labels []string
	saved  [][]string
	decls  map[ast.NameID]int
	refs   []ast.NameID
	errs   errors.List
}

func (c *checker) ref(id ast.NodeID, name ast.NameID) {
	if name == ast.NoName {
		c.errs.AddNewf(c.t.Node(id).Pos, "cleanup: %s without a name", c.t.Node(id).Kind)
		return
	}
	if c.t.Name(name).IsLocal() {
		c.refs = append(c.refs, name)
	}
}

func (c *checker) before(id ast.NodeID) bool {
	n := c.t.Node(id)
	switch n.Kind {
	case ast.BadNode:
		c.errs.AddNewf(n.Pos, "cleanup: bad node #%d", id)
	case ast.DeclStmt:
		c.decls[n.Name]++
	case ast.Ident, ast.AssignStmt, ast.HsExpr:
		c.ref(id, n.Name)
	case ast.LabeledStmt:
		c.labels = append(c.labels, n.Label)
	case ast.BreakStmt:
		if !slices.Contains(c.labels, n.Label) {
			c.errs.AddNewf(n.Pos, "cleanup: break %s outside of label %[1]s", n.Label)
		}
	case ast.FuncLit:
		c.saved = append(c.saved, c.labels)
		c.labels = nil
	}
	return true
}

func (c *checker) after(id ast.NodeID) {
	switch c.t.Node(id).Kind {
	case ast.LabeledStmt:
		c.labels = c.labels[:len(c.labels)-1]
	case ast.FuncLit:
		c.labels = c.saved[len(c.saved)-1]
		c.saved = c.saved[:len(c.saved)-1]
	}
}
