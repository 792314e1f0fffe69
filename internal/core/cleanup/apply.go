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
	"fmt"
	"slices"

	"lowc.dev/go/ir/ast"
	"lowc.dev/go/ir/errors"
	"lowc.dev/go/ir/token"
)

// Apply returns the tree that results from applying edits to t. The edits
// are trusted to be safe and mutually disjoint; Apply only checks that they
// refer to nodes it can rewrite. t is not modified.
func Apply(t *ast.Tree, edits []Edit) (*ast.Tree, error) {
	a := &applier{
		src:    t,
		t:      t.Clone(),
		index:  ast.NewIndex(t),
		remove: map[ast.NodeID]bool{},
		before: map[ast.NodeID][]ast.NodeID{},
		blocks: map[ast.NodeID]bool{},
	}
	for _, e := range edits {
		if err := a.apply(e); err != nil {
			return nil, err
		}
	}
	a.splice()
	return a.t, nil
}

type applier struct {
	src   *ast.Tree
	t     *ast.Tree
	index *ast.Index

	// remove holds the statements to drop and before the statements to
	// insert ahead of a statement, keyed by the statement. blocks holds
	// the blocks whose lists change.
	remove map[ast.NodeID]bool
	before map[ast.NodeID][]ast.NodeID
	blocks map[ast.NodeID]bool
}

func (a *applier) errf(id ast.NodeID, format string, args ...any) error {
	return errors.Newf(a.src.Node(id).Pos, "cleanup: "+format, args...)
}

// node returns id after checking that it is reachable and of the given kind.
func (a *applier) node(id ast.NodeID, kinds ...ast.Kind) (*ast.Node, error) {
	if !a.index.Reachable(id) {
		return nil, a.errf(id, "node #%d is not in the tree", id)
	}
	n := a.t.Node(id)
	if !slices.Contains(kinds, n.Kind) {
		return nil, a.errf(id, "node #%d is %s, want one of %v", id, n.Kind, kinds)
	}
	return n, nil
}

func (a *applier) apply(e Edit) error {
	switch e := e.(type) {
	case RenameRead:
		n, err := a.node(e.Node, ast.Ident)
		if err != nil {
			return err
		}
		n.Name = e.Into

	case RenameWritten:
		n, err := a.node(e.Node, ast.AssignStmt, ast.HsExpr)
		if err != nil {
			return err
		}
		n.Name = e.Into

	case ReplaceWithNoOp:
		return a.drop(e.Stmt)

	case DeclareNoOp:
		if _, err := a.node(e.Decl, ast.DeclStmt); err != nil {
			return err
		}
		return a.drop(e.Decl)

	case DeleteUnreachable:
		return a.drop(e.Stmt)

	case SimplifyDeadStore:
		n, err := a.node(e.Stmt, ast.AssignStmt)
		if err != nil {
			return err
		}
		n.Kind = ast.ExprStmt
		n.Name = ast.NoName

	case InlineAtSoleRead:
		w, err := a.node(e.Write, ast.AssignStmt)
		if err != nil {
			return err
		}
		if _, err := a.node(e.Read, ast.Ident); err != nil {
			return err
		}
		v := *a.t.Node(w.X)
		v.List = slices.Clone(v.List)
		v.Params = slices.Clone(v.Params)
		*a.t.Node(e.Read) = v
		return a.drop(e.Write)

	case SplitVoidAssignment:
		n, err := a.node(e.Stmt, ast.AssignStmt)
		if err != nil {
			return err
		}
		pos, x := n.Pos, n.X
		stmt := a.t.Add(ast.Node{Kind: ast.ExprStmt, Pos: pos, X: x})
		void := a.t.Add(ast.Node{
			Kind:  ast.BasicLit,
			Pos:   a.t.Node(x).Pos,
			Op:    token.VOID,
			Value: "void",
			Type:  ast.Void,
		})
		// Add may have moved the nodes.
		a.t.Node(e.Stmt).X = void
		return a.insertBefore(e.Stmt, stmt)

	case ReplaceWithFailure:
		n, err := a.node(e.Read, ast.Ident)
		if err != nil {
			return err
		}
		*n = ast.Node{Kind: ast.FailExpr, Pos: n.Pos, Value: e.Message, Type: n.Type}

	case PromoteToVar:
		name := a.t.Name(e.Name)
		if !name.IsLocal() {
			return errors.Newf(name.Pos, "cleanup: cannot promote external name %s", name.Text)
		}
		name.Mut = ast.Var

	default:
		panic(fmt.Sprintf("unknown edit %T", e))
	}
	return nil
}

// block returns the block holding the statement id.
func (a *applier) block(id ast.NodeID) (ast.NodeID, error) {
	if !a.index.Reachable(id) {
		return 0, a.errf(id, "node #%d is not in the tree", id)
	}
	b := a.index.Parent(id)
	if a.t.Node(b).Kind != ast.BlockStmt {
		return 0, a.errf(id, "%s is not in a block", a.t.Node(id).Kind)
	}
	a.blocks[b] = true
	return b, nil
}

func (a *applier) drop(id ast.NodeID) error {
	if _, err := a.block(id); err != nil {
		return err
	}
	a.remove[id] = true
	return nil
}

func (a *applier) insertBefore(id, stmt ast.NodeID) error {
	if _, err := a.block(id); err != nil {
		return err
	}
	a.before[id] = append(a.before[id], stmt)
	return nil
}

// splice rewrites the lists of the changed blocks.
func (a *applier) splice() {
	for b := range a.blocks {
		n := a.t.Node(b)
		list := make([]ast.NodeID, 0, len(n.List))
		for _, s := range n.List {
			list = append(list, a.before[s]...)
			if !a.remove[s] {
				list = append(list, s)
			}
		}
		n.List = list
	}
}
