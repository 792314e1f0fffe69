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

// Package policy decides which rewrites of a tree preserve its behavior.
//
// The predicates only read the tree and its DataTable. A denial is reported
// as one of the Err values so that callers can log why a candidate was
// dropped.
package policy

import (
	"slices"

	"lowc.dev/go/internal/core/rw"
	"lowc.dev/go/ir/ast"
	"lowc.dev/go/ir/errors"
	"lowc.dev/go/ir/token"
)

var (
	ErrRequired     = errors.New("name is required")
	ErrExported     = errors.New("target is exported")
	ErrCaptured     = errors.New("name is captured by a closure")
	ErrDeclaredLate = errors.New("target is declared after a write it would receive")
	ErrScope        = errors.New("target declaration does not enclose all uses")
	ErrType         = errors.New("declared type of target differs")
	ErrLiveness     = errors.New("copies do not preserve the values reaching a read")
	ErrUninit       = errors.New("use before initialization")
	ErrNotSole      = errors.New("write and read are not each other's only link")
	ErrNotAdjacent  = errors.New("read does not immediately follow the write")
	ErrPosition     = errors.New("read is not in an immediately evaluated position")
	ErrReorder      = errors.New("inlining would reorder effects")
	ErrValue        = errors.New("value cannot be moved")
	ErrVoid         = errors.New("value is void")
)

// A Policy answers safety questions about one tree generation.
type Policy struct {
	t   *ast.Tree
	tab *rw.DataTable
}

// New returns the policy for the tree of tab.
func New(tab *rw.DataTable) *Policy {
	return &Policy{t: tab.Tree, tab: tab}
}

// Table returns the table the policy consults.
func (p *Policy) Table() *rw.DataTable { return p.tab }

// Required reports whether name must survive the pass. Required names may
// still absorb a temporary through a rename.
func (p *Policy) Required(name ast.NameID) bool {
	n := p.t.Name(name)
	return n.Kind != ast.Temporary ||
		n.Exported ||
		n.DeclaredType != ast.Unknown ||
		n.Param ||
		n.Placeholder ||
		n.Reach != ast.ReachNone ||
		p.tab.IsCaptured(name) ||
		p.hasFlagWrite(name)
}

func (p *Policy) hasFlagWrite(name ast.NameID) bool {
	for _, w := range p.tab.Writes[name] {
		if p.tab.Write(w).Kind != rw.Assignment {
			return true
		}
	}
	return false
}

// CanDeadStore reports whether the writes of name may be dropped because
// nothing reads it.
func (p *Policy) CanDeadStore(name ast.NameID) bool {
	return len(p.tab.Reads[name]) == 0 && !p.Required(name)
}

// CanSweep reports whether the declaration of name may be deleted.
func (p *Policy) CanSweep(name ast.NameID) bool {
	n := p.t.Name(name)
	if n.Exported || n.Placeholder || n.Param || n.Reach != ast.ReachNone {
		return false
	}
	if _, ok := p.tab.Decls[name]; !ok {
		return false
	}
	return len(p.tab.Reads[name]) == 0 && len(p.tab.Writes[name]) == 0
}

// anchor returns the node that introduces name and the node whose subtree
// is the scope of name.
func (p *Policy) anchor(name ast.NameID) (decl, scope ast.NodeID) {
	if d, ok := p.tab.Decls[name]; ok {
		return d, p.tab.Index.Parent(d)
	}
	fn := p.tab.Func[name]
	return fn, fn
}

// CanRename reports whether every occurrence of from may be replaced by
// into. It does not check that values are preserved; see SameLiveness.
func (p *Policy) CanRename(from, into ast.NameID) error {
	target := p.t.Name(into)
	switch {
	case target.Exported:
		return ErrExported
	case p.tab.IsCaptured(from), p.tab.IsCaptured(into):
		return ErrCaptured
	}
	if target.DeclaredType != ast.Unknown && p.t.Name(from).Type != target.DeclaredType {
		return ErrType
	}
	decl, scope := p.anchor(into)
	if decl == ast.NoNode {
		return ErrScope
	}
	x := p.tab.Index
	for _, node := range p.occurrences(from) {
		if !x.Before(decl, node) {
			return ErrDeclaredLate
		}
		if !x.Contains(scope, node) {
			return ErrScope
		}
	}
	return nil
}

func (p *Policy) occurrences(name ast.NameID) []ast.NodeID {
	var a []ast.NodeID
	for _, w := range p.tab.Writes[name] {
		a = append(a, p.tab.Write(w).Node)
	}
	for _, r := range p.tab.Reads[name] {
		a = append(a, p.tab.Read(r).Node)
	}
	return a
}

// CopySource returns the name read by the write w if w is a copy of
// another local, as in y = x.
func (p *Policy) CopySource(w rw.WriteID) (ast.NameID, bool) {
	wr := p.tab.Write(w)
	if wr.Kind != rw.Assignment {
		return ast.NoName, false
	}
	rhs := p.t.Node(p.t.Node(wr.Node).X)
	if rhs.Kind != ast.Ident || !p.tab.IsLocal(rhs.Name) || rhs.Name == wr.Name {
		return ast.NoName, false
	}
	return rhs.Name, true
}

// SameLiveness reports whether merging the names of the copies y = x
// preserves the value seen by every read of y: the writes of x live at the
// read must be exactly those live at the copies reaching it.
func (p *Policy) SameLiveness(x, y ast.NameID) error {
	tab := p.tab
	for _, r := range tab.Reads[y] {
		if tab.Read(r).UBI {
			return ErrUninit
		}
		var want []rw.WriteID
		for _, w := range tab.Upstream[r] {
			copyRead, ok := tab.ReadAt(p.t.Node(tab.Write(w).Node).X)
			if !ok || tab.Read(copyRead).UBI {
				return ErrUninit
			}
			want = append(want, tab.Upstream[copyRead]...)
		}
		slices.Sort(want)
		want = slices.Compact(want)
		if !slices.Equal(tab.Live(r, x), want) {
			return ErrLiveness
		}
	}
	return nil
}

// NeedsVar reports whether renaming from into into makes into assigned
// while an earlier value may still be live, so that into must become a var.
func (p *Policy) NeedsVar(from, into ast.NameID) bool {
	if p.t.Name(into).Mut == ast.Var {
		return false
	}
	for _, w := range p.tab.Writes[from] {
		if src, ok := p.CopySource(w); ok && src == into {
			continue
		}
		if p.tab.Write(w).Overwrites {
			return true
		}
	}
	return false
}

// CanInline reports whether the value assigned by w may replace the read r,
// removing the write.
func (p *Policy) CanInline(w rw.WriteID, r rw.ReadID) error {
	tab := p.tab
	wr, rd := tab.Write(w), tab.Read(r)
	switch {
	case p.Required(wr.Name):
		return ErrRequired
	case rd.UBI:
		return ErrUninit
	case rd.Crossing, wr.Crossing:
		return ErrCaptured
	case wr.Kind != rw.Assignment:
		return ErrValue
	}
	if up, ok := tab.SoleUpstream(r); !ok || up != w {
		return ErrNotSole
	}
	if down, ok := tab.SoleDownstream(w); !ok || down != r {
		return ErrNotSole
	}

	x := p.t.Node(wr.Node).X
	rhs := p.t.Node(x)
	switch rhs.Kind {
	case ast.HsExpr, ast.FuncLit, ast.FailExpr, ast.BadNode:
		return ErrValue
	}
	if rhs.Type == ast.Void && !(rhs.Kind == ast.BasicLit && rhs.Op == token.VOID) {
		return ErrVoid
	}

	if !p.adjacent(wr.Node, rd.Stmt) {
		return ErrNotAdjacent
	}
	stmt := p.t.Node(rd.Stmt)
	switch stmt.Kind {
	case ast.AssignStmt, ast.ExprStmt, ast.IfStmt, ast.ReturnStmt:
	default:
		return ErrPosition
	}
	if !tab.Index.Contains(stmt.X, rd.Node) {
		return ErrPosition
	}
	if !p.safeBefore(stmt.X, rd.Node, p.flagWrites(x)) {
		return ErrReorder
	}
	return nil
}

// adjacent reports whether stmt follows the write statement w in the same
// block with only declarations in between.
func (p *Policy) adjacent(w, stmt ast.NodeID) bool {
	x := p.tab.Index
	block := x.Parent(w)
	if block == ast.NoNode || x.Parent(stmt) != block {
		return false
	}
	list := p.t.Node(block).List
	i, j := slices.Index(list, w), slices.Index(list, stmt)
	if i < 0 || j <= i {
		return false
	}
	for _, s := range list[i+1 : j] {
		if p.t.Node(s).Kind != ast.DeclStmt {
			return false
		}
	}
	return true
}

// safeBefore reports whether everything evaluated before target within
// the expression root may be reordered with an arbitrary computation that
// assigns the names in written.
func (p *Policy) safeBefore(root, target ast.NodeID, written []ast.NameID) bool {
	x := p.tab.Index
	for id := target; id != root; {
		parent := x.Parent(id)
		if p.t.Node(parent).Kind == ast.FuncLit {
			return false
		}
		for _, c := range p.t.Children(parent) {
			if c == id {
				break
			}
			if !p.ReorderSafe(c) || p.readsAny(c, written) {
				return false
			}
		}
		id = parent
	}
	return true
}

// flagWrites returns the names that evaluating id assigns as failure flags.
// Nested functions are not evaluated.
func (p *Policy) flagWrites(id ast.NodeID) (names []ast.NameID) {
	ast.Walk(p.t, id, func(id ast.NodeID) bool {
		n := p.t.Node(id)
		if n.Kind == ast.HsExpr {
			names = append(names, n.Name)
		}
		return n.Kind != ast.FuncLit
	}, nil)
	return names
}

// readsAny reports whether evaluating id reads one of names.
func (p *Policy) readsAny(id ast.NodeID, names []ast.NameID) bool {
	if len(names) == 0 {
		return false
	}
	found := false
	ast.Walk(p.t, id, func(id ast.NodeID) bool {
		n := p.t.Node(id)
		if n.Kind == ast.Ident && slices.Contains(names, n.Name) {
			found = true
		}
		return !found && n.Kind != ast.FuncLit
	}, nil)
	return found
}

// ReorderSafe reports whether evaluating id commutes with any other
// evaluation: it has no effect and reads nothing that an effect could
// change. A let read is stable only if it is initialized on every path and
// no closure assigns it.
func (p *Policy) ReorderSafe(id ast.NodeID) bool {
	n := p.t.Node(id)
	switch n.Kind {
	case ast.BasicLit, ast.FuncLit:
		return true
	case ast.Ident:
		name := p.t.Name(n.Name)
		if name.Kind == ast.External {
			return true
		}
		if name.Mut != ast.Let || p.tab.IsCaptured(n.Name) {
			return false
		}
		r, ok := p.tab.ReadAt(id)
		return ok && !p.tab.Read(r).UBI && !slices.Contains(p.tab.Live(r, n.Name), rw.Uninit)
	case ast.BinaryExpr:
		return p.ReorderSafe(n.X) && p.ReorderSafe(n.Y)
	}
	return false
}

// IsPure reports whether evaluating id has no effect, so that an unused
// result may be dropped.
func IsPure(t *ast.Tree, id ast.NodeID) bool {
	n := t.Node(id)
	switch n.Kind {
	case ast.BasicLit, ast.Ident, ast.FuncLit:
		return true
	case ast.BinaryExpr:
		return IsPure(t, n.X) && IsPure(t, n.Y)
	}
	return false
}
