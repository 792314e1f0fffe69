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

import "lowc.dev/go/ir/ast"

// copyPair returns the name x such that every write of y is a copy y = x
// and every read of x is the value of such a copy.
func (p *proposer) copyPair(y ast.NameID) (x ast.NameID, ok bool) {
	tab := p.tab
	ws := tab.Writes[y]
	if len(ws) == 0 {
		return ast.NoName, false
	}
	for _, w := range ws {
		src, ok := p.pol.CopySource(w)
		if !ok || (x != ast.NoName && src != x) {
			return ast.NoName, false
		}
		x = src
	}
	for _, r := range tab.Reads[x] {
		rd := tab.Read(r)
		s := p.t.Node(rd.Stmt)
		if s.Kind != ast.AssignStmt || s.Name != y || s.X != rd.Node {
			return ast.NoName, false
		}
	}
	return x, true
}

// rename merges the names of a copy pair (x, y) and removes the copies.
// The name that is not required is eliminated: x is renamed to y if
// possible, and otherwise the reads of y are renamed to x.
func (p *proposer) rename(y ast.NameID) bool {
	tab := p.tab
	x, ok := p.copyPair(y)
	if !ok {
		return false
	}
	from, into := x, y
	switch {
	case !p.pol.Required(x):
	case !p.pol.Required(y):
		from, into = y, x
	default:
		return false
	}
	if err := p.pol.CanRename(from, into); err != nil {
		p.logf(2, "no rename of %s into %s: %v", p.t.Text(from), p.t.Text(into), err)
		return false
	}
	if err := p.pol.SameLiveness(x, y); err != nil {
		p.logf(2, "no rename of %s into %s: %v", p.t.Text(from), p.t.Text(into), err)
		return false
	}

	g := &group{names: []ast.NameID{x, y}}
	for _, w := range tab.Writes[y] {
		wr := tab.Write(w)
		g.stmts = append(g.stmts, wr.Node)
		g.edits = append(g.edits, ReplaceWithNoOp{Stmt: wr.Node})
	}
	if from == x {
		for _, w := range tab.Writes[x] {
			wr := tab.Write(w)
			g.stmts = append(g.stmts, wr.Stmt)
			g.edits = append(g.edits, RenameWritten{Node: wr.Node, From: x, Into: y})
		}
		if p.pol.NeedsVar(x, y) {
			g.edits = append(g.edits, PromoteToVar{Name: y})
		}
	} else {
		for _, r := range tab.Reads[y] {
			rd := tab.Read(r)
			g.stmts = append(g.stmts, rd.Stmt)
			g.edits = append(g.edits, RenameRead{Node: rd.Node, From: y, Into: x})
		}
	}
	return p.offer(g)
}
