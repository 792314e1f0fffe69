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

	"lowc.dev/go/internal/core/policy"
	"lowc.dev/go/internal/core/rw"
	"lowc.dev/go/ir/ast"
	"lowc.dev/go/ir/token"
)

// A Proposal is the outcome of one proposal pass over a tree generation.
type Proposal struct {
	Edits       []Edit
	Diagnostics []*LogEntry

	// Deferred counts the groups that conflicted with an accepted group.
	// They are proposed again after the next rebuild if still valid.
	Deferred int
}

// A group is the set of edits serving one name. Either all of its edits are
// applied in a round or none.
type group struct {
	names []ast.NameID
	stmts []ast.NodeID
	edits []Edit
	diags []*LogEntry
}

type proposer struct {
	t    *ast.Tree
	tab  *rw.DataTable
	pol  *policy.Policy
	logf func(level int, format string, args ...any)

	names map[ast.NameID]bool
	stmts map[ast.NodeID]bool
	out   Proposal
}

// Propose computes the edits of one round. The groups are considered in a
// fixed order: repairs, no-op statements, unreachable statements, and then
// for each name in declaration order a dead store, an inlining, a rename
// and a void split, of which at most one is taken. A group that touches a
// name or statement of an earlier accepted group is deferred.
//
// logf, if not nil, receives the reasons for rejected candidates.
func Propose(tab *rw.DataTable, pol *policy.Policy, logf func(level int, format string, args ...any)) *Proposal {
	if logf == nil {
		logf = func(int, string, ...any) {}
	}
	p := &proposer{
		t:     tab.Tree,
		tab:   tab,
		pol:   pol,
		logf:  logf,
		names: map[ast.NameID]bool{},
		stmts: map[ast.NodeID]bool{},
	}
	p.repairs()
	p.noOps()
	p.unreachable()
	for _, n := range tab.Locals {
		switch {
		case p.deadStore(n):
		case p.inline(n):
		case p.rename(n):
		case p.splitVoid(n):
		}
	}
	return &p.out
}

// offer accepts g if it is disjoint from all groups accepted so far.
func (p *proposer) offer(g *group) bool {
	if len(g.edits) == 0 {
		return false
	}
	for _, n := range g.names {
		if p.names[n] {
			p.out.Deferred++
			return false
		}
	}
	for _, s := range g.stmts {
		if p.stmts[s] {
			p.out.Deferred++
			return false
		}
	}
	for _, n := range g.names {
		p.names[n] = true
	}
	for _, s := range g.stmts {
		p.stmts[s] = true
	}
	for _, e := range g.edits {
		p.logf(2, "propose %s", Format(p.t, e))
	}
	p.out.Edits = append(p.out.Edits, g.edits...)
	p.out.Diagnostics = append(p.out.Diagnostics, g.diags...)
	return true
}

func lineCol(pos token.Pos) string {
	return fmt.Sprintf("%d:%d", pos.Line(), pos.Column())
}

// repairs rewrites reads before initialization into failures and promotes
// reassigned let names.
func (p *proposer) repairs() {
	tab := p.tab
	for _, n := range tab.Locals {
		text := p.t.Text(n)

		g := &group{names: []ast.NameID{n}}
		for _, r := range tab.Reads[n] {
			rd := tab.Read(r)
			if !rd.UBI {
				continue
			}
			msg := fmt.Sprintf("%s is not initialized along all branches", text)
			g.stmts = append(g.stmts, rd.Stmt)
			g.edits = append(g.edits, ReplaceWithFailure{Read: rd.Node, Message: msg})
			g.diags = append(g.diags, &LogEntry{
				Kind:    UseBeforeInitialization,
				Pos:     rd.Pos,
				Message: msg,
			})
		}
		p.offer(g)

		if p.t.Name(n).Mut != ast.Let {
			continue
		}
		ws := tab.Writes[n]
		for _, w := range ws {
			wr := tab.Write(w)
			if !wr.Overwrites || wr.Crossing {
				continue
			}
			p.offer(&group{
				names: []ast.NameID{n},
				edits: []Edit{PromoteToVar{Name: n}},
				diags: []*LogEntry{{
					Kind: IllegalReassignment,
					Pos:  wr.Pos,
					Message: fmt.Sprintf("%s is reassigned after %s but is not declared var",
						text, lineCol(tab.Write(ws[0]).Pos)),
				}},
			})
			break
		}
	}
}

// noOps removes self-assignments and statements that only read a
// temporary.
func (p *proposer) noOps() {
	tab := p.tab
	ast.Inspect(p.t, func(id ast.NodeID) bool {
		n := p.t.Node(id)
		switch n.Kind {
		case ast.AssignStmt:
			x := p.t.Node(n.X)
			if x.Kind != ast.Ident || x.Name != n.Name {
				break
			}
			if r, ok := tab.ReadAt(n.X); ok && !tab.Read(r).UBI {
				p.offer(&group{
					names: []ast.NameID{n.Name},
					stmts: []ast.NodeID{id},
					edits: []Edit{ReplaceWithNoOp{Stmt: id}},
				})
			}
		case ast.ExprStmt:
			x := p.t.Node(n.X)
			if x.Kind != ast.Ident || !tab.IsLocal(x.Name) || p.pol.Required(x.Name) {
				break
			}
			if r, ok := tab.ReadAt(n.X); ok && !tab.Read(r).UBI {
				p.offer(&group{
					names: []ast.NameID{x.Name},
					stmts: []ast.NodeID{id},
					edits: []Edit{ReplaceWithNoOp{Stmt: id}},
				})
			}
		}
		return true
	})
}

// unreachable deletes dead statements, unless they declare a name that is
// still used elsewhere.
func (p *proposer) unreachable() {
	tab := p.tab
	for _, id := range tab.Dead {
		if p.t.Node(tab.Index.Parent(id)).Kind != ast.BlockStmt {
			continue
		}
		g := &group{stmts: []ast.NodeID{id}}
		used := false
		ast.Walk(p.t, id, func(c ast.NodeID) bool {
			if n := p.t.Node(c); n.Kind == ast.DeclStmt {
				g.names = append(g.names, n.Name)
				used = used || len(tab.Reads[n.Name]) > 0 || len(tab.Writes[n.Name]) > 0
			}
			return !used
		}, nil)
		if used {
			p.logf(2, "keep unreachable %s: declares a used name", at(p.t, id))
			continue
		}
		g.edits = []Edit{DeleteUnreachable{Stmt: id}}
		p.offer(g)
	}
}

// deadStore drops the writes of a name that is never read. Values with no
// effect are dropped along with their assignment.
func (p *proposer) deadStore(n ast.NameID) bool {
	tab := p.tab
	if len(tab.Writes[n]) == 0 || !p.pol.CanDeadStore(n) {
		return false
	}
	g := &group{names: []ast.NameID{n}}
	for _, w := range tab.Writes[n] {
		wr := tab.Write(w)
		if wr.Kind != rw.Assignment {
			return false
		}
		x := p.t.Node(wr.Node).X
		g.names = append(g.names, p.localsIn(x)...)
		g.stmts = append(g.stmts, wr.Node)
		if policy.IsPure(p.t, x) {
			g.edits = append(g.edits, ReplaceWithNoOp{Stmt: wr.Node})
		} else {
			g.edits = append(g.edits, SimplifyDeadStore{Stmt: wr.Node})
		}
	}
	return p.offer(g)
}

// localsIn returns the local names read by the expression id.
func (p *proposer) localsIn(id ast.NodeID) []ast.NameID {
	var a []ast.NameID
	ast.Walk(p.t, id, func(c ast.NodeID) bool {
		if n := p.t.Node(c); n.Kind == ast.Ident && p.tab.IsLocal(n.Name) {
			a = append(a, n.Name)
		}
		return true
	}, nil)
	return a
}

// splitVoid moves the evaluation of a void value out of an assignment.
func (p *proposer) splitVoid(n ast.NameID) bool {
	tab := p.tab
	for _, w := range tab.Writes[n] {
		wr := tab.Write(w)
		if wr.Kind != rw.Assignment {
			continue
		}
		x := p.t.Node(p.t.Node(wr.Node).X)
		if x.Type != ast.Void || (x.Kind == ast.BasicLit && x.Op == token.VOID) {
			continue
		}
		if p.offer(&group{
			names: []ast.NameID{n},
			stmts: []ast.NodeID{wr.Node},
			edits: []Edit{SplitVoidAssignment{Stmt: wr.Node}},
		}) {
			return true
		}
	}
	return false
}

// Sweep returns the declarations that can be removed once no other edit
// applies.
func Sweep(tab *rw.DataTable, pol *policy.Policy) []Edit {
	var edits []Edit
	for _, n := range tab.Locals {
		if pol.CanSweep(n) {
			edits = append(edits, DeclareNoOp{Decl: tab.Decls[n]})
		}
	}
	return edits
}
