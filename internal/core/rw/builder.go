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

package rw

import (
	"cmp"
	"slices"

	"lowc.dev/go/ir/ast"
)

// Build computes the DataTable of t. It does not modify t.
//
// The first pass records the function declaring each local name, so that
// accesses from nested function literals can be recognized as crossing. The
// second pass threads a frame of reaching writes through the statements:
// branches fork it, joins union it, loops iterate until the loop head frame
// no longer grows, and break and bubble carry it to their targets.
func Build(t *ast.Tree) *DataTable {
	tab := &DataTable{
		Tree:        t,
		Index:       ast.NewIndex(t),
		readList:    make([]Read, 1),
		writeList:   make([]Write, 1),
		Reads:       map[ast.NameID][]ReadID{},
		Writes:      map[ast.NameID][]WriteID{},
		Upstream:    map[ReadID][]WriteID{},
		Downstream:  map[WriteID][]ReadID{},
		Decls:       map[ast.NameID]ast.NodeID{},
		Func:        map[ast.NameID]ast.NodeID{},
		Captured:    map[ast.NameID]bool{},
		dead:        map[ast.NodeID]bool{},
		frames:      map[ReadID]frame{},
		readByNode:  map[ast.NodeID]ReadID{},
		writeByNode: map[writeKey]WriteID{},
	}
	b := &builder{
		t:         t,
		tab:       tab,
		fn:        t.Root,
		reached:   map[ast.NodeID]bool{},
		unreached: map[ast.NodeID]bool{},
	}
	b.declarations()
	b.stmt(t.Root, frame{})
	b.finish()
	return tab
}

type builder struct {
	t   *ast.Tree
	tab *DataTable

	fn       ast.NodeID // current function
	cur      ast.NodeID // current statement
	labels   []*target
	handlers []*target

	reached   map[ast.NodeID]bool
	unreached map[ast.NodeID]bool
}

// A target accumulates the frames of the jumps to a labeled block exit or an
// orelse handler.
type target struct {
	label string
	f     frame
}

// declarations records the declaring function of each name and which names
// are captured.
func (b *builder) declarations() {
	tab := b.tab
	fns := []ast.NodeID{b.t.Root}
	before := func(id ast.NodeID) bool {
		n := b.t.Node(id)
		fn := fns[len(fns)-1]
		switch n.Kind {
		case ast.DeclStmt:
			if _, ok := tab.Decls[n.Name]; !ok {
				tab.Decls[n.Name] = id
				tab.Func[n.Name] = fn
				tab.Locals = append(tab.Locals, n.Name)
			}
		case ast.FuncLit:
			for _, p := range n.Params {
				tab.Func[p] = id
				tab.Locals = append(tab.Locals, p)
			}
			fns = append(fns, id)
		}
		return true
	}
	after := func(id ast.NodeID) {
		if b.t.Node(id).Kind == ast.FuncLit {
			fns = fns[:len(fns)-1]
		}
	}
	ast.Walk(b.t, b.t.Root, before, after)

	// Capture needs the declaring functions of all names, including those
	// declared after their first use.
	fns = fns[:1]
	ast.Walk(b.t, b.t.Root, func(id ast.NodeID) bool {
		n := b.t.Node(id)
		switch n.Kind {
		case ast.Ident, ast.AssignStmt, ast.HsExpr:
			if fn, ok := tab.Func[n.Name]; ok && fn != fns[len(fns)-1] {
				tab.Captured[n.Name] = true
			}
		case ast.FuncLit:
			fns = append(fns, id)
		}
		return true
	}, after)
}

// stmt analyses the statement id entered with frame f, which it may modify,
// and returns the frame after it. A nil frame means unreachable.
func (b *builder) stmt(id ast.NodeID, f frame) frame {
	n := b.t.Node(id)
	if f == nil {
		if n.Kind == ast.BlockStmt {
			for _, s := range n.List {
				b.unreached[s] = true
			}
		} else {
			b.unreached[id] = true
		}
		return nil
	}
	b.reached[id] = true

	prev := b.cur
	b.cur = id
	defer func() { b.cur = prev }()

	switch n.Kind {
	case ast.BlockStmt:
		for _, s := range n.List {
			f = b.stmt(s, f)
		}
		return f

	case ast.DeclStmt:
		f[n.Name] = []WriteID{Uninit}
		return f

	case ast.AssignStmt:
		b.expr(n.X, f)
		b.write(id, n.Name, Assignment, f)
		return f

	case ast.ExprStmt:
		b.expr(n.X, f)
		return f

	case ast.IfStmt:
		b.expr(n.X, f)
		then := b.stmt(n.Body, f.clone())
		els := f
		if n.Else != ast.NoNode {
			els = b.stmt(n.Else, f.clone())
		}
		return join(then, els)

	case ast.WhileStmt:
		head := f
		for {
			cond := head.clone()
			b.expr(n.X, cond)
			end := b.stmt(n.Body, cond.clone())
			next := join(head, end)
			if equal(next, head) {
				return cond
			}
			head = next
		}

	case ast.LabeledStmt:
		tgt := &target{label: n.Label}
		b.labels = append(b.labels, tgt)
		out := b.stmt(n.Body, f)
		b.labels = b.labels[:len(b.labels)-1]
		return join(out, tgt.f)

	case ast.BreakStmt:
		for i := len(b.labels) - 1; i >= 0; i-- {
			if tgt := b.labels[i]; tgt.label == n.Label {
				tgt.f = join(tgt.f, f)
				break
			}
		}
		return nil

	case ast.BubbleStmt:
		if k := len(b.handlers); k > 0 {
			tgt := b.handlers[k-1]
			tgt.f = join(tgt.f, f)
		}
		return nil

	case ast.ReturnStmt:
		if n.X != ast.NoNode {
			b.expr(n.X, f)
		}
		return nil

	case ast.OrElseStmt:
		tgt := &target{}
		b.handlers = append(b.handlers, tgt)
		out := b.stmt(n.Body, f)
		b.handlers = b.handlers[:len(b.handlers)-1]
		handled := b.stmt(n.Else, tgt.f)
		return join(out, handled)
	}
	return f
}

// expr records the reads of the expression id, in evaluation order, and the
// writes of hs flags into f.
func (b *builder) expr(id ast.NodeID, f frame) {
	n := b.t.Node(id)
	switch n.Kind {
	case ast.Ident:
		if b.tab.IsLocal(n.Name) {
			b.read(id, n.Name, f)
		}
	case ast.HsExpr:
		b.expr(n.X, f)
		b.write(id, n.Name, FailFlag, f)
	case ast.FuncLit:
		b.funcLit(id)
	default:
		for _, c := range b.t.Children(id) {
			b.expr(c, f)
		}
	}
}

// funcLit analyses the body of a function literal in a frame of its own.
// The body may run any number of times at any later point, so the frame
// of the enclosing function is not consulted.
func (b *builder) funcLit(id ast.NodeID) {
	n := b.t.Node(id)
	fn, labels, handlers := b.fn, b.labels, b.handlers
	b.fn, b.labels, b.handlers = id, nil, nil
	f := frame{}
	for _, p := range n.Params {
		b.write(id, p, Initializer, f)
	}
	b.stmt(n.Body, f)
	b.fn, b.labels, b.handlers = fn, labels, handlers
}

func (b *builder) read(id ast.NodeID, name ast.NameID, f frame) {
	tab := b.tab
	r, ok := tab.readByNode[id]
	if !ok {
		n := b.t.Node(id)
		r = ReadID(len(tab.readList))
		tab.readList = append(tab.readList, Read{
			ID:       r,
			Name:     name,
			Node:     id,
			Stmt:     b.cur,
			Crossing: tab.Func[name] != b.fn,
			Pos:      n.Pos,
		})
		tab.readByNode[id] = r
	}
	tab.frames[r] = merge(tab.frames[r], f)
}

func (b *builder) write(node ast.NodeID, name ast.NameID, kind WriteKind, f frame) {
	tab := b.tab
	key := writeKey{node, name}
	w, ok := tab.writeByNode[key]
	if !ok {
		w = WriteID(len(tab.writeList))
		tab.writeList = append(tab.writeList, Write{
			ID:       w,
			Name:     name,
			Node:     node,
			Stmt:     b.cur,
			Kind:     kind,
			Crossing: tab.Func[name] != b.fn,
			Pos:      b.t.Node(node).Pos,
		})
		tab.writeByNode[key] = w
	}
	wr := tab.Write(w)
	if wr.Crossing {
		return
	}
	for _, live := range f[name] {
		if live != Uninit {
			wr.Overwrites = true
		}
	}
	f[name] = []WriteID{w}
}

// finish links reads to writes and lists the events of each name in tree
// order.
func (b *builder) finish() {
	tab := b.tab
	order := tab.Index.Order

	for i := 1; i < len(tab.writeList); i++ {
		w := &tab.writeList[i]
		tab.Writes[w.Name] = append(tab.Writes[w.Name], w.ID)
	}
	for name, ws := range tab.Writes {
		slices.SortFunc(ws, func(a, b WriteID) int {
			return compareWrites(tab, order, a, b)
		})
		for i, w := range ws {
			tab.Write(w).Ordinal = i
		}
		tab.Writes[name] = ws
	}

	for i := 1; i < len(tab.readList); i++ {
		r := &tab.readList[i]
		tab.Reads[r.Name] = append(tab.Reads[r.Name], r.ID)

		var up []WriteID
		switch {
		case r.Crossing || tab.IsCaptured(r.Name):
			// The read may happen after any of the writes.
			up = slices.Clone(tab.Writes[r.Name])
			slices.Sort(up)
			r.UBI = len(up) == 0
		default:
			live, ok := tab.frames[r.ID][r.Name]
			if !ok || slices.Contains(live, Uninit) {
				r.UBI = true
				break
			}
			up = slices.Clone(live)
		}
		if r.UBI {
			continue
		}
		tab.Upstream[r.ID] = up
		for _, w := range up {
			tab.Downstream[w] = append(tab.Downstream[w], r.ID)
		}
	}
	for name, rs := range tab.Reads {
		slices.SortFunc(rs, func(a, b ReadID) int {
			return order(tab.Read(a).Node) - order(tab.Read(b).Node)
		})
		tab.Reads[name] = rs
	}
	for w, rs := range tab.Downstream {
		slices.Sort(rs)
		tab.Downstream[w] = slices.Compact(rs)
	}

	for id := range b.unreached {
		if !b.reached[id] {
			tab.dead[id] = true
			tab.Dead = append(tab.Dead, id)
		}
	}
	slices.SortFunc(tab.Dead, func(a, b ast.NodeID) int { return order(a) - order(b) })
}

// compareWrites orders writes by their node and, for the parameters of one
// function literal, by parameter position.
func compareWrites(tab *DataTable, order func(ast.NodeID) int, a, b WriteID) int {
	wa, wb := tab.Write(a), tab.Write(b)
	if c := cmp.Compare(order(wa.Node), order(wb.Node)); c != 0 {
		return c
	}
	params := tab.Tree.Node(wa.Node).Params
	return cmp.Compare(slices.Index(params, wa.Name), slices.Index(params, wb.Name))
}
