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

package ast

// Walk traverses the subtree rooted at id in depth-first order: It starts by
// calling before(id). If before returns true, Walk invokes itself recursively
// for each of the children of id, followed by a call of after(id). Both
// functions may be nil. If before is nil, it is assumed to always return true.
func Walk(t *Tree, id NodeID, before func(NodeID) bool, after func(NodeID)) {
	if id == NoNode {
		return
	}
	if before != nil && !before(id) {
		return
	}
	for _, c := range t.Children(id) {
		Walk(t, c, before, after)
	}
	if after != nil {
		after(id)
	}
}

// Inspect calls f for each node reachable from t.Root in pre-order. If f
// returns false, the children of that node are skipped.
func Inspect(t *Tree, f func(NodeID) bool) {
	Walk(t, t.Root, f, nil)
}

// Index records the parent and pre-order position of every node reachable
// from the root of a tree. It is computed for one generation and must be
// recomputed after the tree is rewritten.
type Index struct {
	parent []NodeID
	order  []int // 1-based pre-order number; 0 for unreachable nodes
}

// NewIndex computes the Index of t.
func NewIndex(t *Tree) *Index {
	x := &Index{
		parent: make([]NodeID, len(t.Nodes)),
		order:  make([]int, len(t.Nodes)),
	}
	n := 0
	var stack []NodeID
	Walk(t, t.Root, func(id NodeID) bool {
		n++
		x.order[id] = n
		if len(stack) > 0 {
			x.parent[id] = stack[len(stack)-1]
		}
		stack = append(stack, id)
		return true
	}, func(NodeID) {
		stack = stack[:len(stack)-1]
	})
	return x
}

// Parent returns the parent of id, or NoNode for the root.
func (x *Index) Parent(id NodeID) NodeID {
	if int(id) >= len(x.parent) {
		return NoNode
	}
	return x.parent[id]
}

// Reachable reports whether id is reachable from the root.
func (x *Index) Reachable(id NodeID) bool {
	return int(id) < len(x.order) && x.order[id] > 0
}

// Order returns the 1-based pre-order number of id, or 0 if id is not
// reachable.
func (x *Index) Order(id NodeID) int {
	if int(id) >= len(x.order) {
		return 0
	}
	return x.order[id]
}

// Before reports whether a precedes b in pre-order.
func (x *Index) Before(a, b NodeID) bool {
	return x.order[a] < x.order[b]
}

// Contains reports whether anc is id or one of its ancestors.
func (x *Index) Contains(anc, id NodeID) bool {
	for ; id != NoNode; id = x.Parent(id) {
		if id == anc {
			return true
		}
	}
	return false
}

// Stmt returns the innermost statement containing id, which may be id
// itself.
func (x *Index) Stmt(t *Tree, id NodeID) NodeID {
	for ; id != NoNode; id = x.Parent(id) {
		if t.Node(id).Kind.IsStmt() {
			return id
		}
	}
	return NoNode
}

// Block returns the innermost block containing the statement id.
func (x *Index) Block(t *Tree, id NodeID) NodeID {
	for id = x.Parent(id); id != NoNode; id = x.Parent(id) {
		if t.Node(id).Kind == BlockStmt {
			return id
		}
	}
	return NoNode
}
