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

// Package rw computes the reads and writes of the local names of a tree and
// links them into a use-def graph.
//
// A DataTable is a snapshot of one tree generation. It is never updated:
// after the tree is rewritten, a new table must be built.
package rw

import (
	"lowc.dev/go/ir/ast"
	"lowc.dev/go/ir/token"
)

// A WriteID identifies a Write within a DataTable.
type WriteID int32

// Uninit is the pseudo-write of a name that is declared but not yet
// assigned. It appears in frames but never in upstream sets.
const Uninit WriteID = 0

// A ReadID identifies a Read within a DataTable.
type ReadID int32

// WriteKind tells how a write assigns its name.
type WriteKind uint8

const (
	// Assignment is an assignment statement.
	Assignment WriteKind = iota
	// Initializer is the binding of a function literal parameter.
	Initializer
	// FailFlag is the flag set by an hs expression.
	FailFlag
)

func (k WriteKind) String() string {
	switch k {
	case Initializer:
		return "I"
	case FailFlag:
		return "F"
	}
	return "A"
}

// A Write is an assignment of a value to a name.
type Write struct {
	ID   WriteID
	Name ast.NameID
	// Node is the AssignStmt, the HsExpr, or the FuncLit that binds a
	// parameter.
	Node ast.NodeID
	// Stmt is the innermost statement containing Node.
	Stmt ast.NodeID
	Kind WriteKind
	// Ordinal numbers the writes of a name in tree order, from 0.
	Ordinal int
	// Crossing is set for a write from a function other than the one
	// declaring the name.
	Crossing bool
	// Overwrites is set if an earlier write of the same name may still be
	// live when this write happens.
	Overwrites bool
	Pos        token.Pos
}

// A Read is a use of the value of a name.
type Read struct {
	ID   ReadID
	Name ast.NameID
	Node ast.NodeID // the Ident
	Stmt ast.NodeID
	// Crossing is set for a read from a function other than the one
	// declaring the name.
	Crossing bool
	// UBI marks a use before initialization: some path reaches the read
	// without a write.
	UBI bool
	Pos token.Pos
}

// A DataTable holds the use-def graph of one tree generation.
type DataTable struct {
	Tree  *ast.Tree
	Index *ast.Index

	readList  []Read  // [0] unused
	writeList []Write // [0] is Uninit

	// Reads and Writes list the events of each local name in tree order.
	Reads  map[ast.NameID][]ReadID
	Writes map[ast.NameID][]WriteID

	// Upstream maps a read to the writes that may be the most recent one
	// when the read happens. Downstream is its inverse.
	Upstream   map[ReadID][]WriteID
	Downstream map[WriteID][]ReadID

	// Decls maps a name to its declaration statement.
	Decls map[ast.NameID]ast.NodeID

	// Locals lists the declared names and parameters in declaration order.
	Locals []ast.NameID

	// Func maps a local name to the function declaring it: the root block
	// or a FuncLit.
	Func map[ast.NameID]ast.NodeID

	// Captured holds the names accessed from a function other than the one
	// declaring them.
	Captured map[ast.NameID]bool

	// Dead lists, in tree order, the statements no path reaches.
	Dead []ast.NodeID

	dead        map[ast.NodeID]bool
	frames      map[ReadID]frame
	readByNode  map[ast.NodeID]ReadID
	writeByNode map[writeKey]WriteID
}

type writeKey struct {
	node ast.NodeID
	name ast.NameID
}

// Read returns the read with the given id.
func (t *DataTable) Read(id ReadID) *Read { return &t.readList[id] }

// Write returns the write with the given id.
func (t *DataTable) Write(id WriteID) *Write { return &t.writeList[id] }

// NumReads reports the number of reads in the table.
func (t *DataTable) NumReads() int { return len(t.readList) - 1 }

// NumWrites reports the number of writes in the table.
func (t *DataTable) NumWrites() int { return len(t.writeList) - 1 }

// ReadAt returns the read of the Ident node id, if it was recorded.
func (t *DataTable) ReadAt(id ast.NodeID) (ReadID, bool) {
	r, ok := t.readByNode[id]
	return r, ok
}

// WriteAt returns the write of name by node, if it was recorded.
func (t *DataTable) WriteAt(node ast.NodeID, name ast.NameID) (WriteID, bool) {
	w, ok := t.writeByNode[writeKey{node, name}]
	return w, ok
}

// Live returns the writes of name that may reach the read r, including
// Uninit if some path reaches r with name unassigned. It returns nil for a
// name that is not declared on the path.
func (t *DataTable) Live(r ReadID, name ast.NameID) []WriteID {
	return t.frames[r][name]
}

// IsDead reports whether the statement id is unreachable.
func (t *DataTable) IsDead(id ast.NodeID) bool { return t.dead[id] }

// IsLocal reports whether name is declared in the tree.
func (t *DataTable) IsLocal(name ast.NameID) bool {
	_, ok := t.Func[name]
	return ok
}

// IsCaptured reports whether name is accessed from a nested function, or
// was marked as captured by an earlier stage.
func (t *DataTable) IsCaptured(name ast.NameID) bool {
	return t.Captured[name] || t.Tree.Name(name).Captured
}

// SoleUpstream returns the only write reaching r, if there is exactly one.
func (t *DataTable) SoleUpstream(r ReadID) (WriteID, bool) {
	if up := t.Upstream[r]; len(up) == 1 {
		return up[0], true
	}
	return 0, false
}

// SoleDownstream returns the only read reached by w, if there is exactly
// one.
func (t *DataTable) SoleDownstream(w WriteID) (ReadID, bool) {
	if down := t.Downstream[w]; len(down) == 1 {
		return down[0], true
	}
	return 0, false
}
