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

// Package ast declares the types used to represent the lowered IR.
//
// A Tree is an arena: nodes and names are stored in slices and refer to each
// other by index. Passes that rewrite a tree clone the arena first, so that a
// holder of an earlier generation never observes a mutation. Node and name
// indices are stable across clones; new nodes are appended.
package ast

import (
	"fmt"
	"slices"
	"strings"

	"lowc.dev/go/ir/token"
)

// A NodeID identifies a node within a Tree. NoNode is the zero value.
type NodeID int32

// NoNode marks an absent child.
const NoNode NodeID = 0

// A NameID identifies a Name within a Tree. NoName is the zero value.
type NameID int32

// NoName marks the absence of a name.
const NoName NameID = 0

// Kind is the kind of a Node.
type Kind uint8

const (
	BadNode Kind = iota

	// Statements
	BlockStmt   // { List }
	DeclStmt    // let|var Name
	AssignStmt  // Name = X
	ExprStmt    // X
	IfStmt      // if (X) Body else Else
	WhileStmt   // while (X) Body
	LabeledStmt // label Label Body
	BreakStmt   // break Label
	BubbleStmt  // bubble()
	ReturnStmt  // return X
	OrElseStmt  // Body orelse Else

	// Expressions
	BasicLit   // Value, Op holds the literal token
	Ident      // Name
	CallExpr   // X(List)
	BinaryExpr // X Op Y
	HsExpr     // hs(Name, X)
	FuncLit    // fn(Params) Body
	FailExpr   // panic(Value)
)

var kindNames = [...]string{
	BadNode:     "BadNode",
	BlockStmt:   "Block",
	DeclStmt:    "Decl",
	AssignStmt:  "Assign",
	ExprStmt:    "ExprStmt",
	IfStmt:      "If",
	WhileStmt:   "While",
	LabeledStmt: "Labeled",
	BreakStmt:   "Break",
	BubbleStmt:  "Bubble",
	ReturnStmt:  "Return",
	OrElseStmt:  "OrElse",
	BasicLit:    "Lit",
	Ident:       "Ident",
	CallExpr:    "Call",
	BinaryExpr:  "Binary",
	HsExpr:      "Hs",
	FuncLit:     "FuncLit",
	FailExpr:    "Fail",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsStmt reports whether k is a statement kind.
func (k Kind) IsStmt() bool { return BlockStmt <= k && k <= OrElseStmt }

// IsExpr reports whether k is an expression kind.
func (k Kind) IsExpr() bool { return BasicLit <= k && k <= FailExpr }

// A Type is the static type annotation computed by the lowering stages.
// The empty Type is unknown.
type Type string

const (
	Unknown Type = ""
	Void    Type = "Void"
	Bool    Type = "Bool"
	Int     Type = "Int"
	Float   Type = "Float"
	String  Type = "String"
	Null    Type = "Null"
	Fn      Type = "Fn"
)

// A Node is a statement or expression. Which fields are meaningful depends on
// Kind; see the comments on the Kind constants.
type Node struct {
	Kind   Kind
	Pos    token.Pos
	Name   NameID
	Label  string
	Op     token.Token
	Value  string
	X      NodeID
	Y      NodeID
	Body   NodeID
	Else   NodeID
	List   []NodeID
	Params []NameID
	Type   Type
}

// NameKind classifies a Name by origin.
type NameKind uint8

const (
	// Temporary names are introduced by the compiler and spelled t#N.
	Temporary NameKind = iota
	// Source names are written by the user.
	Source
	// External names are bound outside the tree and never declared in it.
	External
)

func (k NameKind) String() string {
	switch k {
	case Temporary:
		return "temporary"
	case Source:
		return "source"
	case External:
		return "external"
	}
	return fmt.Sprintf("NameKind(%d)", k)
}

// Mutability tells whether a name may be assigned more than once on a path.
type Mutability uint8

const (
	Let Mutability = iota
	Var
)

func (m Mutability) String() string {
	if m == Var {
		return "var"
	}
	return "let"
}

// Reach classifies whether a name is a root of liveness outside the tree.
type Reach uint8

const (
	ReachNone Reach = iota
	ReachTest
	ReachExport
)

func (r Reach) String() string {
	switch r {
	case ReachTest:
		return "test"
	case ReachExport:
		return "export"
	}
	return "none"
}

// A Name is an identifier bound by a declaration, a function literal
// parameter, or an extern.
type Name struct {
	Text         string
	Kind         NameKind
	Mut          Mutability
	DeclaredType Type
	// Type is DeclaredType if present and otherwise the type of the value
	// first assigned to the name.
	Type        Type
	Exported    bool
	Captured    bool
	Placeholder bool
	Reach       Reach
	Param       bool
	Pos         token.Pos
}

// IsLocal reports whether n is declared within the tree.
func (n *Name) IsLocal() bool { return n.Kind != External }

// IsTemporaryText reports whether s is spelled like a temporary, for
// instance "t#3".
func IsTemporaryText(s string) bool {
	i := strings.IndexByte(s, '#')
	if i <= 0 || i == len(s)-1 {
		return false
	}
	for _, c := range s[i+1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// A Tree is one generation of the IR of a module.
type Tree struct {
	Filename string
	Nodes    []Node // Nodes[0] is unused
	Names    []Name // Names[0] is unused
	Root     NodeID
}

// New returns an empty tree.
func New(filename string) *Tree {
	return &Tree{
		Filename: filename,
		Nodes:    make([]Node, 1),
		Names:    make([]Name, 1),
	}
}

// Node returns the node with the given id.
func (t *Tree) Node(id NodeID) *Node { return &t.Nodes[id] }

// Name returns the name with the given id.
func (t *Tree) Name(id NameID) *Name { return &t.Names[id] }

// Text returns the text of the name with the given id.
func (t *Tree) Text(id NameID) string {
	if id == NoName {
		return "_"
	}
	return t.Names[id].Text
}

// Add appends n to the arena and returns its id.
func (t *Tree) Add(n Node) NodeID {
	t.Nodes = append(t.Nodes, n)
	return NodeID(len(t.Nodes) - 1)
}

// AddName appends n to the names table and returns its id.
func (t *Tree) AddName(n Name) NameID {
	t.Names = append(t.Names, n)
	return NameID(len(t.Names) - 1)
}

// Lookup returns the id of the name with the given text, or NoName.
func (t *Tree) Lookup(text string) NameID {
	for i := 1; i < len(t.Names); i++ {
		if t.Names[i].Text == text {
			return NameID(i)
		}
	}
	return NoName
}

// Clone returns a deep copy of t. Node and name ids are preserved.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		Filename: t.Filename,
		Nodes:    slices.Clone(t.Nodes),
		Names:    slices.Clone(t.Names),
		Root:     t.Root,
	}
	for i := range c.Nodes {
		n := &c.Nodes[i]
		n.List = slices.Clone(n.List)
		n.Params = slices.Clone(n.Params)
	}
	return c
}

// Children returns the children of the node id in evaluation order.
func (t *Tree) Children(id NodeID) []NodeID {
	n := t.Node(id)
	var a []NodeID
	add := func(ids ...NodeID) {
		for _, x := range ids {
			if x != NoNode {
				a = append(a, x)
			}
		}
	}
	switch n.Kind {
	case BlockStmt:
		add(n.List...)
	case AssignStmt, ExprStmt, ReturnStmt, HsExpr:
		add(n.X)
	case IfStmt:
		add(n.X, n.Body, n.Else)
	case WhileStmt:
		add(n.X, n.Body)
	case LabeledStmt, FuncLit:
		add(n.Body)
	case OrElseStmt:
		add(n.Body, n.Else)
	case CallExpr:
		add(n.X)
		add(n.List...)
	case BinaryExpr:
		add(n.X, n.Y)
	}
	return a
}
