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
	"strings"

	"lowc.dev/go/ir/ast"
)

// An Edit is a single rewrite of a tree. The set of edits is closed: Apply
// handles each of the types below and nothing else.
type Edit interface {
	// Kind returns the name of the edit type.
	Kind() string

	format(t *ast.Tree) string
}

// RenameRead makes the Ident Node refer to Into.
type RenameRead struct {
	Node ast.NodeID
	From ast.NameID
	Into ast.NameID
}

// RenameWritten makes the assignment or hs expression Node write Into.
type RenameWritten struct {
	Node ast.NodeID
	From ast.NameID
	Into ast.NameID
}

// ReplaceWithNoOp removes a statement with no effect.
type ReplaceWithNoOp struct {
	Stmt ast.NodeID
}

// SimplifyDeadStore turns the assignment Stmt into an expression statement
// that evaluates the value for its effects.
type SimplifyDeadStore struct {
	Stmt ast.NodeID
}

// InlineAtSoleRead moves the value assigned by Write into the Ident Read and
// removes the assignment.
type InlineAtSoleRead struct {
	Write ast.NodeID
	Read  ast.NodeID
}

// SplitVoidAssignment turns x = e, for a void e, into e; x = void.
type SplitVoidAssignment struct {
	Stmt ast.NodeID
}

// DeclareNoOp removes the declaration of a name that is no longer used.
type DeclareNoOp struct {
	Decl ast.NodeID
}

// ReplaceWithFailure replaces the Ident Read with a failure expression.
type ReplaceWithFailure struct {
	Read    ast.NodeID
	Message string
}

// PromoteToVar makes Name mutable.
type PromoteToVar struct {
	Name ast.NameID
}

// DeleteUnreachable removes a statement that no path reaches.
type DeleteUnreachable struct {
	Stmt ast.NodeID
}

func (RenameRead) Kind() string          { return "RenameRead" }
func (RenameWritten) Kind() string       { return "RenameWritten" }
func (ReplaceWithNoOp) Kind() string     { return "ReplaceWithNoOp" }
func (SimplifyDeadStore) Kind() string   { return "SimplifyDeadStore" }
func (InlineAtSoleRead) Kind() string    { return "InlineAtSoleRead" }
func (SplitVoidAssignment) Kind() string { return "SplitVoidAssignment" }
func (DeclareNoOp) Kind() string         { return "DeclareNoOp" }
func (ReplaceWithFailure) Kind() string  { return "ReplaceWithFailure" }
func (PromoteToVar) Kind() string        { return "PromoteToVar" }
func (DeleteUnreachable) Kind() string   { return "DeleteUnreachable" }

func (e RenameRead) format(t *ast.Tree) string {
	return fmt.Sprintf("%s -> %s @ %s", t.Text(e.From), t.Text(e.Into), at(t, e.Node))
}

func (e RenameWritten) format(t *ast.Tree) string {
	return fmt.Sprintf("%s -> %s @ %s", t.Text(e.From), t.Text(e.Into), at(t, e.Node))
}

func (e ReplaceWithNoOp) format(t *ast.Tree) string     { return at(t, e.Stmt) }
func (e SimplifyDeadStore) format(t *ast.Tree) string   { return at(t, e.Stmt) }
func (e SplitVoidAssignment) format(t *ast.Tree) string { return at(t, e.Stmt) }
func (e DeleteUnreachable) format(t *ast.Tree) string   { return at(t, e.Stmt) }

func (e InlineAtSoleRead) format(t *ast.Tree) string {
	return fmt.Sprintf("%s @ %s", at(t, e.Write), at(t, e.Read))
}

func (e DeclareNoOp) format(t *ast.Tree) string {
	return fmt.Sprintf("%s @ %s", t.Text(t.Node(e.Decl).Name), at(t, e.Decl))
}

func (e ReplaceWithFailure) format(t *ast.Tree) string {
	return fmt.Sprintf("%q @ %s", e.Message, at(t, e.Read))
}

func (e PromoteToVar) format(t *ast.Tree) string { return t.Text(e.Name) }

// at describes the node id by kind and position.
func at(t *ast.Tree, id ast.NodeID) string {
	n := t.Node(id)
	if p := n.Pos.Position(); p.IsValid() {
		return fmt.Sprintf("%s %d:%d", n.Kind, p.Line, p.Column)
	}
	return fmt.Sprintf("%s #%d", n.Kind, id)
}

// Format describes e in terms of the tree it applies to.
func Format(t *ast.Tree, e Edit) string {
	return e.Kind() + "(" + e.format(t) + ")"
}

// A Round is the list of edits applied atomically in one iteration of the
// driver.
type Round struct {
	// N numbers the round from 1.
	N     int
	Edits []Edit
}

// Format returns one line per edit.
func (r *Round) Format(t *ast.Tree) string {
	var b strings.Builder
	for _, e := range r.Edits {
		b.WriteString(Format(t, e))
		b.WriteByte('\n')
	}
	return b.String()
}
