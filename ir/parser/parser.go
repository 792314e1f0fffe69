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

package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"lowc.dev/go/ir/ast"
	"lowc.dev/go/ir/errors"
	"lowc.dev/go/ir/scanner"
	"lowc.dev/go/ir/token"
)

// The parser structure holds the parser's internal state.
type parser struct {
	file    *token.File
	errors  errors.List
	scanner scanner.Scanner
	tree    *ast.Tree

	// Tracing/debugging
	mode      mode // parsing mode
	trace     bool // == (mode & traceMode != 0)
	panicking bool // set if we are bailing out due to too many errors.
	indent    int  // indentation used for tracing output

	// Next token
	pos token.Pos   // token position
	tok token.Token // one token look-ahead
	lit string      // token literal

	// Name binding. Identifiers are resolved after parsing so that a name
	// may be referenced before its declaration.
	names   map[string]ast.NameID
	pending []pendingRef
}

// pendingRef is a node whose Name field still needs to be bound.
type pendingRef struct {
	node ast.NodeID
	text string
	pos  token.Pos
	// assign is set for assignment targets and hs flags, which must be
	// local names.
	assign bool
}

func (p *parser) init(filename string, src []byte, opts []Option) {
	p.file = token.NewFile(filename, len(src))
	for _, f := range opts {
		f(p)
	}
	eh := func(pos token.Pos, msg string, args []any) {
		p.errors.AddNewf(pos, msg, args...)
	}
	p.scanner.Init(p.file, src, eh, 0)

	p.trace = p.mode&traceMode != 0
	p.tree = ast.New(filename)
	p.names = map[string]ast.NameID{}

	p.next()
}

// ----------------------------------------------------------------------------
// Parsing support

func (p *parser) printTrace(a ...any) {
	const dots = ". . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . "
	const n = len(dots)
	pos := p.pos.Position()
	fmt.Printf("%5d:%3d: ", pos.Line, pos.Column)
	i := 2 * p.indent
	for i > n {
		fmt.Print(dots)
		i -= n
	}
	// i <= n
	fmt.Print(dots[0:i])
	fmt.Println(a...)
}

func trace(p *parser, msg string) *parser {
	if p.trace {
		p.printTrace(msg, "(")
		p.indent++
	}
	return p
}

// Usage pattern: defer un(trace(p, "..."))
func un(p *parser) {
	if p.trace {
		p.indent--
		p.printTrace(")")
	}
}

// Advance to the next token.
func (p *parser) next() {
	// Because of one-token look-ahead, print the previous token
	// when tracing as it provides a more readable output. The
	// very first token (!p.pos.IsValid()) is not initialized
	// (it is ILLEGAL), so don't print it.
	if p.trace && p.pos.IsValid() {
		s := p.tok.String()
		switch {
		case p.tok.IsLiteral():
			p.printTrace(s, p.lit)
		case p.tok.IsOperator(), p.tok.IsKeyword():
			p.printTrace("\"" + s + "\"")
		default:
			p.printTrace(s)
		}
	}
	p.pos, p.tok, p.lit = p.scanner.Scan()
}

func (p *parser) errf(pos token.Pos, msg string, args ...any) {
	// If AllErrors is not set, discard errors reported on the same line
	// as the last recorded error and stop parsing if there are more than
	// 10 errors.
	if p.mode&allErrorsMode == 0 {
		n := len(p.errors)
		if n > 0 && p.errors[n-1].Position().Line() == pos.Line() {
			return // discard - likely a spurious error
		}
		if n > 10 {
			p.panicking = true
			panic("too many errors")
		}
	}
	p.errors.AddNewf(pos, msg, args...)
}

func (p *parser) errorExpected(pos token.Pos, obj string) {
	if pos != p.pos {
		p.errf(pos, "expected %s", obj)
		return
	}
	// the error happened at the current position;
	// make the error message more specific
	if p.tok.IsLiteral() {
		p.errf(pos, "expected %s, found %s %s", obj, p.tok, p.lit)
	} else {
		p.errf(pos, "expected %s, found '%s'", obj, p.tok)
	}
}

func (p *parser) expect(tok token.Token) token.Pos {
	pos := p.pos
	if p.tok != tok {
		p.errorExpected(pos, "'"+tok.String()+"'")
	}
	p.next() // make progress
	return pos
}

func (p *parser) expectIdent() (token.Pos, string) {
	pos, lit := p.pos, p.lit
	if p.tok != token.IDENT {
		p.errorExpected(pos, "identifier")
		lit = "_"
	}
	p.next()
	return pos, lit
}

func (p *parser) add(n ast.Node) ast.NodeID {
	return p.tree.Add(n)
}

// ----------------------------------------------------------------------------
// Names

func (p *parser) declare(pos token.Pos, text string, n ast.Name) ast.NameID {
	if _, ok := p.names[text]; ok {
		p.errf(pos, "%s redeclared", text)
	}
	n.Text = text
	n.Pos = pos
	if n.Kind != ast.External {
		n.Kind = ast.Source
		if ast.IsTemporaryText(text) {
			n.Kind = ast.Temporary
		}
	}
	n.Type = n.DeclaredType
	id := p.tree.AddName(n)
	p.names[text] = id
	return id
}

func (p *parser) ref(id ast.NodeID, pos token.Pos, text string, assign bool) {
	p.pending = append(p.pending, pendingRef{id, text, pos, assign})
}

func (p *parser) resolve() {
	for _, r := range p.pending {
		id, ok := p.names[r.text]
		if !ok {
			p.errf(r.pos, "undefined: %s", r.text)
			continue
		}
		if r.assign && p.tree.Name(id).Kind == ast.External {
			p.errf(r.pos, "cannot assign to external name %s", r.text)
			continue
		}
		p.tree.Node(r.node).Name = id
	}
}

// ----------------------------------------------------------------------------
// Statements

func (p *parser) parseFile() *ast.Tree {
	if p.trace {
		defer un(trace(p, "File"))
	}
	pos := p.pos
	list := p.parseStmtList(token.EOF)
	p.tree.Root = p.add(ast.Node{Kind: ast.BlockStmt, Pos: pos, List: list})
	return p.tree
}

func (p *parser) parseStmtList(end token.Token) (list []ast.NodeID) {
	if p.trace {
		defer un(trace(p, "StmtList"))
	}
	for p.tok != end && p.tok != token.EOF {
		pos := p.pos
		list = append(list, p.parseStmt()...)
		if p.pos == pos {
			// No progress; skip the offending token.
			p.next()
		}
	}
	return list
}

func (p *parser) parseBlock() ast.NodeID {
	if p.trace {
		defer un(trace(p, "Block"))
	}
	pos := p.expect(token.LBRACE)
	list := p.parseStmtList(token.RBRACE)
	p.expect(token.RBRACE)
	return p.add(ast.Node{Kind: ast.BlockStmt, Pos: pos, List: list})
}

// parseStmt returns the statements for one source statement. Declarations
// with an initializer produce two; externs produce none.
func (p *parser) parseStmt() []ast.NodeID {
	if p.trace {
		defer un(trace(p, "Stmt"))
	}
	pos := p.pos
	switch p.tok {
	case token.EXPORT, token.LET, token.VAR:
		return p.parseDecl()

	case token.EXTERN:
		p.next()
		pos, text := p.expectIdent()
		p.expect(token.COLON)
		typ := p.parseType()
		p.expect(token.SEMICOLON)
		p.declare(pos, text, ast.Name{Kind: ast.External, DeclaredType: typ})
		return nil

	case token.IF:
		return []ast.NodeID{p.parseIf()}

	case token.WHILE:
		p.next()
		p.expect(token.LPAREN)
		cond := p.parseExpr()
		p.expect(token.RPAREN)
		body := p.parseBlock()
		return []ast.NodeID{p.add(ast.Node{Kind: ast.WhileStmt, Pos: pos, X: cond, Body: body})}

	case token.LABEL:
		p.next()
		_, label := p.expectIdent()
		body := p.parseBlock()
		return []ast.NodeID{p.add(ast.Node{Kind: ast.LabeledStmt, Pos: pos, Label: label, Body: body})}

	case token.BREAK:
		p.next()
		_, label := p.expectIdent()
		p.expect(token.SEMICOLON)
		return []ast.NodeID{p.add(ast.Node{Kind: ast.BreakStmt, Pos: pos, Label: label})}

	case token.BUBBLE:
		p.next()
		p.expect(token.LPAREN)
		p.expect(token.RPAREN)
		p.expect(token.SEMICOLON)
		return []ast.NodeID{p.add(ast.Node{Kind: ast.BubbleStmt, Pos: pos})}

	case token.RETURN:
		p.next()
		x := ast.NoNode
		if p.tok != token.SEMICOLON {
			x = p.parseExpr()
		}
		p.expect(token.SEMICOLON)
		return []ast.NodeID{p.add(ast.Node{Kind: ast.ReturnStmt, Pos: pos, X: x})}

	case token.LBRACE:
		body := p.parseBlock()
		if p.tok != token.ORELSE {
			return []ast.NodeID{body}
		}
		p.next()
		handler := p.parseBlock()
		return []ast.NodeID{p.add(ast.Node{Kind: ast.OrElseStmt, Pos: pos, Body: body, Else: handler})}

	case token.SEMICOLON:
		p.next()
		return nil
	}
	return []ast.NodeID{p.parseSimpleStmt()}
}

func (p *parser) parseSimpleStmt() ast.NodeID {
	if p.trace {
		defer un(trace(p, "SimpleStmt"))
	}
	pos := p.pos
	x := p.parseExpr()
	switch op := p.tok; op {
	case token.ASSIGN, token.ADD_ASSIGN, token.SUB_ASSIGN:
		p.next()
		lhs := p.tree.Node(x)
		if lhs.Kind != ast.Ident {
			p.errf(pos, "cannot assign to %s", lhs.Kind)
		}
		rhs := p.parseExpr()
		if op != token.ASSIGN {
			binop := token.ADD
			if op == token.SUB_ASSIGN {
				binop = token.SUB
			}
			rhs = p.add(ast.Node{Kind: ast.BinaryExpr, Pos: pos, Op: binop, X: x, Y: rhs})
		}
		p.expect(token.SEMICOLON)
		id := p.add(ast.Node{Kind: ast.AssignStmt, Pos: pos, X: rhs})
		p.retarget(x, id, op != token.ASSIGN)
		return id
	}
	p.expect(token.SEMICOLON)
	return p.add(ast.Node{Kind: ast.ExprStmt, Pos: pos, X: x})
}

// retarget binds the assignment id to the name of the identifier lhs. For
// compound assignments lhs stays in the tree as the left operand and keeps
// its own binding.
func (p *parser) retarget(lhs, id ast.NodeID, keep bool) {
	for i := len(p.pending) - 1; i >= 0; i-- {
		r := p.pending[i]
		if r.node != lhs {
			continue
		}
		if !keep {
			p.pending = append(p.pending[:i], p.pending[i+1:]...)
		}
		p.ref(id, r.pos, r.text, true)
		return
	}
}

func (p *parser) parseDecl() []ast.NodeID {
	if p.trace {
		defer un(trace(p, "Decl"))
	}
	pos := p.pos
	var n ast.Name
	if p.tok == token.EXPORT {
		n.Exported = true
		n.Reach = ast.ReachExport
		p.next()
	}
	switch p.tok {
	case token.VAR:
		n.Mut = ast.Var
		p.next()
	case token.LET:
		p.next()
	default:
		p.errorExpected(p.pos, "'let' or 'var'")
	}
	namePos, text := p.expectIdent()
	if p.tok == token.COLON {
		p.next()
		n.DeclaredType = p.parseType()
	}
	for p.tok == token.AT {
		p.next()
		attrPos, attr := p.expectIdent()
		switch attr {
		case "placeholder":
			n.Placeholder = true
		case "test":
			if n.Reach == ast.ReachNone {
				n.Reach = ast.ReachTest
			}
		default:
			p.errf(attrPos, "unknown attribute @%s", attr)
		}
	}
	id := p.declare(namePos, text, n)
	decl := p.add(ast.Node{Kind: ast.DeclStmt, Pos: pos, Name: id})
	if p.tok != token.ASSIGN {
		p.expect(token.SEMICOLON)
		return []ast.NodeID{decl}
	}
	assignPos := p.pos
	p.next()
	x := p.parseExpr()
	p.expect(token.SEMICOLON)
	assign := p.add(ast.Node{Kind: ast.AssignStmt, Pos: assignPos, Name: id, X: x})
	return []ast.NodeID{decl, assign}
}

func (p *parser) parseType() ast.Type {
	_, lit := p.expectIdent()
	return ast.Type(lit)
}

func (p *parser) parseIf() ast.NodeID {
	if p.trace {
		defer un(trace(p, "If"))
	}
	pos := p.expect(token.IF)
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	body := p.parseBlock()
	els := ast.NoNode
	if p.tok == token.ELSE {
		p.next()
		switch p.tok {
		case token.IF:
			els = p.parseIf()
		case token.LBRACE:
			els = p.parseBlock()
		default:
			p.errorExpected(p.pos, "if statement or block")
		}
	}
	return p.add(ast.Node{Kind: ast.IfStmt, Pos: pos, X: cond, Body: body, Else: els})
}

// ----------------------------------------------------------------------------
// Expressions

func (p *parser) parseExpr() ast.NodeID {
	if p.trace {
		defer un(trace(p, "Expr"))
	}
	return p.parseBinaryExpr(token.LowestPrec + 1)
}

func (p *parser) parseBinaryExpr(prec1 int) ast.NodeID {
	x := p.parsePrimaryExpr()
	for {
		op, pos := p.tok, p.pos
		oprec := op.Precedence()
		if oprec < prec1 {
			return x
		}
		p.next()
		y := p.parseBinaryExpr(oprec + 1)
		x = p.add(ast.Node{Kind: ast.BinaryExpr, Pos: pos, Op: op, X: x, Y: y})
	}
}

func (p *parser) parsePrimaryExpr() ast.NodeID {
	if p.trace {
		defer un(trace(p, "PrimaryExpr"))
	}
	x := p.parseOperand()
	for p.tok == token.LPAREN {
		pos := p.pos
		p.next()
		var args []ast.NodeID
		for p.tok != token.RPAREN && p.tok != token.EOF {
			args = append(args, p.parseExpr())
			if p.tok != token.COMMA {
				break
			}
			p.next()
		}
		p.expect(token.RPAREN)
		x = p.add(ast.Node{Kind: ast.CallExpr, Pos: pos, X: x, List: args})
	}
	return x
}

func (p *parser) parseOperand() ast.NodeID {
	if p.trace {
		defer un(trace(p, "Operand"))
	}
	pos := p.pos
	switch p.tok {
	case token.IDENT:
		text := p.lit
		p.next()
		id := p.add(ast.Node{Kind: ast.Ident, Pos: pos})
		p.ref(id, pos, text, false)
		return id

	case token.INT, token.FLOAT:
		return p.parseNumber(pos, "")

	case token.SUB:
		p.next()
		if p.tok != token.INT && p.tok != token.FLOAT {
			p.errorExpected(p.pos, "number")
			return p.add(ast.Node{Kind: ast.BadNode, Pos: pos})
		}
		return p.parseNumber(pos, "-")

	case token.STRING:
		lit := p.lit
		if _, err := strconv.Unquote(lit); err != nil {
			p.errf(pos, "invalid string literal %s", lit)
		}
		p.next()
		return p.add(ast.Node{Kind: ast.BasicLit, Pos: pos, Op: token.STRING, Value: lit, Type: ast.String})

	case token.TRUE, token.FALSE:
		tok, lit := p.tok, p.lit
		p.next()
		return p.add(ast.Node{Kind: ast.BasicLit, Pos: pos, Op: tok, Value: lit, Type: ast.Bool})

	case token.NULL:
		p.next()
		return p.add(ast.Node{Kind: ast.BasicLit, Pos: pos, Op: token.NULL, Value: "null", Type: ast.Null})

	case token.VOID:
		p.next()
		return p.add(ast.Node{Kind: ast.BasicLit, Pos: pos, Op: token.VOID, Value: "void", Type: ast.Void})

	case token.LPAREN:
		p.next()
		x := p.parseExpr()
		p.expect(token.RPAREN)
		return x

	case token.HS:
		p.next()
		p.expect(token.LPAREN)
		flagPos, flag := p.expectIdent()
		p.expect(token.COMMA)
		x := p.parseExpr()
		p.expect(token.RPAREN)
		id := p.add(ast.Node{Kind: ast.HsExpr, Pos: pos, X: x})
		p.ref(id, flagPos, flag, true)
		return id

	case token.FN:
		return p.parseFuncLit()

	case token.PANIC:
		p.next()
		p.expect(token.LPAREN)
		msg := p.lit
		if p.tok != token.STRING {
			p.errorExpected(p.pos, "message")
		} else if s, err := strconv.Unquote(msg); err == nil {
			msg = s
		}
		p.next()
		p.expect(token.RPAREN)
		return p.add(ast.Node{Kind: ast.FailExpr, Pos: pos, Value: msg})
	}

	p.errorExpected(pos, "operand")
	return p.add(ast.Node{Kind: ast.BadNode, Pos: pos})
}

// parseNumber validates a numeric literal as an arbitrary precision decimal.
func (p *parser) parseNumber(pos token.Pos, sign string) ast.NodeID {
	tok, lit := p.tok, sign+strings.ReplaceAll(p.lit, "_", "")
	p.next()
	if _, _, err := apd.NewFromString(lit); err != nil {
		p.errf(pos, "invalid number %s: %v", lit, err)
	}
	typ := ast.Int
	if tok == token.FLOAT {
		typ = ast.Float
	}
	return p.add(ast.Node{Kind: ast.BasicLit, Pos: pos, Op: tok, Value: lit, Type: typ})
}

func (p *parser) parseFuncLit() ast.NodeID {
	if p.trace {
		defer un(trace(p, "FuncLit"))
	}
	pos := p.expect(token.FN)
	p.expect(token.LPAREN)
	var params []ast.NameID
	for p.tok == token.IDENT {
		namePos, text := p.expectIdent()
		n := ast.Name{Param: true}
		if p.tok == token.COLON {
			p.next()
			n.DeclaredType = p.parseType()
		}
		params = append(params, p.declare(namePos, text, n))
		if p.tok != token.COMMA {
			break
		}
		p.next()
	}
	p.expect(token.RPAREN)
	body := p.parseBlock()
	return p.add(ast.Node{Kind: ast.FuncLit, Pos: pos, Params: params, Body: body, Type: ast.Fn})
}

// ----------------------------------------------------------------------------
// Types

// annotate computes the type of every expression and infers the type of
// names without a declared type from the first value assigned to them.
func annotate(t *ast.Tree) {
	ast.Walk(t, t.Root, nil, func(id ast.NodeID) {
		n := t.Node(id)
		switch n.Kind {
		case ast.Ident:
			n.Type = t.Name(n.Name).Type
		case ast.CallExpr:
			if f := t.Node(n.X); f.Kind == ast.Ident && t.Name(f.Name).Kind == ast.External {
				n.Type = t.Name(f.Name).Type
			}
		case ast.BinaryExpr:
			if n.Op.IsComparison() {
				n.Type = ast.Bool
			} else {
				n.Type = t.Node(n.X).Type
			}
		case ast.HsExpr:
			n.Type = t.Node(n.X).Type
		case ast.AssignStmt:
			if name := t.Name(n.Name); name.Type == ast.Unknown {
				name.Type = t.Node(n.X).Type
			}
		}
	})
}
