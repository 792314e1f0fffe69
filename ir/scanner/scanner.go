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

// Package scanner implements a scanner for the text form of the lowered IR.
// It takes a []byte as source which can then be tokenized through repeated
// calls to the Scan method.
package scanner

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"lowc.dev/go/ir/errors"
	"lowc.dev/go/ir/token"
)

// A Scanner holds the Scanner's internal state while processing
// a given text. It must be initialized via Init before use.
type Scanner struct {
	// immutable state
	file *token.File    // source file handle
	src  []byte         // source
	err  errors.Handler // error reporting; or nil
	mode Mode           // scanning mode

	// scanning state
	ch       rune // current character
	offset   int  // character offset
	rdOffset int  // reading offset (position after current character)

	// public state - ok to modify
	ErrorCount int // number of errors encountered
}

const bom = 0xFEFF // byte order mark, only permitted as very first character

// Read the next Unicode char into s.ch.
// s.ch < 0 means end-of-file.
func (s *Scanner) next() {
	if s.rdOffset < len(s.src) {
		s.offset = s.rdOffset
		if s.ch == '\n' {
			s.file.AddLine(s.offset)
		}
		r, w := rune(s.src[s.rdOffset]), 1
		switch {
		case r == 0:
			s.error(s.offset, "illegal character NUL")
		case r >= utf8.RuneSelf:
			// not ASCII
			r, w = utf8.DecodeRune(s.src[s.rdOffset:])
			if r == utf8.RuneError && w == 1 {
				s.error(s.offset, "illegal UTF-8 encoding")
			} else if r == bom && s.offset > 0 {
				s.error(s.offset, "illegal byte order mark")
			}
		}
		s.rdOffset += w
		s.ch = r
	} else {
		s.offset = len(s.src)
		if s.ch == '\n' {
			s.file.AddLine(s.offset)
		}
		s.ch = -1 // eof
	}
}

// A Mode value is a set of flags (or 0).
// They control scanner behavior.
type Mode uint

// These constants are options to the Init function.
const (
	ScanComments Mode = 1 << iota // return comments as COMMENT tokens
)

// Init prepares the scanner s to tokenize the text src by setting the
// scanner at the beginning of src. The scanner uses the file for position
// information and it adds line information for each line. Init causes a
// panic if the file size does not match the src size.
//
// Calls to Scan will invoke the error handler err if they encounter a
// syntax error and err is not nil. Also, for each error encountered,
// the Scanner field ErrorCount is incremented by one.
func (s *Scanner) Init(file *token.File, src []byte, err errors.Handler, mode Mode) {
	// Explicitly initialize all fields since a scanner may be reused.
	if file.Size() != len(src) {
		panic(fmt.Sprintf("file size (%d) does not match src len (%d)", file.Size(), len(src)))
	}
	s.file = file
	s.src = src
	s.err = err
	s.mode = mode

	s.ch = ' '
	s.offset = 0
	s.rdOffset = 0
	s.ErrorCount = 0

	s.next()
	if s.ch == bom {
		s.next() // ignore BOM at file beginning
	}
}

func (s *Scanner) errf(offs int, msg string, args ...any) {
	if s.err != nil {
		s.err(s.file.Pos(offs), msg, args)
	}
	s.ErrorCount++
}

func (s *Scanner) error(offs int, msg string) {
	s.errf(offs, "%s", msg)
}

func (s *Scanner) scanComment() string {
	// initial '/' already consumed; s.ch == '/'
	offs := s.offset - 1 // position of initial '/'
	for s.ch != '\n' && s.ch >= 0 {
		s.next()
	}
	end := s.offset
	if end > offs && s.src[end-1] == '\r' {
		end--
	}
	return string(s.src[offs:end])
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' ||
		ch >= utf8.RuneSelf && unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

// scanIdentifier scans an identifier, including the numeric suffix of a
// temporary such as t#12.
func (s *Scanner) scanIdentifier() string {
	offs := s.offset
	for isLetter(s.ch) || isDigit(s.ch) {
		s.next()
	}
	if s.ch == '#' {
		s.next()
		if !isDigit(s.ch) {
			s.error(s.offset, "expected digits after '#'")
		}
		for isDigit(s.ch) {
			s.next()
		}
	}
	return string(s.src[offs:s.offset])
}

func (s *Scanner) scanNumber() (token.Token, string) {
	offs := s.offset
	tok := token.INT
	for isDigit(s.ch) || s.ch == '_' {
		s.next()
	}
	if s.ch == '.' {
		tok = token.FLOAT
		s.next()
		if !isDigit(s.ch) {
			s.error(s.offset, "expected digits after decimal point")
		}
		for isDigit(s.ch) {
			s.next()
		}
	}
	if s.ch == 'e' || s.ch == 'E' {
		tok = token.FLOAT
		s.next()
		if s.ch == '-' || s.ch == '+' {
			s.next()
		}
		if !isDigit(s.ch) {
			s.error(s.offset, "illegal exponent")
		}
		for isDigit(s.ch) {
			s.next()
		}
	}
	return tok, string(s.src[offs:s.offset])
}

func (s *Scanner) scanString() string {
	// '"' opening already consumed
	offs := s.offset - 1
	for {
		ch := s.ch
		if ch == '\n' || ch < 0 {
			s.error(offs, "string literal not terminated")
			break
		}
		s.next()
		if ch == '"' {
			break
		}
		if ch == '\\' {
			switch s.ch {
			case 'n', 't', 'r', '\\', '"':
				s.next()
			default:
				s.errf(s.offset, "unknown escape sequence")
			}
		}
	}
	return string(s.src[offs:s.offset])
}

func (s *Scanner) skipWhitespace() {
	for s.ch == ' ' || s.ch == '\t' || s.ch == '\n' || s.ch == '\r' {
		s.next()
	}
}

func (s *Scanner) switch2(tok0, tok1 token.Token) token.Token {
	if s.ch == '=' {
		s.next()
		return tok1
	}
	return tok0
}

// Scan scans the next token and returns the token position, the token,
// and its literal string if applicable. The source end is indicated by
// EOF.
//
// If the returned token is a literal (IDENT, INT, FLOAT, STRING) or
// COMMENT, the literal string has the corresponding value.
//
// If the returned token is a keyword, the literal string is the keyword.
//
// If the returned token is ILLEGAL, the literal string is the offending
// character.
//
// In all other cases, Scan returns an empty literal string.
func (s *Scanner) Scan() (pos token.Pos, tok token.Token, lit string) {
scanAgain:
	s.skipWhitespace()

	// current token start
	offset := s.offset
	pos = s.file.Pos(offset)

	// determine token value
	switch ch := s.ch; {
	case isLetter(ch):
		lit = s.scanIdentifier()
		tok = token.Lookup(lit)
	case isDigit(ch):
		tok, lit = s.scanNumber()
	default:
		s.next() // always make progress
		switch ch {
		case -1:
			tok = token.EOF
		case '"':
			tok = token.STRING
			lit = s.scanString()
		case '(':
			tok = token.LPAREN
		case ')':
			tok = token.RPAREN
		case '{':
			tok = token.LBRACE
		case '}':
			tok = token.RBRACE
		case ',':
			tok = token.COMMA
		case ';':
			tok = token.SEMICOLON
		case ':':
			tok = token.COLON
		case '@':
			tok = token.AT
		case '+':
			tok = s.switch2(token.ADD, token.ADD_ASSIGN)
		case '-':
			tok = s.switch2(token.SUB, token.SUB_ASSIGN)
		case '*':
			tok = token.MUL
		case '%':
			tok = token.REM
		case '/':
			if s.ch == '/' {
				comment := s.scanComment()
				if s.mode&ScanComments == 0 {
					goto scanAgain
				}
				tok = token.COMMENT
				lit = comment
			} else {
				tok = token.QUO
			}
		case '=':
			tok = s.switch2(token.ASSIGN, token.EQL)
		case '!':
			if s.ch == '=' {
				s.next()
				tok = token.NEQ
			} else {
				s.errf(offset, "illegal character %#U", ch)
				tok = token.ILLEGAL
				lit = string(ch)
			}
		case '<':
			tok = s.switch2(token.LSS, token.LEQ)
		case '>':
			tok = s.switch2(token.GTR, token.GEQ)
		default:
			// next reports unexpected BOMs - don't repeat
			if ch != bom {
				s.errf(offset, "illegal character %#U", ch)
			}
			tok = token.ILLEGAL
			lit = string(ch)
		}
	}
	return
}
