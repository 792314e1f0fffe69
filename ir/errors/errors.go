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

// Package errors defines shared types for handling positioned errors in the
// lowc packages: parse errors, optimizer diagnostics and internal errors.
package errors

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"lowc.dev/go/ir/token"
)

// New is a convenience wrapper for errors.New in the core library.
// It does not return a positioned error.
func New(msg string) error {
	return errors.New(msg)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// Unwrap returns the result of calling the Unwrap method on err, if any.
func Unwrap(err error) error { return errors.Unwrap(err) }

// A Handler is a generic error handler used by the scanner and parser.
//
// The position points to the beginning of the offending token.
type Handler func(pos token.Pos, msg string, args []any)

// Error is the common error message.
type Error interface {
	// Position returns the primary position of an error. If multiple
	// positions contribute equally, this reflects one of them.
	Position() token.Pos

	// Error reports the error message without position information.
	Error() string

	// Msg returns the unformatted error message and its arguments for
	// human consumption.
	Msg() (format string, args []any)
}

// Newf creates an Error with the associated position and message.
func Newf(p token.Pos, format string, args ...any) Error {
	return &posError{
		pos:     p,
		Message: NewMessagef(format, args...),
	}
}

// Wrapf creates an Error with the associated position and message. The
// provided error is added for inspection context.
func Wrapf(err error, p token.Pos, format string, args ...any) Error {
	pErr := &posError{
		pos:     p,
		Message: NewMessagef(format, args...),
	}
	return Wrap(pErr, err)
}

// Wrap creates a new error where child is a subordinate error of parent.
// If child is a list of Errors, the result will itself be a list of errors
// where child is a subordinate error of each parent.
func Wrap(parent Error, child error) Error {
	if child == nil {
		return parent
	}
	a, ok := child.(List)
	if !ok {
		return &wrapped{parent, child}
	}
	b := make(List, len(a))
	for i, err := range a {
		b[i] = &wrapped{parent, err}
	}
	return b
}

// Promote converts a regular Go error to an Error if it isn't already one.
func Promote(err error, msg string) Error {
	switch x := err.(type) {
	case Error:
		return x
	default:
		return Wrapf(err, token.NoPos, "%s", msg)
	}
}

// A Message holds a format string and its arguments so that printing can
// be localized. It is embedded in the positioned errors of this package.
type Message struct {
	format string
	args   []any
}

// NewMessagef creates an error message for human consumption. The arguments
// are for later consumption, allowing the message to be localized at a later
// time. The passed argument list should not be modified.
func NewMessagef(format string, args ...any) Message {
	return Message{format: format, args: args}
}

// Msg returns a printf-style format string and its arguments for human
// consumption.
func (m *Message) Msg() (format string, args []any) {
	return m.format, m.args
}

func (m *Message) Error() string {
	return fmt.Sprintf(m.format, m.args...)
}

type wrapped struct {
	main Error
	wrap error
}

func (e *wrapped) Error() string {
	msg, args := e.main.Msg()
	s := fmt.Sprintf(msg, args...)
	if e.wrap == nil {
		return s
	}
	return s + ": " + e.wrap.Error()
}

func (e *wrapped) Msg() (format string, args []any) {
	return e.main.Msg()
}

func (e *wrapped) Position() token.Pos {
	if p := e.main.Position(); p.IsValid() {
		return p
	}
	if wrap, ok := e.wrap.(Error); ok {
		return wrap.Position()
	}
	return token.NoPos
}

func (e *wrapped) Unwrap() error { return e.wrap }

// In a List, an error is represented by an *posError.
// The position Pos, if valid, points to the beginning of
// the offending token, and the error condition is described
// by Msg.
type posError struct {
	pos token.Pos
	Message
}

func (e *posError) Position() token.Pos { return e.pos }

// Append combines two errors, flattening Lists as necessary.
func Append(a, b Error) Error {
	switch x := a.(type) {
	case List:
		return appendToList(x, b)
	case nil:
		switch x := b.(type) {
		case List:
			if len(x) == 0 {
				return nil
			}
		}
		return b
	}
	return appendToList(List{a}, b)
}

// Errors reports the individual errors associated with an error, which is
// the error itself if there is only one or, if the underlying type is List,
// its individual elements.
func Errors(err error) []Error {
	if err == nil {
		return nil
	}
	var listErr List
	var errorErr Error
	switch {
	case As(err, &listErr):
		return listErr
	case As(err, &errorErr):
		return []Error{errorErr}
	default:
		return []Error{Promote(err, "")}
	}
}

func appendToList(a List, err Error) List {
	switch x := err.(type) {
	case nil:
		return a
	case List:
		if len(a) == 0 {
			return x
		}
		for _, e := range x {
			a = appendToList(a, e)
		}
		return a
	default:
		for _, e := range a {
			if e == err {
				return a
			}
		}
		return append(a, err)
	}
}

// List is a list of Errors.
// The zero value for an List is an empty List ready to use.
type List []Error

func (p *List) add(err Error) {
	*p = appendToList(*p, err)
}

// AddNewf adds an Error with given position and error message to an List.
func (p *List) AddNewf(pos token.Pos, msg string, args ...any) {
	p.add(Newf(pos, msg, args...))
}

// Add adds an Error with given position and error message to an List.
func (p *List) Add(err Error) {
	p.add(err)
}

// Reset resets a List to no errors.
func (p *List) Reset() { *p = (*p)[:0] }

// Msg reports the unformatted error message for the first error, if any.
func (p List) Msg() (format string, args []any) {
	switch len(p) {
	case 0:
		return "no errors", nil
	case 1:
		return p[0].Msg()
	}
	return "%s (and %d more errors)", []any{p[0], len(p) - 1}
}

// Position reports the primary position for the first error, if any.
func (p List) Position() token.Pos {
	if len(p) == 0 {
		return token.NoPos
	}
	return p[0].Position()
}

// Sort sorts a List by position, breaking ties on the message.
func (p List) Sort() {
	slices.SortFunc(p, func(a, b Error) int {
		if c := a.Position().Compare(b.Position()); c != 0 {
			return c
		}
		return strings.Compare(a.Error(), b.Error())
	})
}

// RemoveMultiples sorts a List and removes all but the first error per
// position and message.
func (p *List) RemoveMultiples() {
	p.Sort()
	*p = slices.CompactFunc(*p, func(a, b Error) bool {
		return a.Position() == b.Position() && a.Error() == b.Error()
	})
}

// A List implements the error interface.
func (p List) Error() string {
	format, args := p.Msg()
	return fmt.Sprintf(format, args...)
}

// Err returns an error equivalent to this error list.
// If the list is empty, Err returns nil.
func (p List) Err() error {
	if len(p) == 0 {
		return nil
	}
	return p
}

// A Config defines parameters for printing.
type Config struct {
	// Format formats the given string and arguments and writes it to w.
	// It is used for all printing.
	Format func(w io.Writer, format string, args ...any)

	// Cwd is the current working directory. Filename positions are taken
	// relative to this path.
	Cwd string

	// ToSlash sets whether to use Unix paths. Mostly used for testing.
	ToSlash bool
}

// Print is a utility function that prints a list of errors to w,
// one error per line, if the err parameter is a List. Otherwise
// it prints the err string.
func Print(w io.Writer, err error, cfg *Config) {
	if cfg == nil {
		cfg = &Config{}
	}
	for _, e := range Errors(err) {
		printError(w, e, cfg)
	}
}

// Details is a convenience wrapper for Print to return the error text as a
// string.
func Details(err error, cfg *Config) string {
	var b strings.Builder
	Print(&b, err, cfg)
	return b.String()
}

func defaultFprintf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

func printError(w io.Writer, err error, cfg *Config) {
	if err == nil {
		return
	}
	fprintf := cfg.Format
	if fprintf == nil {
		fprintf = defaultFprintf
	}

	if e, ok := err.(Error); ok {
		format, args := e.Msg()
		fprintf(w, format, args...)
	} else {
		fprintf(w, "%v", err)
	}

	var positions []string
	for e := err; e != nil; e = Unwrap(e) {
		x, ok := e.(Error)
		if !ok {
			continue
		}
		pos := x.Position()
		if !pos.IsValid() {
			continue
		}
		s := pos.String()
		if cfg.Cwd != "" {
			if rel, err := filepath.Rel(cfg.Cwd, pos.Filename()); err == nil {
				p := pos.Position()
				p.Filename = rel
				s = p.String()
			}
		}
		if cfg.ToSlash {
			s = filepath.ToSlash(s)
		}
		if !slices.Contains(positions, s) {
			positions = append(positions, s)
		}
	}

	if len(positions) == 0 {
		fprintf(w, "\n")
		return
	}
	fprintf(w, ":\n")
	for _, pos := range positions {
		fprintf(w, "    %s\n", pos)
	}
}
