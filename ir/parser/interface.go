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

// Package parser implements a parser for the text form of the lowered IR.
//
// The text form is what flow lowering would hand to the temporary cleanup
// pass. Declarations with an initializer desugar into a declaration followed
// by an assignment, and compound assignments desugar into plain ones.
package parser

import "lowc.dev/go/ir/ast"

// Option specifies a parse option.
type Option func(p *parser)

var (
	// AllErrors causes all errors to be reported (not just the first 10 on
	// different lines).
	AllErrors Option = allErrors

	// Trace causes parsing to print a trace of parsed productions.
	Trace Option = traceOpt
)

func allErrors(p *parser) { p.mode |= allErrorsMode }
func traceOpt(p *parser)  { p.mode |= traceMode }

type mode uint

const (
	allErrorsMode mode = 1 << iota
	traceMode
)

// ParseFile parses the source of a single file and returns the corresponding
// tree. Names are resolved and expression types are annotated.
//
// If the source couldn't be read or contains syntax or resolution errors,
// the returned error is an errors.List sorted by position. The tree is
// always non-nil, but may be partial when there are errors.
func ParseFile(filename string, src []byte, opts ...Option) (t *ast.Tree, err error) {
	var pp parser
	defer func() {
		if pp.panicking {
			_ = recover()
		}
		t = pp.tree
		pp.errors.Sort()
		err = pp.errors.Err()
	}()

	pp.init(filename, src, opts)
	t = pp.parseFile()
	if len(pp.errors) == 0 {
		pp.resolve()
	}
	if len(pp.errors) == 0 {
		annotate(t)
	}
	return t, pp.errors.Err()
}
