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

package scanner

import (
	"fmt"
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"

	"lowc.dev/go/ir/token"
)

type elt struct {
	Pos string
	Tok token.Token
	Lit string
}

func scanAll(src string, mode Mode) (elts []elt, errs []string) {
	f := token.NewFile("", len(src))
	var s Scanner
	s.Init(f, []byte(src), func(pos token.Pos, msg string, args []any) {
		errs = append(errs, fmt.Sprintf("%s: %s", pos, fmt.Sprintf(msg, args...)))
	}, mode)
	for {
		pos, tok, lit := s.Scan()
		elts = append(elts, elt{pos.String(), tok, lit})
		if tok == token.EOF {
			return elts, errs
		}
	}
}

func TestScan(t *testing.T) {
	src := "let t#1 = f(2.5e3, \"a\\\"b\") <= 1_000; // c\n!= @ x-=-1"
	got, errs := scanAll(src, ScanComments)
	qt.Assert(t, qt.HasLen(errs, 0))

	want := []elt{
		{"1:1", token.LET, "let"},
		{"1:5", token.IDENT, "t#1"},
		{"1:9", token.ASSIGN, ""},
		{"1:11", token.IDENT, "f"},
		{"1:12", token.LPAREN, ""},
		{"1:13", token.FLOAT, "2.5e3"},
		{"1:18", token.COMMA, ""},
		{"1:20", token.STRING, `"a\"b"`},
		{"1:26", token.RPAREN, ""},
		{"1:28", token.LEQ, ""},
		{"1:31", token.INT, "1_000"},
		{"1:36", token.SEMICOLON, ""},
		{"1:38", token.COMMENT, "// c"},
		{"2:1", token.NEQ, ""},
		{"2:4", token.AT, ""},
		{"2:6", token.IDENT, "x"},
		{"2:7", token.SUB_ASSIGN, ""},
		{"2:9", token.SUB, ""},
		{"2:10", token.INT, "1"},
		{"2:11", token.EOF, ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens differ (-want +got):\n%s", diff)
	}
}

func TestSkipComments(t *testing.T) {
	got, _ := scanAll("a // one\n// two\nb", 0)
	qt.Assert(t, qt.DeepEquals(got, []elt{
		{"1:1", token.IDENT, "a"},
		{"3:1", token.IDENT, "b"},
		{"3:2", token.EOF, ""},
	}))
}

func TestErrors(t *testing.T) {
	testCases := []struct {
		src  string
		want []string
	}{{
		src:  "t#x",
		want: []string{"1:3: expected digits after '#'"},
	}, {
		src:  "a $",
		want: []string{"1:3: illegal character U+0024 '$'"},
	}, {
		src:  `"abc`,
		want: []string{"1:1: string literal not terminated"},
	}, {
		src:  "1.x",
		want: []string{"1:3: expected digits after decimal point"},
	}, {
		src:  "!x",
		want: []string{"1:1: illegal character U+0021 '!'"},
	}}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			_, errs := scanAll(tc.src, 0)
			qt.Assert(t, qt.DeepEquals(errs, tc.want))
		})
	}
}
