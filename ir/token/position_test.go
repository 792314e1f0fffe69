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

package token

import (
	"testing"

	"github.com/go-quicktest/qt"
)

func TestPosition(t *testing.T) {
	f := NewFile("a.lowc", 20)
	f.AddLine(10)
	f.AddLine(5)  // ignored: not increasing
	f.AddLine(30) // ignored: beyond the end
	qt.Assert(t, qt.Equals(f.LineCount(), 2))

	testCases := []struct {
		offset int
		want   string
	}{
		{0, "a.lowc:1:1"},
		{9, "a.lowc:1:10"},
		{10, "a.lowc:2:1"},
		{12, "a.lowc:2:3"},
		{-4, "a.lowc:1:1"},
		{99, "a.lowc:2:11"},
	}
	for _, tc := range testCases {
		qt.Check(t, qt.Equals(f.Pos(tc.offset).String(), tc.want), qt.Commentf("offset %d", tc.offset))
	}

	qt.Check(t, qt.Equals(NoPos.String(), "-"))
	qt.Check(t, qt.Equals(Position{Line: 3, Column: 4}.String(), "3:4"))
	qt.Check(t, qt.Equals(Position{Filename: "b.lowc"}.String(), "b.lowc"))
	qt.Check(t, qt.IsFalse(NoPos.IsValid()))
	qt.Check(t, qt.Equals(f.Pos(12).Offset(), 12))
	qt.Check(t, qt.Equals(f.Pos(12).Filename(), "a.lowc"))
}

func TestCompare(t *testing.T) {
	a := NewFile("a.lowc", 10)
	b := NewFile("b.lowc", 10)

	qt.Check(t, qt.Equals(a.Pos(1).Compare(a.Pos(1)), 0))
	qt.Check(t, qt.Equals(a.Pos(1).Compare(a.Pos(2)), -1))
	qt.Check(t, qt.Equals(a.Pos(5).Compare(b.Pos(1)), -1))
	qt.Check(t, qt.Equals(NoPos.Compare(a.Pos(9)), 1))
	qt.Check(t, qt.IsTrue(a.Pos(9).Before(NoPos)))
	qt.Check(t, qt.IsFalse(a.Pos(2).Before(a.Pos(2))))
}

func TestTokens(t *testing.T) {
	qt.Check(t, qt.Equals(Lookup("orelse"), ORELSE))
	qt.Check(t, qt.Equals(Lookup("t#1"), IDENT))
	qt.Check(t, qt.Equals(ADD_ASSIGN.String(), "+="))
	qt.Check(t, qt.Equals(Token(-1).String(), "token(-1)"))
	qt.Check(t, qt.IsTrue(LEQ.IsComparison()))
	qt.Check(t, qt.IsFalse(ADD.IsComparison()))
	qt.Check(t, qt.IsTrue(MUL.Precedence() > ADD.Precedence()))
	qt.Check(t, qt.Equals(ASSIGN.Precedence(), LowestPrec))
}
