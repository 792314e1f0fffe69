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

package errors

import (
	"io"
	"testing"

	"github.com/go-quicktest/qt"

	"lowc.dev/go/ir/token"
)

func positions() (p1, p2 token.Pos) {
	f := token.NewFile("/work/dir/a.lowc", 20)
	f.AddLine(10)
	return f.Pos(2), f.Pos(12)
}

func TestList(t *testing.T) {
	p1, p2 := positions()

	var l List
	l.AddNewf(p2, "b %d", 2)
	l.AddNewf(p1, "a")
	l.AddNewf(p2, "b %d", 2)
	l.Add(Newf(token.NoPos, "c"))
	qt.Assert(t, qt.HasLen(l, 4))

	l.RemoveMultiples()
	qt.Assert(t, qt.HasLen(l, 3))
	qt.Check(t, qt.Equals(l[0].Error(), "a"))
	qt.Check(t, qt.Equals(l[1].Error(), "b 2"))
	qt.Check(t, qt.Equals(l[2].Error(), "c"))
	qt.Check(t, qt.Equals(l.Error(), "a (and 2 more errors)"))
	qt.Check(t, qt.Equals(l.Position(), p1))

	l.Reset()
	qt.Check(t, qt.IsNil(l.Err()))
	qt.Check(t, qt.Equals(l.Error(), "no errors"))
}

func TestPrint(t *testing.T) {
	p1, p2 := positions()

	var l List
	l.AddNewf(p1, "first %s", "error")
	l.AddNewf(p2, "second")
	l.Add(Newf(token.NoPos, "third"))

	testCases := []struct {
		desc string
		cfg  *Config
		want string
	}{{
		desc: "absolute",
		want: "first error:\n    /work/dir/a.lowc:1:3\nsecond:\n    /work/dir/a.lowc:2:3\nthird\n",
	}, {
		desc: "relative",
		cfg:  &Config{Cwd: "/work"},
		want: "first error:\n    dir/a.lowc:1:3\nsecond:\n    dir/a.lowc:2:3\nthird\n",
	}}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			qt.Assert(t, qt.Equals(Details(l, tc.cfg), tc.want))
		})
	}
}

func TestWrap(t *testing.T) {
	p1, p2 := positions()

	err := Wrapf(io.EOF, p1, "reading %s", "a")
	qt.Check(t, qt.Equals(err.Error(), "reading a: EOF"))
	qt.Check(t, qt.IsTrue(Is(err, io.EOF)))
	qt.Check(t, qt.Equals(Details(err, nil), "reading a:\n    /work/dir/a.lowc:1:3\n"))

	qt.Check(t, qt.Equals(Promote(io.EOF, "io").Error(), "io: EOF"))
	qt.Check(t, qt.Equals(Promote(err, "io"), err))

	// Wrapping a list wraps each of its elements.
	list := List{Newf(p1, "a"), Newf(p2, "b")}
	werr := Wrap(Newf(token.NoPos, "outer"), list)
	qt.Assert(t, qt.HasLen(Errors(werr), 2))
	qt.Check(t, qt.Equals(Details(werr, &Config{Cwd: "/work"}),
		"outer:\n    dir/a.lowc:1:3\nouter:\n    dir/a.lowc:2:3\n"))
}

func TestAppend(t *testing.T) {
	p1, p2 := positions()
	a, b := Newf(p1, "a"), Newf(p2, "b")

	qt.Check(t, qt.IsNil(Append(nil, List{})))
	qt.Check(t, qt.Equals(Append(nil, a), a))
	qt.Check(t, qt.HasLen(Errors(Append(a, b)), 2))
	qt.Check(t, qt.HasLen(Errors(Append(Append(a, b), a)), 2))
	qt.Check(t, qt.HasLen(Errors(Append(List{a}, List{b, a})), 2))
	qt.Check(t, qt.IsNil(Errors(nil)))
}
