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
	"cmp"
	"fmt"
	"sort"
)

// -----------------------------------------------------------------------------
// Positions

// Position describes an arbitrary and printable source position within a file,
// including offset, line, and column location.
//
// A Position is valid if the line number is > 0.
type Position struct {
	Filename string // filename, if any
	Offset   int    // offset, starting at 0
	Line     int    // line number, starting at 1
	Column   int    // column number, starting at 1 (byte count)
}

// IsValid reports whether the position is valid.
func (pos *Position) IsValid() bool { return pos.Line > 0 }

// String returns a human-readable form of a position in one of several forms:
//
//	file:line:column    valid position with file name
//	line:column         valid position without file name
//	file                invalid position with file name
//	-                   invalid position without file name
func (pos Position) String() string {
	s := pos.Filename
	if pos.IsValid() {
		if s != "" {
			s += ":"
		}
		s += fmt.Sprintf("%d:%d", pos.Line, pos.Column)
	}
	if s == "" {
		s = "-"
	}
	return s
}

// Pos is a compact encoding of a source position. The zero value, NoPos,
// carries no file and line information.
type Pos struct {
	file   *File
	offset int // 1-based so that the zero Pos is distinguishable.
}

// NoPos is the zero value for Pos; there is no file and line information
// associated with it, and IsValid is false.
var NoPos = Pos{}

// File returns the file that contains p, or nil for NoPos.
func (p Pos) File() *File { return p.file }

// IsValid reports whether the position is valid.
func (p Pos) IsValid() bool { return p != NoPos }

// Offset returns the byte offset of p within its file.
func (p Pos) Offset() int {
	if p.file == nil {
		return 0
	}
	return p.offset - 1
}

// Line returns the position's line number, starting at 1.
func (p Pos) Line() int { return p.Position().Line }

// Column returns the position's column number counting in bytes,
// starting at 1.
func (p Pos) Column() int { return p.Position().Column }

// Filename returns the name of the file that this position belongs to.
func (p Pos) Filename() string {
	if p.file == nil {
		return ""
	}
	return p.file.name
}

// Position unpacks the position information into a flat struct.
func (p Pos) Position() Position {
	if p.file == nil {
		return Position{}
	}
	return p.file.Position(p)
}

// String returns a human-readable form of a printable position.
func (p Pos) String() string {
	return p.Position().String()
}

// Compare returns an integer comparing two positions. The result will be 0 if
// p == p2, -1 if p < p2, and +1 if p > p2. NoPos is larger than any valid
// position.
func (p Pos) Compare(p2 Pos) int {
	if p == p2 {
		return 0
	} else if p == NoPos {
		return +1
	} else if p2 == NoPos {
		return -1
	}
	if c := cmp.Compare(p.Filename(), p2.Filename()); c != 0 {
		return c
	}
	return cmp.Compare(p.offset, p2.offset)
}

// Before reports whether p is before q.
func (p Pos) Before(q Pos) bool { return p.Compare(q) < 0 }

// -----------------------------------------------------------------------------
// File

// A File has a name, size, and line offset table.
type File struct {
	name  string
	size  int
	lines []int // offset of the first character of each line; lines[0] == 0
}

// NewFile returns a new file with the given name and size.
func NewFile(filename string, size int) *File {
	return &File{name: filename, size: size, lines: []int{0}}
}

// Name returns the file name of file f as passed to NewFile.
func (f *File) Name() string { return f.name }

// Size returns the size of file f as passed to NewFile.
func (f *File) Size() int { return f.size }

// LineCount returns the number of lines in file f.
func (f *File) LineCount() int { return len(f.lines) }

// AddLine adds the line offset for a new line.
// The line offset must be larger than the offset for the previous line
// and smaller than the file size; otherwise the line offset is ignored.
func (f *File) AddLine(offset int) {
	if i := len(f.lines); (i == 0 || f.lines[i-1] < offset) && offset < f.size {
		f.lines = append(f.lines, offset)
	}
}

// Pos returns the Pos value for the given file offset.
// Out of range offsets are clamped to the file.
func (f *File) Pos(offset int) Pos {
	switch {
	case offset < 0:
		offset = 0
	case offset > f.size:
		offset = f.size
	}
	return Pos{f, offset + 1}
}

// Position returns the Position value for the given file position p.
func (f *File) Position(p Pos) (pos Position) {
	if p == NoPos {
		return pos
	}
	offset := p.offset - 1
	pos.Filename = f.name
	pos.Offset = offset
	i := sort.Search(len(f.lines), func(i int) bool { return f.lines[i] > offset }) - 1
	if i >= 0 {
		pos.Line, pos.Column = i+1, offset-f.lines[i]+1
	}
	return pos
}
