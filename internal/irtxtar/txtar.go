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

// Package irtxtar runs golden tests stored in txtar archives.
//
// An archive holds the inputs of a test as .lowc files and its expected
// outputs under out/<name>. The archive comment may hold tags such as
// #skip, and #flags: lines with command line style options for the test.
package irtxtar

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/shlex"
	"github.com/kr/pretty"
	"github.com/rogpeppe/go-internal/txtar"
	"github.com/spf13/pflag"

	"lowc.dev/go/internal/irtest"
	"lowc.dev/go/ir/ast"
	"lowc.dev/go/ir/errors"
	"lowc.dev/go/ir/format"
	"lowc.dev/go/ir/parser"
)

// A TxTarTest represents a test run that processes all tests in the txtar
// format rooted in a given directory.
type TxTarTest struct {
	// Run TxTarTest on this directory.
	Root string

	// Name is a unique name for this test. The golden files for this test
	// are the out/<name> files in the .txtar file.
	Name string

	// If Update is true, Run updates the golden files that differ from the
	// output of the test.
	Update bool

	// Skip is a map of tests to skip to their skip message.
	Skip map[string]string

	// ToDo is a map of tests that should be skipped now, but should be fixed.
	ToDo map[string]string
}

// A Test represents a single test based on a .txtar file.
//
// A Test embeds *testing.T and should be used to report errors. It is also
// an io.Writer for the default output, out/<name>.
type Test struct {
	*testing.T

	prefix   string
	buf      *bytes.Buffer
	outFiles []file

	Archive *txtar.Archive

	// The absolute path of the directory holding the archive.
	Dir string

	hasGold bool
}

type file struct {
	name string
	buf  *bytes.Buffer
}

func (t *Test) Write(b []byte) (n int, err error) {
	if t.buf == nil {
		t.buf = &bytes.Buffer{}
		t.outFiles = append(t.outFiles, file{t.prefix, t.buf})
	}
	return t.buf.Write(b)
}

// Writer returns a Writer for the output out/<test name>/<name>, or the
// default output if name is empty.
func (t *Test) Writer(name string) io.Writer {
	if name == "" {
		name = t.prefix
	} else {
		name = path.Join(t.prefix, name)
	}
	for _, f := range t.outFiles {
		if f.name == name {
			return f.buf
		}
	}
	w := &bytes.Buffer{}
	t.outFiles = append(t.outFiles, file{name, w})
	if name == t.prefix {
		t.buf = w
	}
	return w
}

// HasTag reports whether the archive comment has a line #key.
func (t *Test) HasTag(key string) bool {
	prefix := []byte("#" + key)
	s := bufio.NewScanner(bytes.NewReader(t.Archive.Comment))
	for s.Scan() {
		if bytes.Equal(bytes.TrimSpace(s.Bytes()), prefix) {
			return true
		}
	}
	return false
}

// Value returns the value of the first line #key: value of the archive
// comment.
func (t *Test) Value(key string) (value string, ok bool) {
	prefix := []byte("#" + key + ":")
	s := bufio.NewScanner(bytes.NewReader(t.Archive.Comment))
	for s.Scan() {
		if b := s.Bytes(); bytes.HasPrefix(b, prefix) {
			return string(bytes.TrimSpace(b[len(prefix):])), true
		}
	}
	return "", false
}

// Bool reports whether the comment has a line #key: true.
func (t *Test) Bool(key string) bool {
	s, ok := t.Value(key)
	return ok && s == "true"
}

// ParseFlags parses the #flags: line of the archive comment, split as a
// shell would, into fs. It is not an error for the line to be absent.
func (t *Test) ParseFlags(fs *pflag.FlagSet) {
	t.Helper()
	line, ok := t.Value("flags")
	if !ok {
		return
	}
	args, err := shlex.Split(line)
	if err != nil {
		t.Fatalf("#flags: %v", err)
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("#flags: %v", err)
	}
}

// Rel converts filename to a form that is stable across runs and operating
// systems.
func (t *Test) Rel(filename string) string {
	rel, err := filepath.Rel(t.Dir, filename)
	if err != nil {
		return filepath.Base(filename)
	}
	return filepath.ToSlash(rel)
}

// WriteErrors prints err to the default output with positions relative to
// the test directory.
func (t *Test) WriteErrors(err error) {
	if err != nil {
		errors.Print(t, err, &errors.Config{
			Cwd:     t.Dir,
			ToSlash: true,
		})
	}
}

// File returns the contents of the archive file with the given name.
func (t *Test) File(name string) []byte {
	t.Helper()
	for _, f := range t.Archive.Files {
		if f.Name == name {
			return f.Data
		}
	}
	t.Fatalf("no file %s in archive", name)
	return nil
}

// Tree parses the archive file with the given name. A parse error fails
// the test.
func (t *Test) Tree(name string) *ast.Tree {
	t.Helper()
	tree, err := parser.ParseFile(name, t.File(name))
	if err != nil {
		t.Fatalf("parse error:\n%s", errors.Details(err, nil))
	}
	return tree
}

// WriteTree prints tree to w.
func (t *Test) WriteTree(w io.Writer, tree *ast.Tree) {
	t.Helper()
	b, err := format.File(tree)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = w.Write(b)
}

// Dump logs a readable rendition of v, for use in failing tests.
func (t *Test) Dump(v any) {
	t.Helper()
	t.Logf("%# v", pretty.Formatter(v))
}

// Run runs the tests defined in the txtar files in root or its
// subdirectories.
func (x *TxTarTest) Run(t *testing.T, f func(tc *Test)) {
	dir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	err = filepath.WalkDir(x.Root, func(fullpath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(fullpath) != ".txtar" {
			return nil
		}

		str := filepath.ToSlash(fullpath)
		p := strings.Index(str, "testdata/")
		testName := str[p+len("testdata/") : len(str)-len(".txtar")]

		t.Run(testName, func(t *testing.T) {
			a, err := txtar.ParseFile(fullpath)
			if err != nil {
				t.Fatalf("error parsing txtar file: %v", err)
			}

			tc := &Test{
				T:       t,
				Archive: a,
				Dir:     filepath.Dir(filepath.Join(dir, fullpath)),
				prefix:  path.Join("out", x.Name),
			}

			if tc.HasTag("skip") {
				t.Skip()
			}
			if msg, ok := x.Skip[testName]; ok {
				t.Skip(msg)
			}
			if msg, ok := x.ToDo[testName]; ok {
				t.Skip(msg)
			}

			for _, f := range a.Files {
				if strings.HasPrefix(f.Name, tc.prefix) {
					tc.hasGold = true
				}
			}

			f(tc)

			update := false
			for _, sub := range tc.outFiles {
				var gold *txtar.File
				for i, f := range a.Files {
					if f.Name == sub.name {
						gold = &a.Files[i]
					}
				}

				result := sub.buf.Bytes()

				switch {
				case gold == nil:
					a.Files = append(a.Files, txtar.File{Name: sub.name})
					gold = &a.Files[len(a.Files)-1]

				case bytes.Equal(gold.Data, result):
					continue
				}

				if x.Update || irtest.UpdateGoldenFiles {
					update = true
					gold.Data = result
					continue
				}

				t.Errorf("result for %s differs:\n%s",
					sub.name,
					cmp.Diff(string(gold.Data), string(result)))
			}

			if update {
				if err := os.WriteFile(fullpath, txtar.Format(a), 0o644); err != nil {
					t.Fatal(err)
				}
			}
		})
		return nil
	})
	if err != nil {
		t.Fatal(fmt.Errorf("walking %s: %w", x.Root, err))
	}
}
