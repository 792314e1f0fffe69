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

package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"lowc.dev/go/ir/ast"
	"lowc.dev/go/ir/errors"
	"lowc.dev/go/ir/format"
	"lowc.dev/go/ir/parser"
)

// inTest is set by MainTest so that error positions use forward slashes.
var inTest = false

const stdinName = "-"

func getLang() language.Tag {
	loc := os.Getenv("LC_ALL")
	if loc == "" {
		loc = os.Getenv("LANG")
	}
	loc = strings.Split(loc, ".")[0]
	return language.Make(loc)
}

// printErrors writes err to w with positions relative to the working
// directory.
func printErrors(w io.Writer, err error) {
	var e errors.Error
	if !errors.As(err, &e) {
		fmt.Fprintln(w, err)
		return
	}

	// Link x/text as our localizer.
	p := message.NewPrinter(getLang())
	fprintf := func(w io.Writer, format string, args ...any) {
		p.Fprintf(w, format, args...)
	}

	cwd, _ := os.Getwd()

	b := &bytes.Buffer{}
	errors.Print(b, err, &errors.Config{
		Format:  fprintf,
		Cwd:     cwd,
		ToSlash: inTest,
	})
	_, _ = w.Write(b.Bytes())
}

func exitOnErr(cmd *Command, err error, fatal bool) {
	if err == nil {
		return
	}
	printErrors(cmd.Stderr(), err)
	if fatal {
		exit()
	}
}

// An input is a parsed IR file.
type input struct {
	filename string
	tree     *ast.Tree
}

// parseInputs parses the files named by args, or stdin if there are none.
// Files that fail to parse are reported and skipped.
func parseInputs(cmd *Command, args []string) []input {
	if len(args) == 0 {
		args = []string{stdinName}
	}
	var inputs []input
	for _, filename := range args {
		var src []byte
		var err error
		if filename == stdinName {
			src, err = io.ReadAll(cmd.InOrStdin())
		} else {
			src, err = os.ReadFile(filename)
		}
		if err != nil {
			exitOnErr(cmd, err, false)
			continue
		}
		tree, err := parser.ParseFile(filename, src)
		if err != nil {
			exitOnErr(cmd, err, false)
			continue
		}
		inputs = append(inputs, input{filename, tree})
	}
	return inputs
}

func formatOptions(cmd *Command) []format.Option {
	var opts []format.Option
	if n := flagIndent.Int(cmd); n > 0 {
		opts = append(opts, format.UseSpaces(n))
	}
	if flagNoExterns.Bool(cmd) {
		opts = append(opts, format.OmitExterns())
	}
	return opts
}

// output writes the printed form of tree to stdout, or back to the input
// file with --write.
func output(cmd *Command, in input, tree *ast.Tree) {
	b, err := format.File(tree, formatOptions(cmd)...)
	exitOnErr(cmd, err, true)

	if !flagWrite.Bool(cmd) || in.filename == stdinName {
		_, err = cmd.OutOrStdout().Write(b)
		exitOnErr(cmd, err, true)
		return
	}
	err = os.WriteFile(in.filename, b, 0o644)
	exitOnErr(cmd, err, false)
}
