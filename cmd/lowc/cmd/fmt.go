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
	"os"

	"github.com/spf13/cobra"

	"lowc.dev/go/ir/format"
)

func newFmtCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt [-w] [file ...]",
		Short: "format IR files",
		Long: `Fmt prints IR files in canonical form.

With --check, fmt prints the names of the files that are not in
canonical form and fails if there are any.
`,
		RunE: mkRunE(c, runFmt),
	}
	addOutFlags(cmd.Flags())
	cmd.Flags().Bool(string(flagCheck), false,
		"list files that are not formatted and fail if there are any")
	return cmd
}

func runFmt(cmd *Command, args []string) error {
	check := flagCheck.Bool(cmd)
	for _, in := range parseInputs(cmd, args) {
		if !check {
			output(cmd, in, in.tree)
			continue
		}
		b, err := format.File(in.tree, formatOptions(cmd)...)
		exitOnErr(cmd, err, true)
		var src []byte
		if in.filename != stdinName {
			src, err = os.ReadFile(in.filename)
			exitOnErr(cmd, err, true)
		}
		if !bytes.Equal(b, src) {
			fmt.Fprintln(cmd.Stderr(), in.filename)
		}
	}
	return nil
}
