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

package cleanup_test

import (
	"fmt"
	"testing"

	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/pflag"

	"lowc.dev/go/internal/core/cleanup"
	"lowc.dev/go/internal/irtxtar"
	"lowc.dev/go/ir/errors"
)

// TestCleanup runs the pass over testdata/*.txtar. The cleaned tree is
// compared with out/clean, the diagnostics with out/clean/diagnostics, and,
// with #flags: --rounds, the edits of each round with out/clean/rounds.
func TestCleanup(t *testing.T) {
	test := irtxtar.TxTarTest{
		Root: "./testdata",
		Name: "clean",
	}

	test.Run(t, func(t *irtxtar.Test) {
		fs := pflag.NewFlagSet("clean", pflag.ContinueOnError)
		showRounds := fs.Bool("rounds", false, "write the edits of each round")
		maxRounds := fs.Int("maxrounds", 0, "maximum number of rounds")
		t.ParseFlags(fs)

		var rounds []string
		opts := &cleanup.Options{
			MaxRounds: *maxRounds,
			Metrics:   metrics.NewSet(),
			Observe: func(info *cleanup.RoundInfo) {
				rounds = append(rounds, fmt.Sprintf("round %d:\n%s",
					info.Round.N, info.Round.Format(info.Tree)))
			},
		}
		res, err := cleanup.Run(t.Tree("in.lowc"), opts)
		if err != nil {
			t.WriteErrors(err)
			return
		}
		t.WriteTree(t, res.Tree)

		if len(res.Diagnostics) > 0 {
			errors.Print(t.Writer("diagnostics"), res.Errs(), &errors.Config{
				Cwd:     t.Dir,
				ToSlash: true,
			})
		}

		if *showRounds {
			w := t.Writer("rounds")
			for _, r := range rounds {
				fmt.Fprint(w, r)
			}
			if len(res.Swept) > 0 {
				fmt.Fprintln(w, "sweep:")
				for _, e := range res.Swept {
					fmt.Fprintln(w, cleanup.Format(res.Tree, e))
				}
			}
		}
	})
}
