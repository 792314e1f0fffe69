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
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"lowc.dev/go/internal/core/cleanup"
)

func newCleanCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [flags] [file ...]",
		Short: "remove compiler temporaries from IR files",
		Long: `clean removes the temporaries introduced by flow lowering.

Each file is cleaned in rounds. A round analyzes the reads and writes
of every local name, proposes a set of edits that do not interfere,
and applies them. Cleaning stops at the first round that proposes no
edit, after which unused declarations are removed.

Temporaries are the names spelled with a #, as in t#1. Other names
are kept, but temporaries may be renamed into them.

A read that may happen before any write is replaced by a failure and
a let name that may be assigned twice becomes a var. Both cases are
reported on stderr without failing the command.

If no file is given, clean reads from stdin.
`,
		RunE: mkRunE(c, runClean),
	}

	addOutFlags(cmd.Flags())
	cmd.Flags().Bool(string(flagRounds), false,
		"print the edits of each round to stderr")
	cmd.Flags().Bool(string(flagTables), false,
		"print the read and write table of each round to stderr")
	cmd.Flags().Bool(string(flagMetrics), false,
		"print counters in the Prometheus text format to stderr")
	cmd.Flags().Int(string(flagMaxRounds), 0,
		"maximum number of rounds per file (default from LOWC_DEBUG=maxrounds)")
	return cmd
}

// roundLog is the --tables rendition of a round.
type roundLog struct {
	Round int      `yaml:"round"`
	Edits []string `yaml:"edits"`
	Table any      `yaml:"table"`
}

func runClean(cmd *Command, args []string) error {
	stderr := cmd.OutOrStderr()
	showRounds := flagRounds.Bool(cmd)
	showTables := flagTables.Bool(cmd)

	var logger *slog.Logger
	if flagVerbose.Bool(cmd) {
		logger = slog.New(slog.NewTextHandler(stderr, nil))
	}

	for _, in := range parseInputs(cmd, args) {
		opts := &cleanup.Options{
			Logger:    logger,
			MaxRounds: flagMaxRounds.Int(cmd),
		}
		if showRounds || showTables {
			opts.Observe = func(info *cleanup.RoundInfo) {
				if showRounds {
					fmt.Fprintf(stderr, "round %d:\n%s", info.Round.N, info.Round.Format(info.Tree))
				}
				if showTables {
					log := roundLog{Round: info.Round.N, Table: info.Table}
					for _, e := range info.Round.Edits {
						log.Edits = append(log.Edits, cleanup.Format(info.Tree, e))
					}
					b, err := yaml.Marshal([]roundLog{log})
					exitOnErr(cmd, err, true)
					_, _ = stderr.Write(b)
				}
			}
		}

		res, err := cleanup.Run(in.tree, opts)
		if err != nil {
			exitOnErr(cmd, err, false)
			continue
		}
		if showRounds && len(res.Swept) > 0 {
			fmt.Fprintln(stderr, "sweep:")
			for _, e := range res.Swept {
				fmt.Fprintln(stderr, cleanup.Format(res.Tree, e))
			}
		}
		if len(res.Diagnostics) > 0 {
			printErrors(stderr, res.Errs())
		}
		if logger != nil {
			logger.Info("cleaned", "file", in.filename, "rounds", len(res.Rounds))
		}
		output(cmd, in, res.Tree)
	}

	if flagMetrics.Bool(cmd) {
		cleanup.Metrics.WritePrometheus(stderr)
	}
	return nil
}
