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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/mod/module"

	"lowc.dev/go/internal/lowdebug"
)

func newVersionCmd(c *Command) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print lowc version",
		Long: `Version prints the lowc version and the Go release it was built
with, followed by the build settings and the LOWC_DEBUG flags that
differ from their defaults.
`,
		Args: cobra.NoArgs,
		RunE: mkRunE(c, runVersion),
	}
}

const defaultVersion = "(devel)"

// version may be set by a builder using
// -ldflags='-X lowc.dev/go/cmd/lowc/cmd.version=<version>'.
// Otherwise it is taken from the *debug.BuildInfo.
var version = defaultVersion

func runVersion(cmd *Command, args []string) error {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return errors.New("unknown error reading build-info")
	}
	settings, err := versionSettings(bi)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "lowc version %s\n\n", mainVersion(bi, settings))
	fmt.Fprintf(w, "go version %s\n", runtime.Version())
	for _, s := range settings {
		fmt.Fprintf(w, "%-16s %s\n", s.Key, s.Value)
	}
	return nil
}

// versionSettings returns the non-empty build settings of bi, extended by
// the JSON list in LOWC_VERSION_TEST_CFG, and followed by the LOWC_DEBUG
// flags that differ from their defaults.
func versionSettings(bi *debug.BuildInfo) ([]debug.BuildSetting, error) {
	all := bi.Settings
	if v := os.Getenv("LOWC_VERSION_TEST_CFG"); v != "" {
		var extra []debug.BuildSetting
		if err := json.Unmarshal([]byte(v), &extra); err != nil {
			return nil, err
		}
		all = append(slices.Clip(all), extra...)
	}
	if err := lowdebug.Init(); err != nil {
		return nil, err
	}
	all = append(slices.Clip(all), debug.BuildSetting{Key: "LOWC_DEBUG", Value: lowdebug.String()})

	return slices.DeleteFunc(slices.Clone(all), func(s debug.BuildSetting) bool {
		return s.Value == ""
	}), nil
}

// mainVersion picks the first of the -ldflags version, the module version
// and a pseudo-version derived from the VCS settings.
func mainVersion(bi *debug.BuildInfo, settings []debug.BuildSetting) string {
	if version != defaultVersion {
		return version
	}
	if v := bi.Main.Version; v != "" && v != defaultVersion {
		return v
	}
	var rev string
	var at time.Time
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			// A 12 character prefix, as cmd/go uses.
			rev = s.Value[:min(len(s.Value), 12)]
		case "vcs.time":
			at, _ = time.Parse(time.RFC3339Nano, s.Value)
		}
	}
	if rev == "" {
		return defaultVersion
	}
	return module.PseudoVersion("", "", at, rev)
}
