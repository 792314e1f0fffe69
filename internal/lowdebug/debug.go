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

// Package lowdebug holds the LOWC_DEBUG flags.
package lowdebug

import (
	"sync"

	"lowc.dev/go/internal/envflag"
)

// Flags holds the set of LOWC_DEBUG flags. It is initialized by Init.
var Flags Config

type Config struct {
	// Strict sets whether extra aggressive checking should be done.
	// Failed internal assertions panic instead of being logged.
	Strict bool

	// LogClean sets the log level for the cleanup pass:
	//
	//	0: no logging
	//	1: one line per round
	//	2: every proposed edit
	LogClean int

	// MaxRounds bounds the number of rounds of the cleanup pass before it
	// gives up with an internal error.
	MaxRounds int `envflag:"default:10000,min:1"`

	// Tables logs the use-def table of every round when LogClean > 0.
	Tables bool
}

// Init initializes Flags. Note: this isn't named "init" because we
// don't always want it to be called (for example we don't want it to be
// called when running "lowc help"), and also because we want the failure
// mode to be one of error not panic, which would be the only option if
// it was a top level init function.
func Init() error {
	return initOnce()
}

var initOnce = sync.OnceValue(func() error {
	return envflag.Init(&Flags, "LOWC_DEBUG")
})

// String reports the flags that differ from their defaults.
func String() string {
	return envflag.Describe(&Flags)
}
