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

package envflag

import (
	"testing"

	"github.com/go-quicktest/qt"
)

type testFlags struct {
	Strict   bool
	LogClean int

	DefaultTrue bool `envflag:"default:true"`
}

type boundedFlags struct {
	MaxRounds int    `envflag:"default:100,min:1"`
	Name      string `envflag:"default:lowc"`
}

type deprecatedFlags struct {
	Old bool `envflag:"deprecated"`
}

func success[T comparable](want T) func(t *testing.T) {
	return func(t *testing.T) {
		var x T
		err := Init(&x, "TEST_VAR")
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.Equals(x, want))
	}
}

func failure[T comparable](want T, wantError string) func(t *testing.T) {
	return func(t *testing.T) {
		var x T
		err := Init(&x, "TEST_VAR")
		qt.Assert(t, qt.ErrorMatches(err, wantError))
		qt.Assert(t, qt.Equals(x, want))
	}
}

func invalid[T comparable](want T) func(t *testing.T) {
	return func(t *testing.T) {
		var x T
		err := Init(&x, "TEST_VAR")
		qt.Assert(t, qt.ErrorIs(err, ErrInvalid))
		qt.Assert(t, qt.Equals(x, want))
	}
}

var tests = []struct {
	testName string
	envVal   string
	test     func(t *testing.T)
}{{
	testName: "Empty",
	envVal:   "",
	test:     success(testFlags{DefaultTrue: true}),
}, {
	testName: "JustCommas",
	envVal:   ",,",
	test:     success(testFlags{DefaultTrue: true}),
}, {
	testName: "Unknown",
	envVal:   "ratchet",
	test: failure(testFlags{DefaultTrue: true},
		`cannot parse TEST_VAR: unknown flag "ratchet"`),
}, {
	testName: "BoolShorthand",
	envVal:   "strict",
	test:     success(testFlags{Strict: true, DefaultTrue: true}),
}, {
	testName: "CaseInsensitive",
	envVal:   "LogClean=2",
	test:     success(testFlags{LogClean: 2, DefaultTrue: true}),
}, {
	testName: "ToggleDefault",
	envVal:   "defaulttrue=0",
	test:     success(testFlags{}),
}, {
	testName: "IntNeedsValue",
	envVal:   "logclean",
	test: failure(testFlags{DefaultTrue: true},
		`cannot parse TEST_VAR: value needed for int flag "logclean"`),
}, {
	testName: "MultipleUnknown",
	envVal:   "other1,other2,strict",
	test: failure(testFlags{Strict: true, DefaultTrue: true},
		"cannot parse TEST_VAR: unknown flag \"other1\"\nunknown flag \"other2\""),
}, {
	testName: "InvalidIntForBool",
	envVal:   "strict=2",
	test:     invalid(testFlags{DefaultTrue: true}),
}, {
	testName: "Defaults",
	envVal:   "",
	test:     success(boundedFlags{MaxRounds: 100, Name: "lowc"}),
}, {
	testName: "AboveMin",
	envVal:   "maxrounds=3,name=x",
	test:     success(boundedFlags{MaxRounds: 3, Name: "x"}),
}, {
	testName: "BelowMin",
	envVal:   "maxrounds=0",
	test:     invalid(boundedFlags{MaxRounds: 100, Name: "lowc"}),
}, {
	testName: "DeprecatedChanged",
	envVal:   "old=1",
	test: failure(deprecatedFlags{},
		`cannot parse TEST_VAR: cannot change default value of deprecated flag "old"`),
}, {
	testName: "DeprecatedSameAsDefault",
	envVal:   "old=false",
	test:     success(deprecatedFlags{}),
}}

func TestInit(t *testing.T) {
	for _, test := range tests {
		t.Run(test.testName, func(t *testing.T) {
			t.Setenv("TEST_VAR", test.envVal)
			test.test(t)
		})
	}
}

func TestDescribe(t *testing.T) {
	var f boundedFlags
	qt.Assert(t, qt.IsNil(Parse(&f, "")))
	qt.Assert(t, qt.Equals(Describe(&f), ""))

	qt.Assert(t, qt.IsNil(Parse(&f, "name=x,maxrounds=7")))
	qt.Assert(t, qt.Equals(Describe(&f), "maxrounds=7,name=x"))

	var g testFlags
	qt.Assert(t, qt.IsNil(Parse(&g, "strict,defaulttrue=false")))
	qt.Assert(t, qt.Equals(Describe(&g), "strict=true,defaulttrue=false"))
}
