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

// Package irtest is a helper package for test packages in the lowc project.
// As such it should only be imported in _test.go files.
package irtest

import (
	"fmt"
	"os"
)

// UpdateGoldenFiles determines whether golden outputs of txtar tests and
// testscript scripts are rewritten instead of compared. It is set by
// LOWC_UPDATE.
var UpdateGoldenFiles = os.Getenv("LOWC_UPDATE") != ""

// Long determines whether long tests are run. It is set by LOWC_LONG.
var Long = os.Getenv("LOWC_LONG") != ""

// Condition adds support for lowc-specific testscript conditions. The
// canonical case being [long], which evaluates to Long.
func Condition(cond string) (bool, error) {
	switch cond {
	case "long":
		return Long, nil
	}
	return false, fmt.Errorf("unknown condition %v", cond)
}
