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

package cleanup

import (
	"fmt"

	"lowc.dev/go/internal/lowdebug"
	"lowc.dev/go/ir/errors"
	"lowc.dev/go/ir/token"
)

// A DiagKind classifies the diagnostics of the pass.
type DiagKind uint8

const (
	// UseBeforeInitialization reports a read that some path reaches
	// before any write of the name.
	UseBeforeInitialization DiagKind = iota + 1
	// IllegalReassignment reports a write to a let name that may already
	// hold a value.
	IllegalReassignment
)

func (k DiagKind) String() string {
	switch k {
	case UseBeforeInitialization:
		return "UseBeforeInitialization"
	case IllegalReassignment:
		return "IllegalReassignment"
	}
	return fmt.Sprintf("DiagKind(%d)", k)
}

// A LogEntry is a diagnostic for the user. The pass repairs the tree for
// every entry it reports, so entries are not fatal.
type LogEntry struct {
	Kind    DiagKind
	Pos     token.Pos
	Message string
}

var _ errors.Error = (*LogEntry)(nil)

func (e *LogEntry) Position() token.Pos { return e.Pos }

func (e *LogEntry) Msg() (format string, args []any) {
	return "%s", []any{e.Message}
}

func (e *LogEntry) Error() string {
	return e.Message
}

// logf writes a trace line if the logclean level is at least level.
func (d *driver) logf(level int, format string, args ...any) {
	if d.level < level {
		return
	}
	d.logger.Info(fmt.Sprintf(format, args...), "round", d.round)
}

// assertf reports a violated internal assumption. It panics in strict mode.
func (d *driver) assertf(b bool, format string, args ...any) {
	if b {
		return
	}
	if lowdebug.Flags.Strict {
		panic(fmt.Sprintf("assertion failed: "+format, args...))
	}
	d.logger.Warn(fmt.Sprintf("assertion failed: "+format, args...), "round", d.round)
}
