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

package rw

import (
	"maps"
	"slices"

	"lowc.dev/go/ir/ast"
)

// A frame maps each name to the set of writes that may reach the current
// program point. A nil frame denotes an unreachable point.
type frame map[ast.NameID][]WriteID

func (f frame) clone() frame {
	if f == nil {
		return nil
	}
	c := make(frame, len(f))
	for k, v := range f {
		c[k] = slices.Clone(v)
	}
	return c
}

// join returns the frame at a point reached from both a and b. A name
// present on only one side may be uninitialized at the join.
func join(a, b frame) frame {
	switch {
	case a == nil:
		return b.clone()
	case b == nil:
		return a.clone()
	}
	c := make(frame, len(a))
	for k, v := range a {
		w, ok := b[k]
		if !ok {
			w = []WriteID{Uninit}
		}
		c[k] = union(v, w)
	}
	for k, w := range b {
		if _, ok := a[k]; !ok {
			c[k] = union(w, []WriteID{Uninit})
		}
	}
	return c
}

// merge accumulates f into the snapshot acc. It is join, except that an
// empty accumulator takes f as is.
func merge(acc, f frame) frame {
	if acc == nil {
		return f.clone()
	}
	return join(acc, f)
}

func equal(a, b frame) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return maps.EqualFunc(a, b, slices.Equal[[]WriteID])
}

// union returns the sorted union of two sorted sets.
func union(a, b []WriteID) []WriteID {
	c := make([]WriteID, 0, len(a)+len(b))
	c = append(c, a...)
	c = append(c, b...)
	slices.Sort(c)
	return slices.Compact(c)
}
