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
	"fmt"

	"github.com/mpvl/unique"
	"gopkg.in/yaml.v3"

	"lowc.dev/go/ir/ast"
)

// A Snapshot is a printable rendition of a DataTable, keyed by name text.
// Reads print as R(name @ line:col) and writes as W(name kind @ line:col),
// where kind is A for assignments, I for parameters and F for hs flags.
type Snapshot struct {
	Reads         map[string][]string `yaml:"reads,omitempty"`
	Writes        map[string][]string `yaml:"writes,omitempty"`
	Upstream      map[string][]string `yaml:"upstream,omitempty"`
	UseBeforeInit []string            `yaml:"useBeforeInit,omitempty"`
	Captured      []string            `yaml:"captured,omitempty"`
	Dead          []string            `yaml:"dead,omitempty"`
}

// Snapshot returns the printable form of t.
func (t *DataTable) Snapshot() *Snapshot {
	s := &Snapshot{
		Reads:    map[string][]string{},
		Writes:   map[string][]string{},
		Upstream: map[string][]string{},
	}
	for _, name := range t.Locals {
		text := t.Tree.Text(name)
		for _, r := range t.Reads[name] {
			rs := t.ReadString(r)
			s.Reads[text] = append(s.Reads[text], rs)
			if t.Read(r).UBI {
				s.UseBeforeInit = append(s.UseBeforeInit, rs)
				continue
			}
			for _, w := range t.Upstream[r] {
				s.Upstream[rs] = append(s.Upstream[rs], t.WriteString(w))
			}
		}
		for _, w := range t.Writes[name] {
			s.Writes[text] = append(s.Writes[text], t.WriteString(w))
		}
	}
	for name := range t.Captured {
		s.Captured = append(s.Captured, t.Tree.Text(name))
	}
	unique.Strings(&s.Captured)
	for _, id := range t.Dead {
		s.Dead = append(s.Dead, fmt.Sprintf("%s @ %s", t.Tree.Node(id).Kind, lineCol(t.Tree, id)))
	}
	return s
}

// ReadString formats the read r.
func (t *DataTable) ReadString(r ReadID) string {
	rd := t.Read(r)
	return fmt.Sprintf("R(%s @ %s)", t.Tree.Text(rd.Name), lineCol(t.Tree, rd.Node))
}

// WriteString formats the write w.
func (t *DataTable) WriteString(w WriteID) string {
	if w == Uninit {
		return "Uninit"
	}
	wr := t.Write(w)
	return fmt.Sprintf("W(%s %s @ %s)", t.Tree.Text(wr.Name), wr.Kind, lineCol(t.Tree, wr.Node))
}

func lineCol(t *ast.Tree, id ast.NodeID) string {
	p := t.Node(id).Pos.Position()
	if !p.IsValid() {
		return fmt.Sprintf("#%d", id)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// String returns the YAML encoding of the snapshot.
func (s *Snapshot) String() string {
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(b)
}
