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

import "lowc.dev/go/ir/ast"

// inline moves the value of a write of n into its only read. One pair is
// taken per round; the next pair, if any, is found after the rebuild.
func (p *proposer) inline(n ast.NameID) bool {
	tab := p.tab
	if p.pol.Required(n) {
		return false
	}
	for _, w := range tab.Writes[n] {
		r, ok := tab.SoleDownstream(w)
		if !ok {
			continue
		}
		if err := p.pol.CanInline(w, r); err != nil {
			p.logf(2, "no inline of %s: %v", tab.WriteString(w), err)
			continue
		}
		wr, rd := tab.Write(w), tab.Read(r)
		g := &group{
			names: append([]ast.NameID{n}, p.localsIn(p.t.Node(wr.Node).X)...),
			stmts: []ast.NodeID{wr.Stmt, rd.Stmt},
			edits: []Edit{InlineAtSoleRead{Write: wr.Node, Read: rd.Node}},
		}
		if p.offer(g) {
			return true
		}
	}
	return false
}
