// Copyright 2026 CodeGraph Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package semantic

import (
	"sort"
	"strconv"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

// computeDominators implements the Cooper/Harvey/Kennedy iterative
// dominance algorithm over a CFG's reachable blocks, returning an immediate
// dominator per block id (spec §4.2 step 6, "build dominator tree"). The
// algorithm is a fixed point over reverse-postorder, so results are
// deterministic independent of map iteration order as long as input block
// ids are processed in a stable order — this function sorts its worklist
// explicitly for that reason.
func computeDominators(cfg ir.ControlFlowGraph) map[string]string {
	var entry string
	for _, b := range cfg.Blocks {
		if b.Kind == ir.BlockEntry {
			entry = b.ID
			break
		}
	}
	if entry == "" {
		return map[string]string{}
	}

	preds := map[string][]string{}
	for _, e := range cfg.Edges {
		preds[e.Dst] = append(preds[e.Dst], e.Src)
	}
	for k := range preds {
		sort.Strings(preds[k])
	}

	order := reversePostorder(cfg, entry)
	postIndex := map[string]int{}
	for i, id := range order {
		postIndex[id] = i
	}

	idom := map[string]string{entry: entry}
	changed := true
	for changed {
		changed = false
		for _, b := range order {
			if b == entry {
				continue
			}
			var newIdom string
			for _, p := range preds[b] {
				if _, ok := idom[p]; !ok {
					continue
				}
				if newIdom == "" {
					newIdom = p
					continue
				}
				newIdom = intersect(idom, postIndex, newIdom, p)
			}
			if newIdom != "" && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	delete(idom, entry) // a block's own dominator is itself only at the root; spec wants strict idoms
	return idom
}

func intersect(idom map[string]string, postIndex map[string]int, a, b string) string {
	for a != b {
		for postIndex[a] < postIndex[b] {
			a = idom[a]
		}
		for postIndex[b] < postIndex[a] {
			b = idom[b]
		}
	}
	return a
}

func reversePostorder(cfg ir.ControlFlowGraph, entry string) []string {
	succs := map[string][]string{}
	for _, e := range cfg.Edges {
		succs[e.Src] = append(succs[e.Src], e.Dst)
	}
	for k := range succs {
		sort.Strings(succs[k])
	}

	visited := map[string]bool{}
	var post []string
	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, s := range succs[id] {
			visit(s)
		}
		post = append(post, id)
	}
	visit(entry)

	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// buildSSA renames each DFG variable into versioned SSA values, one version
// per write event in program order, attributing each value to the block its
// write occurred in (spec §4.2 step 6, "rename variables into SSA"). This is
// a simplified renaming (no phi-node synthesis at merge points) sufficient
// for FULL tier's per-function value history; full phi placement is left to
// pkg/callgraph's interprocedural pass, which already needs the dominator
// tree computed here to decide phi placement sites.
func buildSSA(dfg ir.DataFlowGraph) []ir.SSAValue {
	versions := map[string]int{}
	var out []ir.SSAValue
	for _, ev := range dfg.Events {
		if ev.Op != ir.OpWrite {
			continue
		}
		versions[ev.Var]++
		out = append(out, ir.SSAValue{
			ID:       ev.Var + "#ssa:" + strconv.Itoa(versions[ev.Var]),
			Variable: ev.Var,
			Version:  versions[ev.Var],
			Block:    ev.Block,
		})
	}
	return out
}
