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

package incremental

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/codegraph-dev/codegraph/pkg/graphdoc"
	"github.com/codegraph-dev/codegraph/pkg/ir"
)

// SymbolChangeType classifies how a symbol changed between builds.
type SymbolChangeType string

const (
	SymbolAdded            SymbolChangeType = "Added"
	SymbolDeleted          SymbolChangeType = "Deleted"
	SymbolSignatureChanged SymbolChangeType = "SignatureChanged"
	SymbolBodyChanged      SymbolChangeType = "BodyChanged"
	SymbolTypeChanged      SymbolChangeType = "TypeChanged"
	SymbolRenamed          SymbolChangeType = "Renamed"
)

// SymbolChange names one changed symbol, by fully-qualified name, and how
// it changed.
type SymbolChange struct {
	FQN        string
	ChangeType SymbolChangeType
}

// ImpactAnalysis is AnalyzeImpact's deterministic result: direct callers,
// transitively-affected symbols, and the set of files either touches.
type ImpactAnalysis struct {
	Direct        []string
	Transitive    []string
	AffectedFiles []ir.FileId
}

// AnalyzeImpact computes the direct and transitive blast radius of changes
// against prior's graph. Direct affected is the union of reverse edges
// (CalledBy ∪ ImportedBy ∪ TypeUsers ∪ ReadsBy ∪ WritesBy) of each changed
// symbol; transitive
// affected is a breadth-first walk of the reverse dependency graph bounded
// by (maxDepth, maxAffected), in sorted-node-id order so the result is
// reproducible across runs (spec §4.3's determinism requirement).
//
// maxAffected <= 0 means unbounded. When the bound is hit mid-BFS, the
// partial result is returned as-is — callers surface BudgetExceeded
// themselves, since only they know whether truncation should fail the
// build or just flag the result.
func AnalyzeImpact(prior *graphdoc.GraphDocument, changes []SymbolChange, maxDepth, maxAffected int) ImpactAnalysis {
	if prior == nil || len(changes) == 0 {
		return ImpactAnalysis{}
	}
	if maxDepth <= 0 {
		maxDepth = 10
	}

	index := newNodeIndex(prior)

	visited := roaring.New()
	var direct, transitive []string
	affectedFiles := make(map[ir.FileId]bool)

	sortedChanges := append([]SymbolChange(nil), changes...)
	sort.Slice(sortedChanges, func(i, j int) bool { return sortedChanges[i].FQN < sortedChanges[j].FQN })

	var frontier []string
	for _, c := range sortedChanges {
		for _, id := range reverseNeighbors(prior, c.FQN) {
			if id32, ok := index.idFor(id); ok && !visited.Contains(id32) {
				visited.Add(id32)
				direct = append(direct, id)
				frontier = append(frontier, id)
				if n, ok := prior.NodeByID(id); ok {
					affectedFiles[n.FileID] = true
				}
			}
		}
	}
	sort.Strings(direct)
	sort.Strings(frontier)

	for depth := 1; depth < maxDepth && len(frontier) > 0; depth++ {
		if maxAffected > 0 && int(visited.GetCardinality()) >= maxAffected {
			break
		}
		var next []string
		for _, nodeID := range frontier {
			for _, id := range reverseNeighbors(prior, nodeID) {
				id32, ok := index.idFor(id)
				if !ok || visited.Contains(id32) {
					continue
				}
				visited.Add(id32)
				transitive = append(transitive, id)
				next = append(next, id)
				if n, ok := prior.NodeByID(id); ok {
					affectedFiles[n.FileID] = true
				}
				if maxAffected > 0 && int(visited.GetCardinality()) >= maxAffected {
					break
				}
			}
		}
		sort.Strings(next)
		frontier = next
	}
	sort.Strings(transitive)

	files := make([]ir.FileId, 0, len(affectedFiles))
	for f := range affectedFiles {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })

	return ImpactAnalysis{Direct: direct, Transitive: transitive, AffectedFiles: files}
}

// reverseNeighbors unions every reverse-adjacency kind graphdoc exposes for
// one node id.
func reverseNeighbors(g *graphdoc.GraphDocument, id string) []string {
	var out []string
	out = append(out, g.CalledBy(id)...)
	out = append(out, g.ImportedBy(id)...)
	out = append(out, g.TypeUsers(id)...)
	out = append(out, g.ReadsBy(id)...)
	out = append(out, g.WritesBy(id)...)
	sort.Strings(out)
	return out
}

// nodeIndex assigns a stable uint32 to every node id in sorted order, so
// roaring.Bitmap (which stores uint32s) can serve as the BFS visited-set
// instead of a string-keyed map.
type nodeIndex struct {
	idOf map[string]uint32
}

func newNodeIndex(g *graphdoc.GraphDocument) nodeIndex {
	nodes := g.Nodes()
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	sort.Strings(ids)

	idOf := make(map[string]uint32, len(ids))
	for i, id := range ids {
		idOf[id] = uint32(i)
	}
	return nodeIndex{idOf: idOf}
}

func (n nodeIndex) idFor(id string) (uint32, bool) {
	v, ok := n.idOf[id]
	return v, ok
}
