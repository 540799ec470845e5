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

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/codegraph-dev/codegraph/pkg/graphdoc"
	"github.com/codegraph-dev/codegraph/pkg/ir"
)

// ScopePolicy selects how far scope expansion walks the reverse dependency
// graph from a changed file.
type ScopePolicy int

const (
	// ScopeFast reindexes only the changed files.
	ScopeFast ScopePolicy = iota
	// ScopeBalanced adds 1-hop callers/importers of the changed files.
	ScopeBalanced
	// ScopeDeep walks transitive callers/importers up to MaxDepth.
	ScopeDeep
)

// ExpandScope computes the reindex set for changed, a file-level ChangeSet,
// against prior, the graph built by the last successful snapshot. Expansion
// walks graphdoc's CalledBy/ImportedBy/TypeUsers reverse indices — exactly
// the "called_by, imported_by, inherits_of" indices spec §4.3 names, with
// TypeUsers standing in for inherits_of since implements/extends share one
// reverse adjacency in this graph.
//
// maxDepth bounds ScopeDeep's BFS (ignored for Fast/Balanced). The returned
// file set is sorted for deterministic downstream processing.
func ExpandScope(prior *graphdoc.GraphDocument, changed ChangeSet, policy ScopePolicy, maxDepth int) []ir.FileId {
	base := changed.All()
	if policy == ScopeFast || prior == nil {
		return base
	}

	visitedFiles := mapset.NewThreadUnsafeSet[ir.FileId]()
	for _, f := range base {
		visitedFiles.Add(f)
	}

	depth := 1
	if policy == ScopeDeep {
		if maxDepth <= 0 {
			maxDepth = 5
		}
		depth = maxDepth
	}

	frontier := changedFileNodeIDs(prior, base)
	visitedNodes := mapset.NewThreadUnsafeSet[string]()
	for _, id := range frontier {
		visitedNodes.Add(id)
	}

	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []string
		for _, nodeID := range frontier {
			for _, callerID := range prior.CalledBy(nodeID) {
				if visitedNodes.Contains(callerID) {
					continue
				}
				visitedNodes.Add(callerID)
				next = append(next, callerID)
				if n, ok := prior.NodeByID(callerID); ok {
					visitedFiles.Add(n.FileID)
				}
			}
			for _, importerID := range prior.ImportedBy(nodeID) {
				if visitedNodes.Contains(importerID) {
					continue
				}
				visitedNodes.Add(importerID)
				next = append(next, importerID)
				if n, ok := prior.NodeByID(importerID); ok {
					visitedFiles.Add(n.FileID)
				}
			}
			for _, userID := range prior.TypeUsers(nodeID) {
				if visitedNodes.Contains(userID) {
					continue
				}
				visitedNodes.Add(userID)
				next = append(next, userID)
				if n, ok := prior.NodeByID(userID); ok {
					visitedFiles.Add(n.FileID)
				}
			}
		}
		sort.Strings(next)
		frontier = next
	}

	out := visitedFiles.ToSlice()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// changedFileNodeIDs returns every node ID belonging to the given files,
// sorted, as the BFS's starting frontier.
func changedFileNodeIDs(g *graphdoc.GraphDocument, files []ir.FileId) []string {
	fileSet := mapset.NewThreadUnsafeSet[ir.FileId]()
	for _, f := range files {
		fileSet.Add(f)
	}
	var ids []string
	for _, n := range g.Nodes() {
		if fileSet.Contains(n.FileID) {
			ids = append(ids, n.ID)
		}
	}
	sort.Strings(ids)
	return ids
}
