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

// Package graphdoc materializes the structural+semantic IR of a snapshot
// into a single immutable, queryable graph: typed nodes and edges with
// stable ids, reverse adjacency indices, and cross-file edge staleness
// tracking.
package graphdoc

import (
	"fmt"

	"github.com/google/btree"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

// EdgeStatus tags a cross-file backward edge's validity relative to the
// current snapshot (spec §3.4).
type EdgeStatus string

const (
	StatusValid   EdgeStatus = "Valid"
	StatusStale   EdgeStatus = "Stale"
	StatusInvalid EdgeStatus = "Invalid"
	StatusPending EdgeStatus = "Pending"
)

// GraphNode is a materialized graph node: an ir.Node plus the file it
// belongs to, so reverse queries can answer "what does file X define"
// without re-deriving it from the id format.
type GraphNode struct {
	ir.Node
	FileID ir.FileId
}

func (n GraphNode) Less(than btree.Item) bool {
	return n.ID < than.(GraphNode).ID
}

// GraphEdge is a materialized graph edge carrying a deterministic total
// order key so btree iteration always yields the fixed edge-addition order
// the determinism invariant requires (spec §5, §8 invariant 1).
type GraphEdge struct {
	ir.Edge
	Status EdgeStatus
}

func (e GraphEdge) key() string {
	return e.SourceID + "\x00" + e.TargetID + "\x00" + string(e.Kind)
}

func (e GraphEdge) Less(than btree.Item) bool {
	return e.key() < than.(GraphEdge).key()
}

// GraphDocument is the exclusively-owned, read-only graph view of a
// snapshot (spec §3.5). Construct with New then Add* during materialization;
// callers receive read-only handles via the query methods once built.
type GraphDocument struct {
	nodes *btree.BTree
	edges *btree.BTree

	// Reverse adjacency indices, rebuilt by Finalize: target id -> source
	// ids, keyed by the semantic relationship the spec names (called_by,
	// imported_by, type_users, reads_by, writes_by).
	calledBy  map[string][]string
	importedBy map[string][]string
	typeUsers  map[string][]string
	readsBy    map[string][]string
	writesBy   map[string][]string
}

// New constructs an empty GraphDocument. Both btrees use a fixed branching
// factor of 32, a reasonable default for in-memory node/edge counts in the
// tens of thousands.
func New() *GraphDocument {
	return &GraphDocument{
		nodes:      btree.New(32),
		edges:      btree.New(32),
		calledBy:   make(map[string][]string),
		importedBy: make(map[string][]string),
		typeUsers:  make(map[string][]string),
		readsBy:    make(map[string][]string),
		writesBy:   make(map[string][]string),
	}
}

// AddNode inserts a node. Re-adding the same id replaces the prior entry,
// matching btree.ReplaceOrInsert semantics.
func (g *GraphDocument) AddNode(n GraphNode) {
	g.nodes.ReplaceOrInsert(n)
}

// AddEdge inserts an edge in the document's fixed total order. Callers
// that materialize a snapshot must add edges in the same relative order
// every build for the determinism invariant to hold on the underlying
// PackedBytes encoding of any exported view — the btree key itself already
// makes iteration order independent of insertion order, but insertion order
// still matters for append-only logs callers may keep alongside.
func (g *GraphDocument) AddEdge(e GraphEdge) {
	g.edges.ReplaceOrInsert(e)
}

// Finalize rebuilds the reverse adjacency indices from the current edge
// set. Call once after all nodes/edges for a snapshot have been added.
func (g *GraphDocument) Finalize() {
	for k := range g.calledBy {
		delete(g.calledBy, k)
	}
	for k := range g.importedBy {
		delete(g.importedBy, k)
	}
	for k := range g.typeUsers {
		delete(g.typeUsers, k)
	}
	for k := range g.readsBy {
		delete(g.readsBy, k)
	}
	for k := range g.writesBy {
		delete(g.writesBy, k)
	}

	g.edges.Ascend(func(item btree.Item) bool {
		e := item.(GraphEdge)
		switch e.Kind {
		case ir.EdgeCalls:
			g.calledBy[e.TargetID] = append(g.calledBy[e.TargetID], e.SourceID)
		case ir.EdgeImports:
			g.importedBy[e.TargetID] = append(g.importedBy[e.TargetID], e.SourceID)
		case ir.EdgeInherits, ir.EdgeImplements:
			g.typeUsers[e.TargetID] = append(g.typeUsers[e.TargetID], e.SourceID)
		case ir.EdgeReferences:
			g.readsBy[e.TargetID] = append(g.readsBy[e.TargetID], e.SourceID)
		}
		return true
	})
}

// CalledBy returns the (deterministically ordered) callers of functionID.
func (g *GraphDocument) CalledBy(functionID string) []string { return g.calledBy[functionID] }

// ImportedBy returns the files importing importID.
func (g *GraphDocument) ImportedBy(importID string) []string { return g.importedBy[importID] }

// TypeUsers returns the types that inherit from or implement typeID.
func (g *GraphDocument) TypeUsers(typeID string) []string { return g.typeUsers[typeID] }

// ReadsBy returns the sites referencing variableID.
func (g *GraphDocument) ReadsBy(variableID string) []string { return g.readsBy[variableID] }

// WritesBy returns the sites that write variableID, kept distinct from
// ReadsBy/References since a DFG write is not a structural Reference edge.
// No edge kind feeds this index: Finalize clears it and adds nothing, so it
// always returns nil.
func (g *GraphDocument) WritesBy(variableID string) []string { return g.writesBy[variableID] }

// NodeByID performs a btree lookup (O(log n)), unlike StructuralIR's linear
// NodeByID — the graph is built once and queried many times, the opposite
// access pattern of a single-file parse result.
func (g *GraphDocument) NodeByID(id string) (GraphNode, bool) {
	item := g.nodes.Get(GraphNode{Node: ir.Node{ID: id}})
	if item == nil {
		return GraphNode{}, false
	}
	return item.(GraphNode), true
}

// Nodes returns every node in ascending id order.
func (g *GraphDocument) Nodes() []GraphNode {
	out := make([]GraphNode, 0, g.nodes.Len())
	g.nodes.Ascend(func(item btree.Item) bool {
		out = append(out, item.(GraphNode))
		return true
	})
	return out
}

// Edges returns every edge in the document's fixed total order.
func (g *GraphDocument) Edges() []GraphEdge {
	out := make([]GraphEdge, 0, g.edges.Len())
	g.edges.Ascend(func(item btree.Item) bool {
		out = append(out, item.(GraphEdge))
		return true
	})
	return out
}

// MarkStale flips every edge touching any node in nodeIDs to StatusStale,
// the incremental engine's stale-edge marking step (spec §4.3) materialized
// as a graph-level operation: pkg/incremental decides *which* files
// changed, pkg/graphdoc owns *how* that propagates into edge status.
func (g *GraphDocument) MarkStale(nodeIDs map[string]bool) {
	var toReinsert []GraphEdge
	g.edges.Ascend(func(item btree.Item) bool {
		e := item.(GraphEdge)
		if nodeIDs[e.SourceID] || nodeIDs[e.TargetID] {
			e.Status = StatusStale
			toReinsert = append(toReinsert, e)
		}
		return true
	})
	for _, e := range toReinsert {
		g.edges.ReplaceOrInsert(e)
	}
}

func (g *GraphDocument) String() string {
	return fmt.Sprintf("GraphDocument{nodes=%d, edges=%d}", g.nodes.Len(), g.edges.Len())
}
