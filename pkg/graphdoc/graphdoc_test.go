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

package graphdoc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

func sampleGraph() *GraphDocument {
	g := New()
	g.AddNode(GraphNode{Node: ir.Node{ID: "a.go#Caller", Kind: ir.NodeFunction, Name: "Caller"}, FileID: "a.go"})
	g.AddNode(GraphNode{Node: ir.Node{ID: "b.go#Callee", Kind: ir.NodeFunction, Name: "Callee"}, FileID: "b.go"})
	g.AddEdge(GraphEdge{Edge: ir.Edge{SourceID: "a.go#Caller", TargetID: "b.go#Callee", Kind: ir.EdgeCalls}, Status: StatusValid})
	g.Finalize()
	return g
}

func TestGraphDocument_CalledBy(t *testing.T) {
	g := sampleGraph()
	require.Equal(t, []string{"a.go#Caller"}, g.CalledBy("b.go#Callee"))
	require.Empty(t, g.CalledBy("a.go#Caller"))
}

func TestGraphDocument_NodeByID(t *testing.T) {
	g := sampleGraph()
	n, ok := g.NodeByID("a.go#Caller")
	require.True(t, ok)
	require.Equal(t, "Caller", n.Name)

	_, ok = g.NodeByID("missing")
	require.False(t, ok)
}

func TestGraphDocument_EdgesFixedOrder(t *testing.T) {
	g := New()
	g.AddEdge(GraphEdge{Edge: ir.Edge{SourceID: "z", TargetID: "y", Kind: ir.EdgeCalls}})
	g.AddEdge(GraphEdge{Edge: ir.Edge{SourceID: "a", TargetID: "b", Kind: ir.EdgeCalls}})

	edges := g.Edges()
	require.Len(t, edges, 2)
	require.Equal(t, "a", edges[0].SourceID)
	require.Equal(t, "z", edges[1].SourceID)
}

func TestGraphDocument_MarkStale(t *testing.T) {
	g := sampleGraph()
	g.MarkStale(map[string]bool{"b.go#Callee": true})

	edges := g.Edges()
	require.Len(t, edges, 1)
	require.Equal(t, StatusStale, edges[0].Status)
}

func TestGraphDocument_ExportDOT(t *testing.T) {
	g := sampleGraph()
	out := g.ExportDOT()
	require.Contains(t, out, "a.go#Caller")
	require.Contains(t, out, "b.go#Callee")
	require.Contains(t, out, "Calls")
}
