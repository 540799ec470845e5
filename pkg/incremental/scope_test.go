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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/pkg/graphdoc"
	"github.com/codegraph-dev/codegraph/pkg/ir"
)

// chainGraph builds a.go#A <-calls- b.go#B <-calls- c.go#C <-calls- d.go#D,
// so a change to a.go's function has 1-hop callers in b.go and a 2-hop
// caller in c.go, with d.go three hops out.
func chainGraph() *graphdoc.GraphDocument {
	g := graphdoc.New()
	g.AddNode(graphdoc.GraphNode{Node: ir.Node{ID: "a.go#A", Kind: ir.NodeFunction}, FileID: "a.go"})
	g.AddNode(graphdoc.GraphNode{Node: ir.Node{ID: "b.go#B", Kind: ir.NodeFunction}, FileID: "b.go"})
	g.AddNode(graphdoc.GraphNode{Node: ir.Node{ID: "c.go#C", Kind: ir.NodeFunction}, FileID: "c.go"})
	g.AddNode(graphdoc.GraphNode{Node: ir.Node{ID: "d.go#D", Kind: ir.NodeFunction}, FileID: "d.go"})
	g.AddEdge(graphdoc.GraphEdge{Edge: ir.Edge{SourceID: "b.go#B", TargetID: "a.go#A", Kind: ir.EdgeCalls}})
	g.AddEdge(graphdoc.GraphEdge{Edge: ir.Edge{SourceID: "c.go#C", TargetID: "b.go#B", Kind: ir.EdgeCalls}})
	g.AddEdge(graphdoc.GraphEdge{Edge: ir.Edge{SourceID: "d.go#D", TargetID: "c.go#C", Kind: ir.EdgeCalls}})
	g.Finalize()
	return g
}

func TestExpandScope_Fast_OnlyChangedFiles(t *testing.T) {
	cs := ChangeSet{Modified: []ir.FileId{"a.go"}}
	got := ExpandScope(chainGraph(), cs, ScopeFast, 0)
	require.Equal(t, []ir.FileId{"a.go"}, got)
}

func TestExpandScope_Balanced_OneHop(t *testing.T) {
	cs := ChangeSet{Modified: []ir.FileId{"a.go"}}
	got := ExpandScope(chainGraph(), cs, ScopeBalanced, 0)
	require.Equal(t, []ir.FileId{"a.go", "b.go"}, got)
}

func TestExpandScope_Deep_WalksTransitively(t *testing.T) {
	cs := ChangeSet{Modified: []ir.FileId{"a.go"}}
	got := ExpandScope(chainGraph(), cs, ScopeDeep, 5)
	require.Equal(t, []ir.FileId{"a.go", "b.go", "c.go", "d.go"}, got)
}

func TestExpandScope_Deep_BoundedByMaxDepth(t *testing.T) {
	cs := ChangeSet{Modified: []ir.FileId{"a.go"}}
	got := ExpandScope(chainGraph(), cs, ScopeDeep, 2)
	require.Equal(t, []ir.FileId{"a.go", "b.go", "c.go"}, got)
}

func TestExpandScope_NilGraphReturnsBaseOnly(t *testing.T) {
	cs := ChangeSet{Added: []ir.FileId{"x.go"}}
	got := ExpandScope(nil, cs, ScopeDeep, 5)
	require.Equal(t, []ir.FileId{"x.go"}, got)
}
