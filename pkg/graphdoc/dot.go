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
	"fmt"

	"github.com/emicklei/dot"
)

// ExportDOT renders the graph as Graphviz DOT source, for `codegraph query
// <path.dot>` and ad hoc debugging. Node/edge iteration order follows the
// btree's fixed total order, so repeated exports of an unchanged graph are
// byte-identical.
func (g *GraphDocument) ExportDOT() string {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "LR")

	dotNodes := make(map[string]dot.Node, g.nodes.Len())
	for _, n := range g.Nodes() {
		label := fmt.Sprintf("%s\\n%s", n.Kind, n.Name)
		dn := graph.Node(n.ID).Attr("label", label).Attr("shape", shapeFor(n))
		dotNodes[n.ID] = dn
	}

	for _, e := range g.Edges() {
		src, ok := dotNodes[e.SourceID]
		if !ok {
			src = graph.Node(e.SourceID).Attr("label", e.SourceID).Attr("style", "dashed")
			dotNodes[e.SourceID] = src
		}
		dst, ok := dotNodes[e.TargetID]
		if !ok {
			dst = graph.Node(e.TargetID).Attr("label", e.TargetID).Attr("style", "dashed")
			dotNodes[e.TargetID] = dst
		}
		edge := graph.Edge(src, dst).Attr("label", string(e.Kind))
		if e.Status != "" && e.Status != StatusValid {
			edge.Attr("color", "red").Attr("style", "dotted")
		}
	}

	return graph.String()
}

func shapeFor(n GraphNode) string {
	switch n.Kind {
	case "Function", "Method":
		return "box"
	case "Class":
		return "component"
	case "File":
		return "folder"
	default:
		return "ellipse"
	}
}
