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
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

// packedGraphNode/packedGraphEdge are flat, array-encoded mirrors of
// GraphNode/GraphEdge: msgpack's array-struct mode walks exported fields in
// declaration order, and GraphNode/GraphEdge embed ir.Node/ir.Edge
// anonymously, so packing them directly would nest an extra array level
// inconsistent with pkg/ir's own flat Pack encodings. Keeping an explicit
// flat type here instead matches pkg/ir/pack.go's packedStructuralIR
// pattern.
type packedGraphNode struct {
	ID     string
	Kind   ir.NodeKind
	Span   ir.Span
	Name   string
	FQN    string
	Attrs  map[string]string
	FileID ir.FileId
}

type packedGraphEdge struct {
	SourceID string
	TargetID string
	Kind     ir.EdgeKind
	External bool
	Attrs    map[string]string
	Status   EdgeStatus
}

type packedGraphDocument struct {
	Nodes []packedGraphNode
	Edges []packedGraphEdge
}

// Pack serializes g as MessagePack arrays (spec §9's "no pickle-style
// serialization" rule, same as pkg/ir's wire form), so a snapshot's graph
// can be persisted between CLI invocations and fed back in as the prior
// graph for a later incremental build.
func (g *GraphDocument) Pack() ([]byte, error) {
	packed := packedGraphDocument{}
	for _, n := range g.Nodes() {
		packed.Nodes = append(packed.Nodes, packedGraphNode{
			ID: n.ID, Kind: n.Kind, Span: n.Span, Name: n.Name, FQN: n.FQN, Attrs: n.Attrs, FileID: n.FileID,
		})
	}
	for _, e := range g.Edges() {
		packed.Edges = append(packed.Edges, packedGraphEdge{
			SourceID: e.SourceID, TargetID: e.TargetID, Kind: e.Kind, External: e.External, Attrs: e.Attrs, Status: e.Status,
		})
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseArrayEncodedStructs(true)
	if err := enc.Encode(packed); err != nil {
		return nil, fmt.Errorf("graphdoc: pack: %w", err)
	}
	return buf.Bytes(), nil
}

// Unpack is the inverse of Pack: it rebuilds a fully queryable
// GraphDocument, including the reverse adjacency indices Finalize derives,
// from a prior call's packed bytes.
func Unpack(b []byte) (*GraphDocument, error) {
	var packed packedGraphDocument
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.UseArrayEncodedStructs(true)
	if err := dec.Decode(&packed); err != nil {
		return nil, fmt.Errorf("graphdoc: unpack: %w", err)
	}

	g := New()
	for _, n := range packed.Nodes {
		g.AddNode(GraphNode{
			Node:   ir.Node{ID: n.ID, Kind: n.Kind, Span: n.Span, Name: n.Name, FQN: n.FQN, Attrs: n.Attrs},
			FileID: n.FileID,
		})
	}
	for _, e := range packed.Edges {
		g.AddEdge(GraphEdge{
			Edge:   ir.Edge{SourceID: e.SourceID, TargetID: e.TargetID, Kind: e.Kind, External: e.External, Attrs: e.Attrs},
			Status: e.Status,
		})
	}
	g.Finalize()
	return g, nil
}
