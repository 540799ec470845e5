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

package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleStructuralIR() StructuralIR {
	return StructuralIR{
		FileID:      "a/b.go",
		ContentHash: HashBytes([]byte("package b")),
		Language:    "go",
		Nodes: []Node{
			{ID: "a/b.go#Bar", Kind: NodeFunction, Name: "Bar"},
			{ID: "a/b.go", Kind: NodeFile, Name: "a/b.go"},
		},
		Edges: []Edge{
			{SourceID: "a/b.go", TargetID: "a/b.go#Bar", Kind: EdgeContains},
		},
	}
}

func TestStructuralIR_PackUnpackRoundTrip(t *testing.T) {
	s := sampleStructuralIR()
	packed, err := s.Pack()
	require.NoError(t, err)
	require.NotEmpty(t, packed)

	got, err := UnpackStructuralIR(packed)
	require.NoError(t, err)
	require.Equal(t, s.FileID, got.FileID)
	require.Equal(t, s.ContentHash, got.ContentHash)
	require.Equal(t, s.Language, got.Language)
	require.Equal(t, s.Nodes, got.Nodes)
	require.Equal(t, s.Edges, got.Edges)
}

func TestStructuralIR_CanonicalizeSortsNodesAndEdges(t *testing.T) {
	s := sampleStructuralIR()
	s.Canonicalize()
	require.Equal(t, "a/b.go", s.Nodes[0].ID)
	require.Equal(t, "a/b.go#Bar", s.Nodes[1].ID)
}

func TestStructuralIR_DigestIsDeterministicAndOrderIndependent(t *testing.T) {
	s1 := sampleStructuralIR()
	s2 := sampleStructuralIR()
	// Reverse s2's slices before packing; canonical ordering must still
	// produce an identical digest.
	s2.Nodes[0], s2.Nodes[1] = s2.Nodes[1], s2.Nodes[0]

	d1, err := s1.Digest()
	require.NoError(t, err)
	d2, err := s2.Digest()
	require.NoError(t, err)
	require.Equal(t, d1, d2)
}

func TestSemanticIR_PackUnpackRoundTrip(t *testing.T) {
	sem := SemanticIR{
		FileID: "a/b.go",
		Tier:   TierExtended,
		Functions: []FunctionSemanticIR{
			{
				FunctionID: "a/b.go#Bar",
				Signature:  Signature{ReturnType: "error"},
				CFG: &ControlFlowGraph{
					FunctionID: "a/b.go#Bar",
					Blocks:     []CFGBlock{{ID: "b0", Kind: BlockEntry}},
				},
			},
		},
	}
	packed, err := sem.Pack()
	require.NoError(t, err)

	got, err := UnpackSemanticIR(packed)
	require.NoError(t, err)
	require.Equal(t, sem.FileID, got.FileID)
	require.Equal(t, sem.Tier, got.Tier)
	require.Len(t, got.Functions, 1)
	require.Equal(t, "a/b.go#Bar", got.Functions[0].FunctionID)
}

func TestSemanticIR_PackUnpackRoundTripsPDG(t *testing.T) {
	sem := SemanticIR{
		FileID: "a/b.go",
		Tier:   TierFull,
		Functions: []FunctionSemanticIR{
			{
				FunctionID: "a/b.go#Bar",
				PDG: &ProgramDependenceGraph{
					FunctionID: "a/b.go#Bar",
					Edges: []PDGEdge{
						{From: "b0", To: "b1", Kind: PDGControl},
						{From: "x", To: "y", Kind: PDGData},
					},
				},
			},
		},
	}
	packed, err := sem.Pack()
	require.NoError(t, err)

	got, err := UnpackSemanticIR(packed)
	require.NoError(t, err)
	require.NotNil(t, got.Functions[0].PDG)
	require.Equal(t, sem.Functions[0].PDG.Edges, got.Functions[0].PDG.Edges)
}

func TestTier_LayersMonotonicity(t *testing.T) {
	base := TierBase.Layers()
	extended := TierExtended.Layers()
	full := TierFull.Layers()

	require.True(t, base.CFG && base.Signatures && base.CallGraph)
	require.False(t, base.DFG)
	require.False(t, base.SSA)

	require.True(t, extended.DFG && extended.Expressions)
	require.True(t, extended.CFG, "EXTENDED must retain every BASE layer")
	require.False(t, extended.SSA)

	require.True(t, full.SSA && full.Dominators && full.PDG && full.InterproceduralDFG)
	require.True(t, full.DFG && full.CFG, "FULL must retain every EXTENDED and BASE layer")
}
