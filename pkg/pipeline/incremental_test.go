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

package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/pkg/graphdoc"
	"github.com/codegraph-dev/codegraph/pkg/incremental"
	"github.com/codegraph-dev/codegraph/pkg/ir"
	"github.com/codegraph-dev/codegraph/pkg/semantic"
)

func TestRunIncremental_EmptyChangeSetReturnsPriorUnchanged(t *testing.T) {
	structuralCache, semanticCache := newScenarioCaches(t)
	cfg := Config{Tier: semantic.TierBase, RepoRev: "rev1", StructuralCache: structuralCache, SemanticCache: semanticCache}

	p := New(nil, nil, nil)
	files := []SourceFile{{ID: "pkg/a.go", Content: []byte("package pkg\n\nfunc Helper() int { return 1 }\n")}}
	prior, err := p.Run(context.Background(), files, cfg)
	require.NoError(t, err)

	result, err := p.RunIncremental(context.Background(), prior, incremental.ChangeSet{}, files, IncrementalOptions{Config: cfg})
	require.NoError(t, err)
	require.Same(t, prior, result.Snapshot, "build_incremental(prior, no changes) must return prior unchanged")
	require.Empty(t, result.Scope)
}

func TestRunIncremental_ExpandsScopeAndRevalidatesStaleEdges(t *testing.T) {
	aFile := SourceFile{ID: "pkg/a.go", Content: []byte("package pkg\n\nfunc Caller() int {\n\treturn Target()\n}\n")}
	bFileV1 := SourceFile{ID: "pkg/b.go", Content: []byte("package pkg\n\nfunc Target() int { return 1 }\n")}

	structuralCache, semanticCache := newScenarioCaches(t)
	cfg := Config{Tier: semantic.TierBase, RepoRev: "rev1", StructuralCache: structuralCache, SemanticCache: semanticCache}

	p := New(nil, nil, nil)
	prior, err := p.Run(context.Background(), []SourceFile{aFile, bFileV1}, cfg)
	require.NoError(t, err)
	require.Equal(t, []string{"pkg/a.go#Caller"}, prior.Graph.CalledBy("pkg/b.go#Target"))

	bFileV2 := SourceFile{ID: "pkg/b.go", Content: []byte("package pkg\n\nfunc Target() int { return 2 }\n")}
	changes := incremental.ChangeSet{Modified: []ir.FileId{"pkg/b.go"}}

	result, err := p.RunIncremental(context.Background(), prior, changes, []SourceFile{aFile, bFileV2}, IncrementalOptions{
		Config:      cfg,
		ScopePolicy: incremental.ScopeBalanced,
	})
	require.NoError(t, err)
	require.NotSame(t, prior, result.Snapshot)

	// Scope expansion must have pulled in the caller of the changed file's
	// function (a 1-hop reverse-graph walk from pkg/b.go#Target).
	require.Contains(t, result.Scope, ir.FileId("pkg/a.go"))
	require.Contains(t, result.Scope, ir.FileId("pkg/b.go"))

	// The rebuilt snapshot's edges are fresh and Valid — a stale edge that
	// gets rebuilt is revalidated, not left stale (spec §8 invariant 13).
	for _, e := range result.Snapshot.Graph.Edges() {
		require.Equal(t, graphdoc.StatusValid, e.Status)
	}
	require.Equal(t, []string{"pkg/a.go#Caller"}, result.Snapshot.Graph.CalledBy("pkg/b.go#Target"))
}

func TestRunIncremental_ReportsImpactOverSymbolChanges(t *testing.T) {
	aFile := SourceFile{ID: "pkg/a.go", Content: []byte("package pkg\n\nfunc Caller() int {\n\treturn Target()\n}\n")}
	bFile := SourceFile{ID: "pkg/b.go", Content: []byte("package pkg\n\nfunc Target() int { return 1 }\n")}

	structuralCache, semanticCache := newScenarioCaches(t)
	cfg := Config{Tier: semantic.TierBase, RepoRev: "rev1", StructuralCache: structuralCache, SemanticCache: semanticCache}

	p := New(nil, nil, nil)
	prior, err := p.Run(context.Background(), []SourceFile{aFile, bFile}, cfg)
	require.NoError(t, err)

	changes := incremental.ChangeSet{Modified: []ir.FileId{"pkg/b.go"}}
	result, err := p.RunIncremental(context.Background(), prior, changes, []SourceFile{aFile, bFile}, IncrementalOptions{
		Config: cfg,
		SymbolChanges: []incremental.SymbolChange{
			{FQN: "pkg/b.go#Target", ChangeType: incremental.SymbolBodyChanged},
		},
	})
	require.NoError(t, err)
	require.Contains(t, result.Impact.Direct, "pkg/a.go#Caller", "Caller directly depends on the changed symbol Target")
}
