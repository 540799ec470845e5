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

	"github.com/codegraph-dev/codegraph/pkg/graphdoc"
	"github.com/codegraph-dev/codegraph/pkg/incremental"
	"github.com/codegraph-dev/codegraph/pkg/ir"
)

// IncrementalOptions extends Config with the knobs specific to an
// incremental build (spec §4.3, §6.3): how far scope expansion walks the
// reverse dependency graph, and the symbol-level diff impact analysis
// reports over. SymbolChanges is supplied by the caller rather than derived
// here, since Run only ever sees raw file content — it has no notion of
// "this function's signature changed" versus "this function's body
// changed" without a caller-side diff against the prior build's semantic
// IR.
type IncrementalOptions struct {
	Config

	ScopePolicy   incremental.ScopePolicy
	MaxScopeDepth int

	SymbolChanges  []incremental.SymbolChange
	MaxImpactDepth int
	MaxAffected    int
}

// IncrementalResult is RunIncremental's return value: the rebuilt Snapshot
// plus the scope and impact accounting that justified doing less work than
// a full reparse of every file.
type IncrementalResult struct {
	*Snapshot

	// Scope is the set of files incremental.ExpandScope determined need
	// reindexing: changes.All() plus whatever ScopePolicy's reverse-graph
	// walk pulled in.
	Scope []ir.FileId
	// Impact is incremental.AnalyzeImpact's result over SymbolChanges,
	// computed against prior's graph before the rebuild.
	Impact incremental.ImpactAnalysis
}

// RunIncremental implements build_incremental(prior_snapshot, change_set,
// config) (spec §6.3): given a prior Snapshot and the ChangeSet naming
// which files changed since it was built, it marks every edge touching the
// reindex scope stale (graphdoc.MarkStale), reports the changed symbols'
// blast radius (incremental.AnalyzeImpact), and rebuilds via Run.
//
// An empty ChangeSet returns prior unchanged — build_incremental(prior, ∅)
// == prior (spec §8 invariant 11) — without touching prior's graph at all.
//
// files must carry the complete current file set, not just the changed
// ones: Run's cross-file call and interface-dispatch resolution needs
// every file to resolve correctly, and pkg/cache's content-hash-keyed
// structural/semantic caches already make reparsing and rebuilding an
// unchanged file cheap, so there is no correctness reason to special-case
// them here — the incremental value this adds over calling Run directly is
// the scope/impact accounting and the stale-edge transition below.
//
// MarkStale mutates prior.Graph in place; by the time RunIncremental
// returns, Snapshot.Graph is the freshly merged replacement graph, with
// every in-scope edge re-added as graphdoc.StatusValid (mergeGraph always
// adds edges as Valid) — the stale-then-revalidated transition spec §8
// invariant 13 requires. prior's mutated graph is not otherwise reused
// past this call.
func (p *Pipeline) RunIncremental(ctx context.Context, prior *Snapshot, changes incremental.ChangeSet, files []SourceFile, opts IncrementalOptions) (*IncrementalResult, error) {
	if !changes.HasChanges() {
		return &IncrementalResult{Snapshot: prior}, nil
	}

	scope := incremental.ExpandScope(prior.Graph, changes, opts.ScopePolicy, opts.MaxScopeDepth)
	prior.Graph.MarkStale(scopeNodeIDs(prior.Graph, scope))

	impact := incremental.AnalyzeImpact(prior.Graph, opts.SymbolChanges, opts.MaxImpactDepth, opts.MaxAffected)

	snap, err := p.Run(ctx, files, opts.Config)
	if err != nil {
		return nil, err
	}

	return &IncrementalResult{Snapshot: snap, Scope: scope, Impact: impact}, nil
}

// scopeNodeIDs returns the ids of every node belonging to one of scope's
// files, the shape graphdoc.MarkStale expects.
func scopeNodeIDs(g *graphdoc.GraphDocument, scope []ir.FileId) map[string]bool {
	inScope := make(map[ir.FileId]bool, len(scope))
	for _, f := range scope {
		inScope[f] = true
	}
	out := make(map[string]bool)
	for _, n := range g.Nodes() {
		if inScope[n.FileID] {
			out[n.ID] = true
		}
	}
	return out
}
