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

// Package pipeline orchestrates a full snapshot build: parse every file,
// resolve cross-file calls and interface dispatch, build each file's
// semantic IR at the requested tier, merge everything into one
// GraphDocument, and attach build provenance. It is the Planning ->
// Dispatch -> Merge -> Commit -> Idle coordinator the rest of this module's
// packages are pure collaborators for.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codegraph-dev/codegraph/pkg/cache"
	"github.com/codegraph-dev/codegraph/pkg/callgraph"
	"github.com/codegraph-dev/codegraph/pkg/graphdoc"
	"github.com/codegraph-dev/codegraph/pkg/ir"
	"github.com/codegraph-dev/codegraph/pkg/provenance"
	"github.com/codegraph-dev/codegraph/pkg/semantic"
)

// ProgressPhase names a coordinator stage for ProgressCallback, mirroring
// the teacher's string phase names ("parsing", "embedding", "writing").
type ProgressPhase string

const (
	PhaseParsing  ProgressPhase = "parsing"
	PhaseResolve  ProgressPhase = "resolving"
	PhaseBuilding ProgressPhase = "building"
	PhaseMerging  ProgressPhase = "merging"
)

// ProgressCallback reports (current, total, phase) as the pipeline runs.
type ProgressCallback func(current, total int64, phase ProgressPhase)

// SourceFile is one file's raw input to a build.
type SourceFile struct {
	ID      ir.FileId
	Content []byte
}

// Config controls one Run.
type Config struct {
	// Concurrency bounds the parse and semantic-build worker pools. <= 0
	// leaves them unbounded (errgroup's zero value, no SetLimit call),
	// matching the teacher's "< 10 files: sequential" escape hatch
	// only insofar as a tiny SetLimit call is cheap; small file sets simply
	// finish before the pool ever fills.
	Concurrency int

	Tier            semantic.Tier
	RepoRev         string
	BuilderVersion  string
	DependencyVersions []string

	// DFGLocThreshold bounds DFG construction to functions at or below this
	// line count (spec §3); 0 means "skip DFG for every function" and a
	// negative value means "caller didn't specify one, use the 400 default"
	// (semantic.NewPlanner's own sentinel). It is ignored when ConfigOptions
	// is nil: the planner's 400 default applies instead.
	DFGLocThreshold int

	// ConfigOptions is the rendered form of pkg/config's WhitelistedOptions
	// (WhitelistedOptions.ToHashMap()) — every option spec §6.1 permits to
	// affect ConfigHash, not just the tier. Both the semantic cache's
	// ConfigHash lane and the build's ConfigFingerprint are derived from
	// this same map so a whitelisted option change is visible in both
	// places identically. A nil map folds the tier alone into both, which
	// is only correct for callers (tests, ad-hoc tooling) that have no
	// pkg/config.Config to draw from.
	ConfigOptions map[string]string

	OnProgress ProgressCallback

	StructuralCache *cache.Tiered[ir.StructuralIR]
	SemanticCache   *cache.Tiered[ir.SemanticIR]
}

// Snapshot is the immutable result of one Run: the merged graph plus the
// provenance record proving which inputs produced it (spec §3.5, §4.4).
type Snapshot struct {
	Graph      *graphdoc.GraphDocument
	Provenance provenance.BuildProvenance
	Tier       semantic.Tier
	Faults     []semantic.BuildFault
	Stubs      []ir.Node
}

// Pipeline is the build coordinator. Construct with New and call Run once
// per snapshot; Pipeline itself holds no per-run state so a single instance
// may run builds sequentially (concurrent Run calls would race on nothing
// pipeline-owned, but share caches exactly as intended).
type Pipeline struct {
	logger *slog.Logger
	parser ir.Parser
	metrics *Metrics
}

// New constructs a Pipeline. A nil logger falls back to slog.Default(); a
// nil parser defaults to ir.NewGoParser(logger).
func New(logger *slog.Logger, parser ir.Parser, metrics *Metrics) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if parser == nil {
		parser = ir.NewGoParser(logger)
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Pipeline{logger: logger, parser: parser, metrics: metrics}
}

func (p *Pipeline) report(cb ProgressCallback, current, total int64, phase ProgressPhase) {
	if cb != nil {
		cb(current, total, phase)
	}
}

// Run executes the full Planning -> Dispatch -> Merge -> Commit sequence
// over files, returning the merged Snapshot. Per-function build failures
// are collected into Snapshot.Faults rather than aborting the run (spec
// §4.2 "Failure semantics").
func (p *Pipeline) Run(ctx context.Context, files []SourceFile, cfg Config) (*Snapshot, error) {
	start := time.Now()
	runID, err := provenance.NewRunID()
	if err != nil {
		return nil, fmt.Errorf("pipeline: mint run id: %w", err)
	}

	// Dispatch: parse every file concurrently, preserving input order in
	// the result slice so downstream processing is independent of
	// goroutine completion order (determinism invariant).
	structurals, parseFaults, err := p.parseAll(ctx, files, cfg)
	if err != nil {
		return nil, err
	}

	// Resolve: cross-file call and interface-dispatch resolution needs the
	// whole file set at once, so it cannot be folded into the parse stage.
	p.report(cfg.OnProgress, 0, 1, PhaseResolve)
	idx := callgraph.NewIndex(structurals)
	resolvedCalls := idx.ResolveCalls(structurals)
	implementsEdges := idx.ImplementsEdges(structurals)
	p.report(cfg.OnProgress, 1, 1, PhaseResolve)

	// Build: semantic IR per file, at the planned tier, concurrently. Every
	// whitelisted option (spec §6.1), not just the tier, is folded into the
	// semantic cache's ConfigHash lane so changing any one of them — the
	// DFG LOC threshold, toggling ssa/expressions, bumping engine_version
	// or schema_version within a fixed tier — is a cache miss rather than a
	// silent reuse of a stale entry.
	configOptions := cfg.ConfigOptions
	plannerThreshold := cfg.DFGLocThreshold
	if configOptions == nil {
		// No pkg/config.WhitelistedOptions behind this run (a caller
		// exercising the pipeline directly, e.g. a test): fall back to the
		// tier alone for the hash and let the planner pick its own default
		// threshold, since DFGLocThreshold's zero value is otherwise
		// indistinguishable from an explicit "skip all DFG".
		configOptions = map[string]string{"semantic_tier": cfg.Tier.String()}
		plannerThreshold = -1
	}
	builder := semantic.NewBuilder(p.logger, cfg.SemanticCache)
	planner := semantic.NewPlanner(plannerThreshold)
	opts := semantic.OptionsFromPlan(planner.PlanOverride(cfg.Tier), nil)
	cfgHash := ir.HashConfig(configOptions)
	semantics, buildFaults, err := p.buildAll(ctx, structurals, opts, cfgHash, builder, cfg)
	if err != nil {
		return nil, err
	}

	// FULL tier additionally requires interprocedural DFG edges (spec
	// §3.3): derived from the same resolved call graph above, gated on the
	// tier rather than recomputed per function.
	var interprocEdges []ir.Edge
	if opts.EnableInterproc {
		interprocEdges = idx.InterprocDFGEdges(resolvedCalls)
	}

	// Merge: one deterministic GraphDocument from every file's structural
	// and semantic IR plus the cross-file edges just resolved.
	p.report(cfg.OnProgress, 0, 1, PhaseMerging)
	graph := mergeGraph(structurals, semantics, resolvedCalls, implementsEdges, interprocEdges, idx.Stubs())
	p.report(cfg.OnProgress, 1, 1, PhaseMerging)

	// Commit: attach provenance.
	fileHashes := make([]ir.ContentHash, len(structurals))
	for i, s := range structurals {
		fileHashes[i] = s.ContentHash
	}
	prov := provenance.BuildProvenance{
		RunID:                 runID,
		InputFingerprint:      provenance.InputFingerprint(cfg.RepoRev, fileHashes),
		BuilderVersion:        provenance.BuilderVersionFingerprint(cfg.BuilderVersion),
		ConfigFingerprint:     provenance.ConfigFingerprint(configOptions),
		DependencyFingerprint: provenance.DependencyFingerprint(cfg.DependencyVersions),
	}

	allFaults := append(parseFaults, buildFaults...)
	p.metrics.ObserveBuildDuration(time.Since(start))
	p.metrics.ObserveFaultCount(len(allFaults))

	return &Snapshot{
		Graph:      graph,
		Provenance: prov,
		Tier:       cfg.Tier,
		Faults:     allFaults,
		Stubs:      idx.Stubs(),
	}, nil
}

func (p *Pipeline) parseAll(ctx context.Context, files []SourceFile, cfg Config) ([]ir.StructuralIR, []semantic.BuildFault, error) {
	out := make([]ir.StructuralIR, len(files))
	var faultsMu sync.Mutex
	var faults []semantic.BuildFault

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Concurrency > 0 {
		g.SetLimit(cfg.Concurrency)
	}

	var progress int64
	total := int64(len(files))

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			structural, err := p.parser.Parse(ctx, f.ID, f.Content)
			if err != nil {
				faultsMu.Lock()
				faults = append(faults, semantic.BuildFault{File: f.ID, Stage: "parse", Reason: err.Error()})
				faultsMu.Unlock()
				p.metrics.IncParseError()
			} else {
				out[i] = structural
				p.metrics.IncFilesParsed()
			}
			cur := atomic.AddInt64(&progress, 1)
			p.report(cfg.OnProgress, cur, total, PhaseParsing)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sort.Slice(faults, func(i, j int) bool { return faults[i].File < faults[j].File })
	return out, faults, nil
}

func (p *Pipeline) buildAll(ctx context.Context, structurals []ir.StructuralIR, opts semantic.Options, cfgHash ir.ConfigHash, builder *semantic.Builder, cfg Config) ([]ir.SemanticIR, []semantic.BuildFault, error) {
	out := make([]ir.SemanticIR, len(structurals))
	var faultsMu sync.Mutex
	var faults []semantic.BuildFault

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Concurrency > 0 {
		g.SetLimit(cfg.Concurrency)
	}

	var progress int64
	total := int64(len(structurals))

	for i, s := range structurals {
		i, s := i, s
		if s.FileID == "" {
			// A failed parse leaves a zero-value entry; skip rather than
			// building semantic IR for a file with no structural IR.
			continue
		}
		g.Go(func() error {
			sem, fileFaults, _ := builder.Build(ctx, s, cfgHash, opts)
			out[i] = sem
			if len(fileFaults) > 0 {
				faultsMu.Lock()
				faults = append(faults, fileFaults...)
				faultsMu.Unlock()
			}
			cur := atomic.AddInt64(&progress, 1)
			p.report(cfg.OnProgress, cur, total, PhaseBuilding)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sort.Slice(faults, func(i, j int) bool { return faults[i].File < faults[j].File })
	return out, faults, nil
}

// mergeGraph assembles a GraphDocument from every file's structural and
// semantic IR, plus the cross-file edges callgraph resolved. Files are
// processed in FileID order so the resulting node/edge insertion sequence
// is itself deterministic, even though GraphDocument's btree storage
// already makes iteration order independent of it.
// semantics is accepted for signature symmetry with the pipeline's other
// merge inputs but not folded into the graph: Semantic IR is queried by
// FunctionID against its own cache namespace, a separate store from the
// structural Graph (spec §3.4).
func mergeGraph(structurals []ir.StructuralIR, semantics []ir.SemanticIR, resolvedCalls, implementsEdges, interprocEdges []ir.Edge, stubs []ir.Node) *graphdoc.GraphDocument {
	order := make([]int, len(structurals))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return structurals[order[a]].FileID < structurals[order[b]].FileID })

	g := graphdoc.New()
	for _, i := range order {
		s := structurals[i]
		if s.FileID == "" {
			continue
		}
		for _, n := range s.Nodes {
			g.AddNode(graphdoc.GraphNode{Node: n, FileID: s.FileID})
		}
		for _, e := range s.Edges {
			g.AddEdge(graphdoc.GraphEdge{Edge: e, Status: graphdoc.StatusValid})
		}
	}
	for _, n := range stubs {
		g.AddNode(graphdoc.GraphNode{Node: n, FileID: ir.FileId("<external>")})
	}
	for _, e := range resolvedCalls {
		g.AddEdge(graphdoc.GraphEdge{Edge: e, Status: graphdoc.StatusValid})
	}
	for _, e := range implementsEdges {
		g.AddEdge(graphdoc.GraphEdge{Edge: e, Status: graphdoc.StatusValid})
	}
	for _, e := range interprocEdges {
		g.AddEdge(graphdoc.GraphEdge{Edge: e, Status: graphdoc.StatusValid})
	}

	_ = semantics
	g.Finalize()
	return g
}
