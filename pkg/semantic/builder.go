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

package semantic

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codegraph-dev/codegraph/pkg/cache"
	"github.com/codegraph-dev/codegraph/pkg/ir"
)

// Options configures one file's semantic build, derived from a TierPlan plus
// any per-call overrides (spec §4.2 "Options derived from the tier").
type Options struct {
	Plan Tier

	DFGLocThreshold   int
	EnableSSA         bool
	EnableInterproc   bool
	EnableExpressions bool
	// ForceSignatures builds signatures even at BASE, where they are
	// otherwise skipped (spec §4.2 step 1 "Skipped in BASE unless callers
	// set a per-field override").
	ForceSignatures bool

	TypeResolver TypeResolver
}

// OptionsFromPlan converts a resolved TierPlan into builder Options.
func OptionsFromPlan(plan TierPlan, resolver TypeResolver) Options {
	return Options{
		Plan:              plan.Tier,
		DFGLocThreshold:   plan.DFGLocThreshold,
		EnableSSA:         plan.EnableSSA,
		EnableInterproc:   plan.EnableInterproc,
		EnableExpressions: plan.EnableExpressions,
		TypeResolver:      resolver,
	}
}

// BuildFault records a single function or file build failure without
// aborting the rest of the snapshot (spec §4.2 "Failure semantics").
type BuildFault struct {
	File   ir.FileId
	Stage  string
	Reason string
}

func (f BuildFault) Error() string {
	return fmt.Sprintf("semantic build fault: file=%s stage=%s reason=%s", f.File, f.Stage, f.Reason)
}

// Builder runs the seven-step per-file build pipeline (spec §4.2 "Build
// pipeline (per file)"), composing pkg/ir's Structural IR into the
// requested tier's Semantic IR, consulting the semantic cache namespace
// before doing any work.
type Builder struct {
	logger *slog.Logger
	fp     *funcParser
	cache  *cache.Tiered[ir.SemanticIR]
}

// NewBuilder constructs a Builder. semanticCache may be nil, in which case
// every call is a forced rebuild (useful for tests exercising the pipeline
// directly without a cache namespace wired up).
func NewBuilder(logger *slog.Logger, semanticCache *cache.Tiered[ir.SemanticIR]) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger, fp: newFuncParser(), cache: semanticCache}
}

// Build runs the pipeline for one file's Structural IR under opts, first
// checking the semantic cache via the content/structural/config-derived
// SemanticCacheKey (spec §4.2 "Cache interaction per file"). faults records
// any per-function failures; the returned SemanticIR is still populated for
// every function that built successfully.
func (b *Builder) Build(ctx context.Context, structural ir.StructuralIR, cfgHash ir.ConfigHash, opts Options) (ir.SemanticIR, []BuildFault, bool) {
	structDigest, err := structural.Digest()
	if err != nil {
		return ir.SemanticIR{}, []BuildFault{{File: structural.FileID, Stage: "digest", Reason: err.Error()}}, false
	}
	key := ir.SemanticCacheKey(structural.ContentHash, structDigest, cfgHash)

	if b.cache != nil {
		if cached, ok := b.cache.Get(key); ok {
			return cached, nil, true
		}
	}

	out, faults := b.buildUncached(structural, opts)

	if b.cache != nil {
		if err := b.cache.Set(key, out); err != nil {
			b.logger.Warn("semantic.cache.write_failed", "file", structural.FileID, "error", err)
		}
	}

	_ = ctx // reserved for cancellation once builds are dispatched via errgroup in pkg/pipeline
	return out, faults, false
}

func (b *Builder) buildUncached(structural ir.StructuralIR, opts Options) (ir.SemanticIR, []BuildFault) {
	out := ir.SemanticIR{FileID: structural.FileID, Tier: opts.Plan}
	var faults []BuildFault

	for _, node := range structural.Nodes {
		if node.Kind != ir.NodeFunction && node.Kind != ir.NodeMethod {
			continue
		}
		fn, err := b.buildFunction(node, opts)
		if err != nil {
			faults = append(faults, BuildFault{File: structural.FileID, Stage: "function:" + node.ID, Reason: err.Error()})
			continue
		}
		out.Functions = append(out.Functions, fn)
	}

	out.Canonicalize()
	return out, faults
}

func (b *Builder) buildFunction(node ir.Node, opts Options) (ir.FunctionSemanticIR, error) {
	declSource := []byte(node.Attrs["signature"])
	if len(declSource) == 0 {
		return ir.FunctionSemanticIR{}, fmt.Errorf("semantic: node %s has no captured declaration source", node.ID)
	}

	decl, body, tree, ok := b.fp.parseDecl(declSource)
	if !ok || decl == nil {
		return ir.FunctionSemanticIR{}, fmt.Errorf("semantic: could not reparse declaration for %s", node.ID)
	}
	defer tree.Close()

	fn := ir.FunctionSemanticIR{FunctionID: node.ID}

	// Step 1: Type & Signature (skipped at BASE unless overridden).
	if opts.Plan >= TierExtended || opts.ForceSignatures {
		fn.Signature = extractSignature(decl, declSource)
	}
	// CFG is always built (BASE+), even when signatures are skipped — the
	// call graph layer depends only on the structural Calls edges pkg/ir
	// already extracted, not on this function's own signature.
	if body == nil {
		return fn, nil // signature-only declaration (e.g. interface method), no body to analyze
	}

	cfg := buildCFG(node.ID, body)
	fn.CFG = &cfg

	if !opts.EnableExpressions {
		return fn, nil
	}

	// Step 3: Expression IR.
	exprs := buildExpressions(node.ID, body, declSource)
	// Step 4: Type Linking.
	linkTypes(exprs, opts.TypeResolver)
	fn.Expressions = exprs

	// Step 5: DFG, subject to the LOC threshold. A threshold of 0 means
	// "skip DFG for every function" rather than "no bound", matching spec
	// §3's dfg_function_loc_threshold semantics.
	loc := node.Span.EndLine - node.Span.StartLine + 1
	if opts.DFGLocThreshold > 0 && loc <= opts.DFGLocThreshold {
		dfg := buildDFG(node.ID, body, fn.Signature.Params, declSource)
		fn.DFG = &dfg
	}

	if !opts.EnableSSA {
		return fn, nil
	}

	// Step 6: SSA + Dominators (FULL only).
	fn.Dominators = computeDominators(cfg)
	if fn.DFG != nil {
		fn.SSA = buildSSA(*fn.DFG)
	}

	// Step 7: PDG, the function-local half of FULL tier's "PDG +
	// Interprocedural DFG" requirement (spec §3.3). Built from the CFG and
	// DFG already computed above; the interprocedural half needs the whole
	// file set and is produced separately by pkg/callgraph once every
	// file's semantic IR is available.
	if opts.EnableInterproc {
		fn.PDG = buildPDG(node.ID, cfg, fn.DFG)
	}

	return fn, nil
}

// buildPDG derives a ProgramDependenceGraph from a function's own CFG and
// DFG: control edges are each conditional block's direct branch successors
// (the immediate control dependency, not a full postdominance-frontier
// computation), and data edges are the DFG's def-use edges carried over
// with their endpoints re-typed as PDGEdge.
func buildPDG(functionID string, cfg ir.ControlFlowGraph, dfg *ir.DataFlowGraph) *ir.ProgramDependenceGraph {
	pdg := &ir.ProgramDependenceGraph{FunctionID: functionID}

	condBlocks := make(map[string]bool)
	for _, blk := range cfg.Blocks {
		if blk.Kind == ir.BlockCond {
			condBlocks[blk.ID] = true
		}
	}
	for _, e := range cfg.Edges {
		if !condBlocks[e.Src] {
			continue
		}
		switch e.Kind {
		case ir.CFGTrueBranch, ir.CFGFalseBranch, ir.CFGLoopBack:
			pdg.Edges = append(pdg.Edges, ir.PDGEdge{From: e.Src, To: e.Dst, Kind: ir.PDGControl})
		}
	}

	if dfg != nil {
		for _, e := range dfg.Edges {
			pdg.Edges = append(pdg.Edges, ir.PDGEdge{From: e.FromVar, To: e.ToVar, Kind: ir.PDGData})
		}
	}

	return pdg
}
