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

// Package semantic builds tiered Semantic IR: a layered per-file pipeline
// (Type & Signature -> CFG -> Expression IR -> Type Linking -> DFG -> SSA ->
// PDG/Interprocedural) driven by a fixed BASE/EXTENDED/FULL tier plan.
package semantic

import "github.com/codegraph-dev/codegraph/pkg/ir"

// AgentIntent is the caller's high-level goal, one input to plan resolution.
type AgentIntent string

const (
	IntentUnderstand AgentIntent = "UNDERSTAND"
	IntentTrace      AgentIntent = "TRACE"
	IntentRefactor   AgentIntent = "REFACTOR"
	IntentReview     AgentIntent = "REVIEW"
)

// QueryType is the kind of query the caller intends to run against the
// resulting graph.
type QueryType string

const (
	QuerySlice  QueryType = "SLICE"
	QueryPath   QueryType = "PATH"
	QueryFlow   QueryType = "FLOW"
	QueryOrigin QueryType = "ORIGIN"
	QueryLookup QueryType = "LOOKUP"
)

// Scope bounds how much of the repository a query touches.
type Scope string

const (
	ScopeFile    Scope = "FILE"
	ScopeModule  Scope = "MODULE"
	ScopeProject Scope = "PROJECT"
)

// planKey is the (intent, query, scope) tuple the decision table is keyed on.
type planKey struct {
	Intent AgentIntent
	Query  QueryType
	Scope  Scope
}

// TierPlan is the resolved tier plus the options it implies.
type TierPlan struct {
	Tier                Tier
	DFGLocThreshold     int
	EnableSSA           bool
	EnableInterproc     bool
	EnableExpressions   bool
}

// Tier mirrors ir.Tier; re-exported here so callers of pkg/semantic don't
// need to import pkg/ir just to name a tier.
type Tier = ir.Tier

const (
	TierBase     = ir.TierBase
	TierExtended = ir.TierExtended
	TierFull     = ir.TierFull
)

// decisionTable is the fixed intent/query/scope -> tier mapping (spec §4.2
// "Plan resolution"). Only the combinations the spec calls out explicitly
// are listed; everything else falls through to the conservative default in
// Plan.
var decisionTable = map[planKey]Tier{
	{Intent: IntentTrace, Query: QuerySlice, Scope: ScopeProject}: TierFull,
	{Intent: IntentTrace, Query: QueryPath, Scope: ScopeProject}:  TierFull,
	{Intent: IntentTrace, Query: QuerySlice, Scope: ScopeModule}:  TierFull,
	{Intent: IntentTrace, Query: QueryPath, Scope: ScopeModule}:   TierFull,
	{Intent: IntentRefactor, Query: QuerySlice, Scope: ScopeProject}: TierFull,
	{Intent: IntentRefactor, Query: QueryPath, Scope: ScopeProject}:  TierFull,
	{Intent: IntentReview, Query: QueryFlow, Scope: ScopeModule}:   TierExtended,
	{Intent: IntentReview, Query: QueryOrigin, Scope: ScopeModule}: TierExtended,
	{Intent: IntentUnderstand, Query: QueryFlow, Scope: ScopeFile}: TierExtended,
	{Intent: IntentUnderstand, Query: QueryOrigin, Scope: ScopeFile}: TierExtended,
}

// Planner resolves a build plan from agent intent/query/scope, or an
// explicit tier override.
type Planner struct {
	defaultLOCThreshold int
}

// NewPlanner constructs a Planner. defaultLOCThreshold bounds DFG
// construction to functions at or below this line count (spec §3 "DFG
// (function-local, skipped if function LOC > threshold)"); a negative value
// (the caller didn't specify one) picks the suggested default of 400. 0 is a
// distinct, legitimate value: it means "skip DFG for every function" and
// must survive unchanged.
func NewPlanner(defaultLOCThreshold int) *Planner {
	if defaultLOCThreshold < 0 {
		defaultLOCThreshold = 400
	}
	return &Planner{defaultLOCThreshold: defaultLOCThreshold}
}

// Plan resolves (intent, query, scope) to a TierPlan using the fixed
// decision table, falling back to the explicit conservative defaults named
// in spec.md: SLICE/PATH queries (regardless of intent/scope) resolve to
// FULL, FLOW/ORIGIN resolve to EXTENDED, anything else resolves to BASE.
func (p *Planner) Plan(intent AgentIntent, query QueryType, scope Scope) TierPlan {
	tier, ok := decisionTable[planKey{Intent: intent, Query: query, Scope: scope}]
	if !ok {
		tier = fallbackTier(query)
	}
	return p.planForTier(tier)
}

// PlanOverride resolves a TierPlan for an explicit tier override, bypassing
// the decision table entirely (spec §4.2 "OR an explicit tier override").
func (p *Planner) PlanOverride(tier Tier) TierPlan {
	return p.planForTier(tier)
}

func fallbackTier(query QueryType) Tier {
	switch query {
	case QuerySlice, QueryPath:
		return TierFull
	case QueryFlow, QueryOrigin:
		return TierExtended
	default:
		return TierBase
	}
}

func (p *Planner) planForTier(tier Tier) TierPlan {
	layers := tier.Layers()
	return TierPlan{
		Tier:              tier,
		DFGLocThreshold:   p.defaultLOCThreshold,
		EnableSSA:         layers.SSA,
		EnableInterproc:   layers.InterproceduralDFG,
		EnableExpressions: layers.Expressions,
	}
}
