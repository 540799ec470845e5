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
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

const sampleSource = `package sample

func Add(a int, b int) int {
	sum := a + b
	if sum > 10 {
		return sum
	}
	for i := 0; i < sum; i++ {
		if i == 5 {
			break
		}
		sum = sum + i
	}
	return sum
}
`

func parseSample(t *testing.T) ir.StructuralIR {
	t.Helper()
	parser := ir.NewGoParser(nil)
	out, err := parser.Parse(context.Background(), ir.FileId("sample.go"), []byte(sampleSource))
	require.NoError(t, err)
	return out
}

func TestBuilder_BaseTierBuildsCFGOnly(t *testing.T) {
	structural := parseSample(t)
	b := NewBuilder(nil, nil)
	opts := OptionsFromPlan(NewPlanner(-1).PlanOverride(TierBase), nil)

	out, faults, cached := b.Build(context.Background(), structural, 0, opts)
	require.Empty(t, faults)
	require.False(t, cached)
	require.Equal(t, TierBase, out.Tier)
	require.Len(t, out.Functions, 1)

	fn := out.Functions[0]
	require.NotNil(t, fn.CFG)
	require.Nil(t, fn.DFG)
	require.Empty(t, fn.Expressions)
	require.Empty(t, fn.Signature.Params, "signatures are skipped at BASE absent an override")
}

func TestBuilder_ExtendedTierBuildsDFGAndExpressions(t *testing.T) {
	structural := parseSample(t)
	b := NewBuilder(nil, nil)
	opts := OptionsFromPlan(NewPlanner(-1).PlanOverride(TierExtended), nil)

	out, faults, _ := b.Build(context.Background(), structural, 0, opts)
	require.Empty(t, faults)
	fn := out.Functions[0]
	require.NotNil(t, fn.CFG)
	require.NotNil(t, fn.DFG)
	require.NotEmpty(t, fn.Expressions)
	require.Len(t, fn.Signature.Params, 2)
	require.Equal(t, "int", fn.Signature.ReturnType)
	require.Nil(t, fn.SSA, "SSA is FULL-tier only")
}

func TestBuilder_FullTierBuildsSSAAndDominators(t *testing.T) {
	structural := parseSample(t)
	b := NewBuilder(nil, nil)
	opts := OptionsFromPlan(NewPlanner(-1).PlanOverride(TierFull), nil)

	out, faults, _ := b.Build(context.Background(), structural, 0, opts)
	require.Empty(t, faults)
	fn := out.Functions[0]
	require.NotNil(t, fn.CFG)
	require.NotNil(t, fn.DFG)
	require.NotEmpty(t, fn.SSA)
	require.NotEmpty(t, fn.Dominators)
	require.NotNil(t, fn.PDG, "FULL tier must build a PDG")
	require.NotEmpty(t, fn.PDG.Edges)

	var sawControl, sawData bool
	for _, e := range fn.PDG.Edges {
		switch e.Kind {
		case ir.PDGControl:
			sawControl = true
		case ir.PDGData:
			sawData = true
		}
	}
	require.True(t, sawControl, "sample function has an if/for, so PDG must carry control-dependence edges")
	require.True(t, sawData, "sample function's DFG carries def-use edges, so PDG must carry data-dependence edges")
}

func TestBuilder_ExtendedTierDoesNotBuildPDG(t *testing.T) {
	structural := parseSample(t)
	b := NewBuilder(nil, nil)
	opts := OptionsFromPlan(NewPlanner(-1).PlanOverride(TierExtended), nil)

	out, faults, _ := b.Build(context.Background(), structural, 0, opts)
	require.Empty(t, faults)
	require.Nil(t, out.Functions[0].PDG, "PDG is a FULL-tier-only layer")
}

func TestBuilder_DFGLocThresholdSkipsLargeFunctions(t *testing.T) {
	structural := parseSample(t)
	plan := NewPlanner(-1).PlanOverride(TierExtended)
	plan.DFGLocThreshold = 1 // the sample function is far larger than 1 LOC
	b := NewBuilder(nil, nil)
	opts := OptionsFromPlan(plan, nil)

	out, faults, _ := b.Build(context.Background(), structural, 0, opts)
	require.Empty(t, faults)
	require.Nil(t, out.Functions[0].DFG)
}

func TestBuilder_DFGLocThresholdZeroSkipsEveryFunction(t *testing.T) {
	structural := parseSample(t)
	plan := NewPlanner(-1).PlanOverride(TierExtended)
	plan.DFGLocThreshold = 0 // spec: 0 means "skip DFG for every function", not "no bound"
	b := NewBuilder(nil, nil)
	opts := OptionsFromPlan(plan, nil)

	out, faults, _ := b.Build(context.Background(), structural, 0, opts)
	require.Empty(t, faults)
	require.Nil(t, out.Functions[0].DFG)
}

func TestBuilder_DFGLocThresholdMaxUint32CoversEveryFunction(t *testing.T) {
	structural := parseSample(t)
	plan := NewPlanner(-1).PlanOverride(TierExtended)
	plan.DFGLocThreshold = math.MaxUint32
	b := NewBuilder(nil, nil)
	opts := OptionsFromPlan(plan, nil)

	out, faults, _ := b.Build(context.Background(), structural, 0, opts)
	require.Empty(t, faults)
	require.NotNil(t, out.Functions[0].DFG)
}

func TestComputeDominators_StraightLineFunction(t *testing.T) {
	structural := parseSample(t)
	var fnNode ir.Node
	for _, n := range structural.Nodes {
		if n.Kind == ir.NodeFunction {
			fnNode = n
			break
		}
	}
	require.NotEmpty(t, fnNode.ID)

	b := NewBuilder(nil, nil)
	fn, err := b.buildFunction(fnNode, Options{Plan: TierFull, EnableExpressions: true, EnableSSA: true})
	require.NoError(t, err)
	require.NotEmpty(t, fn.Dominators)

	// Every non-entry block must have an immediate dominator recorded.
	for _, blk := range fn.CFG.Blocks {
		if blk.Kind == ir.BlockEntry {
			continue
		}
		_, ok := fn.Dominators[blk.ID]
		require.True(t, ok, "block %s missing from dominator map", blk.ID)
	}
}
