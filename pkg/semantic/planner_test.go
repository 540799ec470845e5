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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlanner_FallbackSliceAndPathResolveFull(t *testing.T) {
	p := NewPlanner(-1)

	plan := p.Plan(AgentIntent("UNKNOWN"), QuerySlice, Scope("UNKNOWN"))
	require.Equal(t, TierFull, plan.Tier)

	plan = p.Plan(AgentIntent("UNKNOWN"), QueryPath, Scope("UNKNOWN"))
	require.Equal(t, TierFull, plan.Tier)
}

func TestPlanner_FallbackFlowAndOriginResolveExtended(t *testing.T) {
	p := NewPlanner(-1)

	plan := p.Plan(AgentIntent("UNKNOWN"), QueryFlow, Scope("UNKNOWN"))
	require.Equal(t, TierExtended, plan.Tier)

	plan = p.Plan(AgentIntent("UNKNOWN"), QueryOrigin, Scope("UNKNOWN"))
	require.Equal(t, TierExtended, plan.Tier)
}

func TestPlanner_DefaultFallbackIsBase(t *testing.T) {
	p := NewPlanner(-1)
	plan := p.Plan(AgentIntent("UNKNOWN"), QueryLookup, Scope("UNKNOWN"))
	require.Equal(t, TierBase, plan.Tier)
}

func TestPlanner_PlanOverrideBypassesTable(t *testing.T) {
	p := NewPlanner(-1)
	plan := p.PlanOverride(TierFull)
	require.Equal(t, TierFull, plan.Tier)
	require.True(t, plan.EnableSSA)
	require.True(t, plan.EnableInterproc)
}

func TestPlanner_ExplicitZeroThresholdIsPreserved(t *testing.T) {
	p := NewPlanner(0)
	plan := p.PlanOverride(TierExtended)
	require.Equal(t, 0, plan.DFGLocThreshold, "an explicit 0 must not be replaced by the 400 default")
}

func TestPlanner_NegativeThresholdPicksDefault(t *testing.T) {
	p := NewPlanner(-1)
	plan := p.PlanOverride(TierExtended)
	require.Equal(t, 400, plan.DFGLocThreshold)
}

func TestPlanner_OptionsDeriveFromTierLayers(t *testing.T) {
	p := NewPlanner(100)

	base := p.PlanOverride(TierBase)
	require.False(t, base.EnableExpressions)
	require.False(t, base.EnableSSA)

	extended := p.PlanOverride(TierExtended)
	require.True(t, extended.EnableExpressions)
	require.False(t, extended.EnableSSA)

	full := p.PlanOverride(TierFull)
	require.True(t, full.EnableExpressions)
	require.True(t, full.EnableSSA)
	require.True(t, full.EnableInterproc)
}
