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

package incremental

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

func TestAnalyzeImpact_DirectCallers(t *testing.T) {
	g := chainGraph()
	changes := []SymbolChange{{FQN: "a.go#A", ChangeType: SymbolSignatureChanged}}

	got := AnalyzeImpact(g, changes, 10, 0)
	require.Equal(t, []string{"b.go#B"}, got.Direct)
	require.Contains(t, got.Transitive, "c.go#C")
	require.Contains(t, got.Transitive, "d.go#D")
	require.Equal(t, []ir.FileId{"b.go", "c.go", "d.go"}, got.AffectedFiles)
}

func TestAnalyzeImpact_BoundedByMaxDepth(t *testing.T) {
	g := chainGraph()
	changes := []SymbolChange{{FQN: "a.go#A", ChangeType: SymbolBodyChanged}}

	got := AnalyzeImpact(g, changes, 1, 0)
	require.Equal(t, []string{"b.go#B"}, got.Direct)
	require.Empty(t, got.Transitive)
}

func TestAnalyzeImpact_BoundedByMaxAffected(t *testing.T) {
	g := chainGraph()
	changes := []SymbolChange{{FQN: "a.go#A", ChangeType: SymbolBodyChanged}}

	got := AnalyzeImpact(g, changes, 10, 2)
	total := len(got.Direct) + len(got.Transitive)
	require.LessOrEqual(t, total, 3) // bound is soft: Direct is not trimmed to it, and each remaining frontier node of a hop may add one more
}

func TestAnalyzeImpact_NoChangesIsEmpty(t *testing.T) {
	got := AnalyzeImpact(chainGraph(), nil, 10, 0)
	require.Empty(t, got.Direct)
	require.Empty(t, got.Transitive)
	require.Empty(t, got.AffectedFiles)
}

func TestAnalyzeImpact_DeterministicAcrossRuns(t *testing.T) {
	g := chainGraph()
	changes := []SymbolChange{{FQN: "a.go#A", ChangeType: SymbolDeleted}}

	first := AnalyzeImpact(g, changes, 10, 0)
	second := AnalyzeImpact(g, changes, 10, 0)
	require.Equal(t, first, second)
}
