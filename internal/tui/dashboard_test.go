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

package tui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/pkg/pipeline"
)

func TestModel_Update_ProgressMsgUpdatesPhaseAndCounts(t *testing.T) {
	m := New("/repo")

	updated, cmd := m.Update(ProgressMsg{Current: 3, Total: 10, Phase: pipeline.PhaseBuilding})
	mm := updated.(Model)

	require.Nil(t, cmd)
	require.Equal(t, pipeline.PhaseBuilding, mm.phase)
	require.EqualValues(t, 3, mm.current)
	require.EqualValues(t, 10, mm.total)
}

func TestModel_Update_BuildDoneRecordsError(t *testing.T) {
	m := New("/repo")

	updated, _ := m.Update(BuildDoneMsg{RepoPath: "/repo", Duration: time.Second, Err: errors.New("boom")})
	mm := updated.(Model)

	require.Error(t, mm.lastErr)
	require.Equal(t, 1, mm.buildCount)
	require.Contains(t, mm.recent[len(mm.recent)-1], "failed")
}

func TestModel_PushRecent_BoundedByMaxRecent(t *testing.T) {
	m := New("/repo")
	m.maxRecent = 2

	for i := 0; i < 5; i++ {
		m.pushRecent("line")
	}
	require.Len(t, m.recent, 2)
}

func TestModel_View_RendersWithoutPanicking(t *testing.T) {
	m := New("/repo")
	require.NotEmpty(t, m.View())
}
