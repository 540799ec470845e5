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

package ui

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func TestInitColors_NoColorDisablesOutput(t *testing.T) {
	InitColors(true)
	require.True(t, color.NoColor)
}

func TestLabel_ReturnsNonEmptyString(t *testing.T) {
	require.NotEmpty(t, Label("Project ID:"))
}

func TestCountText_FormatsInteger(t *testing.T) {
	color.NoColor = true
	require.Equal(t, "42", CountText(42))
}
