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

package graphdoc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGraphDocument_PackUnpackRoundTrip(t *testing.T) {
	g := sampleGraph()
	packed, err := g.Pack()
	require.NoError(t, err)
	require.NotEmpty(t, packed)

	got, err := Unpack(packed)
	require.NoError(t, err)
	require.Equal(t, g.Nodes(), got.Nodes())
	require.Equal(t, g.Edges(), got.Edges())

	// Finalize must have run during Unpack: reverse adjacency indices work
	// immediately, without the caller calling Finalize again.
	require.Equal(t, []string{"a.go#Caller"}, got.CalledBy("b.go#Callee"))
}

func TestGraphDocument_PackUnpackPreservesStaleStatus(t *testing.T) {
	g := sampleGraph()
	g.MarkStale(map[string]bool{"b.go#Callee": true})

	packed, err := g.Pack()
	require.NoError(t, err)
	got, err := Unpack(packed)
	require.NoError(t, err)

	require.Equal(t, StatusStale, got.Edges()[0].Status)
}
