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

package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashBytes_Deterministic(t *testing.T) {
	a := HashBytes([]byte("package main\n"))
	b := HashBytes([]byte("package main\n"))
	require.Equal(t, a, b)
}

func TestHashBytes_DifferentInputsDiffer(t *testing.T) {
	a := HashBytes([]byte("a"))
	b := HashBytes([]byte("b"))
	require.NotEqual(t, a, b)
}

func TestHashConfig_WhitelistOnly(t *testing.T) {
	a := HashConfig(map[string]string{"semantic_tier": "BASE"})
	b := HashConfig(map[string]string{"semantic_tier": "BASE"})
	require.Equal(t, a, b, "identical whitelisted options must hash identically")

	c := HashConfig(map[string]string{"semantic_tier": "FULL"})
	require.NotEqual(t, a, c, "changing a whitelisted option must change ConfigHash")
}

func TestHashConfig_KeyOrderIndependent(t *testing.T) {
	a := HashConfig(map[string]string{"a": "1", "b": "2"})
	b := HashConfig(map[string]string{"b": "2", "a": "1"})
	require.Equal(t, a, b)
}

func TestSemanticCacheKey_ExcludesPath(t *testing.T) {
	content := HashBytes([]byte("same content"))
	structural := HashBytes([]byte("same structure"))
	cfg := HashConfig(map[string]string{"semantic_tier": "BASE"})

	// Same content+structure+config hashed twice must produce the same key
	// regardless of any path the caller might otherwise have been tempted
	// to fold in — rename tolerance (spec invariant 2).
	k1 := SemanticCacheKey(content, structural, cfg)
	k2 := SemanticCacheKey(content, structural, cfg)
	require.Equal(t, k1, k2)
}

func TestSemanticCacheKey_ContentChangeChangesKey(t *testing.T) {
	structural := HashBytes([]byte("structure"))
	cfg := HashConfig(map[string]string{"semantic_tier": "BASE"})

	k1 := SemanticCacheKey(HashBytes([]byte("v1")), structural, cfg)
	k2 := SemanticCacheKey(HashBytes([]byte("v2")), structural, cfg)
	require.NotEqual(t, k1, k2)
}
