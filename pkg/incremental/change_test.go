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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func statMeta(t *testing.T, path string, id ir.FileId) FileMetadata {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return FileMetadata{
		Path:        id,
		ModUnixNano: info.ModTime().UnixNano(),
		Size:        info.Size(),
		ContentHash: ir.HashBytes(content),
	}
}

func TestDetectChanges_Added(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "new.go", "package a")

	cs, err := DetectChanges(map[ir.FileId]FileMetadata{}, []RepoPath{{FileID: "new.go", FullPath: p}})
	require.NoError(t, err)
	require.Equal(t, []ir.FileId{"new.go"}, cs.Added)
	require.Empty(t, cs.Modified)
	require.Empty(t, cs.Deleted)
}

func TestDetectChanges_Deleted(t *testing.T) {
	prior := map[ir.FileId]FileMetadata{"gone.go": {Path: "gone.go"}}

	cs, err := DetectChanges(prior, nil)
	require.NoError(t, err)
	require.Equal(t, []ir.FileId{"gone.go"}, cs.Deleted)
}

func TestDetectChanges_UnchangedFastPathSkipsRehash(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "same.go", "package a")
	prior := map[ir.FileId]FileMetadata{"same.go": statMeta(t, p, "same.go")}

	cs, err := DetectChanges(prior, []RepoPath{{FileID: "same.go", FullPath: p}})
	require.NoError(t, err)
	require.False(t, cs.HasChanges())
}

func TestDetectChanges_ContentChangeDetectedViaHash(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "mod.go", "package a")
	prior := map[ir.FileId]FileMetadata{"mod.go": statMeta(t, p, "mod.go")}

	// Force a new mtime/size so the fast path falls through to rehash.
	time.Sleep(2 * time.Millisecond)
	writeFile(t, dir, "mod.go", "package a // changed")

	cs, err := DetectChanges(prior, []RepoPath{{FileID: "mod.go", FullPath: p}})
	require.NoError(t, err)
	require.Equal(t, []ir.FileId{"mod.go"}, cs.Modified)
}

func TestChangeSet_AllDedupesAndSorts(t *testing.T) {
	cs := ChangeSet{
		Added:    []ir.FileId{"c.go"},
		Modified: []ir.FileId{"a.go"},
		Deleted:  []ir.FileId{"b.go"},
	}
	require.Equal(t, []ir.FileId{"a.go", "b.go", "c.go"}, cs.All())
}

func TestWalkRepoPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	writeFile(t, dir, "top.go", "package a")
	writeFile(t, filepath.Join(dir, "sub"), "nested.go", "package a")

	paths, err := WalkRepoPaths(dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
}
