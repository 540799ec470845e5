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

// Package incremental implements change detection, stale-edge marking,
// scope expansion, and impact analysis for incremental builds: everything
// build_incremental needs beyond a fresh parse of every file.
package incremental

import (
	"os"
	"path/filepath"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

// FileMetadata is the fast-path change-detection state recorded for one
// file in a prior snapshot: stat-derived (ModTime, Size) plus the content
// hash computed the last time either of those differed.
type FileMetadata struct {
	Path        ir.FileId
	ModUnixNano int64
	Size        int64
	ContentHash ir.ContentHash
}

// ChangeSet is the result of comparing a prior snapshot's file metadata
// against the current request's file set.
type ChangeSet struct {
	Added    []ir.FileId
	Modified []ir.FileId
	Deleted  []ir.FileId
}

// All returns the sorted, deduplicated union of every changed path.
func (c ChangeSet) All() []ir.FileId {
	set := mapset.NewThreadUnsafeSet[ir.FileId]()
	for _, p := range c.Added {
		set.Add(p)
	}
	for _, p := range c.Modified {
		set.Add(p)
	}
	for _, p := range c.Deleted {
		set.Add(p)
	}
	out := set.ToSlice()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasChanges reports whether the change set touches any file.
func (c ChangeSet) HasChanges() bool {
	return len(c.Added) > 0 || len(c.Modified) > 0 || len(c.Deleted) > 0
}

// RepoPath is the absolute path to one candidate file for DetectChanges,
// paired with its request-relative FileID.
type RepoPath struct {
	FileID   ir.FileId
	FullPath string
}

// DetectChanges compares the current file set against prior's recorded
// metadata using the fast mtime+size path, falling back to a content hash
// recompute only when either differs (spec's "stat once, rehash only on
// mismatch" rule). Files present in prior but absent from current are
// reported as Deleted.
func DetectChanges(prior map[ir.FileId]FileMetadata, current []RepoPath) (ChangeSet, error) {
	var cs ChangeSet
	seen := make(map[ir.FileId]bool, len(current))

	for _, f := range current {
		seen[f.FileID] = true
		info, err := os.Stat(f.FullPath)
		if err != nil {
			return ChangeSet{}, err
		}

		prev, ok := prior[f.FileID]
		if !ok {
			cs.Added = append(cs.Added, f.FileID)
			continue
		}

		if info.ModTime().UnixNano() == prev.ModUnixNano && info.Size() == prev.Size {
			continue // fast-path hit: no rehash needed
		}

		content, err := os.ReadFile(f.FullPath)
		if err != nil {
			return ChangeSet{}, err
		}
		hash := ir.HashBytes(content)
		if hash != prev.ContentHash {
			cs.Modified = append(cs.Modified, f.FileID)
		}
		// Equal content hash despite mtime/size drift: metadata should be
		// promoted by the caller, but this is not itself a change.
	}

	for path := range prior {
		if !seen[path] {
			cs.Deleted = append(cs.Deleted, path)
		}
	}

	sort.Slice(cs.Added, func(i, j int) bool { return cs.Added[i] < cs.Added[j] })
	sort.Slice(cs.Modified, func(i, j int) bool { return cs.Modified[i] < cs.Modified[j] })
	sort.Slice(cs.Deleted, func(i, j int) bool { return cs.Deleted[i] < cs.Deleted[j] })

	return cs, nil
}

// WalkRepoPaths lists every regular file under root as a []RepoPath with
// repo-relative FileIDs, the shape DetectChanges expects for "current".
func WalkRepoPaths(root string) ([]RepoPath, error) {
	var paths []RepoPath
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		paths = append(paths, RepoPath{FileID: ir.FileId(filepath.ToSlash(rel)), FullPath: p})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
