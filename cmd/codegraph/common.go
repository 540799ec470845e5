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

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/codegraph-dev/codegraph/pkg/cache"
	"github.com/codegraph-dev/codegraph/pkg/config"
	"github.com/codegraph-dev/codegraph/pkg/ir"
	"github.com/codegraph-dev/codegraph/pkg/lockport"
	"github.com/codegraph-dev/codegraph/pkg/metadata"
	"github.com/codegraph-dev/codegraph/pkg/pipeline"
)

// skipDirs names directories never descended into when discovering source
// files, mirroring the teacher's watchSkipDirs allow-list.
var skipDirs = map[string]bool{
	".git":         true,
	".codegraph":   true,
	"node_modules": true,
	"vendor":       true,
}

func loadProjectConfig(configPath, projectID string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath, projectID)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// gitCommit returns root's current HEAD commit, or "unknown" if root is not
// a git checkout or the git binary is unavailable — provenance still wants
// a RepoRev even outside a VCS, so this is advisory, not fatal.
func gitCommit(root string) string {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

// discoverSourceFiles walks root for .go files, skipping VCS and cache
// directories, and reads each one into a pipeline.SourceFile.
func discoverSourceFiles(root string) ([]pipeline.SourceFile, error) {
	var files []pipeline.SourceFile
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if skipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(p) != ".go" {
			return nil
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, pipeline.SourceFile{
			ID:      ir.FileId(filepath.ToSlash(rel)),
			Content: content,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// buildCaches opens this project's Structural and Semantic L1+L2 cache
// namespaces under cfg.CacheRoot, sized per cfg.Whitelisted.
func buildCaches(cfg *config.Config) (*cache.Tiered[ir.StructuralIR], *cache.Tiered[ir.SemanticIR], error) {
	w := cfg.Whitelisted

	structuralCache, err := cache.New[ir.StructuralIR](cache.Config{
		Namespace:     "structural",
		Root:          filepath.Join(cfg.CacheRoot, "structural"),
		EngineVersion: w.EngineVersion,
		SchemaVersion: w.SchemaVersion,
		Magic:         cache.StructuralMagic,
		Ext:           ".sstr",
		Compress:      true,
		L1MaxEntries:  int(w.L1MaxEntries),
		L1MaxBytes:    w.L1MaxBytes,
	}, cache.StructuralCodec{})
	if err != nil {
		return nil, nil, fmt.Errorf("open structural cache: %w", err)
	}

	semanticCache, err := cache.New[ir.SemanticIR](cache.Config{
		Namespace:     "semantic",
		Root:          filepath.Join(cfg.CacheRoot, "semantic"),
		EngineVersion: w.EngineVersion,
		SchemaVersion: w.SchemaVersion,
		Magic:         cache.SemanticMagic,
		Ext:           ".ssem",
		Compress:      true,
		L1MaxEntries:  int(w.L1MaxEntries),
		L1MaxBytes:    w.L1MaxBytes,
	}, cache.SemanticCodec{})
	if err != nil {
		return nil, nil, fmt.Errorf("open semantic cache: %w", err)
	}

	return structuralCache, semanticCache, nil
}

// buildLock constructs the LockPort named by cfg.LockBackend.
func buildLock(cfg *config.Config) (lockport.LockPort, error) {
	switch cfg.LockBackend {
	case config.LockBackendNoOp, "":
		return lockport.NoOpLock{}, nil
	case config.LockBackendFile:
		return lockport.NewFileLock(filepath.Join(cfg.CacheRoot, "locks")), nil
	case config.LockBackendRedis:
		return nil, fmt.Errorf("lock backend %q requires a *redis.Client; wire it in a deployment-specific main", cfg.LockBackend)
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.LockBackend)
	}
}

// openMetadataStore opens the snapshot registry if cfg.MetadataDSN is set.
// A nil Store is a valid return: commands fall back to the local cache
// alone when no external registry is configured.
func openMetadataStore(ctx context.Context, cfg *config.Config) (metadata.Store, error) {
	if cfg.MetadataDSN == "" {
		return nil, nil
	}
	store, err := metadata.Open(ctx, cfg.MetadataDSN)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	return store, nil
}
