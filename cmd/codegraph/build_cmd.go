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
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/codegraph-dev/codegraph/internal/ui"
	"github.com/codegraph-dev/codegraph/pkg/graphdoc"
	"github.com/codegraph-dev/codegraph/pkg/incremental"
	"github.com/codegraph-dev/codegraph/pkg/ir"
	"github.com/codegraph-dev/codegraph/pkg/metadata"
	"github.com/codegraph-dev/codegraph/pkg/pipeline"
)

type buildFlags struct {
	full bool
}

// fileMetaSidecar is the on-disk record of the last build's per-file
// FileMetadata, keyed by repo-relative path, so the next `build` can run
// incremental.DetectChanges against it without a database. It is local
// cache state, never part of provenance or the snapshot registry.
type fileMetaSidecar struct {
	Files map[ir.FileId]incremental.FileMetadata `json:"files"`
}

func fileMetaSidecarPath(cacheRoot string) string {
	return filepath.Join(cacheRoot, "file-metadata.json")
}

func loadFileMetaSidecar(cacheRoot string) map[ir.FileId]incremental.FileMetadata {
	data, err := os.ReadFile(fileMetaSidecarPath(cacheRoot))
	if err != nil {
		return map[ir.FileId]incremental.FileMetadata{}
	}
	var s fileMetaSidecar
	if err := json.Unmarshal(data, &s); err != nil || s.Files == nil {
		return map[ir.FileId]incremental.FileMetadata{}
	}
	return s.Files
}

func saveFileMetaSidecar(cacheRoot string, files map[ir.FileId]incremental.FileMetadata) error {
	s := fileMetaSidecar{Files: files}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cacheRoot, 0o750); err != nil {
		return err
	}
	return os.WriteFile(fileMetaSidecarPath(cacheRoot), data, 0o600)
}

// graphSidecarPath is the prior build's packed GraphDocument, kept alongside
// the file-metadata sidecar so the next `build` has a prior graph to run
// build_incremental against without needing a database.
func graphSidecarPath(cacheRoot string) string {
	return filepath.Join(cacheRoot, "graph.msgpack")
}

func loadGraphSidecar(cacheRoot string) *graphdoc.GraphDocument {
	data, err := os.ReadFile(graphSidecarPath(cacheRoot))
	if err != nil {
		return nil
	}
	g, err := graphdoc.Unpack(data)
	if err != nil {
		return nil
	}
	return g
}

func saveGraphSidecar(cacheRoot string, g *graphdoc.GraphDocument) error {
	packed, err := g.Pack()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cacheRoot, 0o750); err != nil {
		return err
	}
	return os.WriteFile(graphSidecarPath(cacheRoot), packed, 0o600)
}

func runBuild(args []string, configPath string, globals GlobalFlags) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	var f buildFlags
	fs.BoolVar(&f.full, "full", false, "Force a full rebuild, bypassing change detection")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("build: getwd: %w", err)
	}

	cfg, err := loadProjectConfig(configPath, filepath.Base(cwd))
	if err != nil {
		return err
	}

	lock, err := buildLock(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	token, err := lock.TryLock(ctx, cfg.ProjectID, 10*time.Minute)
	if err != nil {
		return fmt.Errorf("build: acquire lock: %w", err)
	}
	defer lock.Unlock(ctx, cfg.ProjectID, token) //nolint:errcheck

	structuralCache, semanticCache, err := buildCaches(cfg)
	if err != nil {
		return err
	}

	allFiles, err := discoverSourceFiles(cwd)
	if err != nil {
		return err
	}

	// Content-addressed caching (pkg/cache) already makes an unaffected
	// file's structural and semantic IR a cache hit keyed by content hash,
	// so handing the pipeline every file is never wasted work. What the
	// prior build's graph sidecar buys on top of that is the real
	// build_incremental path below: scope expansion and impact reporting
	// over the reverse dependency graph, and the stale-then-revalidated
	// edge transition, rather than a plain re-run.
	prior := loadFileMetaSidecar(cfg.CacheRoot)
	priorGraph := loadGraphSidecar(cfg.CacheRoot)
	files := allFiles

	logger := slog.Default()
	if globals.Verbose >= 2 {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	p := pipeline.New(logger, nil, nil)

	var progress pipeline.ProgressCallback
	if !globals.Quiet {
		progress = func(current, total int64, phase pipeline.ProgressPhase) {
			logInfo(globals, "%s: %d/%d", phase, current, total)
		}
	}

	pcfg := pipeline.Config{
		Concurrency:     cfg.ParallelWorkers,
		Tier:            cfg.Whitelisted.SemanticTier,
		RepoRev:         gitCommit(cwd),
		BuilderVersion:  version,
		DFGLocThreshold: int(cfg.Whitelisted.DFGFunctionLOCThreshold),
		ConfigOptions:   cfg.Whitelisted.ToHashMap(),
		OnProgress:      progress,
		StructuralCache: structuralCache,
		SemanticCache:   semanticCache,
	}

	var snapshot *pipeline.Snapshot
	useIncremental := !f.full && len(prior) > 0 && priorGraph != nil
	if useIncremental {
		changes, derr := detectChanges(cwd, allFiles, prior)
		if derr != nil {
			return derr
		}
		if changes.HasChanges() {
			logInfo(globals, "incremental build: %d/%d files changed since last build", len(changes.All()), len(allFiles))
			result, rerr := p.RunIncremental(ctx, &pipeline.Snapshot{Graph: priorGraph}, changes, files, pipeline.IncrementalOptions{
				Config:      pcfg,
				ScopePolicy: incremental.ScopeBalanced,
			})
			if rerr != nil {
				return fmt.Errorf("build: %w", rerr)
			}
			snapshot = result.Snapshot
			logInfo(globals, "reindex scope: %d files (impact: %d direct, %d transitive)",
				len(result.Scope), len(result.Impact.Direct), len(result.Impact.Transitive))
		} else {
			logInfo(globals, "incremental build: no changes since last build")
		}
	} else {
		logInfo(globals, "full build: %d files", len(files))
	}

	if snapshot == nil {
		snapshot, err = p.Run(ctx, files, pcfg)
		if err != nil {
			return fmt.Errorf("build: %w", err)
		}
	}

	if err := saveGraphSidecar(cfg.CacheRoot, snapshot.Graph); err != nil {
		logError(globals, "save graph sidecar: %v", err)
	}

	newMeta := make(map[ir.FileId]incremental.FileMetadata, len(allFiles))
	for _, sf := range allFiles {
		info, statErr := os.Stat(filepath.Join(cwd, string(sf.ID)))
		if statErr != nil {
			continue
		}
		newMeta[sf.ID] = incremental.FileMetadata{
			Path:        sf.ID,
			ModUnixNano: info.ModTime().UnixNano(),
			Size:        info.Size(),
			ContentHash: ir.HashBytes(sf.Content),
		}
	}
	if err := saveFileMetaSidecar(cfg.CacheRoot, newMeta); err != nil {
		logError(globals, "save file metadata sidecar: %v", err)
	}

	store, err := openMetadataStore(ctx, cfg)
	if err != nil {
		logError(globals, "%v", err)
	}
	if store != nil {
		defer store.Close() //nolint:errcheck
		provBytes, _ := json.Marshal(snapshot.Provenance)
		rec := metadata.SnapshotRecord{
			RepoID:     cfg.ProjectID,
			SnapshotID: snapshot.Provenance.RunID,
			GitCommit:  gitCommit(cwd),
			IndexedAt:  time.Now(),
			Status:     "complete",
			DurationMS: 0,
			Provenance: provBytes,
		}
		if err := store.Insert(ctx, rec); err != nil {
			logError(globals, "record snapshot: %v", err)
		}
	}

	if globals.JSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"run_id":     snapshot.Provenance.RunID,
			"tier":       snapshot.Tier.String(),
			"nodes":      len(snapshot.Graph.Nodes()),
			"edges":      len(snapshot.Graph.Edges()),
			"faults":     len(snapshot.Faults),
			"stubs":      len(snapshot.Stubs),
			"git_commit": gitCommit(cwd),
		})
	}

	ui.Header("Build complete")
	fmt.Printf("%s %s\n", ui.Label("run id:"), snapshot.Provenance.RunID)
	fmt.Printf("%s %s\n", ui.Label("nodes:"), ui.CountText(len(snapshot.Graph.Nodes())))
	fmt.Printf("%s %s\n", ui.Label("edges:"), ui.CountText(len(snapshot.Graph.Edges())))
	if len(snapshot.Faults) > 0 {
		ui.Warning(fmt.Sprintf("%d build faults (see --verbose)", len(snapshot.Faults)))
	}
	return nil
}

// detectChanges runs incremental.DetectChanges against the prior sidecar,
// feeding RunIncremental's ChangeSet argument.
func detectChanges(root string, allFiles []pipeline.SourceFile, prior map[ir.FileId]incremental.FileMetadata) (incremental.ChangeSet, error) {
	repoPaths := make([]incremental.RepoPath, 0, len(allFiles))
	for _, sf := range allFiles {
		repoPaths = append(repoPaths, incremental.RepoPath{FileID: sf.ID, FullPath: filepath.Join(root, string(sf.ID))})
	}

	changes, err := incremental.DetectChanges(prior, repoPaths)
	if err != nil {
		return incremental.ChangeSet{}, fmt.Errorf("detect changes: %w", err)
	}
	return changes, nil
}
