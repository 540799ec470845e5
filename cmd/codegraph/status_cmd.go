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
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/codegraph-dev/codegraph/internal/ui"
)

// StatusResult is the JSON shape of `codegraph status --json`.
type StatusResult struct {
	ProjectID     string         `json:"project_id"`
	CacheRoot     string         `json:"cache_root"`
	FilesTracked  int            `json:"files_tracked"`
	Structural    map[string]any `json:"structural_cache"`
	Semantic      map[string]any `json:"semantic_cache"`
	LatestSnapshot *snapshotSummary `json:"latest_snapshot,omitempty"`
}

type snapshotSummary struct {
	SnapshotID string `json:"snapshot_id"`
	GitCommit  string `json:"git_commit"`
	Status     string `json:"status"`
	IndexedAt  string `json:"indexed_at"`
	Tagged     bool   `json:"tagged"`
}

func runStatus(args []string, configPath string, globals GlobalFlags) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	jsonOut := fs.Bool("json", globals.JSON, "Output in JSON format")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *jsonOut {
		globals.JSON = true
		globals.Quiet = true
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("status: getwd: %w", err)
	}

	cfg, err := loadProjectConfig(configPath, filepath.Base(cwd))
	if err != nil {
		return err
	}

	structuralCache, semanticCache, err := buildCaches(cfg)
	if err != nil {
		return err
	}

	sStats := structuralCache.Stats()
	mStats := semanticCache.Stats()

	result := StatusResult{
		ProjectID:    cfg.ProjectID,
		CacheRoot:    cfg.CacheRoot,
		FilesTracked: len(loadFileMetaSidecar(cfg.CacheRoot)),
		Structural:   statsToMap(sStats.L0Hits, sStats.L1Hits, sStats.L2Hits, sStats.Misses, sStats.Entries, sStats.Bytes),
		Semantic:     statsToMap(mStats.L0Hits, mStats.L1Hits, mStats.L2Hits, mStats.Misses, mStats.Entries, mStats.Bytes),
	}

	ctx := context.Background()
	store, err := openMetadataStore(ctx, cfg)
	if err != nil {
		logError(globals, "%v", err)
	}
	if store != nil {
		defer store.Close() //nolint:errcheck
		records, err := store.ListByRepo(ctx, cfg.ProjectID)
		if err != nil {
			logError(globals, "list snapshots: %v", err)
		} else if len(records) > 0 {
			latest := records[0] // ListByRepo orders indexed_at DESC
			result.LatestSnapshot = &snapshotSummary{
				SnapshotID: latest.SnapshotID,
				GitCommit:  latest.GitCommit,
				Status:     latest.Status,
				IndexedAt:  latest.IndexedAt.Format("2006-01-02T15:04:05Z07:00"),
				Tagged:     latest.Tagged,
			}
		}
	}

	if globals.JSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	ui.Header("codegraph status")
	fmt.Printf("%s %s\n", ui.Label("project:"), result.ProjectID)
	fmt.Printf("%s %s\n", ui.Label("cache root:"), ui.DimText(result.CacheRoot))
	fmt.Printf("%s %s\n", ui.Label("files tracked:"), ui.CountText(result.FilesTracked))

	ui.SubHeader("structural cache")
	printCacheStats(sStats.L0Hits, sStats.L1Hits, sStats.L2Hits, sStats.Misses, sStats.Entries, sStats.Bytes)
	ui.SubHeader("semantic cache")
	printCacheStats(mStats.L0Hits, mStats.L1Hits, mStats.L2Hits, mStats.Misses, mStats.Entries, mStats.Bytes)

	if result.LatestSnapshot != nil {
		ui.SubHeader("latest snapshot")
		fmt.Printf("%s %s\n", ui.Label("id:"), result.LatestSnapshot.SnapshotID)
		fmt.Printf("%s %s\n", ui.Label("commit:"), result.LatestSnapshot.GitCommit)
		fmt.Printf("%s %s\n", ui.Label("status:"), result.LatestSnapshot.Status)
	} else {
		ui.Info("no snapshot registry configured or no snapshots recorded yet")
	}
	return nil
}

func statsToMap(l0, l1, l2, misses, entries, bytes int64) map[string]any {
	return map[string]any{
		"l0_hits": l0, "l1_hits": l1, "l2_hits": l2,
		"misses": misses, "entries": entries, "bytes": bytes,
	}
}

func printCacheStats(l0, l1, l2, misses, entries, bytes int64) {
	fmt.Printf("  %s %s  %s %s  %s %s  %s %s\n",
		ui.Label("l0:"), ui.CountText(int(l0)),
		ui.Label("l1:"), ui.CountText(int(l1)),
		ui.Label("l2:"), ui.CountText(int(l2)),
		ui.Label("misses:"), ui.CountText(int(misses)))
	fmt.Printf("  %s %s  %s %s\n", ui.Label("entries:"), ui.CountText(int(entries)), ui.Label("bytes:"), ui.CountText(int(bytes)))
}
