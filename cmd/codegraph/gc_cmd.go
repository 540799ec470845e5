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

	"github.com/codegraph-dev/codegraph/internal/ui"
	"github.com/codegraph-dev/codegraph/pkg/incremental"
	"github.com/codegraph-dev/codegraph/pkg/ir"
	"github.com/codegraph-dev/codegraph/pkg/metadata"
)

func runGC(_ []string, configPath string, globals GlobalFlags) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("gc: getwd: %w", err)
	}

	cfg, err := loadProjectConfig(configPath, filepath.Base(cwd))
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openMetadataStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("gc: no metadata_dsn configured; nothing to sweep")
	}
	defer store.Close() //nolint:errcheck

	structuralCache, semanticCache, err := buildCaches(cfg)
	if err != nil {
		return err
	}

	caches := map[string]incremental.CacheInvalidator{
		"structural": structuralCache,
		"semantic":   semanticCache,
	}

	// keysOf has no per-snapshot content-hash ledger to draw on — the
	// registry records a provenance fingerprint, not the file hash list
	// that produced it — so cache invalidation below is a no-op; the
	// caches' own L1/L2 size-bounded eviction is what actually reclaims
	// space from stale entries. See DESIGN.md for this tradeoff.
	keysOf := func(metadata.SnapshotRecord) ([]ir.Hash128, error) { return nil, nil }

	gc := incremental.NewGC(store, caches, keysOf, slog.Default())
	n, err := gc.Sweep(ctx, cfg.ProjectID, cfg.GCPolicy, time.Now())
	if err != nil {
		return fmt.Errorf("gc: %w", err)
	}

	if globals.JSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{"deleted": n})
	}
	ui.Success(fmt.Sprintf("Swept %d snapshot(s)", n))
	return nil
}
