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
	"log/slog"
	"os"
	"path/filepath"

	"github.com/codegraph-dev/codegraph/internal/ui"
	"github.com/codegraph-dev/codegraph/pkg/pipeline"
)

// runQuery rebuilds the current snapshot (a cache hit for every unchanged
// file) and exports its GraphDocument as Graphviz DOT. The positional
// argument is the output path, or "-" for stdout.
func runQuery(args []string, configPath string, globals GlobalFlags) error {
	out := "-"
	if len(args) > 0 {
		out = args[0]
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("query: getwd: %w", err)
	}

	cfg, err := loadProjectConfig(configPath, filepath.Base(cwd))
	if err != nil {
		return err
	}

	structuralCache, semanticCache, err := buildCaches(cfg)
	if err != nil {
		return err
	}

	files, err := discoverSourceFiles(cwd)
	if err != nil {
		return err
	}

	p := pipeline.New(slog.Default(), nil, nil)
	snapshot, err := p.Run(context.Background(), files, pipeline.Config{
		Concurrency:     cfg.ParallelWorkers,
		Tier:            cfg.Whitelisted.SemanticTier,
		RepoRev:         gitCommit(cwd),
		BuilderVersion:  version,
		StructuralCache: structuralCache,
		SemanticCache:   semanticCache,
	})
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	dot := snapshot.Graph.ExportDOT()

	if out == "-" {
		fmt.Println(dot)
		return nil
	}
	if err := os.WriteFile(out, []byte(dot), 0o600); err != nil {
		return fmt.Errorf("query: write %s: %w", out, err)
	}
	if !globals.Quiet {
		ui.Success(fmt.Sprintf("Wrote %s", out))
	}
	return nil
}
