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
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/codegraph-dev/codegraph/internal/tui"
	"github.com/codegraph-dev/codegraph/pkg/pipeline"
)

const watchDebounce = 2 * time.Second

func runWatch(_ []string, configPath string, globals GlobalFlags) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("watch: getwd: %w", err)
	}

	cfg, err := loadProjectConfig(configPath, filepath.Base(cwd))
	if err != nil {
		return err
	}

	structuralCache, semanticCache, err := buildCaches(cfg)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	watchCount := 0
	err = filepath.Walk(cwd, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(p)
		if skipDirs[base] || (strings.HasPrefix(base, ".") && base != filepath.Base(cwd)) {
			return filepath.SkipDir
		}
		if addErr := watcher.Add(p); addErr == nil {
			watchCount++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk: %w", err)
	}

	var program *tea.Program
	model := tui.New(cwd)
	if !globals.Quiet && !globals.JSON {
		program = tea.NewProgram(model)
	} else {
		logInfo(globals, "watching %d directories under %s", watchCount, cwd)
	}

	var mu sync.Mutex
	building := false

	rebuild := func() {
		mu.Lock()
		if building {
			mu.Unlock()
			return
		}
		building = true
		mu.Unlock()

		start := time.Now()
		var progress pipeline.ProgressCallback
		if program != nil {
			progress = tui.NewProgressCallback(program)
		}

		p := pipeline.New(slog.Default(), nil, nil)
		files, walkErr := discoverSourceFiles(cwd)
		var runErr error
		if walkErr != nil {
			runErr = walkErr
		} else {
			_, runErr = p.Run(context.Background(), files, pipeline.Config{
				Concurrency:     cfg.ParallelWorkers,
				Tier:            cfg.Whitelisted.SemanticTier,
				RepoRev:         gitCommit(cwd),
				BuilderVersion:  version,
				OnProgress:      progress,
				StructuralCache: structuralCache,
				SemanticCache:   semanticCache,
			})
		}

		if program != nil {
			program.Send(tui.BuildDoneMsg{RepoPath: cwd, Duration: time.Since(start), Err: runErr})
		} else if runErr != nil {
			logError(globals, "rebuild failed: %v", runErr)
		} else {
			logInfo(globals, "rebuild ok (%s)", time.Since(start).Round(time.Millisecond))
		}

		mu.Lock()
		building = false
		mu.Unlock()
	}

	go watchLoop(watcher, rebuild, program)

	if program != nil {
		_, err := program.Run()
		return err
	}

	// Headless mode: block until interrupted.
	select {}
}

func watchLoop(watcher *fsnotify.Watcher, rebuild func(), program *tea.Program) {
	var debounceTimer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if program != nil {
				program.Send(tui.FileEventMsg{Path: event.Name})
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(watchDebounce)
			timerCh = debounceTimer.C
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		case <-timerCh:
			timerCh = nil
			go rebuild()
		}
	}
}
