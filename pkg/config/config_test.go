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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

func TestDefaultConfig_ResolvesHumanByteSize(t *testing.T) {
	cfg := DefaultConfig("demo")
	require.Equal(t, int64(512*1024*1024), cfg.Whitelisted.L1MaxBytes)
}

func TestSaveAndLoadConfig_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".codegraph", "project.yaml")

	cfg := DefaultConfig("demo")
	cfg.Whitelisted.SemanticTierName = "FULL"
	cfg.Whitelisted.L1MaxBytesHuman = "1GB"

	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path, "demo")
	require.NoError(t, err)
	require.Equal(t, ir.TierFull, loaded.Whitelisted.SemanticTier)
	require.Equal(t, int64(1024*1024*1024), loaded.Whitelisted.L1MaxBytes)
}

func TestLoadConfig_EnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".codegraph", "project.yaml")
	require.NoError(t, SaveConfig(DefaultConfig("demo"), path))

	t.Setenv("LOCK_BACKEND", "redis")
	t.Setenv("GC_KEEP_LATEST_COUNT", "99")

	cfg, err := LoadConfig(path, "demo")
	require.NoError(t, err)
	require.Equal(t, LockBackendRedis, cfg.LockBackend)
	require.Equal(t, 99, cfg.GCPolicy.KeepLatestCount)
}

func TestLoadConfig_MissingFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := LoadConfig("", "demo")
	require.NoError(t, err)
	require.Equal(t, "demo", cfg.ProjectID)
}

func TestWhitelistedOptions_ConfigHashStableAcrossNonWhitelistedChanges(t *testing.T) {
	a := DefaultConfig("demo")
	b := DefaultConfig("demo")
	b.WatchTUI = true
	b.MetadataDSN = "postgres://x"
	b.GCPolicy.KeepDays = 1

	require.Equal(t, a.Whitelisted.ConfigHash(), b.Whitelisted.ConfigHash())

	b.Whitelisted.SemanticTierName = "FULL"
	b.Whitelisted.SemanticTier = ir.TierFull
	require.NotEqual(t, a.Whitelisted.ConfigHash(), b.Whitelisted.ConfigHash())
}
