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

// Package config loads and persists the one immutable configuration value
// passed per build. It follows the same three-layer precedence as the
// teacher's own config loader: DefaultConfig(), then a project YAML file,
// then environment variable overrides, applied in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v3"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

const (
	defaultConfigDir  = ".codegraph"
	defaultConfigFile = "project.yaml"
	configVersion     = "1"
)

// Config is the .codegraph/project.yaml project configuration. The fields
// under Whitelisted are exactly spec.md §6.1's recognized options, the
// only ones permitted to affect ConfigHash; everything else is ambient
// (lock backend, metadata DSN, GC policy, worker sizing) and never does.
type Config struct {
	Version   string         `yaml:"version"`
	ProjectID string         `yaml:"project_id"`
	CacheRoot string         `yaml:"cache_root"`

	Whitelisted WhitelistedOptions `yaml:"build"`

	LockBackend LockBackend `yaml:"lock_backend"`
	MetadataDSN string      `yaml:"metadata_dsn"`
	GCPolicy    GCPolicy    `yaml:"gc_policy"`
	WatchTUI    bool        `yaml:"watch_tui"`

	ParallelWorkers int `yaml:"parallel_workers"`
	UseGitDelta     bool `yaml:"use_git_delta"`
}

// WhitelistedOptions is spec.md §6.1's recognized-option table, verbatim.
// ir.HashConfig is computed over exactly these fields (via ToHashMap) — add
// a field here only if it belongs in ConfigHash.
type WhitelistedOptions struct {
	SemanticTier            ir.Tier `yaml:"-"`
	SemanticTierName        string  `yaml:"semantic_tier"`
	CFG                     bool    `yaml:"cfg"`
	DFG                     bool    `yaml:"dfg"`
	SSA                     bool    `yaml:"ssa"`
	Expressions             bool    `yaml:"expressions"`
	DFGFunctionLOCThreshold uint32  `yaml:"dfg_function_loc_threshold"`
	EnableThreeTierCache    bool    `yaml:"enable_three_tier_cache"`
	L0MaxFiles              uint32  `yaml:"l0_max_files"`
	L1MaxBytesHuman         string  `yaml:"l1_max_bytes_human"`
	L1MaxBytes              int64   `yaml:"-"`
	L1MaxEntries            uint32  `yaml:"l1_max_entries"`
	EngineVersion           string  `yaml:"engine_version"`
	SchemaVersion           uint16  `yaml:"schema_version"`
}

// ToHashMap renders the whitelisted options as the string map
// ir.HashConfig expects, so ConfigHash only ever sees spec-sanctioned
// fields.
func (w WhitelistedOptions) ToHashMap() map[string]string {
	return map[string]string{
		"semantic_tier":              w.SemanticTier.String(),
		"cfg":                        fmt.Sprintf("%t", w.CFG),
		"dfg":                        fmt.Sprintf("%t", w.DFG),
		"ssa":                        fmt.Sprintf("%t", w.SSA),
		"expressions":                fmt.Sprintf("%t", w.Expressions),
		"dfg_function_loc_threshold": fmt.Sprintf("%d", w.DFGFunctionLOCThreshold),
		"enable_three_tier_cache":    fmt.Sprintf("%t", w.EnableThreeTierCache),
		"l0_max_files":               fmt.Sprintf("%d", w.L0MaxFiles),
		"l1_max_bytes":               fmt.Sprintf("%d", w.L1MaxBytes),
		"l1_max_entries":             fmt.Sprintf("%d", w.L1MaxEntries),
		"engine_version":             w.EngineVersion,
		"schema_version":             fmt.Sprintf("%d", w.SchemaVersion),
	}
}

// ConfigHash computes spec.md §2's 64-bit whitelisted-option hash.
func (w WhitelistedOptions) ConfigHash() ir.Hash64 {
	return ir.HashConfig(w.ToHashMap())
}

// LockBackend selects pkg/lockport's implementation.
type LockBackend string

const (
	LockBackendNoOp  LockBackend = "noop"
	LockBackendFile  LockBackend = "file"
	LockBackendRedis LockBackend = "redis"
)

// GCPolicy is pkg/incremental's snapshot retention policy.
type GCPolicy struct {
	KeepLatestCount int           `yaml:"keep_latest_count"`
	KeepDays        int           `yaml:"keep_days"`
	KeepTagged      bool          `yaml:"keep_tagged"`
	Interval        time.Duration `yaml:"interval"`
}

// DefaultConfig returns a config with sensible defaults for local
// development, mirroring the teacher's DefaultConfig(projectID) shape.
func DefaultConfig(projectID string) *Config {
	return &Config{
		Version:   configVersion,
		ProjectID: projectID,
		CacheRoot: getEnv("CODEGRAPH_CACHE_ROOT", filepath.Join(".codegraph", "cache")),
		Whitelisted: WhitelistedOptions{
			SemanticTier:            ir.TierExtended,
			SemanticTierName:        "EXTENDED",
			CFG:                     true,
			DFG:                     true,
			SSA:                     false,
			Expressions:             true,
			DFGFunctionLOCThreshold: 400,
			EnableThreeTierCache:    true,
			L0MaxFiles:              256,
			L1MaxBytesHuman:         "512MB",
			L1MaxBytes:              512 * int64(datasize.MB),
			L1MaxEntries:            4096,
			EngineVersion:           "1",
			SchemaVersion:           1,
		},
		LockBackend: LockBackendNoOp,
		GCPolicy: GCPolicy{
			KeepLatestCount: 10,
			KeepDays:        30,
			KeepTagged:      true,
			Interval:        time.Hour,
		},
		ParallelWorkers: 4,
		UseGitDelta:     true,
	}
}

// LoadConfig loads configuration from configPath, or auto-discovers
// .codegraph/project.yaml in the current or a parent directory when
// configPath is empty. Environment variables are then applied on top.
func LoadConfig(configPath, projectID string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv("CODEGRAPH_CONFIG_PATH")
	}
	if configPath == "" {
		var err error
		configPath, err = findConfigFile()
		if err != nil {
			cfg := DefaultConfig(projectID)
			cfg.applyEnvOverrides()
			return cfg, nil
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", configPath, err)
	}

	cfg := DefaultConfig(projectID)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", configPath, err)
	}
	if cfg.Version != configVersion {
		return nil, fmt.Errorf("config: unsupported version %q (expected %q)", cfg.Version, configVersion)
	}

	if err := cfg.resolveHumanSizes(); err != nil {
		return nil, err
	}
	cfg.Whitelisted.SemanticTier = ir.ParseTier(cfg.Whitelisted.SemanticTierName)
	cfg.applyEnvOverrides()

	return cfg, nil
}

// resolveHumanSizes parses L1MaxBytesHuman (e.g. "512MB") into the byte
// count the cache layer actually consumes.
func (c *Config) resolveHumanSizes() error {
	if c.Whitelisted.L1MaxBytesHuman == "" {
		return nil
	}
	var v datasize.ByteSize
	if err := v.UnmarshalText([]byte(c.Whitelisted.L1MaxBytesHuman)); err != nil {
		return fmt.Errorf("config: parse l1_max_bytes_human %q: %w", c.Whitelisted.L1MaxBytesHuman, err)
	}
	c.Whitelisted.L1MaxBytes = int64(v.Bytes())
	return nil
}

// SaveConfig writes cfg to configPath as YAML, creating the parent
// directory if needed.
func SaveConfig(cfg *Config, configPath string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", configPath, err)
	}
	return nil
}

// ConfigPath returns <dir>/.codegraph/project.yaml.
func ConfigPath(dir string) string {
	return filepath.Join(dir, defaultConfigDir, defaultConfigFile)
}

func findConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("config: getwd: %w", err)
	}
	for {
		p := ConfigPath(dir)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("config: no %s/%s found", defaultConfigDir, defaultConfigFile)
}

// applyEnvOverrides applies LOCK_BACKEND, METADATA_DSN,
// GC_KEEP_LATEST_COUNT, GC_KEEP_DAYS and CODEGRAPH_CACHE_ROOT. It reads no
// other variable: CACHE_ROOT, ENGINE_VERSION, SCHEMA_VERSION,
// PARALLEL_WORKERS, ENABLE_THREE_TIER_CACHE and L1_MAX_BYTES have no effect.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LOCK_BACKEND"); v != "" {
		c.LockBackend = LockBackend(v)
	}
	if v := os.Getenv("METADATA_DSN"); v != "" {
		c.MetadataDSN = v
	}
	if v := os.Getenv("GC_KEEP_LATEST_COUNT"); v != "" {
		if n, err := parseInt(v); err == nil {
			c.GCPolicy.KeepLatestCount = n
		}
	}
	if v := os.Getenv("GC_KEEP_DAYS"); v != "" {
		if n, err := parseInt(v); err == nil {
			c.GCPolicy.KeepDays = n
		}
	}
	if v := os.Getenv("CODEGRAPH_CACHE_ROOT"); v != "" {
		c.CacheRoot = v
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
