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

// Package provenance attaches an immutable, four-fingerprint record to every
// build so that two builds can be declared deterministically equivalent by
// comparing fingerprints alone, never by re-diffing their outputs.
package provenance

import (
	"sort"

	"github.com/google/uuid"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

// BuildProvenance is attached to every snapshot. Two builds are
// deterministically equivalent iff all four fingerprints are equal; RunID is
// a human-correlatable identifier and deliberately excluded from that
// comparison.
type BuildProvenance struct {
	RunID string

	InputFingerprint      ir.Hash128
	BuilderVersion        ir.Hash128
	ConfigFingerprint     ir.Hash128
	DependencyFingerprint ir.Hash128
}

// Equivalent reports whether two provenance records describe
// deterministically equivalent builds: every fingerprint matches, RunID
// ignored.
func (p BuildProvenance) Equivalent(other BuildProvenance) bool {
	return p.InputFingerprint == other.InputFingerprint &&
		p.BuilderVersion == other.BuilderVersion &&
		p.ConfigFingerprint == other.ConfigFingerprint &&
		p.DependencyFingerprint == other.DependencyFingerprint
}

// NewRunID mints a time-ordered UUIDv7 RunID. UUIDv7 embeds a millisecond
// timestamp in its high bits, so RunIDs sort lexicographically by creation
// time without needing a side index — the same correlation property the
// teacher's generateRunID(startTime) buys via a truncated SHA256 of the
// start time, without tying the identifier's uniqueness to wall-clock
// resolution.
func NewRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// InputFingerprint computes hash(repo_rev ‖ sort(file_hashes)) (spec's
// build-provenance fingerprint composition): the file hashes are sorted
// first so the fingerprint is independent of the order files were walked
// in, matching every other deterministic-merge ordering rule in this
// codebase.
func InputFingerprint(repoRev string, fileHashes []ir.ContentHash) ir.Hash128 {
	sorted := make([]ir.ContentHash, len(fileHashes))
	copy(sorted, fileHashes)
	sort.Slice(sorted, func(i, j int) bool {
		return string(sorted[i][:]) < string(sorted[j][:])
	})

	parts := make([][]byte, 0, len(sorted)+1)
	parts = append(parts, []byte(repoRev))
	for _, h := range sorted {
		hCopy := h
		parts = append(parts, hCopy[:])
	}
	return ir.HashConcat(parts...)
}

// BuilderVersionFingerprint hashes an identifier for the builder
// binary/code (e.g. a module version + build-info VCS revision, supplied by
// the caller so this package stays free of runtime/debug coupling).
func BuilderVersionFingerprint(builderVersion string) ir.Hash128 {
	return ir.HashBytes([]byte(builderVersion))
}

// ConfigFingerprint hashes the whitelisted config subset pkg/config
// produces, reusing ir.HashConfig so a build's provenance and its semantic
// cache keys are computed from the exact same whitelist (spec's "whitelisted
// config" composition rule).
func ConfigFingerprint(whitelisted map[string]string) ir.Hash128 {
	h64 := ir.HashConfig(whitelisted)
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(h64 >> (8 * (7 - i)))
	}
	return ir.HashBytes(b[:])
}

// DependencyFingerprint hashes the sorted set of external
// type/resolver versions that influence semantic build output (e.g. the
// tree-sitter grammar version, stdlib type-stub table version). Callers
// supply the list; this package only guarantees order-independence.
func DependencyFingerprint(versions []string) ir.Hash128 {
	sorted := make([]string, len(versions))
	copy(sorted, versions)
	sort.Strings(sorted)

	parts := make([][]byte, 0, len(sorted))
	for _, v := range sorted {
		parts = append(parts, []byte(v))
	}
	return ir.HashConcat(parts...)
}
