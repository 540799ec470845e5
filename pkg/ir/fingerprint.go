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

package ir

import (
	"encoding/binary"
	"encoding/hex"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Hash128 is a 128-bit non-cryptographic digest. It identifies content or
// structure, never authenticates it.
type Hash128 [16]byte

// Hash64 is a 64-bit non-cryptographic digest, used for ConfigHash.
type Hash64 uint64

func (h Hash128) String() string { return hex.EncodeToString(h[:]) }

func (h Hash128) IsZero() bool { return h == Hash128{} }

// ContentHash identifies a file's raw bytes, independent of path.
type ContentHash = Hash128

// StructuralDigest identifies the canonical byte layout of a StructuralIR,
// independent of source formatting the parser already normalizes.
type StructuralDigest = Hash128

// ConfigHash identifies the whitelisted subset of build options that affect
// IR shape (see pkg/config).
type ConfigHash = Hash64

// HashBytes computes a 128-bit digest of b using two independently seeded
// xxhash passes. cespare/xxhash/v2 exposes only an unseeded Sum64, so the
// second lane is produced by hashing b with a fixed salt prefix rather than
// a keyed variant — sufficient for a non-cryptographic structural digest.
func HashBytes(b []byte) Hash128 {
	lo := xxhash.Sum64(b)
	salted := make([]byte, len(b)+8)
	binary.LittleEndian.PutUint64(salted, 0x9E3779B97F4A7C15)
	copy(salted[8:], b)
	hi := xxhash.Sum64(salted)

	var out Hash128
	binary.BigEndian.PutUint64(out[:8], lo)
	binary.BigEndian.PutUint64(out[8:], hi)
	return out
}

// HashConcat computes HashBytes over the concatenation of parts without an
// intermediate allocation per part.
func HashConcat(parts ...[]byte) Hash128 {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	buf := make([]byte, 0, n)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return HashBytes(buf)
}

// HashConfig computes a 64-bit digest of a whitelisted, sorted key/value
// option set. Callers must pre-filter to the whitelist (see pkg/config);
// this function never inspects keys itself, so it cannot silently widen the
// set of options that affect the hash.
func HashConfig(options map[string]string) Hash64 {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := make([]byte, 0, 256)
	for _, k := range keys {
		buf = append(buf, k...)
		buf = append(buf, '=')
		buf = append(buf, options[k]...)
		buf = append(buf, ';')
	}
	return Hash64(xxhash.Sum64(buf))
}

// SemanticCacheKey is hash128(ContentHash || StructuralDigest || ConfigHash).
// The file path is deliberately excluded: a rename or move without a content
// change must still hit the semantic cache (spec invariant: rename
// tolerance).
func SemanticCacheKey(content ContentHash, structural StructuralDigest, cfg ConfigHash) Hash128 {
	var cfgBytes [8]byte
	binary.BigEndian.PutUint64(cfgBytes[:], uint64(cfg))
	return HashConcat(content[:], structural[:], cfgBytes[:])
}
