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
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Pack produces the canonical packed byte form of s: nodes and edges sorted
// (Canonicalize is idempotent and called defensively), encoded as
// MessagePack arrays rather than maps so the wire form carries no field
// names (spec §4.1, §9 — "pickle-style serialization is forbidden").
// The result is cached on s.PackedBytes.
func (s *StructuralIR) Pack() ([]byte, error) {
	if s.PackedBytes != nil {
		return s.PackedBytes, nil
	}
	s.Canonicalize()

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseArrayEncodedStructs(true)
	if err := enc.Encode(packedStructuralIR(*s)); err != nil {
		return nil, fmt.Errorf("ir: pack structural IR for %s: %w", s.FileID, err)
	}
	s.PackedBytes = buf.Bytes()
	return s.PackedBytes, nil
}

// Digest computes the StructuralDigest in O(1) when PackedBytes is already
// populated, else packs first (spec §3.2).
func (s *StructuralIR) Digest() (StructuralDigest, error) {
	packed, err := s.Pack()
	if err != nil {
		return StructuralDigest{}, err
	}
	return HashBytes(packed), nil
}

// UnpackStructuralIR is the inverse of Pack, used by pkg/cache to
// rehydrate an L2 record payload.
func UnpackStructuralIR(b []byte) (StructuralIR, error) {
	var packed packedStructuralIR
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.UseArrayEncodedStructs(true)
	if err := dec.Decode(&packed); err != nil {
		return StructuralIR{}, fmt.Errorf("ir: unpack structural IR: %w", err)
	}
	out := StructuralIR(packed)
	out.PackedBytes = b
	return out, nil
}

// packedStructuralIR is a field-for-field alias of StructuralIR. Aliasing
// rather than embedding lets msgpack's array-struct encoder walk the type
// without ever touching the cached PackedBytes slice itself (which would
// otherwise be encoded as a nested array of bytes).
type packedStructuralIR struct {
	FileID      FileId
	ContentHash ContentHash
	Language    string
	Nodes       []Node
	Edges       []Edge
	PackedBytes []byte `msgpack:"-"`
}

// Pack produces the canonical packed byte form of s, functions sorted by id
// (spec §4.2 deterministic merge). Cached on s.PackedBytes.
func (s *SemanticIR) Pack() ([]byte, error) {
	if s.PackedBytes != nil {
		return s.PackedBytes, nil
	}
	s.Canonicalize()

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseArrayEncodedStructs(true)
	if err := enc.Encode(packedSemanticIR(*s)); err != nil {
		return nil, fmt.Errorf("ir: pack semantic IR for %s: %w", s.FileID, err)
	}
	s.PackedBytes = buf.Bytes()
	return s.PackedBytes, nil
}

// Digest computes a StructuralDigest-shaped hash over the semantic IR's
// canonical encoding, used as the semantic half of cache invalidation
// checks in pkg/cache.
func (s *SemanticIR) Digest() (Hash128, error) {
	packed, err := s.Pack()
	if err != nil {
		return Hash128{}, err
	}
	return HashBytes(packed), nil
}

// UnpackSemanticIR is the inverse of (*SemanticIR).Pack.
func UnpackSemanticIR(b []byte) (SemanticIR, error) {
	var packed packedSemanticIR
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.UseArrayEncodedStructs(true)
	if err := dec.Decode(&packed); err != nil {
		return SemanticIR{}, fmt.Errorf("ir: unpack semantic IR: %w", err)
	}
	out := SemanticIR(packed)
	out.PackedBytes = b
	return out, nil
}

type packedSemanticIR struct {
	FileID      FileId
	Tier        Tier
	Functions   []FunctionSemanticIR
	PackedBytes []byte `msgpack:"-"`
}
