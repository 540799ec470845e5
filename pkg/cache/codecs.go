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

package cache

import "github.com/codegraph-dev/codegraph/pkg/ir"

// StructuralMagic tags Structural IR L2 records ("SSTR").
var StructuralMagic = [4]byte{'S', 'S', 'T', 'R'}

// SemanticMagic tags Semantic IR L2 records ("SSEM" — spec §4.1 example).
var SemanticMagic = [4]byte{'S', 'S', 'E', 'M'}

// StructuralCodec adapts ir.StructuralIR's Pack/Unpack to the cache.Codec
// contract.
type StructuralCodec struct{}

func (StructuralCodec) Pack(v ir.StructuralIR) ([]byte, error) { return v.Pack() }
func (StructuralCodec) Unpack(b []byte) (ir.StructuralIR, error) {
	return ir.UnpackStructuralIR(b)
}
func (StructuralCodec) EstimatedSize(v ir.StructuralIR) int64 {
	return int64(len(v.PackedBytes)) + int64(len(v.Nodes)+len(v.Edges))*64
}

// SemanticCodec adapts ir.SemanticIR's Pack/Unpack to the cache.Codec
// contract.
type SemanticCodec struct{}

func (SemanticCodec) Pack(v ir.SemanticIR) ([]byte, error) { return v.Pack() }
func (SemanticCodec) Unpack(b []byte) (ir.SemanticIR, error) {
	return ir.UnpackSemanticIR(b)
}
func (SemanticCodec) EstimatedSize(v ir.SemanticIR) int64 {
	return int64(len(v.PackedBytes)) + int64(len(v.Functions))*256
}
