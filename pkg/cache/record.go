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

import (
	"encoding/binary"
	"fmt"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

// recordHeaderSize is the fixed 26-byte header: 4 magic + 2 schema version
// + 4 payload length + 16 checksum.
const recordHeaderSize = 4 + 2 + 4 + 16

// compressedFlagBit marks a record whose payload went through zstd
// before checksumming; it is folded into byte 3 of the magic so the header
// stays exactly 26 bytes and older readers that only check bytes 0-2 still
// recognize the namespace.
const compressedFlagBit byte = 0x80

// encodeRecord builds the on-disk byte layout for one namespace record
// (spec §4.1): magic (namespace tag with the compressed-flag bit folded
// into its last byte), big-endian schema version, big-endian payload
// length, 128-bit checksum, then payload.
func encodeRecord(magic [4]byte, schemaVersion uint16, payload []byte, compressed bool) []byte {
	m := magic
	if compressed {
		m[3] |= compressedFlagBit
	}
	checksum := ir.HashBytes(payload)

	buf := make([]byte, recordHeaderSize+len(payload))
	copy(buf[0:4], m[:])
	binary.BigEndian.PutUint16(buf[4:6], schemaVersion)
	binary.BigEndian.PutUint32(buf[6:10], uint32(len(payload)))
	copy(buf[10:26], checksum[:])
	copy(buf[26:], payload)
	return buf
}

type decodedRecord struct {
	compressed    bool
	schemaVersion uint16
	payload       []byte
}

// decodeRecord validates framing and checksum, returning ErrCorrupt or
// ErrSchemaMismatch on the conditions spec §4.1's read path names.
func decodeRecord(wantMagic [4]byte, wantSchemaVersion uint16, raw []byte) (decodedRecord, error) {
	if len(raw) < recordHeaderSize {
		return decodedRecord{}, fmt.Errorf("%w: short header (%d bytes)", ErrCorrupt, len(raw))
	}

	var gotMagic [4]byte
	copy(gotMagic[:], raw[0:4])
	compressed := gotMagic[3]&compressedFlagBit != 0
	gotMagic[3] &^= compressedFlagBit
	wm := wantMagic
	wm[3] &^= compressedFlagBit
	if gotMagic != wm {
		return decodedRecord{}, fmt.Errorf("%w: magic mismatch", ErrCorrupt)
	}

	schemaVersion := binary.BigEndian.Uint16(raw[4:6])
	if schemaVersion != wantSchemaVersion {
		return decodedRecord{}, fmt.Errorf("%w: got %d want %d", ErrSchemaMismatch, schemaVersion, wantSchemaVersion)
	}

	payloadLen := binary.BigEndian.Uint32(raw[6:10])
	if recordHeaderSize+int(payloadLen) != len(raw) {
		return decodedRecord{}, fmt.Errorf("%w: payload length mismatch", ErrCorrupt)
	}

	var wantChecksum ir.Hash128
	copy(wantChecksum[:], raw[10:26])
	payload := raw[26:]
	if ir.HashBytes(payload) != wantChecksum {
		return decodedRecord{}, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	return decodedRecord{compressed: compressed, schemaVersion: schemaVersion, payload: payload}, nil
}
