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
	"testing"

	"github.com/stretchr/testify/require"
)

var testMagic = [4]byte{'T', 'E', 'S', 'T'}

func TestEncodeDecodeRecord_RoundTrip(t *testing.T) {
	payload := []byte("hello, structural ir")
	raw := encodeRecord(testMagic, 3, payload, false)

	dec, err := decodeRecord(testMagic, 3, raw)
	require.NoError(t, err)
	require.Equal(t, payload, dec.payload)
	require.False(t, dec.compressed)
}

func TestDecodeRecord_MagicMismatchIsCorrupt(t *testing.T) {
	raw := encodeRecord(testMagic, 1, []byte("x"), false)
	_, err := decodeRecord([4]byte{'O', 'T', 'H', 'R'}, 1, raw)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestDecodeRecord_SchemaMismatch(t *testing.T) {
	raw := encodeRecord(testMagic, 1, []byte("x"), false)
	_, err := decodeRecord(testMagic, 2, raw)
	require.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestDecodeRecord_ChecksumMismatchIsCorrupt(t *testing.T) {
	raw := encodeRecord(testMagic, 1, []byte("hello"), false)
	raw[len(raw)-1] ^= 0xFF // flip one payload byte (spec S6)
	_, err := decodeRecord(testMagic, 1, raw)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestDecodeRecord_ShortHeaderIsCorrupt(t *testing.T) {
	_, err := decodeRecord(testMagic, 1, []byte("short"))
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestEncodeRecord_CompressedFlagRoundTrips(t *testing.T) {
	raw := encodeRecord(testMagic, 1, []byte("payload"), true)
	dec, err := decodeRecord(testMagic, 1, raw)
	require.NoError(t, err)
	require.True(t, dec.compressed)
	require.Equal(t, []byte("payload"), dec.payload)
}
