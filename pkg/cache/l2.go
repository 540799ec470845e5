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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/klauspost/compress/zstd"
	"github.com/sony/gobreaker"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

// l2Cache is the persistent disk tier. Entries live at
// <root>/<engineVersion>/<schemaVersion>/<key_hex>.<ext> (spec §6.2).
type l2Cache struct {
	root          string
	engineVersion string
	ext           string
	magic         [4]byte
	schemaVersion uint16
	compress      bool
	logger        *slog.Logger

	breaker *gobreaker.CircuitBreaker
	stats   *Stats
}

type l2Config struct {
	Root          string
	EngineVersion string
	Ext           string
	Magic         [4]byte
	SchemaVersion uint16
	Compress      bool
	Logger        *slog.Logger
	Stats         *Stats
}

func newL2Cache(cfg l2Config) *l2Cache {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:    "l2-" + string(cfg.Magic[:]),
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &l2Cache{
		root:          cfg.Root,
		engineVersion: cfg.EngineVersion,
		ext:           cfg.Ext,
		magic:         cfg.Magic,
		schemaVersion: cfg.SchemaVersion,
		compress:      cfg.Compress,
		logger:        logger,
		breaker:       gobreaker.NewCircuitBreaker(settings),
		stats:         cfg.Stats,
	}
}

func (c *l2Cache) path(key ir.Hash128) string {
	return filepath.Join(c.root, c.engineVersion, fmt.Sprintf("%d", c.schemaVersion), key.String()+c.ext)
}

// Get reads and validates a record, retrying transient errors up to 3 times
// with a constant 20ms backoff (spec §4.1 read path, §7 CacheTransient). Any
// terminal error (corrupt, schema mismatch, not-found) is reported as a
// plain miss; the file is removed on corruption/schema mismatch so the next
// build rebuilds it cleanly.
func (c *l2Cache) Get(key ir.Hash128) ([]byte, bool) {
	p := c.path(key)

	var raw []byte
	op := func() error {
		b, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				return backoff.Permanent(err)
			}
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
		raw = b
		return nil
	}

	retry := backoff.WithMaxRetries(backoff.NewConstantBackOff(20*time.Millisecond), 3)
	if err := backoff.Retry(op, retry); err != nil {
		if !os.IsNotExist(err) {
			c.stats.addMisses(1)
		}
		return nil, false
	}

	dec, err := decodeRecord(c.magic, c.schemaVersion, raw)
	if err != nil {
		c.logger.Warn("cache: removing bad L2 record", "path", p, "error", err)
		_ = os.Remove(p)
		if errors.Is(err, ErrCorrupt) {
			c.stats.addCorrupt(1)
		}
		c.stats.addMisses(1)
		return nil, false
	}

	payload := dec.payload
	if dec.compressed {
		payload, err = zstdDecompress(payload)
		if err != nil {
			c.logger.Warn("cache: removing L2 record with bad zstd frame", "path", p, "error", err)
			_ = os.Remove(p)
			c.stats.addCorrupt(1)
			c.stats.addMisses(1)
			return nil, false
		}
	}

	c.stats.addL2Hits(1)
	return payload, true
}

// Set writes a record atomically: encode -> tmpfile -> fsync -> rename
// (spec §4.1). A write-once skip applies when a committed file already
// exists for this key. Disk-full/permission failures are swallowed per
// spec §4.1/§7 CacheWriteDenied: the build proceeds, counters increment.
func (c *l2Cache) Set(key ir.Hash128, payload []byte) error {
	p := c.path(key)
	if _, err := os.Stat(p); err == nil {
		return nil // write-once: a committed file already exists for this key
	}

	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.writeRecord(p, payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			c.stats.addWriteFails(1)
			return ErrBreakerOpen
		}
		return err
	}
	return nil
}

func (c *l2Cache) writeRecord(p string, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		c.stats.addWriteFails(1)
		if errors.Is(err, os.ErrPermission) {
			c.stats.addDiskFullErrors(1)
		}
		return fmt.Errorf("%w: mkdir %s: %v", ErrWriteDenied, filepath.Dir(p), err)
	}

	compressed := c.compress
	out := payload
	if compressed {
		var err error
		out, err = zstdCompress(payload)
		if err != nil {
			return fmt.Errorf("cache: zstd compress: %w", err)
		}
	}

	record := encodeRecord(c.magic, c.schemaVersion, out, compressed)

	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*"+c.ext)
	if err != nil {
		c.stats.addWriteFails(1)
		if errors.Is(err, os.ErrPermission) || isDiskFull(err) {
			c.stats.addDiskFullErrors(1)
		}
		return fmt.Errorf("%w: %v", ErrWriteDenied, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(record); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		c.stats.addWriteFails(1)
		if isDiskFull(err) {
			c.stats.addDiskFullErrors(1)
		}
		return fmt.Errorf("%w: %v", ErrWriteDenied, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		c.stats.addWriteFails(1)
		return fmt.Errorf("%w: fsync: %v", ErrWriteDenied, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		c.stats.addWriteFails(1)
		return fmt.Errorf("%w: close: %v", ErrWriteDenied, err)
	}

	if err := os.Rename(tmpPath, p); err != nil {
		os.Remove(tmpPath)
		c.stats.addWriteFails(1)
		return fmt.Errorf("%w: rename: %v", ErrWriteDenied, err)
	}
	return nil
}

// Invalidate removes every L2 entry whose key satisfies pred.
func (c *l2Cache) Invalidate(pred func(ir.Hash128) bool, allKeys []ir.Hash128) {
	for _, k := range allKeys {
		if pred(k) {
			_ = os.Remove(c.path(k))
		}
	}
}

func isDiskFull(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return errors.Is(pathErr.Err, os.ErrPermission) || pathErr.Err.Error() == "no space left on device"
	}
	return false
}

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

func zstdCompress(b []byte) ([]byte, error) {
	return zstdEncoder.EncodeAll(b, nil), nil
}

func zstdDecompress(b []byte) ([]byte, error) {
	return zstdDecoder.DecodeAll(b, nil)
}
