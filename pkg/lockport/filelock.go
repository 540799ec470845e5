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

package lockport

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// FileLock serializes full builds across multiple processes on one
// machine sharing one disk, using an advisory file lock under dir. TTL and
// token are tracked in-process only: flock itself has no notion of
// expiry, so Renew is a no-op beyond validating the token, and a crashed
// holder's lock is released by the OS when its file descriptor closes.
type FileLock struct {
	dir string

	mu   sync.Mutex
	held map[string]*heldLock
}

type heldLock struct {
	fl    *flock.Flock
	token string
}

// NewFileLock returns a FileLock whose advisory lock files live under dir.
func NewFileLock(dir string) *FileLock {
	return &FileLock{dir: dir, held: make(map[string]*heldLock)}
}

func (l *FileLock) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	path := l.pathFor(key)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return "", fmt.Errorf("lockport: filelock %s: %w", key, err)
	}
	if !ok {
		return "", ErrLocked
	}

	token, err := randomToken()
	if err != nil {
		_ = fl.Unlock()
		return "", err
	}

	l.mu.Lock()
	l.held[key] = &heldLock{fl: fl, token: token}
	l.mu.Unlock()

	return token, nil
}

func (l *FileLock) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	h, ok := l.held[key]
	if ok && h.token == token {
		delete(l.held, key)
	}
	l.mu.Unlock()

	if !ok || h.token != token {
		return ErrNotHeld
	}
	return h.fl.Unlock()
}

// Renew validates the caller still holds key; the underlying advisory
// lock has no expiry to extend.
func (l *FileLock) Renew(ctx context.Context, key, token string, ttl time.Duration) error {
	l.mu.Lock()
	h, ok := l.held[key]
	l.mu.Unlock()
	if !ok || h.token != token {
		return ErrNotHeld
	}
	return nil
}

func (l *FileLock) pathFor(key string) string {
	return filepath.Join(l.dir, key+".lock")
}

func randomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("lockport: generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
