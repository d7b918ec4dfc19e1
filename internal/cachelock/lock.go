// Copyright 2026 The Memora Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cachelock guards a cache directory against concurrent writers,
// both across processes and within one. Reads (lookup, get) may run
// concurrently with each other; writes (insert) are exclusive against
// everything.
package cachelock

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/theckman/go-flock"
)

const lockFileName = ".lock"

// Lock is a handle to a cache directory's lock file. One Lock should be
// created per Cache Engine and shared by all of its goroutines, since the
// in-process mutex only protects callers that share the same Lock value;
// go-flock's advisory file lock is what protects other processes.
type Lock struct {
	path string
	fl   *flock.Flock
	mu   sync.RWMutex
}

// Open prepares the lock file inside cacheRoot, creating the directory and
// file if they don't already exist.
func Open(cacheRoot string) (*Lock, error) {
	if err := os.MkdirAll(cacheRoot, 0o777); err != nil {
		return nil, errors.Wrapf(err, "could not create cache directory %q", cacheRoot)
	}
	path := filepath.Join(cacheRoot, lockFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o666)
		if err != nil {
			return nil, errors.Wrapf(err, "could not create lock file %q", path)
		}
		f.Close()
	}
	return &Lock{path: path, fl: flock.NewFlock(path)}, nil
}

// RLock acquires a shared lock, blocking until it is available, and returns
// a function that releases it. Multiple readers, in this or other
// processes, may hold the lock at once.
func (l *Lock) RLock() (func(), error) {
	l.mu.RLock()
	if err := l.fl.RLock(); err != nil {
		l.mu.RUnlock()
		return nil, errors.Wrapf(err, "could not acquire read lock on %q", l.path)
	}
	return func() {
		l.fl.Unlock()
		l.mu.RUnlock()
	}, nil
}

// Lock acquires an exclusive lock, blocking until no other reader or writer
// holds it, and returns a function that releases it.
func (l *Lock) Lock() (func(), error) {
	l.mu.Lock()
	if err := l.fl.Lock(); err != nil {
		l.mu.Unlock()
		return nil, errors.Wrapf(err, "could not acquire write lock on %q", l.path)
	}
	return func() {
		l.fl.Unlock()
		l.mu.Unlock()
	}, nil
}
