// Copyright 2026 The Memora Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cachelock

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenCreatesLockFile(t *testing.T) {
	dir := t.TempDir()
	cacheRoot := filepath.Join(dir, "cache")
	l, err := Open(cacheRoot)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(cacheRoot, ".lock")); err != nil {
		t.Fatalf("expected Open to create the lock file: %v", err)
	}
	release, err := l.Lock()
	if err != nil {
		t.Fatal(err)
	}
	release()
}

func TestMultipleReadersDoNotBlockEachOther(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	release1, err := l.RLock()
	if err != nil {
		t.Fatal(err)
	}
	defer release1()

	done := make(chan struct{})
	go func() {
		release2, err := l.RLock()
		if err != nil {
			t.Error(err)
			close(done)
			return
		}
		defer release2()
		close(done)
	}()
	<-done
}
