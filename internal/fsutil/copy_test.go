// Copyright 2026 The Memora Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fsutil

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func mustReadFile(t *testing.T, path string) string {
	t.Helper()
	b, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestCopyTreeFileToNewDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "a.txt")
	dst := filepath.Join(dir, "dst", "a.txt")
	mustWriteFile(t, src, "hello")

	if err := CopyTree(src, dst); err != nil {
		t.Fatal(err)
	}
	if got := mustReadFile(t, dst); got != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestCopyTreeFileOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "b.txt")
	mustWriteFile(t, src, "new")
	mustWriteFile(t, dst, "old")

	if err := CopyTree(src, dst); err != nil {
		t.Fatal(err)
	}
	if got := mustReadFile(t, dst); got != "new" {
		t.Fatalf("got %q, want %q", got, "new")
	}
}

func TestCopyTreeSymlinkToDanglingTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "link")
	dst := filepath.Join(dir, "out", "link")
	if err := os.Symlink("does-not-exist", src); err != nil {
		t.Fatal(err)
	}

	if err := CopyTree(src, dst); err != nil {
		t.Fatal(err)
	}
	target, err := os.Readlink(dst)
	if err != nil {
		t.Fatal(err)
	}
	if target != "does-not-exist" {
		t.Fatalf("got link target %q, want %q", target, "does-not-exist")
	}
}

// TestCopyTreeDirIsAdditive mirrors the scenario the original implementation
// used to pin down its directory-copy semantics: the destination already has
// unrelated content, and part of the source is a symlink to a path that
// doesn't exist anywhere. Copying must merge in the new content, leave the
// unrelated destination file alone, and overwrite the file that exists on
// both sides.
func TestCopyTreeDirIsAdditive(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	mustWriteFile(t, filepath.Join(src, "shared.txt"), "from-src")
	mustWriteFile(t, filepath.Join(src, "sub", "nested.txt"), "nested")
	if err := os.Symlink("nowhere", filepath.Join(src, "sub", "dangling")); err != nil {
		t.Fatal(err)
	}

	mustWriteFile(t, filepath.Join(dst, "shared.txt"), "from-dst")
	mustWriteFile(t, filepath.Join(dst, "untouched.txt"), "keep-me")

	if err := CopyTree(src, dst); err != nil {
		t.Fatal(err)
	}

	if got := mustReadFile(t, filepath.Join(dst, "shared.txt")); got != "from-src" {
		t.Fatalf("shared.txt = %q, want overwritten with %q", got, "from-src")
	}
	if got := mustReadFile(t, filepath.Join(dst, "untouched.txt")); got != "keep-me" {
		t.Fatalf("untouched.txt = %q, want left alone", got)
	}
	if got := mustReadFile(t, filepath.Join(dst, "sub", "nested.txt")); got != "nested" {
		t.Fatalf("sub/nested.txt = %q, want %q", got, "nested")
	}
	target, err := os.Readlink(filepath.Join(dst, "sub", "dangling"))
	if err != nil {
		t.Fatal(err)
	}
	if target != "nowhere" {
		t.Fatalf("sub/dangling target = %q, want %q", target, "nowhere")
	}
}
