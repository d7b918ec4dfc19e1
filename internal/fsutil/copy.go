// Copyright 2026 The Memora Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fsutil copies files, directories and symlinks the way the Memora
// cache needs: additively, without dereferencing symlinks, and without
// requiring the destination to be empty or absent first.
package fsutil

import (
	"io"
	"os"
	"path/filepath"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
)

// CopyTree copies from onto to. from may be a regular file, a symlink or a
// directory; if it is a directory its contents are merged into to, which
// may already exist and contain unrelated entries. Existing files at the
// destination are overwritten; entries only present at the destination are
// left alone.
//
// Symlinks are never followed: copying a symlink recreates the same link at
// the destination, even if it is dangling.
func CopyTree(from, to string) error {
	info, err := os.Lstat(from)
	if err != nil {
		return errors.Wrapf(err, "could not stat %q", from)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return copySymlink(from, to)
	}
	if !info.IsDir() {
		return copyFile(from, to, info)
	}

	return godirwalk.Walk(from, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			rel, err := filepath.Rel(from, path)
			if err != nil {
				return errors.Wrapf(err, "could not relativize %q against %q", path, from)
			}
			dst := filepath.Join(to, rel)
			if rel == "." {
				return os.MkdirAll(dst, info.Mode().Perm())
			}

			switch {
			case de.IsSymlink():
				return copySymlink(path, dst)
			case de.IsDir():
				srcInfo, err := os.Lstat(path)
				if err != nil {
					return errors.Wrapf(err, "could not stat %q", path)
				}
				return os.MkdirAll(dst, srcInfo.Mode().Perm())
			case de.ModeType().IsRegular():
				srcInfo, err := os.Lstat(path)
				if err != nil {
					return errors.Wrapf(err, "could not stat %q", path)
				}
				return copyFile(path, dst, srcInfo)
			default:
				return errors.Errorf("cannot copy %q: unsupported file type %v", path, de.ModeType())
			}
		},
	})
}

func copyFile(from, to string, info os.FileInfo) error {
	if err := os.MkdirAll(filepath.Dir(to), 0o777); err != nil {
		return errors.Wrapf(err, "could not create parent directory of %q", to)
	}
	src, err := os.Open(from)
	if err != nil {
		return errors.Wrapf(err, "could not open %q", from)
	}
	defer src.Close()

	dst, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.Wrapf(err, "could not create %q", to)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return errors.Wrapf(err, "could not copy %q to %q", from, to)
	}
	if err := dst.Sync(); err != nil {
		return errors.Wrapf(err, "could not flush %q", to)
	}
	return os.Chmod(to, info.Mode().Perm())
}

func copySymlink(from, to string) error {
	target, err := os.Readlink(from)
	if err != nil {
		return errors.Wrapf(err, "could not read symlink %q", from)
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o777); err != nil {
		return errors.Wrapf(err, "could not create parent directory of %q", to)
	}
	if _, err := os.Lstat(to); err == nil {
		if err := os.Remove(to); err != nil {
			return errors.Wrapf(err, "could not replace existing %q", to)
		}
	}
	return os.Symlink(target, to)
}
