// Copyright 2026 The Memora Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vcsgit

import (
	"strings"

	"github.com/pkg/errors"
)

// Head returns the revision currently checked out.
func (r *Repo) Head() (Revision, error) {
	out, err := r.run("rev-parse", "HEAD")
	if err != nil {
		return Revision{}, errors.Wrap(err, "could not resolve HEAD")
	}
	return r.revision(out), nil
}

// LastCommitOn returns the most recent revision that last modified path,
// relative to the repository root. It returns ok=false if path has never
// been committed.
func (r *Repo) LastCommitOn(path string) (rev Revision, ok bool, err error) {
	out, err := r.run("log", "-n", "1", "--pretty=format:%H", "--", path)
	if err != nil {
		return Revision{}, false, errors.Wrapf(err, "could not determine last commit on %q", path)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return Revision{}, false, nil
	}
	return r.revision(out), true, nil
}

// IsAncestor reports whether a is an ancestor of b, or the same commit.
func (r *Repo) IsAncestor(a, b Revision) (bool, error) {
	key := [2]string{a.id, b.id}
	r.mu.Lock()
	if v, ok := r.ancestry[key]; ok {
		r.mu.Unlock()
		return v, nil
	}
	r.mu.Unlock()

	_, err := r.run("merge-base", "--is-ancestor", a.id, b.id)
	var result bool
	if err == nil {
		result = true
	} else if isExitError(err) {
		result = false
	} else {
		return false, errors.Wrapf(err, "could not compare %s and %s", a.id, b.id)
	}

	r.mu.Lock()
	r.ancestry[key] = result
	r.mu.Unlock()
	return result, nil
}

// Comparable reports whether a and b are related by ancestry in either
// direction; two revisions on diverging branches are not comparable.
func (r *Repo) Comparable(a, b Revision) (bool, error) {
	if a.Equal(b) {
		return true, nil
	}
	aAnc, err := r.IsAncestor(a, b)
	if err != nil {
		return false, err
	}
	if aAnc {
		return true, nil
	}
	return r.IsAncestor(b, a)
}

// Younger returns the younger (more recent) of two comparable revisions. The
// caller must already know they are comparable; Younger reports an error
// otherwise.
func (r *Repo) Younger(a, b Revision) (Revision, error) {
	if a.Equal(b) {
		return a, nil
	}
	aAnc, err := r.IsAncestor(a, b)
	if err != nil {
		return Revision{}, err
	}
	if aAnc {
		return b, nil
	}
	bAnc, err := r.IsAncestor(b, a)
	if err != nil {
		return Revision{}, err
	}
	if bAnc {
		return a, nil
	}
	return Revision{}, errors.Errorf("revisions %s and %s are not comparable", a.id, b.id)
}

// PathUnchanged reports whether path is identical in from and to. It uses
// `git diff`, so renames and mode-only differences both count as a change.
func (r *Repo) PathUnchanged(from, to Revision, path string) (bool, error) {
	if from.Equal(to) {
		return true, nil
	}
	key := pathQuery{old: from.id, new: to.id, path: path}
	r.mu.Lock()
	if v, ok := r.pathSame[key]; ok {
		r.mu.Unlock()
		return v, nil
	}
	r.mu.Unlock()

	rangeArg := from.id + ".." + to.id
	_, err := r.run("diff", "--quiet", rangeArg, "--", path)
	var same bool
	if err == nil {
		same = true
	} else if isExitError(err) {
		same = false
	} else {
		return false, errors.Wrapf(err, "could not diff %q between %s and %s", path, from.id, to.id)
	}

	r.mu.Lock()
	r.pathSame[key] = same
	r.mu.Unlock()
	return same, nil
}

// PathExistsAt reports whether path exists in the working tree as checked
// out at rev, without actually checking rev out.
func (r *Repo) PathExistsAt(rev Revision, path string) (bool, error) {
	_, err := r.run("cat-file", "-e", rev.id+":"+path)
	if err == nil {
		return true, nil
	}
	if isExitError(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "could not check existence of %q at %s", path, rev.id)
}

// DescendantsOnBranch lists the revisions reachable from HEAD that have
// ancestor as an ancestor, ordered oldest first. ancestor itself is
// included. It is used to find the oldest common descendant when two
// inputs were last modified on diverging branches.
func (r *Repo) DescendantsOnBranch(ancestor, head Revision) ([]Revision, error) {
	out, err := r.run("log", "--reverse", "--ancestry-path", "--pretty=format:%H", ancestor.id+".."+head.id)
	if err != nil {
		return nil, errors.Wrapf(err, "could not list descendants of %s", ancestor.id)
	}
	revs := []Revision{ancestor}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		revs = append(revs, r.revision(line))
	}
	return revs, nil
}

// HasUncommittedChanges reports whether path has uncommitted modifications
// in the working tree, comparing against HEAD. A git failure is treated as
// "yes, has changes" so that callers fail closed rather than caching a
// working tree Memora could not actually inspect.
func (r *Repo) HasUncommittedChanges(path string) bool {
	_, err := r.run("diff", "--quiet", "HEAD", "--", path)
	if err == nil {
		return false
	}
	return true
}

// SubmodulePaths returns the working-tree-relative paths of any Git
// submodules registered in .gitmodules. The cache engine does not call it:
// inputs or outputs that fall inside a submodule are not detected or
// rejected, even though a submodule's checked-out commit is not reflected in
// the superproject's own history for that path.
func (r *Repo) SubmodulePaths() ([]string, error) {
	out, err := r.run("config", "--file", ".gitmodules", "--get-regexp", "path")
	if err != nil {
		if isExitError(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "could not read .gitmodules")
	}
	var paths []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 2 {
			paths = append(paths, fields[1])
		}
	}
	return paths, nil
}

func isExitError(err error) bool {
	_, ok := err.(*exitError)
	return ok
}
