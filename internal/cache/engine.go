// Copyright 2026 The Memora Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cache implements the Memora cache engine: given an artifact's
// inputs and outputs, it determines which revision of the repository the
// artifact's outputs are cached under, and moves outputs into and out of
// the cache directory.
package cache

import (
	"os"
	"path/filepath"
	"regexp"

	radix "github.com/armon/go-radix"
	"github.com/pkg/errors"

	"github.com/andreaskurth/memora"
	"github.com/andreaskurth/memora/internal/cachelock"
	"github.com/andreaskurth/memora/internal/fsutil"
	"github.com/andreaskurth/memora/internal/vcsgit"
)

var objectDirRegexp = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Engine is a build artifact cache rooted at a single directory, answering
// questions about and moving outputs for artifacts of a single repository.
type Engine struct {
	Root string
	repo *vcsgit.Repo
	lock *cachelock.Lock
}

// New opens (creating if necessary) a cache engine rooted at root, backed
// by repo.
func New(root string, repo *vcsgit.Repo) (*Engine, error) {
	lk, err := cachelock.Open(root)
	if err != nil {
		return nil, memora.IOError(err, "could not open cache lock in "+root)
	}
	return &Engine{Root: root, repo: repo, lock: lk}, nil
}

// Lookup reports whether artifact is cached, without copying anything.
func (e *Engine) Lookup(inputs, outputs []string, ignoreUncommitted bool) (vcsgit.Revision, bool, error) {
	release, err := e.lock.RLock()
	if err != nil {
		return vcsgit.Revision{}, false, memora.IOError(err, "could not acquire cache read lock")
	}
	defer release()
	return e.cachedRevision(inputs, outputs, ignoreUncommitted)
}

// Get copies a cached artifact's outputs into the working tree, if it is
// cached.
func (e *Engine) Get(inputs, outputs []string, ignoreUncommitted bool) (vcsgit.Revision, bool, error) {
	release, err := e.lock.RLock()
	if err != nil {
		return vcsgit.Revision{}, false, memora.IOError(err, "could not acquire cache read lock")
	}
	defer release()

	rev, ok, err := e.cachedRevision(inputs, outputs, ignoreUncommitted)
	if err != nil || !ok {
		return rev, ok, err
	}
	objDir := filepath.Join(e.Root, rev.ID())
	for _, out := range outputs {
		src := filepath.Join(objDir, out)
		dst := filepath.Join(e.repo.Root, out)
		if err := fsutil.CopyTree(src, dst); err != nil {
			return vcsgit.Revision{}, false, memora.IOError(err, "could not copy cached output "+out)
		}
	}
	return rev, true, nil
}

// Insert computes the revision required by artifact and, unless it is
// already cached, copies the current outputs from the working tree into
// the cache under that revision. It reports whether a copy actually took
// place.
func (e *Engine) Insert(inputs, outputs []string, ignoreUncommitted bool) (vcsgit.Revision, bool, error) {
	release, err := e.lock.Lock()
	if err != nil {
		return vcsgit.Revision{}, false, memora.IOError(err, "could not acquire cache write lock")
	}
	defer release()

	if rev, ok, err := e.cachedRevision(inputs, outputs, ignoreUncommitted); err != nil {
		return vcsgit.Revision{}, false, err
	} else if ok {
		return rev, false, nil
	}

	if !ignoreUncommitted {
		for _, p := range append(append([]string{}, inputs...), outputs...) {
			if e.repo.HasUncommittedChanges(p) {
				return vcsgit.Revision{}, false, memora.InputError(p + " has uncommitted changes")
			}
		}
	}

	rev, err := e.RequiredRevision(inputs)
	if err != nil {
		return vcsgit.Revision{}, false, errors.Wrap(err, "could not determine revision required for insertion")
	}

	objDir := filepath.Join(e.Root, rev.ID())
	for _, out := range outputs {
		src := filepath.Join(e.repo.Root, out)
		dst := filepath.Join(objDir, out)
		if err := fsutil.CopyTree(src, dst); err != nil {
			return vcsgit.Revision{}, false, memora.IOError(err, "could not insert output "+out)
		}
	}
	return rev, true, nil
}

// cachedRevision finds a revision already present in the cache that
// satisfies the given inputs and outputs, without requiring a previous call
// to RequiredRevision.
func (e *Engine) cachedRevision(inputs, outputs []string, ignoreUncommitted bool) (vcsgit.Revision, bool, error) {
	if !ignoreUncommitted {
		for _, p := range append(append([]string{}, inputs...), outputs...) {
			if e.repo.HasUncommittedChanges(p) {
				return vcsgit.Revision{}, false, nil
			}
		}
	}

	required, err := e.RequiredRevision(inputs)
	if err != nil {
		return vcsgit.Revision{}, false, nil
	}

	var candidates map[string]vcsgit.Revision
	for i, out := range outputs {
		set, err := e.findCandidates(required, out, inputs)
		if err != nil {
			return vcsgit.Revision{}, false, err
		}
		if i == 0 {
			candidates = set
			continue
		}
		for id := range candidates {
			if _, ok := set[id]; !ok {
				delete(candidates, id)
			}
		}
	}
	// Several cached revisions may qualify; pick the lowest id so the answer
	// does not depend on map iteration order.
	var best vcsgit.Revision
	found := false
	for id, rev := range candidates {
		if !found || id < best.ID() {
			best, found = rev, true
		}
	}
	return best, found, nil
}

// RequiredRevision determines the revision an artifact's outputs must be
// produced from: the youngest revision that last modified any of its
// inputs, or, when those last-modifying revisions come from diverging
// branches, the oldest revision on the current branch that descends from
// all of them.
func (e *Engine) RequiredRevision(inputs []string) (vcsgit.Revision, error) {
	var revs []vcsgit.Revision
	for _, p := range inputs {
		rev, ok, err := e.repo.LastCommitOn(p)
		if err != nil {
			return vcsgit.Revision{}, memora.VCSError(err, "could not determine last commit on "+p)
		}
		if !ok {
			return vcsgit.Revision{}, memora.InputError(p + " has no commit history")
		}
		revs = append(revs, rev)
	}
	if len(revs) == 0 {
		return vcsgit.Revision{}, memora.InputError("artifact declares no inputs")
	}

	youngest := revs[0]
	diverged := false
	for _, r := range revs[1:] {
		comparable, err := e.repo.Comparable(youngest, r)
		if err != nil {
			return vcsgit.Revision{}, memora.VCSError(err, "could not compare revisions")
		}
		if !comparable {
			diverged = true
			continue
		}
		youngest, err = e.repo.Younger(youngest, r)
		if err != nil {
			return vcsgit.Revision{}, memora.VCSError(err, "could not compare revisions")
		}
	}
	if !diverged {
		return youngest, nil
	}

	head, err := e.repo.Head()
	if err != nil {
		return vcsgit.Revision{}, memora.VCSError(err, "could not resolve HEAD")
	}

	// The last-modifying revisions don't share a line of descent among
	// themselves, so seed the intersection from each of them rather than
	// from head: head is a descendant of all of them by definition, which
	// would make the intersection degenerate to head every time and defeat
	// the point of finding the oldest revision that actually integrates
	// every input.
	var oldestFirst []vcsgit.Revision
	var common map[string]vcsgit.Revision
	for i, r := range revs {
		descendants, err := e.repo.DescendantsOnBranch(r, head)
		if err != nil {
			return vcsgit.Revision{}, memora.VCSError(err, "could not list descendants of "+r.ID())
		}
		set := make(map[string]vcsgit.Revision, len(descendants))
		for _, d := range descendants {
			set[d.ID()] = d
		}
		if i == 0 {
			oldestFirst = descendants
			common = set
			continue
		}
		for id := range common {
			if _, ok := set[id]; !ok {
				delete(common, id)
			}
		}
	}
	for _, d := range oldestFirst {
		if _, ok := common[d.ID()]; ok {
			return d, nil
		}
	}
	return vcsgit.Revision{}, memora.VCSError(nil, "inputs last modified on diverging branches share no common descendant on the current branch")
}

// findCandidates returns, as a set keyed by revision id, the cache objects
// that may be used to satisfy output subpath given required as the
// artifact's computed required revision: the required revision itself if it
// has the subpath cached, or else any cached object that descends from it,
// has the subpath, and has not changed any of the artifact's inputs since.
func (e *Engine) findCandidates(required vcsgit.Revision, subpath string, inputs []string) (map[string]vcsgit.Revision, error) {
	result := make(map[string]vcsgit.Revision)

	if _, err := os.Stat(filepath.Join(e.Root, required.ID(), subpath)); err == nil {
		result[required.ID()] = required
		return result, nil
	}

	ids, err := e.objectIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		cand := e.repo.RevisionFromID(id)
		desc, err := e.repo.IsAncestor(required, cand)
		if err != nil || !desc {
			continue
		}
		if _, err := os.Stat(filepath.Join(e.Root, id, subpath)); err != nil {
			continue
		}
		unchanged := true
		for _, in := range inputs {
			same, err := e.repo.PathUnchanged(required, cand, in)
			if err != nil {
				return nil, memora.VCSError(err, "could not diff "+in+" between revisions")
			}
			if !same {
				unchanged = false
				break
			}
		}
		if unchanged {
			result[id] = cand
		}
	}
	return result, nil
}

// objectIDs lists the revision ids that currently have an object directory
// in the cache. It uses a radix tree purely as an ordered, deduplicated
// index: directory listings can return entries in any order, and we want a
// stable iteration order for reproducible candidate selection in tests.
func (e *Engine) objectIDs() ([]string, error) {
	entries, err := os.ReadDir(e.Root)
	if err != nil {
		return nil, memora.IOError(err, "could not list cache directory "+e.Root)
	}
	tree := radix.New()
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		if objectDirRegexp.MatchString(ent.Name()) {
			tree.Insert(ent.Name(), nil)
		}
	}
	ids := make([]string, 0, tree.Len())
	tree.Walk(func(s string, _ interface{}) bool {
		ids = append(ids, s)
		return false
	})
	return ids, nil
}
