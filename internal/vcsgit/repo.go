// Copyright 2026 The Memora Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vcsgit wraps the Git command-line tool to answer the ancestry and
// change-history questions the Memora cache engine needs. It shells out to
// git rather than using a pure-Go implementation, the same way the rest of
// the ecosystem's VCS adapters do, because git's own plumbing commands are
// the most reliable source of truth for its own repository format.
package vcsgit

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/Masterminds/vcs"
	"github.com/pkg/errors"
)

// Repo is a handle to a Git working tree. It is safe for concurrent use: the
// memoisation maps it holds for ancestry and path-identity checks are guarded
// by a mutex, since a single Cache Engine run may query the same pair of
// revisions many times while resolving several artifacts.
type Repo struct {
	// Root is the absolute path to the working tree's top level directory,
	// as reported by `git rev-parse --show-toplevel`.
	Root string

	mu       sync.Mutex
	ancestry map[[2]string]bool
	pathSame map[pathQuery]bool
}

type pathQuery struct {
	old, new, path string
}

// Open locates the Git repository containing dir and returns a Repo rooted
// at its top level.
func Open(dir string) (*Repo, error) {
	r := &Repo{
		Root:     dir,
		ancestry: make(map[[2]string]bool),
		pathSame: make(map[pathQuery]bool),
	}
	out, err := r.run("rev-parse", "--show-toplevel")
	if err != nil {
		return nil, errors.Wrapf(err, "could not find a Git repository in %s", dir)
	}
	r.Root = strings.TrimSpace(out)
	return r, nil
}

// Revision identifies a single commit. It holds a non-owning back-reference
// to the Repo it was obtained from so that ancestry and path queries can be
// issued against the right working tree without the caller threading a Repo
// through every call site.
type Revision struct {
	id   string
	repo *Repo
}

// String returns the revision's full object id.
func (r Revision) String() string { return r.id }

// ID returns the revision's full object id.
func (r Revision) ID() string { return r.id }

// Equal reports whether two revisions name the same commit.
func (r Revision) Equal(o Revision) bool { return r.id == o.id }

// run executes git with args rooted at the repo, with an environment that
// can't prompt for credentials or pick up the caller's pager/editor.
func (r *Repo) run(args ...string) (string, error) {
	full := args
	if r.Root != "" {
		full = append([]string{"-C", r.Root}, args...)
	}
	cmd := exec.Command("git", full...)
	cmd.Env = scrubEnv(os.Environ())
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return "", &exitError{args: args, stderr: strings.TrimSpace(stderr.String()), cause: err}
		}
		// The command didn't run at all (git missing, working tree gone,
		// permission denied): classify it the way the rest of this
		// ecosystem's VCS wrappers classify failures of the local tool,
		// rather than a bare wrapped error.
		return "", vcs.NewLocalError("could not run git "+strings.Join(args, " "), err, stderr.String())
	}
	return stdout.String(), nil
}

// exitError marks a git invocation that ran but reported a non-zero exit
// status, as opposed to one that could not be run at all. Many of the
// history queries below treat a clean non-zero exit as a negative answer
// rather than a failure.
type exitError struct {
	args   []string
	stderr string
	cause  error
}

func (e *exitError) Error() string {
	return "git " + strings.Join(e.args, " ") + ": " + e.stderr
}

func (e *exitError) Unwrap() error { return e.cause }

// scrubEnv strips environment variables that would let git prompt
// interactively or shell out to an askpass helper, matching the defensive
// posture the rest of the ecosystem's VCS wrappers take when driving git
// non-interactively.
func scrubEnv(in []string) []string {
	out := make([]string, 0, len(in)+2)
	for _, kv := range in {
		if strings.HasPrefix(kv, "GIT_ASKPASS=") || strings.HasPrefix(kv, "GIT_TERMINAL_PROMPT=") {
			continue
		}
		out = append(out, kv)
	}
	out = append(out, "GIT_ASKPASS=", "GIT_TERMINAL_PROMPT=0")
	return out
}

// revision wraps an object id into a Revision bound to this repo.
func (r *Repo) revision(id string) Revision {
	return Revision{id: strings.TrimSpace(id), repo: r}
}

// RevisionFromID wraps an already-known object id into a Revision bound to
// this repo, without looking it up. Used when the id came from somewhere
// other than a git command this Repo just ran, such as a cache directory
// listing.
func (r *Repo) RevisionFromID(id string) Revision {
	return r.revision(id)
}
