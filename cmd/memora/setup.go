// Copyright 2026 The Memora Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"

	"github.com/andreaskurth/memora"
	"github.com/andreaskurth/memora/internal/cache"
	"github.com/andreaskurth/memora/internal/vcsgit"
)

// session holds everything a subcommand needs once the repository and
// manifest have been located: the engine it should query, and the
// information needed to report whether the cache is administratively
// disabled.
type session struct {
	engine   *cache.Engine
	manifest *memora.Manifest
	repoRoot string
}

// open canonicalizes workingDir, finds its enclosing Git repository,
// locates and parses that repository's Memora manifest, and opens the
// cache engine rooted at the manifest's configured cache directory.
func open(workingDir string) (*session, error) {
	abs, err := filepath.Abs(workingDir)
	if err != nil {
		return nil, memora.IOError(err, "could not resolve working directory "+workingDir)
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, memora.IOError(err, "could not resolve working directory "+workingDir)
	}

	repo, err := vcsgit.Open(abs)
	if err != nil {
		return nil, memora.VCSError(err, "could not locate a Git repository at "+abs)
	}

	manifest, err := memora.LoadManifest(repo.Root)
	if err != nil {
		return nil, err
	}

	cacheRoot := manifest.AbsCacheRootDir()
	if err := os.MkdirAll(cacheRoot, 0o777); err != nil {
		return nil, memora.IOError(err, "could not create cache directory "+cacheRoot)
	}

	engine, err := cache.New(cacheRoot, repo)
	if err != nil {
		return nil, err
	}

	return &session{engine: engine, manifest: manifest, repoRoot: repo.Root}, nil
}

// resolve looks up name in the session's manifest and returns its resolved
// input and output paths.
func (s *session) resolve(name string) (inputs, outputs []string, err error) {
	resolved, err := memora.Resolve(s.manifest, name)
	if err != nil {
		return nil, nil, err
	}
	return resolved.ResolvedInputs(), resolved.ResolvedOutputs(), nil
}

// singleArtifactArg extracts the one required positional argument every
// memora subcommand takes.
func singleArtifactArg(args []string) (string, error) {
	if len(args) != 1 {
		return "", memora.InputError("exactly one <artifact> argument is required")
	}
	return args[0], nil
}
