// Copyright 2026 The Memora Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memora

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// candidateManifestPaths are tried, in order, relative to a repository root.
// The first one that exists wins.
var candidateManifestPaths = []string{
	"Memora.yml",
	".ci/Memora.yml",
	".gitlab-ci.d/Memora.yml",
}

// Artifact names a set of input and output paths, both relative to the
// repository root, that together describe one cacheable build product.
type Artifact struct {
	Inputs  []string `yaml:"inputs"`
	Outputs []string `yaml:"outputs"`
}

// Manifest is the parsed form of a Memora.yml file.
type Manifest struct {
	// CacheRootDir is the directory holding cached objects, relative to the
	// repository root unless it is absolute.
	CacheRootDir string `yaml:"cache_root_dir"`
	// DisableEnvVar, if set, names an environment variable whose mere
	// presence disables the cache for get/lookup/insert.
	DisableEnvVar string `yaml:"disable_env_var"`
	// Artifacts maps artifact names, which may contain a single "%"
	// wildcard, to their definitions.
	Artifacts map[string]Artifact `yaml:"artifacts"`

	// path is the absolute path to the manifest file this was loaded from.
	path string
	// repoRoot is the absolute path to the repository root the manifest
	// belongs to.
	repoRoot string
}

// Path returns the absolute path to the manifest file.
func (m *Manifest) Path() string { return m.path }

// RepoRoot returns the absolute path to the repository root the manifest
// was discovered in.
func (m *Manifest) RepoRoot() string { return m.repoRoot }

// AbsCacheRootDir returns the cache root directory as an absolute path,
// resolving it against the repository root if it was given relatively.
func (m *Manifest) AbsCacheRootDir() string {
	if filepath.IsAbs(m.CacheRootDir) {
		return m.CacheRootDir
	}
	return filepath.Join(m.repoRoot, m.CacheRootDir)
}

// Disabled reports whether the cache is currently disabled by the manifest's
// DisableEnvVar, and the name of that variable for logging purposes.
func (m *Manifest) Disabled() (bool, string) {
	if m.DisableEnvVar == "" {
		return false, ""
	}
	if _, set := os.LookupEnv(m.DisableEnvVar); set {
		return true, m.DisableEnvVar
	}
	return false, m.DisableEnvVar
}

// LoadManifest searches repoRoot for one of the well-known manifest file
// names and parses the first one it finds.
func LoadManifest(repoRoot string) (*Manifest, error) {
	var found string
	for _, rel := range candidateManifestPaths {
		p := filepath.Join(repoRoot, rel)
		if _, err := os.Stat(p); err == nil {
			found = p
			break
		}
	}
	if found == "" {
		return nil, ConfigError(nil, "could not find a Memora manifest in "+repoRoot)
	}
	return readManifest(found, repoRoot)
}

func readManifest(path, repoRoot string) (*Manifest, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, ConfigError(err, "could not read manifest "+path)
	}
	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, ConfigError(err, "could not parse manifest "+path)
	}
	if m.CacheRootDir == "" {
		return nil, ConfigError(nil, "manifest "+path+" does not set cache_root_dir")
	}
	m.path = path
	m.repoRoot = repoRoot
	return m, nil
}
