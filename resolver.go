// Copyright 2026 The Memora Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memora

import (
	"regexp"
	"strings"
)

// ResolvedArtifact is an Artifact together with the name it was resolved
// from and, for pattern artifacts, the wildcard value that matched.
type ResolvedArtifact struct {
	Artifact
	Name  string
	Match string

	// manifestPath is the absolute path to the manifest this artifact was
	// resolved from. It is empty for artifacts resolved against a Manifest
	// built by hand rather than loaded with LoadManifest.
	manifestPath string
}

// Resolve looks artifactName up in the manifest. An artifact key may
// contain at most one "%" wildcard; a key without one must match
// artifactName literally, while a key with one matches any name that shares
// its literal prefix and suffix, binding the wildcard to the substring in
// between; that substring must be one or more word characters
// ([0-9A-Za-z_]).
//
// Resolve fails if no key matches, or if more than one does: an ambiguous
// match is treated the same as no match, since Memora has no rule for
// picking a winner.
func Resolve(m *Manifest, artifactName string) (*ResolvedArtifact, error) {
	if a, ok := m.Artifacts[artifactName]; ok {
		return &ResolvedArtifact{Artifact: a, Name: artifactName, manifestPath: m.path}, nil
	}

	var matches []ResolvedArtifact
	for key, a := range m.Artifacts {
		match, ok := patternMatch(key, artifactName)
		if !ok {
			continue
		}
		matches = append(matches, ResolvedArtifact{Artifact: a, Name: key, Match: match, manifestPath: m.path})
	}

	switch len(matches) {
	case 0:
		return nil, ResolveError("no artifact matches \"" + artifactName + "\"")
	case 1:
		return &matches[0], nil
	default:
		return nil, ResolveError("\"" + artifactName + "\" matches more than one artifact pattern")
	}
}

// patternMatch reports whether key, a manifest artifact name possibly
// containing one "%" wildcard, matches name. When it does, it also returns
// the substring the wildcard bound to.
func patternMatch(key, name string) (match string, ok bool) {
	idx := strings.IndexByte(key, '%')
	if idx < 0 {
		return "", false
	}
	if strings.IndexByte(key[idx+1:], '%') >= 0 {
		// More than one wildcard: not a supported pattern, never matches.
		return "", false
	}
	pattern := "^" + regexp.QuoteMeta(key[:idx]) + "([[:word:]]+)" + regexp.QuoteMeta(key[idx+1:]) + "$"
	re := regexp.MustCompile(pattern)
	sub := re.FindStringSubmatch(name)
	if sub == nil {
		return "", false
	}
	return sub[1], true
}

// substitute expands a path template belonging to a pattern artifact,
// replacing the first literal "%" with the wildcard value that was matched. Paths
// of artifacts without a wildcard are returned unchanged.
func (r *ResolvedArtifact) substitute(path string) string {
	if r.Match == "" {
		return path
	}
	return strings.Replace(path, "%", r.Match, 1)
}

// ResolvedInputs returns the artifact's input paths with any wildcard
// substituted in, plus the manifest's own path: editing the manifest must
// invalidate every cache entry it describes, not just ones whose declared
// inputs happened to change.
func (r *ResolvedArtifact) ResolvedInputs() []string {
	inputs := substituteAll(r.Inputs, r)
	if r.manifestPath != "" {
		inputs = append(inputs, r.manifestPath)
	}
	return inputs
}

// ResolvedOutputs returns the artifact's output paths with any wildcard
// substituted in.
func (r *ResolvedArtifact) ResolvedOutputs() []string {
	return substituteAll(r.Outputs, r)
}

func substituteAll(paths []string, r *ResolvedArtifact) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = r.substitute(p)
	}
	return out
}
