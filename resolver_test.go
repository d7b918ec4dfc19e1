// Copyright 2026 The Memora Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memora

import (
	"io/ioutil"
	"path/filepath"
	"testing"
)

func testManifest() *Manifest {
	return &Manifest{
		CacheRootDir: ".memora-cache",
		Artifacts: map[string]Artifact{
			"build": {
				Inputs:  []string{"src"},
				Outputs: []string{"build/out.bin"},
			},
			"docs-%": {
				Inputs:  []string{"docs/%"},
				Outputs: []string{"build/docs-%.html"},
			},
		},
	}
}

func TestResolveLiteral(t *testing.T) {
	m := testManifest()
	r, err := Resolve(m, "build")
	if err != nil {
		t.Fatal(err)
	}
	if r.Name != "build" || r.Match != "" {
		t.Fatalf("got %+v", r)
	}
}

func TestResolvePattern(t *testing.T) {
	m := testManifest()
	r, err := Resolve(m, "docs-api")
	if err != nil {
		t.Fatal(err)
	}
	if r.Match != "api" {
		t.Fatalf("got match %q, want %q", r.Match, "api")
	}
	inputs := r.ResolvedInputs()
	if len(inputs) != 1 || inputs[0] != "docs/api" {
		t.Fatalf("got inputs %v", inputs)
	}
	outputs := r.ResolvedOutputs()
	if len(outputs) != 1 || outputs[0] != "build/docs-api.html" {
		t.Fatalf("got outputs %v", outputs)
	}
}

func TestResolvedInputsIncludesTheManifestItself(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Memora.yml")
	if err := ioutil.WriteFile(path, []byte(sampleManifest), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadManifest(dir)
	if err != nil {
		t.Fatal(err)
	}

	r, err := Resolve(m, "build")
	if err != nil {
		t.Fatal(err)
	}
	inputs := r.ResolvedInputs()
	if len(inputs) != 2 || inputs[0] != "src" || inputs[1] != path {
		t.Fatalf("got inputs %v, want [src %s]", inputs, path)
	}
}

func TestResolveUnknownArtifact(t *testing.T) {
	m := testManifest()
	if _, err := Resolve(m, "nonexistent"); err == nil {
		t.Fatal("expected an error for an unresolvable artifact name")
	}
}

func TestResolveAmbiguousPatternIsAnError(t *testing.T) {
	m := &Manifest{
		CacheRootDir: ".memora-cache",
		Artifacts: map[string]Artifact{
			"foo-%": {Inputs: []string{"a"}, Outputs: []string{"b"}},
			"%-bar": {Inputs: []string{"c"}, Outputs: []string{"d"}},
		},
	}
	if _, err := Resolve(m, "foo-bar"); err == nil {
		t.Fatal("expected an error when two patterns match the same name")
	}
}
